package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
)

type UI struct {
	program *tea.Program
}

func NewUI(model tea.Model) *UI {
	return &UI{program: tea.NewProgram(model)}
}

func (u *UI) Run() error {
	_, err := u.program.Run()
	return err
}

// Send forwards a message into the running program. Safe to call from
// other goroutines.
func (u *UI) Send(msg tea.Msg) {
	u.program.Send(msg)
}
