package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	quiet     bool
	jsonOut   bool
	timeout   time.Duration
)

// httpClient is shared by all commands; tests swap it out.
var httpClient = &http.Client{}

var rootCmd = &cobra.Command{
	Use:   "ordertrackctl",
	Short: "CLI for the ordertrack status pipeline",
	Long: `ordertrackctl drives the order status propagation pipeline.

Create orders, inspect their status history, and watch live updates in real-time.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "server base URL")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "print only essential output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print raw JSON responses")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
}

func IsQuiet() bool {
	return quiet
}

func IsJSONOutput() bool {
	return jsonOut
}

// NewCommandContext bounds a single request; the watch stream manages
// its own lifetime and does not use it.
func NewCommandContext(parent context.Context) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(parent, timeout)
	}
	return context.WithCancel(parent)
}
