package main

import (
	"os"

	"github.com/Dragoner91/ordertrack/cmd/ordertrackctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
