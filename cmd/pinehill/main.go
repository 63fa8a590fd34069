package main

import (
	"os"

	"github.com/pinehill-dev/pinehill/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
