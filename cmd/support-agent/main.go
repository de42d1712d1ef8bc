package main

import (
	"os"

	"github.com/Malikxolo/Customer-Support-agent/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
