package main

import (
	"os"

	"github.com/qforge/qforge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
