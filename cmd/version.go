package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	// Skip config loading so version works with a broken environment.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("qforge", version)
	},
}
