package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qforge/qforge/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|->...",
	Short: "Statically check templates without rendering them",
	Args:  cobra.MinimumNArgs(1),
	// Validation needs no configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		invalid := 0
		results := make(map[string]validation.Result, len(args))
		for _, path := range args {
			src, err := readSource(path)
			if err != nil {
				return err
			}
			res := validation.Validate(src)
			if !res.Valid {
				invalid++
			}
			results[path] = res
		}

		var out any = results
		if len(args) == 1 {
			out = results[args[0]]
		}
		if err := printJSON(os.Stdout, out); err != nil {
			return err
		}
		if invalid > 0 {
			return fmt.Errorf("%d of %d templates invalid", invalid, len(args))
		}
		return nil
	},
}
