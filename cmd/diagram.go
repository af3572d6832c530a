package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qforge/qforge/internal/diagram"
)

var diagramCmd = &cobra.Command{
	Use:   "diagram <file|->",
	Short: "Compose diagram source into SVG",
	Long: `Compose diagram mini-language source into one SVG document.

Lines that match no diagram type, or fail their type's grammar, are skipped
and reported on stderr.`,
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		code, err := readSource(args[0])
		if err != nil {
			return err
		}
		comp := diagram.Builtin().Compose(code)
		for _, s := range comp.Skipped {
			fmt.Fprintf(os.Stderr, "skipped: %+v\n", s)
		}
		if comp.SVG == "" {
			return fmt.Errorf("no diagram produced")
		}

		if out == "" || out == "-" {
			_, err = fmt.Fprintln(os.Stdout, comp.SVG)
			return err
		}
		if err := os.WriteFile(out, []byte(comp.SVG), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		return nil
	},
}

func init() {
	diagramCmd.Flags().StringP("out", "o", "", "Write the SVG to a file instead of stdout")
}
