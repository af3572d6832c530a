package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/qforge/qforge/internal/app"
)

var previewCmd = &cobra.Command{
	Use:   "preview [file]",
	Short: "Interactively preview a template in the terminal",
	Long: `Render a template in a full-screen terminal view.

Reroll with a fresh seed, jump to a specific seed, and reload the file after
editing it to see the change with the same seed. Renders are not recorded.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		if (id == "") == (len(args) == 0) {
			return fmt.Errorf("give either a template file or --id")
		}

		var seed *int64
		if cmd.Flags().Changed("seed") {
			s, _ := cmd.Flags().GetInt64("seed")
			seed = &s
		}

		svc, done, err := newService(id != "")
		if err != nil {
			return err
		}
		defer done()

		// Renders from the previewer stay out of the event log.
		renderer := *svc
		renderer.Events = nil

		opts := app.Options{Renderer: &renderer, Seed: seed}
		if id != "" {
			opts.Title = id
			opts.TemplateID = id
			opts.Load = func(ctx context.Context) (string, error) {
				t, err := svc.Template(ctx, id)
				if err != nil {
					return "", err
				}
				return t.Content, nil
			}
		} else {
			opts.Title = filepath.Base(args[0])
			opts.Load = fileLoader(args[0])
		}
		return app.Run(opts)
	},
}

func init() {
	previewCmd.Flags().Int64("seed", 0, "Seed for the first render (default: random)")
	previewCmd.Flags().String("id", "", "Preview a stored template by id")
}
