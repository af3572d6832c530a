package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qforge/qforge/internal/service"
)

var renderCmd = &cobra.Command{
	Use:   "render [file|-]",
	Short: "Render a template file or a stored template",
	Long: `Render a template and print the result as JSON.

The template comes from a file, from stdin ("-"), or from the store with --id.
Renders are recorded in the event log unless --no-record is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		noRecord, _ := cmd.Flags().GetBool("no-record")
		format, _ := cmd.Flags().GetString("format")

		if (id == "") == (len(args) == 0) {
			return fmt.Errorf("give either a template file or --id")
		}

		var seed *int64
		if cmd.Flags().Changed("seed") {
			s, _ := cmd.Flags().GetInt64("seed")
			seed = &s
		}

		svc, done, err := newService(id != "" || !noRecord)
		if err != nil {
			return err
		}
		defer done()

		ctx := cmd.Context()
		var res *service.Rendered
		if id != "" {
			res, err = svc.RenderTemplate(ctx, id, seed)
			if err != nil {
				return err
			}
		} else {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			res = svc.Render(ctx, src, seed, "")
		}

		switch format {
		case "json":
			if err := printJSON(os.Stdout, res); err != nil {
				return err
			}
		case "text":
			printRendered(os.Stdout, res)
		default:
			return fmt.Errorf("unknown format %q: must be json or text", format)
		}

		if !res.Success {
			return fmt.Errorf("render failed: %s", strings.Join(res.ErrorKinds(), ", "))
		}
		return nil
	},
}

func printRendered(w io.Writer, res *service.Rendered) {
	fmt.Fprintf(w, "Seed:     %d (attempts %d, %dms)\n", res.Seed, res.Attempts, res.Metrics.GenerationTimeMs)
	if res.RenderID != "" {
		fmt.Fprintf(w, "Render:   %s\n", res.RenderID)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, res.Question.Text)
	if res.Answer != nil {
		fmt.Fprintf(w, "\nAnswer: %s\n", res.Answer.Text)
	}
	for i, a := range res.Answers {
		mark := " "
		if a.Correct {
			mark = "✓"
		}
		fmt.Fprintf(w, "  %s %c) %s\n", mark, 'A'+rune(i%26), a.Text)
	}
	if res.Solution.Text != "" {
		fmt.Fprintf(w, "\nSolution: %s\n", res.Solution.Text)
	}
	if res.Diagram.SVG != "" {
		fmt.Fprintf(w, "\nDiagram: %d bytes of SVG\n", len(res.Diagram.SVG))
	}
	for _, is := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", is)
	}
	for _, is := range res.Errors {
		fmt.Fprintf(w, "error: %s\n", is)
	}
}

func init() {
	renderCmd.Flags().Int64("seed", 0, "Seed to reproduce a render (default: random)")
	renderCmd.Flags().String("id", "", "Render a stored template by id")
	renderCmd.Flags().Bool("no-record", false, "Do not record the render in the event log")
	renderCmd.Flags().StringP("format", "f", "json", "Output format: json or text")
}
