package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qforge/qforge/internal/service"
	"github.com/qforge/qforge/internal/store"
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"tpl"},
	Short:   "Manage stored templates",
}

var templatePutCmd = &cobra.Command{
	Use:   "put <id> <file|->",
	Short: "Validate and store a template",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		force, _ := cmd.Flags().GetBool("force")

		src, err := readSource(args[1])
		if err != nil {
			return err
		}
		svc, done, err := newService(true)
		if err != nil {
			return err
		}
		defer done()

		saved, err := svc.SaveTemplate(cmd.Context(),
			store.Template{ID: args[0], Title: title, Content: src},
			service.SaveOptions{KeepRevisions: cfg.RevisionKeep, AllowInvalid: force})
		var invalid *service.InvalidTemplateError
		if errors.As(err, &invalid) {
			for _, is := range invalid.Result.Errors {
				fmt.Fprintf(os.Stderr, "error: %s\n", is)
			}
			return fmt.Errorf("%w (use --force to store anyway)", err)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s version %d\n", saved.ID, saved.Version)
		return nil
	},
}

var templateGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print a stored template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := newService(true)
		if err != nil {
			return err
		}
		defer done()

		t, err := svc.Template(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Print(t.Content)
		if !strings.HasSuffix(t.Content, "\n") {
			fmt.Println()
		}
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := newService(true)
		if err != nil {
			return err
		}
		defer done()

		list, err := svc.ListTemplates(cmd.Context())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No templates stored.")
			return nil
		}

		fmt.Printf("%-28s  %-32s  %7s  %s\n", "ID", "Title", "Version", "Updated")
		fmt.Println(strings.Repeat("─", 90))
		for _, t := range list {
			fmt.Printf("%-28s  %-32s  %7d  %s\n",
				truncate(t.ID, 28), truncate(t.Title, 32), t.Version,
				t.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a template and its revisions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := newService(true)
		if err != nil {
			return err
		}
		defer done()

		if err := svc.DeleteTemplate(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var templateHistoryCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "List a template's stored revisions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		show, _ := cmd.Flags().GetInt64("show")

		svc, done, err := newService(true)
		if err != nil {
			return err
		}
		defer done()

		revs, err := svc.Revisions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if show > 0 {
			for _, r := range revs {
				if r.Version == show {
					fmt.Print(r.Content)
					return nil
				}
			}
			return fmt.Errorf("revision %d of %s: %w", show, args[0], store.ErrNotFound)
		}

		if len(revs) == 0 {
			fmt.Println("No revisions recorded.")
			return nil
		}
		for _, r := range revs {
			fmt.Printf("v%-5d  %s  %d bytes\n",
				r.Version, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), len(r.Content))
		}
		return nil
	},
}

func init() {
	templatePutCmd.Flags().String("title", "", "Human-readable title")
	templatePutCmd.Flags().Bool("force", false, "Store the template even if validation fails")
	templateHistoryCmd.Flags().Int64("show", 0, "Print the content of one revision")

	templateCmd.AddCommand(templatePutCmd)
	templateCmd.AddCommand(templateGetCmd)
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateDeleteCmd)
	templateCmd.AddCommand(templateHistoryCmd)
}
