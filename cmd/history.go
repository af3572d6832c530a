package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qforge/qforge/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent renders",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		templateID, _ := cmd.Flags().GetString("template")

		svc, done, err := newService(true)
		if err != nil {
			return err
		}
		defer done()

		events, err := svc.History(cmd.Context(), store.QueryOpts{Limit: limit, TemplateID: templateID})
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No renders recorded.")
			return nil
		}

		fmt.Printf("%-36s  %-19s  %-20s  %-10s  %-4s  %-6s  %s\n",
			"ID", "Timestamp", "Template", "Seed", "Try", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 110))
		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗ " + strings.Join(e.ErrorKinds, ",")
			}
			tpl := e.TemplateID
			if tpl == "" {
				tpl = "-"
			}
			fmt.Printf("%-36s  %-19s  %-20s  %-10d  %-4d  %-6d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(tpl, 20),
				e.Seed,
				e.Attempts,
				e.DurationMs,
				ok,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of renders to show")
	historyCmd.Flags().StringP("template", "t", "", "Only renders of this template id")
}
