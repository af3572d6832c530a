package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qforge/qforge/internal/llm"
	"github.com/qforge/qforge/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect LLM request/response events",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().RecentLLMRequests(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No LLM events found.")
			return nil
		}

		fmt.Printf("%-36s  %-19s  %-16s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 130))

		for _, e := range events {
			if purpose != "" && e.Purpose != purpose {
				continue
			}
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Printf("%-36s  %-19s  %-16s  %-28s  %-6d  %-6d  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Purpose,
				truncate(e.Model, 28),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().LLMRequest(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		sep := strings.Repeat("─", 60)

		fmt.Printf("ID:        %s\n", e.ID)
		fmt.Printf("Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Provider:  %s\n", e.Provider)
		fmt.Printf("Model:     %s\n", e.Model)
		fmt.Printf("Purpose:   %s\n", e.Purpose)
		fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Printf("Latency:   %dms\n", e.LatencyMs)
		fmt.Printf("Success:   %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Printf("Error:     %s\n", e.ErrorMessage)
		}

		for _, part := range []struct{ name, body string }{
			{"REQUEST", e.RequestBody},
			{"RESPONSE", e.ResponseBody},
		} {
			fmt.Println()
			fmt.Println(sep)
			fmt.Println(part.name)
			fmt.Println(sep)
			if part.body != "" {
				fmt.Println(part.body)
			} else {
				fmt.Println("(not captured)")
			}
		}
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		usage, err := s.EventRepo().LLMUsage(cmd.Context())
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if len(usage) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}

		fmt.Printf("%-16s  %-28s  %6s  %10s  %10s  %8s  %10s\n",
			"Purpose", "Model", "Calls", "Input", "Output", "Avg Ms", "Cost")
		fmt.Println(strings.Repeat("─", 100))

		var (
			totalCalls, totalIn, totalOut int
			totalCost                     float64
			unknown                       []string
		)
		for _, u := range usage {
			costStr := "?"
			if c, ok := llm.EstimateCost(u.Model, llm.Usage{InputTokens: u.InputTokens, OutputTokens: u.OutputTokens}); ok {
				totalCost += c
				costStr = formatCost(c)
			} else {
				unknown = append(unknown, u.Model)
			}
			fmt.Printf("%-16s  %-28s  %6d  %10d  %10d  %8d  %10s\n",
				truncate(u.Purpose, 16), truncate(u.Model, 28), u.Calls,
				u.InputTokens, u.OutputTokens, u.AvgLatencyMs, costStr)
			totalCalls += u.Calls
			totalIn += u.InputTokens
			totalOut += u.OutputTokens
		}

		fmt.Println(strings.Repeat("─", 100))
		label := "TOTAL"
		if len(unknown) > 0 {
			label = "TOTAL (partial)"
		}
		fmt.Printf("%-16s  %-28s  %6d  %10d  %10d  %8s  %10s\n",
			label, "", totalCalls, totalIn, totalOut, "", formatCost(totalCost))

		if len(unknown) > 0 {
			fmt.Printf("\nPricing unavailable for: %s\n", strings.Join(unknown, ", "))
		}
		return nil
	},
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (template-draft or template-repair)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
