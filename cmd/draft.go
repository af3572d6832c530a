package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qforge/qforge/internal/authoring"
	"github.com/qforge/qforge/internal/llm"
	"github.com/qforge/qforge/internal/service"
	"github.com/qforge/qforge/internal/store"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Draft new templates for a skill with an LLM",
	Long: `Ask the configured LLM provider for new question templates.

Drafts are validated and sent back once for repair if they fail. The batch is
printed as JSON; with --save, valid drafts are stored under their draft id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		skill, _ := cmd.Flags().GetString("skill")
		grade, _ := cmd.Flags().GetInt("grade")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		count, _ := cmd.Flags().GetInt("count")
		avoid, _ := cmd.Flags().GetStringArray("avoid")
		save, _ := cmd.Flags().GetBool("save")

		if !cfg.LLMConfigured {
			return fmt.Errorf("no LLM provider configured: set QFORGE_LLM_PROVIDER and its API key, e.g. QFORGE_ANTHROPIC_API_KEY")
		}

		svc, done, err := newService(true)
		if err != nil {
			return err
		}
		defer done()

		ctx := cmd.Context()
		provider, err := llm.NewProvider(ctx, cfg.LLM, svc.Events, logger)
		if err != nil {
			return fmt.Errorf("LLM provider: %w", err)
		}

		drafter := authoring.New(provider, authoring.DefaultConfig(), logger)
		batch, err := drafter.Draft(ctx, authoring.DraftInput{
			Skill:      skill,
			Grade:      grade,
			Difficulty: difficulty,
			Count:      count,
			Avoid:      avoid,
		})
		if err != nil {
			return err
		}

		if err := printJSON(os.Stdout, batch); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Model %s: %d in / %d out tokens", batch.Model, batch.Usage.InputTokens, batch.Usage.OutputTokens)
		if cost, ok := llm.EstimateCost(batch.Model, batch.Usage); ok {
			fmt.Fprintf(os.Stderr, ", est. %s", formatCost(cost))
		}
		fmt.Fprintln(os.Stderr)

		if !save {
			return nil
		}
		for _, d := range batch.Drafts {
			if !d.Valid() {
				fmt.Fprintf(os.Stderr, "skipped %s (%s): failed validation\n", d.ID, d.Title)
				continue
			}
			saved, err := svc.SaveTemplate(ctx,
				store.Template{ID: d.ID, Title: d.Title, Content: d.Content},
				service.SaveOptions{KeepRevisions: cfg.RevisionKeep})
			if err != nil {
				return fmt.Errorf("save draft %s: %w", d.ID, err)
			}
			fmt.Fprintf(os.Stderr, "saved %s (%s)\n", saved.ID, saved.Title)
		}
		return nil
	},
}

func init() {
	draftCmd.Flags().String("skill", "", "Skill the templates should practice (required)")
	draftCmd.Flags().Int("grade", 4, "Target grade level, 0 to 12")
	draftCmd.Flags().String("difficulty", "", "easy, medium or hard (default: mixed)")
	draftCmd.Flags().IntP("count", "n", 3, "Number of templates to draft, 1 to 10")
	draftCmd.Flags().StringArray("avoid", nil, "Question text the drafts must not repeat (repeatable)")
	draftCmd.Flags().Bool("save", false, "Store valid drafts as templates")
	_ = draftCmd.MarkFlagRequired("skill")
}
