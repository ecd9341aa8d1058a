package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/pedrito/internal/assistant"
	"github.com/tOgg1/pedrito/internal/briefing"
)

func newLoopsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "loops",
		Aliases: []string{"loop"},
		Short:   "Fetch open loops once, minus the ones you resolved",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			b := assistant.FetchBriefing(ctx, rt.client, rt.cfg.Normalizer(), false)
			if b.LoopsErr != nil {
				return fmt.Errorf("fetch loops: %w", b.LoopsErr)
			}
			loops, err := rt.overlay.Reconcile(ctx, b.Loops)
			if err != nil {
				return fmt.Errorf("save dismissals: %w", err)
			}
			groups := briefing.GroupByLane(loops)

			if asJSON {
				return a.writeJSON(groups)
			}
			if groups.Total() == 0 {
				a.printf("Nothing open. You're all caught up.\n")
				return nil
			}
			now := time.Now()
			rows := make([][]string, 0, groups.Total())
			for _, section := range groups.Sections() {
				for _, l := range section.Loops {
					rows = append(rows, []string{
						section.Title,
						l.ID,
						l.DisplayName,
						truncate(l.Summary(), 60),
						briefing.MetaLine(l, now),
					})
				}
			}
			return writeTable(a.out, []string{"LANE", "ID", "FROM", "WHAT", "META"}, rows)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	cmd.AddCommand(
		newResolveCmd(a, "complete", "Mark a loop done"),
		newResolveCmd(a, "dismiss", "Dismiss a loop"),
	)
	return cmd
}

// newResolveCmd records the id locally first, then tells upstream. The local
// record stands even when upstream refuses.
func newResolveCmd(a *app, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <loop-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := strings.TrimSpace(args[0])
			if id == "" {
				return fmt.Errorf("loop id is required")
			}
			rt, err := openRuntime(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.overlay.Record(ctx, id); err != nil {
				return fmt.Errorf("record %s: %w", id, err)
			}
			call := rt.client.Complete
			if action == "dismiss" {
				call = rt.client.Dismiss
			}
			if err := call(ctx, id); err != nil {
				return fmt.Errorf("%s %s: %w", action, id, err)
			}
			a.printf("%s: %s\n", action, id)
			return nil
		},
	}
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}
