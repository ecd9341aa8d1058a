package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/pedrito/internal/assistant"
	"github.com/tOgg1/pedrito/internal/briefing"
	"github.com/tOgg1/pedrito/internal/models"
)

type digestOutput struct {
	Digest *models.DigestSummary   `json:"digest"`
	Counts briefing.CategoryCounts `json:"counts,omitempty"`
}

func newDigestCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Fetch today's briefing once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			b := assistant.FetchBriefing(ctx, rt.client, rt.cfg.Normalizer(), true)
			if b.DigestErr != nil {
				return fmt.Errorf("fetch digest: %w", b.DigestErr)
			}
			out := digestOutput{Digest: b.Digest}
			if b.LoopsErr == nil {
				out.Counts = briefing.CountCategories(rt.overlay.Filter(b.Loops))
			}

			if asJSON {
				return a.writeJSON(out)
			}
			if out.Digest != nil && out.Digest.NarrativeSummary != "" {
				a.printf("%s\n\n", out.Digest.NarrativeSummary)
			}
			if out.Digest.HasChips() {
				a.printf("People: %s\n", joinOrNone(out.Digest.KeyPeople))
				a.printf("Topics: %s\n", joinOrNone(out.Digest.KeyTopics))
			}
			if out.Counts != nil {
				parts := make([]string, 0, len(models.KnownCategories))
				for _, c := range models.KnownCategories {
					parts = append(parts, fmt.Sprintf("%s %d", briefing.CategoryLabel(c), out.Counts[c]))
				}
				a.printf("%s\n", strings.Join(parts, " · "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
