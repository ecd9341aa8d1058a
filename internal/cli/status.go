package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tOgg1/pedrito/internal/connection"
	"github.com/tOgg1/pedrito/internal/models"
	"github.com/tOgg1/pedrito/internal/normalize"
)

type statusOutput struct {
	State     models.ConnectionState `json:"state"`
	View      models.View            `json:"view"`
	Label     string                 `json:"label"`
	Onboarded bool                   `json:"onboarded"`
	Dismissed int                    `json:"dismissed"`
}

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Poll the WhatsApp link once and show the resulting view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			raw, err := rt.client.Status(ctx)
			if err != nil {
				return fmt.Errorf("fetch status: %w", err)
			}
			body, err := normalize.DecodeStrict(raw)
			if err != nil {
				return fmt.Errorf("fetch status: %w", err)
			}
			state := rt.cfg.Interpreter().Interpret(body)
			out := statusOutput{
				State:     state,
				View:      connection.ViewFor(state),
				Onboarded: rt.session.Onboarded(),
				Dismissed: rt.overlay.Len(),
			}
			if !out.Onboarded {
				out.View = models.ViewOnboarding
			}
			out.Label = out.View.Label()

			if asJSON {
				return a.writeJSON(out)
			}
			return writeTable(a.out, nil, [][]string{
				{"State", string(out.State)},
				{"View", string(out.View)},
				{"Label", out.Label},
				{"Onboarded", formatYesNo(out.Onboarded)},
				{"Dismissed", fmt.Sprint(out.Dismissed)},
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}
