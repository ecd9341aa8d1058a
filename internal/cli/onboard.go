package cli

import (
	"github.com/spf13/cobra"
)

func newOnboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "onboard",
		Short: "Mark onboarding complete so the dashboard opens on the link screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			if rt.session.Onboarded() {
				a.printf("Already onboarded.\n")
				return rt.Close()
			}
			rt.session.MarkOnboarded()
			if err := rt.Close(); err != nil {
				return err
			}
			a.printf("Onboarding complete.\n")
			return nil
		},
	}
}
