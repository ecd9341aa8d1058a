package cli

import (
	"github.com/spf13/cobra"
)

func newDismissedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dismissed",
		Short: "Inspect the loops resolved on this machine",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List resolved loop ids",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			ids := rt.overlay.IDs()
			if asJSON {
				if ids == nil {
					ids = []string{}
				}
				return a.writeJSON(ids)
			}
			if len(ids) == 0 {
				a.printf("No resolved loops.\n")
				return nil
			}
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				rows = append(rows, []string{id})
			}
			return writeTable(a.out, []string{"LOOP ID"}, rows)
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "output JSON")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget every resolved loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			n := rt.overlay.Len()
			if err := rt.overlay.Clear(cmd.Context()); err != nil {
				return err
			}
			a.printf("Cleared %d resolved loops.\n", n)
			return nil
		},
	}

	cmd.AddCommand(list, clearCmd)
	return cmd
}
