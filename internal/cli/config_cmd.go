package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tOgg1/pedrito/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}

	var reveal bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			data, err := a.cfg.YAML(reveal)
			if err != nil {
				return err
			}
			_, err = a.out.Write(data)
			return err
		},
	}
	show.Flags().BoolVar(&reveal, "reveal", false, "print API keys instead of masking them")

	var path string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			target := path
			if target == "" {
				target = filepath.Join(a.cfg.Global.ConfigDir, "config.yaml")
			}
			if err := config.WriteDefault(target); err != nil {
				return err
			}
			a.printf("Wrote %s\n", target)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "", "where to write (default: <config_dir>/config.yaml)")

	cmd.AddCommand(show, initCmd)
	return cmd
}
