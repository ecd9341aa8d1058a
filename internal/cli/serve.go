package cli

import (
	"net"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tOgg1/pedrito/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the assistant and serve its JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := a.cfg.Server.ListenAddr
			if listen != "" {
				addr = listen
			}

			rt, err := openRuntime(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			asst := rt.newAssistant()
			srv := server.New(asst)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return asst.Run(ctx) })
			g.Go(func() error {
				return srv.ListenAndServe(ctx, addr, func(bound net.Addr) {
					a.printf("Serving on http://%s\n", bound)
				})
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides server.listen_addr)")
	return cmd
}
