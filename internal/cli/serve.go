package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maherduit/statement-engine/internal/api"
	"github.com/maherduit/statement-engine/internal/logging"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the statement engine over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}

			srv := api.NewServer(a.eng, a.cfg, a.log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Listen() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				a.log.Info("shutting down", logging.F("port", a.cfg.Server.Port))
				return srv.Shutdown()
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8000, "listen port (overrides server.port)")
	return cmd
}
