package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/trackr/internal/api"
)

// newServeCmd creates the serve command for the API server
func newServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the trackr HTTP API.

The API serves projects, tasks, kanban boards and the roadmap pipeline
under /api. If the port is in use, the next ports are tried, up to 10.

Example:
  trackr serve              # server.host and server.port from config
  trackr serve --port 3000  # Start on a custom port`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			serverCfg := a.config().Server
			if cmd.Flags().Changed("host") {
				serverCfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				serverCfg.Port = port
			}

			store, err := a.db(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := a.importer(cmd.Context())
			if err != nil {
				return err
			}

			server := api.New(&api.Config{
				Addr:     serverCfg.Addr(),
				Logger:   a.logger,
				DB:       store,
				Importer: svc,
			})

			out := cmd.OutOrStdout()
			if !a.quiet {
				_, _ = fmt.Fprintf(out, "Starting API server on %s (database: %s)\n", serverCfg.Addr(), store.Dialect())
				_, _ = fmt.Fprintln(out, "Press Ctrl+C to stop")
			}

			// Handle graceful shutdown
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			go func() {
				select {
				case <-sigCh:
					_, _ = fmt.Fprintln(out, "\nShutting down...")
					cancel()
				case <-ctx.Done():
				}
			}()

			return server.StartContext(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "host to listen on")
	cmd.Flags().IntVar(&port, "port", 0, "port to listen on")

	return cmd
}
