package cli

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/i474232898/pulse-eco/internal/scheduler"
	"github.com/i474232898/pulse-eco/internal/server"
	"github.com/i474232898/pulse-eco/internal/store"
	"github.com/i474232898/pulse-eco/pkg/pulseeco"
)

// localFlagKeys maps command specific flags to config keys.
var localFlagKeys = map[string]string{
	"addr":     "server.addr",
	"watch":    "server.watch",
	"interval": "server.interval",
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST gateway",
		Long: `Run a REST gateway in front of pulse.eco. It serves every client
operation for any city under /api/v1/:city, Prometheus metrics on /metrics
and, for watched cities, a polled history of overall values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Server

			a.registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			history := store.NewMemoryStore(cfg.MaxHistory, cfg.MaxAge)
			clients := func(city string) pulseeco.API { return a.client(city) }

			sched := scheduler.New(cfg.Watch, cfg.Interval, clients, history, a.logger)
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()
			if len(cfg.Watch) > 0 {
				a.printer.Info("polling overall for %s every %s", strings.Join(cfg.Watch, ", "), cfg.Interval)
			}

			app := server.NewApp(server.Options{
				Clients:   clients,
				History:   history,
				Gatherer:  a.registry,
				AccessLog: cmd.ErrOrStderr(),
			})
			return server.Run(cmd.Context(), app, cfg.Addr)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().StringSlice("watch", nil, "cities whose overall values are polled into history")
	cmd.Flags().Duration("interval", 0, "poll interval for watched cities (default 15m)")
	return cmd
}
