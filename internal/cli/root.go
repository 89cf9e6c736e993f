// Package cli contains the pulseeco command line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/i474232898/pulse-eco/internal/config"
	"github.com/i474232898/pulse-eco/internal/metrics"
	"github.com/i474232898/pulse-eco/internal/output"
	"github.com/i474232898/pulse-eco/pkg/pulseeco"
	"github.com/i474232898/pulse-eco/pkg/pulseeco/transport"
)

// app holds the state shared by every command of one invocation.
type app struct {
	cfgFile string
	verbose bool
	asJSON  bool
	asTable bool

	cfg       *config.Config
	logger    *slog.Logger
	printer   *output.Printer
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	transport *transport.HTTP
}

// flagKeys maps persistent flags to config keys.
var flagKeys = map[string]string{
	"city":        "city",
	"user":        "username",
	"password":    "password",
	"base-url":    "base_url_format",
	"output":      "output",
	"concurrency": "fanout.concurrency",
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pulseeco",
		Short: "Query the pulse.eco city sensor API",
		Long: `pulseeco queries the pulse.eco environmental sensor network.

Raw and averaged data queries may span any range; they are split into the
windows the API accepts and merged back in order.

Example usage:
  pulseeco sensors -C skopje
  pulseeco dataRaw -C skopje --type pm10 --from 2019-03-17T12:00:00 --to 2019-04-03T14:57:03
  pulseeco avgData -C bitola --period day --type pm25 --from 2020-01-01 --to 2021-06-01 -o table
  pulseeco serve --watch skopje,bitola --interval 15m`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is .pulseeco.yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	pf.StringP("city", "C", "", "city to query (default skopje)")
	pf.StringP("user", "U", "", "pulse.eco username")
	pf.StringP("password", "P", "", "pulse.eco password")
	pf.String("base-url", "", "base URL format with {city_name} and {end_point} placeholders")
	pf.StringP("output", "o", "", "output format: json, yaml or table")
	pf.BoolVarP(&a.asJSON, "json", "J", false, "shorthand for --output json")
	pf.BoolVarP(&a.asTable, "table", "T", false, "shorthand for --output table")
	pf.Int("concurrency", 0, "parallel requests per spanned query (default 1)")

	root.AddCommand(
		newSensorsCmd(a),
		newSensorCmd(a),
		newDataRawCmd(a),
		newAvgDataCmd(a),
		newSimpleCmd(a, "data24h", "Last 24 hours of data for every sensor", pulseeco.API.Data24h),
		newSimpleCmd(a, "current", "Latest value of every sensor, at most two hours old", pulseeco.API.Current),
		newOverallCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup loads configuration and builds the shared transport.
func (a *app) setup(cmd *cobra.Command) error {
	a.logger = newLogger(cmd, slog.LevelInfo)

	flags := cmd.Flags()
	cfg, err := config.Load(a.cfgFile, func(v *viper.Viper) error {
		for name, key := range flagKeys {
			if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
				return err
			}
		}
		for name, key := range localFlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return err
				}
			}
		}
		switch {
		case a.asJSON:
			v.Set("output", string(output.FormatJSON))
		case a.asTable:
			v.Set("output", string(output.FormatTable))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	level := cfg.SlogLevel()
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = newLogger(cmd, level)
	slog.SetDefault(a.logger)

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}
	a.printer = output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), format)

	a.registry = prometheus.NewRegistry()
	a.metrics, err = metrics.New(a.registry)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	tcfg := cfg.Transport(flags.Changed("user"))
	tcfg.Observer = a.metrics
	tcfg.Logger = a.logger
	a.transport = transport.New(tcfg)

	a.logger.Debug("configuration loaded",
		"city", cfg.City,
		"base_url_format", cfg.BaseURLFormat,
		"raw_span", cfg.Spans.Raw,
		"avg_span", cfg.Spans.Avg,
		"concurrency", cfg.Fanout.Concurrency,
	)
	return nil
}

// client returns a pulse.eco client for city sharing the app's transport.
func (a *app) client(city string) pulseeco.API {
	opts := append(a.cfg.ClientOptions(),
		pulseeco.WithWarningHandler(func(w pulseeco.Warning) {
			a.printer.Warning("%s: %s", w.Op, w.Message)
		}),
		pulseeco.WithSpanObserver(a.metrics),
	)
	return pulseeco.NewClient(city, a.transport, opts...)
}

func newLogger(cmd *cobra.Command, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
}
