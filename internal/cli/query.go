package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/pulse-eco/pkg/pulseeco"
)

// spanFlags are shared by dataRaw and avgData.
type spanFlags struct {
	from     string
	to       string
	sensorID string
	typ      string
}

func (f *spanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "start of the range, ISO-8601 (naive means UTC)")
	cmd.Flags().StringVar(&f.to, "to", "", "end of the range, ISO-8601 (naive means UTC)")
	cmd.Flags().StringVarP(&f.sensorID, "sensor", "s", "", "sensor id (-1 for the city average)")
	cmd.Flags().StringVarP(&f.typ, "type", "t", "", "measurement type, e.g. pm10, pm25, noise_dba")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
}

// parse validates the range before any request is made.
func (f *spanFlags) parse() (time.Time, time.Time, pulseeco.Filters, error) {
	from, err := pulseeco.ParseTimestamp(f.from)
	if err != nil {
		return time.Time{}, time.Time{}, pulseeco.Filters{}, fmt.Errorf("--from: %w", err)
	}
	to, err := pulseeco.ParseTimestamp(f.to)
	if err != nil {
		return time.Time{}, time.Time{}, pulseeco.Filters{}, fmt.Errorf("--to: %w", err)
	}
	return from, to, pulseeco.Filters{SensorID: f.sensorID, Type: pulseeco.DataValueType(f.typ)}, nil
}

func newSensorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sensors",
		Short: "List the sensors of a city",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sensors, err := a.client(a.cfg.City).Sensors(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.Print(sensors)
		},
	}
}

func newSensorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sensor <id>",
		Short: "Show a single sensor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sensor, err := a.client(a.cfg.City).Sensor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printer.Print(sensor)
		},
	}
}

func newDataRawCmd(a *app) *cobra.Command {
	var f spanFlags
	cmd := &cobra.Command{
		Use:   "dataRaw",
		Short: "Raw measurements over any time range",
		Long: `Raw measurements over any time range. Ranges longer than the raw
window (one week by default) are fetched as several requests.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, filters, err := f.parse()
			if err != nil {
				return err
			}
			values, err := a.client(a.cfg.City).DataRaw(cmd.Context(), pulseeco.RawQuery{From: from, To: to, Filters: filters})
			if err != nil {
				return err
			}
			return a.printer.Print(values)
		},
	}
	f.register(cmd)
	return cmd
}

func newAvgDataCmd(a *app) *cobra.Command {
	var f spanFlags
	var period string
	cmd := &cobra.Command{
		Use:   "avgData",
		Short: "Averaged measurements over any time range",
		Long: `Averaged measurements for a period (day, week or month). Ranges longer
than the averaged window (one year by default) are fetched as several requests.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, filters, err := f.parse()
			if err != nil {
				return err
			}
			values, err := a.client(a.cfg.City).AvgData(cmd.Context(), pulseeco.AvgQuery{
				Period:  pulseeco.AveragePeriod(period),
				From:    from,
				To:      to,
				Filters: filters,
			})
			if err != nil {
				return err
			}
			return a.printer.Print(values)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&period, "period", string(pulseeco.PeriodDay), "averaging period: day, week or month")
	return cmd
}

func newSimpleCmd(a *app, use, short string, op func(pulseeco.API, context.Context) ([]pulseeco.DataValue, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := op(a.client(a.cfg.City), cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.Print(values)
		},
	}
}

func newOverallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "overall",
		Short: "Current city-wide averages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overall, err := a.client(a.cfg.City).Overall(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.Print(overall)
		},
	}
}
