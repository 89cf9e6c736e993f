package output

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/i474232898/pulse-eco/internal/store"
	"github.com/i474232898/pulse-eco/pkg/pulseeco"
)

const notAvailable = "N/A"

// Table provides table rendering utilities
type Table struct {
	table  *tablewriter.Table
	header []string
	rows   [][]string
}

// NewTable creates a new table writing to w.
func NewTable(w io.Writer, headers []string) *Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	return &Table{table: table, header: headers}
}

// AddRow adds a row to the table
func (t *Table) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

// Render outputs the table
func (t *Table) Render() error {
	t.table.Header(t.header)
	if err := t.table.Bulk(t.rows); err != nil {
		return err
	}
	return t.table.Render()
}

// renderTable renders the result types it knows about and reports whether
// v was one of them.
func renderTable(w io.Writer, v any) (bool, error) {
	var t *Table
	switch x := v.(type) {
	case []pulseeco.Sensor:
		t = sensorTable(w, x...)
	case pulseeco.Sensor:
		t = sensorTable(w, x)
	case []pulseeco.DataValue:
		t = NewTable(w, []string{"Sensor", "Stamp", "Type", "Value", "Position"})
		for _, d := range x {
			t.AddRow(d.SensorID, pulseeco.FormatTimestamp(d.Stamp), string(d.Type), strconv.Itoa(d.Value), deref(d.Position))
		}
	case pulseeco.Overall:
		t = NewTable(w, []string{"City", "Type", "Value"})
		for _, typ := range x.Types() {
			t.AddRow(x.CityName, string(typ), overallValue(x, typ))
		}
	case []store.Snapshot:
		t = NewTable(w, []string{"Fetched", "City", "Type", "Value"})
		for _, s := range x {
			for _, typ := range s.Overall.Types() {
				t.AddRow(pulseeco.FormatTimestamp(s.FetchedAt), s.Overall.CityName, string(typ), overallValue(s.Overall, typ))
			}
		}
	default:
		return false, nil
	}
	return true, t.Render()
}

func sensorTable(w io.Writer, sensors ...pulseeco.Sensor) *Table {
	t := NewTable(w, []string{"ID", "Type", "Status", "Position", "Description"})
	for _, s := range sensors {
		t.AddRow(s.SensorID, string(s.Type), string(s.Status), s.Position, s.Description)
	}
	return t
}

func overallValue(o pulseeco.Overall, typ pulseeco.DataValueType) string {
	if v, ok := o.Value(typ); ok {
		return strconv.Itoa(v)
	}
	return notAvailable
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
