package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/pulse-eco/internal/store"
	"github.com/i474232898/pulse-eco/pkg/pulseeco"
)

func newTestPrinter(format Format) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	p := NewPrinter(&stdout, &stderr, format)
	p.SetColors(false)
	return p, &stdout, &stderr
}

func sampleOverall() pulseeco.Overall {
	pm10 := 73
	return pulseeco.Overall{CityName: "skopje", Values: map[pulseeco.DataValueType]*int{
		pulseeco.TypePM10: &pm10,
		pulseeco.TypeO3:   nil,
	}}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"json", "yaml", "table"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestPrintJSON(t *testing.T) {
	p, out, _ := newTestPrinter(FormatJSON)
	require.NoError(t, p.Print(sampleOverall()))
	assert.JSONEq(t, `{"cityName":"skopje","values":{"pm10":73,"o3":null}}`, out.String())
}

func TestPrintYAMLUsesWireNames(t *testing.T) {
	pos := "42.0,21.4"
	values := []pulseeco.DataValue{{
		SensorID: "1001",
		Stamp:    time.Date(2019, 3, 17, 12, 0, 0, 0, time.UTC),
		Type:     pulseeco.TypePM10,
		Position: &pos,
		Value:    12,
	}}

	p, out, _ := newTestPrinter(FormatYAML)
	require.NoError(t, p.Print(values))

	got := out.String()
	assert.True(t, strings.HasPrefix(got, "- sensorId: "), got)
	assert.Contains(t, got, "1001")
	assert.Contains(t, got, "2019-03-17T12:00:00+00:00")
	assert.Contains(t, got, "value: 12")
	assert.NotContains(t, got, "{")
}

func TestPrintTableOverall(t *testing.T) {
	p, out, _ := newTestPrinter(FormatTable)
	require.NoError(t, p.Print(sampleOverall()))

	got := out.String()
	assert.Contains(t, got, "N/A")
	assert.Contains(t, got, "73")
	assert.Less(t, strings.Index(got, "o3"), strings.Index(got, "pm10"), "rows are sorted by type")
}

func TestPrintTableSensorsAndHistory(t *testing.T) {
	p, out, _ := newTestPrinter(FormatTable)
	require.NoError(t, p.Print([]pulseeco.Sensor{{SensorID: "1001", Type: pulseeco.SensorTypeMOEPP, Status: pulseeco.StatusActive, Description: "Centar"}}))
	assert.Contains(t, out.String(), "Centar")
	assert.Contains(t, out.String(), "ACTIVE")

	out.Reset()
	require.NoError(t, p.Print([]store.Snapshot{{City: "skopje", FetchedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), Overall: sampleOverall()}}))
	assert.Contains(t, out.String(), "2024-05-01T12:00:00+00:00")
}

func TestPrintTableFallsBackToJSON(t *testing.T) {
	p, out, _ := newTestPrinter(FormatTable)
	require.NoError(t, p.Print(map[string]int{"count": 3}))
	assert.JSONEq(t, `{"count":3}`, out.String())
}

func TestWarningWithoutColors(t *testing.T) {
	p, out, errOut := newTestPrinter(FormatJSON)
	p.Warning("dataRaw: %s", "specify a filter")
	p.Error("boom")
	assert.Empty(t, out.String())
	assert.Equal(t, "[WARN] dataRaw: specify a filter\n[ERROR] boom\n", errOut.String())
}
