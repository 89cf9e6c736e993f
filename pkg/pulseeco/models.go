package pulseeco

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// notAvailable is the sentinel the API sends for a missing overall value.
const notAvailable = "N/A"

// ErrMissingValue is returned when a data value arrives without a reading.
var ErrMissingValue = errors.New("data value has no value")

// Sensor is a measuring device registered in a city.
type Sensor struct {
	SensorID    string       `json:"sensorId" validate:"required"`
	Position    string       `json:"position"`
	Comments    string       `json:"comments"`
	Type        SensorType   `json:"type" validate:"sensor_type"`
	Description string       `json:"description"`
	Status      SensorStatus `json:"status" validate:"sensor_status"`
}

// DataValue is a single raw or averaged measurement.
type DataValue struct {
	SensorID string        `json:"sensorId" validate:"required"`
	Stamp    time.Time     `json:"stamp"`
	Type     DataValueType `json:"type" validate:"value_type"`
	Position *string       `json:"position"`
	Value    int           `json:"value"`
	// Year is only present on older records; prefer Stamp.
	Year *int `json:"year,omitempty"`
}

type dataValueWire struct {
	SensorID string        `json:"sensorId"`
	Stamp    string        `json:"stamp"`
	Type     DataValueType `json:"type"`
	Position *string       `json:"position"`
	Value    *flexInt      `json:"value"`
	Year     *flexInt      `json:"year"`
}

// UnmarshalJSON accepts the API's string encoded values and stamps.
func (d *DataValue) UnmarshalJSON(b []byte) error {
	var w dataValueWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Value == nil {
		return fmt.Errorf("sensor %s at %s: %w", w.SensorID, w.Stamp, ErrMissingValue)
	}

	stamp, err := ParseTimestamp(w.Stamp)
	if err != nil {
		return fmt.Errorf("data value stamp: %w", err)
	}

	*d = DataValue{
		SensorID: w.SensorID,
		Stamp:    stamp,
		Type:     w.Type,
		Position: w.Position,
		Value:    int(*w.Value),
	}
	if w.Year != nil {
		y := int(*w.Year)
		d.Year = &y
	}
	return nil
}

// MarshalJSON keeps Stamp in the same offset form the API uses.
func (d DataValue) MarshalJSON() ([]byte, error) {
	type alias struct {
		SensorID string        `json:"sensorId"`
		Stamp    string        `json:"stamp"`
		Type     DataValueType `json:"type"`
		Position *string       `json:"position"`
		Value    int           `json:"value"`
		Year     *int          `json:"year,omitempty"`
	}
	return json.Marshal(alias{
		SensorID: d.SensorID,
		Stamp:    FormatTimestamp(d.Stamp),
		Type:     d.Type,
		Position: d.Position,
		Value:    d.Value,
		Year:     d.Year,
	})
}

// Overall is the current city-wide average per measurement type.
type Overall struct {
	CityName string `json:"cityName" validate:"required"`
	// Values holds nil for measurements the API reports as "N/A". Unknown
	// measurement keys are kept as they are.
	Values map[DataValueType]*int `json:"values"`
}

// Value returns the measurement for t and whether it is available.
func (o Overall) Value(t DataValueType) (int, bool) {
	v, ok := o.Values[t]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Types returns the measurement keys present in o, sorted.
func (o Overall) Types() []DataValueType {
	out := make([]DataValueType, 0, len(o.Values))
	for t := range o.Values {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// UnmarshalJSON converts "N/A" to nil and numeric strings to ints.
func (o *Overall) UnmarshalJSON(b []byte) error {
	var w struct {
		CityName string                     `json:"cityName"`
		Values   map[string]json.RawMessage `json:"values"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	values := make(map[DataValueType]*int, len(w.Values))
	for key, raw := range w.Values {
		v, err := parseOverallValue(raw)
		if err != nil {
			return fmt.Errorf("overall value %q: %w", key, err)
		}
		values[DataValueType(key)] = v
	}

	o.CityName = w.CityName
	o.Values = values
	return nil
}

func parseOverallValue(raw json.RawMessage) (*int, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s == notAvailable {
		return nil, nil
	}
	var v flexInt
	if err := v.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	n := int(v)
	return &n, nil
}

// flexInt decodes an integer sent either as a JSON number or a string.
// Optional fields use *flexInt, which json leaves nil on null.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return errors.New("not an integer: null")
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Some endpoints send whole numbers as "12.0".
		fl, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || fl != float64(int(fl)) {
			return fmt.Errorf("not an integer: %s", string(b))
		}
		n = int(fl)
	}
	*f = flexInt(n)
	return nil
}
