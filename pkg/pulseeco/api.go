// Package pulseeco is a client for the pulse.eco city sensor API.
//
// Raw and averaged data queries may cover any range: the client splits the
// range into windows the API accepts (see Spans) and merges the per-window
// answers in chronological order (see FetchSpanned).
package pulseeco

import (
	"context"
	"net/url"
	"time"
)

// Requester performs one GET against a city's endpoint and decodes the JSON
// response into out. Implementations return an error for non-2xx statuses.
type Requester interface {
	Get(ctx context.Context, city, endpoint string, params url.Values, out any) error
}

// API is the set of operations the pulse.eco service offers for one city.
type API interface {
	City() string
	Sensors(ctx context.Context) ([]Sensor, error)
	Sensor(ctx context.Context, sensorID string) (Sensor, error)
	DataRaw(ctx context.Context, q RawQuery) ([]DataValue, error)
	AvgData(ctx context.Context, q AvgQuery) ([]DataValue, error)
	Data24h(ctx context.Context) ([]DataValue, error)
	Current(ctx context.Context) ([]DataValue, error)
	Overall(ctx context.Context) (Overall, error)
}

// RawQuery selects raw measurements between From and To.
type RawQuery struct {
	From time.Time
	To   time.Time
	Filters
}

// AvgQuery selects averaged measurements between From and To.
type AvgQuery struct {
	Period AveragePeriod
	From   time.Time
	To     time.Time
	Filters
}

// Endpoint names, relative to the city's REST root.
const (
	EndpointSensor  = "sensor"
	EndpointDataRaw = "dataRaw"
	EndpointAvgData = "avgData"
	EndpointData24h = "data24h"
	EndpointCurrent = "current"
	EndpointOverall = "overall"
)

// Query parameter names understood by the API.
const (
	ParamSensorID = "sensorId"
	ParamType     = "type"
	ParamFrom     = "from"
	ParamTo       = "to"
)

// SpanParams encodes an interval and its filters as query parameters.
func SpanParams(iv Interval, f Filters) url.Values {
	params := url.Values{}
	if f.SensorID != "" {
		params.Set(ParamSensorID, f.SensorID)
	}
	if f.Type != "" {
		params.Set(ParamType, string(f.Type))
	}
	params.Set(ParamFrom, FormatTimestamp(iv.Start))
	params.Set(ParamTo, FormatTimestamp(iv.End))
	return params
}
