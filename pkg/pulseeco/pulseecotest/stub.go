// Package pulseecotest provides an in-memory pulseeco.API for tests.
package pulseecotest

import (
	"context"
	"net/http"
	"sync"

	"github.com/i474232898/pulse-eco/pkg/pulseeco"
	"github.com/i474232898/pulse-eco/pkg/pulseeco/transport"
)

// Stub answers every operation from its fields. A non-nil Err is returned by
// every call, and Sensor answers an unknown id with a 404 StatusError.
// Calls are recorded by operation name.
type Stub struct {
	CityName string

	SensorList []pulseeco.Sensor
	Values     []pulseeco.DataValue
	OverallVal pulseeco.Overall
	Err        error

	mu       sync.Mutex
	calls    []string
	rawQuery []pulseeco.RawQuery
	avgQuery []pulseeco.AvgQuery
}

var _ pulseeco.API = (*Stub)(nil)

func (s *Stub) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op)
}

// Calls returns the operations invoked so far.
func (s *Stub) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// RawQueries returns the DataRaw queries received so far.
func (s *Stub) RawQueries() []pulseeco.RawQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pulseeco.RawQuery(nil), s.rawQuery...)
}

// AvgQueries returns the AvgData queries received so far.
func (s *Stub) AvgQueries() []pulseeco.AvgQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pulseeco.AvgQuery(nil), s.avgQuery...)
}

func (s *Stub) City() string { return s.CityName }

func (s *Stub) Sensors(context.Context) ([]pulseeco.Sensor, error) {
	s.record("sensors")
	if s.Err != nil {
		return nil, s.Err
	}
	return s.SensorList, nil
}

func (s *Stub) Sensor(_ context.Context, id string) (pulseeco.Sensor, error) {
	s.record("sensor")
	if s.Err != nil {
		return pulseeco.Sensor{}, s.Err
	}
	for _, sensor := range s.SensorList {
		if sensor.SensorID == id {
			return sensor, nil
		}
	}
	return pulseeco.Sensor{}, &transport.StatusError{StatusCode: http.StatusNotFound, Endpoint: pulseeco.EndpointSensor + "/" + id}
}

func (s *Stub) DataRaw(_ context.Context, q pulseeco.RawQuery) ([]pulseeco.DataValue, error) {
	s.record("dataRaw")
	s.mu.Lock()
	s.rawQuery = append(s.rawQuery, q)
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Values, nil
}

func (s *Stub) AvgData(_ context.Context, q pulseeco.AvgQuery) ([]pulseeco.DataValue, error) {
	s.record("avgData")
	s.mu.Lock()
	s.avgQuery = append(s.avgQuery, q)
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Values, nil
}

func (s *Stub) Data24h(context.Context) ([]pulseeco.DataValue, error) {
	s.record("data24h")
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Values, nil
}

func (s *Stub) Current(context.Context) ([]pulseeco.DataValue, error) {
	s.record("current")
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Values, nil
}

func (s *Stub) Overall(context.Context) (pulseeco.Overall, error) {
	s.record("overall")
	if s.Err != nil {
		return pulseeco.Overall{}, s.Err
	}
	return s.OverallVal, nil
}
