package pulseeco

import (
	"context"
	"log/slog"
	"net/url"
	"time"
)

// Query kinds, used to label warnings and span observations.
const (
	KindRaw = "raw"
	KindAvg = "avg"
)

// Warning is a non-fatal advisory about a query the API will probably reject.
// The query is still sent.
type Warning struct {
	Op      string
	Message string
}

// WarningHandler receives advisories raised before a query is sent.
type WarningHandler func(Warning)

// SpanObserver is notified of every per-interval request a spanned query makes.
type SpanObserver interface {
	ObserveSpan(kind string, iv Interval)
}

const (
	msgMissingFilters = "If you encounter an error, you should probably specify either sensor id or type."
	msgUnknownPeriod  = "Invalid value for period. Should be one of: day, week, month."
)

// Client talks to the pulse.eco API of a single city.
type Client struct {
	city        string
	requester   Requester
	rawMaxSpan  time.Duration
	avgMaxSpan  time.Duration
	concurrency int
	onWarning   WarningHandler
	observer    SpanObserver
}

var _ API = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithMaxSpans overrides the per-request window limits. Zero keeps the default.
func WithMaxSpans(raw, avg time.Duration) Option {
	return func(c *Client) {
		if raw > 0 {
			c.rawMaxSpan = raw
		}
		if avg > 0 {
			c.avgMaxSpan = avg
		}
	}
}

// WithConcurrency sets how many interval requests may be in flight at once.
func WithConcurrency(n int) Option {
	return func(c *Client) { c.concurrency = n }
}

// WithWarningHandler replaces the default slog based warning output.
func WithWarningHandler(h WarningHandler) Option {
	return func(c *Client) {
		if h != nil {
			c.onWarning = h
		}
	}
}

// WithSpanObserver registers an observer for per-interval requests.
func WithSpanObserver(o SpanObserver) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a client for city using r for every request.
func NewClient(city string, r Requester, opts ...Option) *Client {
	c := &Client{
		city:        city,
		requester:   r,
		rawMaxSpan:  DataRawMaxSpan,
		avgMaxSpan:  AvgDataMaxSpan,
		concurrency: 1,
	}
	c.onWarning = func(w Warning) {
		slog.Warn(w.Message, slog.String("op", w.Op), slog.String("city", c.city))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// City returns the city this client is bound to.
func (c *Client) City() string { return c.city }

// Sensors lists every sensor of the city.
func (c *Client) Sensors(ctx context.Context) ([]Sensor, error) {
	var out []Sensor
	if err := c.requester.Get(ctx, c.city, EndpointSensor, nil, &out); err != nil {
		return nil, err
	}
	if err := validateAll(EndpointSensor, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Sensor returns a sensor by its ID.
func (c *Client) Sensor(ctx context.Context, sensorID string) (Sensor, error) {
	endpoint := EndpointSensor + "/" + url.PathEscape(sensorID)
	var out Sensor
	if err := c.requester.Get(ctx, c.city, endpoint, nil, &out); err != nil {
		return Sensor{}, err
	}
	if err := validateOne(EndpointSensor, out); err != nil {
		return Sensor{}, err
	}
	return out, nil
}

// DataRaw returns raw measurements between q.From and q.To. Ranges wider
// than the raw max span are fetched as several requests.
func (c *Client) DataRaw(ctx context.Context, q RawQuery) ([]DataValue, error) {
	if q.SensorID == "" && q.Type == "" {
		c.onWarning(Warning{Op: EndpointDataRaw, Message: msgMissingFilters})
	}

	return FetchSpanned(ctx, SpanQuery{
		City:        c.city,
		Filters:     q.Filters,
		From:        q.From,
		To:          q.To,
		MaxSpan:     c.rawMaxSpan,
		Concurrency: c.concurrency,
	}, c.spanRequest(KindRaw, EndpointDataRaw))
}

// AvgData returns averaged measurements for the given period. An unknown
// period only raises a warning; the API decides whether to reject it.
func (c *Client) AvgData(ctx context.Context, q AvgQuery) ([]DataValue, error) {
	if !q.Period.Valid() {
		c.onWarning(Warning{Op: EndpointAvgData, Message: msgUnknownPeriod})
	}

	return FetchSpanned(ctx, SpanQuery{
		City:        c.city,
		Filters:     q.Filters,
		From:        q.From,
		To:          q.To,
		MaxSpan:     c.avgMaxSpan,
		Concurrency: c.concurrency,
	}, c.spanRequest(KindAvg, EndpointAvgData+"/"+url.PathEscape(string(q.Period))))
}

// Data24h returns the last 24 hours of data, ascending by stamp.
func (c *Client) Data24h(ctx context.Context) ([]DataValue, error) {
	return c.dataValues(ctx, EndpointData24h)
}

// Current returns the last valid value of each sensor, up to two hours old.
func (c *Client) Current(ctx context.Context) ([]DataValue, error) {
	return c.dataValues(ctx, EndpointCurrent)
}

// Overall returns the current city-wide averages.
func (c *Client) Overall(ctx context.Context) (Overall, error) {
	var out Overall
	if err := c.requester.Get(ctx, c.city, EndpointOverall, nil, &out); err != nil {
		return Overall{}, err
	}
	if err := validateOne(EndpointOverall, out); err != nil {
		return Overall{}, err
	}
	return out, nil
}

func (c *Client) dataValues(ctx context.Context, endpoint string) ([]DataValue, error) {
	var out []DataValue
	if err := c.requester.Get(ctx, c.city, endpoint, nil, &out); err != nil {
		return nil, err
	}
	if err := validateAll(endpoint, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) spanRequest(kind, endpoint string) RequestFunc[DataValue] {
	return func(ctx context.Context, city string, iv Interval, f Filters) ([]DataValue, error) {
		if c.observer != nil {
			c.observer.ObserveSpan(kind, iv)
		}
		var out []DataValue
		if err := c.requester.Get(ctx, city, endpoint, SpanParams(iv, f), &out); err != nil {
			return nil, err
		}
		if err := validateAll(endpoint, out); err != nil {
			return nil, err
		}
		return out, nil
	}
}
