// Package transport implements pulseeco.Requester over HTTP.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/pulse-eco/pkg/pulseeco"
)

// DefaultBaseURLFormat is the REST root of every pulse.eco city.
const DefaultBaseURLFormat = "https://{city_name}.pulse.eco/rest/{end_point}"

// Placeholders substituted in a base URL format.
const (
	PlaceholderCity     = "{city_name}"
	PlaceholderEndpoint = "{end_point}"
)

// RequestIDHeader carries the per-request id sent upstream.
const RequestIDHeader = "X-Request-Id"

const (
	DefaultMaxBreakers  = 64
	overflowBreakerName = "pulseeco-overflow"
)

// Observer is told about every HTTP attempt. Status is 0 when no response
// was received.
type Observer interface {
	ObserveRequest(endpoint string, status int, elapsed time.Duration)
}

// Config bundles HTTP client and resilience settings.
type Config struct {
	// BaseURLFormat must contain {end_point}; {city_name} is optional.
	BaseURLFormat string
	Client        *http.Client
	Backoff       BackoffConfig

	// RequestsPerSecond limits outgoing requests across all cities. Zero
	// disables the limit.
	RequestsPerSecond float64
	Burst             int

	// Credentials resolves basic auth per city. Nil sends no auth.
	Credentials CredentialsFunc

	// MaxBreakers caps the per-city circuit breakers. Defaults to
	// DefaultMaxBreakers.
	MaxBreakers int

	UserAgent string
	Observer  Observer
	Logger    *slog.Logger
}

// HTTP performs pulse.eco requests. It is safe for concurrent use.
type HTTP struct {
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	overflow *gobreaker.CircuitBreaker
}

var _ pulseeco.Requester = (*HTTP)(nil)

// New creates an HTTP transport, filling unset fields with defaults.
func New(cfg Config) *HTTP {
	if cfg.BaseURLFormat == "" {
		cfg.BaseURLFormat = DefaultBaseURLFormat
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "pulse-eco-go"
	}
	if cfg.MaxBreakers <= 0 {
		cfg.MaxBreakers = DefaultMaxBreakers
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTP{
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, burst),
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// URL returns the absolute URL of endpoint for city.
func (h *HTTP) URL(city, endpoint string) string {
	return strings.NewReplacer(
		PlaceholderCity, url.PathEscape(city),
		PlaceholderEndpoint, endpoint,
	).Replace(h.cfg.BaseURLFormat)
}

// Get implements pulseeco.Requester.
func (h *HTTP) Get(ctx context.Context, city, endpoint string, params url.Values, out any) error {
	u := h.URL(city, endpoint)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var creds Credentials
	var hasCreds bool
	if h.cfg.Credentials != nil {
		creds, hasCreds = h.cfg.Credentials(city)
	}

	requestID := uuid.NewString()
	label := endpointLabel(endpoint)
	logger := h.logger.With(
		slog.String("request_id", requestID),
		slog.String("city", city),
		slog.String("endpoint", endpoint),
	)

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", h.cfg.UserAgent)
		req.Header.Set(RequestIDHeader, requestID)
		if hasCreds {
			req.SetBasicAuth(creds.Username, creds.Password)
		}
		return req, nil
	}

	onAttempt := func(status int, elapsed time.Duration) {
		logger.Debug("pulse.eco request",
			slog.Int("status", status),
			slog.Duration("elapsed", elapsed),
			slog.String("query", params.Encode()),
		)
		if h.cfg.Observer != nil {
			h.cfg.Observer.ObserveRequest(label, status, elapsed)
		}
	}

	body, err := doRequestWithResilience(ctx, h.cfg.Client, h.cfg.Backoff, h.limiter, h.breaker(city), endpoint, buildRequest, onAttempt)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", ErrDecode, endpoint, err)
	}
	return nil
}

// breaker returns the city's circuit breaker. Once MaxBreakers cities are
// tracked, further cities share a single overflow breaker.
func (h *HTTP) breaker(city string) *gobreaker.CircuitBreaker {
	city = strings.ToLower(city)

	h.mu.Lock()
	defer h.mu.Unlock()

	if cb, ok := h.breakers[city]; ok {
		return cb
	}
	if len(h.breakers) >= h.cfg.MaxBreakers {
		if h.overflow == nil {
			h.overflow = newBreaker(overflowBreakerName)
		}
		return h.overflow
	}
	cb := newBreaker("pulseeco-" + city)
	h.breakers[city] = cb
	return cb
}

// endpointLabel folds per-sensor paths and unknown periods so metric labels
// stay bounded.
func endpointLabel(endpoint string) string {
	if strings.HasPrefix(endpoint, pulseeco.EndpointSensor+"/") {
		return "sensor/{id}"
	}
	if p, ok := strings.CutPrefix(endpoint, pulseeco.EndpointAvgData+"/"); ok && !pulseeco.AveragePeriod(p).Valid() {
		return "avgData/{period}"
	}
	return endpoint
}
