package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	dErrors "compass/pkg/domain-errors"

	"compass/internal/platform/config"
	"compass/internal/platform/metrics"
)

// Rate sources, in order of preference.
const (
	SourceAPI      = "api"
	SourceCache    = "cache"
	SourceFallback = "fallback"
	// SourceNone marks a same-currency no-op conversion.
	SourceNone = "none"
)

// Rate is one exchange rate: units of the target currency per unit of the
// source currency, tagged with where it came from.
type Rate struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// fallbackPerUSD is the static table used whenever the API cannot serve a
// pair: local units per one USD. Values are coarse; every fallback-sourced
// conversion is surfaced to the caller as a data-quality signal.
var fallbackPerUSD = map[string]float64{
	"USD": 1,
	"EUR": 0.92,
	"GBP": 0.79,
	"CHF": 0.88,
	"SEK": 10.5,
	"PLN": 4.0,
	"CAD": 1.36,
	"MXN": 17.1,
	"BRL": 5.4,
	"INR": 83.2,
	"CNY": 7.2,
	"JPY": 148.5,
	"SGD": 1.34,
	"AUD": 1.52,
	"AED": 3.67,
}

// Service resolves exchange rates: cache, then API, then the static fallback
// table. For supported pairs it never returns an error on network failure.
type Service struct {
	client  *http.Client
	baseURL string
	cache   RateCache
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) { s.client = client }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a rate service over the given cache.
func NewService(cfg config.CurrencyConfig, cache RateCache, opts ...Option) *Service {
	svc := &Service{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		cache:   cache,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// GetRate resolves one currency pair. Same-currency pairs short-circuit to a
// no-op rate. Unsupported pairs are the only error case: a made-up rate must
// never silently flow into a salary figure.
func (s *Service) GetRate(ctx context.Context, from, to string) (Rate, error) {
	from = normalizeCurrency(from)
	to = normalizeCurrency(to)
	if from == to {
		return Rate{Value: 1, Timestamp: s.now(), Source: SourceNone}, nil
	}

	key := from + "/" + to
	if cached, ok := s.cache.Get(ctx, key); ok {
		cached.Source = SourceCache
		s.metrics.ObserveRateLookup(SourceCache)
		return cached, nil
	}

	rate, err := s.fetch(ctx, from, to)
	if err == nil {
		s.cache.Set(ctx, key, rate)
		s.metrics.ObserveRateLookup(SourceAPI)
		return rate, nil
	}
	s.logger.WarnContext(ctx, "rate API unavailable, using fallback table",
		"from", from, "to", to, "error", err)

	fromPerUSD, fromOK := fallbackPerUSD[from]
	toPerUSD, toOK := fallbackPerUSD[to]
	if !fromOK || !toOK {
		return Rate{}, dErrors.Newf(dErrors.CodeUnprocessableFile,
			"unsupported currency pair %s/%s", from, to)
	}
	s.metrics.ObserveRateLookup(SourceFallback)
	return Rate{Value: toPerUSD / fromPerUSD, Timestamp: s.now(), Source: SourceFallback}, nil
}

// InvalidateCache drops every cached rate so the next lookups hit the API.
func (s *Service) InvalidateCache(ctx context.Context) {
	s.cache.Clear(ctx)
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func (s *Service) fetch(ctx context.Context, from, to string) (Rate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+from, nil)
	if err != nil {
		return Rate{}, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return Rate{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Rate{}, fmt.Errorf("rate API returned status %d", resp.StatusCode)
	}

	var payload ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Rate{}, err
	}
	value, ok := payload.Rates[to]
	if !ok || value <= 0 {
		return Rate{}, fmt.Errorf("rate API has no usable rate for %s/%s", from, to)
	}
	return Rate{Value: value, Timestamp: s.now(), Source: SourceAPI}, nil
}

func normalizeCurrency(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return "USD"
	}
	return c
}
