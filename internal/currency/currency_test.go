package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"compass/internal/employee/models"
	"compass/internal/platform/config"
)

// =============================================================================
// Currency Test Suite
// =============================================================================

type CurrencySuite struct {
	suite.Suite
	apiCalls int
	server   *httptest.Server
}

func TestCurrencySuite(t *testing.T) {
	suite.Run(t, new(CurrencySuite))
}

func (s *CurrencySuite) SetupTest() {
	s.apiCalls = 0
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.apiCalls++
		json.NewEncoder(w).Encode(map[string]any{
			"base": "EUR",
			"rates": map[string]float64{
				"USD": 1.10,
				"GBP": 0.86,
			},
		})
	}))
}

func (s *CurrencySuite) TearDownTest() {
	s.server.Close()
}

func (s *CurrencySuite) service(baseURL string) *Service {
	cfg := config.CurrencyConfig{
		APIBaseURL: baseURL,
		Timeout:    time.Second,
		CacheTTL:   time.Hour,
	}
	return NewService(cfg, NewMemoryCache(cfg.CacheTTL))
}

// =============================================================================
// Rate Resolution
// =============================================================================

func (s *CurrencySuite) TestGetRate() {
	ctx := context.Background()

	s.Run("api rate is fetched then served from cache", func() {
		svc := s.service(s.server.URL)

		first, err := svc.GetRate(ctx, "EUR", "USD")
		s.Require().NoError(err)
		s.Equal(1.10, first.Value)
		s.Equal(SourceAPI, first.Source)

		second, err := svc.GetRate(ctx, "EUR", "USD")
		s.Require().NoError(err)
		s.Equal(1.10, second.Value)
		s.Equal(SourceCache, second.Source)
		s.Equal(1, s.apiCalls)
	})

	s.Run("same currency is a no-op rate", func() {
		svc := s.service(s.server.URL)

		rate, err := svc.GetRate(ctx, "usd", "USD")
		s.Require().NoError(err)
		s.Equal(1.0, rate.Value)
		s.Equal(SourceNone, rate.Source)
		s.Zero(s.apiCalls)
	})

	s.Run("unreachable api falls back to the static table", func() {
		svc := s.service("http://127.0.0.1:0")

		rate, err := svc.GetRate(ctx, "EUR", "USD")
		s.Require().NoError(err, "network failure never reaches the caller for supported pairs")
		s.Equal(SourceFallback, rate.Source)
		s.InDelta(1/0.92, rate.Value, 1e-9)
	})

	s.Run("unsupported pair is an error, never a guessed rate", func() {
		svc := s.service("http://127.0.0.1:0")

		_, err := svc.GetRate(ctx, "XYZ", "USD")
		s.Error(err)
	})

	s.Run("invalidation forces a refetch", func() {
		svc := s.service(s.server.URL)

		_, err := svc.GetRate(ctx, "EUR", "USD")
		s.Require().NoError(err)
		svc.InvalidateCache(ctx)
		refetched, err := svc.GetRate(ctx, "EUR", "USD")
		s.Require().NoError(err)
		s.Equal(SourceAPI, refetched.Source)
		s.Equal(2, s.apiCalls)
	})
}

// =============================================================================
// Batch Conversion
// =============================================================================

func (s *CurrencySuite) TestConvertBatch() {
	ctx := context.Background()

	employee := func(id, currency string, amount float64) *models.Employee {
		return &models.Employee{
			EmployeeID: id,
			BaseSalary: models.NewMoney(amount, currency),
		}
	}

	s.Run("every employee gets a tagged result", func() {
		conv := NewConverter(s.service(s.server.URL), nil)
		emps := []*models.Employee{
			employee("E-1", "EUR", 80000),
			employee("E-2", "USD", 90000),
		}

		results := conv.ConvertBatch(ctx, emps)

		s.Require().Len(results, 2)
		s.Equal(88000.0, results[0].AmountUSD)
		s.Equal(SourceAPI, results[0].Source)
		s.Equal(88000.0, emps[0].BaseSalaryUSD)
		s.Equal(SourceNone, results[1].Source)
		s.Equal(90000.0, emps[1].BaseSalaryUSD)
	})

	s.Run("unreachable service still returns five of five, all fallback", func() {
		conv := NewConverter(s.service("http://127.0.0.1:0"), nil)
		currencies := []string{"EUR", "GBP", "INR", "JPY", "CAD"}
		emps := make([]*models.Employee, len(currencies))
		for i, c := range currencies {
			emps[i] = employee(fmt.Sprintf("E-%d", i+1), c, 100000)
		}

		results := conv.ConvertBatch(ctx, emps)

		s.Require().Len(results, len(emps))
		for i, res := range results {
			s.Equal(SourceFallback, res.Source, res.EmployeeID)
			s.False(math.IsNaN(res.AmountUSD), res.EmployeeID)
			s.Greater(res.AmountUSD, 0.0, res.EmployeeID)
			s.Equal(res.AmountUSD, emps[i].BaseSalaryUSD)
		}
	})

	s.Run("unsupported currency is tagged, not guessed", func() {
		conv := NewConverter(s.service("http://127.0.0.1:0"), nil)
		emps := []*models.Employee{employee("E-1", "XYZ", 100000)}

		results := conv.ConvertBatch(ctx, emps)

		s.Require().Len(results, 1)
		s.Equal(SourceUnsupported, results[0].Source)
		s.Zero(emps[0].BaseSalaryUSD)
	})
}

// =============================================================================
// Memory Cache
// =============================================================================

func (s *CurrencySuite) TestMemoryCacheTTL() {
	now := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(time.Hour).(*memoryCache)
	cache.now = func() time.Time { return now }

	cache.Set(context.Background(), "EUR/USD", Rate{Value: 1.1, Source: SourceAPI})

	_, ok := cache.Get(context.Background(), "EUR/USD")
	s.True(ok)

	now = now.Add(2 * time.Hour)
	_, ok = cache.Get(context.Background(), "EUR/USD")
	s.False(ok, "entries expire after the TTL")
}
