package httptransport

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"compass/internal/audit"
	"compass/internal/currency"
	"compass/internal/employee/models"
	"compass/internal/ingest"
	"compass/internal/join"
	"compass/internal/platform/config"
	"compass/internal/policy"
	"compass/internal/proposal"
	"compass/internal/session"
	"compass/pkg/testutil"
)

const (
	salaryCSV = "Employee ID,Name,Base Salary,Currency,Grade Mid,Country,Email\n" +
		"E-1,Ana Lopez,80000,EUR,90000,Germany,ana@corp.com\n" +
		"E-2,Ben King,100000,USD,100000,US,ben@corp.com\n"
	perfCSV = "Employee ID,Name,Performance Rating\n" +
		"E-1,Ana Lopez,4.5\n" +
		"E-2,Ben King,3.0\n"
	proposalCSV = "Employee ID,Proposed Raise,Promotion,New Title,Promotion Type,Justification\n" +
		"E-2,4000,yes,Staff Engineer,LEVEL,Sustained impact\n" +
		"X-404,1000,,,,\n"
)

type HandlerSuite struct {
	suite.Suite
	router   http.Handler
	ratesAPI *httptest.Server
	now      time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	s.ratesAPI = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only EUR is quoted; any other currency falls through to the
		// static table, and past the table to "unsupported".
		if r.URL.Path != "/EUR" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"rates":{"USD":1.10}}`)
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return s.now }

	rates := currency.NewService(config.CurrencyConfig{
		APIBaseURL: s.ratesAPI.URL,
		Timeout:    time.Second,
	}, currency.NewMemoryCache(time.Hour), currency.WithLogger(logger))

	h := NewHandler(Deps{
		Ingest:    ingest.NewService(ingest.WithLogger(logger)),
		Join:      join.NewService(join.WithLogger(logger)),
		Policy:    policy.NewService(policy.WithLogger(logger), policy.WithClock(clock)),
		Converter: currency.NewConverter(rates, logger),
		Rates:     rates,
		Proposals: proposal.NewService(proposal.WithLogger(logger)),
		Employees: session.NewMemoryEmployeeStore(),
		Sessions:  session.NewMemorySessionStore(),
		Files:     session.NewMemoryFileCache(time.Hour),
		Audit:     audit.NewPublisher(audit.NewMemoryStore()),
	}, WithLogger(logger), WithClock(clock))
	s.router = NewRouter(h)
}

func (s *HandlerSuite) TearDownTest() {
	s.ratesAPI.Close()
}

// upload posts files through the multipart endpoint and returns the parse
// results in request order.
func (s *HandlerSuite) upload(files map[string]string) []*ingest.FileResult {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		s.Require().NoError(err)
		_, err = part.Write([]byte(content))
		s.Require().NoError(err)
	}
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	return testutil.UnmarshalResponse[uploadResponse](s.T(), rr).Results
}

// runJoin uploads the standard fixtures and joins them under the given budget.
func (s *HandlerSuite) runJoin(budgetUSD float64) joinResponse {
	results := s.upload(map[string]string{"comp.csv": salaryCSV, "perf.csv": perfCSV})
	hashes := make([]string, 0, len(results))
	for _, r := range results {
		s.Require().False(r.Rejected())
		hashes = append(hashes, r.ContentHash)
	}

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/join", joinRequest{
		FileHashes:     hashes,
		TotalBudgetUSD: budgetUSD,
	})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	return *testutil.UnmarshalResponse[joinResponse](s.T(), rr)
}

// =============================================================================
// Plumbing
// =============================================================================

func (s *HandlerSuite) TestHealthz() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *HandlerSuite) TestUploadRequiresMultipart() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/files", map[string]string{"not": "a form"})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertErrorCode(s.T(), rr, "bad_request")
}

func (s *HandlerSuite) TestJoinUnknownHash() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/join", joinRequest{
		FileHashes: []string{"deadbeef"},
	})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	testutil.AssertErrorCode(s.T(), rr, "not_found")
}

func (s *HandlerSuite) TestProposalBeforeJoinConflicts() {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "proposals.csv")
	s.Require().NoError(err)
	_, err = part.Write([]byte(proposalCSV))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/proposals", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusConflict)
	testutil.AssertErrorCode(s.T(), rr, "conflict")
}

// =============================================================================
// Pipeline
// =============================================================================

func (s *HandlerSuite) TestUploadDetectsFileTypes() {
	results := s.upload(map[string]string{"comp.csv": salaryCSV})
	s.Require().Len(results, 1)
	s.Equal(ingest.TypeSalary, results[0].FileType)
	s.NotEmpty(results[0].ContentHash)
	s.Equal(2, results[0].ValidRows)
}

func (s *HandlerSuite) TestJoinConvertsAndEnriches() {
	resp := s.runJoin(50000)

	s.Equal(2, resp.Session.EmployeeCount)
	s.Equal(50000.0, resp.Session.TotalBudgetUSD)
	s.Require().Len(resp.Result.Employees, 2)
	s.Equal(2, resp.Result.Summary.IDMatches)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/employees"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	list := testutil.UnmarshalResponse[employeeListResponse](s.T(), rr)
	s.Require().Equal(2, list.Count)

	var ana *models.Employee
	for _, emp := range list.Employees {
		if emp.EmployeeID == "E-1" {
			ana = emp
		}
	}
	s.Require().NotNil(ana)
	s.Equal(88000.0, ana.BaseSalaryUSD, "EUR salary converted through the rates API")
	s.Equal(89.0, ana.Comparatio)
	s.Equal(4.5, ana.Rating.Value)
	s.NotEmpty(ana.RiskBand)
}

func (s *HandlerSuite) TestRaiseEditRecomputes() {
	s.runJoin(0)

	amount := 8800.0
	req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/employees/E-1/raise", raiseRequest{RaiseAmountUSD: &amount})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	emp := testutil.UnmarshalResponse[models.Employee](s.T(), rr)
	s.Equal(8800.0, emp.ProposedRaise.Amount)
	s.Equal("USD", emp.ProposedRaise.Currency)
	s.Equal(88000.0, emp.NewSalary.Amount, "raise converts to local currency")
	s.Equal("EUR", emp.NewSalary.Currency)
	s.Equal(10.0, emp.PercentChange)
}

func (s *HandlerSuite) TestRaiseEditUnknownEmployee() {
	s.runJoin(0)

	amount := 100.0
	req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/employees/nobody/raise", raiseRequest{RaiseAmountUSD: &amount})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	testutil.AssertErrorCode(s.T(), rr, "not_found")
}

func (s *HandlerSuite) TestRaiseEditRejectsUnconvertedCurrency() {
	nokCSV := "Employee ID,Name,Base Salary,Currency\n" +
		"E-9,Kari Nordmann,500000,NOK\n"
	results := s.upload(map[string]string{"nordic.csv": nokCSV})
	s.Require().Len(results, 1)
	s.Require().False(results[0].Rejected())

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/join", joinRequest{
		FileHashes: []string{results[0].ContentHash},
	})
	testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusOK)

	get := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/employees/E-9"))
	emp := testutil.UnmarshalResponse[models.Employee](s.T(), get)
	s.Zero(emp.BaseSalaryUSD)
	s.Equal(currency.SourceUnsupported, emp.RateSource)

	amount := 5000.0
	patch := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/employees/E-9/raise", raiseRequest{RaiseAmountUSD: &amount})
	rr := testutil.DoRequest(s.router, patch)
	testutil.AssertStatus(s.T(), rr, http.StatusUnprocessableEntity)
	testutil.AssertErrorCode(s.T(), rr, "invariant_violation")

	get = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/employees/E-9"))
	emp = testutil.UnmarshalResponse[models.Employee](s.T(), get)
	s.Equal(0.0, emp.ProposedRaise.Amount, "the USD raise never lands at parity in the local salary")
	s.Equal(500000.0, emp.NewSalary.Amount)
	s.Equal("NOK", emp.NewSalary.Currency)
}

func (s *HandlerSuite) TestProposalMerge() {
	s.runJoin(0)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "proposals.csv")
	s.Require().NoError(err)
	_, err = part.Write([]byte(proposalCSV))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/proposals", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[proposalResponse](s.T(), rr)
	s.Equal(1, resp.Updated)
	s.Require().Len(resp.Warnings, 1, "unknown employee reported, not applied")

	get := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/employees/E-2"))
	emp := testutil.UnmarshalResponse[models.Employee](s.T(), get)
	s.Equal(4000.0, emp.ProposedRaise.Amount)
	s.True(emp.HasPromotion)
	s.Equal("Staff Engineer", emp.NewJobTitle)
}

// =============================================================================
// Validation, budget, settings
// =============================================================================

func (s *HandlerSuite) TestValidateFlagsBudgetOverage() {
	s.runJoin(5000)

	amount := 8800.0
	req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/employees/E-1/raise", raiseRequest{RaiseAmountUSD: &amount})
	testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusOK)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/validate"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[validateResponse](s.T(), rr)
	s.Require().Len(resp.BudgetViolations, 1)
	s.Equal(policy.TypeBudgetExceeded, resp.BudgetViolations[0].Type)
	s.Equal(1, resp.ErrorCount)

	budgetRR := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/budget"))
	budget := testutil.UnmarshalResponse[budgetResponse](s.T(), budgetRR)
	s.Equal(8800.0, budget.ProposedUSD)
	s.Equal(176.0, budget.UtilizationPercent)
	s.True(budget.OverBudget)
}

func (s *HandlerSuite) TestSettingsSwapChangesValidation() {
	s.runJoin(0)

	amount := 8800.0
	req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/employees/E-1/raise", raiseRequest{RaiseAmountUSD: &amount})
	testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusOK)

	strict := policy.DefaultSettings()
	strict.MeritRaiseCaps[policy.RegionDefault] = 5
	put := testutil.NewJSONRequest(s.T(), http.MethodPut, "/settings", settingsRequest{Settings: &strict})
	testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, put), http.StatusOK)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/validate"))
	resp := testutil.UnmarshalResponse[validateResponse](s.T(), rr)

	found := false
	for _, v := range resp.Violations {
		if v.Type == policy.TypeRaiseTooHigh && v.EmployeeID == "E-1" {
			found = true
		}
	}
	s.True(found, "the 10 percent raise breaks the lowered 5 percent cap")
}

func (s *HandlerSuite) TestSettingsRequireDefaultRegion() {
	broken := policy.DefaultSettings()
	delete(broken.MeritRaiseCaps, policy.RegionDefault)
	req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/settings", settingsRequest{Settings: &broken})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *HandlerSuite) TestResetClearsEverything() {
	s.runJoin(10000)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodDelete, "/session"))
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	list := testutil.UnmarshalResponse[employeeListResponse](s.T(),
		testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/employees")))
	s.Equal(0, list.Count)

	budget := testutil.UnmarshalResponse[budgetResponse](s.T(),
		testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/budget")))
	s.Equal(0.0, budget.TotalBudgetUSD)
}

func (s *HandlerSuite) TestAuditTrailRecordsPipeline() {
	s.runJoin(0)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/audit"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[auditResponse](s.T(), rr)
	s.Require().NotEmpty(resp.Events)
	s.Equal(audit.ActionJoinCompleted, resp.Events[0].Action, "newest first")

	actions := make(map[string]int)
	for _, e := range resp.Events {
		actions[e.Action]++
	}
	s.Equal(2, actions[audit.ActionFileIngested])
}
