// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services without embedding business logic so transport concerns stay
// isolated.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"compass/internal/audit"
	"compass/internal/currency"
	"compass/internal/employee/models"
	"compass/internal/ingest"
	"compass/internal/join"
	"compass/internal/platform/middleware"
	"compass/internal/policy"
	"compass/internal/proposal"
	"compass/internal/session"
	"compass/pkg/httputil"
)

// IngestService parses one export file into typed rows.
type IngestService interface {
	ParseFile(ctx context.Context, fileName string, data []byte, expected ingest.FileType) *ingest.FileResult
}

// JoinService pairs salary rows with performance rows.
type JoinService interface {
	Join(ctx context.Context, salary []models.SalaryRow, perf []models.PerformanceRow, opts join.Options) *models.JoinResult
}

// PolicyService runs the validation rules.
type PolicyService interface {
	ValidateEmployee(emp *models.Employee, settings policy.Settings) []policy.Violation
	ValidateBudget(budget policy.BudgetContext, proposedUSD float64) []policy.Violation
}

// ConvertService normalizes salaries to USD.
type ConvertService interface {
	ConvertBatch(ctx context.Context, employees []*models.Employee) []currency.Conversion
}

// RateInvalidator drops cached exchange rates.
type RateInvalidator interface {
	InvalidateCache(ctx context.Context)
}

// ProposalService parses and merges manager override sheets.
type ProposalService interface {
	Parse(fileName string, data []byte) ([]proposal.Row, []models.RowIssue, error)
	Merge(ctx context.Context, rows []proposal.Row, employees []*models.Employee, now time.Time) proposal.MergeResult
}

// Handler holds the wired services and stores for all endpoints.
type Handler struct {
	logger    *slog.Logger
	ingest    IngestService
	join      JoinService
	policy    PolicyService
	converter ConvertService
	rates     RateInvalidator
	proposals ProposalService
	employees session.EmployeeStore
	sessions  session.SessionStore
	files     session.FileCache
	audit     *audit.Publisher
	now       func() time.Time

	maxUploadBytes int64
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) { h.maxUploadBytes = n }
}

// Deps are the collaborators every Handler needs.
type Deps struct {
	Ingest    IngestService
	Join      JoinService
	Policy    PolicyService
	Converter ConvertService
	Rates     RateInvalidator
	Proposals ProposalService
	Employees session.EmployeeStore
	Sessions  session.SessionStore
	Files     session.FileCache
	Audit     *audit.Publisher
}

func NewHandler(deps Deps, opts ...Option) *Handler {
	h := &Handler{
		logger:         slog.Default(),
		ingest:         deps.Ingest,
		join:           deps.Join,
		policy:         deps.Policy,
		converter:      deps.Converter,
		rates:          deps.Rates,
		proposals:      deps.Proposals,
		employees:      deps.Employees,
		sessions:       deps.Sessions,
		files:          deps.Files,
		audit:          deps.Audit,
		now:            time.Now,
		maxUploadBytes: 64 << 20,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter wires all endpoints with the shared middleware chain.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/files", h.handleUploadFiles)
	r.Post("/join", h.handleJoin)

	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.handleListEmployees)
		r.Get("/{id}", h.handleGetEmployee)
		r.Get("/{id}/recommendation", h.handleRecommendation)
		r.Patch("/{id}/raise", h.handleEditRaise)
	})

	r.Post("/proposals", h.handleMergeProposal)
	r.Get("/validate", h.handleValidate)
	r.Get("/budget", h.handleBudget)
	r.Put("/settings", h.handleSaveSettings)
	r.Get("/audit", h.handleAuditTrail)
	r.Post("/rates/invalidate", h.handleInvalidateRates)
	r.Delete("/session", h.handleResetSession)

	return r
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleInvalidateRates(w http.ResponseWriter, r *http.Request) {
	h.rates.InvalidateCache(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
