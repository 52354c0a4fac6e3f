package httptransport

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"compass/internal/audit"
	"compass/internal/policy"
	dErrors "compass/pkg/domain-errors"
	"compass/pkg/httputil"
)

type validateResponse struct {
	Violations       []policy.Violation `json:"violations"`
	BudgetViolations []policy.Violation `json:"budgetViolations,omitempty"`
	ErrorCount       int                `json:"errorCount"`
	WarningCount     int                `json:"warningCount"`
}

// handleValidate runs the full rule set over the stored collection plus the
// budget check. Validation is stateless: every call recomputes from scratch.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	employees, err := h.employees.List(ctx)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load employees"))
		return
	}
	sess := h.currentOrNewSession(ctx)

	resp := validateResponse{Violations: []policy.Violation{}}
	proposedUSD := 0.0
	for _, emp := range employees {
		resp.Violations = append(resp.Violations, h.policy.ValidateEmployee(emp, sess.Settings)...)
		proposedUSD += emp.ProposedRaise.Amount
	}
	resp.BudgetViolations = h.policy.ValidateBudget(policy.BudgetContext{
		TotalBudget: sess.TotalBudgetUSD,
	}, proposedUSD)

	for _, v := range append(resp.Violations, resp.BudgetViolations...) {
		if v.Severity == policy.SeverityError {
			resp.ErrorCount++
		} else {
			resp.WarningCount++
		}
	}

	_ = h.audit.Emit(ctx, audit.Event{Action: audit.ActionValidationRun, Details: map[string]any{
		"employees": len(employees),
		"errors":    resp.ErrorCount,
		"warnings":  resp.WarningCount,
	}})

	httputil.WriteJSON(w, http.StatusOK, resp)
}

type budgetResponse struct {
	TotalBudgetUSD     float64 `json:"totalBudgetUSD"`
	ProposedUSD        float64 `json:"proposedUSD"`
	RemainingUSD       float64 `json:"remainingUSD"`
	UtilizationPercent float64 `json:"utilizationPercent"`
	EmployeeCount      int     `json:"employeeCount"`
	OverBudget         bool    `json:"overBudget"`
}

func (h *Handler) handleBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	employees, err := h.employees.List(ctx)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load employees"))
		return
	}
	sess := h.currentOrNewSession(ctx)

	proposedUSD := 0.0
	for _, emp := range employees {
		proposedUSD += emp.ProposedRaise.Amount
	}

	resp := budgetResponse{
		TotalBudgetUSD: sess.TotalBudgetUSD,
		ProposedUSD:    proposedUSD,
		RemainingUSD:   sess.TotalBudgetUSD - proposedUSD,
		EmployeeCount:  len(employees),
		OverBudget:     sess.TotalBudgetUSD > 0 && proposedUSD > sess.TotalBudgetUSD,
	}
	if sess.TotalBudgetUSD > 0 {
		resp.UtilizationPercent = math.Round(proposedUSD / sess.TotalBudgetUSD * 100)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type settingsRequest struct {
	Settings       *policy.Settings `json:"settings"`
	TotalBudgetUSD *float64         `json:"totalBudgetUSD"`
}

// handleSaveSettings swaps the policy settings and budget on the current
// session. The next validation pass picks them up wholesale.
func (h *Handler) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Settings == nil && req.TotalBudgetUSD == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "settings or totalBudgetUSD is required"))
		return
	}
	if req.Settings != nil {
		if _, ok := req.Settings.MeritRaiseCaps[policy.RegionDefault]; !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "meritRaiseCaps must include a default region"))
			return
		}
		if _, ok := req.Settings.PromotionRaiseCaps[policy.RegionDefault]; !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "promotionRaiseCaps must include a default region"))
			return
		}
	}

	sess := h.currentOrNewSession(ctx)
	if req.Settings != nil {
		sess.Settings = *req.Settings
	}
	if req.TotalBudgetUSD != nil {
		sess.TotalBudgetUSD = *req.TotalBudgetUSD
	}
	sess.UpdatedAt = h.now()

	if err := h.sessions.Save(ctx, sess); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session"))
		return
	}

	_ = h.audit.Emit(ctx, audit.Event{Action: audit.ActionSettingsSaved})
	httputil.WriteJSON(w, http.StatusOK, sess)
}

type auditResponse struct {
	Events []audit.Event `json:"events"`
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	events, err := h.audit.List(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit events"))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, auditResponse{Events: events})
}
