package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"compass/internal/audit"
	"compass/internal/employee/models"
	"compass/internal/enrich"
	dErrors "compass/pkg/domain-errors"
	"compass/pkg/httputil"
	"compass/pkg/sentinel"
)

type employeeListResponse struct {
	Employees []*models.Employee `json:"employees"`
	Count     int                `json:"count"`
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.employees.List(r.Context())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load employees"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, employeeListResponse{Employees: employees, Count: len(employees)})
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.employees.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, emp)
}

// handleRecommendation computes a raise recommendation on demand; nothing is
// stored until the manager applies it through the raise endpoint.
func (h *Handler) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	emp, err := h.employees.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, enrich.RecommendRaise(emp))
}

type raiseRequest struct {
	RaiseAmountUSD *float64 `json:"raiseAmountUSD"`
	RaisePercent   *float64 `json:"raisePercent"`
}

// handleEditRaise is the interactive raise edit: it replaces the proposed
// raise and recomputes every derived field before persisting.
func (h *Handler) handleEditRaise(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req raiseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.RaiseAmountUSD == nil && req.RaisePercent == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "raiseAmountUSD or raisePercent is required"))
		return
	}

	emp, err := h.employees.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	// A raise is priced in USD. Without a USD value for the salary there is
	// no rate to convert it back into the local currency, and adding it at
	// parity would corrupt the new salary.
	if emp.BaseSalary.Currency != "USD" && emp.BaseSalaryUSD <= 0 {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeInvariantViolation,
			"no exchange rate for %s, cannot convert a USD raise", emp.BaseSalary.Currency))
		return
	}

	raiseUSD := 0.0
	switch {
	case req.RaiseAmountUSD != nil:
		raiseUSD = *req.RaiseAmountUSD
	case req.RaisePercent != nil:
		raiseUSD = usdSalary(emp) * *req.RaisePercent / 100
	}
	if raiseUSD < 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "raise cannot be negative"))
		return
	}

	enrich.ApplyRaise(emp, models.USD(raiseUSD))
	enrich.Enrich(emp, enrich.Context{Now: h.now()})

	if err := h.employees.Update(ctx, emp); err != nil {
		writeStoreError(w, err)
		return
	}

	_ = h.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionRaiseEdited,
		EmployeeID: emp.EmployeeID,
		Details: map[string]any{
			"raiseUSD":  raiseUSD,
			"newSalary": emp.NewSalary,
		},
	})

	httputil.WriteJSON(w, http.StatusOK, emp)
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, sentinel.ErrNotFound) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "employee not found"))
		return
	}
	httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "employee store failure"))
}

func usdSalary(emp *models.Employee) float64 {
	if emp.BaseSalaryUSD > 0 {
		return emp.BaseSalaryUSD
	}
	if emp.BaseSalary.Currency == "USD" {
		return emp.BaseSalary.Amount
	}
	return 0
}
