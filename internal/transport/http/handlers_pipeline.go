package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"compass/internal/audit"
	"compass/internal/employee/models"
	"compass/internal/enrich"
	"compass/internal/join"
	"compass/internal/policy"
	"compass/internal/session"
	dErrors "compass/pkg/domain-errors"
	"compass/pkg/httputil"
	"compass/pkg/sentinel"
)

type joinRequest struct {
	FileHashes            []string `json:"fileHashes"`
	TotalBudgetUSD        float64  `json:"totalBudgetUSD"`
	PreferEmailMatch      bool     `json:"preferEmailMatch"`
	RequireExactNameMatch bool     `json:"requireExactNameMatch"`
	NameSimilarity        float64  `json:"nameSimilarity"`
}

type joinResponse struct {
	Session session.Session    `json:"session"`
	Result  *models.JoinResult `json:"result"`
}

// handleJoin runs the full pipeline over previously uploaded files: join,
// currency conversion, enrichment, then wholesale replacement of the stored
// collection.
func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if len(req.FileHashes) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "fileHashes is required"))
		return
	}

	var (
		salary      []models.SalaryRow
		perf        []models.PerformanceRow
		sourceFiles []string
	)
	for _, hash := range req.FileHashes {
		result, ok := h.files.Get(ctx, hash)
		if !ok {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeNotFound, "no uploaded file with hash %s", hash))
			return
		}
		salary = append(salary, result.Salary...)
		perf = append(perf, result.Performance...)
		sourceFiles = append(sourceFiles, result.FileName)
	}
	if len(salary) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnprocessableFile, "uploaded files contain no salary rows"))
		return
	}

	result := h.join.Join(ctx, salary, perf, join.Options{
		PreferEmailMatch:      req.PreferEmailMatch,
		RequireExactNameMatch: req.RequireExactNameMatch,
		NameSimilarity:        req.NameSimilarity,
	})

	h.converter.ConvertBatch(ctx, result.Employees)
	now := h.now()
	for _, emp := range result.Employees {
		enrich.Enrich(emp, enrich.Context{Now: now})
	}

	if err := h.employees.ReplaceAll(ctx, result.Employees); err != nil {
		h.logger.ErrorContext(ctx, "failed to store joined employees", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store joined employees"))
		return
	}

	sess := h.currentOrNewSession(ctx)
	sess.UpdatedAt = now
	sess.SourceFiles = sourceFiles
	sess.EmployeeCount = len(result.Employees)
	if req.TotalBudgetUSD > 0 {
		sess.TotalBudgetUSD = req.TotalBudgetUSD
	}
	if err := h.sessions.Save(ctx, sess); err != nil {
		h.logger.ErrorContext(ctx, "failed to save session", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session"))
		return
	}

	_ = h.audit.Emit(ctx, audit.Event{Action: audit.ActionJoinCompleted, Details: map[string]any{
		"employees":       len(result.Employees),
		"idMatches":       result.Summary.IDMatches,
		"emailMatches":    result.Summary.EmailMatches,
		"nameMatches":     result.Summary.NameMatches,
		"unmatchedSalary": result.Summary.UnmatchedSalary,
		"unmatchedPerf":   result.Summary.UnmatchedPerformance,
		"sourceFiles":     sourceFiles,
	}})

	httputil.WriteJSON(w, http.StatusOK, joinResponse{Session: sess, Result: result})
}

type proposalResponse struct {
	Updated  int               `json:"updated"`
	Warnings []models.RowIssue `json:"warnings,omitempty"`
}

// handleMergeProposal applies a manager override sheet to the stored
// collection, strictly by employee ID.
func (h *Handler) handleMergeProposal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request is not valid multipart form data"))
		return
	}
	uploads := r.MultipartForm.File["file"]
	if len(uploads) != 1 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "exactly one proposal file is required, use form field \"file\""))
		return
	}
	data, err := readUpload(uploads[0])
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "upload could not be read"))
		return
	}

	rows, parseWarnings, err := h.proposals.Parse(uploads[0].Filename, data)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	employees, err := h.employees.List(ctx)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load employees"))
		return
	}
	if len(employees) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "no joined employees to merge into, run a join first"))
		return
	}

	result := h.proposals.Merge(ctx, rows, employees, h.now())
	if err := h.employees.ReplaceAll(ctx, employees); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store merged employees"))
		return
	}

	_ = h.audit.Emit(ctx, audit.Event{Action: audit.ActionProposalMerged, Details: map[string]any{
		"file":     uploads[0].Filename,
		"rows":     len(rows),
		"updated":  result.Updated,
		"warnings": len(result.Warnings) + len(parseWarnings),
	}})

	httputil.WriteJSON(w, http.StatusOK, proposalResponse{
		Updated:  result.Updated,
		Warnings: append(parseWarnings, result.Warnings...),
	})
}

// handleResetSession clears the employee collection, the current session, and
// the parsed-file cache.
func (h *Handler) handleResetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.employees.Clear(ctx); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear employees"))
		return
	}
	if err := h.sessions.Reset(ctx); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset session"))
		return
	}
	h.files.Clear(ctx)

	_ = h.audit.Emit(ctx, audit.Event{Action: audit.ActionSessionReset})
	w.WriteHeader(http.StatusNoContent)
}

// currentOrNewSession loads the active session, or starts one with default
// policy settings when none exists.
func (h *Handler) currentOrNewSession(ctx context.Context) session.Session {
	sess, err := h.sessions.Current(ctx)
	if err == nil {
		return sess
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		h.logger.WarnContext(ctx, "failed to load session, starting fresh", "error", err)
	}
	now := h.now()
	return session.Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Settings:  policy.DefaultSettings(),
	}
}
