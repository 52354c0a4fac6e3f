package httptransport

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"mime/multipart"
	"net/http"

	"compass/internal/audit"
	"compass/internal/ingest"
	dErrors "compass/pkg/domain-errors"
	"compass/pkg/httputil"
)

type uploadResponse struct {
	Results []*ingest.FileResult `json:"results"`
}

// handleUploadFiles parses a multipart batch of export files. Parsed results
// are cached by content hash so the join step and repeat uploads can reuse
// them; a rejected file never aborts the rest of the batch.
func (h *Handler) handleUploadFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request is not valid multipart form data"))
		return
	}
	uploads := r.MultipartForm.File["files"]
	if len(uploads) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "no files in upload, use form field \"files\""))
		return
	}
	expected := fileType(r.FormValue("type"))

	results := make([]*ingest.FileResult, 0, len(uploads))
	for _, header := range uploads {
		data, err := readUpload(header)
		if err != nil {
			h.logger.WarnContext(ctx, "upload unreadable", "file", header.Filename, "error", err)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "upload could not be read"))
			return
		}

		hash := contentHash(data)
		result, cached := h.files.Get(ctx, hash)
		if !cached {
			result = h.ingest.ParseFile(ctx, header.Filename, data, expected)
			if !result.Rejected() {
				h.files.Set(ctx, hash, result)
			}
		}
		results = append(results, result)

		action := audit.ActionFileIngested
		if result.Rejected() {
			action = audit.ActionFileRejected
		}
		_ = h.audit.Emit(ctx, audit.Event{Action: action, Details: map[string]any{
			"file":      result.FileName,
			"type":      result.FileType,
			"hash":      result.ContentHash,
			"validRows": result.ValidRows,
			"cached":    cached,
		}})
	}

	httputil.WriteJSON(w, http.StatusOK, uploadResponse{Results: results})
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func fileType(raw string) ingest.FileType {
	switch ingest.FileType(raw) {
	case ingest.TypeSalary:
		return ingest.TypeSalary
	case ingest.TypePerformance:
		return ingest.TypePerformance
	}
	return ingest.TypeUnknown
}
