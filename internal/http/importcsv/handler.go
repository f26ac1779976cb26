// Package importcsv accepts site-diary file uploads and replays each row
// through the daily submission flow. Rows are applied independently, so a
// duplicate date in the middle of the file does not abort the rest.
package importcsv

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmcalde/sitework/internal/auth"
	"github.com/dmcalde/sitework/internal/importer"
	"github.com/dmcalde/sitework/internal/progress"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	importSvc   *importer.Service
	progressSvc *progress.Service
}

func NewHandler(importSvc *importer.Service, progressSvc *progress.Service) *Handler {
	return &Handler{
		importSvc:   importSvc,
		progressSvc: progressSvc,
	}
}

// Routes mounts under /projects/{id}/progress/import.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importDiary)
}

type entrySummary struct {
	Date          string  `json:"date"`
	Stage         string  `json:"stage"`
	CumulativePct float64 `json:"cumulative_pct"`
}

type failedRow struct {
	Date  string `json:"date"`
	Error string `json:"error"`
}

type importResponse struct {
	Imported int            `json:"imported"`
	Entries  []entrySummary `json:"entries"`
	Failed   []failedRow    `json:"failed,omitempty"`
}

func (h *Handler) importDiary(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.FromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	format := importer.Format(r.FormValue("format"))
	if format == "" {
		format = importer.FormatDiary
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	params, err := h.importSvc.Import(format, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := importResponse{Entries: []entrySummary{}}

	for _, p := range params {
		p.ProjectID = projectID

		entry, err := h.progressSvc.SubmitDaily(r.Context(), principal, p)
		if err != nil {
			resp.Failed = append(resp.Failed, failedRow{
				Date:  p.Date.Format(time.DateOnly),
				Error: err.Error(),
			})

			continue
		}

		resp.Imported++
		resp.Entries = append(resp.Entries, entrySummary{
			Date:          entry.Date.Format(time.DateOnly),
			Stage:         string(entry.Stage),
			CumulativePct: entry.CumulativePct,
		})
	}

	w.Header().Set("Content-Type", "application/json")

	// 201 only when every row landed; partial imports report what failed.
	if len(resp.Failed) == 0 {
		w.WriteHeader(http.StatusCreated)
	} else {
		w.WriteHeader(http.StatusMultiStatus)
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
