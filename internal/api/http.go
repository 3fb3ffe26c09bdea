// Package api exposes the engine over HTTP (chi router, bearer auth) and
// over MCP for agent integrations.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/ingest"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/pipeline"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/storage"
)

const maxRequestBodySize = 10 << 20 // 10MB

// AppDeps holds the dependencies of the HTTP handler.
type AppDeps struct {
	Store   *storage.Store
	Service *pipeline.Service
	Token   string
}

// NewAppHandler builds the HTTP API. Everything except /health requires the
// bearer token.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/entries", handleImportEntries(deps))
		r.Get("/entries", handleListEntries(deps))
		r.Get("/entries/{id}", handleGetEntry(deps))
		r.Delete("/entries/{id}", handleDeleteEntry(deps))

		r.Post("/analyze", handleAnalyze(deps))
		r.Get("/runs", handleListRuns(deps))
		r.Get("/runs/latest", handleLatestRun(deps))
		r.Get("/runs/{id}", handleGetRun(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleImportEntries(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		buf, err := io.ReadAll(r.Body)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading request body: %v", err)
			return
		}

		entries, err := ingest.ParseJSON(buf)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid entries: %v", err)
			return
		}
		if len(entries) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "no entries in request")
			return
		}

		if err := deps.Store.SaveEntries(entries); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving entries: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"imported": len(entries),
		})
	}
}

func handleListEntries(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := deps.Store.ListEntries()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing entries: %v", err)
			return
		}

		out := make([]entryView, len(entries))
		for i, e := range entries {
			out[i] = newEntryView(e)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}

func handleGetEntry(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		entry, err := deps.Store.GetEntry(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "entry not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "getting entry: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(newEntryView(entry))
	}
}

func handleDeleteEntry(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Store.DeleteEntry(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "entry not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "deleting entry: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func handleAnalyze(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, run, err := deps.Service.Analyze(r.Context())
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, "analysis_error", "analysis failed: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"run_id": run.ID,
			"report": report,
		})
	}
}

func handleListRuns(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)

		runs, err := deps.Store.ListRuns(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing runs: %v", err)
			return
		}

		out := make([]runView, len(runs))
		for i, rn := range runs {
			out[i] = runView{ID: rn.ID, CreatedAt: rn.CreatedAt.Format(time.RFC3339), Params: json.RawMessage(rn.ParamsJSON)}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}

func handleLatestRun(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := deps.Store.LatestRun()
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "no analysis runs yet")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading latest run: %v", err)
			return
		}
		writeRun(w, run)
	}
}

func handleGetRun(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		run, err := deps.Store.GetRun(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "run not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "getting run: %v", err)
			return
		}
		writeRun(w, run)
	}
}

func writeRun(w http.ResponseWriter, run storage.AnalysisRun) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":         run.ID,
		"created_at": run.CreatedAt.Format(time.RFC3339),
		"params":     json.RawMessage(run.ParamsJSON),
		"report":     json.RawMessage(run.ReportJSON),
	})
}

// entryView is the wire shape of an entry; raw embeddings stay internal.
type entryView struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	Text            string `json:"text,omitempty"`
	VoiceTranscript string `json:"voice_transcript,omitempty"`
	ImageCaption    string `json:"image_caption,omitempty"`
	LocationCity    string `json:"location_city,omitempty"`
	Embedded        bool   `json:"embedded"`
}

func newEntryView(e storage.Entry) entryView {
	return entryView{
		ID:              e.ID,
		Date:            e.Date.Format("2006-01-02"),
		Text:            e.Text,
		VoiceTranscript: e.VoiceTranscript,
		ImageCaption:    e.ImageCaption,
		LocationCity:    e.LocationCity,
		Embedded:        e.Embedding != nil,
	}
}

type runView struct {
	ID        string          `json:"id"`
	CreatedAt string          `json:"created_at"`
	Params    json.RawMessage `json:"params"`
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
