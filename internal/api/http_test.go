package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/pipeline"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/storage"
)

const testToken = "test-token"

func newTestDeps(t *testing.T) AppDeps {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { store.Close() })

	runner, err := pipeline.NewRunner(pipeline.DefaultConfig(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	return AppDeps{
		Store:   store,
		Service: &pipeline.Service{Store: store, Runner: runner},
		Token:   testToken,
	}
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// seedEmbeddedEntries saves n entries that already carry embeddings spread
// over distinct regions, enough for a full analysis run.
func seedEmbeddedEntries(t *testing.T, store *storage.Store, n int) {
	t.Helper()
	entries := make([]storage.Entry, n)
	for i := range entries {
		vec := make([]float32, 8)
		vec[i%5] = float32(10*(i%5) + 10)
		vec[7] = float32(i) * 0.01
		entries[i] = storage.Entry{
			ID:        fmt.Sprintf("day_%03d", i),
			Date:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Text:      "worked on the project and went climbing after",
			Embedding: vec,
		}
	}
	if err := store.SaveEntries(entries); err != nil {
		t.Fatalf("SaveEntries: %v", err)
	}
}

func TestHealthNoAuth(t *testing.T) {
	h := NewAppHandler(newTestDeps(t))
	rec := doRequest(t, h, http.MethodGet, "/health", "", false)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	h := NewAppHandler(newTestDeps(t))

	rec := doRequest(t, h, http.MethodGet, "/entries", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated GET /entries = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/entries", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token GET /entries = %d, want 401", rec.Code)
	}
}

func TestImportAndListEntries(t *testing.T) {
	h := NewAppHandler(newTestDeps(t))

	body := `[
		{"entry_id": "day_001", "date": "2025-06-02", "text": "worked late"},
		{"entry_id": "day_002", "date": "2025-06-03", "text": "went hiking", "location_city": "Sintra"}
	]`
	rec := doRequest(t, h, http.MethodPost, "/entries", body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /entries = %d: %s", rec.Code, rec.Body.String())
	}

	var imported struct {
		Imported int `json:"imported"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &imported); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if imported.Imported != 2 {
		t.Errorf("imported = %d, want 2", imported.Imported)
	}

	rec = doRequest(t, h, http.MethodGet, "/entries", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /entries = %d", rec.Code)
	}
	var entries []entryView
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decoding entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].ID != "day_001" || entries[0].Embedded {
		t.Errorf("entries[0] = %+v", entries[0])
	}
}

func TestImportRejectsBadBody(t *testing.T) {
	h := NewAppHandler(newTestDeps(t))

	for _, body := range []string{"not json", "[]", `[{"text": "no date"}]`} {
		rec := doRequest(t, h, http.MethodPost, "/entries", body, true)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("POST /entries with %q = %d, want 400", body, rec.Code)
		}
	}
}

func TestGetAndDeleteEntry(t *testing.T) {
	deps := newTestDeps(t)
	h := NewAppHandler(deps)
	seedEmbeddedEntries(t, deps.Store, 1)

	rec := doRequest(t, h, http.MethodGet, "/entries/day_000", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /entries/day_000 = %d", rec.Code)
	}
	var entry entryView
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decoding entry: %v", err)
	}
	if !entry.Embedded {
		t.Error("entry.Embedded = false, want true")
	}

	rec = doRequest(t, h, http.MethodDelete, "/entries/day_000", "", true)
	if rec.Code != http.StatusOK {
		t.Errorf("DELETE = %d, want 200", rec.Code)
	}
	rec = doRequest(t, h, http.MethodGet, "/entries/day_000", "", true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", rec.Code)
	}
}

func TestAnalyzeAndRuns(t *testing.T) {
	deps := newTestDeps(t)
	h := NewAppHandler(deps)
	seedEmbeddedEntries(t, deps.Store, 30)

	rec := doRequest(t, h, http.MethodPost, "/analyze", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /analyze = %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		RunID  string `json:"run_id"`
		Report struct {
			DayCount int `json:"day_count"`
		} `json:"report"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding analyze response: %v", err)
	}
	if result.RunID == "" || result.Report.DayCount != 30 {
		t.Errorf("analyze response = %+v", result)
	}

	rec = doRequest(t, h, http.MethodGet, "/runs/latest", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /runs/latest = %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodGet, "/runs/"+result.RunID, "", true)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /runs/{id} = %d, want 200", rec.Code)
	}

	rec = doRequest(t, h, http.MethodGet, "/runs", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /runs = %d", rec.Code)
	}
	var runs []runView
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decoding runs: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("len(runs) = %d, want 1", len(runs))
	}
}

func TestAnalyzeWithoutData(t *testing.T) {
	h := NewAppHandler(newTestDeps(t))
	rec := doRequest(t, h, http.MethodPost, "/analyze", "", true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("POST /analyze with no data = %d, want 422", rec.Code)
	}
}

func TestLatestRunEmpty(t *testing.T) {
	h := NewAppHandler(newTestDeps(t))
	rec := doRequest(t, h, http.MethodGet, "/runs/latest", "", true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /runs/latest with no runs = %d, want 404", rec.Code)
	}
}
