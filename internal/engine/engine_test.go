package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeEngine is a scriptable Engine for startup tests.
type fakeEngine struct {
	running bool
	models  []string
	pulled  []string
	pullErr error
}

func (f *fakeEngine) Embed(ctx context.Context, model, text string) ([]float32, error) {
	return []float32{1, 2, 3}, nil
}

func (f *fakeEngine) IsRunning(ctx context.Context) bool { return f.running }

func (f *fakeEngine) ListModels(ctx context.Context) ([]string, error) { return f.models, nil }

func (f *fakeEngine) HasModel(ctx context.Context, name string) bool {
	for _, m := range f.models {
		if m == name {
			return true
		}
	}
	return false
}

func (f *fakeEngine) PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error {
	if f.pullErr != nil {
		return f.pullErr
	}
	f.pulled = append(f.pulled, name)
	if onProgress != nil {
		onProgress(PullProgress{Status: "downloading", Total: 100, Completed: 100})
		onProgress(PullProgress{Status: "success"})
	}
	f.models = append(f.models, name)
	return nil
}

func TestEnsureReadyBackendDown(t *testing.T) {
	e := &fakeEngine{running: false}
	if err := EnsureReady(context.Background(), e, "nomic-embed-text", &bytes.Buffer{}); err == nil {
		t.Fatal("EnsureReady succeeded with the backend down")
	}
}

func TestEnsureReadyModelPresent(t *testing.T) {
	e := &fakeEngine{running: true, models: []string{"nomic-embed-text"}}
	var out bytes.Buffer
	if err := EnsureReady(context.Background(), e, "nomic-embed-text", &out); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if len(e.pulled) != 0 {
		t.Errorf("pulled %v, want nothing", e.pulled)
	}
	if !strings.Contains(out.String(), "ready") {
		t.Errorf("output = %q, want a ready line", out.String())
	}
}

func TestEnsureReadyPullsMissingModel(t *testing.T) {
	e := &fakeEngine{running: true}
	var out bytes.Buffer
	if err := EnsureReady(context.Background(), e, "nomic-embed-text", &out); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if len(e.pulled) != 1 || e.pulled[0] != "nomic-embed-text" {
		t.Errorf("pulled = %v, want [nomic-embed-text]", e.pulled)
	}
	if !strings.Contains(out.String(), "pulling") {
		t.Errorf("output = %q, want a pulling line", out.String())
	}
}

func TestEnsureReadyPullFailure(t *testing.T) {
	e := &fakeEngine{running: true, pullErr: fmt.Errorf("network down")}
	err := EnsureReady(context.Background(), e, "nomic-embed-text", &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "network down") {
		t.Errorf("EnsureReady error = %v, want wrapped pull failure", err)
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DetectConfig
		want    string
		wantErr bool
	}{
		{"default is ollama", DetectConfig{OllamaBaseURL: "http://localhost:11434"}, "*engine.OllamaEngine", false},
		{"explicit ollama", DetectConfig{Provider: "ollama"}, "*engine.OllamaEngine", false},
		{"openai with key", DetectConfig{Provider: "openai", OpenAIAPIKey: "sk-test"}, "*engine.OpenAIEngine", false},
		{"openai without key", DetectConfig{Provider: "openai"}, "", true},
		{"unknown provider", DetectConfig{Provider: "llamafile"}, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, err := Detect(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatal("Detect succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if got := fmt.Sprintf("%T", e); got != tc.want {
				t.Errorf("Detect returned %s, want %s", got, tc.want)
			}
		})
	}
}

func TestOllamaEngineEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{0.5, 1.5}},
		})
	}))
	defer srv.Close()

	e := NewOllamaEngine(srv.URL)
	vec, err := e.Embed(context.Background(), "nomic-embed-text", "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 {
		t.Errorf("vec = %v, want [0.5 1.5]", vec)
	}
}

func TestOpenAIEngineEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": []float64{0.25, -0.75}},
			},
			"model": "text-embedding-3-small",
		})
	}))
	defer srv.Close()

	e := NewOpenAIEngine("sk-test", srv.URL)
	vec, err := e.Embed(context.Background(), "text-embedding-3-small", "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.25 || vec[1] != -0.75 {
		t.Errorf("vec = %v, want [0.25 -0.75]", vec)
	}
}

func TestOpenAIEnginePullUnsupported(t *testing.T) {
	e := NewOpenAIEngine("sk-test", "")
	if err := e.PullModel(context.Background(), "text-embedding-3-small", nil); err == nil {
		t.Error("PullModel succeeded, want error")
	}
}
