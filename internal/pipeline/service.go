package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/ingest"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/storage"
	"github.com/google/uuid"
)

// Service ties storage, embedding, and the analysis runner together. The API
// and MCP layers both drive analysis through it.
type Service struct {
	Store    *storage.Store
	Embedder *ingest.Embedder
	Runner   *Runner
}

// Analyze embeds any pending entries, runs the full pipeline over all stored
// entries, and persists the result as a new analysis run.
func (s *Service) Analyze(ctx context.Context) (*Report, storage.AnalysisRun, error) {
	if s.Embedder != nil {
		if _, err := s.Embedder.EmbedPending(ctx, s.Store, ComposeText); err != nil {
			return nil, storage.AnalysisRun{}, fmt.Errorf("embedding entries: %w", err)
		}
	}

	entries, err := s.Store.ListEntries()
	if err != nil {
		return nil, storage.AnalysisRun{}, fmt.Errorf("listing entries: %w", err)
	}

	report, err := s.Runner.Run(DaysFromEntries(entries))
	if err != nil {
		return nil, storage.AnalysisRun{}, err
	}

	paramsJSON, err := json.Marshal(report.Params)
	if err != nil {
		return nil, storage.AnalysisRun{}, fmt.Errorf("marshaling params: %w", err)
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return nil, storage.AnalysisRun{}, fmt.Errorf("marshaling report: %w", err)
	}

	run := storage.AnalysisRun{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		ParamsJSON: string(paramsJSON),
		ReportJSON: string(reportJSON),
	}
	if err := s.Store.SaveRun(run); err != nil {
		return nil, storage.AnalysisRun{}, fmt.Errorf("saving run: %w", err)
	}
	return report, run, nil
}

// LatestReport loads and decodes the most recent stored report.
func (s *Service) LatestReport() (*Report, error) {
	run, err := s.Store.LatestRun()
	if err != nil {
		return nil, err
	}
	var report Report
	if err := json.Unmarshal([]byte(run.ReportJSON), &report); err != nil {
		return nil, fmt.Errorf("decoding report for run %s: %w", run.ID, err)
	}
	return &report, nil
}
