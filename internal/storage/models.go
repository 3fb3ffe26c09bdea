package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Entry is one day of logged personal data. Text, VoiceTranscript and
// ImageCaption are the three modalities; any of them may be empty.
// Embedding stays nil until the entry has been embedded.
type Entry struct {
	ID              string
	Date            time.Time
	Text            string
	VoiceTranscript string
	ImageCaption    string
	LocationCity    string
	Embedding       []float32
	CreatedAt       time.Time
}

// AnalysisRun is one persisted analysis execution. ParamsJSON holds the run
// configuration and ReportJSON the full report, both as JSON text.
type AnalysisRun struct {
	ID         string
	CreatedAt  time.Time
	ParamsJSON string
	ReportJSON string
}
