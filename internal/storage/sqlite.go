package storage

import (
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const dateLayout = "2006-01-02"

// Store wraps a SQLite database holding entries and analysis runs.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "pie.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		// Check if already applied.
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Entries ---

const entryColumns = "id, date, text, voice_transcript, image_caption, location_city, embedding, created_at"

// SaveEntries inserts or replaces entries in a single transaction.
func (s *Store) SaveEntries(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO entries (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			text = excluded.text,
			voice_transcript = excluded.voice_transcript,
			image_caption = excluded.image_caption,
			location_city = excluded.location_city,
			embedding = excluded.embedding`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		var blob []byte
		if e.Embedding != nil {
			blob = encodeFloat32s(e.Embedding)
		}
		if _, err := stmt.Exec(e.ID, e.Date.Format(dateLayout), e.Text, e.VoiceTranscript,
			e.ImageCaption, e.LocationCity, blob, createdAt.Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting entry %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// GetEntry returns a single entry by ID.
func (s *Store) GetEntry(id string) (Entry, error) {
	row := s.db.QueryRow(`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// ListEntries returns all entries ordered by date ascending.
func (s *Store) ListEntries() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT ` + entryColumns + ` FROM entries ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// ListEntriesWithoutEmbedding returns entries that still need an embedding,
// ordered by date ascending.
func (s *Store) ListEntriesWithoutEmbedding() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT ` + entryColumns + ` FROM entries WHERE embedding IS NULL ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// SetEmbedding stores an embedding for an existing entry.
func (s *Store) SetEmbedding(id string, embedding []float32) error {
	res, err := s.db.Exec(`UPDATE entries SET embedding = ? WHERE id = ?`, encodeFloat32s(embedding), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEntry removes an entry by ID.
func (s *Store) DeleteEntry(id string) error {
	res, err := s.db.Exec(`DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountEntries returns the total number of stored entries.
func (s *Store) CountEntries() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	var date, createdAt string
	var blob []byte
	if err := row.Scan(&e.ID, &date, &e.Text, &e.VoiceTranscript, &e.ImageCaption,
		&e.LocationCity, &blob, &createdAt); err != nil {
		return Entry{}, err
	}

	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing date for %s: %w", e.ID, err)
	}
	e.Date = d

	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing created_at for %s: %w", e.ID, err)
	}
	e.CreatedAt = t

	if blob != nil {
		emb, err := decodeFloat32s(blob)
		if err != nil {
			return Entry{}, fmt.Errorf("decoding embedding for %s: %w", e.ID, err)
		}
		e.Embedding = emb
	}
	return e, nil
}

// --- Analysis runs ---

// SaveRun persists a completed analysis run.
func (s *Store) SaveRun(r AnalysisRun) error {
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO analysis_runs (id, created_at, params_json, report_json)
		VALUES (?, ?, ?, ?)`,
		r.ID, createdAt.Format(time.RFC3339), r.ParamsJSON, r.ReportJSON,
	)
	return err
}

// GetRun returns a run by ID.
func (s *Store) GetRun(id string) (AnalysisRun, error) {
	return s.queryRun(`SELECT id, created_at, params_json, report_json FROM analysis_runs WHERE id = ?`, id)
}

// LatestRun returns the most recent run.
func (s *Store) LatestRun() (AnalysisRun, error) {
	return s.queryRun(`SELECT id, created_at, params_json, report_json FROM analysis_runs ORDER BY created_at DESC, id DESC LIMIT 1`)
}

func (s *Store) queryRun(query string, args ...any) (AnalysisRun, error) {
	var r AnalysisRun
	var createdAt string
	err := s.db.QueryRow(query, args...).Scan(&r.ID, &createdAt, &r.ParamsJSON, &r.ReportJSON)
	if err == sql.ErrNoRows {
		return AnalysisRun{}, ErrNotFound
	}
	if err != nil {
		return AnalysisRun{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return AnalysisRun{}, fmt.Errorf("parsing created_at: %w", err)
	}
	r.CreatedAt = t
	return r, nil
}

// ListRuns returns up to limit runs, newest first, without report bodies.
func (s *Store) ListRuns(limit int) ([]AnalysisRun, error) {
	rows, err := s.db.Query(`
		SELECT id, created_at, params_json FROM analysis_runs
		ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []AnalysisRun
	for rows.Next() {
		var r AnalysisRun
		var createdAt string
		if err := rows.Scan(&r.ID, &createdAt, &r.ParamsJSON); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		r.CreatedAt = t
		results = append(results, r)
	}
	return results, rows.Err()
}

// --- Embedding codec ---

// encodeFloat32s serializes a float32 slice as little-endian bytes.
func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeFloat32s deserializes little-endian bytes into a new float32 slice.
// Returns an error if the byte slice length is not a multiple of 4 (indicates data corruption).
func decodeFloat32s(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("byte slice length %d is not a multiple of 4", len(b))
	}
	n := len(b) / 4
	v := make([]float32, n)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
