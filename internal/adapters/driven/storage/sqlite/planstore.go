// Package sqlite provides SQLite-backed persistence for enriched
// coverages and generated study plans.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/examplan-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/examplan-cli/internal/core/domain"
	"github.com/custodia-labs/examplan-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.PlanStore = (*Store)(nil)

// Store persists coverages and plans in a single SQLite database.
// Documents are stored as JSON payloads with a few extracted columns
// for listing and ordering; the payload is the source of truth.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a plan store at the specified data directory.
// If dataDir is empty, defaults to ~/.examplan/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".examplan", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "examplan.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations. Each migration and its version
// record commit together; a failed migration leaves no trace.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveCoverage stores or replaces an exam's enriched coverage.
func (s *Store) SaveCoverage(ctx context.Context, coverage *domain.EnrichedCoverage) error {
	if coverage.ExamID == "" {
		return fmt.Errorf("%w: coverage has no exam id", domain.ErrInvalidInput)
	}

	payload, err := json.Marshal(coverage)
	if err != nil {
		return fmt.Errorf("marshalling coverage: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO coverages (exam_id, exam_name, exam_date, enriched_at, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(exam_id) DO UPDATE SET
			exam_name = excluded.exam_name,
			exam_date = excluded.exam_date,
			enriched_at = excluded.enriched_at,
			payload = excluded.payload
	`, coverage.ExamID, coverage.ExamName, coverage.ExamDate, coverage.EnrichedAt.UTC(), string(payload))

	if err != nil {
		return fmt.Errorf("saving coverage: %w", err)
	}
	return nil
}

// GetCoverage retrieves an enriched coverage by exam id.
func (s *Store) GetCoverage(ctx context.Context, examID string) (*domain.EnrichedCoverage, error) {
	var payload string
	row := s.db.QueryRowContext(ctx, "SELECT payload FROM coverages WHERE exam_id = ?", examID)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: coverage for exam %s", domain.ErrNotFound, examID)
		}
		return nil, fmt.Errorf("getting coverage: %w", err)
	}

	var coverage domain.EnrichedCoverage
	if err := json.Unmarshal([]byte(payload), &coverage); err != nil {
		return nil, fmt.Errorf("unmarshalling coverage: %w", err)
	}
	return &coverage, nil
}

// ListCoverages returns all stored coverages, newest first.
func (s *Store) ListCoverages(ctx context.Context) ([]domain.EnrichedCoverage, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM coverages ORDER BY enriched_at DESC, exam_id")
	if err != nil {
		return nil, fmt.Errorf("listing coverages: %w", err)
	}
	defer rows.Close()

	var coverages []domain.EnrichedCoverage
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning coverage: %w", err)
		}
		var coverage domain.EnrichedCoverage
		if err := json.Unmarshal([]byte(payload), &coverage); err != nil {
			return nil, fmt.Errorf("unmarshalling coverage: %w", err)
		}
		coverages = append(coverages, coverage)
	}
	return coverages, rows.Err()
}

// SavePlan stores a generated plan. Plans are immutable; saving an
// existing plan id is an error.
func (s *Store) SavePlan(ctx context.Context, plan *domain.StudyPlan) error {
	if plan.PlanID == "" {
		return fmt.Errorf("%w: plan has no id", domain.ErrInvalidInput)
	}

	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshalling plan: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plans (plan_id, strategy, start_date, end_date, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`, plan.PlanID, string(plan.Strategy), plan.StartDate, plan.EndDate, plan.CreatedAt.UTC(), string(payload))

	if err != nil {
		return fmt.Errorf("saving plan: %w", err)
	}
	return nil
}

// GetPlan retrieves a plan by id.
func (s *Store) GetPlan(ctx context.Context, planID string) (*domain.StudyPlan, error) {
	var payload string
	row := s.db.QueryRowContext(ctx, "SELECT payload FROM plans WHERE plan_id = ?", planID)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: plan %s", domain.ErrNotFound, planID)
		}
		return nil, fmt.Errorf("getting plan: %w", err)
	}

	var plan domain.StudyPlan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, fmt.Errorf("unmarshalling plan: %w", err)
	}
	return &plan, nil
}

// ListPlans returns all stored plans, newest first.
func (s *Store) ListPlans(ctx context.Context) ([]domain.StudyPlan, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM plans ORDER BY created_at DESC, plan_id")
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.StudyPlan
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		var plan domain.StudyPlan
		if err := json.Unmarshal([]byte(payload), &plan); err != nil {
			return nil, fmt.Errorf("unmarshalling plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}
