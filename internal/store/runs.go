package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("run not found")

// Run kinds.
const (
	KindGenerate    = "generate"
	KindReconstruct = "reconstruct"
)

// Run is one persisted generation or reconstruction pass.
type Run struct {
	RunID         uuid.UUID
	Kind          string
	CreatedAt     time.Time
	ClaimMode     string
	DetectorRadii []float64
	// Score is the scoring percentage, nil until scored.
	Score *float64
}

// InsertRun persists r. A nil RunID is replaced with a fresh one and a zero
// CreatedAt with the current time.
func (db *DB) InsertRun(r *Run) error {
	if r.RunID == uuid.Nil {
		r.RunID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.ClaimMode == "" {
		r.ClaimMode = "strict"
	}
	radii := r.DetectorRadii
	if radii == nil {
		radii = []float64{}
	}
	radiiJSON, err := json.Marshal(radii)
	if err != nil {
		return fmt.Errorf("encode detector radii: %w", err)
	}

	var score sql.NullFloat64
	if r.Score != nil {
		score = sql.NullFloat64{Float64: *r.Score, Valid: true}
	}

	return retryOnBusy(func() error {
		_, err := db.Exec(`
			INSERT INTO runs (run_id, kind, created_unix_nanos, claim_mode, detector_radii, score)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.RunID.String(), r.Kind, r.CreatedAt.UnixNano(), r.ClaimMode, string(radiiJSON), score,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		return nil
	})
}

// UpdateRunScore records the score of a run.
func (db *DB) UpdateRunScore(runID uuid.UUID, score float64) error {
	return retryOnBusy(func() error {
		res, err := db.Exec(`UPDATE runs SET score = ? WHERE run_id = ?`, score, runID.String())
		if err != nil {
			return fmt.Errorf("update run score: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update run score: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r         Run
		id        string
		nanos     int64
		radiiJSON string
		score     sql.NullFloat64
	)
	if err := row.Scan(&id, &r.Kind, &nanos, &r.ClaimMode, &radiiJSON, &score); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse run id %q: %w", id, err)
	}
	r.RunID = parsed
	r.CreatedAt = time.Unix(0, nanos)
	if err := json.Unmarshal([]byte(radiiJSON), &r.DetectorRadii); err != nil {
		return nil, fmt.Errorf("decode detector radii: %w", err)
	}
	if score.Valid {
		r.Score = &score.Float64
	}
	return &r, nil
}

// GetRun returns the run with the given id, or ErrRunNotFound.
func (db *DB) GetRun(runID uuid.UUID) (*Run, error) {
	row := db.QueryRow(`
		SELECT run_id, kind, created_unix_nanos, claim_mode, detector_radii, score
		FROM runs
		WHERE run_id = ?`, runID.String())
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}

// ListRuns returns every run, newest first.
func (db *DB) ListRuns() ([]*Run, error) {
	rows, err := db.Query(`
		SELECT run_id, kind, created_unix_nanos, claim_mode, detector_radii, score
		FROM runs
		ORDER BY created_unix_nanos DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
