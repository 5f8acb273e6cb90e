package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/trackml/internal/geometry"
	"github.com/banshee-data/trackml/internal/hitio"
	"github.com/banshee-data/trackml/internal/particle"
)

// InsertHits stores a run's hit pool in a single transaction. Unlabeled
// hits are stored with a NULL particle_id.
func (db *DB) InsertHits(runID uuid.UUID, hits []*particle.Hit) error {
	return retryOnBusy(func() error {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin hits transaction: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(`
			INSERT INTO hits (run_id, hit_id, particle_id, layer, x, y)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare hit insert: %w", err)
		}
		defer stmt.Close()

		for _, h := range hits {
			var pid sql.NullInt64
			if h.Labeled() {
				pid = sql.NullInt64{Int64: h.ParticleID, Valid: true}
			}
			if _, err := stmt.Exec(runID.String(), h.ID, pid, h.Layer, h.Local.X, h.Local.Y); err != nil {
				return fmt.Errorf("insert hit %d: %w", h.ID, err)
			}
		}
		return tx.Commit()
	})
}

// ListHits returns a run's hits ordered by hit id.
func (db *DB) ListHits(runID uuid.UUID) ([]*particle.Hit, error) {
	rows, err := db.Query(`
		SELECT hit_id, particle_id, layer, x, y
		FROM hits
		WHERE run_id = ?
		ORDER BY hit_id`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("query hits: %w", err)
	}
	defer rows.Close()

	var hits []*particle.Hit
	for rows.Next() {
		var (
			id    int64
			pid   sql.NullInt64
			layer int
			x, y  float64
		)
		if err := rows.Scan(&id, &pid, &layer, &x, &y); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		h := particle.NewUnlabeledHit(id, geometry.Point{X: x, Y: y})
		h.Layer = layer
		if pid.Valid {
			h.ParticleID = pid.Int64
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// InsertTracks stores reconstructed (or truth) tracks for a run, keeping
// track order and hit order within each track.
func (db *DB) InsertTracks(runID uuid.UUID, tracks []hitio.Solution) error {
	return retryOnBusy(func() error {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin tracks transaction: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(`
			INSERT INTO tracks (run_id, track_index, particle_id, ordinal, hit_id)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare track insert: %w", err)
		}
		defer stmt.Close()

		for i, t := range tracks {
			for ord, hitID := range t.HitIDs {
				if _, err := stmt.Exec(runID.String(), i, t.ParticleID, ord, hitID); err != nil {
					return fmt.Errorf("insert track %d hit %d: %w", t.ParticleID, hitID, err)
				}
			}
		}
		return tx.Commit()
	})
}

// ListTracks returns a run's tracks in insertion order. Tracks stored with
// no hits are not returned.
func (db *DB) ListTracks(runID uuid.UUID) ([]hitio.Solution, error) {
	rows, err := db.Query(`
		SELECT track_index, particle_id, hit_id
		FROM tracks
		WHERE run_id = ?
		ORDER BY track_index, ordinal`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var (
		out  []hitio.Solution
		last = -1
	)
	for rows.Next() {
		var (
			idx   int
			pid   int64
			hitID int64
		)
		if err := rows.Scan(&idx, &pid, &hitID); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		if idx != last {
			out = append(out, hitio.Solution{ParticleID: pid})
			last = idx
		}
		out[len(out)-1].HitIDs = append(out[len(out)-1].HitIDs, hitID)
	}
	return out, rows.Err()
}
