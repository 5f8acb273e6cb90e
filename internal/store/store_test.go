package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trackml/internal/geometry"
	"github.com/banshee-data/trackml/internal/hitio"
	"github.com/banshee-data/trackml/internal/particle"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMigrated(filepath.Join(t.TempDir(), "trackml.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	require.NoError(t, db.MigrateUp())
	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestMigrateDown(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	require.NoError(t, db.MigrateDown())
	version, _, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Zero(t, version)

	_, err = db.Exec(`SELECT 1 FROM runs`)
	assert.Error(t, err, "runs table should be gone")
}

func TestPragmasApplied(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)

	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestRunRoundTrip(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	created := time.Unix(1700000000, 123)
	run := &Run{Kind: KindReconstruct, CreatedAt: created, ClaimMode: "shared", DetectorRadii: []float64{1000, 2000}}
	require.NoError(t, db.InsertRun(run))
	assert.NotEqual(t, uuid.Nil, run.RunID)

	got, err := db.GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, KindReconstruct, got.Kind)
	assert.Equal(t, "shared", got.ClaimMode)
	assert.Equal(t, []float64{1000, 2000}, got.DetectorRadii)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Nil(t, got.Score)

	require.NoError(t, db.UpdateRunScore(run.RunID, 87.5))
	got, err = db.GetRun(run.RunID)
	require.NoError(t, err)
	require.NotNil(t, got.Score)
	assert.Equal(t, 87.5, *got.Score)
}

func TestGetRunNotFound(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	_, err := db.GetRun(uuid.New())
	assert.True(t, errors.Is(err, ErrRunNotFound))

	err = db.UpdateRunScore(uuid.New(), 1)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	older := &Run{Kind: KindGenerate, CreatedAt: time.Unix(100, 0)}
	newer := &Run{Kind: KindReconstruct, CreatedAt: time.Unix(200, 0)}
	require.NoError(t, db.InsertRun(older))
	require.NoError(t, db.InsertRun(newer))

	runs, err := db.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.RunID, runs[0].RunID)
	assert.Equal(t, older.RunID, runs[1].RunID)
	assert.Empty(t, runs[1].DetectorRadii)
}

func TestHitsRoundTrip(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	run := &Run{Kind: KindGenerate}
	require.NoError(t, db.InsertRun(run))

	labeled := &particle.Hit{ID: 7, ParticleID: 3, Layer: 1, Local: geometry.Point{X: 1000, Y: 0}}
	unlabeled := particle.NewUnlabeledHit(2, geometry.Point{X: -1.5, Y: 1999.25})
	unlabeled.Layer = 2
	require.NoError(t, db.InsertHits(run.RunID, []*particle.Hit{labeled, unlabeled}))

	hits, err := db.ListHits(run.RunID)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, int64(2), hits[0].ID)
	assert.False(t, hits[0].Labeled())
	assert.Equal(t, 2, hits[0].Layer)
	assert.Equal(t, geometry.Point{X: -1.5, Y: 1999.25}, hits[0].Local)

	assert.Equal(t, int64(7), hits[1].ID)
	assert.Equal(t, int64(3), hits[1].ParticleID)

	// Duplicate ids roll back the whole batch.
	err = db.InsertHits(run.RunID, []*particle.Hit{{ID: 99, ParticleID: 1}, labeled})
	require.Error(t, err)
	hits, err = db.ListHits(run.RunID)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestHitsRequireRun(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	err := db.InsertHits(uuid.New(), []*particle.Hit{{ID: 1}})
	assert.Error(t, err, "foreign key should reject hits for an unknown run")
}

func TestTracksRoundTrip(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	run := &Run{Kind: KindReconstruct}
	require.NoError(t, db.InsertRun(run))

	tracks := []hitio.Solution{
		{ParticleID: 9, HitIDs: []int64{30, 10, 20}},
		{ParticleID: 4, HitIDs: []int64{5}},
		{ParticleID: 9, HitIDs: []int64{40}},
	}
	require.NoError(t, db.InsertTracks(run.RunID, tracks))

	got, err := db.ListTracks(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, tracks, got)

	empty, err := db.ListTracks(uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestIsSQLiteBusy(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "database is locked", err: errors.New("database is locked (5) (SQLITE_BUSY)"), expected: true},
		{name: "SQLITE_BUSY", err: errors.New("SQLITE_BUSY"), expected: true},
		{name: "other error", err: errors.New("some other error"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isSQLiteBusy(tt.err))
		})
	}
}

func TestRetryOnBusy(t *testing.T) {
	t.Run("success after retry", func(t *testing.T) {
		calls := 0
		err := retryOnBusy(func() error {
			calls++
			if calls < 3 {
				return errors.New("database is locked (5) (SQLITE_BUSY)")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("non-busy error fails immediately", func(t *testing.T) {
		calls := 0
		testErr := errors.New("some other error")
		err := retryOnBusy(func() error {
			calls++
			return testErr
		})
		assert.Equal(t, testErr, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("max retries exceeded", func(t *testing.T) {
		calls := 0
		err := retryOnBusy(func() error {
			calls++
			return errors.New("SQLITE_BUSY")
		})
		assert.Error(t, err)
		assert.Equal(t, maxBusyRetries, calls)
	})
}
