package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/trackml/internal/config"
	"github.com/banshee-data/trackml/internal/hitio"
	"github.com/banshee-data/trackml/internal/particle"
	"github.com/banshee-data/trackml/internal/session"
	"github.com/banshee-data/trackml/internal/store"
)

const (
	datasetName   = "dataset_trackml"
	hitsFile      = "hits.csv"
	truthFile     = "tracks.csv"
	solutionsFile = "tracks_soln.csv"
)

type genOptions struct {
	OutputDir         string
	NumEvents         int
	ParticlesPerEvent int
	DBPath            string
}

type genResult struct {
	Dir       string
	RunID     uuid.UUID
	Particles int
	Hits      int
}

// generate simulates every event into one session and writes the dataset.
func generate(ctx context.Context, cfg *config.TuningConfig, o genOptions) (*genResult, error) {
	if o.NumEvents < 1 || o.ParticlesPerEvent < 1 {
		return nil, fmt.Errorf("need at least one event and one particle, got %d events of %d", o.NumEvents, o.ParticlesPerEvent)
	}

	s, err := session.NewFromTuning(cfg)
	if err != nil {
		return nil, err
	}
	for ev := 1; ev <= o.NumEvents; ev++ {
		s.CreateParticles(o.ParticlesPerEvent)
		if err := s.ComputeAllHits(ctx, false); err != nil {
			return nil, fmt.Errorf("event %d: %w", ev, err)
		}
	}

	hits := s.MaskLabels(cfg.GetLabelSeedLayer())
	shuffleRand(cfg).Shuffle(len(hits), func(i, j int) { hits[i], hits[j] = hits[j], hits[i] })

	dir, err := datasetDir(o.OutputDir)
	if err != nil {
		return nil, err
	}
	truths := s.Truths()
	solutions := s.Solutions()
	if err := writeFile(filepath.Join(dir, hitsFile), func(w io.Writer) error { return hitio.WriteHits(w, hits) }); err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(dir, truthFile), func(w io.Writer) error { return hitio.WriteTruths(w, truths) }); err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(dir, solutionsFile), func(w io.Writer) error { return hitio.WriteSolutions(w, solutions) }); err != nil {
		return nil, err
	}

	if o.DBPath != "" {
		if err := recordRun(o.DBPath, s, cfg, hits, solutions); err != nil {
			return nil, err
		}
	}

	return &genResult{Dir: dir, RunID: s.RunID, Particles: len(truths), Hits: len(hits)}, nil
}

func recordRun(path string, s *session.Session, cfg *config.TuningConfig, hits []*particle.Hit, solutions []hitio.Solution) error {
	db, err := store.OpenMigrated(path)
	if err != nil {
		return err
	}
	defer db.Close()

	run := &store.Run{
		RunID:         s.RunID,
		Kind:          store.KindGenerate,
		CreatedAt:     s.CreatedAt,
		ClaimMode:     cfg.GetClaimMode(),
		DetectorRadii: cfg.GetDetectorRadii(),
	}
	if err := db.InsertRun(run); err != nil {
		return err
	}
	if err := db.InsertHits(run.RunID, hits); err != nil {
		return err
	}
	return db.InsertTracks(run.RunID, solutions)
}

// shuffleRand returns the generator used to shuffle hit lines. A seeded
// config shuffles reproducibly.
func shuffleRand(cfg *config.TuningConfig) *rand.Rand {
	if seed, ok := cfg.GetSeed(); ok {
		return rand.New(rand.NewSource(seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// datasetDir creates and returns the first free directory among
// dataset_trackml, dataset_trackml_1, dataset_trackml_2, ...
func datasetDir(base string) (string, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	for i := 0; ; i++ {
		name := datasetName
		if i > 0 {
			name = datasetName + "_" + strconv.Itoa(i)
		}
		dir := filepath.Join(base, name)
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("create dataset dir: %w", err)
		}
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
