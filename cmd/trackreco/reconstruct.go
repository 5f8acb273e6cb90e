package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/banshee-data/trackml/internal/config"
	"github.com/banshee-data/trackml/internal/hitio"
	"github.com/banshee-data/trackml/internal/render"
	"github.com/banshee-data/trackml/internal/scoring"
	"github.com/banshee-data/trackml/internal/session"
	"github.com/banshee-data/trackml/internal/store"
)

type recoOptions struct {
	HitsPath     string
	SolutionPath string
	DBPath       string
	PlotPath     string
	HTMLPath     string
	// Tracks receives the reconstructed solutions; nil discards them.
	Tracks io.Writer
}

type recoResult struct {
	RunID      uuid.UUID
	Hits       int
	Tracks     []hitio.Solution
	Unresolved int
	Unassigned int
	Reclaimed  int
	Report     *scoring.Report
}

// reconstructFile runs layer resolution and reconstruction over the hits
// in o.HitsPath and handles every optional output.
func reconstructFile(cfg *config.TuningConfig, o recoOptions) (*recoResult, error) {
	s, err := session.NewFromTuning(cfg)
	if err != nil {
		return nil, err
	}

	hits, err := hitio.ReadHitFiles(o.HitsPath)
	if err != nil {
		return nil, err
	}
	s.AddHit(hits...)
	s.ResolveLayers(cfg.GetLayerTolerance())

	r := s.Reconstruct()
	out := &recoResult{
		RunID:      s.RunID,
		Hits:       len(hits),
		Unresolved: r.Unresolved,
		Unassigned: r.Unassigned,
		Reclaimed:  r.Reclaimed,
	}
	for _, t := range r.Tracks {
		out.Tracks = append(out.Tracks, hitio.Solution{ParticleID: t.ParticleID, HitIDs: t.HitIDs()})
	}

	if o.Tracks != nil {
		if err := hitio.WriteSolutions(o.Tracks, out.Tracks); err != nil {
			return nil, err
		}
	}

	if o.SolutionPath != "" {
		truth, err := readSolutions(o.SolutionPath)
		if err != nil {
			return nil, err
		}
		rep := scoring.Score(truth, out.Tracks, len(hits))
		out.Report = &rep
	}

	if o.PlotPath != "" {
		if err := render.PlotPNG(s, o.PlotPath, render.PlotOptions{Title: "trackml reconstruction", Tracks: true}); err != nil {
			return nil, err
		}
	}
	if o.HTMLPath != "" {
		if err := writeHTML(s, o.HTMLPath); err != nil {
			return nil, err
		}
	}

	if o.DBPath != "" {
		if err := recordRun(o.DBPath, s, cfg, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readSolutions(path string) ([]hitio.Solution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open solution file: %w", err)
	}
	defer f.Close()
	return hitio.ReadSolutions(f, path)
}

func writeHTML(v session.View, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create html display: %w", err)
	}
	if err := render.ScatterHTML(v, f, "trackml reconstruction"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func recordRun(path string, s *session.Session, cfg *config.TuningConfig, res *recoResult) error {
	db, err := store.OpenMigrated(path)
	if err != nil {
		return err
	}
	defer db.Close()

	run := &store.Run{
		RunID:         s.RunID,
		Kind:          store.KindReconstruct,
		CreatedAt:     s.CreatedAt,
		ClaimMode:     cfg.GetClaimMode(),
		DetectorRadii: cfg.GetDetectorRadii(),
	}
	if err := db.InsertRun(run); err != nil {
		return err
	}
	if err := db.InsertHits(run.RunID, s.HitPool()); err != nil {
		return err
	}
	if err := db.InsertTracks(run.RunID, res.Tracks); err != nil {
		return err
	}
	if res.Report != nil {
		return db.UpdateRunScore(run.RunID, res.Report.Percent)
	}
	return nil
}
