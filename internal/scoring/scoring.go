// Package scoring compares a reconstruction against the generator's
// solution file.
package scoring

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/trackml/internal/hitio"
)

// TrackScore is the agreement for one truth particle.
type TrackScore struct {
	ParticleID int64
	Correct    int
	TruthHits  int
	Found      bool // a predicted track with the same particle id exists
}

// Accuracy returns Correct / TruthHits, or 0 for a particle with no hits.
func (s TrackScore) Accuracy() float64 {
	if s.TruthHits == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.TruthHits)
}

// Report summarises a scoring pass.
type Report struct {
	Correct   int
	TotalHits int
	// Percent is Correct / TotalHits × 100.
	Percent float64

	PerTrack []TrackScore
	// MeanAccuracy and StdDevAccuracy are taken over PerTrack accuracies of
	// particles that have at least one truth hit.
	MeanAccuracy   float64
	StdDevAccuracy float64
}

// Score counts, for each truth particle, how many of its hit ids appear in
// the predicted track carrying the same particle id. The overall percentage
// is relative to totalHits, the size of the hit pool that was
// reconstructed.
func Score(truth, predicted []hitio.Solution, totalHits int) Report {
	byID := make(map[int64]map[int64]struct{}, len(predicted))
	for _, p := range predicted {
		if _, dup := byID[p.ParticleID]; dup {
			continue // first track with an id wins
		}
		set := make(map[int64]struct{}, len(p.HitIDs))
		for _, id := range p.HitIDs {
			set[id] = struct{}{}
		}
		byID[p.ParticleID] = set
	}

	rep := Report{TotalHits: totalHits}
	var accuracies []float64
	for _, s := range truth {
		ts := TrackScore{ParticleID: s.ParticleID, TruthHits: len(s.HitIDs)}
		if set, ok := byID[s.ParticleID]; ok {
			ts.Found = true
			for _, id := range s.HitIDs {
				if _, hit := set[id]; hit {
					ts.Correct++
				}
			}
		}
		rep.Correct += ts.Correct
		rep.PerTrack = append(rep.PerTrack, ts)
		if ts.TruthHits > 0 {
			accuracies = append(accuracies, ts.Accuracy())
		}
	}

	if totalHits > 0 {
		rep.Percent = float64(rep.Correct) / float64(totalHits) * 100
	}
	switch len(accuracies) {
	case 0:
	case 1:
		rep.MeanAccuracy = accuracies[0]
	default:
		rep.MeanAccuracy, rep.StdDevAccuracy = stat.MeanStdDev(accuracies, nil)
	}
	return rep
}
