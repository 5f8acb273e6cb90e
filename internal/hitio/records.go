package hitio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/trackml/internal/geometry"
	"github.com/banshee-data/trackml/internal/particle"
)

// UnknownParticleToken is written in place of a particle id for unlabeled
// hits.
const UnknownParticleToken = "?"

var errFieldCount = errors.New("too few fields")

// Solution groups the hit ids attributed to one particle.
type Solution struct {
	ParticleID int64
	HitIDs     []int64
}

// Truth is the generator's record of a simulated particle.
type Truth struct {
	ParticleID int64
	Vertex     particle.Vec3
	Kinematics particle.Kinematics
	Charge     int
}

// TruthOf extracts the truth record of p.
func TruthOf(p *particle.Particle) Truth {
	return Truth{ParticleID: p.ID, Vertex: p.Vertex, Kinematics: p.Kinematics, Charge: p.Charge}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatParticleID(id int64) string {
	if id == particle.UnknownParticle {
		return UnknownParticleToken
	}
	return strconv.FormatInt(id, 10)
}

// WriteHits writes one "hitId,particleId,x,y" line per hit.
func WriteHits(w io.Writer, hits []*particle.Hit) error {
	bw := bufio.NewWriter(w)
	for _, h := range hits {
		if _, err := fmt.Fprintf(bw, "%d,%s,%s,%s\n",
			h.ID, formatParticleID(h.ParticleID), formatFloat(h.Local.X), formatFloat(h.Local.Y)); err != nil {
			return fmt.Errorf("write hit %d: %w", h.ID, err)
		}
	}
	return bw.Flush()
}

// ReadHits parses hit records from r. Fields beyond the fourth are ignored.
// Returned hits have an unresolved layer.
func ReadHits(r io.Reader, source string) ([]*particle.Hit, error) {
	var hits []*particle.Hit
	err := scanRecords(r, source, 4, func(line int, fields []string) error {
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return &FormatError{Source: source, Line: line, Field: "hit id", Value: fields[0], Err: err}
		}
		pid, err := parseParticleID(fields[1])
		if err != nil {
			return &FormatError{Source: source, Line: line, Field: "particle id", Value: fields[1], Err: err}
		}
		x, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return &FormatError{Source: source, Line: line, Field: "x", Value: fields[2], Err: err}
		}
		y, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return &FormatError{Source: source, Line: line, Field: "y", Value: fields[3], Err: err}
		}
		h := particle.NewUnlabeledHit(id, geometry.Point{X: x, Y: y})
		h.ParticleID = pid
		hits = append(hits, h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// ReadHitFiles reads every path in order and concatenates the hits. The
// first unreadable or malformed file aborts the load.
func ReadHitFiles(paths ...string) ([]*particle.Hit, error) {
	var all []*particle.Hit
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open hits file: %w", err)
		}
		hits, err := ReadHits(f, path)
		f.Close()
		if err != nil {
			return nil, err
		}
		all = append(all, hits...)
	}
	return all, nil
}

// WriteTruths writes "particleId,[vx, vy, vz],[p, theta, phi],charge" lines.
func WriteTruths(w io.Writer, truths []Truth) error {
	bw := bufio.NewWriter(w)
	for _, t := range truths {
		if _, err := fmt.Fprintf(bw, "%d,[%s, %s, %s],[%s, %s, %s],%d\n",
			t.ParticleID,
			formatFloat(t.Vertex.X), formatFloat(t.Vertex.Y), formatFloat(t.Vertex.Z),
			formatFloat(t.Kinematics.Momentum), formatFloat(t.Kinematics.Theta), formatFloat(t.Kinematics.Phi),
			t.Charge); err != nil {
			return fmt.Errorf("write truth %d: %w", t.ParticleID, err)
		}
	}
	return bw.Flush()
}

// ReadTruths parses truth records from r.
func ReadTruths(r io.Reader, source string) ([]Truth, error) {
	var truths []Truth
	names := []string{"particle id", "vertex x", "vertex y", "vertex z", "momentum", "theta", "phi", "charge"}
	err := scanRecords(r, source, len(names), func(line int, fields []string) error {
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return &FormatError{Source: source, Line: line, Field: names[0], Value: fields[0], Err: err}
		}
		var vals [6]float64
		for i := range vals {
			v, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return &FormatError{Source: source, Line: line, Field: names[i+1], Value: fields[i+1], Err: err}
			}
			vals[i] = v
		}
		charge, err := strconv.Atoi(fields[7])
		if err != nil {
			return &FormatError{Source: source, Line: line, Field: names[7], Value: fields[7], Err: err}
		}
		truths = append(truths, Truth{
			ParticleID: id,
			Vertex:     particle.Vec3{X: vals[0], Y: vals[1], Z: vals[2]},
			Kinematics: particle.Kinematics{Momentum: vals[3], Theta: vals[4], Phi: vals[5]},
			Charge:     charge,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return truths, nil
}

// WriteSolutions writes "particleId,[hitId, hitId, ...]" lines.
func WriteSolutions(w io.Writer, solutions []Solution) error {
	bw := bufio.NewWriter(w)
	for _, s := range solutions {
		ids := make([]string, len(s.HitIDs))
		for i, id := range s.HitIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		if _, err := fmt.Fprintf(bw, "%d,[%s]\n", s.ParticleID, strings.Join(ids, ", ")); err != nil {
			return fmt.Errorf("write solution %d: %w", s.ParticleID, err)
		}
	}
	return bw.Flush()
}

// ReadSolutions parses solution records from r. A particle with no hits is
// written as "id,[]" and read back with an empty hit list.
func ReadSolutions(r io.Reader, source string) ([]Solution, error) {
	var solutions []Solution
	err := scanRecords(r, source, 2, func(line int, fields []string) error {
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return &FormatError{Source: source, Line: line, Field: "particle id", Value: fields[0], Err: err}
		}
		s := Solution{ParticleID: id, HitIDs: []int64{}}
		rest := fields[1:]
		if len(rest) == 1 && rest[0] == "" {
			rest = nil
		}
		for _, f := range rest {
			hid, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return &FormatError{Source: source, Line: line, Field: "hit id", Value: f, Err: err}
			}
			s.HitIDs = append(s.HitIDs, hid)
		}
		solutions = append(solutions, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return solutions, nil
}

func parseParticleID(s string) (int64, error) {
	if s == "" || s == UnknownParticleToken {
		return particle.UnknownParticle, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// scanRecords normalises each non-blank line and hands its fields to fn.
func scanRecords(r io.Reader, source string, minFields int, fn func(line int, fields []string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}
		fields := strings.Split(normalise(raw), ",")
		if len(fields) < minFields {
			return &FormatError{Source: source, Line: line, Err: fmt.Errorf("%w: got %d, want at least %d", errFieldCount, len(fields), minFields)}
		}
		if err := fn(line, fields); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", source, err)
	}
	return nil
}

func normalise(line string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, line)
}
