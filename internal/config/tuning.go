// Package config loads the JSON tuning file shared by the trackml commands.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/trackml.defaults.json"

// TuningConfig is the root configuration for generation and reconstruction.
// Every field is optional; the Get* methods supply the default for an
// omitted field, so partial files are safe.
type TuningConfig struct {
	// Detector layout
	DetectorRadii  []float64 `json:"detector_radii,omitempty"`
	LayerTolerance *float64  `json:"layer_tolerance,omitempty"`

	// Reconstruction
	ClaimMode      *string `json:"claim_mode,omitempty"` // "strict" or "shared"
	LabelSeedLayer *int    `json:"label_seed_layer,omitempty"`

	// Particle generation
	MomentumMin       *float64 `json:"momentum_min,omitempty"`
	MomentumMax       *float64 `json:"momentum_max,omitempty"`
	ThetaMin          *float64 `json:"theta_min,omitempty"`
	ThetaMax          *float64 `json:"theta_max,omitempty"`
	PhiMin            *float64 `json:"phi_min,omitempty"`
	PhiMax            *float64 `json:"phi_max,omitempty"`
	VertexSpread      *float64 `json:"vertex_spread,omitempty"`
	GenerationWorkers *int     `json:"generation_workers,omitempty"`
	Seed              *int64   `json:"seed,omitempty"`
	ShuffleIDs        *bool    `json:"shuffle_ids,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every default written out.
// Seed stays nil: an unseeded run draws from the global source.
func DefaultTuningConfig() *TuningConfig {
	empty := EmptyTuningConfig()
	return &TuningConfig{
		DetectorRadii:     empty.GetDetectorRadii(),
		LayerTolerance:    ptrFloat64(empty.GetLayerTolerance()),
		ClaimMode:         ptrString(empty.GetClaimMode()),
		LabelSeedLayer:    ptrInt(empty.GetLabelSeedLayer()),
		MomentumMin:       ptrFloat64(empty.GetMomentumMin()),
		MomentumMax:       ptrFloat64(empty.GetMomentumMax()),
		ThetaMin:          ptrFloat64(empty.GetThetaMin()),
		ThetaMax:          ptrFloat64(empty.GetThetaMax()),
		PhiMin:            ptrFloat64(empty.GetPhiMin()),
		PhiMax:            ptrFloat64(empty.GetPhiMax()),
		VertexSpread:      ptrFloat64(empty.GetVertexSpread()),
		GenerationWorkers: ptrInt(empty.GetGenerationWorkers()),
		ShuffleIDs:        ptrBool(empty.GetShuffleIDs()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching upwards from the
// current directory. Panics if the file cannot be loaded; intended for tests.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable.
func (c *TuningConfig) Validate() error {
	for i, r := range c.DetectorRadii {
		if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			return fmt.Errorf("detector_radii[%d] must be positive and finite, got %v", i, r)
		}
	}

	if c.LayerTolerance != nil && *c.LayerTolerance <= 0 {
		return fmt.Errorf("layer_tolerance must be positive, got %f", *c.LayerTolerance)
	}

	if c.ClaimMode != nil {
		switch strings.ToLower(*c.ClaimMode) {
		case "", "strict", "shared":
		default:
			return fmt.Errorf("claim_mode must be \"strict\" or \"shared\", got %q", *c.ClaimMode)
		}
	}

	if c.LabelSeedLayer != nil && *c.LabelSeedLayer < 1 {
		return fmt.Errorf("label_seed_layer must be at least 1, got %d", *c.LabelSeedLayer)
	}

	if c.GetMomentumMin() <= 0 {
		return fmt.Errorf("momentum_min must be positive, got %f", c.GetMomentumMin())
	}
	if c.GetMomentumMax() < c.GetMomentumMin() {
		return fmt.Errorf("momentum_max (%f) must not be below momentum_min (%f)", c.GetMomentumMax(), c.GetMomentumMin())
	}
	if c.GetThetaMax() < c.GetThetaMin() {
		return fmt.Errorf("theta_max (%f) must not be below theta_min (%f)", c.GetThetaMax(), c.GetThetaMin())
	}
	if c.GetPhiMax() < c.GetPhiMin() {
		return fmt.Errorf("phi_max (%f) must not be below phi_min (%f)", c.GetPhiMax(), c.GetPhiMin())
	}

	if c.VertexSpread != nil && *c.VertexSpread < 0 {
		return fmt.Errorf("vertex_spread must be non-negative, got %f", *c.VertexSpread)
	}
	if c.GenerationWorkers != nil && *c.GenerationWorkers < 0 {
		return fmt.Errorf("generation_workers must be non-negative, got %d", *c.GenerationWorkers)
	}

	return nil
}

// GetDetectorRadii returns a copy of detector_radii, or 1000..8000 in steps
// of 1000.
func (c *TuningConfig) GetDetectorRadii() []float64 {
	if len(c.DetectorRadii) == 0 {
		return []float64{1000, 2000, 3000, 4000, 5000, 6000, 7000, 8000}
	}
	return append([]float64(nil), c.DetectorRadii...)
}

// GetLayerTolerance returns the layer_tolerance value or the default.
func (c *TuningConfig) GetLayerTolerance() float64 {
	if c.LayerTolerance == nil {
		return 1.0
	}
	return *c.LayerTolerance
}

// GetClaimMode returns the claim_mode value or the default.
func (c *TuningConfig) GetClaimMode() string {
	if c.ClaimMode == nil || *c.ClaimMode == "" {
		return "strict"
	}
	return *c.ClaimMode
}

// GetLabelSeedLayer returns the label_seed_layer value or the default.
func (c *TuningConfig) GetLabelSeedLayer() int {
	if c.LabelSeedLayer == nil {
		return 1
	}
	return *c.LabelSeedLayer
}

// GetMomentumMin returns the momentum_min value or the default.
func (c *TuningConfig) GetMomentumMin() float64 {
	if c.MomentumMin == nil {
		return 4000
	}
	return *c.MomentumMin
}

// GetMomentumMax returns the momentum_max value or the default.
func (c *TuningConfig) GetMomentumMax() float64 {
	if c.MomentumMax == nil {
		return 15000
	}
	return *c.MomentumMax
}

// GetThetaMin returns the theta_min value or the default.
func (c *TuningConfig) GetThetaMin() float64 {
	if c.ThetaMin == nil {
		return 0
	}
	return *c.ThetaMin
}

// GetThetaMax returns the theta_max value or the default.
func (c *TuningConfig) GetThetaMax() float64 {
	if c.ThetaMax == nil {
		return 4
	}
	return *c.ThetaMax
}

// GetPhiMin returns the phi_min value or the default.
func (c *TuningConfig) GetPhiMin() float64 {
	if c.PhiMin == nil {
		return -4
	}
	return *c.PhiMin
}

// GetPhiMax returns the phi_max value or the default.
func (c *TuningConfig) GetPhiMax() float64 {
	if c.PhiMax == nil {
		return 4
	}
	return *c.PhiMax
}

// GetVertexSpread returns the vertex_spread value or the default.
func (c *TuningConfig) GetVertexSpread() float64 {
	if c.VertexSpread == nil {
		return 0.03
	}
	return *c.VertexSpread
}

// GetGenerationWorkers returns the generation_workers value or the default.
// Zero means unbounded.
func (c *TuningConfig) GetGenerationWorkers() int {
	if c.GenerationWorkers == nil {
		return 0
	}
	return *c.GenerationWorkers
}

// GetSeed returns the seed and whether one was set.
func (c *TuningConfig) GetSeed() (int64, bool) {
	if c.Seed == nil {
		return 0, false
	}
	return *c.Seed, true
}

// GetShuffleIDs returns the shuffle_ids value or the default.
func (c *TuningConfig) GetShuffleIDs() bool {
	if c.ShuffleIDs == nil {
		return true
	}
	return *c.ShuffleIDs
}

// ParseRadii parses a comma-separated list of detector radii, as given on
// the command line. Empty entries are skipped.
func ParseRadii(s string) ([]float64, error) {
	var radii []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("radius %q: %w", part, err)
		}
		radii = append(radii, r)
	}
	if len(radii) == 0 {
		return nil, fmt.Errorf("no radii in %q", s)
	}
	return radii, nil
}
