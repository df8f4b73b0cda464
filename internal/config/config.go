// Package config loads the options Carthorse's core pipeline consults
// (spec.md §6, "Configuration Surface") from a single YAML file into a
// typed Config struct, with defaults matching the spec's documented
// defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BoundingBox is an additional spatial filter on top of RegionKey.
type BoundingBox struct {
	MinLng float64 `yaml:"min_lng"`
	MinLat float64 `yaml:"min_lat"`
	MaxLng float64 `yaml:"max_lng"`
	MaxLat float64 `yaml:"max_lat"`
}

// Pattern mirrors the route-matching target of spec.md §4.7.
type Pattern struct {
	Shape        string  `yaml:"shape"`
	TargetKM     float64 `yaml:"target_km"`
	TargetGainM  float64 `yaml:"target_gain_m"`
	TolerancePct float64 `yaml:"tolerance_pct"`
	MaxDepth     int     `yaml:"max_depth"`
}

// Store holds the spatial relational store's connection settings. This is
// an ambient addition (spec.md §6 "Persisted state layout") the core needs
// in order to actually address a concrete workspace.
type Store struct {
	DSN             string `yaml:"dsn"`
	WorkspaceSchema string `yaml:"workspace_schema"`
}

// Config is the full recognized configuration surface for a pipeline run.
type Config struct {
	RegionKey   string       `yaml:"region_key"`
	BoundingBox *BoundingBox `yaml:"bounding_box"`

	IntersectionToleranceMeters float64 `yaml:"intersection_tolerance_meters"`
	BridgingEnabled             bool    `yaml:"bridging_enabled"`
	BridgingToleranceMeters     float64 `yaml:"bridging_tolerance_meters"`
	MinSegmentLengthMeters      float64 `yaml:"min_segment_length_meters"`
	MinEdgeLengthMeters         float64 `yaml:"min_edge_length_meters"`
	SnapToleranceDegrees        float64 `yaml:"snap_tolerance_degrees"`
	SimplifyTolerance           float64 `yaml:"simplify_tolerance"`

	Patterns []Pattern `yaml:"patterns"`

	LoopKSPK          int     `yaml:"loop_ksp_k"`
	LoopMaxOverlapPct float64 `yaml:"loop_max_overlap_pct"`
	MinSimilarityScore float64 `yaml:"min_similarity_score"`

	Store Store `yaml:"store"`
}

// Default returns a Config populated with spec.md's documented defaults and
// no patterns (callers must configure at least one before running the
// Route Enumerator).
func Default() Config {
	return Config{
		IntersectionToleranceMeters: 2.0,
		BridgingEnabled:             true,
		BridgingToleranceMeters:     20.0,
		MinSegmentLengthMeters:      5.0,
		MinEdgeLengthMeters:         0.1,
		SnapToleranceDegrees:        1e-6,
		LoopKSPK:                   6,
		LoopMaxOverlapPct:          30.0,
		MinSimilarityScore:         0.3,
	}
}

// Load reads and parses a YAML config file, filling any zero-valued field
// left unset in the file with Default()'s value.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.RegionKey == "" {
		return Config{}, fmt.Errorf("config: region_key is required")
	}
	return cfg, nil
}
