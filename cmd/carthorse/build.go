package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carthorse/carthorse/internal/bridge"
	"github.com/carthorse/carthorse/internal/classify"
	"github.com/carthorse/carthorse/internal/config"
	"github.com/carthorse/carthorse/internal/intersect"
	"github.com/carthorse/carthorse/internal/loopsplit"
	"github.com/carthorse/carthorse/internal/node"
	"github.com/carthorse/carthorse/internal/pipeline"
	"github.com/carthorse/carthorse/internal/prepare"
	"github.com/carthorse/carthorse/internal/route"
	"github.com/carthorse/carthorse/internal/split"
	"github.com/carthorse/carthorse/internal/store"
	"github.com/carthorse/carthorse/internal/store/memstore"
	"github.com/carthorse/carthorse/internal/store/postgres"
)

// fixpointIterations bounds the intersect/split/bridge rerun after
// bridging introduces new connector trails (spec.md §4.4).
const fixpointIterations = 2

var (
	configPath   string
	inputPath    string
	stageTimeout time.Duration
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run the full pipeline for one region and write route recommendations",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&configPath, "config", "carthorse.yaml", "path to the region's YAML config")
	buildCmd.Flags().StringVar(&inputPath, "input", "", "path to a GeoJSON FeatureCollection of raw trails")
	buildCmd.Flags().DurationVar(&stageTimeout, "stage-timeout", 5*time.Minute, "per-stage deadline")
}

func runBuild(cmd *cobra.Command, args []string) error {
	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ws, closeStore, err := openWorkspace(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var raw []prepare.RawTrail
	if inputPath != "" {
		raw, err = loadRawTrails(inputPath, cfg.RegionKey)
		if err != nil {
			return err
		}
	}

	pc := &pipeline.Context{Config: cfg, Workspace: ws, Log: log}
	runner := buildRunner(raw, cfg)

	reports, err := runner.Run(cmd.Context(), pc)
	if err != nil {
		return err
	}
	for _, r := range reports {
		log.Info("stage report",
			zap.String("stage", r.Stage),
			zap.Int("trails_in", r.TrailsIn),
			zap.Int("trails_out", r.TrailsOut),
			zap.Int("vertices_out", r.VerticesOut),
			zap.Int("edges_out", r.EdgesOut),
			zap.Int("routes_out", r.RoutesOut),
			zap.String("notes", r.Notes),
		)
	}
	return nil
}

// buildRunner wires the pipeline's fixed stage sequence: prepare, the
// loop-splitting helper, a bounded intersect/split/bridge fixpoint, the
// noder, the vertex classifier, and finally the route enumerator.
func buildRunner(raw []prepare.RawTrail, cfg config.Config) *pipeline.Runner {
	stages := []pipeline.Stage{
		prepare.New(raw),
		loopsplit.New(),
	}
	for i := 0; i < fixpointIterations; i++ {
		handoff := &intersect.Handoff{}
		stages = append(stages,
			intersect.New(handoff),
			split.New(handoff),
			bridge.New(handoff),
		)
	}
	stages = append(stages,
		node.New(),
		classify.New(nil),
		route.New(cfg.LoopKSPK, cfg.LoopMaxOverlapPct, cfg.MinSimilarityScore),
	)
	return pipeline.NewRunner(stageTimeout, stages...)
}

func openWorkspace(cfg config.Config, log *zap.Logger) (store.Workspace, func(), error) {
	if cfg.Store.DSN == "" {
		return memstore.New(cfg.RegionKey), func() {}, nil
	}
	pg, err := postgres.Open(cfg.Store.DSN, cfg.Store.WorkspaceSchema, cfg.RegionKey, log)
	if err != nil {
		return nil, nil, err
	}
	return pg, func() { _ = pg.Close() }, nil
}
