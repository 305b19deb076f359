package app

import (
	"context"
	"fmt"

	"guildscore/domain/normalization"
	"guildscore/internal"
	"guildscore/internal/normalize"
	"guildscore/ports"
)

// CalibrationService runs the offline calibration and persists the resulting profile set
type CalibrationService struct {
	engine *Engine
	repo   ports.ProfileRepository
	rng    ports.RNGPort
}

// CalibrationRequest defines the inputs for one deterministic calibration run
type CalibrationRequest struct {
	// Pool defaults to every leaf of the tree
	Pool   []string
	Strata map[string][]string

	Samples                int
	Workers                int
	Seed                   int64
	MinGuildSize           int
	MaxGuildSize           int
	ZeroInflationThreshold float64
	MinDefined             int
}

// CalibrationResult contains the stored set and the run report
type CalibrationResult struct {
	ProfileSet *normalization.ProfileSet `json:"profile_set"`
	Report     *normalize.Report         `json:"report"`
}

// NewCalibrationService creates a calibration service. repo may be nil for a dry run.
func NewCalibrationService(engine *Engine, repo ports.ProfileRepository, rng ports.RNGPort) *CalibrationService {
	return &CalibrationService{engine: engine, repo: repo, rng: rng}
}

// Calibrate samples reference guilds, builds profiles for every scored metric and saves them.
func (s *CalibrationService) Calibrate(ctx context.Context, req CalibrationRequest) (*CalibrationResult, error) {
	pool := req.Pool
	if len(pool) == 0 && len(req.Strata) == 0 {
		pool = s.engine.Tree().LeafLabels()
	}

	calibrator := &normalize.Calibrator{
		Sampler: &normalize.GuildSampler{
			Pool:    pool,
			Strata:  req.Strata,
			MinSize: req.MinGuildSize,
			MaxSize: req.MaxGuildSize,
		},
		Evaluator:              s.engine,
		RNG:                    s.rng,
		Formulas:               FormulaVersions(),
		Samples:                req.Samples,
		Workers:                req.Workers,
		Seed:                   req.Seed,
		ZeroInflationThreshold: req.ZeroInflationThreshold,
		MinDefined:             req.MinDefined,
	}

	set, report, err := calibrator.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("calibration failed: %w", err)
	}

	// a set that cannot serve scoring is not worth storing
	if _, err := normalize.NewNormalizer(set, FormulaVersions()); err != nil {
		return nil, fmt.Errorf("calibration produced an incomplete profile set: %w", err)
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, set); err != nil {
			return nil, fmt.Errorf("failed to store profile set: %w", err)
		}
		internal.DefaultLogger.Info("[CalibrationService] Stored profile set %s (hash %s, %d profiles)",
			set.ID, set.Hash.Short(), len(set.Profiles))
	}
	return &CalibrationResult{ProfileSet: set, Report: report}, nil
}
