package normalize

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"strconv"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"guildscore/domain/core"
	"guildscore/domain/normalization"
	"guildscore/internal"
	"guildscore/internal/metrics"
	"guildscore/ports"
)

// RawValues holds the raw metrics of one guild. A metric that is undefined for the guild
// (no data, fewer than two resolved leaves) is absent.
type RawValues map[normalization.MetricName]float64

// Evaluator computes raw metrics with the same formulas the scoring path uses.
type Evaluator interface {
	RawMetrics(ctx context.Context, species []string) (RawValues, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(ctx context.Context, species []string) (RawValues, error)

func (f EvaluatorFunc) RawMetrics(ctx context.Context, species []string) (RawValues, error) {
	return f(ctx, species)
}

// GuildSampler draws random guilds from a species pool, optionally split into strata.
type GuildSampler struct {
	Pool    []string
	Strata  map[string][]string
	MinSize int
	MaxSize int
}

// StratumNames returns the strata in a stable order. Without strata the pool is the single
// global stratum.
func (s *GuildSampler) StratumNames() []string {
	if len(s.Strata) == 0 {
		return []string{normalization.GlobalStratum}
	}
	names := make([]string, 0, len(s.Strata))
	for name := range s.Strata {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *GuildSampler) pool(stratum string) []string {
	if len(s.Strata) == 0 {
		return s.Pool
	}
	return s.Strata[stratum]
}

// Validate checks sizes and that every pool can supply a guild of MinSize.
func (s *GuildSampler) Validate() error {
	if s.MinSize < 2 || s.MaxSize < s.MinSize {
		return fmt.Errorf("invalid guild size range [%d,%d]", s.MinSize, s.MaxSize)
	}
	for _, name := range s.StratumNames() {
		if n := len(s.pool(name)); n < s.MinSize {
			return fmt.Errorf("%w: stratum %q has %d species, need at least %d", core.ErrEmptyPool, name, n, s.MinSize)
		}
	}
	return nil
}

// Draw samples a guild without replacement. Its size is uniform in [MinSize, MaxSize],
// capped at the pool size.
func (s *GuildSampler) Draw(rng *rand.Rand, stratum string) []string {
	pool := s.pool(stratum)
	size := s.MinSize + rng.Intn(s.MaxSize-s.MinSize+1)
	if size > len(pool) {
		size = len(pool)
	}

	if size*2 > len(pool) {
		out := make([]string, 0, size)
		for _, i := range rng.Perm(len(pool))[:size] {
			out = append(out, pool[i])
		}
		return out
	}

	picked := make(map[int]struct{}, size)
	out := make([]string, 0, size)
	for len(out) < size {
		i := rng.Intn(len(pool))
		if _, dup := picked[i]; dup {
			continue
		}
		picked[i] = struct{}{}
		out = append(out, pool[i])
	}
	return out
}

// Calibrator builds a ProfileSet from a reference sample of random guilds.
type Calibrator struct {
	Sampler   *GuildSampler
	Evaluator Evaluator
	RNG       ports.RNGPort

	// Formulas names the metrics to calibrate and their current formula versions
	Formulas map[normalization.MetricName]string

	Samples                int // per stratum
	Workers                int
	Seed                   int64
	ZeroInflationThreshold float64
	MinDefined             int // fewer defined values than this leaves a metric uncalibrated
}

// Summary describes one calibrated distribution.
type Summary struct {
	Metric       normalization.MetricName `json:"metric"`
	Stratum      string                   `json:"stratum"`
	Defined      int                      `json:"defined"`
	Undefined    int                      `json:"undefined"`
	ZeroShare    float64                  `json:"zero_share"`
	ZeroInflated bool                     `json:"zero_inflated"`
	Mean         float64                  `json:"mean"`
	StdDev       float64                  `json:"std_dev"`
	Median       float64                  `json:"median"`
	Max          float64                  `json:"max"`
}

// Report accompanies a calibration run.
type Report struct {
	RunID     core.CalibrationRun `json:"run_id"`
	Samples   int                 `json:"samples"`
	Duration  time.Duration       `json:"duration"`
	Summaries []Summary           `json:"summaries"`
	Skipped   []string            `json:"skipped,omitempty"`
}

func (c *Calibrator) validate() error {
	if c.Sampler == nil || c.Evaluator == nil || c.RNG == nil {
		return fmt.Errorf("calibrator needs a sampler, an evaluator and an RNG")
	}
	if c.Samples <= 0 {
		return fmt.Errorf("sample count must be positive, got %d", c.Samples)
	}
	if len(c.Formulas) == 0 {
		return fmt.Errorf("no metrics to calibrate")
	}
	if c.ZeroInflationThreshold <= 0 || c.ZeroInflationThreshold > 1 {
		return fmt.Errorf("zero-inflation threshold %v outside (0,1]", c.ZeroInflationThreshold)
	}
	return c.Sampler.Validate()
}

// Run draws Samples guilds per stratum, evaluates them in parallel and derives one profile per
// metric and stratum, plus global profiles over all strata when the pool is stratified.
// Sample i of a stratum always uses the same random stream, so the result depends only on the
// seed and the inputs, never on Workers.
func (c *Calibrator) Run(ctx context.Context) (*normalization.ProfileSet, *Report, error) {
	if err := c.validate(); err != nil {
		return nil, nil, err
	}
	start := time.Now()
	runID := core.NewCalibrationRun()

	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	minDefined := c.MinDefined
	if minDefined <= 0 {
		minDefined = 1
	}

	strata := c.Sampler.StratumNames()
	total := c.Samples * len(strata)
	values := make([]RawValues, total)

	internal.DefaultLogger.Info("[Calibrator] Run %s: %d samples over %d strata with %d workers (seed %d)",
		runID, total, len(strata), workers, c.Seed)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < total; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		stratum := strata[i%len(strata)]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng, err := c.RNG.Stream(gctx, "calibration", stratum, strconv.Itoa(i/len(strata)), c.Seed)
			if err != nil {
				return err
			}
			guild := c.Sampler.Draw(rng, stratum)
			raw, err := c.Evaluator.RawMetrics(gctx, guild)
			if err != nil {
				return fmt.Errorf("sample %d: %w", i, err)
			}
			values[i] = raw
			metrics.CalibrationSamples.WithLabelValues(stratum).Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	report := &Report{RunID: runID, Samples: total}
	var profiles []normalization.NormalizationProfile

	calibrate := func(stratum string, pick func(i int) bool) {
		for _, metric := range normalization.AllMetrics() {
			version, ok := c.Formulas[metric]
			if !ok {
				continue
			}
			var sample []float64
			undefined := 0
			for i, raw := range values {
				if !pick(i) {
					continue
				}
				if v, defined := raw[metric]; defined {
					sample = append(sample, v)
				} else {
					undefined++
				}
			}
			if len(sample) < minDefined {
				report.Skipped = append(report.Skipped, fmt.Sprintf("%s/%s: %d defined values", metric, stratum, len(sample)))
				internal.DefaultLogger.Warn("[Calibrator] %s stratum %q has only %d defined values, leaving it uncalibrated", metric, stratum, len(sample))
				continue
			}
			p := BuildProfile(metric, stratum, sample, c.ZeroInflationThreshold)
			p.FormulaVersion = version
			profiles = append(profiles, p)
			report.Summaries = append(report.Summaries, summarize(p, sample, undefined))
		}
	}

	if len(strata) == 1 && strata[0] == normalization.GlobalStratum {
		calibrate(normalization.GlobalStratum, func(int) bool { return true })
	} else {
		for s, name := range strata {
			s := s
			calibrate(name, func(i int) bool { return i%len(strata) == s })
		}
		calibrate(normalization.GlobalStratum, func(int) bool { return true })
	}

	set, err := normalization.NewProfileSet(core.NewProfileSetID(), core.Now().Time(), c.Seed, c.Samples, profiles)
	if err != nil {
		return nil, nil, err
	}
	report.Duration = time.Since(start)
	internal.DefaultLogger.Info("[Calibrator] Run %s finished in %.2fs: %d profiles, %d skipped",
		runID, report.Duration.Seconds(), len(set.Profiles), len(report.Skipped))
	return set, report, nil
}

// BuildProfile computes p5..p95 from a raw sample. When the share of zeros reaches
// zeroThreshold the breakpoints describe the non-zero values only and PZero records the share.
func BuildProfile(metric normalization.MetricName, stratum string, sample []float64, zeroThreshold float64) normalization.NormalizationProfile {
	sorted := append([]float64(nil), sample...)
	sort.Float64s(sorted)

	p := normalization.NormalizationProfile{
		Metric:     metric,
		Stratum:    stratum,
		SampleSize: len(sorted),
	}
	if len(sorted) == 0 {
		return p
	}

	zeros := sort.SearchFloat64s(sorted, 0)
	for zeros < len(sorted) && sorted[zeros] <= 0 {
		zeros++
	}
	share := float64(zeros) / float64(len(sorted))

	if zeros > 0 && share >= zeroThreshold {
		p.ZeroInflated = true
		p.PZero = share
		sorted = sorted[zeros:]
		if len(sorted) == 0 {
			return p
		}
	}

	p.P5 = stat.Quantile(0.05, stat.LinInterp, sorted, nil)
	p.P25 = stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	p.P50 = stat.Quantile(0.50, stat.LinInterp, sorted, nil)
	p.P75 = stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	p.P95 = stat.Quantile(0.95, stat.LinInterp, sorted, nil)
	return p
}

func summarize(p normalization.NormalizationProfile, sample []float64, undefined int) Summary {
	s := Summary{
		Metric:       p.Metric,
		Stratum:      p.Stratum,
		Defined:      len(sample),
		Undefined:    undefined,
		ZeroInflated: p.ZeroInflated,
	}
	zeros := 0
	for _, v := range sample {
		if v <= 0 {
			zeros++
		}
	}
	if len(sample) > 0 {
		s.ZeroShare = float64(zeros) / float64(len(sample))
	}
	data := stats.Float64Data(sample)
	s.Mean, _ = stats.Mean(data)
	s.StdDev, _ = stats.StandardDeviation(data)
	s.Median, _ = stats.Median(data)
	s.Max, _ = stats.Max(data)
	return s
}
