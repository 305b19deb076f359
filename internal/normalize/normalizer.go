// Package normalize maps raw metric values onto [0,1] using calibrated percentile profiles,
// and builds those profiles from a reference sample of random guilds.
package normalize

import (
	"math"

	"guildscore/domain/core"
	"guildscore/domain/normalization"
	"guildscore/domain/score"
	"guildscore/internal/metrics"
)

var (
	anchorScores = [5]float64{0, 0.2, 0.5, 0.8, 1.0}
	anchorRanks  = [5]float64{5, 25, 50, 75, 95}

	// non-zero subsample of a zero-inflated metric, with an extra anchor at raw 0
	nonZeroScores = [6]float64{0, 0.05, 0.2, 0.5, 0.8, 1.0}
)

// Normalize maps x through the profile's piecewise-linear curve. It is monotonic
// non-decreasing in x and always returns a value in [0,1]. NaN maps to 0.
func Normalize(x float64, p normalization.NormalizationProfile) float64 {
	if math.IsNaN(x) {
		return 0
	}
	if p.ZeroInflated {
		return normalizeZeroInflated(x, p)
	}
	bp := p.Breakpoints()
	return interpolate(x, bp[:], anchorScores[:])
}

func normalizeZeroInflated(x float64, p normalization.NormalizationProfile) float64 {
	if x <= 0 {
		return 0
	}
	if p.PZero >= 1 {
		// nothing but zeros in the reference sample; any evidence is off the chart
		return 1
	}
	bp := p.Breakpoints()
	xs := [6]float64{0, bp[0], bp[1], bp[2], bp[3], bp[4]}
	base := interpolate(x, xs[:], nonZeroScores[:])
	return (1 - p.PZero) + p.PZero*base
}

// interpolate finds the largest anchor not above x and interpolates towards the next one.
// Ties between anchors are skipped, so repeated breakpoints never divide by zero.
func interpolate(x float64, xs, ys []float64) float64 {
	n := len(xs)
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	i := 0
	for j := 1; j < n-1; j++ {
		if xs[j] <= x {
			i = j
		}
	}
	lo, hi := xs[i], xs[i+1]
	return ys[i] + (ys[i+1]-ys[i])*(x-lo)/(hi-lo)
}

// PercentileRank estimates the percentile of x in the reference sample. It is only defined
// inside [p5, p95]; outside that range, and for zeros of a zero-inflated metric, it is nil.
func PercentileRank(x float64, p normalization.NormalizationProfile) *float64 {
	if math.IsNaN(x) {
		return nil
	}
	bp := p.Breakpoints()
	if x < bp[0] || x > bp[4] {
		return nil
	}
	if p.ZeroInflated && x <= 0 {
		return nil
	}
	r := interpolate(x, bp[:], anchorRanks[:])
	if p.ZeroInflated {
		r = 100*p.PZero + (1-p.PZero)*r
	}
	return &r
}

// Normalizer resolves profiles from one profile set and checks them against the current
// raw-score formulas.
type Normalizer struct {
	set      *normalization.ProfileSet
	formulas map[normalization.MetricName]string
}

// NewNormalizer fails when any metric in formulas lacks a profile for some stratum of the set,
// or when a profile was calibrated against an older formula.
func NewNormalizer(set *normalization.ProfileSet, formulas map[normalization.MetricName]string) (*Normalizer, error) {
	if set == nil {
		for metric := range formulas {
			return nil, core.NewUncalibratedMetricError(string(metric), normalization.GlobalStratum)
		}
		return &Normalizer{formulas: formulas}, nil
	}

	strata := set.Strata()
	for _, metric := range normalization.AllMetrics() {
		want, ok := formulas[metric]
		if !ok {
			continue
		}
		for _, stratum := range strata {
			p, found := set.Lookup(metric, stratum)
			if !found {
				return nil, core.NewUncalibratedMetricError(string(metric), stratum)
			}
			if p.FormulaVersion != want {
				return nil, core.NewStaleProfileError(string(metric), p.FormulaVersion, want)
			}
		}
	}
	return &Normalizer{set: set, formulas: formulas}, nil
}

// ProfileSet returns the set in use.
func (n *Normalizer) ProfileSet() *normalization.ProfileSet { return n.set }

// Profile looks up the profile for metric in stratum, falling back to the global stratum.
func (n *Normalizer) Profile(metric normalization.MetricName, stratum string) (normalization.NormalizationProfile, error) {
	p, ok := n.set.Lookup(metric, stratum)
	if !ok {
		metrics.Uncalibrated.WithLabelValues(string(metric)).Inc()
		return p, core.NewUncalibratedMetricError(string(metric), stratum)
	}
	if want, known := n.formulas[metric]; known && p.FormulaVersion != want {
		metrics.Uncalibrated.WithLabelValues(string(metric)).Inc()
		return p, core.NewStaleProfileError(string(metric), p.FormulaVersion, want)
	}
	return p, nil
}

// Normalize maps a raw value for metric in stratum onto [0,1].
func (n *Normalizer) Normalize(metric normalization.MetricName, stratum string, x float64) (float64, error) {
	p, err := n.Profile(metric, stratum)
	if err != nil {
		return 0, err
	}
	return Normalize(x, p), nil
}

// Value normalizes raw and records the profile stratum that served it.
func (n *Normalizer) Value(metric normalization.MetricName, stratum string, raw float64) (score.MetricValue, error) {
	p, err := n.Profile(metric, stratum)
	if err != nil {
		return score.MetricValue{Metric: metric, Raw: raw}, err
	}
	return score.MetricValue{
		Metric:         metric,
		Raw:            raw,
		Normalized:     Normalize(raw, p),
		PercentileRank: PercentileRank(raw, p),
		Stratum:        p.Stratum,
	}, nil
}
