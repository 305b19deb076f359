package normalization

import (
	"fmt"
	"math"
	"sort"
	"time"

	"guildscore/domain/core"
)

// MetricName identifies one raw metric that needs calibration.
type MetricName string

const (
	MetricFaithPD            MetricName = "m1_faith_pd"
	MetricStrategyConflicts  MetricName = "m2_strategy_conflicts"
	MetricPestControl        MetricName = "m3_pest_control"
	MetricDiseaseSuppression MetricName = "m4_disease_suppression"
	MetricFungalNetwork      MetricName = "m5_fungal_network"
	MetricStructuralQuality  MetricName = "m6_structural_quality"
	MetricPollinatorNetwork  MetricName = "m7_pollinator_network"
)

// AllMetrics lists the scored metrics in component order.
func AllMetrics() []MetricName {
	return []MetricName{
		MetricFaithPD, MetricStrategyConflicts, MetricPestControl, MetricDiseaseSuppression,
		MetricFungalNetwork, MetricStructuralQuality, MetricPollinatorNetwork,
	}
}

// GlobalStratum is the fallback stratum used when no stratum-specific profile exists.
const GlobalStratum = ""

// NormalizationProfile holds the calibrated percentile breakpoints for one metric.
//
// For zero-inflated metrics the breakpoints describe the non-zero subsample only and PZero
// holds the share of exact zeros in the reference sample.
type NormalizationProfile struct {
	Metric         MetricName `json:"metric" db:"metric"`
	Stratum        string     `json:"stratum" db:"stratum"`
	P5             float64    `json:"p5" db:"p5"`
	P25            float64    `json:"p25" db:"p25"`
	P50            float64    `json:"p50" db:"p50"`
	P75            float64    `json:"p75" db:"p75"`
	P95            float64    `json:"p95" db:"p95"`
	ZeroInflated   bool       `json:"zero_inflated" db:"zero_inflated"`
	PZero          float64    `json:"p_zero" db:"p_zero"`
	SampleSize     int        `json:"sample_size" db:"sample_size"`
	FormulaVersion string     `json:"formula_version" db:"formula_version"`
}

// Breakpoints returns p5..p95 in ascending order.
func (p NormalizationProfile) Breakpoints() [5]float64 {
	return [5]float64{p.P5, p.P25, p.P50, p.P75, p.P95}
}

// Validate checks the ordering invariant p5 ≤ p25 ≤ p50 ≤ p75 ≤ p95 and the zero-inflation fields.
func (p NormalizationProfile) Validate() error {
	if p.Metric == "" {
		return core.NewInvalidProfileError("<unnamed>", "metric name is empty")
	}
	bp := p.Breakpoints()
	for i, v := range bp {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.NewInvalidProfileError(string(p.Metric), fmt.Sprintf("breakpoint %d is not finite", i))
		}
		if i > 0 && v < bp[i-1] {
			return core.NewInvalidProfileError(string(p.Metric), fmt.Sprintf("breakpoints out of order: %v", bp))
		}
	}
	if p.PZero < 0 || p.PZero > 1 || math.IsNaN(p.PZero) {
		return core.NewInvalidProfileError(string(p.Metric), fmt.Sprintf("p_zero %v outside [0,1]", p.PZero))
	}
	if p.ZeroInflated && p.PZero < 1 && p.P5 <= 0 {
		return core.NewInvalidProfileError(string(p.Metric), "zero-inflated profile needs a positive non-zero p5")
	}
	return nil
}

// ProfileKey addresses a profile inside a set.
type ProfileKey struct {
	Metric  MetricName
	Stratum string
}

// ProfileSet is a versioned, immutable collection of profiles produced by one calibration run.
type ProfileSet struct {
	ID         core.ProfileSetID      `json:"id"`
	CreatedAt  time.Time              `json:"created_at"`
	Seed       int64                  `json:"seed"`
	SampleSize int                    `json:"sample_size"`
	Hash       core.Hash              `json:"hash"`
	Profiles   []NormalizationProfile `json:"profiles"`

	index map[ProfileKey]int
}

// NewProfileSet validates and indexes the given profiles.
func NewProfileSet(id core.ProfileSetID, createdAt time.Time, seed int64, sampleSize int, profiles []NormalizationProfile) (*ProfileSet, error) {
	set := &ProfileSet{
		ID:         id,
		CreatedAt:  createdAt,
		Seed:       seed,
		SampleSize: sampleSize,
		Profiles:   append([]NormalizationProfile(nil), profiles...),
	}
	sort.Slice(set.Profiles, func(i, j int) bool {
		a, b := set.Profiles[i], set.Profiles[j]
		if a.Metric != b.Metric {
			return a.Metric < b.Metric
		}
		return a.Stratum < b.Stratum
	})

	set.index = make(map[ProfileKey]int, len(set.Profiles))
	formulas := make(map[string]string, len(set.Profiles))
	for i, p := range set.Profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		key := ProfileKey{Metric: p.Metric, Stratum: p.Stratum}
		if _, dup := set.index[key]; dup {
			return nil, core.NewInvalidProfileError(string(p.Metric), fmt.Sprintf("duplicate profile for stratum %q", p.Stratum))
		}
		set.index[key] = i
		formulas[string(p.Metric)+"/"+p.Stratum] = p.FormulaVersion
	}
	set.Hash = core.ComputeProfileSetHash(seed, sampleSize, formulas)
	return set, nil
}

// Lookup returns the stratum-specific profile, falling back to the global stratum.
func (s *ProfileSet) Lookup(metric MetricName, stratum string) (NormalizationProfile, bool) {
	if s == nil {
		return NormalizationProfile{}, false
	}
	if i, ok := s.index[ProfileKey{Metric: metric, Stratum: stratum}]; ok {
		return s.Profiles[i], true
	}
	if stratum != GlobalStratum {
		if i, ok := s.index[ProfileKey{Metric: metric, Stratum: GlobalStratum}]; ok {
			return s.Profiles[i], true
		}
	}
	return NormalizationProfile{}, false
}

// Strata returns the distinct strata present in the set.
func (s *ProfileSet) Strata() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range s.Profiles {
		if _, ok := seen[p.Stratum]; ok {
			continue
		}
		seen[p.Stratum] = struct{}{}
		out = append(out, p.Stratum)
	}
	sort.Strings(out)
	return out
}
