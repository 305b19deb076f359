package normalize

import (
	"math"
	"testing"
	"time"

	"guildscore/domain/core"
	"guildscore/domain/normalization"
	"guildscore/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearProfile() normalization.NormalizationProfile {
	return normalization.NormalizationProfile{
		Metric: normalization.MetricFaithPD,
		P5:     10, P25: 20, P50: 30, P75: 40, P95: 50,
		FormulaVersion: "v1",
	}
}

func TestNormalize_Anchors(t *testing.T) {
	p := linearProfile()

	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"below p5", -100, 0},
		{"at p5", 10, 0},
		{"inside first segment", 15, 0.1},
		{"at p25", 20, 0.2},
		{"at p50", 30, 0.5},
		{"inside p50-p75", 35, 0.65},
		{"at p75", 40, 0.8},
		{"inside p75-p95", 45, 0.9},
		{"at p95", 50, 1},
		{"above p95", 1e9, 1},
		{"NaN", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Normalize(tt.x, p), 1e-12)
		})
	}
}

func TestNormalize_Monotonic(t *testing.T) {
	profiles := []normalization.NormalizationProfile{
		linearProfile(),
		{P5: 0, P25: 0, P50: 0, P75: 2, P95: 9},
		{P5: 3, P25: 3, P50: 3, P75: 3, P95: 3},
		{P5: 1, P25: 2, P50: 2, P75: 2, P95: 7},
		{ZeroInflated: true, PZero: 0.6, P5: 0.5, P25: 1, P50: 2, P75: 4, P95: 8},
	}

	for _, p := range profiles {
		prev := -1.0
		for x := -5.0; x <= 60; x += 0.01 {
			got := Normalize(x, p)
			require.GreaterOrEqual(t, got, prev, "profile %+v x=%v", p, x)
			require.GreaterOrEqual(t, got, 0.0)
			require.LessOrEqual(t, got, 1.0)
			prev = got
		}
	}
}

func TestNormalize_DegenerateProfile(t *testing.T) {
	p := normalization.NormalizationProfile{P5: 3, P25: 3, P50: 3, P75: 3, P95: 3}
	assert.Equal(t, 0.0, Normalize(2.9, p))
	assert.Equal(t, 0.0, Normalize(3, p))
	assert.Equal(t, 1.0, Normalize(3.1, p))
}

func TestNormalize_ZeroInflated(t *testing.T) {
	p := normalization.NormalizationProfile{
		Metric:       normalization.MetricPollinatorNetwork,
		ZeroInflated: true,
		PZero:        0.6,
		P5:           0.5, P25: 1, P50: 2, P75: 4, P95: 8,
	}

	assert.Equal(t, 0.0, Normalize(0, p))
	assert.Equal(t, 0.0, Normalize(-1, p))

	for _, x := range []float64{1e-9, 0.01, 0.5, 1, 3, 8, 100} {
		got := Normalize(x, p)
		assert.Greater(t, got, 0.4, "x=%v", x)
		assert.LessOrEqual(t, got, 1.0, "x=%v", x)
	}
	assert.InDelta(t, 0.4+0.6*0.5, Normalize(2, p), 1e-12)
	assert.InDelta(t, 1.0, Normalize(8, p), 1e-12)
	assert.InDelta(t, 0.4+0.6*0.05, Normalize(0.5, p), 1e-12)

	allZero := normalization.NormalizationProfile{ZeroInflated: true, PZero: 1}
	assert.Equal(t, 0.0, Normalize(0, allZero))
	assert.Equal(t, 1.0, Normalize(0.1, allZero))
}

func TestPercentileRank(t *testing.T) {
	p := linearProfile()

	assert.Nil(t, PercentileRank(9.99, p))
	assert.Nil(t, PercentileRank(50.01, p))
	assert.Nil(t, PercentileRank(math.NaN(), p))

	r := PercentileRank(30, p)
	require.NotNil(t, r)
	assert.InDelta(t, 50, *r, 1e-12)

	r = PercentileRank(10, p)
	require.NotNil(t, r)
	assert.InDelta(t, 5, *r, 1e-12)

	r = PercentileRank(45, p)
	require.NotNil(t, r)
	assert.InDelta(t, 85, *r, 1e-12)

	zi := normalization.NormalizationProfile{ZeroInflated: true, PZero: 0.5, P5: 1, P25: 2, P50: 3, P75: 4, P95: 5}
	r = PercentileRank(3, zi)
	require.NotNil(t, r)
	assert.InDelta(t, 75, *r, 1e-12)
}

func profileSet(t *testing.T, profiles ...normalization.NormalizationProfile) *normalization.ProfileSet {
	t.Helper()
	set, err := normalization.NewProfileSet(core.NewProfileSetID(), time.Now().UTC(), 42, 1000, profiles)
	require.NoError(t, err)
	return set
}

func TestNormalizer(t *testing.T) {
	global := linearProfile()
	temperate := linearProfile()
	temperate.Stratum = "temperate"
	temperate.P95 = 100
	set := profileSet(t, global, temperate)

	formulas := map[normalization.MetricName]string{normalization.MetricFaithPD: "v1"}
	n, err := NewNormalizer(set, formulas)
	require.NoError(t, err)

	v, err := n.Normalize(normalization.MetricFaithPD, "", 50)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	mv, err := n.Value(normalization.MetricFaithPD, "temperate", 50)
	require.NoError(t, err)
	assert.Less(t, mv.Normalized, 1.0)
	assert.Equal(t, "temperate", mv.Stratum)

	mv, err = n.Value(normalization.MetricFaithPD, "tropical", 50)
	require.NoError(t, err)
	assert.Equal(t, normalization.GlobalStratum, mv.Stratum, "unknown strata fall back to global")

	_, err = n.Normalize(normalization.MetricFungalNetwork, "", 1)
	assert.ErrorIs(t, err, core.ErrUncalibratedMetric)
}

func TestNormalizer_CountsUncalibratedLookups(t *testing.T) {
	n, err := NewNormalizer(profileSet(t, linearProfile()), map[normalization.MetricName]string{normalization.MetricFaithPD: "v1"})
	require.NoError(t, err)

	missing := metrics.Uncalibrated.WithLabelValues(string(normalization.MetricFungalNetwork))
	calibrated := metrics.Uncalibrated.WithLabelValues(string(normalization.MetricFaithPD))
	missingBefore, calibratedBefore := testutil.ToFloat64(missing), testutil.ToFloat64(calibrated)

	_, err = n.Value(normalization.MetricFungalNetwork, "temperate", 1)
	require.ErrorIs(t, err, core.ErrUncalibratedMetric)
	_, err = n.Value(normalization.MetricFaithPD, "temperate", 1)
	require.NoError(t, err)

	assert.Equal(t, missingBefore+1, testutil.ToFloat64(missing))
	assert.Equal(t, calibratedBefore, testutil.ToFloat64(calibrated))
}

func TestNewNormalizer_Failures(t *testing.T) {
	set := profileSet(t, linearProfile())

	_, err := NewNormalizer(set, map[normalization.MetricName]string{
		normalization.MetricFaithPD:     "v1",
		normalization.MetricPestControl: "v1",
	})
	assert.ErrorIs(t, err, core.ErrUncalibratedMetric)
	assert.True(t, core.IsStructuralError(err))

	_, err = NewNormalizer(set, map[normalization.MetricName]string{normalization.MetricFaithPD: "v2"})
	assert.ErrorIs(t, err, core.ErrStaleProfile)
	assert.ErrorIs(t, err, core.ErrUncalibratedMetric)

	_, err = NewNormalizer(nil, map[normalization.MetricName]string{normalization.MetricFaithPD: "v1"})
	assert.ErrorIs(t, err, core.ErrUncalibratedMetric)

	// stratum-only profile with no global fallback
	strat := linearProfile()
	strat.Stratum = "temperate"
	other := linearProfile()
	other.Metric = normalization.MetricPestControl
	other.Stratum = "tropical"
	_, err = NewNormalizer(profileSet(t, strat, other), map[normalization.MetricName]string{normalization.MetricFaithPD: "v1"})
	assert.ErrorIs(t, err, core.ErrUncalibratedMetric)
}
