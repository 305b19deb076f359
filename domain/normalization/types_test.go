package normalization

import (
	"testing"
	"time"

	"guildscore/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileValidate(t *testing.T) {
	ok := NormalizationProfile{Metric: MetricFaithPD, P5: 1, P25: 2, P50: 2, P75: 3, P95: 5}
	assert.NoError(t, ok.Validate())

	degenerate := NormalizationProfile{Metric: MetricPestControl}
	assert.NoError(t, degenerate.Validate(), "all-zero breakpoints are allowed")

	unordered := ok
	unordered.P75 = 1.5
	assert.ErrorIs(t, unordered.Validate(), core.ErrInvalidProfile)

	badZero := NormalizationProfile{Metric: MetricPestControl, ZeroInflated: true, PZero: 0.6}
	assert.ErrorIs(t, badZero.Validate(), core.ErrInvalidProfile)

	allZero := NormalizationProfile{Metric: MetricPestControl, ZeroInflated: true, PZero: 1}
	assert.NoError(t, allZero.Validate())
}

func TestProfileSetLookupFallsBackToGlobal(t *testing.T) {
	set, err := NewProfileSet(core.NewProfileSetID(), time.Now(), 42, 1000, []NormalizationProfile{
		{Metric: MetricFaithPD, P5: 1, P25: 2, P50: 3, P75: 4, P95: 5, FormulaVersion: "v1"},
		{Metric: MetricFaithPD, Stratum: "temperate", P5: 2, P25: 3, P50: 4, P75: 5, P95: 6, FormulaVersion: "v1"},
	})
	require.NoError(t, err)

	p, ok := set.Lookup(MetricFaithPD, "temperate")
	require.True(t, ok)
	assert.Equal(t, 4.0, p.P50)

	p, ok = set.Lookup(MetricFaithPD, "tropical")
	require.True(t, ok)
	assert.Equal(t, 3.0, p.P50)

	_, ok = set.Lookup(MetricPollinatorNetwork, "")
	assert.False(t, ok)

	assert.Equal(t, []string{"", "temperate"}, set.Strata())
	assert.False(t, set.Hash.IsEmpty())
}

func TestNewProfileSetRejectsDuplicates(t *testing.T) {
	p := NormalizationProfile{Metric: MetricFaithPD, P5: 1, P25: 2, P50: 3, P75: 4, P95: 5}
	_, err := NewProfileSet(core.NewProfileSetID(), time.Now(), 1, 10, []NormalizationProfile{p, p})
	assert.ErrorIs(t, err, core.ErrInvalidProfile)
}
