package testkit

import (
	"testing"

	"guildscore/adapters/newick"
	"guildscore/domain/normalization"
	"guildscore/internal/network"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchardFixtures(t *testing.T) {
	tree := OrchardTree()
	assert.Equal(t, len(OrchardSpecies()), tree.LeafCount())
	for _, sp := range OrchardSpecies() {
		_, ok := tree.LeafIndexOf(sp)
		assert.True(t, ok, sp)
	}

	idx, err := network.NewIndex(OrchardInteractions(), OrchardMechanisms())
	require.NoError(t, err)
	assert.ElementsMatch(t, OrchardSpecies(), idx.Plants())
	assert.Len(t, OrchardTraits(), len(OrchardSpecies()))
}

func TestFixedProfiles(t *testing.T) {
	formulas := map[normalization.MetricName]string{}
	for _, m := range normalization.AllMetrics() {
		formulas[m] = "test"
	}
	set := FixedProfiles(formulas)
	assert.Len(t, set.Profiles, len(normalization.AllMetrics()))

	p, ok := set.Lookup(normalization.MetricStrategyConflicts, "anything")
	require.True(t, ok)
	assert.True(t, p.ZeroInflated)
	assert.Equal(t, "test", p.FormulaVersion)
}

func TestPoolGenerator_Deterministic(t *testing.T) {
	config := DefaultPoolConfig()
	config.Species = 25

	a, err := NewPoolGenerator(config).Generate()
	require.NoError(t, err)
	b, err := NewPoolGenerator(config).Generate()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	config.Seed++
	c, err := NewPoolGenerator(config).Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a.Newick, c.Newick)
}

func TestPoolGenerator_ProducesValidData(t *testing.T) {
	pool, err := NewPoolGenerator(DefaultPoolConfig()).Generate()
	require.NoError(t, err)

	tree, err := newick.ParseString(pool.Newick)
	require.NoError(t, err)
	assert.Equal(t, len(pool.Species), tree.LeafCount())
	assert.Equal(t, 2*len(pool.Species)-1, tree.NodeCount(), "generated trees are binary")

	_, err = network.NewIndex(pool.Interactions, pool.Mechanisms)
	require.NoError(t, err)
	assert.NotEmpty(t, pool.Interactions)
	assert.NotEmpty(t, pool.Mechanisms)

	for _, tr := range pool.Traits {
		if tr.PHMin != nil {
			assert.LessOrEqual(t, *tr.PHMin, *tr.PHMax)
		}
	}
}

func TestPoolGenerator_Errors(t *testing.T) {
	_, err := NewPoolGenerator(PoolConfig{Species: 1, PartnersPerKind: 3}).Generate()
	assert.Error(t, err)

	_, err = NewPoolGenerator(PoolConfig{Species: 5}).Generate()
	assert.Error(t, err)
}
