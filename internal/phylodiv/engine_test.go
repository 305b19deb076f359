package phylodiv

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"guildscore/adapters/newick"
	"guildscore/domain/phylo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "(((A:1,B:2)AB:3,C:4)ABC:5,(D:6,E:7)DE:8)R;"

func fixtureEngine(t testing.TB) *Engine {
	t.Helper()
	tree, err := newick.ParseString(fixture)
	require.NoError(t, err)
	return NewEngine(tree)
}

func TestCompute_FaithPD(t *testing.T) {
	e := fixtureEngine(t)

	tests := []struct {
		name    string
		species []string
		pd      float64
		defined bool
	}{
		{"sister pair", []string{"A", "B"}, 3, true},
		{"shared edge counted once", []string{"A", "B", "C"}, 1 + 2 + 3 + 4, true},
		{"across root", []string{"A", "D"}, 1 + 3 + 5 + 6 + 8, true},
		{"whole tree", []string{"A", "B", "C", "D", "E"}, 1 + 2 + 3 + 4 + 5 + 6 + 7 + 8, true},
		{"single species", []string{"A"}, 0, false},
		{"duplicate species", []string{"A", "A"}, 0, false},
		{"empty", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Compute(tt.species)
			assert.InDelta(t, tt.pd, res.PD, 1e-12)
			assert.Equal(t, tt.defined, res.Defined)
		})
	}
}

func TestCompute_OrderInvariant(t *testing.T) {
	e := fixtureEngine(t)
	base := e.Compute([]string{"A", "C", "E"})

	perms := [][]string{
		{"A", "E", "C"},
		{"C", "A", "E"},
		{"C", "E", "A"},
		{"E", "A", "C"},
		{"E", "C", "A"},
	}
	for _, p := range perms {
		res := e.Compute(p)
		assert.Equal(t, base.PD, res.PD, "order %v", p)
		assert.Equal(t, base.MRCA, res.MRCA, "order %v", p)
	}
}

func TestCompute_Unresolved(t *testing.T) {
	e := fixtureEngine(t)

	res := e.Compute([]string{"A", "Quercus_missing", "B"})
	assert.True(t, res.Defined)
	assert.InDelta(t, 3.0, res.PD, 1e-12)
	assert.Equal(t, []string{"A", "B"}, res.Resolved)
	assert.Equal(t, []string{"Quercus_missing"}, res.Unresolved)

	res = e.Compute([]string{"A", "nope"})
	assert.False(t, res.Defined)
	assert.Zero(t, res.PD)
	assert.Equal(t, phylo.NoParent, res.MRCA)
}

func TestMRCA(t *testing.T) {
	e := fixtureEngine(t)
	tree := e.Tree()
	leaf := func(s string) int32 {
		idx, ok := tree.LeafIndexOf(s)
		require.True(t, ok)
		return idx
	}

	a, b, c, d := leaf("A"), leaf("B"), leaf("C"), leaf("D")
	assert.Equal(t, tree.Parent(a), e.MRCA([]int32{a, b}))
	assert.Equal(t, tree.Parent(c), e.MRCA([]int32{a, c}))
	assert.Equal(t, tree.Root(), e.MRCA([]int32{b, d}))
	assert.Equal(t, a, e.MRCA([]int32{a}))
	assert.Equal(t, phylo.NoParent, e.MRCA(nil))
}

func TestFaithPD_MatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tree := randomTree(t, rng, 2000)
	e := NewEngine(tree)
	leaves := tree.Leaves()

	for i := 0; i < 500; i++ {
		m := 2 + rng.Intn(39)
		guild := sampleLeaves(rng, leaves, m)
		want := referencePD(tree, guild)
		assert.InDelta(t, want, e.FaithPD(guild), 1e-9, "guild %v", guild)
	}
}

func TestFaithPD_Concurrent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	tree := randomTree(t, rng, 500)
	e := NewEngine(tree)

	guilds := make([][]int32, 64)
	want := make([]float64, len(guilds))
	for i := range guilds {
		guilds[i] = sampleLeaves(rng, tree.Leaves(), 2+rng.Intn(6))
		want[i] = referencePD(tree, guilds[i])
	}

	var wg sync.WaitGroup
	got := make([]float64, len(guilds))
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(guilds); i += 8 {
				for rep := 0; rep < 20; rep++ {
					got[i] = e.FaithPD(guilds[i])
				}
			}
		}(w)
	}
	wg.Wait()

	for i := range guilds {
		assert.InDelta(t, want[i], got[i], 1e-9)
	}
}

func TestScratch_EpochWraparound(t *testing.T) {
	e := fixtureEngine(t)
	a, _ := e.Tree().LeafIndexOf("A")
	b, _ := e.Tree().LeafIndexOf("B")
	c, _ := e.Tree().LeafIndexOf("C")

	s := e.pool.Get().(*scratch)
	_, _ = e.faithPD(s, []int32{a, c})
	s.epoch = ^uint32(0) - 1
	_, pd := e.faithPD(s, []int32{a, b})
	assert.InDelta(t, 3.0, pd, 1e-12)
	_, pd = e.faithPD(s, []int32{a, c})
	assert.InDelta(t, 8.0, pd, 1e-12)
	assert.Equal(t, uint32(1), s.epoch)
}

// randomTree attaches node i to a uniformly chosen earlier node.
func randomTree(t testing.TB, rng *rand.Rand, nodes int) *phylo.Tree {
	t.Helper()
	parents := make([]int32, nodes)
	lengths := make([]float64, nodes)
	labels := make([]string, nodes)
	parents[0] = phylo.NoParent
	for i := 1; i < nodes; i++ {
		parents[i] = int32(rng.Intn(i))
		lengths[i] = rng.Float64() * 10
		labels[i] = fmt.Sprintf("sp%05d", i)
	}
	tree, err := phylo.FromParents(parents, lengths, labels)
	require.NoError(t, err)
	return tree
}

func sampleLeaves(rng *rand.Rand, leaves []int32, m int) []int32 {
	if m > len(leaves) {
		m = len(leaves)
	}
	out := make([]int32, 0, m)
	for _, i := range rng.Perm(len(leaves))[:m] {
		out = append(out, leaves[i])
	}
	return out
}

// referencePD is the hash-set formulation: the union of root paths minus the nodes common to all.
func referencePD(tree *phylo.Tree, leaves []int32) float64 {
	if len(leaves) < 2 {
		return 0
	}
	seen := make(map[int32]int)
	for _, leaf := range leaves {
		for n := leaf; n != phylo.NoParent; n = tree.Parent(n) {
			seen[n]++
		}
	}
	pd := 0.0
	for n, count := range seen {
		if count < len(leaves) {
			pd += tree.EdgeLength(n)
		}
	}
	return pd
}

func BenchmarkFaithPD(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	tree := randomTree(b, rng, 40000)
	e := NewEngine(tree)

	for _, m := range []int{2, 7, 20, 40} {
		guilds := make([][]int32, 256)
		for i := range guilds {
			guilds[i] = sampleLeaves(rng, tree.Leaves(), m)
		}

		b.Run(fmt.Sprintf("dense/m=%d", m), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				e.FaithPD(guilds[i%len(guilds)])
			}
		})
		b.Run(fmt.Sprintf("hashset/m=%d", m), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				referencePD(tree, guilds[i%len(guilds)])
			}
		})
	}
}
