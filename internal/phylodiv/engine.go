// Package phylodiv computes the most recent common ancestor and Faith's phylogenetic diversity
// of a guild over a shared, immutable tree.
package phylodiv

import (
	"sync"

	"guildscore/domain/phylo"
)

// Result is the outcome of one PD computation.
type Result struct {
	PD         float64  `json:"pd"`
	MRCA       int32    `json:"mrca"`
	Defined    bool     `json:"defined"`
	Resolved   []string `json:"resolved"`
	Unresolved []string `json:"unresolved,omitempty"`
}

// Engine is safe for concurrent use. Each call borrows a pre-sized scratch buffer from a pool,
// so the only per-call allocations are proportional to guild size, never to tree size.
type Engine struct {
	tree *phylo.Tree
	pool sync.Pool
}

// scratch holds node-indexed markers. Entries are valid only when their stamp equals the
// current epoch, which lets a buffer be reused without clearing.
type scratch struct {
	epoch  uint32
	stamp  []uint32
	count  []uint32
	marked []uint32
	leaves []int32
}

func (s *scratch) next() uint32 {
	s.epoch++
	if s.epoch == 0 {
		for i := range s.stamp {
			s.stamp[i] = 0
			s.marked[i] = 0
		}
		s.epoch = 1
	}
	return s.epoch
}

// NewEngine wraps a loaded tree.
func NewEngine(tree *phylo.Tree) *Engine {
	n := tree.NodeCount()
	e := &Engine{tree: tree}
	e.pool.New = func() interface{} {
		return &scratch{
			stamp:  make([]uint32, n),
			count:  make([]uint32, n),
			marked: make([]uint32, n),
			leaves: make([]int32, 0, 16),
		}
	}
	return e
}

// Tree returns the underlying tree.
func (e *Engine) Tree() *phylo.Tree { return e.tree }

// Compute resolves species to leaves and returns Faith's PD over the resolved set.
// Species missing from the tree are reported in Unresolved and excluded. With fewer than two
// distinct resolved leaves PD is 0 and Defined is false.
func (e *Engine) Compute(species []string) Result {
	s := e.pool.Get().(*scratch)
	defer e.pool.Put(s)

	res := Result{MRCA: phylo.NoParent}
	s.leaves = s.leaves[:0]
	for _, sp := range species {
		leaf, ok := e.tree.LeafIndexOf(sp)
		if !ok {
			res.Unresolved = append(res.Unresolved, sp)
			continue
		}
		if containsLeaf(s.leaves, leaf) {
			continue
		}
		s.leaves = append(s.leaves, leaf)
		res.Resolved = append(res.Resolved, sp)
	}

	if len(s.leaves) < 2 {
		return res
	}
	res.MRCA, res.PD = e.faithPD(s, s.leaves)
	res.Defined = true
	return res
}

// FaithPD computes PD for already-resolved, distinct leaves. It returns 0 for fewer than two.
func (e *Engine) FaithPD(leaves []int32) float64 {
	if len(leaves) < 2 {
		return 0
	}
	s := e.pool.Get().(*scratch)
	defer e.pool.Put(s)
	_, pd := e.faithPD(s, leaves)
	return pd
}

// MRCA returns the deepest node that is an ancestor of every given leaf.
func (e *Engine) MRCA(leaves []int32) int32 {
	if len(leaves) == 0 {
		return phylo.NoParent
	}
	s := e.pool.Get().(*scratch)
	defer e.pool.Put(s)
	return e.mrca(s, leaves)
}

func (e *Engine) mrca(s *scratch, leaves []int32) int32 {
	epoch := s.next()
	for _, leaf := range leaves {
		for node := leaf; node != phylo.NoParent; node = e.tree.Parent(node) {
			if s.stamp[node] != epoch {
				s.stamp[node] = epoch
				s.count[node] = 0
			}
			s.count[node]++
		}
	}

	want := uint32(len(leaves))
	node := leaves[0]
	for s.count[node] != want {
		node = e.tree.Parent(node)
	}
	return node
}

// faithPD sums each edge on the union of leaf→MRCA paths once. The MRCA's own edge to its
// parent is excluded.
func (e *Engine) faithPD(s *scratch, leaves []int32) (int32, float64) {
	mrca := e.mrca(s, leaves)
	epoch := s.epoch

	pd := 0.0
	for _, leaf := range leaves {
		for node := leaf; node != mrca && s.marked[node] != epoch; node = e.tree.Parent(node) {
			s.marked[node] = epoch
			pd += e.tree.EdgeLength(node)
		}
	}
	return mrca, pd
}

func containsLeaf(leaves []int32, leaf int32) bool {
	for _, l := range leaves {
		if l == leaf {
			return true
		}
	}
	return false
}
