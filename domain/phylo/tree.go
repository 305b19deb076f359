// Package phylo holds the immutable, index-addressed phylogenetic tree shared by all scoring calls.
package phylo

import (
	"math"

	"guildscore/domain/core"
)

// NoParent marks the root's parent slot.
const NoParent int32 = -1

// Tree is a rooted phylogeny stored as flat arrays indexed by node (0..N-1).
// It has no mutators; once built it is safe for concurrent readers without locking.
type Tree struct {
	parent     []int32
	children   [][]int32
	edgeLength []float64
	label      []string
	depth      []int32
	leaves     []int32
	leafIndex  map[string]int32
	root       int32
}

// FromParents validates a parent-pointer encoding and builds a Tree.
//
// parents[i] is the parent of node i (NoParent for the root), lengths[i] the length of the
// edge from i to its parent, labels[i] the species identifier of leaf i. Labels on internal
// nodes are discarded. Children keep ascending node-index order.
func FromParents(parents []int32, lengths []float64, labels []string) (*Tree, error) {
	n := len(parents)
	if n == 0 {
		return nil, core.NewMalformedTreeError("tree has no nodes")
	}
	if len(lengths) != n || len(labels) != n {
		return nil, core.NewMalformedTreeError("parents, lengths and labels differ in size (%d/%d/%d)", n, len(lengths), len(labels))
	}

	root := NoParent
	children := make([][]int32, n)
	for i, p := range parents {
		switch {
		case p == NoParent:
			if root != NoParent {
				return nil, core.NewMalformedTreeError("forest: nodes %d and %d are both roots", root, i)
			}
			root = int32(i)
		case p < 0 || int(p) >= n:
			return nil, core.NewMalformedTreeError("node %d has out-of-range parent %d", i, p)
		case int(p) == i:
			return nil, core.NewMalformedTreeError("cycle: node %d is its own parent", i)
		default:
			children[p] = append(children[p], int32(i))
		}

		l := lengths[i]
		if math.IsNaN(l) || math.IsInf(l, 0) || l < 0 {
			return nil, core.NewMalformedTreeError("node %d has invalid edge length %v", i, l)
		}
	}
	if root == NoParent {
		return nil, core.NewMalformedTreeError("cycle: no root node")
	}

	// Every non-root node has exactly one parent, so anything unreachable from the root sits on a cycle.
	depth := make([]int32, n)
	for i := range depth {
		depth[i] = -1
	}
	depth[root] = 0
	queue := make([]int32, 0, n)
	queue = append(queue, root)
	for head := 0; head < len(queue); head++ {
		node := queue[head]
		for _, c := range children[node] {
			depth[c] = depth[node] + 1
			queue = append(queue, c)
		}
	}
	if len(queue) != n {
		for i, d := range depth {
			if d < 0 {
				return nil, core.NewMalformedTreeError("cycle: node %d is not connected to the root", i)
			}
		}
	}

	t := &Tree{
		parent:     append([]int32(nil), parents...),
		children:   children,
		edgeLength: append([]float64(nil), lengths...),
		label:      make([]string, n),
		depth:      depth,
		leafIndex:  make(map[string]int32),
		root:       root,
	}
	for i := 0; i < n; i++ {
		if len(children[i]) > 0 {
			continue
		}
		name := labels[i]
		if name == "" {
			return nil, core.NewMalformedTreeError("leaf %d has no label", i)
		}
		if prev, dup := t.leafIndex[name]; dup {
			return nil, core.NewMalformedTreeError("duplicate leaf label %q on nodes %d and %d", name, prev, i)
		}
		t.leafIndex[name] = int32(i)
		t.label[i] = name
		t.leaves = append(t.leaves, int32(i))
	}
	return t, nil
}

// NodeCount returns the number of nodes.
func (t *Tree) NodeCount() int { return len(t.parent) }

// LeafCount returns the number of labelled leaves.
func (t *Tree) LeafCount() int { return len(t.leaves) }

// Root returns the root node index.
func (t *Tree) Root() int32 { return t.root }

// Parent returns the parent of node, or NoParent for the root.
func (t *Tree) Parent(node int32) int32 { return t.parent[node] }

// Children returns the ordered children of node. Callers must not modify the slice.
func (t *Tree) Children(node int32) []int32 { return t.children[node] }

// EdgeLength returns the length of the edge above node.
func (t *Tree) EdgeLength(node int32) float64 { return t.edgeLength[node] }

// Label returns the species identifier of a leaf, or "" for internal nodes.
func (t *Tree) Label(node int32) string { return t.label[node] }

// IsLeaf reports whether node has no children.
func (t *Tree) IsLeaf(node int32) bool { return len(t.children[node]) == 0 }

// Depth returns the number of edges between node and the root.
func (t *Tree) Depth(node int32) int { return int(t.depth[node]) }

// Leaves returns every leaf index in ascending order. Callers must not modify the slice.
func (t *Tree) Leaves() []int32 { return t.leaves }

// LeafIndexOf resolves a species identifier to its leaf in O(1).
func (t *Tree) LeafIndexOf(speciesID string) (int32, bool) {
	idx, ok := t.leafIndex[speciesID]
	return idx, ok
}

// LeafLabels returns every species identifier present in the tree.
func (t *Tree) LeafLabels() []string {
	out := make([]string, len(t.leaves))
	for i, leaf := range t.leaves {
		out[i] = t.label[leaf]
	}
	return out
}
