// Package newick loads a rooted phylogeny in Newick format into an immutable phylo.Tree.
package newick

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"guildscore/domain/core"
	"guildscore/domain/phylo"
	"guildscore/internal"

	gotree "github.com/evolbioinfo/gotree/io/newick"
	"github.com/evolbioinfo/gotree/tree"
)

// Load reads and parses a single-tree Newick file.
func Load(path string) (*phylo.Tree, error) {
	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tree file: %w", err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	internal.DefaultLogger.Info("[TreeLoader] Loaded %s in %.2fms (%d nodes, %d leaves)",
		path, float64(time.Since(start).Nanoseconds())/1e6, t.NodeCount(), t.LeafCount())
	return t, nil
}

// ParseString parses a Newick string.
func ParseString(s string) (*phylo.Tree, error) {
	return Parse(strings.NewReader(s))
}

// Parse reads exactly one ';'-terminated tree. A second tree in the input is a forest and is
// rejected. Structural checks (cycles, duplicate or missing leaf labels, negative lengths) are
// left to phylo.FromParents.
func Parse(r io.Reader) (*phylo.Tree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree: %w", err)
	}
	statement, err := singleStatement(data)
	if err != nil {
		return nil, err
	}

	parsed, err := gotree.NewParser(bytes.NewReader(statement)).Parse()
	if err != nil {
		return nil, core.NewMalformedTreeError("%v", err)
	}
	parents, lengths, labels := flatten(parsed)
	return phylo.FromParents(parents, lengths, labels)
}

// flatten walks the parsed tree from its root in preorder, children left to right. Internal
// names and support values are dropped; a missing branch length counts as 0.
func flatten(t *tree.Tree) (parents []int32, lengths []float64, labels []string) {
	type frame struct {
		node, prev *tree.Node
		parent     int32
		length     float64
	}
	stack := []frame{{node: t.Root(), parent: phylo.NoParent}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := int32(len(parents))
		parents = append(parents, f.parent)
		lengths = append(lengths, f.length)

		neigh, edges := f.node.Neigh(), f.node.Edges()
		children := 0
		for i := len(neigh) - 1; i >= 0; i-- {
			if neigh[i] == f.prev {
				continue
			}
			length := edges[i].Length()
			if length == tree.NIL_LENGTH {
				length = 0
			}
			stack = append(stack, frame{node: neigh[i], prev: f.node, parent: id, length: length})
			children++
		}
		if children == 0 {
			labels = append(labels, f.node.Name())
		} else {
			labels = append(labels, "")
		}
	}
	return parents, lengths, labels
}

// singleStatement returns the one tree statement in data. The Newick reader stops at the first
// ';', so framing errors after it (a second tree, a missing terminator, unbalanced clades) are
// caught here. Quoted labels and [comments] may contain any delimiter.
func singleStatement(data []byte) ([]byte, error) {
	malformed := func(pos int, format string, args ...interface{}) error {
		return core.NewMalformedTreeError("offset %d: %s", pos, fmt.Sprintf(format, args...))
	}

	var (
		depth     int
		opened    bool // the top-level clade has been opened
		end       = -1 // index of the terminating ';'
		quoteAt   = -1
		commentN  int
		commentAt int
	)
	for i, c := range data {
		switch {
		case quoteAt >= 0:
			if c == '\'' {
				quoteAt = -1 // a doubled quote reopens on the next byte
			}
			continue
		case commentN > 0:
			switch c {
			case '[':
				commentN++
			case ']':
				commentN--
			}
			continue
		}

		if end >= 0 {
			if c == '[' {
				commentN, commentAt = 1, i
				continue
			}
			if !isSpace(c) {
				return nil, malformed(i, "forest: more than one tree in input")
			}
			continue
		}

		switch c {
		case '\'':
			quoteAt = i
		case '[':
			commentN, commentAt = 1, i
		case '(':
			if opened && depth == 0 {
				return nil, malformed(i, "forest: second top-level clade")
			}
			opened = true
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, malformed(i, "unexpected ')'")
			}
		case ',':
			if depth == 0 {
				return nil, malformed(i, "',' outside a clade")
			}
		case ';':
			if !opened {
				return nil, malformed(i, "empty tree")
			}
			if depth != 0 {
				return nil, malformed(i, "%d unclosed clade(s)", depth)
			}
			end = i
		default:
			if !opened && !isSpace(c) {
				return nil, malformed(i, "tree must start with '('")
			}
		}
	}

	switch {
	case quoteAt >= 0:
		return nil, malformed(quoteAt, "unterminated quoted label")
	case commentN > 0:
		return nil, malformed(commentAt, "unterminated comment")
	case end < 0:
		return nil, malformed(len(data), "missing ';' terminator")
	}
	return data[:end+1], nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
