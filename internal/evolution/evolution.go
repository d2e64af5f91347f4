// Package evolution flattens species evolution trees into display lines.
package evolution

import (
	"pokedex/internal/platform/pokeapi"
)

// Node is one species in an evolution tree. Children are owned by their
// parent and the tree must be acyclic.
type Node struct {
	SpeciesName string
	Children    []*Node
}

// Line is an ordered root-to-leaf sequence of species names.
type Line []string

// BuildLines returns one Line per leaf, in the order a depth-first pre-order
// walk reaches the leaves. A root without children yields a single Line of
// length one.
func BuildLines(root *Node) []Line {
	if root == nil {
		return nil
	}
	var lines []Line
	walk(root, nil, &lines)
	return lines
}

func walk(n *Node, path []string, lines *[]Line) {
	// Copy on extend so sibling branches never share a backing array.
	next := make([]string, len(path)+1)
	copy(next, path)
	next[len(path)] = n.SpeciesName

	if len(n.Children) == 0 {
		*lines = append(*lines, Line(next))
		return
	}
	for _, child := range n.Children {
		walk(child, next, lines)
	}
}

// FromChain converts a decoded evolution-chain payload into a tree.
func FromChain(link pokeapi.ChainLink) *Node {
	n := &Node{SpeciesName: link.Species.Name}
	if len(link.EvolvesTo) > 0 {
		n.Children = make([]*Node, 0, len(link.EvolvesTo))
		for _, child := range link.EvolvesTo {
			n.Children = append(n.Children, FromChain(child))
		}
	}
	return n
}

// Leaves counts the leaves under n.
func Leaves(n *Node) int {
	if n == nil {
		return 0
	}
	if len(n.Children) == 0 {
		return 1
	}
	total := 0
	for _, child := range n.Children {
		total += Leaves(child)
	}
	return total
}
