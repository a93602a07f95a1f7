// Package trie stores rule code prefixes and answers whether a code starts
// with any of them.
package trie

import (
	"sort"
)

/*
Arena-based Trie

Nodes live in a single slice and refer to their children by index, so a set
of prefixes costs one growing allocation instead of one per node. Each edge
is a single rune of a rule code ("F" -> "U" -> "R" -> "9" ...).
*/

// NodeIndex represents the index of a trie node.
type NodeIndex int

// Arena is a memory pool that stores all trie nodes.
type Arena struct {
	// nodes is a slice that stores all trie nodes.
	nodes []arenaNode
	// count is the number of distinct prefixes inserted.
	count int
}

// arenaNode is the internal representation of a trie node stored in the arena.
type arenaNode struct {
	// children stores child nodes. key is the next rune, value is the index of the child node.
	children map[rune]NodeIndex
	// isEnd indicates whether an inserted prefix ends at this node.
	isEnd bool
}

// NewArena creates a new arena.
func NewArena() *Arena {
	arena := &Arena{
		nodes: make([]arenaNode, 0, 32),
	}
	// root node (index 0)
	arena.nodes = append(arena.nodes, arenaNode{children: make(map[rune]NodeIndex)})
	return arena
}

// newNode adds a new node to the arena and returns its index.
func (a *Arena) newNode() NodeIndex {
	idx := NodeIndex(len(a.nodes))
	a.nodes = append(a.nodes, arenaNode{children: make(map[rune]NodeIndex)})
	return idx
}

// Insert adds prefix to the trie.
func (a *Arena) Insert(prefix string) {
	current := NodeIndex(0) // root node

	for _, r := range prefix {
		childIdx, exists := a.nodes[current].children[r]
		if !exists {
			childIdx = a.newNode()
			a.nodes[current].children[r] = childIdx
		}
		current = childIdx
	}

	if !a.nodes[current].isEnd {
		a.nodes[current].isEnd = true
		a.count++
	}
}

// MatchesPrefix reports whether some inserted prefix is a prefix of code.
func (a *Arena) MatchesPrefix(code string) bool {
	current := NodeIndex(0)
	if a.nodes[current].isEnd {
		return true
	}
	for _, r := range code {
		next, ok := a.nodes[current].children[r]
		if !ok {
			return false
		}
		current = next
		if a.nodes[current].isEnd {
			return true
		}
	}
	return false
}

// Prefixes returns the inserted prefixes in lexical order.
func (a *Arena) Prefixes() []string {
	out := make([]string, 0, a.count)
	a.collect(NodeIndex(0), nil, &out)
	return out
}

func (a *Arena) collect(idx NodeIndex, path []rune, out *[]string) {
	node := a.nodes[idx]
	if node.isEnd {
		*out = append(*out, string(path))
	}
	for _, r := range sortedKeys(node.children) {
		a.collect(node.children[r], append(path, r), out)
	}
}

func sortedKeys(children map[rune]NodeIndex) []rune {
	keys := make([]rune, 0, len(children))
	for r := range children {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Trie is a set of code prefixes.
type Trie struct {
	arena *Arena
}

// New returns an initialized Trie.
func New() *Trie {
	return &Trie{
		arena: NewArena(),
	}
}

// Insert adds prefix to the set.
func (t *Trie) Insert(prefix string) {
	t.arena.Insert(prefix)
}

// MatchesPrefix reports whether code starts with one of the prefixes.
func (t *Trie) MatchesPrefix(code string) bool {
	return t.arena.MatchesPrefix(code)
}

// Len returns the number of distinct prefixes.
func (t *Trie) Len() int {
	return t.arena.count
}

// Prefixes returns the prefixes in lexical order.
func (t *Trie) Prefixes() []string {
	return t.arena.Prefixes()
}
