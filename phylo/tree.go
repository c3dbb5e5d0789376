// Package phylo builds the lineage hierarchy the MostRecentCommonAncestor,
// PhyloSubtree and PhyloParents actions walk (§6). SPEC_FULL.md supplements
// spec.md's filter-only Lineage handling with these three tree actions,
// grounded on original_source/src/silo/common/phylo_tree's node/parent-chain
// shape; here the tree is inferred from the dotted-lineage naming
// convention a LineageColumn already indexes (storage.LineageIndex), rather
// than loaded from a separate Newick file, since tree ingestion is out of
// scope (§1).
package phylo

import "strings"

// Node is one lineage in the hierarchy.
type Node struct {
	Name     string
	Parent   *Node
	Children []*Node
}

// Tree is a forest of Nodes keyed by name, built from a flat list of
// observed lineage names.
type Tree struct {
	nodes map[string]*Node
}

// parentName returns name's dotted parent, or "" if name is a root
// (single-component name, e.g. "B").
func parentName(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[:i]
}

// Build constructs a Tree from every distinct name observed, inserting
// implied ancestor nodes (e.g. "A.1.2" implies "A.1" and "A") even if they
// were never themselves observed as a row value.
func Build(names []string) *Tree {
	t := &Tree{nodes: make(map[string]*Node)}
	for _, name := range names {
		t.ensure(name)
	}
	return t
}

func (t *Tree) ensure(name string) *Node {
	if n, ok := t.nodes[name]; ok {
		return n
	}
	n := &Node{Name: name}
	t.nodes[name] = n
	if parent := parentName(name); parent != "" {
		p := t.ensure(parent)
		p.Children = append(p.Children, n)
		n.Parent = p
	}
	return n
}

// Node returns the named node, or nil/false if it was never observed or
// implied.
func (t *Tree) Node(name string) (*Node, bool) {
	n, ok := t.nodes[name]
	return n, ok
}

// ancestors returns n's full ancestor chain, starting at n itself, ending at
// the root.
func ancestors(n *Node) []*Node {
	var chain []*Node
	for cur := n; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	return chain
}

// Parents returns name's ancestor chain (excluding itself), root-most last,
// as plain names. ok is false if name is not in the tree; printMissing
// decides whether an unrecognized name instead yields (nil, true) with an
// empty chain (§6 printNodesNotInTree).
func (t *Tree) Parents(name string, printMissing bool) ([]string, bool) {
	n, ok := t.nodes[name]
	if !ok {
		if printMissing {
			return nil, true
		}
		return nil, false
	}
	chain := ancestors(n)
	out := make([]string, 0, len(chain)-1)
	for _, a := range chain[1:] {
		out = append(out, a.Name)
	}
	return out, true
}

// Subtree returns every name in name's subtree, including name itself, in
// BFS order.
func (t *Tree) Subtree(name string) ([]string, bool) {
	root, ok := t.nodes[name]
	if !ok {
		return nil, false
	}
	var out []string
	queue := []*Node{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		out = append(out, n.Name)
		queue = append(queue, n.Children...)
	}
	return out, true
}

// MRCA returns the most recent common ancestor of names: the deepest node
// present in every name's ancestor chain. Names not present in the tree are
// skipped unless printMissing is false, in which case their absence fails
// the whole computation.
func (t *Tree) MRCA(names []string, printMissing bool) (string, bool) {
	var chains [][]*Node
	for _, name := range names {
		n, ok := t.nodes[name]
		if !ok {
			if printMissing {
				continue
			}
			return "", false
		}
		chains = append(chains, ancestors(n))
	}
	if len(chains) == 0 {
		return "", false
	}
	depth := func(chain []*Node) int { return len(chain) }
	common := make(map[string]bool)
	for _, a := range chains[0] {
		common[a.Name] = true
	}
	for _, chain := range chains[1:] {
		present := make(map[string]bool, len(chain))
		for _, a := range chain {
			present[a.Name] = true
		}
		for name := range common {
			if !present[name] {
				delete(common, name)
			}
		}
	}
	var best *Node
	bestDepth := -1
	for _, chain := range chains {
		for i, a := range chain {
			if !common[a.Name] {
				continue
			}
			d := depth(chain) - i // distance from root, larger = deeper
			if d > bestDepth {
				best, bestDepth = a, d
			}
		}
	}
	if best == nil {
		return "", false
	}
	return best.Name, true
}

// ContractUnary returns the names along name's ancestor chain with every
// single-child ancestor removed, i.e. only branch points and leaves/root
// survive (§6 contractUnaryNodes).
func (t *Tree) ContractUnary(chain []string) []string {
	var out []string
	for _, name := range chain {
		n, ok := t.nodes[name]
		if !ok || (len(n.Children) == 1 && n.Parent != nil) {
			continue
		}
		out = append(out, name)
	}
	return out
}
