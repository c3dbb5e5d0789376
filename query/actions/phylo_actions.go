package actions

import (
	"github.com/genspectrum/silo/phylo"
	"github.com/genspectrum/silo/storage"
)

// buildTree collects every distinct value of columnName across matched rows
// plus every other value the column's dictionary holds (so MRCA/ancestor
// lookups work against the whole lineage universe, not just matched rows),
// and builds a phylo.Tree from it.
func buildTree(table *storage.Table, results []PartitionResult, columnName string) (*phylo.Tree, error) {
	if len(results) == 0 {
		return phylo.Build(nil), nil
	}
	if _, ok := results[0].Partition.LineageColumn(columnName); !ok {
		return nil, badColumn(table, columnName)
	}
	names := make(map[string]bool)
	for _, r := range results {
		lc, ok := r.Partition.LineageColumn(columnName)
		if !ok {
			continue
		}
		for _, v := range lc.Dict {
			if v != "" {
				names[v] = true
			}
		}
	}
	flat := make([]string, 0, len(names))
	for n := range names {
		flat = append(flat, n)
	}
	return phylo.Build(flat), nil
}

// matchedValues returns columnName's distinct values among the rows matched
// in results.
func matchedValues(results []PartitionResult, columnName string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range results {
		lc, ok := r.Partition.LineageColumn(columnName)
		if !ok {
			continue
		}
		it := r.Bitmap.Iterator()
		for it.HasNext() {
			row := it.Next()
			id := lc.RowToDict[row]
			if id < 0 {
				continue
			}
			v := lc.Value(id)
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// MostRecentCommonAncestor is the "MostRecentCommonAncestor" action (§6).
type MostRecentCommonAncestor struct {
	ColumnName          string
	PrintNodesNotInTree bool
	ContractUnaryNodes  bool
}

func (a MostRecentCommonAncestor) Execute(table *storage.Table, results []PartitionResult) ([]Record, error) {
	tree, err := buildTree(table, results, a.ColumnName)
	if err != nil {
		return nil, err
	}
	names := matchedValues(results, a.ColumnName)
	mrca, ok := tree.MRCA(names, a.PrintNodesNotInTree)
	if !ok {
		return nil, nil
	}
	return []Record{{"mostRecentCommonAncestor": mrca}}, nil
}

// PhyloSubtree is the "PhyloSubtree" action (§6).
type PhyloSubtree struct {
	ColumnName          string
	PrintNodesNotInTree bool
	ContractUnaryNodes  bool
}

func (a PhyloSubtree) Execute(table *storage.Table, results []PartitionResult) ([]Record, error) {
	tree, err := buildTree(table, results, a.ColumnName)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, name := range matchedValues(results, a.ColumnName) {
		members, ok := tree.Subtree(name)
		if !ok {
			if a.PrintNodesNotInTree {
				out = append(out, Record{"node": name, "subtree": []string{}})
			}
			continue
		}
		out = append(out, Record{"node": name, "subtree": members})
	}
	return out, nil
}

// PhyloParents is the "PhyloParents" action (§6).
type PhyloParents struct {
	ColumnName          string
	PrintNodesNotInTree bool
	ContractUnaryNodes  bool
}

func (a PhyloParents) Execute(table *storage.Table, results []PartitionResult) ([]Record, error) {
	tree, err := buildTree(table, results, a.ColumnName)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, name := range matchedValues(results, a.ColumnName) {
		parents, ok := tree.Parents(name, a.PrintNodesNotInTree)
		if !ok {
			continue
		}
		if a.ContractUnaryNodes {
			parents = tree.ContractUnary(parents)
		}
		out = append(out, Record{"node": name, "parents": parents})
	}
	return out, nil
}
