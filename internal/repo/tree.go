// internal/repo/tree.go
package repo

import (
	"sort"

	"vsx/internal/branch"
	"vsx/internal/commit"
	"vsx/internal/merge"
)

// Tree maps every live path to its blob hash.
type Tree map[string]string

// Paths returns the tree's paths, sorted.
func (t Tree) Paths() []string {
	paths := make([]string, 0, len(t))
	for p := range t {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// replay applies commits in order; later commits win and deletes remove
// the path.
func replay(commits []*commit.Commit) Tree {
	tree := make(Tree)
	for _, c := range commits {
		for _, f := range c.Files {
			if f.Operation == commit.OpDelete {
				delete(tree, f.Path)
			} else {
				tree[f.Path] = f.Hash
			}
		}
	}
	return tree
}

// changes folds commits into the last state each one left per path.
func changes(commits []*commit.Commit) map[string]merge.State {
	states := make(map[string]merge.State)
	for _, c := range commits {
		for _, f := range c.Files {
			states[f.Path] = merge.State{Operation: f.Operation, Hash: f.Hash}
		}
	}
	return states
}

// treeOf returns the effective tree of branch b.
func (r *Repository) treeOf(b *branch.Branch) (Tree, error) {
	commits, err := r.lineage(b)
	if err != nil {
		return nil, err
	}
	return replay(commits), nil
}

// headTree returns the effective tree of the current branch.
func (r *Repository) headTree() (Tree, error) {
	b, err := r.currentBranch()
	if err != nil {
		return nil, err
	}
	return r.treeOf(b)
}
