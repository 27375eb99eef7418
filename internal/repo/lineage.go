// internal/repo/lineage.go
package repo

import (
	"vsx/internal/branch"
	"vsx/internal/commit"
	"vsx/internal/errors"

	"go.uber.org/zap"
)

type segment struct {
	branch string
	ids    []string
}

// lineage returns every commit whose changes make up b's tree, oldest
// first: the inherited parent histories bounded by each fork point, then
// b's own history. The parent chain is walked as a worklist so a cycle in
// parent_branch is reported instead of recursing forever.
func (r *Repository) lineage(b *branch.Branch) ([]*commit.Commit, error) {
	segments := []segment{{branch: b.Name, ids: b.CommitHistory}}
	visited := map[string]bool{b.Name: true}
	chain := []string{b.Name}

	child := b.Name
	bound := b.BaseCommit
	next := b.ParentBranch

	for next != "" && bound != "" {
		if visited[next] {
			return nil, errors.BranchCycle(append(chain, next))
		}
		visited[next] = true
		chain = append(chain, next)

		parent, err := r.registry.Get(next)
		if err != nil {
			return nil, err
		}

		if idx := parent.IndexOf(bound); idx >= 0 {
			segments = append(segments, segment{branch: parent.Name, ids: parent.CommitHistory[:idx+1]})
			bound = parent.BaseCommit
		} else if bound != parent.BaseCommit {
			// The fork point was inherited by parent itself when bound equals
			// its base; anything else is a broken link.
			r.Logger.Warn("fork point missing from parent history, skipping inherited state",
				zap.String("branch", child),
				zap.String("parent", parent.Name),
				zap.String("fork_point", bound))
			break
		}

		child = parent.Name
		next = parent.ParentBranch
	}

	seen := make(map[string]bool)
	var commits []*commit.Commit
	for i := len(segments) - 1; i >= 0; i-- {
		for _, id := range segments[i].ids {
			if seen[id] {
				continue
			}
			seen[id] = true

			c, ok := r.graph.Get(id)
			if !ok {
				return nil, errors.DanglingHead(segments[i].branch, id)
			}
			commits = append(commits, c)
		}
	}
	return commits, nil
}

// lineageIDs is lineage reduced to commit ids.
func lineageIDs(commits []*commit.Commit) []string {
	ids := make([]string, len(commits))
	for i, c := range commits {
		ids[i] = c.ID
	}
	return ids
}
