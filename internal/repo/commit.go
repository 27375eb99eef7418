// internal/repo/commit.go
package repo

import (
	"strings"

	"vsx/internal/commit"
	"vsx/internal/errors"
	"vsx/shared/utils"

	"go.uber.org/zap"
)

// Commit records every staged change as a new commit on the current
// branch and clears the staging area.
func (r *Repository) Commit(message string) (*commit.Commit, error) {
	log := r.Logger.Operation("commit")

	if strings.TrimSpace(message) == "" {
		return nil, errors.ValidationError("commit message is required", nil)
	}
	if r.staged.Len() == 0 {
		return nil, errors.NothingToCommit()
	}

	b, err := r.currentBranch()
	if err != nil {
		return nil, err
	}

	staged := r.staged.Changes()
	files := make([]commit.FileChange, 0, len(staged))
	for _, change := range staged {
		files = append(files, change.FileChange())
	}

	var parents []string
	if b.Head != "" {
		parents = append(parents, b.Head)
	}
	c := commit.New(message, files, parents...)

	// Graph, branch and stage are written in turn; a crash between them
	// leaves an unreferenced commit, never a dangling head.
	if err := r.graph.Append(c); err != nil {
		return nil, err
	}
	b.Record(c.ID)
	if err := r.registry.Save(b); err != nil {
		return nil, err
	}
	if err := r.staged.Clear(); err != nil {
		return nil, err
	}

	log.Info("committed",
		zap.String("branch", b.Name),
		zap.String("commit", utils.ShortHash(c.ID)),
		zap.Int("files", len(files)))
	return c, nil
}

// Log returns every commit in the graph, newest first.
func (r *Repository) Log() []*commit.Commit {
	all := r.graph.All()
	reverse(all)
	return all
}

// History returns the commits that make up branch name, newest first.
// An empty name means the current branch.
func (r *Repository) History(name string) ([]*commit.Commit, error) {
	b, err := r.resolveBranch(name)
	if err != nil {
		return nil, err
	}
	commits, err := r.lineage(b)
	if err != nil {
		return nil, err
	}
	reverse(commits)
	return commits, nil
}

func reverse(commits []*commit.Commit) {
	for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
		commits[i], commits[j] = commits[j], commits[i]
	}
}
