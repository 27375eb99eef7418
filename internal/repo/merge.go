// internal/repo/merge.go
package repo

import (
	"fmt"

	"vsx/internal/commit"
	"vsx/internal/errors"
	"vsx/internal/merge"
	"vsx/shared/utils"

	"go.uber.org/zap"
)

// MergeResult reports a merge. Commit is nil when the merge stopped on
// conflicts.
type MergeResult struct {
	Source    string
	Target    string
	Ancestor  string
	Commit    *commit.Commit
	Files     []commit.FileChange
	Conflicts map[string]string
}

// Merge folds source into target, or into the current branch when target
// is empty. On conflicts no commit is made: each conflicting working file
// is overwritten with both versions between markers and the returned error
// is a MERGE_CONFLICT carrying the same map as the result. A target with
// no commits merges against an empty ancestor.
func (r *Repository) Merge(source, target string) (*MergeResult, error) {
	log := r.Logger.Operation("merge")

	src, err := r.registry.Get(source)
	if err != nil {
		return nil, err
	}
	tgt, err := r.resolveBranch(target)
	if err != nil {
		return nil, err
	}
	if src.Name == tgt.Name {
		return nil, errors.ValidationError(fmt.Sprintf("cannot merge branch %s into itself", src.Name), src.Name)
	}
	if !src.HasCommits() {
		return nil, errors.NoCommits(src.Name)
	}

	srcCommits, err := r.lineage(src)
	if err != nil {
		return nil, err
	}
	tgtCommits, err := r.lineage(tgt)
	if err != nil {
		return nil, err
	}

	// The common ancestor is the shared commit latest in the target's order.
	inSource := make(map[string]bool, len(srcCommits))
	for _, c := range srcCommits {
		inSource[c.ID] = true
	}
	base := -1
	for i := len(tgtCommits) - 1; i >= 0; i-- {
		if inSource[tgtCommits[i].ID] {
			base = i
			break
		}
	}

	result := &MergeResult{Source: src.Name, Target: tgt.Name}
	shared := make(map[string]bool)
	if base >= 0 {
		result.Ancestor = tgtCommits[base].ID
		for _, id := range lineageIDs(tgtCommits[:base+1]) {
			shared[id] = true
		}
	}

	var srcOwn []*commit.Commit
	for _, c := range srcCommits {
		if !shared[c.ID] {
			srcOwn = append(srcOwn, c)
		}
	}

	ancestor := replay(tgtCommits[:base+1])
	resolved := merge.Resolve(ancestor, changes(srcOwn), changes(tgtCommits[base+1:]))
	result.Files = resolved.Files
	result.Conflicts = resolved.Conflicts

	log.Debug("classified merge",
		zap.String("source", src.Name),
		zap.String("target", tgt.Name),
		zap.String("ancestor", utils.ShortHash(result.Ancestor)),
		zap.Int("files", len(resolved.Files)),
		zap.Int("conflicts", len(resolved.Conflicts)))

	if resolved.HasConflicts() {
		if err := r.writeConflicts(resolved, replay(tgtCommits), replay(srcCommits), tgt.Name, src.Name); err != nil {
			return nil, err
		}
		log.Warn("merge stopped on conflicts",
			zap.String("source", src.Name),
			zap.String("target", tgt.Name),
			zap.Strings("paths", resolved.ConflictPaths()))
		return result, errors.MergeConflict(resolved.Conflicts)
	}

	// A target without commits has no head to record; the source head is
	// the only parent.
	parents := []string{src.Head}
	if tgt.HasCommits() {
		parents = []string{tgt.Head, src.Head}
	}
	c := commit.New(fmt.Sprintf("Merge branch '%s' into %s", src.Name, tgt.Name), resolved.Files, parents...)
	if err := r.graph.Append(c); err != nil {
		return nil, err
	}
	tgt.Record(c.ID)
	if err := r.registry.Save(tgt); err != nil {
		return nil, err
	}
	result.Commit = c

	current, err := r.CurrentBranch()
	if err != nil {
		return nil, err
	}
	if current == tgt.Name {
		if err := r.materialize(tgt, log); err != nil {
			return nil, err
		}
	}

	log.Info("merged",
		zap.String("source", src.Name),
		zap.String("target", tgt.Name),
		zap.String("commit", utils.ShortHash(c.ID)))
	return result, nil
}

// writeConflicts overwrites each conflicting working file with the target
// and source versions between markers.
func (r *Repository) writeConflicts(resolved *merge.Result, targetTree, sourceTree Tree, targetName, sourceName string) error {
	for _, path := range resolved.ConflictPaths() {
		current, err := r.blobOrEmpty(targetTree[path])
		if err != nil {
			return err
		}
		incoming, err := r.blobOrEmpty(sourceTree[path])
		if err != nil {
			return err
		}
		if err := r.ws.WriteFile(path, merge.RenderConflict(current, incoming, targetName, sourceName)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) blobOrEmpty(hash string) ([]byte, error) {
	if hash == "" {
		return nil, nil
	}
	return r.ReadBlob(hash)
}
