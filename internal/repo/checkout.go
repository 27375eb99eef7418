// internal/repo/checkout.go
package repo

import (
	"sort"
	"strings"

	"vsx/internal/branch"
	"vsx/internal/errors"

	"go.uber.org/zap"
)

// Checkout makes name the current branch and rewrites the working
// directory to its tree. Every file at a path any commit has ever touched
// is removed first, so files from the previous branch do not survive the
// switch.
func (r *Repository) Checkout(name string) error {
	log := r.Logger.Operation("checkout")

	b, err := r.registry.Get(name)
	if err != nil {
		return err
	}
	if err := r.materialize(b, log); err != nil {
		return err
	}
	if err := writeHead(r.Dir, b.Name); err != nil {
		return err
	}

	if n := r.staged.Len(); n > 0 {
		log.Warn("staged changes carried across checkout", zap.Int("staged", n))
	}
	log.Info("checked out", zap.String("branch", b.Name), zap.String("head", b.Head))
	return nil
}

// materialize writes b's tree into the working directory. The lineage and
// every blob are resolved before anything on disk changes.
func (r *Repository) materialize(b *branch.Branch, log *zap.Logger) error {
	if b.Head != "" && !r.graph.Contains(b.Head) {
		return errors.DanglingHead(b.Name, b.Head)
	}

	tree, err := r.treeOf(b)
	if err != nil {
		return err
	}

	paths := tree.Paths()
	contents := make(map[string][]byte, len(paths))
	for _, p := range paths {
		content, err := r.ReadBlob(tree[p])
		if err != nil {
			return err
		}
		contents[p] = content
	}

	// Deepest paths go first so emptied directories are pruned before a
	// shallower path that was once a file is checked. Only regular files
	// are removed; a tracked path that is now a directory is left alone.
	tracked := r.graph.TrackedPaths()
	sort.SliceStable(tracked, func(i, j int) bool {
		return strings.Count(tracked[i], "/") > strings.Count(tracked[j], "/")
	})
	removed := 0
	for _, p := range tracked {
		if !r.ws.Exists(p) {
			continue
		}
		if err := r.ws.Remove(p); err != nil {
			return err
		}
		removed++
	}

	for _, p := range paths {
		if err := r.ws.WriteFile(p, contents[p]); err != nil {
			return err
		}
	}

	log.Debug("materialized tree",
		zap.String("branch", b.Name),
		zap.Int("removed", removed),
		zap.Int("written", len(paths)))
	return nil
}
