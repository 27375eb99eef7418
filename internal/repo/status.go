// internal/repo/status.go
package repo

import (
	"sort"

	"vsx/internal/stage"
	"vsx/shared/utils"
)

// Status describes the working directory against the current branch.
type Status struct {
	Branch    string
	Head      string
	Staged    []*stage.Change
	Modified  []string
	Deleted   []string
	Untracked []string
	Ignored   []string
}

// Clean reports whether nothing is staged, changed or untracked.
func (s *Status) Clean() bool {
	return len(s.Staged) == 0 && len(s.Modified) == 0 &&
		len(s.Deleted) == 0 && len(s.Untracked) == 0
}

// Status walks the working directory. Paths with a staged change are only
// reported under Staged.
func (r *Repository) Status() (*Status, error) {
	b, err := r.currentBranch()
	if err != nil {
		return nil, err
	}
	tree, err := r.treeOf(b)
	if err != nil {
		return nil, err
	}

	st := &Status{Branch: b.Name, Head: b.Head, Staged: r.staged.Changes()}
	staged := make(map[string]bool, len(st.Staged))
	for _, c := range st.Staged {
		staged[c.Path] = true
	}

	skip := func(rel string) bool {
		if r.ignored(rel) {
			st.Ignored = append(st.Ignored, rel)
			return true
		}
		return false
	}

	seen := make(map[string]bool)
	err = r.ws.Walk(skip, func(rel string) error {
		seen[rel] = true
		if staged[rel] {
			return nil
		}

		hash, tracked := tree[rel]
		if !tracked {
			st.Untracked = append(st.Untracked, rel)
			return nil
		}

		content, err := r.ws.ReadFile(rel)
		if err != nil {
			return err
		}
		if utils.HashContent(content) != hash {
			st.Modified = append(st.Modified, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, p := range tree.Paths() {
		if !seen[p] && !staged[p] && !r.ignored(p) {
			st.Deleted = append(st.Deleted, p)
		}
	}

	sort.Strings(st.Modified)
	sort.Strings(st.Untracked)
	sort.Strings(st.Ignored)
	return st, nil
}
