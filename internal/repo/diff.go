// internal/repo/diff.go
package repo

import (
	"vsx/internal/diff"
	"vsx/internal/errors"
)

// ModifiedFile is a path live in both branches with different content.
type ModifiedFile struct {
	Path  string
	Hash1 string
	Hash2 string
}

// DiffReport compares the trees of two branches.
type DiffReport struct {
	Branch1  string
	Branch2  string
	OnlyIn1  []string
	OnlyIn2  []string
	Modified []ModifiedFile
}

// Empty reports whether the two trees are identical.
func (d *DiffReport) Empty() bool {
	return len(d.OnlyIn1) == 0 && len(d.OnlyIn2) == 0 && len(d.Modified) == 0
}

// Diff compares the trees of branch1 and branch2. It does not touch the
// working directory.
func (r *Repository) Diff(branch1, branch2 string) (*DiffReport, error) {
	t1, err := r.diffTree(branch1)
	if err != nil {
		return nil, err
	}
	t2, err := r.diffTree(branch2)
	if err != nil {
		return nil, err
	}

	report := &DiffReport{
		Branch1:  branch1,
		Branch2:  branch2,
		OnlyIn1:  []string{},
		OnlyIn2:  []string{},
		Modified: []ModifiedFile{},
	}
	for _, p := range t1.Paths() {
		h2, ok := t2[p]
		switch {
		case !ok:
			report.OnlyIn1 = append(report.OnlyIn1, p)
		case h2 != t1[p]:
			report.Modified = append(report.Modified, ModifiedFile{Path: p, Hash1: t1[p], Hash2: h2})
		}
	}
	for _, p := range t2.Paths() {
		if _, ok := t1[p]; !ok {
			report.OnlyIn2 = append(report.OnlyIn2, p)
		}
	}
	return report, nil
}

func (r *Repository) diffTree(name string) (Tree, error) {
	b, err := r.registry.Get(name)
	if err != nil {
		return nil, err
	}
	if !b.HasCommits() {
		return nil, errors.NoCommits(name)
	}
	return r.treeOf(b)
}

// Patch renders the line diff of a modified file from branch1 to branch2.
func (r *Repository) Patch(m ModifiedFile, contextLines int) (*diff.DiffResult, error) {
	old, err := r.ReadBlob(m.Hash1)
	if err != nil {
		return nil, err
	}
	updated, err := r.ReadBlob(m.Hash2)
	if err != nil {
		return nil, err
	}
	return diff.NewEngine(contextLines).Diff(old, updated), nil
}
