// internal/repo/fsck.go
package repo

import (
	"sort"

	"go.uber.org/zap"
)

// FsckReport lists integrity problems found by Fsck.
type FsckReport struct {
	Objects  int
	Corrupt  []string // stored blobs whose content no longer matches their name
	Missing  []string // blobs named by a commit or the stage but not stored
	Dangling []string // "branch:commit" references to commits not in the graph
}

// OK reports whether no problem was found.
func (f *FsckReport) OK() bool {
	return len(f.Corrupt) == 0 && len(f.Missing) == 0 && len(f.Dangling) == 0
}

// Fsck re-hashes every stored blob and checks that every blob and commit
// referenced by the graph, the stage and the branch registry exists.
func (r *Repository) Fsck() (*FsckReport, error) {
	log := r.Logger.Operation("fsck")

	hashes, err := r.objects.List()
	if err != nil {
		return nil, err
	}
	report := &FsckReport{Objects: len(hashes)}

	stored := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		stored[h] = true
		if err := r.objects.Verify(h); err != nil {
			log.Debug("object failed verification", zap.String("hash", h), zap.Error(err))
			report.Corrupt = append(report.Corrupt, h)
		}
	}

	referenced := make(map[string]bool)
	for _, c := range r.graph.All() {
		for _, f := range c.Files {
			if f.Hash != "" {
				referenced[f.Hash] = true
			}
		}
	}
	for _, c := range r.staged.Changes() {
		if c.Hash != "" {
			referenced[c.Hash] = true
		}
	}
	for h := range referenced {
		if !stored[h] {
			report.Missing = append(report.Missing, h)
		}
	}
	sort.Strings(report.Missing)

	branches, err := r.registry.All()
	if err != nil {
		return nil, err
	}
	for _, b := range branches {
		ids := b.CommitHistory
		if b.BaseCommit != "" {
			ids = append([]string{b.BaseCommit}, ids...)
		}
		for _, id := range ids {
			if !r.graph.Contains(id) {
				report.Dangling = append(report.Dangling, b.Name+":"+id)
			}
		}
	}

	log.Info("checked repository",
		zap.Int("objects", report.Objects),
		zap.Int("corrupt", len(report.Corrupt)),
		zap.Int("missing", len(report.Missing)),
		zap.Int("dangling", len(report.Dangling)))
	return report, nil
}
