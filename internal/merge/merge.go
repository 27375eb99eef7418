// internal/merge/merge.go
package merge

import (
	"bytes"
	"fmt"
	"sort"

	"vsx/internal/commit"
)

// Conflict reasons reported per path.
const (
	ReasonDeletedInSource = "deleted in source, modified in target"
	ReasonDeletedInTarget = "deleted in target, modified in source"
	ReasonDiverged        = "modified differently"
)

// State is what one side of a merge did to a path. A path missing from a
// side's map was left alone by that side.
type State struct {
	Operation commit.Operation
	Hash      string
}

func (s State) deletes() bool { return s.Operation == commit.OpDelete }

// Result is the outcome of classifying every touched path.
type Result struct {
	Files     []commit.FileChange
	Conflicts map[string]string
}

func (r *Result) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// ConflictPaths returns the conflicting paths, sorted.
func (r *Result) ConflictPaths() []string {
	paths := make([]string, 0, len(r.Conflicts))
	for p := range r.Conflicts {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Resolve classifies every path touched by source or target against the
// ancestor's hashes. Unconflicted paths resolve in favor of source.
func Resolve(ancestor map[string]string, source, target map[string]State) *Result {
	paths := make(map[string]bool, len(source)+len(target))
	for p := range source {
		paths[p] = true
	}
	for p := range target {
		paths[p] = true
	}

	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	result := &Result{
		Files:     []commit.FileChange{},
		Conflicts: make(map[string]string),
	}

	for _, path := range sorted {
		src, inSrc := source[path]
		tgt, inTgt := target[path]
		base := ancestor[path]

		if reason, ok := classify(base, src, inSrc, tgt, inTgt); ok {
			result.Conflicts[path] = reason
			continue
		}

		switch {
		case inSrc && src.deletes():
			result.Files = append(result.Files, commit.FileChange{Path: path, Operation: commit.OpDelete})
		case inTgt && tgt.deletes():
			result.Files = append(result.Files, commit.FileChange{Path: path, Operation: commit.OpDelete})
		case inSrc && src.Hash != "":
			result.Files = append(result.Files, commit.FileChange{Path: path, Operation: commit.OpModify, Hash: src.Hash})
		case inTgt && tgt.Hash != "":
			result.Files = append(result.Files, commit.FileChange{Path: path, Operation: commit.OpModify, Hash: tgt.Hash})
		}
	}

	return result
}

// classify returns the conflict reason for one path, if any.
func classify(base string, src State, inSrc bool, tgt State, inTgt bool) (string, bool) {
	if !inSrc || !inTgt {
		return "", false
	}

	switch {
	case src.deletes() && tgt.deletes():
		return "", false
	case src.deletes():
		if tgt.Hash != base {
			return ReasonDeletedInSource, true
		}
	case tgt.deletes():
		if src.Hash != base {
			return ReasonDeletedInTarget, true
		}
	default:
		if src.Hash != tgt.Hash && src.Hash != base && tgt.Hash != base {
			return ReasonDiverged, true
		}
	}
	return "", false
}

// RenderConflict builds the marker file written for a conflicting path:
// the target's content under "current", the source's under "incoming".
func RenderConflict(current, incoming []byte, targetName, sourceName string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<<<<<<< current (%s)\n", targetName)
	buf.Write(current)
	if len(current) > 0 && current[len(current)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString("=======\n")
	buf.Write(incoming)
	if len(incoming) > 0 && incoming[len(incoming)-1] != '\n' {
		buf.WriteByte('\n')
	}
	fmt.Fprintf(&buf, ">>>>>>> incoming (%s)\n", sourceName)
	return buf.Bytes()
}
