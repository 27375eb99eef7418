// internal/commit/commit.go
package commit

import (
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"vsx/shared/utils"
)

type Operation string

const (
	OpAdd    Operation = "add"
	OpModify Operation = "modify"
	OpDelete Operation = "delete"
)

func ParseOperation(s string) (Operation, error) {
	switch op := Operation(s); op {
	case OpAdd, OpModify, OpDelete:
		return op, nil
	default:
		return "", fmt.Errorf("unknown operation %q", s)
	}
}

// HasContent reports whether changes with this operation carry a blob hash.
func (o Operation) HasContent() bool {
	return o == OpAdd || o == OpModify
}

// FileChange is one entry of a commit manifest. Hash is set only for
// add and modify.
type FileChange struct {
	Path      string    `json:"path"`
	Operation Operation `json:"operation"`
	Hash      string    `json:"hash,omitempty"`
}

func (f FileChange) Validate() error {
	if f.Path == "" {
		return fmt.Errorf("file change has empty path")
	}
	if !isRelativePath(f.Path) {
		return fmt.Errorf("%s: path must be clean and relative to the working root", f.Path)
	}
	if _, err := ParseOperation(string(f.Operation)); err != nil {
		return fmt.Errorf("%s: %w", f.Path, err)
	}
	if f.Operation.HasContent() {
		if !isDigest(f.Hash) {
			return fmt.Errorf("%s: %s requires a content hash", f.Path, f.Operation)
		}
	} else if f.Hash != "" {
		return fmt.Errorf("%s: delete must not carry a hash", f.Path)
	}
	return nil
}

// Parents holds zero, one or two parent ids. On disk it is null, a single
// id, or a two element array for merge commits.
type Parents []string

func (p Parents) MarshalJSON() ([]byte, error) {
	switch len(p) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(p[0])
	case 2:
		return json.Marshal([]string(p))
	default:
		return nil, fmt.Errorf("commit cannot have %d parents", len(p))
	}
}

func (p *Parents) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			return fmt.Errorf("parent id is empty")
		}
		*p = Parents{single}
		return nil
	}

	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("parent must be null, an id or a pair of ids")
	}
	if len(pair) != 2 || pair[0] == "" || pair[1] == "" {
		return fmt.Errorf("merge parent must hold exactly two ids, got %d", len(pair))
	}
	*p = Parents(pair)
	return nil
}

// Commit is an immutable entry of the commit graph.
type Commit struct {
	ID        string       `json:"id"`
	Message   string       `json:"message"`
	Files     []FileChange `json:"files"`
	Parent    Parents      `json:"parent"`
	CreatedAt time.Time    `json:"created_at"`
}

// New builds a commit stamped with the current time. The id digests the
// message and that timestamp, so it is unique per invocation rather than a
// hash of the manifest.
func New(message string, files []FileChange, parents ...string) *Commit {
	now := time.Now().UTC()
	if files == nil {
		files = []FileChange{}
	}
	return &Commit{
		ID:        utils.HashContent([]byte(message + strconv.FormatInt(now.UnixNano(), 10))),
		Message:   message,
		Files:     files,
		Parent:    Parents(parents),
		CreatedAt: now,
	}
}

// IsMerge reports whether c has two parents.
func (c *Commit) IsMerge() bool {
	return len(c.Parent) == 2
}

func (c *Commit) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("commit has empty id")
	}
	if len(c.Parent) > 2 {
		return fmt.Errorf("commit %s has %d parents", c.ID, len(c.Parent))
	}
	seen := make(map[string]bool, len(c.Files))
	for _, f := range c.Files {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("commit %s: %w", c.ID, err)
		}
		if seen[f.Path] {
			return fmt.Errorf("commit %s lists %s twice", c.ID, f.Path)
		}
		seen[f.Path] = true
	}
	return nil
}

// isRelativePath reports whether p is a clean slash-separated path that
// stays inside the working root.
func isRelativePath(p string) bool {
	if path.IsAbs(p) || path.Clean(p) != p || strings.Contains(p, "\\") {
		return false
	}
	return p != "." && p != ".." && !strings.HasPrefix(p, "../")
}

func isDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, r := range s {
		if !('0' <= r && r <= '9' || 'a' <= r && r <= 'f') {
			return false
		}
	}
	return true
}
