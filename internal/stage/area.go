// internal/stage/area.go
package stage

import (
	"encoding/json"
	"fmt"
	"os"

	"vsx/internal/commit"
	"vsx/internal/errors"
	"vsx/internal/validation"
	"vsx/shared/utils"
)

// Change is a pending file change waiting for the next commit.
type Change struct {
	Path      string           `json:"path"`
	Operation commit.Operation `json:"operation"`
	Hash      string           `json:"hash,omitempty"`
}

func (c *Change) Validate() error {
	return c.FileChange().Validate()
}

// FileChange converts the staged change into a commit manifest entry.
func (c *Change) FileChange() commit.FileChange {
	return commit.FileChange{Path: c.Path, Operation: c.Operation, Hash: c.Hash}
}

// Area is the staging area persisted as a JSON array. It holds at most one
// change per path; order is the order paths were last staged.
type Area struct {
	path    string
	changes []*Change
}

func Load(path string) (*Area, error) {
	a := &Area{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return a, nil
		}
		return nil, fmt.Errorf("reading stage: %w", err)
	}
	if len(data) == 0 {
		return a, nil
	}

	var changes []*Change
	if err := json.Unmarshal(data, &changes); err != nil {
		return nil, errors.InvalidRecord("staged change", err)
	}
	if err := validation.Each("staged change", changes); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(changes))
	for _, c := range changes {
		if seen[c.Path] {
			return nil, errors.InvalidRecord("staged change", fmt.Errorf("path %s staged twice", c.Path))
		}
		seen[c.Path] = true
	}

	a.changes = changes
	return a, nil
}

// Put records change, replacing any earlier change for the same path.
func (a *Area) Put(change *Change) error {
	if err := change.Validate(); err != nil {
		return errors.InvalidRecord("staged change", err)
	}

	changes := append(a.without(change.Path), change)
	if err := a.save(changes); err != nil {
		return err
	}
	a.changes = changes
	return nil
}

// Remove drops the change for path. It reports whether one existed.
func (a *Area) Remove(path string) (bool, error) {
	if a.Get(path) == nil {
		return false, nil
	}

	changes := a.without(path)
	if err := a.save(changes); err != nil {
		return false, err
	}
	a.changes = changes
	return true, nil
}

func (a *Area) Clear() error {
	if err := a.save(nil); err != nil {
		return err
	}
	a.changes = nil
	return nil
}

func (a *Area) Get(path string) *Change {
	for _, c := range a.changes {
		if c.Path == path {
			return c
		}
	}
	return nil
}

// Changes returns the staged changes in staging order.
func (a *Area) Changes() []*Change {
	out := make([]*Change, len(a.changes))
	copy(out, a.changes)
	return out
}

func (a *Area) Len() int {
	return len(a.changes)
}

func (a *Area) without(path string) []*Change {
	out := make([]*Change, 0, len(a.changes))
	for _, c := range a.changes {
		if c.Path != path {
			out = append(out, c)
		}
	}
	return out
}

func (a *Area) save(changes []*Change) error {
	if changes == nil {
		changes = []*Change{}
	}
	data, err := json.MarshalIndent(changes, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding stage: %w", err)
	}
	if err := utils.SafeWrite(a.path, data, 0644); err != nil {
		return fmt.Errorf("writing stage: %w", err)
	}
	return nil
}

// Init writes an empty staging file at path.
func Init(path string) error {
	return (&Area{path: path}).save(nil)
}
