// internal/branch/branch.go
package branch

import (
	"fmt"
	"strings"
	"time"
)

// Branch is a named line of development. BaseCommit is the parent
// branch's head at creation and never changes; CommitHistory holds only the
// commits made on this branch.
type Branch struct {
	Name          string    `json:"name"`
	BaseCommit    string    `json:"base_commit,omitempty"`
	Head          string    `json:"head,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	CommitHistory []string  `json:"commit_history"`
	ParentBranch  string    `json:"parent_branch,omitempty"`
}

func New(name string, parent *Branch) *Branch {
	b := &Branch{
		Name:          name,
		CreatedAt:     time.Now().UTC(),
		CommitHistory: []string{},
	}
	if parent != nil {
		b.BaseCommit = parent.Head
		b.Head = parent.Head
		b.ParentBranch = parent.Name
	}
	return b
}

func (b *Branch) GetID() string { return b.Name }

// Record advances the head to id.
func (b *Branch) Record(id string) {
	b.CommitHistory = append(b.CommitHistory, id)
	b.Head = id
}

// HasCommits reports whether the branch points at any commit, inherited or
// its own.
func (b *Branch) HasCommits() bool {
	return b.Head != ""
}

// IndexOf returns the position of id in the branch's own history, or -1.
func (b *Branch) IndexOf(id string) int {
	for i, c := range b.CommitHistory {
		if c == id {
			return i
		}
	}
	return -1
}

func (b *Branch) Validate() error {
	if err := ValidateName(b.Name); err != nil {
		return err
	}
	if n := len(b.CommitHistory); n > 0 {
		if b.Head != b.CommitHistory[n-1] {
			return fmt.Errorf("branch %s: head %q is not the last commit of its history", b.Name, b.Head)
		}
	} else if b.Head != b.BaseCommit {
		return fmt.Errorf("branch %s: head %q differs from base %q with empty history", b.Name, b.Head, b.BaseCommit)
	}
	if b.ParentBranch == b.Name {
		return fmt.Errorf("branch %s is its own parent", b.Name)
	}
	return nil
}

// ValidateName rejects names that cannot be stored or typed back.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("branch name is empty")
	}
	if strings.TrimSpace(name) != name || strings.ContainsAny(name, " \t\n:") {
		return fmt.Errorf("branch name %q contains whitespace or ':'", name)
	}
	return nil
}
