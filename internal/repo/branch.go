// internal/repo/branch.go
package repo

import (
	"fmt"
	"strings"

	"vsx/internal/branch"
	"vsx/internal/errors"

	"go.uber.org/zap"
)

// Branches lists every branch name, sorted.
func (r *Repository) Branches() ([]string, error) {
	return r.registry.Names()
}

// Branch loads the record for name.
func (r *Repository) Branch(name string) (*branch.Branch, error) {
	return r.registry.Get(name)
}

// CreateBranch forks name from base, or from the current branch when base
// is empty. The new branch starts at base's head with an empty history.
func (r *Repository) CreateBranch(name, base string) (*branch.Branch, error) {
	log := r.Logger.Operation("branch")

	if err := branch.ValidateName(name); err != nil {
		return nil, errors.ValidationError(err.Error(), name)
	}

	parent, err := r.resolveBranch(base)
	if err != nil {
		return nil, err
	}

	b := branch.New(name, parent)
	if err := r.registry.Create(b); err != nil {
		return nil, err
	}

	log.Info("created branch",
		zap.String("branch", name),
		zap.String("parent", parent.Name),
		zap.String("base", b.BaseCommit))
	return b, nil
}

// DeleteBranch removes the record for name. The checked-out branch and any
// branch another one forks from are kept, since their histories feed other
// trees. Commits stay in the graph.
func (r *Repository) DeleteBranch(name string) error {
	log := r.Logger.Operation("branch")

	exists, err := r.registry.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return errors.UnknownBranch(name)
	}

	current, err := r.CurrentBranch()
	if err != nil {
		return err
	}
	if current == name {
		return errors.ValidationError(fmt.Sprintf("cannot delete the checked-out branch %s", name), name)
	}

	all, err := r.registry.All()
	if err != nil {
		return err
	}
	var children []string
	for _, b := range all {
		if b.ParentBranch == name {
			children = append(children, b.Name)
		}
	}
	if len(children) > 0 {
		return errors.ValidationError(
			fmt.Sprintf("branch %s is the parent of %s", name, strings.Join(children, ", ")), children)
	}

	if err := r.registry.Delete(name); err != nil {
		return err
	}
	log.Info("deleted branch", zap.String("branch", name))
	return nil
}
