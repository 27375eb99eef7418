// internal/branch/registry.go
package branch

import (
	stderrors "errors"
	"fmt"

	"vsx/internal/errors"
	"vsx/internal/storage"
	"vsx/internal/validation"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "branch"

// Registry keeps one record per branch in badger, keyed by name.
type Registry struct {
	store *storage.BadgerStore
}

func NewRegistry(db *badger.DB) *Registry {
	return &Registry{store: storage.NewBadgerStore(db, keyPrefix)}
}

func (r *Registry) Create(b *Branch) error {
	if err := b.Validate(); err != nil {
		return errors.ValidationError(err.Error(), b.Name)
	}
	if err := r.store.Create(b); err != nil {
		if stderrors.Is(err, storage.ErrExists) {
			return errors.BranchExists(b.Name)
		}
		return fmt.Errorf("creating branch %s: %w", b.Name, err)
	}
	return nil
}

// Get loads and validates the branch record for name.
func (r *Registry) Get(name string) (*Branch, error) {
	var b Branch
	if err := r.store.Get(name, &b); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.UnknownBranch(name)
		}
		return nil, fmt.Errorf("loading branch %s: %w", name, err)
	}
	if err := validation.One("branch", &b); err != nil {
		return nil, err
	}
	if b.CommitHistory == nil {
		b.CommitHistory = []string{}
	}
	return &b, nil
}

// Save overwrites an existing branch record.
func (r *Registry) Save(b *Branch) error {
	if err := b.Validate(); err != nil {
		return errors.ValidationError(err.Error(), b.Name)
	}
	if err := r.store.Update(b); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.UnknownBranch(b.Name)
		}
		return fmt.Errorf("saving branch %s: %w", b.Name, err)
	}
	return nil
}

func (r *Registry) Exists(name string) (bool, error) {
	return r.store.Exists(name)
}

// Delete removes the record for name.
func (r *Registry) Delete(name string) error {
	if err := r.store.Delete(name); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.UnknownBranch(name)
		}
		return fmt.Errorf("deleting branch %s: %w", name, err)
	}
	return nil
}

// Names lists every branch name in sorted order.
func (r *Registry) Names() ([]string, error) {
	names, err := r.store.IDs()
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// All loads every branch record, sorted by name.
func (r *Registry) All() ([]*Branch, error) {
	var branches []*Branch
	if err := r.store.List(&branches); err != nil {
		return nil, err
	}
	if err := validation.Each("branch", branches); err != nil {
		return nil, err
	}
	return branches, nil
}
