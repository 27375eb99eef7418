// internal/repo/stage.go
package repo

import (
	stderrors "errors"
	"fmt"
	"os"

	"vsx/internal/commit"
	"vsx/internal/errors"
	"vsx/internal/safe"
	"vsx/internal/stage"
	"vsx/internal/workspace"

	"go.uber.org/zap"
)

// Stage records a pending change for path. For add and modify the path must
// not be ignored and the working file is read and its blob stored; delete
// requires the path to be live in the current branch's tree. A later call
// for the same path replaces the earlier change.
func (r *Repository) Stage(path string, op commit.Operation) (*stage.Change, error) {
	log := r.Logger.Operation("stage")

	rel, err := r.rel(path)
	if err != nil {
		return nil, err
	}

	change := &stage.Change{Path: rel, Operation: op}
	switch op {
	case commit.OpAdd, commit.OpModify:
		if r.ignored(rel) {
			return nil, errors.IgnoredPath(rel)
		}
		content, err := r.ws.ReadFile(rel)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.NotFound(rel)
			}
			return nil, errors.ValidationError(err.Error(), rel)
		}
		if change.Hash, err = r.objects.Store(content); err != nil {
			return nil, fmt.Errorf("storing %s: %w", rel, err)
		}

	case commit.OpDelete:
		tree, err := r.headTree()
		if err != nil {
			return nil, err
		}
		if _, ok := tree[rel]; !ok {
			return nil, errors.NotTracked(rel)
		}

	default:
		return nil, errors.ValidationError(fmt.Sprintf("unknown operation %q", op), op)
	}

	replaced := r.staged.Get(rel) != nil
	if err := r.staged.Put(change); err != nil {
		return nil, err
	}

	log.Debug("staged change",
		zap.String("path", rel),
		zap.String("operation", string(op)),
		zap.String("hash", change.Hash),
		zap.Bool("replaced", replaced))
	return change, nil
}

// Add stages path with the operation implied by the working tree: delete
// when a tracked file is gone, modify when it is tracked, add otherwise.
func (r *Repository) Add(path string) (*stage.Change, error) {
	rel, err := r.rel(path)
	if err != nil {
		return nil, err
	}

	tree, err := r.headTree()
	if err != nil {
		return nil, err
	}
	_, tracked := tree[rel]

	switch {
	case !r.ws.Exists(rel) && tracked:
		return r.Stage(rel, commit.OpDelete)
	case !r.ws.Exists(rel):
		return nil, errors.NotFound(rel)
	case tracked:
		return r.Stage(rel, commit.OpModify)
	default:
		return r.Stage(rel, commit.OpAdd)
	}
}

// Unstage drops the pending change for path. It reports whether one
// existed.
func (r *Repository) Unstage(path string) (bool, error) {
	rel, err := r.rel(path)
	if err != nil {
		return false, err
	}
	return r.staged.Remove(rel)
}

// Staged returns the pending changes in staging order.
func (r *Repository) Staged() []*stage.Change {
	return r.staged.Changes()
}

// ReadBlob returns the content stored under hash. A missing blob or one
// whose bytes no longer match hash is a corrupt object.
func (r *Repository) ReadBlob(hash string) ([]byte, error) {
	content, err := r.objects.Get(hash)
	if err != nil {
		if stderrors.Is(err, safe.ErrContentNotFound) ||
			stderrors.Is(err, safe.ErrHashMismatch) ||
			stderrors.Is(err, safe.ErrInvalidHash) {
			return nil, errors.CorruptObject(hash, err)
		}
		return nil, fmt.Errorf("reading object %s: %w", hash, err)
	}
	return content, nil
}

func (r *Repository) rel(path string) (string, error) {
	rel, err := r.ws.Rel(path)
	if err != nil {
		if stderrors.Is(err, workspace.ErrOutsideRoot) {
			return "", errors.ValidationError(err.Error(), path)
		}
		return "", err
	}
	return rel, nil
}
