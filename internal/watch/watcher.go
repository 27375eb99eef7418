// internal/watch/watcher.go
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vsx/internal/stage"
	"vsx/internal/workspace"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Stager stages a working path, choosing add, modify or delete itself.
type Stager interface {
	Add(path string) (*stage.Change, error)
}

// Watcher stages working-tree changes as fsnotify reports them. Events are
// handled one at a time on the goroutine running Run.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	stager  Stager
	ignored func(string) bool
	logger  *zap.Logger
}

// New registers every non-ignored directory below root.
func New(root string, stager Stager, ignored func(string) bool, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	if ignored == nil {
		ignored = func(string) bool { return false }
	}
	w := &Watcher{
		root:    root,
		watcher: fw,
		stager:  stager,
		ignored: ignored,
		logger:  logger,
	}

	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// addTree adds dir and its subdirectories to the watch list.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.rel(path); ok && w.skip(rel) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("adding directory to watcher: %w", err)
		}
		return nil
	})
}

// Run processes events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

// handleEvent stages the path named by event. Creating a directory adds
// it to the watch and stages the files already inside it.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, ok := w.rel(event.Name)
	if !ok || w.skip(rel) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Error("watching new directory", zap.String("path", rel), zap.Error(err))
			}
			w.stageTree(event.Name)
			return
		}
	}

	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.stage(rel)
	}
}

func (w *Watcher) stageTree(dir string) {
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, ok := w.rel(path)
		if !ok {
			return nil
		}
		if w.skip(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			w.stage(rel)
		}
		return nil
	})
}

func (w *Watcher) stage(rel string) {
	change, err := w.stager.Add(rel)
	if err != nil {
		// Editors create and remove scratch files that were never tracked.
		w.logger.Debug("not staged", zap.String("path", rel), zap.Error(err))
		return
	}
	w.logger.Info("staged",
		zap.String("path", change.Path),
		zap.String("operation", string(change.Operation)))
}

func (w *Watcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) skip(rel string) bool {
	if rel == workspace.ControlDir || strings.HasPrefix(rel, workspace.ControlDir+"/") {
		return true
	}
	return w.ignored(rel)
}

// Close cleans up resources
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
