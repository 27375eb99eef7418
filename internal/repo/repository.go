// internal/repo/repository.go
package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"vsx/internal/branch"
	"vsx/internal/commit"
	"vsx/internal/config"
	"vsx/internal/errors"
	"vsx/internal/ignore"
	"vsx/internal/logging"
	"vsx/internal/safe"
	"vsx/internal/stage"
	"vsx/internal/storage"
	"vsx/internal/workspace"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Files and directories inside the control directory.
const (
	headFile    = "HEAD"
	commitsFile = "commits"
	stageFile   = "stage"
	configFile  = "config"
	objectsDir  = "objects"
	branchesDir = "branches"
)

// Repository is an open repository. It owns every collection the engine
// reads and writes; nothing is shared between repositories.
type Repository struct {
	Root   string
	Dir    string
	Config *config.Config
	Logger *logging.Logger

	objects  *safe.Safe
	staged   *stage.Area
	graph    *commit.Graph
	registry *branch.Registry

	db      *badger.DB
	ws      *workspace.Workspace
	ignored func(string) bool
}

type Option func(*Repository)

// WithLogger replaces the logger built from the repository config.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Repository) {
		r.Logger = logger
	}
}

// WithIgnore replaces the .vsxignore predicate.
func WithIgnore(ignored func(string) bool) Option {
	return func(r *Repository) {
		r.ignored = ignored
	}
}

// Init creates a repository at path and returns it opened. The default
// branch exists from the start with no commits.
func Init(path string, opts ...Option) (*Repository, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(root, workspace.ControlDir)

	if _, err := os.Stat(dir); err == nil {
		return nil, errors.ValidationError(fmt.Sprintf("repository already exists at %s", root), root)
	}
	if err := os.MkdirAll(filepath.Join(dir, objectsDir), 0755); err != nil {
		return nil, fmt.Errorf("creating control directory: %w", err)
	}

	cfg, err := config.Load(filepath.Join(dir, configFile))
	if err != nil {
		return nil, err
	}
	if err := cfg.Save(filepath.Join(dir, configFile)); err != nil {
		return nil, err
	}
	if err := commit.Init(filepath.Join(dir, commitsFile)); err != nil {
		return nil, err
	}
	if err := stage.Init(filepath.Join(dir, stageFile)); err != nil {
		return nil, err
	}
	if err := writeHead(dir, cfg.Core.DefaultBranch); err != nil {
		return nil, err
	}

	ignorePath := filepath.Join(root, ignore.FileName)
	if _, err := os.Stat(ignorePath); os.IsNotExist(err) {
		if err := ignore.WriteDefault(ignorePath); err != nil {
			return nil, fmt.Errorf("writing %s: %w", ignore.FileName, err)
		}
	}

	r, err := Open(root, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.registry.Create(branch.New(cfg.Core.DefaultBranch, nil)); err != nil {
		r.Close()
		return nil, err
	}

	r.Logger.Info("initialized repository",
		zap.String("root", root),
		zap.String("branch", cfg.Core.DefaultBranch))
	return r, nil
}

// Open opens the repository whose working root is root.
func Open(root string, opts ...Option) (*Repository, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(root, workspace.ControlDir)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, errors.ValidationError(fmt.Sprintf("not a vsx repository: %s", root), root)
	}

	r := &Repository{Root: root, Dir: dir}
	for _, opt := range opts {
		opt(r)
	}

	if r.Config, err = config.Load(filepath.Join(dir, configFile)); err != nil {
		return nil, err
	}
	if r.Logger == nil {
		if r.Logger, err = logging.NewLogger(r.Config.Log.Level, r.Config.Log.Encoding); err != nil {
			return nil, fmt.Errorf("creating logger: %w", err)
		}
	}

	compression := safe.DefaultCompressionOptions()
	compression.Enabled = r.Config.Objects.Compress
	compression.Level = r.Config.Objects.CompressionLevel
	compression.MinSize = r.Config.Objects.MinCompressSize
	if r.objects, err = safe.New(safe.Options{
		Root:        filepath.Join(dir, objectsDir),
		CacheSize:   r.Config.Objects.CacheSize,
		Compression: compression,
	}); err != nil {
		return nil, fmt.Errorf("opening object store: %w", err)
	}

	if r.graph, err = commit.Load(filepath.Join(dir, commitsFile)); err != nil {
		return nil, err
	}
	if r.staged, err = stage.Load(filepath.Join(dir, stageFile)); err != nil {
		return nil, err
	}

	if r.ws, err = workspace.New(root); err != nil {
		return nil, err
	}
	if r.ignored == nil {
		m, err := ignore.Load(filepath.Join(root, ignore.FileName), workspace.ControlDir)
		if err != nil {
			return nil, err
		}
		r.ignored = m.Predicate()
	}

	if r.db, err = storage.Open(filepath.Join(dir, branchesDir)); err != nil {
		return nil, fmt.Errorf("opening branch registry: %w", err)
	}
	r.registry = branch.NewRegistry(r.db)

	return r, nil
}

// Find opens the repository containing start or one of its parents.
func Find(start string, opts ...Option) (*Repository, error) {
	root, err := workspace.FindRoot(start)
	if err != nil {
		return nil, errors.ValidationError(err.Error(), start)
	}
	return Open(root, opts...)
}

// Close releases the branch registry and its directory lock.
func (r *Repository) Close() error {
	r.Logger.Sync()
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Ignored reports whether the working path rel is excluded by .vsxignore.
func (r *Repository) Ignored(rel string) bool {
	return r.ignored(rel)
}

// Workspace returns the working directory handle.
func (r *Repository) Workspace() *workspace.Workspace {
	return r.ws
}

// Clone copies the repository at src, control directory included, to dst.
func Clone(src, dst string) error {
	root, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	if info, err := os.Stat(filepath.Join(root, workspace.ControlDir)); err != nil || !info.IsDir() {
		return errors.ValidationError(fmt.Sprintf("not a vsx repository: %s", root), root)
	}
	if err := workspace.CopyTree(root, dst); err != nil {
		return fmt.Errorf("cloning %s: %w", root, err)
	}
	return nil
}
