package repo

import (
	"os"
	"path/filepath"
	"testing"

	"vsx/internal/errors"
	"vsx/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T, opts ...Option) *Repository {
	t.Helper()
	t.Setenv("VSX_DEFAULT_BRANCH", "")
	t.Setenv("VSX_LOG_LEVEL", "")

	opts = append([]Option{WithLogger(logging.NewNop())}, opts...)
	r, err := Init(t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func writeFile(t *testing.T, r *Repository, rel, content string) {
	t.Helper()
	path := filepath.Join(r.Root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, r *Repository, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(r.Root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func fileExists(r *Repository, rel string) bool {
	_, err := os.Stat(filepath.Join(r.Root, filepath.FromSlash(rel)))
	return err == nil
}

// commitFiles writes and stages every file, then commits.
func commitFiles(t *testing.T, r *Repository, message string, files map[string]string) string {
	t.Helper()
	for rel, content := range files {
		writeFile(t, r, rel, content)
		_, err := r.Add(rel)
		require.NoError(t, err)
	}
	c, err := r.Commit(message)
	require.NoError(t, err)
	return c.ID
}

func TestInit(t *testing.T) {
	r := newTestRepo(t)

	branches, err := r.Branches()
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, branches)

	current, err := r.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "main", current)

	main, err := r.Branch("main")
	require.NoError(t, err)
	assert.Empty(t, main.Head)
	assert.Empty(t, main.BaseCommit)
	assert.Empty(t, main.ParentBranch)

	assert.Equal(t, ".vsx\n.vsxignore\n", readFile(t, r, ".vsxignore"))
	for _, name := range []string{"HEAD", "commits", "stage", "config", "objects", "branches"} {
		_, err := os.Stat(filepath.Join(r.Dir, name))
		assert.NoError(t, err, name)
	}
	assert.Empty(t, r.Log())

	_, err = Init(r.Root, WithLogger(logging.NewNop()))
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestInit_DefaultBranchFromEnvironment(t *testing.T) {
	t.Setenv("VSX_DEFAULT_BRANCH", "trunk")
	r, err := Init(t.TempDir(), WithLogger(logging.NewNop()))
	require.NoError(t, err)
	defer r.Close()

	current, err := r.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "trunk", current)

	branches, err := r.Branches()
	require.NoError(t, err)
	assert.Equal(t, []string{"trunk"}, branches)
}

func TestOpen_NotARepository(t *testing.T) {
	_, err := Open(t.TempDir(), WithLogger(logging.NewNop()))
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = Find(t.TempDir(), WithLogger(logging.NewNop()))
	assert.Error(t, err)
}

func TestReopenKeepsState(t *testing.T) {
	t.Setenv("VSX_DEFAULT_BRANCH", "")
	root := t.TempDir()
	r, err := Init(root, WithLogger(logging.NewNop()))
	require.NoError(t, err)

	c1 := commitFiles(t, r, "c1", map[string]string{"a.txt": "x"})
	_, err = r.CreateBranch("feature", "")
	require.NoError(t, err)
	require.NoError(t, r.Checkout("feature"))
	writeFile(t, r, "pending.txt", "p")
	_, err = r.Add("pending.txt")
	require.NoError(t, err)
	require.NoError(t, r.Close())

	sub := filepath.Join(root, "deep", "dir")
	require.NoError(t, os.MkdirAll(sub, 0755))
	r, err = Find(sub, WithLogger(logging.NewNop()))
	require.NoError(t, err)
	defer r.Close()

	current, err := r.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "feature", current)

	require.Len(t, r.Log(), 1)
	assert.Equal(t, c1, r.Log()[0].ID)
	require.Len(t, r.Staged(), 1)
	assert.Equal(t, "pending.txt", r.Staged()[0].Path)

	content, err := r.ReadBlob(r.Log()[0].Files[0].Hash)
	require.NoError(t, err)
	assert.Equal(t, "x", string(content))
}

func TestClone(t *testing.T) {
	t.Setenv("VSX_DEFAULT_BRANCH", "")
	src, err := Init(t.TempDir(), WithLogger(logging.NewNop()))
	require.NoError(t, err)
	commitFiles(t, src, "c1", map[string]string{"a.txt": "x", "dir/b.txt": "y"})
	_, err = src.CreateBranch("feature", "")
	require.NoError(t, err)
	require.NoError(t, src.Close())

	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, Clone(src.Root, dst))

	clone, err := Open(dst, WithLogger(logging.NewNop()))
	require.NoError(t, err)
	defer clone.Close()

	branches, err := clone.Branches()
	require.NoError(t, err)
	assert.Equal(t, []string{"feature", "main"}, branches)
	assert.Equal(t, "y", readFile(t, clone, "dir/b.txt"))

	require.NoError(t, clone.Checkout("feature"))
	assert.Equal(t, "x", readFile(t, clone, "a.txt"))

	assert.ErrorIs(t, Clone(t.TempDir(), filepath.Join(t.TempDir(), "x")), errors.ErrValidation)
}
