package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkspace(t *testing.T) *Workspace {
	w, err := New(t.TempDir())
	require.NoError(t, err)
	return w
}

func TestWorkspace_Rel(t *testing.T) {
	w := newWorkspace(t)

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"a.txt", "a.txt", false},
		{"dir/../b.txt", "b.txt", false},
		{filepath.Join(w.Root, "x", "y.txt"), "x/y.txt", false},
		{"../escape.txt", "", true},
		{".", "", true},
		{"/somewhere/else", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := w.Rel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOutsideRoot)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWorkspace_ReadWriteRemove(t *testing.T) {
	w := newWorkspace(t)

	require.NoError(t, w.WriteFile("nested/dir/f.txt", []byte("hello")))
	assert.True(t, w.Exists("nested/dir/f.txt"))
	assert.False(t, w.Exists("nested/dir"))

	data, err := w.ReadFile("nested/dir/f.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, w.WriteFile("empty.txt", nil))
	data, err = w.ReadFile("empty.txt")
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = w.ReadFile("missing.txt")
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, w.Remove("nested/dir/f.txt"))
	assert.False(t, w.Exists("nested/dir/f.txt"))
	_, err = os.Stat(filepath.Join(w.Root, "nested"))
	assert.True(t, os.IsNotExist(err), "empty parents are pruned")

	assert.NoError(t, w.Remove("never/existed.txt"))
}

func TestWorkspace_WalkSkipsControlDir(t *testing.T) {
	w := newWorkspace(t)
	require.NoError(t, w.WriteFile(".vsx/HEAD", []byte("main")))
	require.NoError(t, w.WriteFile("a.txt", nil))
	require.NoError(t, w.WriteFile("build/out.bin", nil))
	require.NoError(t, w.WriteFile("src/main.go", nil))

	var seen []string
	err := w.Walk(func(rel string) bool { return rel == "build" }, func(rel string) error {
		seen = append(seen, rel)
		return nil
	})
	require.NoError(t, err)

	sort.Strings(seen)
	assert.Equal(t, []string{"a.txt", "src/main.go"}, seen)
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ControlDir), 0755))
	deep := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(deep, 0755))

	found, err := FindRoot(deep)
	require.NoError(t, err)
	want, err := filepath.Abs(root)
	require.NoError(t, err)
	assert.Equal(t, want, found)

	_, err = FindRoot(t.TempDir())
	if err == nil {
		// A control dir above the temp root would be found; the error path
		// is only meaningful on a clean filesystem.
		t.Skip("control directory present above temp dir")
	}
	assert.True(t, strings.Contains(err.Error(), ControlDir))
}

func TestCopyTree(t *testing.T) {
	src := newWorkspace(t)
	require.NoError(t, src.WriteFile("a.txt", []byte("a")))
	require.NoError(t, src.WriteFile(".vsx/objects/obj", []byte("o")))
	require.NoError(t, os.Chmod(src.Abs(".vsx/objects/obj"), 0444))

	dst := filepath.Join(t.TempDir(), "clone")
	require.NoError(t, CopyTree(src.Root, dst))

	data, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	data, err = os.ReadFile(filepath.Join(dst, ".vsx", "objects", "obj"))
	require.NoError(t, err)
	assert.Equal(t, "o", string(data))

	assert.Error(t, CopyTree(src.Root, dst), "destination exists")
	assert.Error(t, CopyTree(filepath.Join(src.Root, "a.txt"), filepath.Join(t.TempDir(), "x")))
}
