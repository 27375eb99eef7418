package repo

import (
	"os"
	"path/filepath"
	"testing"

	"vsx/internal/commit"
	"vsx/internal/errors"
	"vsx/internal/merge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_DescendantNeverConflicts(t *testing.T) {
	r := newTestRepo(t)
	c1 := commitFiles(t, r, "c1", map[string]string{"a.txt": "x"})

	_, err := r.CreateBranch("feature", "")
	require.NoError(t, err)
	require.NoError(t, r.Checkout("feature"))
	c2 := commitFiles(t, r, "c2", map[string]string{"a.txt": "y", "f.txt": "new"})
	require.NoError(t, r.Checkout("main"))

	result, err := r.Merge("feature", "main")
	require.NoError(t, err)
	require.NotNil(t, result.Commit)
	assert.Empty(t, result.Conflicts)
	assert.Equal(t, c1, result.Ancestor)

	mc := result.Commit
	assert.True(t, mc.IsMerge())
	assert.Equal(t, commit.Parents{c1, c2}, mc.Parent)
	assert.Equal(t, "Merge branch 'feature' into main", mc.Message)

	main, err := r.Branch("main")
	require.NoError(t, err)
	assert.Equal(t, mc.ID, main.Head)
	assert.Equal(t, []string{c1, mc.ID}, main.CommitHistory)

	feature, err := r.Branch("feature")
	require.NoError(t, err)
	assert.Equal(t, c2, feature.Head, "source branch is not moved")

	// main is checked out, so its working tree now carries the merge.
	assert.Equal(t, "y", readFile(t, r, "a.txt"))
	assert.Equal(t, "new", readFile(t, r, "f.txt"))
}

func TestMerge_DivergedEditConflicts(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "c1", map[string]string{"a.txt": "base\n", "same.txt": "s"})

	_, err := r.CreateBranch("feature", "")
	require.NoError(t, err)
	require.NoError(t, r.Checkout("feature"))
	commitFiles(t, r, "feature edit", map[string]string{"a.txt": "feature\n"})

	require.NoError(t, r.Checkout("main"))
	commitFiles(t, r, "main edit", map[string]string{"a.txt": "main"})

	mainBefore, err := r.History("main")
	require.NoError(t, err)
	featureBefore, err := r.History("feature")
	require.NoError(t, err)
	graphBefore := len(r.Log())

	result, err := r.Merge("feature", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMergeConflict)
	assert.Equal(t, errors.CodeConflict, errors.ExitCode(err))

	require.NotNil(t, result)
	assert.Nil(t, result.Commit)
	assert.Equal(t, map[string]string{"a.txt": merge.ReasonDiverged}, result.Conflicts)

	assert.Equal(t,
		"<<<<<<< current (main)\nmain\n=======\nfeature\n>>>>>>> incoming (feature)\n",
		readFile(t, r, "a.txt"))

	mainAfter, err := r.History("main")
	require.NoError(t, err)
	featureAfter, err := r.History("feature")
	require.NoError(t, err)
	assert.Equal(t, ids(mainBefore), ids(mainAfter))
	assert.Equal(t, ids(featureBefore), ids(featureAfter))
	assert.Len(t, r.Log(), graphBefore)
}

func TestMerge_SourceDeletionIsApplied(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "c1", map[string]string{"a.txt": "a", "b.txt": "b"})

	_, err := r.CreateBranch("feature", "")
	require.NoError(t, err)
	require.NoError(t, r.Checkout("feature"))
	require.NoError(t, os.Remove(filepath.Join(r.Root, "b.txt")))
	_, err = r.Stage("b.txt", commit.OpDelete)
	require.NoError(t, err)
	_, err = r.Commit("drop b")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("main"))
	assert.Equal(t, "b", readFile(t, r, "b.txt"))
	commitFiles(t, r, "unrelated", map[string]string{"c.txt": "c"})

	result, err := r.Merge("feature", "main")
	require.NoError(t, err)
	assert.Empty(t, result.Conflicts)
	assert.Contains(t, result.Files, commit.FileChange{Path: "b.txt", Operation: commit.OpDelete})

	assert.False(t, fileExists(r, "b.txt"))
	assert.Equal(t, "a", readFile(t, r, "a.txt"))
	assert.Equal(t, "c", readFile(t, r, "c.txt"))

	report, err := r.Diff("main", "feature")
	require.NoError(t, err)
	assert.Equal(t, []string{"c.txt"}, report.OnlyIn1)
	assert.Empty(t, report.OnlyIn2)
}

func TestMerge_DeleteModifyConflict(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "c1", map[string]string{"b.txt": "b"})

	_, err := r.CreateBranch("feature", "")
	require.NoError(t, err)
	require.NoError(t, r.Checkout("feature"))
	require.NoError(t, os.Remove(filepath.Join(r.Root, "b.txt")))
	_, err = r.Add("b.txt")
	require.NoError(t, err)
	_, err = r.Commit("drop b")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("main"))
	commitFiles(t, r, "edit b", map[string]string{"b.txt": "edited"})

	result, err := r.Merge("feature", "")
	assert.ErrorIs(t, err, errors.ErrMergeConflict)
	assert.Equal(t, merge.ReasonDeletedInSource, result.Conflicts["b.txt"])
	assert.Equal(t,
		"<<<<<<< current (main)\nedited\n=======\n>>>>>>> incoming (feature)\n",
		readFile(t, r, "b.txt"))

	// The other direction reports the mirrored reason.
	result, err = r.Merge("main", "feature")
	assert.ErrorIs(t, err, errors.ErrMergeConflict)
	assert.Equal(t, merge.ReasonDeletedInTarget, result.Conflicts["b.txt"])
}

func TestMerge_IntoNonCurrentTarget(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "c1", map[string]string{"a.txt": "x"})
	_, err := r.CreateBranch("feature", "")
	require.NoError(t, err)
	commitFiles(t, r, "c2", map[string]string{"main.txt": "m"})

	result, err := r.Merge("main", "feature")
	require.NoError(t, err)
	require.NotNil(t, result.Commit)

	assert.True(t, fileExists(r, "main.txt"))
	current, err := r.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "main", current)

	require.NoError(t, r.Checkout("feature"))
	assert.Equal(t, "m", readFile(t, r, "main.txt"))
}

func TestMerge_IntoTargetWithoutCommits(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.CreateBranch("feature", "")
	require.NoError(t, err)
	require.NoError(t, r.Checkout("feature"))
	c1 := commitFiles(t, r, "c1", map[string]string{"a.txt": "x"})

	require.NoError(t, r.Checkout("main"))
	assert.False(t, fileExists(r, "a.txt"))

	result, err := r.Merge("feature", "main")
	require.NoError(t, err)
	require.NotNil(t, result.Commit)
	assert.Empty(t, result.Ancestor)
	assert.Equal(t, commit.Parents{c1}, result.Commit.Parent)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "a.txt", result.Files[0].Path)

	main, err := r.Branch("main")
	require.NoError(t, err)
	assert.Equal(t, []string{result.Commit.ID}, main.CommitHistory)
	assert.Equal(t, result.Commit.ID, main.Head)
	assert.Equal(t, "x", readFile(t, r, "a.txt"))
}

func TestMerge_Errors(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.CreateBranch("empty", "")
	require.NoError(t, err)

	_, err = r.Merge("empty", "main")
	assert.ErrorIs(t, err, errors.ErrNoCommits)

	commitFiles(t, r, "c1", map[string]string{"a.txt": "x"})
	_, err = r.Merge("empty", "main")
	assert.ErrorIs(t, err, errors.ErrNoCommits)

	_, err = r.Merge("nope", "main")
	assert.ErrorIs(t, err, errors.ErrUnknownBranch)
	_, err = r.Merge("main", "nope")
	assert.ErrorIs(t, err, errors.ErrUnknownBranch)

	_, err = r.Merge("main", "")
	assert.ErrorIs(t, err, errors.ErrValidation)
}
