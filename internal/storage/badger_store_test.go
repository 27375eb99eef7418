package storage

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func (r *record) GetID() string { return r.Name }

func setupTestDB(t *testing.T) *badger.DB {
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBadgerStore_CRUD(t *testing.T) {
	store := NewBadgerStore(setupTestDB(t), "record")

	require.NoError(t, store.Create(&record{Name: "a", Value: 1}))
	assert.ErrorIs(t, store.Create(&record{Name: "a", Value: 2}), ErrExists)

	var got record
	require.NoError(t, store.Get("a", &got))
	assert.Equal(t, 1, got.Value)

	require.NoError(t, store.Update(&record{Name: "a", Value: 3}))
	require.NoError(t, store.Get("a", &got))
	assert.Equal(t, 3, got.Value)

	assert.ErrorIs(t, store.Update(&record{Name: "missing"}), ErrNotFound)
	assert.ErrorIs(t, store.Get("missing", &got), ErrNotFound)

	exists, err := store.Exists("a")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete("a"))
	exists, err = store.Exists("a")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.ErrorIs(t, store.Delete("a"), ErrNotFound)
}

func TestBadgerStore_EmptyID(t *testing.T) {
	store := NewBadgerStore(setupTestDB(t), "record")
	assert.Error(t, store.Create(&record{}))
	assert.Error(t, store.Update(&record{}))
}

func TestBadgerStore_ListAndIDsArePrefixScoped(t *testing.T) {
	db := setupTestDB(t)
	records := NewBadgerStore(db, "record")
	others := NewBadgerStore(db, "other")

	require.NoError(t, records.Create(&record{Name: "b", Value: 2}))
	require.NoError(t, records.Create(&record{Name: "a", Value: 1}))
	require.NoError(t, others.Create(&record{Name: "z", Value: 9}))

	ids, err := records.IDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	var list []record
	require.NoError(t, records.List(&list))
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "b", list[1].Name)
}
