package cache

import (
	"path/filepath"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPut_IsAppendOnlyAndIdempotent(t *testing.T) {
	store := openStore(t)
	e := &nostr.Event{ID: "ev1", Kind: 1617, Content: "patch"}

	fresh, err := store.Put(e)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.Put(e)
	require.NoError(t, err)
	assert.False(t, fresh, "re-inserting a cached event is a no-op")

	n, err := store.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestQuery_FiltersByKindAndTags(t *testing.T) {
	store := openStore(t)
	patch := &nostr.Event{ID: "p1", Kind: 1617, Tags: nostr.Tags{{"a", "30617:pk:repo"}, {"t", "root"}}}
	status := &nostr.Event{ID: "s1", Kind: 1632, Tags: nostr.Tags{{"e", "p1"}}}
	other := &nostr.Event{ID: "x1", Kind: 1, Content: "unrelated note"}
	for _, e := range []*nostr.Event{patch, status, other} {
		_, err := store.Put(e)
		require.NoError(t, err)
	}

	got, err := store.Query(nostr.Filter{
		Kinds: []int{1617},
		Tags:  nostr.TagMap{"a": []string{"30617:pk:repo"}, "t": []string{"root"}},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)

	got, err = store.Query(nostr.Filter{Kinds: []int{1632}, Tags: nostr.TagMap{"e": []string{"p1"}}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)
}

func TestQuery_MultipleFiltersUnion(t *testing.T) {
	store := openStore(t)
	for _, e := range []*nostr.Event{
		{ID: "a", Kind: 1617},
		{ID: "b", Kind: 1632},
		{ID: "c", Kind: 1},
	} {
		_, err := store.Put(e)
		require.NoError(t, err)
	}

	got, err := store.Query(nostr.Filter{Kinds: []int{1617}}, nostr.Filter{Kinds: []int{1632}})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestQuery_SnapshotSurvivesLaterAppends(t *testing.T) {
	store := openStore(t)
	_, err := store.Put(&nostr.Event{ID: "a", Kind: 1617})
	require.NoError(t, err)

	snapshot, err := store.Query(nostr.Filter{Kinds: []int{1617}})
	require.NoError(t, err)

	_, err = store.Put(&nostr.Event{ID: "b", Kind: 1617})
	require.NoError(t, err)
	assert.Len(t, snapshot, 1)
}

func TestOpen_Reopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	store, err := Open(path)
	require.NoError(t, err)
	_, err = store.Put(&nostr.Event{ID: "a", Kind: 1617})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()
	n, err := store.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
