package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "podcast-insights/backend/pkg/errors"
)

func TestLoadFixture(t *testing.T) {
	store, err := LoadFixture("testdata/catalog.json")
	require.NoError(t, err)

	ctx := context.Background()
	episodes, err := store.ListEpisodes(ctx)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, Tags{"habits", "productivity"}, episodes[0].Topics)
	assert.Equal(t, Tags{"compounding"}, episodes[0].Concepts)
	assert.Equal(t, 2024, episodes[0].PublishedAt.Year())

	books, err := store.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, Tags{"habits", "self-improvement"}, books[0].Topics)

	links, err := store.ListSpeakerEpisodes(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.InDelta(t, 2.0, LinkWeight(links[0].Weight), 1e-9)

	bookLinks, err := store.ListBookEpisodes(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, LinkWeight(bookLinks[0].Weight), 1e-9)
}

func TestLoadFixture_Malformed(t *testing.T) {
	_, err := LoadFixture("testdata/malformed.json")
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeData))
}

func TestReadSnapshot(t *testing.T) {
	s, err := ReadSnapshot("testdata/catalog.json")
	require.NoError(t, err)
	assert.Len(t, s.Speakers, 1)
	assert.Empty(t, s.Quotes)

	_, err = ReadSnapshot("testdata/missing.json")
	assert.Error(t, err)
}

func TestMemoryStore_Failure(t *testing.T) {
	store := NewMemoryStore(Snapshot{Books: []Book{{ID: "b1"}}})
	ctx := context.Background()

	store.SetFailure(fmt.Errorf("connection refused"))
	_, err := store.ListBooks(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsStoreUnavailable(err))

	store.SetFailure(nil)
	books, err := store.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1)
	assert.Equal(t, 2, store.Reads())
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := NewMemoryStore(Snapshot{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.ListQuotes(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeContext))
}
