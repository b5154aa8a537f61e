package graph

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"podcast-insights/backend/internal/catalog"
	apperrors "podcast-insights/backend/pkg/errors"
)

func testSnapshot() catalog.Snapshot {
	return catalog.Snapshot{
		Episodes: []catalog.Episode{
			{ID: "156", Title: "Ep156", Topics: catalog.Tags{"habits", "productivity"}, Concepts: catalog.Tags{"compounding"}, Mood: "calm"},
		},
		Books: []catalog.Book{
			{ID: "atomic", Title: "Atomic Habits", Topics: catalog.Tags{"Habits"}, Mentions: 12},
		},
		Speakers: []catalog.Speaker{
			{ID: "ahmed", Name: "Ahmed"},
		},
		Quotes: []catalog.Quote{
			{ID: "q1", Text: "You do not rise to the level of your goals", BookID: "atomic", EpisodeID: "404"},
		},
		BookEpisodes: []catalog.BookEpisode{
			{BookID: "atomic", EpisodeID: "156"},
			{BookID: "atomic", EpisodeID: "156", Weight: 2},
			{BookID: "ghost", EpisodeID: "156"},
		},
		SpeakerEpisodes: []catalog.SpeakerEpisode{
			{SpeakerID: "ahmed", EpisodeID: "156"},
		},
	}
}

func newTestBuilder(store catalog.Store, cache *Cache) *Builder {
	return NewBuilder(store, cache, WithLogger(zap.NewNop()), WithClock(func() time.Time { return testBuiltAt }))
}

func TestBuildFullGraph_NodesAndEdges(t *testing.T) {
	b := newTestBuilder(catalog.NewMemoryStore(testSnapshot()), NewCache(time.Minute))

	g, err := b.BuildFullGraph(context.Background(), false)
	require.NoError(t, err)

	for _, id := range []string{"episode-156", "book-atomic", "speaker-ahmed", "quote-q1", "topic-habits", "topic-productivity", "concept-compounding"} {
		assert.Contains(t, g.Nodes, id)
	}
	assert.Equal(t, "habits", g.Nodes["topic-habits"].Label, "first spelling becomes the label")
	assert.Equal(t, 2, g.Nodes["topic-habits"].Metadata[MetaPopularity])
	assert.Equal(t, testBuiltAt, g.Metadata.BuiltAt)
	assert.Equal(t, len(g.Nodes), g.Metadata.NodeCount)
	assert.Equal(t, len(g.Edges), g.Metadata.EdgeCount)

	var discusses []Edge
	for _, e := range g.Edges {
		assert.Contains(t, g.Nodes, e.SourceID, "edge source must exist")
		assert.Contains(t, g.Nodes, e.TargetID, "edge target must exist")
		if e.Kind == EdgeDiscusses {
			discusses = append(discusses, e)
		}
	}
	require.Len(t, discusses, 1, "duplicate links merge and the ghost book is dropped")
	assert.InDelta(t, 3.0, discusses[0].Weight, 1e-9)

	assert.Equal(t, []string{"book-atomic"}, g.Neighbors("quote-q1"), "quote edge to a missing episode is dropped")
}

func TestBuildFullGraph_UsesCacheUntilInvalidated(t *testing.T) {
	store := catalog.NewMemoryStore(testSnapshot())
	b := newTestBuilder(store, NewCache(time.Hour))
	ctx := context.Background()

	first, err := b.BuildFullGraph(ctx, false)
	require.NoError(t, err)
	reads := store.Reads()

	second, err := b.BuildFullGraph(ctx, false)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, reads, store.Reads(), "cache hit must not touch the store")

	forced, err := b.BuildFullGraph(ctx, true)
	require.NoError(t, err)
	assert.NotSame(t, first, forced)

	b.Invalidate()
	_, ok := b.Cached()
	assert.False(t, ok)

	rebuilt, err := b.BuildFullGraph(ctx, false)
	require.NoError(t, err)
	assert.NotSame(t, forced, rebuilt)
}

func TestBuildFullGraph_FailureKeepsPreviousGraph(t *testing.T) {
	store := catalog.NewMemoryStore(testSnapshot())
	b := newTestBuilder(store, NewCache(time.Hour))
	ctx := context.Background()

	cached, err := b.BuildFullGraph(ctx, false)
	require.NoError(t, err)

	store.SetFailure(errors.New("connection refused"))
	_, err = b.BuildFullGraph(ctx, true)
	require.Error(t, err)
	assert.True(t, apperrors.IsStoreUnavailable(err))

	still, ok := b.Cached()
	require.True(t, ok)
	assert.Same(t, cached, still)
}

func TestBuildFullGraph_StoreUnavailableWithoutCache(t *testing.T) {
	store := catalog.NewMemoryStore(testSnapshot())
	store.SetFailure(errors.New("timeout"))
	b := newTestBuilder(store, NewCache(time.Hour))

	g, err := b.BuildFullGraph(context.Background(), false)
	assert.Nil(t, g)
	assert.True(t, apperrors.IsStoreUnavailable(err))
}

func TestBuildFullGraph_ConcurrentMissesShareOneGraph(t *testing.T) {
	b := newTestBuilder(catalog.NewMemoryStore(testSnapshot()), NewCache(time.Hour))

	const callers = 8
	graphs := make([]*Graph, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := b.BuildFullGraph(context.Background(), false)
			assert.NoError(t, err)
			graphs[i] = g
		}(i)
	}
	wg.Wait()

	cached, ok := b.Cached()
	require.True(t, ok)
	for _, g := range graphs {
		require.NotNil(t, g)
		assert.Equal(t, cached.Metadata.NodeCount, g.Metadata.NodeCount)
	}
}

// gatedStore holds episode reads until release is closed
type gatedStore struct {
	*catalog.MemoryStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedStore(s catalog.Snapshot) *gatedStore {
	return &gatedStore{
		MemoryStore: catalog.NewMemoryStore(s),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *gatedStore) ListEpisodes(ctx context.Context) ([]catalog.Episode, error) {
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, apperrors.NewContextCancelled("list episodes", ctx.Err())
	}
	return g.MemoryStore.ListEpisodes(ctx)
}

func TestBuildFullGraph_CancelledCallerDoesNotFailSharedBuild(t *testing.T) {
	store := newGatedStore(testSnapshot())
	b := newTestBuilder(store, NewCache(time.Hour))

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := b.BuildFullGraph(ctxA, false)
		errA <- err
	}()
	<-store.entered

	type outcome struct {
		g   *Graph
		err error
	}
	resB := make(chan outcome, 1)
	go func() {
		g, err := b.BuildFullGraph(context.Background(), false)
		resB <- outcome{g, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeContext))
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(store.release)
	select {
	case res := <-resB:
		require.NoError(t, res.err)
		require.NotNil(t, res.g)
		assert.Contains(t, res.g.Nodes, "book-atomic")
	case <-time.After(time.Second):
		t.Fatal("live caller did not return")
	}

	_, ok := b.Cached()
	assert.True(t, ok)
}

func TestBuildGraphByTypes(t *testing.T) {
	store := catalog.NewMemoryStore(testSnapshot())
	cache := NewCache(time.Hour)
	b := newTestBuilder(store, cache)

	g, err := b.BuildGraphByTypes(context.Background(), []NodeType{NodeTypeBook, NodeTypeEpisode})
	require.NoError(t, err)

	assert.Len(t, g.Nodes, 2)
	assert.Contains(t, g.Nodes, "book-atomic")
	assert.Contains(t, g.Nodes, "episode-156")
	require.Len(t, g.Edges, 1)
	assert.Equal(t, EdgeDiscusses, g.Edges[0].Kind)
	assert.Equal(t, []NodeType{NodeTypeBook, NodeTypeEpisode}, g.Metadata.Types)

	_, ok := cache.Get()
	assert.False(t, ok, "typed builds are not cached")
}

func TestBuildGraphByTypes_InvalidTypes(t *testing.T) {
	store := catalog.NewMemoryStore(testSnapshot())
	b := newTestBuilder(store, nil)

	_, err := b.BuildGraphByTypes(context.Background(), nil)
	assert.True(t, apperrors.IsInvalidArgument(err))

	_, err = b.BuildGraphByTypes(context.Background(), []NodeType{"podcast"})
	assert.True(t, apperrors.IsInvalidArgument(err))
	assert.Equal(t, 0, store.Reads(), "validation happens before any read")
}

func TestBuildFullGraph_MalformedFixtureAbortsBuild(t *testing.T) {
	_, err := catalog.LoadFixture("../catalog/testdata/malformed.json")
	require.Error(t, err)

	wrapped := storeError("load fixture", err)
	assert.True(t, apperrors.IsStoreUnavailable(wrapped))
	assert.False(t, apperrors.IsRetryable(wrapped))
}
