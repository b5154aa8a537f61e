package catalog

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "podcast-insights/backend/pkg/errors"
)

// The Neo4j tests need a disposable instance; set NEO4J_TEST_URI,
// NEO4J_TEST_USER and NEO4J_TEST_PASSWORD to run them.
func TestNeo4jStore_ReadsCatalog(t *testing.T) {
	driver := createTestDriver(t)
	ctx := context.Background()

	suffix := time.Now().Format("20060102150405.000")
	bookID := "test-book-" + suffix
	episodeID := "test-episode-" + suffix

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		CREATE (b:Book {id: $bookID, title: 'Test Book', topics: 'habits, focus', published_at: date('2020-01-02')})
		CREATE (e:Episode {id: $episodeID, title: 'Test Episode', topics: ['habits'], mood: 'calm'})
		CREATE (b)-[:DISCUSSED_IN {weight: 2.5}]->(e)
	`, map[string]interface{}{"bookID": bookID, "episodeID": episodeID})
	require.NoError(t, err)

	defer func() {
		_, _ = session.Run(ctx, "MATCH (n) WHERE n.id IN [$bookID, $episodeID] DETACH DELETE n",
			map[string]interface{}{"bookID": bookID, "episodeID": episodeID})
	}()

	store := NewNeo4jStore(driver, "")

	books, err := store.ListBooks(ctx)
	require.NoError(t, err)
	var found *Book
	for i := range books {
		if books[i].ID == bookID {
			found = &books[i]
		}
	}
	require.NotNil(t, found, "seeded book not returned")
	assert.Equal(t, Tags{"habits", "focus"}, found.Topics)
	assert.Equal(t, 2020, found.PublishedAt.Year())

	links, err := store.ListBookEpisodes(ctx)
	require.NoError(t, err)
	var weight float64
	for _, l := range links {
		if l.BookID == bookID && l.EpisodeID == episodeID {
			weight = l.Weight
		}
	}
	assert.InDelta(t, 2.5, weight, 1e-9)
}

func TestNeo4jStore_CancelledContext(t *testing.T) {
	// nothing listens here; the cancelled context fails the read first
	driver, err := neo4j.NewDriverWithContext("bolt://127.0.0.1:1", neo4j.NoAuth())
	require.NoError(t, err)
	t.Cleanup(func() { driver.Close(context.Background()) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewNeo4jStore(driver, "").ListEpisodes(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeContext))
	assert.False(t, apperrors.IsStoreUnavailable(err))
}

func createTestDriver(t *testing.T) neo4j.DriverWithContext {
	t.Helper()
	uri := os.Getenv("NEO4J_TEST_URI")
	if uri == "" || testing.Short() {
		t.Skip("Skipping integration test: NEO4J_TEST_URI not set")
	}
	user := os.Getenv("NEO4J_TEST_USER")
	if user == "" {
		user = "neo4j"
	}

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, os.Getenv("NEO4J_TEST_PASSWORD"), ""))
	require.NoError(t, err)

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		t.Skipf("Skipping integration test: %v", err)
	}
	t.Cleanup(func() { driver.Close(context.Background()) })
	return driver
}
