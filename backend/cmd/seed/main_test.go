package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcast-insights/backend/internal/catalog"
)

func TestImportSteps(t *testing.T) {
	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	steps := importSteps(catalog.Snapshot{
		Episodes:     []catalog.Episode{{ID: "156", Title: "Ep156", Topics: catalog.Tags{"habits"}, PublishedAt: published}},
		Books:        []catalog.Book{{ID: "atomic", Title: "Atomic Habits"}},
		BookEpisodes: []catalog.BookEpisode{{BookID: "atomic", EpisodeID: "156"}},
	})
	require.Len(t, steps, 7)

	byName := make(map[string]importStep, len(steps))
	for _, s := range steps {
		byName[s.name] = s
	}

	require.Len(t, byName["episodes"].rows, 1)
	ep := byName["episodes"].rows[0]
	assert.Equal(t, "156", ep["id"])
	assert.Equal(t, []string{"habits"}, ep["topics"])
	assert.Equal(t, published, ep["published_at"])

	book := byName["books"].rows[0]
	assert.Nil(t, book["published_at"])

	link := byName["book_episodes"].rows[0]
	assert.Equal(t, "atomic", link["from"])
	assert.Equal(t, 1.0, link["weight"])

	assert.Empty(t, byName["quotes"].rows)
	assert.Contains(t, byName["speaker_books"].query, "WROTE")
}

func TestDemoFixtureLoads(t *testing.T) {
	snap, err := catalog.ReadSnapshot("../../fixtures/catalog.json")
	require.NoError(t, err)
	assert.NotEmpty(t, snap.Episodes)
	assert.NotEmpty(t, snap.Books)

	for _, step := range importSteps(snap) {
		for _, row := range step.rows {
			if id, ok := row["id"]; ok {
				assert.NotEmpty(t, id, step.name)
			}
		}
	}
}
