package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"podcast-insights/backend/internal/profile"
	"podcast-insights/backend/pkg/config"
)

const fixture = `{
  "episodes": [{"id": "1", "title": "Stoicism", "topics": "philosophy, focus"}],
  "books": [{"id": "meditations", "title": "Meditations", "topics": ["philosophy"]}],
  "speakers": [{"id": "host", "name": "Host"}],
  "book_episodes": [{"book_id": "meditations", "episode_id": "1"}],
  "speaker_episodes": [{"speaker_id": "host", "episode_id": "1"}]
}`

func fixtureConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	return &config.Config{
		Env:                 "test",
		StoreBackend:        config.BackendFixture,
		FixturePath:         path,
		GraphCacheTTL:       time.Minute,
		ProfileStore:        config.BackendMemory,
		ProfileCacheSize:    100,
		ProfileHistoryLimit: 50,
		EngagementHalfLife:  time.Hour,
		WeightTopic:         0.5,
		WeightCoOccurrence:  0.3,
		WeightPopularity:    0.15,
		WeightRecency:       0.05,
	}
}

func TestNewCatalogStore(t *testing.T) {
	cfg := fixtureConfig(t)
	store, err := newCatalogStore(cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, store)

	cfg.StoreBackend = config.BackendNeo4j
	_, err = newCatalogStore(cfg, nil)
	assert.Error(t, err)

	cfg.StoreBackend = "sqlite"
	_, err = newCatalogStore(cfg, nil)
	assert.Error(t, err)
}

func TestNewProfileStore_FallsBackToMemory(t *testing.T) {
	cfg := fixtureConfig(t)
	cfg.ProfileStore = config.BackendNeo4j

	_, ok := newProfileStore(cfg, nil).(*profile.MemoryStore)
	assert.True(t, ok)
}

func TestRouterServesFixtureGraph(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := fixtureConfig(t)
	store, err := newCatalogStore(cfg, nil)
	require.NoError(t, err)
	router := newRouter(cfg, store, newProfileStore(cfg, nil), zap.NewNop())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/graph", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Nodes    map[string]interface{} `json:"nodes"`
		Metadata struct {
			NodeCount int `json:"nodeCount"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response.Nodes, "book-meditations")
	assert.Contains(t, response.Nodes, "topic-philosophy")
	assert.Equal(t, len(response.Nodes), response.Metadata.NodeCount)
}
