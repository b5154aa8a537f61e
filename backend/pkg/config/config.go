package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "podcast-insights/backend/pkg/errors"
)

// Store backends
const (
	BackendNeo4j   = "neo4j"
	BackendFixture = "fixture"
	BackendMemory  = "memory"
)

// Config holds all application configuration
type Config struct {
	// App
	Port     string
	Env      string
	LogLevel string

	// Entity store
	StoreBackend string // neo4j or fixture
	FixturePath  string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// Graph
	GraphCacheTTL time.Duration

	// Profiles
	ProfileStore        string // memory or neo4j
	ProfileCacheSize    int
	ProfileHistoryLimit int
	EngagementHalfLife  time.Duration

	// Recommendation weights
	WeightTopic        float64
	WeightCoOccurrence float64
	WeightPopularity   float64
	WeightRecency      float64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", ""),
		StoreBackend:        strings.ToLower(getEnv("STORE_BACKEND", BackendNeo4j)),
		FixturePath:         getEnv("FIXTURE_PATH", "fixtures/catalog.json"),
		Neo4jURI:            getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:           getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:       getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase:       getEnv("NEO4J_DATABASE", ""),
		GraphCacheTTL:       getEnvDuration("GRAPH_CACHE_TTL", 5*time.Minute),
		ProfileStore:        strings.ToLower(getEnv("PROFILE_STORE", BackendMemory)),
		ProfileCacheSize:    getEnvInt("PROFILE_CACHE_SIZE", 10000),
		ProfileHistoryLimit: getEnvInt("PROFILE_HISTORY_LIMIT", 200),
		EngagementHalfLife:  getEnvDuration("ENGAGEMENT_HALF_LIFE", 7*24*time.Hour),
		WeightTopic:         getEnvFloat("RECOMMEND_WEIGHT_TOPIC", 0.5),
		WeightCoOccurrence:  getEnvFloat("RECOMMEND_WEIGHT_COOCCURRENCE", 0.3),
		WeightPopularity:    getEnvFloat("RECOMMEND_WEIGHT_POPULARITY", 0.15),
		WeightRecency:       getEnvFloat("RECOMMEND_WEIGHT_RECENCY", 0.05),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendNeo4j, BackendFixture:
	default:
		return apperrors.NewConfigValidationFailed("STORE_BACKEND", fmt.Sprintf("unknown backend %q", c.StoreBackend))
	}
	switch c.ProfileStore {
	case BackendMemory, BackendNeo4j:
	default:
		return apperrors.NewConfigValidationFailed("PROFILE_STORE", fmt.Sprintf("unknown backend %q", c.ProfileStore))
	}

	if c.UsesNeo4j() {
		if c.Neo4jURI == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_URI")
		}
		if c.Neo4jUser == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_USER")
		}
		if c.Neo4jPassword == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
		}
	}
	if c.StoreBackend == BackendFixture && c.FixturePath == "" {
		return apperrors.NewConfigMissingRequired("FIXTURE_PATH")
	}

	if c.GraphCacheTTL <= 0 {
		return apperrors.NewConfigValidationFailed("GRAPH_CACHE_TTL", "must be positive")
	}
	if c.ProfileCacheSize <= 0 {
		return apperrors.NewConfigValidationFailed("PROFILE_CACHE_SIZE", "must be positive")
	}
	if c.ProfileHistoryLimit <= 0 {
		return apperrors.NewConfigValidationFailed("PROFILE_HISTORY_LIMIT", "must be positive")
	}
	if c.EngagementHalfLife <= 0 {
		return apperrors.NewConfigValidationFailed("ENGAGEMENT_HALF_LIFE", "must be positive")
	}

	weights := []float64{c.WeightTopic, c.WeightCoOccurrence, c.WeightPopularity, c.WeightRecency}
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return apperrors.NewConfigValidationFailed("RECOMMEND_WEIGHT_*", "weights cannot be negative")
		}
		sum += w
	}
	if sum == 0 {
		return apperrors.NewConfigValidationFailed("RECOMMEND_WEIGHT_*", "weights cannot all be zero")
	}
	return nil
}

// UsesNeo4j returns true if any component needs a Neo4j driver
func (c *Config) UsesNeo4j() bool {
	return c.StoreBackend == BackendNeo4j || c.ProfileStore == BackendNeo4j
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
