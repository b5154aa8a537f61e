package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"podcast-insights/backend/internal/api"
	"podcast-insights/backend/internal/catalog"
	"podcast-insights/backend/internal/graph"
	"podcast-insights/backend/internal/profile"
	"podcast-insights/backend/internal/recommend"
	"podcast-insights/backend/pkg/config"
	"podcast-insights/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...",
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("profile_store", cfg.ProfileStore),
	)

	// Initialize Neo4j driver when a component needs it
	var driver neo4j.DriverWithContext
	if cfg.UsesNeo4j() {
		driver, err = neo4j.NewDriverWithContext(
			cfg.Neo4jURI,
			neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
		)
		if err != nil {
			log.Fatal("Failed to create Neo4j driver", zap.Error(err))
		}
		defer driver.Close(context.Background())

		// Verify Neo4j connection
		if err := driver.VerifyConnectivity(context.Background()); err != nil {
			log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
		}
	}

	// Initialize dependencies
	catalogStore, err := newCatalogStore(cfg, driver)
	if err != nil {
		log.Fatal("Failed to open catalog store", zap.Error(err))
	}
	router := newRouter(cfg, catalogStore, newProfileStore(cfg, driver), log)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// newCatalogStore opens the entity store selected by STORE_BACKEND
func newCatalogStore(cfg *config.Config, driver neo4j.DriverWithContext) (catalog.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendFixture:
		return catalog.LoadFixture(cfg.FixturePath)
	case config.BackendNeo4j:
		if driver == nil {
			return nil, fmt.Errorf("neo4j backend selected without a driver")
		}
		return catalog.NewNeo4jStore(driver, cfg.Neo4jDatabase), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// newProfileStore opens the profile store selected by PROFILE_STORE
func newProfileStore(cfg *config.Config, driver neo4j.DriverWithContext) profile.Store {
	if cfg.ProfileStore == config.BackendNeo4j && driver != nil {
		return profile.NewNeo4jStore(driver, cfg.Neo4jDatabase)
	}
	return profile.NewMemoryStore(cfg.ProfileCacheSize)
}

// newRouter wires the graph, profile and recommendation services into the
// HTTP layer
func newRouter(cfg *config.Config, store catalog.Store, profiles profile.Store, log *zap.Logger) *gin.Engine {
	builder := graph.NewBuilder(store, graph.NewCache(cfg.GraphCacheTTL))

	profileSvc := profile.NewService(profiles, builder, profile.ServiceConfig{
		HistoryLimit: cfg.ProfileHistoryLimit,
		HalfLife:     cfg.EngagementHalfLife,
	})

	scorer := recommend.NewScorer(recommend.Weights{
		Topic:        cfg.WeightTopic,
		CoOccurrence: cfg.WeightCoOccurrence,
		Popularity:   cfg.WeightPopularity,
		Recency:      cfg.WeightRecency,
	})

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return api.NewRouter(api.Dependencies{
		Graphs:          graph.NewService(builder),
		Profiles:        profileSvc,
		Recommendations: recommend.NewService(builder, profileSvc, scorer),
		Logger:          log,
	})
}
