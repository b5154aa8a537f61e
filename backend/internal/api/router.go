package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"podcast-insights/backend/internal/graph"
	"podcast-insights/backend/internal/profile"
	"podcast-insights/backend/internal/recommend"
)

// Dependencies are the services the HTTP layer calls into
type Dependencies struct {
	Graphs          *graph.Service
	Profiles        *profile.Service
	Recommendations *recommend.Service
	Logger          *zap.Logger
}

// Handler holds the route handlers
type Handler struct {
	graphs   *graph.Service
	builder  *graph.Builder
	profiles *profile.Service
	recs     *recommend.Service
	log      *zap.Logger
}

// NewRouter wires every route onto a gin engine
func NewRouter(deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		graphs:   deps.Graphs,
		builder:  deps.Graphs.Builder(),
		profiles: deps.Profiles,
		recs:     deps.Recommendations,
		log:      log,
	}

	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(cors())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		g := api.Group("/graph")
		g.GET("", h.getGraph)
		g.GET("/types", h.getGraphByTypes)
		g.POST("/invalidate", h.invalidateGraph)
		g.GET("/nodes/:id/subgraph", h.getSubgraph)
		g.GET("/search", h.searchNodes)
		g.GET("/central", h.mostConnected)
		g.GET("/path", h.findPath)

		users := api.Group("/users/:id")
		users.POST("/profile", h.buildProfile)
		users.POST("/events", h.recordEvent)
		users.GET("/profile", h.getProfile)
		users.GET("/recommendations", h.recommendForUser)

		recs := api.Group("/recommendations")
		recs.GET("/similar/:id", h.recommendSimilar)
		recs.GET("/topic/:topic", h.recommendByTopic)
	}

	return router
}
