package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"podcast-insights/backend/internal/constants"
	"podcast-insights/backend/internal/graph"
	"podcast-insights/backend/internal/profile"
	"podcast-insights/backend/internal/recommend"
	apperrors "podcast-insights/backend/pkg/errors"
)

func (h *Handler) buildProfile(c *gin.Context) {
	var req struct {
		Events []profile.Event `json:"events"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.profiles.Build(c.Request.Context(), c.Param("id"), req.Events)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) recordEvent(c *gin.Context) {
	var event profile.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.profiles.Record(c.Request.Context(), c.Param("id"), event)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) getProfile(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile":           p,
		"currentEngagement": h.profiles.EngagementNow(p),
	})
}

func (h *Handler) recommendForUser(c *gin.Context) {
	limit, err := recommendationLimit(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	types, err := graph.ParseNodeTypes(listQuery(c, "types"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	res, err := h.recs.ForUser(c.Request.Context(), c.Param("id"), recommend.Options{
		Limit:      limit,
		ExcludeIDs: listQuery(c, "exclude"),
		Category:   c.Query("category"),
		Types:      types,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) recommendSimilar(c *gin.Context) {
	limit, err := recommendationLimit(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	res, err := h.recs.Similar(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) recommendByTopic(c *gin.Context) {
	limit, err := recommendationLimit(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	res, err := h.recs.ByTopic(c.Request.Context(), c.Param("topic"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// recommendationLimit reads limit, rejecting values outside 1..100
func recommendationLimit(c *gin.Context) (int, error) {
	limit, err := intQuery(c, "limit", constants.DefaultRecommendationLimit)
	if err != nil {
		return 0, err
	}
	if limit < 1 || limit > constants.MaxRecommendationLimit {
		return 0, apperrors.NewInvalidArgument("limit", "must be between 1 and 100")
	}
	return limit, nil
}
