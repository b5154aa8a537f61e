package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"podcast-insights/backend/internal/constants"
	"podcast-insights/backend/internal/graph"
	apperrors "podcast-insights/backend/pkg/errors"
)

// getGraph returns the full graph, rebuilding when refresh=true
func (h *Handler) getGraph(c *gin.Context) {
	refresh, err := boolQuery(c, "refresh", false)
	if err != nil {
		h.respondError(c, err)
		return
	}

	g, err := h.builder.BuildFullGraph(c.Request.Context(), refresh)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) getGraphByTypes(c *gin.Context) {
	types, err := graph.ParseNodeTypes(listQuery(c, "types"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	g, err := h.builder.BuildGraphByTypes(c.Request.Context(), types)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) invalidateGraph(c *gin.Context) {
	h.builder.Invalidate()
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}

func (h *Handler) getSubgraph(c *gin.Context) {
	depth, err := intQuery(c, "depth", 1)
	if err != nil {
		h.respondError(c, err)
		return
	}

	sub, err := h.graphs.Subgraph(c.Request.Context(), c.Param("id"), depth)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) searchNodes(c *gin.Context) {
	limit, err := intQuery(c, "limit", constants.DefaultSearchLimit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	types, err := graph.ParseNodeTypes(listQuery(c, "types"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	results, err := h.graphs.Search(c.Request.Context(), c.Query("q"), types, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

func (h *Handler) mostConnected(c *gin.Context) {
	limit, err := intQuery(c, "limit", 10)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var nodeType graph.NodeType
	if raw := c.Query("type"); raw != "" {
		if nodeType, err = graph.ParseNodeType(raw); err != nil {
			h.respondError(c, err)
			return
		}
	}

	ranked, err := h.graphs.MostConnected(c.Request.Context(), limit, nodeType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nodes": ranked})
}

// findPath answers 200 with found=false when the nodes are not connected
// within maxDepth
func (h *Handler) findPath(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		h.respondError(c, apperrors.NewInvalidArgument("from/to", "both endpoints are required"))
		return
	}
	maxDepth, err := intQuery(c, "maxDepth", 3)
	if err != nil {
		h.respondError(c, err)
		return
	}

	path, err := h.graphs.FindPath(c.Request.Context(), from, to, maxDepth)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if path == nil {
		c.JSON(http.StatusOK, gin.H{"found": false, "path": nil, "edges": []graph.Edge{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"found":  true,
		"path":   path.Nodes,
		"edges":  path.Edges,
		"length": path.Length(),
	})
}
