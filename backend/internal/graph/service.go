package graph

import (
	"context"

	"podcast-insights/backend/internal/constants"
	"podcast-insights/backend/internal/utils"
	apperrors "podcast-insights/backend/pkg/errors"
)

// Service answers graph queries against the current cached graph
type Service struct {
	builder *Builder
}

// NewService creates a query service over builder
func NewService(builder *Builder) *Service {
	return &Service{builder: builder}
}

// Builder exposes the underlying builder
func (s *Service) Builder() *Builder {
	return s.builder
}

// Subgraph returns the neighborhood of nodeID within depth hops
func (s *Service) Subgraph(ctx context.Context, nodeID string, depth int) (*Subgraph, error) {
	if depth < 1 || depth > constants.MaxTraversalDepth {
		return nil, apperrors.NewInvalidArgument("depth", "must be between 1 and 6")
	}
	g, err := s.builder.BuildFullGraph(ctx, false)
	if err != nil {
		return nil, err
	}
	return g.Subgraph(nodeID, depth)
}

// Search finds nodes whose label or Arabic label matches query
func (s *Service) Search(ctx context.Context, query string, types []NodeType, limit int) ([]*Node, error) {
	if limit < 0 {
		return nil, apperrors.NewInvalidArgument("limit", "must not be negative")
	}
	if utils.NormalizeLabel(query) == "" {
		return nil, apperrors.NewInvalidArgument("q", "search query must not be blank")
	}
	g, err := s.builder.BuildFullGraph(ctx, false)
	if err != nil {
		return nil, err
	}
	results, err := g.Search(query, types)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// MostConnected ranks the best-connected nodes, optionally of one type
func (s *Service) MostConnected(ctx context.Context, limit int, nodeType NodeType) ([]RankedNode, error) {
	if limit < 1 {
		return nil, apperrors.NewInvalidArgument("limit", "must be at least 1")
	}
	g, err := s.builder.BuildFullGraph(ctx, false)
	if err != nil {
		return nil, err
	}
	return g.MostConnected(limit, nodeType)
}

// FindPath returns a shortest path between two nodes, or nil when none
// exists within maxDepth hops
func (s *Service) FindPath(ctx context.Context, fromID, toID string, maxDepth int) (*Path, error) {
	if maxDepth < 1 || maxDepth > constants.MaxTraversalDepth {
		return nil, apperrors.NewInvalidArgument("maxDepth", "must be between 1 and 6")
	}
	g, err := s.builder.BuildFullGraph(ctx, false)
	if err != nil {
		return nil, err
	}
	return g.FindPath(fromID, toID, maxDepth)
}
