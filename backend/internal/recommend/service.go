package recommend

import (
	"context"

	"podcast-insights/backend/internal/graph"
	"podcast-insights/backend/internal/profile"
)

// GraphSource supplies the current graph snapshot
type GraphSource interface {
	BuildFullGraph(ctx context.Context, forceRefresh bool) (*graph.Graph, error)
}

// ProfileSource supplies user profiles, empty for unknown users
type ProfileSource interface {
	GetOrEmpty(ctx context.Context, userID string) (*profile.UserProfile, error)
}

// Service resolves the graph and profile for a request and hands them to
// the scorer
type Service struct {
	graphs   GraphSource
	profiles ProfileSource
	scorer   *Scorer
}

// NewService creates a recommendation service
func NewService(graphs GraphSource, profiles ProfileSource, scorer *Scorer) *Service {
	return &Service{graphs: graphs, profiles: profiles, scorer: scorer}
}

// ForUser ranks entities for a stored profile
func (s *Service) ForUser(ctx context.Context, userID string, opts Options) (*Result, error) {
	p, err := s.profiles.GetOrEmpty(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.ForProfile(ctx, p, opts)
}

// ForProfile ranks entities for a caller-supplied profile
func (s *Service) ForProfile(ctx context.Context, p *profile.UserProfile, opts Options) (*Result, error) {
	g, err := s.graphs.BuildFullGraph(ctx, false)
	if err != nil {
		return nil, err
	}
	return s.scorer.Recommend(g, p, opts)
}

// Similar ranks entities like the seed node
func (s *Service) Similar(ctx context.Context, seedID string, limit int) (*Result, error) {
	g, err := s.graphs.BuildFullGraph(ctx, false)
	if err != nil {
		return nil, err
	}
	return s.scorer.RecommendSimilar(g, seedID, limit)
}

// ByTopic ranks entities about a topic
func (s *Service) ByTopic(ctx context.Context, topic string, limit int) (*Result, error) {
	g, err := s.graphs.BuildFullGraph(ctx, false)
	if err != nil {
		return nil, err
	}
	return s.scorer.RecommendByTopic(g, topic, limit)
}
