package profile

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"podcast-insights/backend/internal/graph"
	"podcast-insights/backend/internal/metrics"
	apperrors "podcast-insights/backend/pkg/errors"
	"podcast-insights/backend/pkg/logger"
)

// GraphSource supplies the graph used to resolve entity tags
type GraphSource interface {
	BuildFullGraph(ctx context.Context, forceRefresh bool) (*graph.Graph, error)
}

// Service builds, updates and stores profiles. Updates for one user are
// applied one at a time; different users proceed independently.
type Service struct {
	store        Store
	source       GraphSource
	historyLimit int
	halfLife     time.Duration
	now          func() time.Time
	locks        *keyedMutex
	logger       *zap.Logger
}

// ServiceConfig holds the aggregation limits
type ServiceConfig struct {
	HistoryLimit int
	HalfLife     time.Duration
}

// NewService creates a profile service. source may be nil, in which case
// events are aggregated with only the tags they carry.
func NewService(store Store, source GraphSource, cfg ServiceConfig) *Service {
	return &Service{
		store:        store,
		source:       source,
		historyLimit: cfg.HistoryLimit,
		halfLife:     cfg.HalfLife,
		now:          time.Now,
		locks:        newKeyedMutex(),
		logger:       logger.Named("profile"),
	}
}

// Build replaces the user's profile with one built from events
func (s *Service) Build(ctx context.Context, userID string, events []Event) (*UserProfile, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	p, err := s.aggregator(s.resolver(ctx)).BuildProfile(userID, events)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, p); err != nil {
		return nil, err
	}

	for _, e := range events {
		metrics.ProfileEvents.WithLabelValues(string(e.Type)).Inc()
	}
	s.logger.Info("Profile built",
		zap.String("user_id", userID),
		zap.Int("events", len(events)),
		zap.Float64("engagement", p.EngagementScore),
	)
	return p, nil
}

// Record folds one event into the user's stored profile, creating the
// profile on first interaction
func (s *Service) Record(ctx context.Context, userID string, event Event) (*UserProfile, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	existing, err := s.store.Get(ctx, userID)
	if apperrors.IsNotFound(err) {
		existing = NewUserProfile(userID)
	} else if err != nil {
		return nil, err
	}

	p, err := s.aggregator(s.resolver(ctx)).UpdateProfile(existing, event)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, p); err != nil {
		return nil, err
	}

	metrics.ProfileEvents.WithLabelValues(string(event.Type)).Inc()
	s.logger.Debug("Profile updated",
		zap.String("user_id", userID),
		zap.String("event_type", string(event.Type)),
		zap.Int("events", p.EventCount),
	)
	return p, nil
}

// Get returns the stored profile, or NotFound
func (s *Service) Get(ctx context.Context, userID string) (*UserProfile, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, userID)
}

// GetOrEmpty returns the stored profile or an empty one for unknown users
func (s *Service) GetOrEmpty(ctx context.Context, userID string) (*UserProfile, error) {
	p, err := s.Get(ctx, userID)
	if apperrors.IsNotFound(err) {
		return NewUserProfile(userID), nil
	}
	return p, err
}

// EngagementNow reports the profile's engagement decayed to the current time
func (s *Service) EngagementNow(p *UserProfile) float64 {
	return s.aggregator(nil).EngagementAt(p, s.now())
}

func (s *Service) aggregator(r Resolver) *Aggregator {
	return NewAggregator(
		WithResolver(r),
		WithHistoryLimit(s.historyLimit),
		WithHalfLife(s.halfLife),
		WithClock(s.now),
	)
}

// resolver returns a graph-backed resolver. When the graph cannot be built
// events are still recorded with the tags they carry.
func (s *Service) resolver(ctx context.Context) Resolver {
	if s.source == nil {
		return nil
	}
	g, err := s.source.BuildFullGraph(ctx, false)
	if err != nil {
		s.logger.Warn("Graph unavailable, aggregating without entity tags", zap.Error(err))
		return nil
	}
	return NewGraphResolver(g)
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.NewInvalidArgument("userId", "must not be empty")
	}
	return nil
}
