package profile

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "podcast-insights/backend/pkg/errors"
	"podcast-insights/backend/pkg/logger"
)

// ============================================================================
// Neo4j Profile Store
// ============================================================================

// Neo4jStore keeps each profile as a JSON document on a (:User) node
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewNeo4jStore creates a profile store on driver
func NewNeo4jStore(driver neo4j.DriverWithContext, database string) *Neo4jStore {
	return &Neo4jStore{
		driver:   driver,
		database: database,
		logger:   logger.Named("profile"),
	}
}

// Get loads the profile stored for userID
func (s *Neo4jStore) Get(ctx context.Context, userID string) (*UserProfile, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $userID})
		WHERE u.profile IS NOT NULL
		RETURN u.profile as profile
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID": userID,
	})
	if err != nil {
		return nil, apperrors.NewStoreFailure(ctx, "get profile", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, apperrors.NewStoreFailure(ctx, "get profile", err)
		}
		return nil, apperrors.NewNotFound("profile", userID)
	}

	raw, _ := result.Record().Get("profile")
	doc, ok := raw.(string)
	if !ok {
		return nil, apperrors.NewMalformedRecord("profile", userID, "profile", nil)
	}

	var p UserProfile
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, apperrors.NewMalformedRecord("profile", userID, "profile", err)
	}
	if p.TopicStats == nil {
		p.TopicStats = map[string]Tally{}
	}
	if p.MoodStats == nil {
		p.MoodStats = map[string]Tally{}
	}
	if p.ToneStats == nil {
		p.ToneStats = map[string]Tally{}
	}
	return &p, nil
}

// Put writes the profile document, creating the user node when needed
func (s *Neo4jStore) Put(ctx context.Context, p *UserProfile) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return apperrors.NewMalformedRecord("profile", p.UserID, "profile", err)
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	query := `
		MERGE (u:User {id: $userID})
		ON CREATE SET u.first_seen = datetime($now)
		SET u.profile = $profile,
			u.engagement_score = $engagement,
			u.last_seen = datetime($now)
	`

	_, err = session.Run(ctx, query, map[string]interface{}{
		"userID":     p.UserID,
		"profile":    string(doc),
		"engagement": p.EngagementScore,
		"now":        time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return apperrors.NewStoreFailure(ctx, "put profile", err)
	}

	s.logger.Debug("Profile stored",
		zap.String("user_id", p.UserID),
		zap.Int("events", p.EventCount),
	)
	return nil
}
