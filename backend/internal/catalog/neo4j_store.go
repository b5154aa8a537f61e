package catalog

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "podcast-insights/backend/pkg/errors"
	"podcast-insights/backend/pkg/logger"
)

// Neo4jStore reads the catalog from Neo4j.
//
// Schema:
//
//	(:Episode {id, title, title_ar, topics, concepts, category, mood, tone, published_at, duration_seconds, views})
//	(:Book {id, title, title_ar, author, topics, category, published_at, mentions})
//	(:Speaker {id, name, name_ar, topics, followers})
//	(:Quote {id, text, text_ar, topics, episode_id, book_id, speaker_id})
//	(:Book)-[:DISCUSSED_IN {weight}]->(:Episode)
//	(:Speaker)-[:APPEARED_IN {weight}]->(:Episode)
//	(:Speaker)-[:WROTE {weight}]->(:Book)
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewNeo4jStore creates a catalog store. An empty database uses the server default.
func NewNeo4jStore(driver neo4j.DriverWithContext, database string) *Neo4jStore {
	return &Neo4jStore{
		driver:   driver,
		database: database,
		logger:   logger.Named("catalog"),
	}
}

// readAll runs a read query and decodes every record. Driver failures are
// reported as StoreUnavailable, or ContextCancelled once ctx is done. Decode
// failures keep their own type.
func readAll[T any](ctx context.Context, s *Neo4jStore, op, query string, decode func(*neo4j.Record) (T, error)) ([]T, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		s.logger.Error("Catalog query failed", zap.String("operation", op), zap.Error(err))
		return nil, apperrors.NewStoreFailure(ctx, op, err)
	}

	var items []T
	for result.Next(ctx) {
		item, err := decode(result.Record())
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewStoreFailure(ctx, op, err)
	}

	s.logger.Debug("Catalog read", zap.String("operation", op), zap.Int("rows", len(items)))
	return items, nil
}

func parseTags(record *neo4j.Record, entity, id, key string) (Tags, error) {
	tags, err := ParseTopics(getRawFromRecord(record, key))
	if err != nil {
		return nil, apperrors.NewMalformedRecord(entity, id, key, err)
	}
	return tags, nil
}

// ListEpisodes returns every episode
func (s *Neo4jStore) ListEpisodes(ctx context.Context) ([]Episode, error) {
	query := `
		MATCH (e:Episode)
		RETURN e.id as id, e.title as title, e.title_ar as title_ar,
		       e.topics as topics, e.concepts as concepts, e.category as category,
		       e.mood as mood, e.tone as tone, e.published_at as published_at,
		       e.duration_seconds as duration_seconds, e.views as views
		ORDER BY id
	`
	return readAll(ctx, s, "list episodes", query, func(record *neo4j.Record) (Episode, error) {
		ep := Episode{
			ID:              getStringFromRecord(record, "id"),
			Title:           getStringFromRecord(record, "title"),
			TitleAr:         getStringFromRecord(record, "title_ar"),
			Category:        getStringFromRecord(record, "category"),
			Mood:            getStringFromRecord(record, "mood"),
			Tone:            getStringFromRecord(record, "tone"),
			PublishedAt:     getTimeFromRecord(record, "published_at"),
			DurationSeconds: getIntFromRecord(record, "duration_seconds"),
			Views:           getIntFromRecord(record, "views"),
		}
		var err error
		if ep.Topics, err = parseTags(record, "episode", ep.ID, "topics"); err != nil {
			return Episode{}, err
		}
		if ep.Concepts, err = parseTags(record, "episode", ep.ID, "concepts"); err != nil {
			return Episode{}, err
		}
		return ep, nil
	})
}

// ListBooks returns every book
func (s *Neo4jStore) ListBooks(ctx context.Context) ([]Book, error) {
	query := `
		MATCH (b:Book)
		RETURN b.id as id, b.title as title, b.title_ar as title_ar, b.author as author,
		       b.topics as topics, b.category as category, b.published_at as published_at,
		       b.mentions as mentions
		ORDER BY id
	`
	return readAll(ctx, s, "list books", query, func(record *neo4j.Record) (Book, error) {
		book := Book{
			ID:          getStringFromRecord(record, "id"),
			Title:       getStringFromRecord(record, "title"),
			TitleAr:     getStringFromRecord(record, "title_ar"),
			Author:      getStringFromRecord(record, "author"),
			Category:    getStringFromRecord(record, "category"),
			PublishedAt: getTimeFromRecord(record, "published_at"),
			Mentions:    getIntFromRecord(record, "mentions"),
		}
		var err error
		book.Topics, err = parseTags(record, "book", book.ID, "topics")
		return book, err
	})
}

// ListSpeakers returns every speaker
func (s *Neo4jStore) ListSpeakers(ctx context.Context) ([]Speaker, error) {
	query := `
		MATCH (s:Speaker)
		RETURN s.id as id, s.name as name, s.name_ar as name_ar, s.topics as topics,
		       s.followers as followers
		ORDER BY id
	`
	return readAll(ctx, s, "list speakers", query, func(record *neo4j.Record) (Speaker, error) {
		speaker := Speaker{
			ID:        getStringFromRecord(record, "id"),
			Name:      getStringFromRecord(record, "name"),
			NameAr:    getStringFromRecord(record, "name_ar"),
			Followers: getIntFromRecord(record, "followers"),
		}
		var err error
		speaker.Topics, err = parseTags(record, "speaker", speaker.ID, "topics")
		return speaker, err
	})
}

// ListQuotes returns every quote
func (s *Neo4jStore) ListQuotes(ctx context.Context) ([]Quote, error) {
	query := `
		MATCH (q:Quote)
		RETURN q.id as id, q.text as text, q.text_ar as text_ar, q.topics as topics,
		       q.episode_id as episode_id, q.book_id as book_id, q.speaker_id as speaker_id
		ORDER BY id
	`
	return readAll(ctx, s, "list quotes", query, func(record *neo4j.Record) (Quote, error) {
		quote := Quote{
			ID:        getStringFromRecord(record, "id"),
			Text:      getStringFromRecord(record, "text"),
			TextAr:    getStringFromRecord(record, "text_ar"),
			EpisodeID: getStringFromRecord(record, "episode_id"),
			BookID:    getStringFromRecord(record, "book_id"),
			SpeakerID: getStringFromRecord(record, "speaker_id"),
		}
		var err error
		quote.Topics, err = parseTags(record, "quote", quote.ID, "topics")
		return quote, err
	})
}

// ListBookEpisodes returns the book-episode link table
func (s *Neo4jStore) ListBookEpisodes(ctx context.Context) ([]BookEpisode, error) {
	query := `
		MATCH (b:Book)-[r:DISCUSSED_IN]->(e:Episode)
		RETURN b.id as book_id, e.id as episode_id, coalesce(r.weight, 1.0) as weight
		ORDER BY book_id, episode_id
	`
	return readAll(ctx, s, "list book episodes", query, func(record *neo4j.Record) (BookEpisode, error) {
		return BookEpisode{
			BookID:    getStringFromRecord(record, "book_id"),
			EpisodeID: getStringFromRecord(record, "episode_id"),
			Weight:    getFloat64FromRecord(record, "weight"),
		}, nil
	})
}

// ListSpeakerEpisodes returns the speaker-episode link table
func (s *Neo4jStore) ListSpeakerEpisodes(ctx context.Context) ([]SpeakerEpisode, error) {
	query := `
		MATCH (s:Speaker)-[r:APPEARED_IN]->(e:Episode)
		RETURN s.id as speaker_id, e.id as episode_id, coalesce(r.weight, 1.0) as weight
		ORDER BY speaker_id, episode_id
	`
	return readAll(ctx, s, "list speaker episodes", query, func(record *neo4j.Record) (SpeakerEpisode, error) {
		return SpeakerEpisode{
			SpeakerID: getStringFromRecord(record, "speaker_id"),
			EpisodeID: getStringFromRecord(record, "episode_id"),
			Weight:    getFloat64FromRecord(record, "weight"),
		}, nil
	})
}

// ListSpeakerBooks returns the speaker-book link table
func (s *Neo4jStore) ListSpeakerBooks(ctx context.Context) ([]SpeakerBook, error) {
	query := `
		MATCH (s:Speaker)-[r:WROTE]->(b:Book)
		RETURN s.id as speaker_id, b.id as book_id, coalesce(r.weight, 1.0) as weight
		ORDER BY speaker_id, book_id
	`
	return readAll(ctx, s, "list speaker books", query, func(record *neo4j.Record) (SpeakerBook, error) {
		return SpeakerBook{
			SpeakerID: getStringFromRecord(record, "speaker_id"),
			BookID:    getStringFromRecord(record, "book_id"),
			Weight:    getFloat64FromRecord(record, "weight"),
		}, nil
	})
}
