package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"podcast-insights/backend/internal/catalog"
	"podcast-insights/backend/pkg/config"
	"podcast-insights/backend/pkg/logger"
)

func main() {
	fixture := flag.String("fixture", "fixtures/catalog.json", "Catalog snapshot to import")
	reset := flag.Bool("reset", false, "Delete existing catalog nodes before importing")
	flag.Parse()

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
	log.Info("Starting database seeding...", zap.String("fixture", *fixture))

	snap, err := catalog.ReadSnapshot(*fixture)
	if err != nil {
		log.Fatal("Failed to read fixture", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	sessionConfig := neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: cfg.Neo4jDatabase}

	// Create constraints
	log.Info("Creating constraints...")
	if err := runAll(ctx, driver, sessionConfig, constraints); err != nil {
		log.Warn("Failed to create some constraints (may already exist)", zap.Error(err))
	}

	// Create indexes for better performance
	log.Info("Creating indexes...")
	if err := runAll(ctx, driver, sessionConfig, indexes); err != nil {
		log.Warn("Failed to create some indexes (may already exist)", zap.Error(err))
	}

	if *reset {
		log.Info("Removing existing catalog nodes...")
		if err := runAll(ctx, driver, sessionConfig, []string{resetQuery}); err != nil {
			log.Fatal("Failed to reset catalog", zap.Error(err))
		}
	}

	session := driver.NewSession(ctx, sessionConfig)
	defer session.Close(ctx)

	for _, step := range importSteps(snap) {
		if len(step.rows) == 0 {
			continue
		}
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
			_, err := tx.Run(ctx, step.query, map[string]interface{}{"rows": step.rows})
			return nil, err
		})
		if err != nil {
			log.Fatal("Failed to import rows", zap.String("step", step.name), zap.Error(err))
		}
		log.Info("Imported rows", zap.String("step", step.name), zap.Int("count", len(step.rows)))
	}

	log.Info("Database seeding completed successfully!",
		zap.Int("episodes", len(snap.Episodes)),
		zap.Int("books", len(snap.Books)),
		zap.Int("speakers", len(snap.Speakers)),
		zap.Int("quotes", len(snap.Quotes)),
	)
}

var constraints = []string{
	"CREATE CONSTRAINT episode_id_unique IF NOT EXISTS FOR (e:Episode) REQUIRE e.id IS UNIQUE",
	"CREATE CONSTRAINT book_id_unique IF NOT EXISTS FOR (b:Book) REQUIRE b.id IS UNIQUE",
	"CREATE CONSTRAINT speaker_id_unique IF NOT EXISTS FOR (s:Speaker) REQUIRE s.id IS UNIQUE",
	"CREATE CONSTRAINT quote_id_unique IF NOT EXISTS FOR (q:Quote) REQUIRE q.id IS UNIQUE",
	"CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE",
}

var indexes = []string{
	"CREATE INDEX episode_published_at IF NOT EXISTS FOR (e:Episode) ON (e.published_at)",
	"CREATE INDEX book_category IF NOT EXISTS FOR (b:Book) ON (b.category)",
	"CREATE INDEX user_last_seen IF NOT EXISTS FOR (u:User) ON (u.last_seen)",
	"CREATE FULLTEXT INDEX catalog_titles IF NOT EXISTS FOR (n:Episode|Book) ON EACH [n.title, n.title_ar]",
}

const resetQuery = `MATCH (n) WHERE n:Episode OR n:Book OR n:Speaker OR n:Quote DETACH DELETE n`

// runAll executes each statement in its own auto-commit transaction and
// returns the last failure
func runAll(ctx context.Context, driver neo4j.DriverWithContext, cfg neo4j.SessionConfig, statements []string) error {
	session := driver.NewSession(ctx, cfg)
	defer session.Close(ctx)

	var lastErr error
	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

type importStep struct {
	name  string
	query string
	rows  []map[string]interface{}
}

// importSteps turns a snapshot into UNWIND batches. Property names match the
// columns read by catalog.Neo4jStore.
func importSteps(snap catalog.Snapshot) []importStep {
	steps := []importStep{
		{name: "episodes", query: `
			UNWIND $rows AS row
			MERGE (e:Episode {id: row.id})
			SET e.title = row.title, e.title_ar = row.title_ar, e.topics = row.topics,
			    e.concepts = row.concepts, e.category = row.category, e.mood = row.mood,
			    e.tone = row.tone, e.published_at = row.published_at,
			    e.duration_seconds = row.duration_seconds, e.views = row.views`},
		{name: "books", query: `
			UNWIND $rows AS row
			MERGE (b:Book {id: row.id})
			SET b.title = row.title, b.title_ar = row.title_ar, b.author = row.author,
			    b.topics = row.topics, b.category = row.category,
			    b.published_at = row.published_at, b.mentions = row.mentions`},
		{name: "speakers", query: `
			UNWIND $rows AS row
			MERGE (s:Speaker {id: row.id})
			SET s.name = row.name, s.name_ar = row.name_ar, s.topics = row.topics,
			    s.followers = row.followers`},
		{name: "quotes", query: `
			UNWIND $rows AS row
			MERGE (q:Quote {id: row.id})
			SET q.text = row.text, q.text_ar = row.text_ar, q.topics = row.topics,
			    q.episode_id = row.episode_id, q.book_id = row.book_id, q.speaker_id = row.speaker_id`},
		{name: "book_episodes", query: `
			UNWIND $rows AS row
			MATCH (b:Book {id: row.from}), (e:Episode {id: row.to})
			MERGE (b)-[r:DISCUSSED_IN]->(e)
			SET r.weight = row.weight`},
		{name: "speaker_episodes", query: `
			UNWIND $rows AS row
			MATCH (s:Speaker {id: row.from}), (e:Episode {id: row.to})
			MERGE (s)-[r:APPEARED_IN]->(e)
			SET r.weight = row.weight`},
		{name: "speaker_books", query: `
			UNWIND $rows AS row
			MATCH (s:Speaker {id: row.from}), (b:Book {id: row.to})
			MERGE (s)-[r:WROTE]->(b)
			SET r.weight = row.weight`},
	}

	for _, e := range snap.Episodes {
		steps[0].rows = append(steps[0].rows, map[string]interface{}{
			"id": e.ID, "title": e.Title, "title_ar": e.TitleAr,
			"topics": []string(e.Topics), "concepts": []string(e.Concepts),
			"category": e.Category, "mood": e.Mood, "tone": e.Tone,
			"published_at": optionalTime(e.PublishedAt),
			"duration_seconds": e.DurationSeconds, "views": e.Views,
		})
	}
	for _, b := range snap.Books {
		steps[1].rows = append(steps[1].rows, map[string]interface{}{
			"id": b.ID, "title": b.Title, "title_ar": b.TitleAr, "author": b.Author,
			"topics": []string(b.Topics), "category": b.Category,
			"published_at": optionalTime(b.PublishedAt), "mentions": b.Mentions,
		})
	}
	for _, s := range snap.Speakers {
		steps[2].rows = append(steps[2].rows, map[string]interface{}{
			"id": s.ID, "name": s.Name, "name_ar": s.NameAr,
			"topics": []string(s.Topics), "followers": s.Followers,
		})
	}
	for _, q := range snap.Quotes {
		steps[3].rows = append(steps[3].rows, map[string]interface{}{
			"id": q.ID, "text": q.Text, "text_ar": q.TextAr, "topics": []string(q.Topics),
			"episode_id": q.EpisodeID, "book_id": q.BookID, "speaker_id": q.SpeakerID,
		})
	}
	for _, l := range snap.BookEpisodes {
		steps[4].rows = append(steps[4].rows, linkRow(l.BookID, l.EpisodeID, l.Weight))
	}
	for _, l := range snap.SpeakerEpisodes {
		steps[5].rows = append(steps[5].rows, linkRow(l.SpeakerID, l.EpisodeID, l.Weight))
	}
	for _, l := range snap.SpeakerBooks {
		steps[6].rows = append(steps[6].rows, linkRow(l.SpeakerID, l.BookID, l.Weight))
	}
	return steps
}

func linkRow(from, to string, weight float64) map[string]interface{} {
	return map[string]interface{}{"from": from, "to": to, "weight": catalog.LinkWeight(weight)}
}

// optionalTime keeps unset dates out of the database
func optionalTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
