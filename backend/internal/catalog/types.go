package catalog

import (
	"context"
	"time"
)

// ============================================================================
// Catalog Entities
// ============================================================================

// Episode is one podcast episode
type Episode struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	TitleAr         string    `json:"title_ar,omitempty"`
	Topics          Tags      `json:"topics,omitempty"`
	Concepts        Tags      `json:"concepts,omitempty"`
	Category        string    `json:"category,omitempty"`
	Mood            string    `json:"mood,omitempty"`
	Tone            string    `json:"tone,omitempty"`
	PublishedAt     time.Time `json:"published_at,omitempty"`
	DurationSeconds int       `json:"duration_seconds,omitempty"`
	Views           int       `json:"views,omitempty"`
}

// Book is a book discussed on the podcast
type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	TitleAr     string    `json:"title_ar,omitempty"`
	Author      string    `json:"author,omitempty"`
	Topics      Tags      `json:"topics,omitempty"`
	Category    string    `json:"category,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	Mentions    int       `json:"mentions,omitempty"`
}

// Speaker is a host or guest
type Speaker struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	NameAr    string `json:"name_ar,omitempty"`
	Topics    Tags   `json:"topics,omitempty"`
	Followers int    `json:"followers,omitempty"`
}

// Quote is a saved passage; any of its references may be empty
type Quote struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	TextAr    string `json:"text_ar,omitempty"`
	Topics    Tags   `json:"topics,omitempty"`
	EpisodeID string `json:"episode_id,omitempty"`
	BookID    string `json:"book_id,omitempty"`
	SpeakerID string `json:"speaker_id,omitempty"`
}

// BookEpisode links a book to an episode that discusses it
type BookEpisode struct {
	BookID    string  `json:"book_id"`
	EpisodeID string  `json:"episode_id"`
	Weight    float64 `json:"weight,omitempty"`
}

// SpeakerEpisode links a speaker to an episode they appear in
type SpeakerEpisode struct {
	SpeakerID string  `json:"speaker_id"`
	EpisodeID string  `json:"episode_id"`
	Weight    float64 `json:"weight,omitempty"`
}

// SpeakerBook links an author to a book
type SpeakerBook struct {
	SpeakerID string  `json:"speaker_id"`
	BookID    string  `json:"book_id"`
	Weight    float64 `json:"weight,omitempty"`
}

// Snapshot is every entity and link row read in one pass
type Snapshot struct {
	Episodes        []Episode        `json:"episodes"`
	Books           []Book           `json:"books"`
	Speakers        []Speaker        `json:"speakers"`
	Quotes          []Quote          `json:"quotes"`
	BookEpisodes    []BookEpisode    `json:"book_episodes"`
	SpeakerEpisodes []SpeakerEpisode `json:"speaker_episodes"`
	SpeakerBooks    []SpeakerBook    `json:"speaker_books"`
}

// Store exposes typed read queries over the catalog. Implementations are
// expected to hand back de-duplicated entities; merging records from
// different extraction passes happens before this boundary.
type Store interface {
	ListEpisodes(ctx context.Context) ([]Episode, error)
	ListBooks(ctx context.Context) ([]Book, error)
	ListSpeakers(ctx context.Context) ([]Speaker, error)
	ListQuotes(ctx context.Context) ([]Quote, error)
	ListBookEpisodes(ctx context.Context) ([]BookEpisode, error)
	ListSpeakerEpisodes(ctx context.Context) ([]SpeakerEpisode, error)
	ListSpeakerBooks(ctx context.Context) ([]SpeakerBook, error)
}

// LinkWeight returns w, or 1 when the row carries no weight
func LinkWeight(w float64) float64 {
	if w <= 0 {
		return 1
	}
	return w
}
