package catalog

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-json"

	apperrors "podcast-insights/backend/pkg/errors"
)

// MemoryStore serves a fixed Snapshot. It backs the fixture backend and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot Snapshot
	failure  error
	reads    int
}

// NewMemoryStore creates a store over a copy of the given snapshot
func NewMemoryStore(s Snapshot) *MemoryStore {
	return &MemoryStore{snapshot: s}
}

// LoadFixture reads a JSON snapshot from disk into a MemoryStore
func LoadFixture(path string) (*MemoryStore, error) {
	s, err := ReadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(s), nil
}

// ReadSnapshot decodes a JSON snapshot file. Topic fields may be lists or
// legacy strings; both are normalised through ParseTopics.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read fixture: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, apperrors.NewMalformedRecord("fixture", path, "body", err)
	}
	return s, nil
}

// SetFailure makes every read fail with err until cleared with nil
func (m *MemoryStore) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = err
}

// Reads returns how many list calls were served
func (m *MemoryStore) Reads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads
}

func (m *MemoryStore) read(ctx context.Context, op string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, apperrors.NewContextCancelled(op, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.failure != nil {
		return Snapshot{}, apperrors.NewStoreUnavailable(op, m.failure)
	}
	return m.snapshot, nil
}

func (m *MemoryStore) ListEpisodes(ctx context.Context) ([]Episode, error) {
	s, err := m.read(ctx, "list episodes")
	return append([]Episode(nil), s.Episodes...), err
}

func (m *MemoryStore) ListBooks(ctx context.Context) ([]Book, error) {
	s, err := m.read(ctx, "list books")
	return append([]Book(nil), s.Books...), err
}

func (m *MemoryStore) ListSpeakers(ctx context.Context) ([]Speaker, error) {
	s, err := m.read(ctx, "list speakers")
	return append([]Speaker(nil), s.Speakers...), err
}

func (m *MemoryStore) ListQuotes(ctx context.Context) ([]Quote, error) {
	s, err := m.read(ctx, "list quotes")
	return append([]Quote(nil), s.Quotes...), err
}

func (m *MemoryStore) ListBookEpisodes(ctx context.Context) ([]BookEpisode, error) {
	s, err := m.read(ctx, "list book episodes")
	return append([]BookEpisode(nil), s.BookEpisodes...), err
}

func (m *MemoryStore) ListSpeakerEpisodes(ctx context.Context) ([]SpeakerEpisode, error) {
	s, err := m.read(ctx, "list speaker episodes")
	return append([]SpeakerEpisode(nil), s.SpeakerEpisodes...), err
}

func (m *MemoryStore) ListSpeakerBooks(ctx context.Context) ([]SpeakerBook, error) {
	s, err := m.read(ctx, "list speaker books")
	return append([]SpeakerBook(nil), s.SpeakerBooks...), err
}
