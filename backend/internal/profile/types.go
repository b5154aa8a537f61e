package profile

import (
	"fmt"
	"strings"
	"time"

	apperrors "podcast-insights/backend/pkg/errors"
)

// EventType identifies a kind of user interaction
type EventType string

const (
	EventEpisodeWatched  EventType = "episode_watched"
	EventBookViewed      EventType = "book_viewed"
	EventSpeakerFollowed EventType = "speaker_followed"
	EventQuoteSaved      EventType = "quote_saved"
	EventSearchQuery     EventType = "search_query"
	EventTimeSpent       EventType = "time_spent"
)

// eventWeights is how much one event adds to topic tallies and activity
var eventWeights = map[EventType]float64{
	EventEpisodeWatched:  3,
	EventBookViewed:      2,
	EventSpeakerFollowed: 2,
	EventQuoteSaved:      1,
	EventSearchQuery:     1,
	EventTimeSpent:       0.5,
}

// Weight returns the tally weight of the event type
func (t EventType) Weight() float64 {
	return eventWeights[t]
}

// Valid reports whether t is a known event type
func (t EventType) Valid() bool {
	_, ok := eventWeights[t]
	return ok
}

// Event is one user interaction. EntityID is a graph node ID such as
// "episode-156". Topics, Mood and Tone are optional; when absent they are
// looked up from the entity.
type Event struct {
	ID              string    `json:"id"`
	Type            EventType `json:"type"`
	EntityID        string    `json:"entityId,omitempty"`
	Topics          []string  `json:"topics,omitempty"`
	Mood            string    `json:"mood,omitempty"`
	Tone            string    `json:"tone,omitempty"`
	Query           string    `json:"query,omitempty"`
	DurationSeconds float64   `json:"durationSeconds,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// Validate checks the fields the event type requires
func (e Event) Validate() error {
	if !e.Type.Valid() {
		return apperrors.NewInvalidArgument("type", fmt.Sprintf("unknown event type %q", e.Type))
	}
	if e.DurationSeconds < 0 {
		return apperrors.NewInvalidArgument("durationSeconds", "must not be negative")
	}
	switch e.Type {
	case EventSearchQuery:
		if strings.TrimSpace(e.Query) == "" {
			return apperrors.NewInvalidArgument("query", "search events need a query")
		}
	case EventTimeSpent:
		if e.DurationSeconds == 0 {
			return apperrors.NewInvalidArgument("durationSeconds", "time spent events need a duration")
		}
	default:
		if strings.TrimSpace(e.EntityID) == "" {
			return apperrors.NewInvalidArgument("entityId", fmt.Sprintf("%s events need an entity", e.Type))
		}
	}
	return nil
}

// Tally is an accumulated weight for one topic, mood or tone. Seen holds
// the latest interaction times, newest first.
type Tally struct {
	Label    string      `json:"label"`
	Weight   float64     `json:"weight"`
	LastSeen time.Time   `json:"lastSeen"`
	Seen     []time.Time `json:"seen,omitempty"`
}

// Preferences holds explicit user signals
type Preferences struct {
	RecentSearches   []string `json:"recentSearches"`
	FollowedSpeakers []string `json:"followedSpeakers"`
	SavedQuotes      []string `json:"savedQuotes"`
}

// UserProfile is the aggregated view of one user's interactions. The stats
// maps hold complete tallies, so history can be bounded without changing
// the aggregates.
type UserProfile struct {
	UserID               string      `json:"userId"`
	FavoriteTopics       []string    `json:"favoriteTopics"`
	PreferredMood        string      `json:"preferredMood,omitempty"`
	PreferredTone        string      `json:"preferredTone,omitempty"`
	EngagementScore      float64     `json:"engagementScore"`
	AverageWatchDuration float64     `json:"averageWatchDuration"`
	ListeningHistory     []Event     `json:"listeningHistory"`
	LastActive           time.Time   `json:"lastActive"`
	Preferences          Preferences `json:"preferences"`

	TopicStats   map[string]Tally `json:"topicStats"`
	MoodStats    map[string]Tally `json:"moodStats"`
	ToneStats    map[string]Tally `json:"toneStats"`
	Activity     float64          `json:"activity"`
	EventCount   int              `json:"eventCount"`
	WatchSeconds float64          `json:"watchSeconds"`
	WatchSamples int              `json:"watchSamples"`
}

// NewUserProfile returns an empty profile
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:           userID,
		FavoriteTopics:   []string{},
		ListeningHistory: []Event{},
		Preferences: Preferences{
			RecentSearches:   []string{},
			FollowedSpeakers: []string{},
			SavedQuotes:      []string{},
		},
		TopicStats: map[string]Tally{},
		MoodStats:  map[string]Tally{},
		ToneStats:  map[string]Tally{},
	}
}

// Clone returns a deep copy
func (p *UserProfile) Clone() *UserProfile {
	c := *p
	c.FavoriteTopics = append([]string{}, p.FavoriteTopics...)
	c.ListeningHistory = make([]Event, len(p.ListeningHistory))
	for i, e := range p.ListeningHistory {
		e.Topics = append([]string(nil), e.Topics...)
		c.ListeningHistory[i] = e
	}
	c.Preferences = Preferences{
		RecentSearches:   append([]string{}, p.Preferences.RecentSearches...),
		FollowedSpeakers: append([]string{}, p.Preferences.FollowedSpeakers...),
		SavedQuotes:      append([]string{}, p.Preferences.SavedQuotes...),
	}
	c.TopicStats = cloneTallies(p.TopicStats)
	c.MoodStats = cloneTallies(p.MoodStats)
	c.ToneStats = cloneTallies(p.ToneStats)
	return &c
}

func cloneTallies(in map[string]Tally) map[string]Tally {
	out := make(map[string]Tally, len(in))
	for k, v := range in {
		v.Seen = append([]time.Time(nil), v.Seen...)
		out[k] = v
	}
	return out
}

// RecentEntityIDs returns the entity IDs of the last n history events,
// newest first and without repeats
func (p *UserProfile) RecentEntityIDs(n int) []string {
	seen := make(map[string]bool)
	var out []string
	for i := len(p.ListeningHistory) - 1; i >= 0 && n > 0; i-- {
		n--
		id := p.ListeningHistory[i].EntityID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
