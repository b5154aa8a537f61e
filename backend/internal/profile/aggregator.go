package profile

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"podcast-insights/backend/internal/constants"
	"podcast-insights/backend/internal/utils"
)

const (
	// engagementFloor is where an inactive profile with history settles
	engagementFloor = 5.0
	// engagementScale is the activity at which the score reaches ~63% of
	// the range above the floor
	engagementScale = 10.0
)

// Aggregator folds interaction events into profiles. It holds no state of
// its own and is safe for concurrent use.
type Aggregator struct {
	resolver     Resolver
	historyLimit int
	halfLife     time.Duration
	now          func() time.Time
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithResolver sets the entity tag resolver
func WithResolver(r Resolver) Option {
	return func(a *Aggregator) {
		a.resolver = r
	}
}

// WithHistoryLimit bounds the retained listening history
func WithHistoryLimit(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.historyLimit = n
		}
	}
}

// WithHalfLife sets the engagement decay half-life
func WithHalfLife(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.halfLife = d
		}
	}
}

// WithClock sets the clock used to stamp events without a time
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// NewAggregator creates an aggregator with default limits
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		historyLimit: constants.DefaultHistoryLimit,
		halfLife:     constants.DefaultEngagementHalfLife,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BuildProfile builds a profile from a batch of events, applied in time
// order. A repeated event ID counts once. No events yields an empty profile
// with zero engagement.
func (a *Aggregator) BuildProfile(userID string, events []Event) (*UserProfile, error) {
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}

	ordered := make([]Event, 0, len(events))
	seen := make(map[string]bool, len(events))
	for _, e := range events {
		a.stamp(&e)
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		ordered = append(ordered, e)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OccurredAt.Before(ordered[j].OccurredAt)
	})

	p := NewUserProfile(userID)
	for _, e := range ordered {
		a.apply(p, e)
	}
	a.finalize(p)
	return p, nil
}

// UpdateProfile returns a copy of existing with one more event folded in.
// The result matches rebuilding from the full event list.
func (a *Aggregator) UpdateProfile(existing *UserProfile, event Event) (*UserProfile, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	a.stamp(&event)

	p := existing.Clone()
	for _, prior := range p.ListeningHistory {
		if prior.ID == event.ID {
			return p, nil
		}
	}
	a.apply(p, event)
	a.finalize(p)
	return p, nil
}

// EngagementAt reports the engagement score as of now, with activity
// decayed since the last interaction
func (a *Aggregator) EngagementAt(p *UserProfile, now time.Time) float64 {
	if p.EventCount == 0 {
		return 0
	}
	activity := p.Activity
	if now.After(p.LastActive) {
		activity *= a.decay(now.Sub(p.LastActive))
	}
	return engagementScore(activity)
}

func (a *Aggregator) stamp(e *Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = a.now().UTC()
	}
}

func (a *Aggregator) apply(p *UserProfile, e Event) {
	weight := e.Type.Weight()
	tags, _ := a.resolve(e.EntityID)

	topics := e.Topics
	if len(topics) == 0 {
		topics = tags.Topics
		if tags.Category != "" {
			topics = append(append([]string{}, topics...), tags.Category)
		}
	}
	if len(topics) == 0 && e.Type == EventSearchQuery {
		topics = []string{strings.TrimSpace(e.Query)}
	}
	counted := make(map[string]bool, len(topics))
	for _, topic := range topics {
		key := utils.NormalizeLabel(topic)
		if key == "" || counted[key] {
			continue
		}
		counted[key] = true
		addTally(p.TopicStats, key, strings.TrimSpace(topic), weight, e.OccurredAt)
	}

	mood, tone := e.Mood, e.Tone
	if mood == "" {
		mood = tags.Mood
	}
	if tone == "" {
		tone = tags.Tone
	}
	if mood != "" {
		addTally(p.MoodStats, utils.NormalizeLabel(mood), mood, 1, e.OccurredAt)
	}
	if tone != "" {
		addTally(p.ToneStats, utils.NormalizeLabel(tone), tone, 1, e.OccurredAt)
	}

	if (e.Type == EventEpisodeWatched || e.Type == EventTimeSpent) && e.DurationSeconds > 0 {
		p.WatchSeconds += e.DurationSeconds
		p.WatchSamples++
	}

	switch e.Type {
	case EventSearchQuery:
		p.Preferences.RecentSearches = pushRecent(p.Preferences.RecentSearches, strings.TrimSpace(e.Query), constants.RecentSearchesLimit)
	case EventSpeakerFollowed:
		p.Preferences.FollowedSpeakers = addUnique(p.Preferences.FollowedSpeakers, e.EntityID)
	case EventQuoteSaved:
		p.Preferences.SavedQuotes = addUnique(p.Preferences.SavedQuotes, e.EntityID)
	}

	switch {
	case p.EventCount == 0:
		p.Activity = weight
		p.LastActive = e.OccurredAt
	case e.OccurredAt.After(p.LastActive):
		p.Activity = p.Activity*a.decay(e.OccurredAt.Sub(p.LastActive)) + weight
		p.LastActive = e.OccurredAt
	default:
		p.Activity += weight * a.decay(p.LastActive.Sub(e.OccurredAt))
	}
	p.EventCount++

	p.ListeningHistory = insertByTime(p.ListeningHistory, e)
	if len(p.ListeningHistory) > a.historyLimit {
		p.ListeningHistory = append([]Event{}, p.ListeningHistory[len(p.ListeningHistory)-a.historyLimit:]...)
	}
}

func (a *Aggregator) finalize(p *UserProfile) {
	p.FavoriteTopics = rankTallies(p.TopicStats, constants.FavoriteTopicsLimit)
	p.PreferredMood = topTally(p.MoodStats)
	p.PreferredTone = topTally(p.ToneStats)
	if p.WatchSamples > 0 {
		p.AverageWatchDuration = p.WatchSeconds / float64(p.WatchSamples)
	}
	if p.EventCount == 0 {
		p.EngagementScore = 0
		return
	}
	p.EngagementScore = engagementScore(p.Activity)
}

func (a *Aggregator) resolve(entityID string) (EntityTags, bool) {
	if a.resolver == nil || entityID == "" {
		return EntityTags{}, false
	}
	return a.resolver.Resolve(entityID)
}

// decay is the fraction of activity left after d
func (a *Aggregator) decay(d time.Duration) float64 {
	if d <= 0 {
		return 1
	}
	return math.Exp2(-float64(d) / float64(a.halfLife))
}

func engagementScore(activity float64) float64 {
	score := engagementFloor + (100-engagementFloor)*(1-math.Exp(-activity/engagementScale))
	return math.Min(100, math.Max(engagementFloor, score))
}

func addTally(stats map[string]Tally, key, label string, weight float64, at time.Time) {
	t, ok := stats[key]
	if !ok {
		t.Label = label
	}
	t.Weight += weight
	if at.After(t.LastSeen) {
		t.LastSeen = at
	}
	t.Seen = insertSeen(recency(t), at, constants.TallyRecencyDepth)
	stats[key] = t
}

// insertSeen adds at to a newest-first list and keeps the first limit entries
func insertSeen(seen []time.Time, at time.Time, limit int) []time.Time {
	i := sort.Search(len(seen), func(i int) bool { return !seen[i].After(at) })
	out := make([]time.Time, 0, len(seen)+1)
	out = append(out, seen[:i]...)
	out = append(out, at)
	out = append(out, seen[i:]...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// recency falls back to LastSeen for tallies stored without Seen
func recency(t Tally) []time.Time {
	if len(t.Seen) == 0 && !t.LastSeen.IsZero() {
		return []time.Time{t.LastSeen}
	}
	return t.Seen
}

// moreRecent compares interaction times newest first. When one list runs
// out, the longer one is more recent.
func moreRecent(a, b []time.Time) (bool, bool) {
	for i := 0; i < len(a) && i < len(b); i++ {
		if !a[i].Equal(b[i]) {
			return a[i].After(b[i]), true
		}
	}
	if len(a) != len(b) {
		return len(a) > len(b), true
	}
	return false, false
}

// rankTallies orders labels by weight, then most recent interactions, then
// label
func rankTallies(stats map[string]Tally, limit int) []string {
	tallies := make([]Tally, 0, len(stats))
	for _, t := range stats {
		tallies = append(tallies, t)
	}
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].Weight != tallies[j].Weight {
			return tallies[i].Weight > tallies[j].Weight
		}
		if after, differ := moreRecent(recency(tallies[i]), recency(tallies[j])); differ {
			return after
		}
		return tallies[i].Label < tallies[j].Label
	})
	if limit > 0 && len(tallies) > limit {
		tallies = tallies[:limit]
	}
	out := make([]string, len(tallies))
	for i, t := range tallies {
		out[i] = t.Label
	}
	return out
}

func topTally(stats map[string]Tally) string {
	ranked := rankTallies(stats, 1)
	if len(ranked) == 0 {
		return ""
	}
	return ranked[0]
}

func insertByTime(history []Event, e Event) []Event {
	i := sort.Search(len(history), func(i int) bool {
		return history[i].OccurredAt.After(e.OccurredAt)
	})
	history = append(history, Event{})
	copy(history[i+1:], history[i:])
	history[i] = e
	return history
}

func pushRecent(list []string, value string, limit int) []string {
	out := []string{value}
	for _, v := range list {
		if !strings.EqualFold(v, value) {
			out = append(out, v)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func addUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
