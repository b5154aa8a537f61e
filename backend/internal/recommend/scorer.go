package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"podcast-insights/backend/internal/constants"
	"podcast-insights/backend/internal/graph"
	"podcast-insights/backend/internal/metrics"
	"podcast-insights/backend/internal/profile"
	"podcast-insights/backend/internal/utils"
	apperrors "podcast-insights/backend/pkg/errors"
	"podcast-insights/backend/pkg/logger"
)

// Scorer ranks candidate entities over a graph snapshot. Items are ordered by
// topic overlap, then co-occurrence weight, then popularity (degree), then
// recency, then node ID.
type Scorer struct {
	weights Weights
	now     func() time.Time
	logger  *zap.Logger
}

// ScorerOption configures a Scorer
type ScorerOption func(*Scorer)

// WithClock sets the clock stamped into results
func WithClock(now func() time.Time) ScorerOption {
	return func(s *Scorer) {
		s.now = now
	}
}

// NewScorer creates a scorer. Zero weights fall back to the defaults.
func NewScorer(weights Weights, opts ...ScorerOption) *Scorer {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	s := &Scorer{
		weights: weights,
		now:     time.Now,
		logger:  logger.Named("recommend"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// candidate is a pool entry with its raw signals
type candidate struct {
	node    *graph.Node
	signals Signals
}

// Recommend ranks entities for a profile. Recently consumed items are left
// out unless nothing else remains.
func (s *Scorer) Recommend(g *graph.Graph, p *profile.UserProfile, opts Options) (*Result, error) {
	if opts.Limit < 1 {
		return nil, apperrors.NewInvalidArgument("limit", "must be at least 1")
	}
	types := opts.Types
	if len(types) == 0 {
		types = CandidateTypes
	}
	for _, t := range types {
		if !isCandidateType(t) {
			return nil, apperrors.NewInvalidArgument("types", fmt.Sprintf("%q cannot be recommended", t))
		}
	}

	exclude := toSet(opts.ExcludeIDs)
	pool := s.pool(g, types, func(n *graph.Node) bool {
		if exclude[n.ID] {
			return false
		}
		return opts.Category == "" || matchesCategory(n, opts.Category)
	})

	recent := toSet(p.RecentEntityIDs(constants.RecentHistoryWindow))
	if fresh := filterNodes(pool, func(n *graph.Node) bool { return !recent[n.ID] }); len(fresh) > 0 {
		pool = fresh
	}

	anchors := p.RecentEntityIDs(constants.RecentHistoryWindow)
	anchors = append(anchors, p.Preferences.FollowedSpeakers...)
	for _, topic := range p.FavoriteTopics {
		anchors = append(anchors, graph.NodeID(graph.NodeTypeTopic, utils.Slug(topic)))
	}

	items, hasTopic, hasGraph := s.rank(g, pool, p.FavoriteTopics, g.CoOccurrence(anchors), opts.Limit)

	algorithm := AlgorithmPopularityFallback
	switch {
	case hasTopic:
		algorithm = AlgorithmTopicOverlap
	case hasGraph:
		algorithm = AlgorithmGraphCoOccurrence
	}
	return s.result(ModePersonalized, algorithm, "profile:"+p.UserID, items), nil
}

// RecommendSimilar ranks entities of the seed's type against the seed
func (s *Scorer) RecommendSimilar(g *graph.Graph, seedID string, limit int) (*Result, error) {
	if limit < 1 {
		return nil, apperrors.NewInvalidArgument("limit", "must be at least 1")
	}
	seed, ok := g.Node(seedID)
	if !ok {
		return nil, apperrors.NewNotFound("node", seedID)
	}

	types := CandidateTypes
	if isCandidateType(seed.Type) {
		types = []graph.NodeType{seed.Type}
	}
	pool := s.pool(g, types, func(n *graph.Node) bool { return n.ID != seedID })

	items, hasTopic, hasGraph := s.rank(g, pool, seed.Topics(), g.CoOccurrence([]string{seedID}), limit)

	algorithm := AlgorithmPopularityFallback
	if hasTopic || hasGraph {
		algorithm = AlgorithmSimilarEntity
	}
	return s.result(ModeSimilar, algorithm, seedID, items), nil
}

// RecommendByTopic ranks entities tagged with the topic or within two hops
// of its topic node. With no match it falls back to popularity over every
// candidate.
func (s *Scorer) RecommendByTopic(g *graph.Graph, topic string, limit int) (*Result, error) {
	if limit < 1 {
		return nil, apperrors.NewInvalidArgument("limit", "must be at least 1")
	}
	key := utils.NormalizeLabel(topic)
	if key == "" {
		return nil, apperrors.NewInvalidArgument("topic", "must not be blank")
	}

	co := g.CoOccurrence([]string{graph.NodeID(graph.NodeTypeTopic, utils.Slug(topic))})
	all := s.pool(g, CandidateTypes, func(*graph.Node) bool { return true })
	matched := filterNodes(all, func(n *graph.Node) bool {
		return co[n.ID] > 0 || matchesCategory(n, topic)
	})

	if len(matched) == 0 {
		items, _, _ := s.rank(g, all, nil, nil, limit)
		return s.result(ModeTopic, AlgorithmPopularityFallback, "topic:"+topic, items), nil
	}

	items, _, _ := s.rank(g, matched, []string{topic}, co, limit)
	return s.result(ModeTopic, AlgorithmTopicMatch, "topic:"+topic, items), nil
}

// pool collects nodes of the given types that pass keep, ordered by ID
func (s *Scorer) pool(g *graph.Graph, types []graph.NodeType, keep func(*graph.Node) bool) []*graph.Node {
	var out []*graph.Node
	for _, t := range types {
		for _, n := range g.NodesOfType(t) {
			if keep(n) {
				out = append(out, n)
			}
		}
	}
	return out
}

// rank scores the pool and returns the top limit items, reporting whether
// any returned item carried topic or graph signal
func (s *Scorer) rank(g *graph.Graph, pool []*graph.Node, anchorTopics []string, co map[string]float64, limit int) ([]Item, bool, bool) {
	wanted := make(map[string]bool, len(anchorTopics))
	for _, topic := range anchorTopics {
		if key := utils.NormalizeLabel(topic); key != "" {
			wanted[key] = true
		}
	}

	candidates := make([]candidate, 0, len(pool))
	for _, n := range pool {
		c := candidate{node: n}
		seen := make(map[string]bool)
		for _, topic := range n.Topics() {
			key := utils.NormalizeLabel(topic)
			if wanted[key] && !seen[key] {
				seen[key] = true
				c.signals.MatchedTopics = append(c.signals.MatchedTopics, topic)
			}
		}
		c.signals.TopicOverlap = len(c.signals.MatchedTopics)
		c.signals.CoOccurrence = co[n.ID]
		c.signals.Popularity = g.Degree(n.ID)
		c.signals.PublishedAt = n.PublishedAt()
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].signals, candidates[j].signals
		if a.TopicOverlap != b.TopicOverlap {
			return a.TopicOverlap > b.TopicOverlap
		}
		if a.CoOccurrence != b.CoOccurrence {
			return a.CoOccurrence > b.CoOccurrence
		}
		if a.Popularity != b.Popularity {
			return a.Popularity > b.Popularity
		}
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return candidates[i].node.ID < candidates[j].node.ID
	})

	norm := newNormalizer(candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	items := make([]Item, len(candidates))
	var hasTopic, hasGraph bool
	for i, c := range candidates {
		hasTopic = hasTopic || c.signals.TopicOverlap > 0
		hasGraph = hasGraph || c.signals.CoOccurrence > 0

		parts := norm.components(c.signals, s.weights)
		items[i] = Item{
			EntityID: c.node.ID,
			Type:     c.node.Type,
			Label:    c.node.Label,
			LabelAr:  c.node.LabelAr,
			Score:    parts[0] + parts[1] + parts[2] + parts[3],
			Reason:   reason(c.signals, parts),
			Signals:  c.signals,
		}
	}
	return items, hasTopic, hasGraph
}

func (s *Scorer) result(mode, algorithm, basedOn string, items []Item) *Result {
	confidence := 0.0
	if algorithm != AlgorithmPopularityFallback {
		confidence = confidenceOf(items)
	}
	if items == nil {
		items = []Item{}
	}

	metrics.RecordRecommendation(mode, algorithm, confidence)
	s.logger.Debug("Recommendations ranked",
		zap.String("mode", mode),
		zap.String("algorithm", algorithm),
		zap.String("based_on", basedOn),
		zap.Int("items", len(items)),
		zap.Float64("confidence", confidence),
	)

	return &Result{
		ID:          uuid.NewString(),
		Items:       items,
		Algorithm:   algorithm,
		Confidence:  confidence,
		BasedOn:     basedOn,
		GeneratedAt: s.now().UTC(),
	}
}

// confidenceOf averages per-item evidence: three shared topics or a
// co-occurrence weight of two saturate their share
func confidenceOf(items []Item) float64 {
	if len(items) == 0 {
		return 0
	}
	total := 0.0
	for _, it := range items {
		total += 0.6*math.Min(1, float64(it.Signals.TopicOverlap)/3) +
			0.4*math.Min(1, it.Signals.CoOccurrence/2)
	}
	return total / float64(len(items))
}

// normalizer scales raw signals to [0,1] against the pool maxima
type normalizer struct {
	maxOverlap    float64
	maxCo         float64
	maxPopularity float64
	oldest        time.Time
	newest        time.Time
}

func newNormalizer(candidates []candidate) normalizer {
	var n normalizer
	for _, c := range candidates {
		n.maxOverlap = math.Max(n.maxOverlap, float64(c.signals.TopicOverlap))
		n.maxCo = math.Max(n.maxCo, c.signals.CoOccurrence)
		n.maxPopularity = math.Max(n.maxPopularity, float64(c.signals.Popularity))
		if t := c.signals.PublishedAt; !t.IsZero() {
			if n.oldest.IsZero() || t.Before(n.oldest) {
				n.oldest = t
			}
			if t.After(n.newest) {
				n.newest = t
			}
		}
	}
	return n
}

// components returns the weighted topic, co-occurrence, popularity and
// recency parts of the score
func (n normalizer) components(sig Signals, w Weights) [4]float64 {
	var parts [4]float64
	if n.maxOverlap > 0 {
		parts[0] = w.Topic * float64(sig.TopicOverlap) / n.maxOverlap
	}
	if n.maxCo > 0 {
		parts[1] = w.CoOccurrence * sig.CoOccurrence / n.maxCo
	}
	if n.maxPopularity > 0 {
		parts[2] = w.Popularity * float64(sig.Popularity) / n.maxPopularity
	}
	if span := n.newest.Sub(n.oldest); span > 0 && !sig.PublishedAt.IsZero() {
		parts[3] = w.Recency * float64(sig.PublishedAt.Sub(n.oldest)) / float64(span)
	}
	return parts
}

// reason explains the largest score component; ties go to the higher
// precedence signal
func reason(sig Signals, parts [4]float64) string {
	best := -1
	for i, p := range parts {
		if p > 0 && (best < 0 || p > parts[best]) {
			best = i
		}
	}
	switch best {
	case 0:
		return "Shares topics: " + strings.Join(sig.MatchedTopics, ", ")
	case 1:
		return fmt.Sprintf("Closely connected in the knowledge graph (weight %.1f)", sig.CoOccurrence)
	case 2:
		return fmt.Sprintf("Popular in the catalog (%d connections)", sig.Popularity)
	case 3:
		return "Recently published"
	}
	return "From the catalog"
}

func matchesCategory(n *graph.Node, category string) bool {
	key := utils.NormalizeLabel(category)
	if utils.NormalizeLabel(n.StringMeta(graph.MetaCategory)) == key {
		return true
	}
	for _, topic := range n.Topics() {
		if utils.NormalizeLabel(topic) == key {
			return true
		}
	}
	return false
}

func isCandidateType(t graph.NodeType) bool {
	for _, c := range CandidateTypes {
		if t == c {
			return true
		}
	}
	return false
}

func filterNodes(nodes []*graph.Node, keep func(*graph.Node) bool) []*graph.Node {
	var out []*graph.Node
	for _, n := range nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
