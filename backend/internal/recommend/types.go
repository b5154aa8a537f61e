package recommend

import (
	"time"

	"podcast-insights/backend/internal/graph"
)

// Algorithm tags describe which signal path produced a result
const (
	AlgorithmTopicOverlap       = "topic-overlap"
	AlgorithmGraphCoOccurrence  = "graph-cooccurrence"
	AlgorithmSimilarEntity      = "similar-entity"
	AlgorithmTopicMatch         = "topic-match"
	AlgorithmPopularityFallback = "popularity-fallback"
)

// Request modes, used as a metrics label
const (
	ModePersonalized = "personalized"
	ModeSimilar      = "similar"
	ModeTopic        = "topic"
)

// CandidateTypes are the node types that can be recommended
var CandidateTypes = []graph.NodeType{graph.NodeTypeBook, graph.NodeTypeEpisode, graph.NodeTypeSpeaker}

// Weights scale the normalized signals into a display score. Ordering
// follows the signal precedence regardless of weights.
type Weights struct {
	Topic        float64 `json:"topic"`
	CoOccurrence float64 `json:"coOccurrence"`
	Popularity   float64 `json:"popularity"`
	Recency      float64 `json:"recency"`
}

// DefaultWeights returns the stock weighting
func DefaultWeights() Weights {
	return Weights{Topic: 0.5, CoOccurrence: 0.3, Popularity: 0.15, Recency: 0.05}
}

// Options narrow a personalized request
type Options struct {
	Limit      int
	ExcludeIDs []string
	Category   string
	Types      []graph.NodeType
}

// Signals is the raw evidence behind one item
type Signals struct {
	TopicOverlap  int       `json:"topicOverlap"`
	MatchedTopics []string  `json:"matchedTopics,omitempty"`
	CoOccurrence  float64   `json:"coOccurrence"`
	Popularity    int       `json:"popularity"`
	PublishedAt   time.Time `json:"publishedAt,omitempty"`
}

// Item is one ranked recommendation
type Item struct {
	EntityID string         `json:"entityId"`
	Type     graph.NodeType `json:"type"`
	Label    string         `json:"label"`
	LabelAr  string         `json:"labelAr,omitempty"`
	Score    float64        `json:"score"`
	Reason   string         `json:"reason"`
	Signals  Signals        `json:"signals"`
}

// Result is a ranked list produced for one request. It is never persisted.
type Result struct {
	ID          string    `json:"id"`
	Items       []Item    `json:"items"`
	Algorithm   string    `json:"algorithm"`
	Confidence  float64   `json:"confidence"`
	BasedOn     string    `json:"basedOn"`
	GeneratedAt time.Time `json:"generatedAt"`
}
