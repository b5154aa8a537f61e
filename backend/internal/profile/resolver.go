package profile

import (
	"podcast-insights/backend/internal/graph"
)

// EntityTags are the descriptive tags of a catalog entity
type EntityTags struct {
	Topics   []string
	Category string
	Mood     string
	Tone     string
}

// Resolver looks up the tags of an entity by node ID
type Resolver interface {
	Resolve(entityID string) (EntityTags, bool)
}

// GraphResolver resolves tags from graph node metadata
type GraphResolver struct {
	graph *graph.Graph
}

// NewGraphResolver creates a resolver over g
func NewGraphResolver(g *graph.Graph) *GraphResolver {
	return &GraphResolver{graph: g}
}

// Resolve returns the node's topics, category, mood and tone
func (r *GraphResolver) Resolve(entityID string) (EntityTags, bool) {
	if r == nil || r.graph == nil {
		return EntityTags{}, false
	}
	n, ok := r.graph.Node(entityID)
	if !ok {
		return EntityTags{}, false
	}
	return EntityTags{
		Topics:   n.Topics(),
		Category: n.StringMeta(graph.MetaCategory),
		Mood:     n.StringMeta(graph.MetaMood),
		Tone:     n.StringMeta(graph.MetaTone),
	}, true
}
