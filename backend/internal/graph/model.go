package graph

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"podcast-insights/backend/internal/utils"
	apperrors "podcast-insights/backend/pkg/errors"
)

// ============================================================================
// Graph Types
// ============================================================================

// NodeType is the kind of entity a node represents
type NodeType string

const (
	NodeTypeBook    NodeType = "book"
	NodeTypeEpisode NodeType = "episode"
	NodeTypeSpeaker NodeType = "speaker"
	NodeTypeConcept NodeType = "concept"
	NodeTypeTopic   NodeType = "topic"
	NodeTypeQuote   NodeType = "quote"
)

// AllNodeTypes lists every node type in display order
var AllNodeTypes = []NodeType{
	NodeTypeBook, NodeTypeEpisode, NodeTypeSpeaker, NodeTypeConcept, NodeTypeTopic, NodeTypeQuote,
}

// ParseNodeType validates a node type name
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllNodeTypes {
		if t == known {
			return t, nil
		}
	}
	return "", apperrors.NewInvalidArgument("type", fmt.Sprintf("unknown node type %q", s))
}

// ParseNodeTypes validates a list of node type names, dropping repeats
func ParseNodeTypes(names []string) ([]NodeType, error) {
	seen := make(map[NodeType]bool, len(names))
	types := make([]NodeType, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		t, err := ParseNodeType(name)
		if err != nil {
			return nil, err
		}
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	return types, nil
}

// EdgeKind is the semantic relation an edge carries
type EdgeKind string

const (
	EdgeDiscusses    EdgeKind = "discusses"
	EdgeAuthoredBy   EdgeKind = "authored_by"
	EdgeSpokenBy     EdgeKind = "spoken_by"
	EdgeMentions     EdgeKind = "mentions"
	EdgeRelatedTopic EdgeKind = "related_topic"
)

// Metadata keys set by the builder
const (
	MetaEntityID    = "entityId"
	MetaTopics      = "topics"
	MetaCategory    = "category"
	MetaMood        = "mood"
	MetaTone        = "tone"
	MetaPublishedAt = "publishedAt"
	MetaPopularity  = "popularity"
)

// Node is an immutable snapshot of one entity within a graph instance
type Node struct {
	ID       string                 `json:"id"`
	Type     NodeType               `json:"type"`
	Label    string                 `json:"label"`
	LabelAr  string                 `json:"labelAr,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NodeID builds the graph ID of a catalog entity
func NodeID(t NodeType, entityID string) string {
	return string(t) + "-" + entityID
}

// Topics returns the node's topic tags
func (n *Node) Topics() []string {
	if topics, ok := n.Metadata[MetaTopics].([]string); ok {
		return topics
	}
	return nil
}

// StringMeta returns a string metadata value or ""
func (n *Node) StringMeta(key string) string {
	if s, ok := n.Metadata[key].(string); ok {
		return s
	}
	return ""
}

// PublishedAt returns the publication time, zero when unknown
func (n *Node) PublishedAt() time.Time {
	if t, ok := n.Metadata[MetaPublishedAt].(time.Time); ok {
		return t
	}
	return time.Time{}
}

// Edge is a weighted, typed relation. Traversal ignores direction; Source
// and Target are kept for display.
type Edge struct {
	SourceID string   `json:"source"`
	TargetID string   `json:"target"`
	Kind     EdgeKind `json:"kind"`
	Weight   float64  `json:"weight"`
}

// Other returns the endpoint opposite id
func (e Edge) Other(id string) string {
	if e.SourceID == id {
		return e.TargetID
	}
	return e.SourceID
}

// GraphMetadata describes a built graph
type GraphMetadata struct {
	BuiltAt   time.Time  `json:"builtAt"`
	NodeCount int        `json:"nodeCount"`
	EdgeCount int        `json:"edgeCount"`
	Types     []NodeType `json:"types,omitempty"`
}

// Graph is a read-only snapshot. Every edge references nodes of the same
// instance and there is at most one edge per unordered pair and kind.
type Graph struct {
	Nodes    map[string]*Node `json:"nodes"`
	Edges    []Edge           `json:"edges"`
	Metadata GraphMetadata    `json:"metadata"`

	// edge indices per node, ordered by (neighbor id, kind)
	adjacency map[string][]int
	// folded label and labelAr per node for search
	folded map[string][2]string
}

// buildStats counts what NewGraph discarded
type buildStats struct {
	droppedEdges   int
	mergedEdges    int
	duplicateNodes int
}

type edgeKey struct {
	a, b string
	kind EdgeKind
}

// NewGraph assembles a graph from raw nodes and edges. Repeated node IDs keep
// the first node, edges touching unknown nodes or looping on one node are
// dropped, and same-kind edges between the same pair are merged by summing
// their weights.
func NewGraph(nodes []*Node, edges []Edge, builtAt time.Time) *Graph {
	g, _ := newGraph(nodes, edges, builtAt)
	return g
}

func newGraph(nodes []*Node, edges []Edge, builtAt time.Time) (*Graph, buildStats) {
	var stats buildStats
	g := &Graph{
		Nodes:     make(map[string]*Node, len(nodes)),
		Edges:     make([]Edge, 0, len(edges)),
		adjacency: make(map[string][]int),
		folded:    make(map[string][2]string, len(nodes)),
	}

	for _, n := range nodes {
		if n == nil || n.ID == "" {
			continue
		}
		if _, exists := g.Nodes[n.ID]; exists {
			stats.duplicateNodes++
			continue
		}
		g.Nodes[n.ID] = n
		g.folded[n.ID] = [2]string{utils.NormalizeLabel(n.Label), utils.NormalizeLabel(n.LabelAr)}
	}

	index := make(map[edgeKey]int, len(edges))
	for _, e := range edges {
		if e.SourceID == e.TargetID {
			stats.droppedEdges++
			continue
		}
		if _, ok := g.Nodes[e.SourceID]; !ok {
			stats.droppedEdges++
			continue
		}
		if _, ok := g.Nodes[e.TargetID]; !ok {
			stats.droppedEdges++
			continue
		}
		if e.Weight < 0 {
			e.Weight = 0
		}

		key := edgeKey{a: e.SourceID, b: e.TargetID, kind: e.Kind}
		if key.a > key.b {
			key.a, key.b = key.b, key.a
		}
		if i, ok := index[key]; ok {
			g.Edges[i].Weight += e.Weight
			stats.mergedEdges++
			continue
		}
		index[key] = len(g.Edges)
		g.Edges = append(g.Edges, e)
	}

	for i, e := range g.Edges {
		g.adjacency[e.SourceID] = append(g.adjacency[e.SourceID], i)
		g.adjacency[e.TargetID] = append(g.adjacency[e.TargetID], i)
	}
	for id, list := range g.adjacency {
		sort.Slice(list, func(x, y int) bool {
			ex, ey := g.Edges[list[x]], g.Edges[list[y]]
			ox, oy := ex.Other(id), ey.Other(id)
			if ox != oy {
				return ox < oy
			}
			return ex.Kind < ey.Kind
		})
	}

	g.Metadata = GraphMetadata{
		BuiltAt:   builtAt,
		NodeCount: len(g.Nodes),
		EdgeCount: len(g.Edges),
	}
	return g, stats
}

// Node returns the node with the given ID
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}

// Degree counts the distinct edges touching a node
func (g *Graph) Degree(id string) int {
	return len(g.adjacency[id])
}

// Neighbors returns the distinct adjacent node IDs in ascending order
func (g *Graph) Neighbors(id string) []string {
	list := g.adjacency[id]
	out := make([]string, 0, len(list))
	for _, i := range list {
		other := g.Edges[i].Other(id)
		if len(out) > 0 && out[len(out)-1] == other {
			continue
		}
		out = append(out, other)
	}
	return out
}

// NodesOfType returns the nodes of one type ordered by ID
func (g *Graph) NodesOfType(t NodeType) []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
