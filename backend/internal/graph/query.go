package graph

import (
	"fmt"
	"sort"
	"strings"

	"podcast-insights/backend/internal/utils"
	apperrors "podcast-insights/backend/pkg/errors"
)

// Subgraph is a node plus everything within a hop limit of it
type Subgraph struct {
	Node      *Node   `json:"node"`
	Neighbors []*Node `json:"neighbors"`
	Edges     []Edge  `json:"edges"`
}

// RankedNode pairs a node with its degree
type RankedNode struct {
	Node   *Node `json:"node"`
	Degree int   `json:"degree"`
}

// Path is a shortest route between two nodes
type Path struct {
	Nodes []*Node `json:"path"`
	Edges []Edge  `json:"edges"`
}

// Length is the number of hops on the path
func (p *Path) Length() int {
	return len(p.Edges)
}

// Subgraph collects the nodes reachable from nodeID within depth hops and the
// edges among them. Neighbors are ordered by distance, then ID.
func (g *Graph) Subgraph(nodeID string, depth int) (*Subgraph, error) {
	if depth < 1 {
		return nil, apperrors.NewInvalidArgument("depth", "must be at least 1")
	}
	center, ok := g.Nodes[nodeID]
	if !ok {
		return nil, apperrors.NewNotFound("node", nodeID)
	}

	visited := map[string]bool{nodeID: true}
	frontier := []string{nodeID}
	var neighbors []*Node

	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []string
		for _, id := range frontier {
			for _, other := range g.Neighbors(id) {
				if visited[other] {
					continue
				}
				visited[other] = true
				next = append(next, other)
			}
		}
		sort.Strings(next)
		for _, id := range next {
			neighbors = append(neighbors, g.Nodes[id])
		}
		frontier = next
	}

	edges := make([]Edge, 0)
	for _, e := range g.Edges {
		if visited[e.SourceID] && visited[e.TargetID] {
			edges = append(edges, e)
		}
	}

	if neighbors == nil {
		neighbors = []*Node{}
	}
	return &Subgraph{Node: center, Neighbors: neighbors, Edges: edges}, nil
}

// Search matches a query against folded labels. Exact matches rank first,
// then prefix matches, then substring matches; ties are ordered by ID. An
// empty types list searches every type.
func (g *Graph) Search(query string, types []NodeType) ([]*Node, error) {
	q := utils.NormalizeLabel(query)
	if q == "" {
		return nil, apperrors.NewInvalidArgument("q", "search query must not be blank")
	}
	allowed := make(map[NodeType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}

	type hit struct {
		node *Node
		rank int
	}
	var hits []hit
	for id, n := range g.Nodes {
		if len(allowed) > 0 && !allowed[n.Type] {
			continue
		}
		best := -1
		for _, label := range g.folded[id] {
			if r := matchRank(label, q); r >= 0 && (best < 0 || r < best) {
				best = r
			}
		}
		if best >= 0 {
			hits = append(hits, hit{node: n, rank: best})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].rank != hits[j].rank {
			return hits[i].rank < hits[j].rank
		}
		return hits[i].node.ID < hits[j].node.ID
	})

	out := make([]*Node, len(hits))
	for i, h := range hits {
		out[i] = h.node
	}
	return out, nil
}

// matchRank returns 0 for exact, 1 for prefix, 2 for substring, -1 otherwise
func matchRank(label, q string) int {
	switch {
	case label == "":
		return -1
	case label == q:
		return 0
	case strings.HasPrefix(label, q):
		return 1
	case strings.Contains(label, q):
		return 2
	}
	return -1
}

// MostConnected ranks nodes by degree, ties by ID. An empty nodeType ranks
// every node.
func (g *Graph) MostConnected(limit int, nodeType NodeType) ([]RankedNode, error) {
	if limit < 1 {
		return nil, apperrors.NewInvalidArgument("limit", "must be at least 1")
	}

	ranked := make([]RankedNode, 0, len(g.Nodes))
	for id, n := range g.Nodes {
		if nodeType != "" && n.Type != nodeType {
			continue
		}
		ranked = append(ranked, RankedNode{Node: n, Degree: g.Degree(id)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Degree != ranked[j].Degree {
			return ranked[i].Degree > ranked[j].Degree
		}
		return ranked[i].Node.ID < ranked[j].Node.ID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// FindPath returns a shortest path of at most maxDepth hops, or nil when the
// nodes are not connected within that limit. Among equal-length paths the
// one reached through the lowest neighbor IDs wins.
func (g *Graph) FindPath(fromID, toID string, maxDepth int) (*Path, error) {
	if maxDepth < 1 {
		return nil, apperrors.NewInvalidArgument("maxDepth", "must be at least 1")
	}
	from, ok := g.Nodes[fromID]
	if !ok {
		return nil, apperrors.NewNotFound("node", fromID)
	}
	if _, ok := g.Nodes[toID]; !ok {
		return nil, apperrors.NewNotFound("node", toID)
	}
	if fromID == toID {
		return &Path{Nodes: []*Node{from}, Edges: []Edge{}}, nil
	}

	parentEdge := map[string]int{}
	depth := map[string]int{fromID: 0}
	queue := []string{fromID}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if depth[cur] >= maxDepth {
			continue
		}
		for _, idx := range g.adjacency[cur] {
			next := g.Edges[idx].Other(cur)
			if _, seen := depth[next]; seen {
				continue
			}
			depth[next] = depth[cur] + 1
			parentEdge[next] = idx
			if next == toID {
				return g.tracePath(fromID, toID, parentEdge), nil
			}
			queue = append(queue, next)
		}
	}
	return nil, nil
}

func (g *Graph) tracePath(fromID, toID string, parentEdge map[string]int) *Path {
	var nodes []*Node
	var edges []Edge
	for cur := toID; cur != fromID; {
		e := g.Edges[parentEdge[cur]]
		nodes = append(nodes, g.Nodes[cur])
		edges = append(edges, e)
		cur = e.Other(cur)
	}
	nodes = append(nodes, g.Nodes[fromID])

	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return &Path{Nodes: nodes, Edges: edges}
}

// CoOccurrence scores every node reachable from the anchors in one or two
// hops. A one-hop neighbor earns the connecting edge weight; a two-hop node
// earns the sum of both edge weights. Scores accumulate over every anchor and
// every route, so an item linked to several anchors ranks higher.
func (g *Graph) CoOccurrence(anchors []string) map[string]float64 {
	scores := make(map[string]float64)
	seen := make(map[string]bool, len(anchors))
	for _, anchor := range anchors {
		if seen[anchor] {
			continue
		}
		seen[anchor] = true
		if _, ok := g.Nodes[anchor]; !ok {
			continue
		}
		for _, i := range g.adjacency[anchor] {
			first := g.Edges[i]
			mid := first.Other(anchor)
			scores[mid] += first.Weight
			for _, j := range g.adjacency[mid] {
				if j == i {
					continue
				}
				second := g.Edges[j]
				far := second.Other(mid)
				if far == anchor {
					continue
				}
				scores[far] += first.Weight + second.Weight
			}
		}
	}
	return scores
}

// String summarizes the graph for logs
func (g *Graph) String() string {
	return fmt.Sprintf("graph(nodes=%d, edges=%d)", g.Metadata.NodeCount, g.Metadata.EdgeCount)
}
