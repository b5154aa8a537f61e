package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "podcast-insights/backend/pkg/errors"
)

func nodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestSubgraph_DepthLimitsNeighbors(t *testing.T) {
	g := scenarioGraph()

	sub, err := g.Subgraph("book-atomic", 1)
	require.NoError(t, err)
	assert.Equal(t, "book-atomic", sub.Node.ID)
	assert.Equal(t, []string{"episode-156"}, nodeIDs(sub.Neighbors))
	require.Len(t, sub.Edges, 1)
	assert.Equal(t, EdgeDiscusses, sub.Edges[0].Kind)

	sub, err = g.Subgraph("book-atomic", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"episode-156", "speaker-ahmed"}, nodeIDs(sub.Neighbors))
	assert.Len(t, sub.Edges, 2)
}

func TestSubgraph_Errors(t *testing.T) {
	g := scenarioGraph()

	_, err := g.Subgraph("book-missing", 1)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = g.Subgraph("book-atomic", 0)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestSubgraph_IsolatedNode(t *testing.T) {
	g := NewGraph([]*Node{node(NodeTypeBook, "alone", "Alone")}, nil, testBuiltAt)

	sub, err := g.Subgraph("book-alone", 3)
	require.NoError(t, err)
	assert.Empty(t, sub.Neighbors)
	assert.Empty(t, sub.Edges)
}

func TestFindPath_RespectsMaxDepth(t *testing.T) {
	g := scenarioGraph()

	path, err := g.FindPath("book-atomic", "speaker-ahmed", 1)
	require.NoError(t, err)
	assert.Nil(t, path)

	path, err = g.FindPath("book-atomic", "speaker-ahmed", 2)
	require.NoError(t, err)
	require.NotNil(t, path)
	assert.Equal(t, []string{"book-atomic", "episode-156", "speaker-ahmed"}, nodeIDs(path.Nodes))
	assert.Equal(t, 2, path.Length())
}

func TestFindPath_EdgeCases(t *testing.T) {
	g := scenarioGraph()

	path, err := g.FindPath("book-atomic", "book-atomic", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"book-atomic"}, nodeIDs(path.Nodes))
	assert.Equal(t, 0, path.Length())

	_, err = g.FindPath("book-atomic", "speaker-nobody", 3)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = g.FindPath("book-atomic", "speaker-ahmed", 0)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

// branchingGraph has a cycle, a dead-end branch and an isolated node
func branchingGraph() *Graph {
	return NewGraph(
		[]*Node{
			node(NodeTypeBook, "a", "A"),
			node(NodeTypeBook, "b", "B"),
			node(NodeTypeEpisode, "1", "One"),
			node(NodeTypeEpisode, "2", "Two"),
			node(NodeTypeEpisode, "3", "Three"),
			node(NodeTypeSpeaker, "s", "S"),
			node(NodeTypeSpeaker, "t", "T"),
			node(NodeTypeTopic, "lonely", "Lonely"),
		},
		[]Edge{
			{SourceID: "episode-1", TargetID: "book-a", Kind: EdgeDiscusses, Weight: 1},
			{SourceID: "episode-2", TargetID: "book-a", Kind: EdgeDiscusses, Weight: 1},
			{SourceID: "episode-1", TargetID: "speaker-s", Kind: EdgeSpokenBy, Weight: 1},
			{SourceID: "episode-2", TargetID: "speaker-s", Kind: EdgeSpokenBy, Weight: 1},
			{SourceID: "episode-3", TargetID: "speaker-s", Kind: EdgeSpokenBy, Weight: 1},
			{SourceID: "episode-3", TargetID: "book-b", Kind: EdgeDiscusses, Weight: 1},
			{SourceID: "book-b", TargetID: "speaker-t", Kind: EdgeAuthoredBy, Weight: 1},
		},
		testBuiltAt,
	)
}

func TestFindPath_IsSymmetric(t *testing.T) {
	tests := []struct {
		name  string
		graph *Graph
	}{
		{"scenario", scenarioGraph()},
		{"branching", branchingGraph()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := make([]string, 0, len(tt.graph.Nodes))
			for id := range tt.graph.Nodes {
				ids = append(ids, id)
			}
			for depth := 1; depth <= 5; depth++ {
				for _, from := range ids {
					for _, to := range ids {
						forward, err := tt.graph.FindPath(from, to, depth)
						require.NoError(t, err)
						backward, err := tt.graph.FindPath(to, from, depth)
						require.NoError(t, err)

						require.Equal(t, forward == nil, backward == nil, "%s <-> %s at depth %d", from, to, depth)
						if forward != nil {
							assert.Equal(t, forward.Length(), backward.Length(), "%s <-> %s at depth %d", from, to, depth)
						}
					}
				}
			}
		})
	}

	g := branchingGraph()
	path, err := g.FindPath("book-a", "speaker-t", 3)
	require.NoError(t, err)
	assert.Nil(t, path)
	path, err = g.FindPath("speaker-t", "book-a", 5)
	require.NoError(t, err)
	require.NotNil(t, path)
	assert.Equal(t, 5, path.Length())
}

func TestFindPath_PrefersLowestNeighborIDs(t *testing.T) {
	g := NewGraph(
		[]*Node{
			node(NodeTypeBook, "a", "A"),
			node(NodeTypeEpisode, "2", "Two"),
			node(NodeTypeEpisode, "1", "One"),
			node(NodeTypeSpeaker, "s", "S"),
		},
		[]Edge{
			{SourceID: "episode-2", TargetID: "book-a", Kind: EdgeDiscusses, Weight: 1},
			{SourceID: "episode-1", TargetID: "book-a", Kind: EdgeDiscusses, Weight: 1},
			{SourceID: "episode-2", TargetID: "speaker-s", Kind: EdgeSpokenBy, Weight: 1},
			{SourceID: "episode-1", TargetID: "speaker-s", Kind: EdgeSpokenBy, Weight: 1},
		},
		testBuiltAt,
	)

	path, err := g.FindPath("book-a", "speaker-s", 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"book-a", "episode-1", "speaker-s"}, nodeIDs(path.Nodes))
}

func TestSearch_RanksExactThenPrefixThenSubstring(t *testing.T) {
	g := NewGraph(
		[]*Node{
			node(NodeTypeTopic, "habits", "Habits"),
			node(NodeTypeBook, "atomic", "Habits of Mind"),
			node(NodeTypeEpisode, "9", "On Good Habits"),
			node(NodeTypeSpeaker, "x", "Unrelated"),
		},
		nil,
		testBuiltAt,
	)

	results, err := g.Search("habits", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"topic-habits", "book-atomic", "episode-9"}, nodeIDs(results))

	results, err = g.Search("HABITS", []NodeType{NodeTypeEpisode})
	require.NoError(t, err)
	assert.Equal(t, []string{"episode-9"}, nodeIDs(results))
}

func TestSearch_MatchesFoldedArabicLabels(t *testing.T) {
	g := NewGraph(
		[]*Node{{ID: "book-atomic", Type: NodeTypeBook, Label: "Atomic Habits", LabelAr: "العادات الذرّية"}},
		nil,
		testBuiltAt,
	)

	results, err := g.Search("الذرية", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"book-atomic"}, nodeIDs(results))
}

func TestSearch_BlankQuery(t *testing.T) {
	_, err := scenarioGraph().Search("   ", nil)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestMostConnected(t *testing.T) {
	g := scenarioGraph()

	ranked, err := g.MostConnected(2, "")
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "episode-156", ranked[0].Node.ID)
	assert.Equal(t, 2, ranked[0].Degree)
	assert.Equal(t, "book-atomic", ranked[1].Node.ID, "degree ties are ordered by id")

	ranked, err = g.MostConnected(10, NodeTypeSpeaker)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "speaker-ahmed", ranked[0].Node.ID)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Degree, ranked[i].Degree)
	}

	_, err = g.MostConnected(0, "")
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestCoOccurrence(t *testing.T) {
	g := NewGraph(
		[]*Node{
			node(NodeTypeBook, "atomic", "Atomic Habits"),
			node(NodeTypeEpisode, "156", "Ep156"),
			node(NodeTypeSpeaker, "ahmed", "Ahmed"),
			node(NodeTypeBook, "deep", "Deep Work"),
		},
		[]Edge{
			{SourceID: "episode-156", TargetID: "book-atomic", Kind: EdgeDiscusses, Weight: 2},
			{SourceID: "episode-156", TargetID: "speaker-ahmed", Kind: EdgeSpokenBy, Weight: 1},
			{SourceID: "episode-156", TargetID: "book-deep", Kind: EdgeDiscusses, Weight: 1},
		},
		testBuiltAt,
	)

	scores := g.CoOccurrence([]string{"book-atomic", "book-atomic", "book-missing"})

	assert.InDelta(t, 2.0, scores["episode-156"], 1e-9)
	assert.InDelta(t, 3.0, scores["speaker-ahmed"], 1e-9)
	assert.InDelta(t, 3.0, scores["book-deep"], 1e-9)
	assert.NotContains(t, scores, "book-atomic")
}
