package graph

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"podcast-insights/backend/internal/catalog"
	"podcast-insights/backend/internal/constants"
	"podcast-insights/backend/internal/metrics"
	"podcast-insights/backend/internal/utils"
	apperrors "podcast-insights/backend/pkg/errors"
	"podcast-insights/backend/pkg/logger"
)

const fullGraphKey = "full"

// Builder turns catalog rows into graph snapshots and owns the full-graph
// cache slot
type Builder struct {
	store  catalog.Store
	cache  *Cache
	logger *zap.Logger
	now    func() time.Time
	flight singleflight.Group
}

// BuilderOption configures a Builder
type BuilderOption func(*Builder)

// WithLogger sets the builder's logger
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = l
	}
}

// WithClock sets the clock stamped into graph metadata
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a builder over store. A nil cache gets a private one with
// the default TTL.
func NewBuilder(store catalog.Store, cache *Cache, opts ...BuilderOption) *Builder {
	if cache == nil {
		cache = NewCache(constants.DefaultGraphCacheTTL)
	}
	b := &Builder{
		store:  store,
		cache:  cache,
		logger: logger.Named("graph"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildFullGraph returns the full catalog graph. A fresh cached graph is
// returned unless forceRefresh is set; concurrent misses share one build,
// which keeps running when the caller that started it goes away. On failure
// the previously cached graph stays in place.
func (b *Builder) BuildFullGraph(ctx context.Context, forceRefresh bool) (*Graph, error) {
	if forceRefresh {
		return b.rebuild(ctx)
	}

	if g, ok := b.cache.Get(); ok {
		metrics.GraphCacheHits.Inc()
		return g, nil
	}
	metrics.GraphCacheMisses.Inc()

	ch := b.flight.DoChan(fullGraphKey, func() (interface{}, error) {
		if g, ok := b.cache.Get(); ok {
			return g, nil
		}
		// the build serves every waiting caller and outlives the one that started it
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.GraphBuildTimeout)
		defer cancel()
		return b.rebuild(buildCtx)
	})

	select {
	case <-ctx.Done():
		return nil, apperrors.NewContextCancelled("build graph", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			b.logger.Debug("Shared in-flight graph build")
		}
		return res.Val.(*Graph), nil
	}
}

// BuildGraphByTypes builds a graph restricted to the requested node types.
// It always reads fresh rows and never touches the cache.
func (b *Builder) BuildGraphByTypes(ctx context.Context, types []NodeType) (*Graph, error) {
	if len(types) == 0 {
		return nil, apperrors.NewInvalidArgument("types", "at least one node type is required")
	}
	allowed := make(map[NodeType]bool, len(types))
	for _, t := range types {
		if _, err := ParseNodeType(string(t)); err != nil {
			return nil, err
		}
		allowed[t] = true
	}

	start := time.Now()
	snap, err := b.fetch(ctx)
	if err != nil {
		metrics.RecordGraphBuild("types", buildResult(err), time.Since(start))
		return nil, err
	}

	g := b.assemble(snap, allowed)
	for _, t := range AllNodeTypes {
		if allowed[t] {
			g.Metadata.Types = append(g.Metadata.Types, t)
		}
	}
	metrics.RecordGraphBuild("types", "success", time.Since(start))
	return g, nil
}

// Invalidate empties the cache slot so the next request rebuilds
func (b *Builder) Invalidate() {
	b.cache.Invalidate()
	b.logger.Info("Graph cache invalidated")
}

// Cached returns the cached graph without building
func (b *Builder) Cached() (*Graph, bool) {
	return b.cache.Get()
}

func (b *Builder) rebuild(ctx context.Context) (*Graph, error) {
	start := time.Now()
	snap, err := b.fetch(ctx)
	if err != nil {
		metrics.RecordGraphBuild("full", buildResult(err), time.Since(start))
		b.logger.Error("Graph build failed", zap.Error(err))
		return nil, err
	}

	g := b.assemble(snap, nil)
	b.cache.Set(g)

	elapsed := time.Since(start)
	metrics.RecordGraphBuild("full", "success", elapsed)
	metrics.RecordGraphSize(g.Metadata.NodeCount, g.Metadata.EdgeCount)
	b.logger.Info("Graph built",
		zap.Int("nodes", g.Metadata.NodeCount),
		zap.Int("edges", g.Metadata.EdgeCount),
		zap.Duration("duration", elapsed),
	)
	return g, nil
}

// fetch reads every entity and link list in parallel. The first failure
// cancels the remaining reads.
func (b *Builder) fetch(ctx context.Context) (catalog.Snapshot, error) {
	var snap catalog.Snapshot
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() (err error) {
		snap.Episodes, err = b.store.ListEpisodes(ctx)
		return storeError("list episodes", err)
	})
	eg.Go(func() (err error) {
		snap.Books, err = b.store.ListBooks(ctx)
		return storeError("list books", err)
	})
	eg.Go(func() (err error) {
		snap.Speakers, err = b.store.ListSpeakers(ctx)
		return storeError("list speakers", err)
	})
	eg.Go(func() (err error) {
		snap.Quotes, err = b.store.ListQuotes(ctx)
		return storeError("list quotes", err)
	})
	eg.Go(func() (err error) {
		snap.BookEpisodes, err = b.store.ListBookEpisodes(ctx)
		return storeError("list book episodes", err)
	})
	eg.Go(func() (err error) {
		snap.SpeakerEpisodes, err = b.store.ListSpeakerEpisodes(ctx)
		return storeError("list speaker episodes", err)
	})
	eg.Go(func() (err error) {
		snap.SpeakerBooks, err = b.store.ListSpeakerBooks(ctx)
		return storeError("list speaker books", err)
	})

	if err := eg.Wait(); err != nil {
		return catalog.Snapshot{}, err
	}
	return snap, nil
}

// storeError keeps typed store and context errors and wraps anything else,
// including malformed records, as a store failure
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsStoreUnavailable(err) || apperrors.IsErrorType(err, apperrors.ErrorTypeContext) {
		return err
	}
	return apperrors.NewStoreUnavailable(op, err)
}

func buildResult(err error) string {
	if apperrors.IsStoreUnavailable(err) {
		return "store_unavailable"
	}
	return "error"
}

// assemble creates nodes and edges for the allowed types, or for every type
// when allowed is nil. Topic and concept nodes come from the tags of the
// whole catalog; their edges to excluded entities are dropped with every
// other dangling edge.
func (b *Builder) assemble(snap catalog.Snapshot, allowed map[NodeType]bool) *Graph {
	include := func(t NodeType) bool {
		return allowed == nil || allowed[t]
	}

	var nodes []*Node
	var edges []Edge
	tags := newTagIndex()

	for _, e := range snap.Episodes {
		id := NodeID(NodeTypeEpisode, e.ID)
		if include(NodeTypeEpisode) {
			nodes = append(nodes, &Node{
				ID:      id,
				Type:    NodeTypeEpisode,
				Label:   e.Title,
				LabelAr: e.TitleAr,
				Metadata: map[string]interface{}{
					MetaEntityID:      e.ID,
					MetaTopics:        []string(e.Topics),
					MetaCategory:      e.Category,
					MetaMood:          e.Mood,
					MetaTone:          e.Tone,
					MetaPublishedAt:   e.PublishedAt,
					MetaPopularity:    e.Views,
					"durationSeconds": e.DurationSeconds,
				},
			})
		}
		edges = append(edges, tags.link(id, NodeTypeTopic, e.Topics)...)
		edges = append(edges, tags.link(id, NodeTypeConcept, e.Concepts)...)
	}

	for _, bk := range snap.Books {
		id := NodeID(NodeTypeBook, bk.ID)
		if include(NodeTypeBook) {
			nodes = append(nodes, &Node{
				ID:      id,
				Type:    NodeTypeBook,
				Label:   bk.Title,
				LabelAr: bk.TitleAr,
				Metadata: map[string]interface{}{
					MetaEntityID:    bk.ID,
					MetaTopics:      []string(bk.Topics),
					MetaCategory:    bk.Category,
					MetaPublishedAt: bk.PublishedAt,
					MetaPopularity:  bk.Mentions,
					"author":        bk.Author,
				},
			})
		}
		edges = append(edges, tags.link(id, NodeTypeTopic, bk.Topics)...)
	}

	for _, s := range snap.Speakers {
		id := NodeID(NodeTypeSpeaker, s.ID)
		if include(NodeTypeSpeaker) {
			nodes = append(nodes, &Node{
				ID:      id,
				Type:    NodeTypeSpeaker,
				Label:   s.Name,
				LabelAr: s.NameAr,
				Metadata: map[string]interface{}{
					MetaEntityID:   s.ID,
					MetaTopics:     []string(s.Topics),
					MetaPopularity: s.Followers,
				},
			})
		}
		edges = append(edges, tags.link(id, NodeTypeTopic, s.Topics)...)
	}

	for _, q := range snap.Quotes {
		id := NodeID(NodeTypeQuote, q.ID)
		if include(NodeTypeQuote) {
			nodes = append(nodes, &Node{
				ID:      id,
				Type:    NodeTypeQuote,
				Label:   q.Text,
				LabelAr: q.TextAr,
				Metadata: map[string]interface{}{
					MetaEntityID: q.ID,
					MetaTopics:   []string(q.Topics),
				},
			})
		}
		edges = append(edges, tags.link(id, NodeTypeTopic, q.Topics)...)
		if q.EpisodeID != "" {
			edges = append(edges, Edge{SourceID: id, TargetID: NodeID(NodeTypeEpisode, q.EpisodeID), Kind: EdgeMentions, Weight: 1})
		}
		if q.BookID != "" {
			edges = append(edges, Edge{SourceID: id, TargetID: NodeID(NodeTypeBook, q.BookID), Kind: EdgeMentions, Weight: 1})
		}
		if q.SpeakerID != "" {
			edges = append(edges, Edge{SourceID: id, TargetID: NodeID(NodeTypeSpeaker, q.SpeakerID), Kind: EdgeMentions, Weight: 1})
		}
	}

	for _, l := range snap.BookEpisodes {
		edges = append(edges, Edge{
			SourceID: NodeID(NodeTypeEpisode, l.EpisodeID),
			TargetID: NodeID(NodeTypeBook, l.BookID),
			Kind:     EdgeDiscusses,
			Weight:   catalog.LinkWeight(l.Weight),
		})
	}
	for _, l := range snap.SpeakerEpisodes {
		edges = append(edges, Edge{
			SourceID: NodeID(NodeTypeEpisode, l.EpisodeID),
			TargetID: NodeID(NodeTypeSpeaker, l.SpeakerID),
			Kind:     EdgeSpokenBy,
			Weight:   catalog.LinkWeight(l.Weight),
		})
	}
	for _, l := range snap.SpeakerBooks {
		edges = append(edges, Edge{
			SourceID: NodeID(NodeTypeBook, l.BookID),
			TargetID: NodeID(NodeTypeSpeaker, l.SpeakerID),
			Kind:     EdgeAuthoredBy,
			Weight:   catalog.LinkWeight(l.Weight),
		})
	}

	if include(NodeTypeTopic) {
		nodes = append(nodes, tags.nodes(NodeTypeTopic)...)
	}
	if include(NodeTypeConcept) {
		nodes = append(nodes, tags.nodes(NodeTypeConcept)...)
	}

	g, stats := newGraph(nodes, edges, b.now())
	if stats.droppedEdges > 0 || stats.mergedEdges > 0 || stats.duplicateNodes > 0 {
		b.logger.Debug("Graph assembly adjustments",
			zap.Int("dropped_edges", stats.droppedEdges),
			zap.Int("merged_edges", stats.mergedEdges),
			zap.Int("duplicate_nodes", stats.duplicateNodes),
		)
	}
	return g
}

// tagIndex collects topic and concept tags into derived nodes keyed by slug.
// The first spelling seen becomes the label.
type tagIndex struct {
	labels map[NodeType]map[string]string
	counts map[NodeType]map[string]int
}

func newTagIndex() *tagIndex {
	return &tagIndex{
		labels: map[NodeType]map[string]string{NodeTypeTopic: {}, NodeTypeConcept: {}},
		counts: map[NodeType]map[string]int{NodeTypeTopic: {}, NodeTypeConcept: {}},
	}
}

func (ti *tagIndex) link(entityNodeID string, t NodeType, tags []string) []Edge {
	kind := EdgeRelatedTopic
	if t == NodeTypeConcept {
		kind = EdgeMentions
	}
	var edges []Edge
	for _, tag := range tags {
		slug := utils.Slug(tag)
		if slug == "" {
			continue
		}
		if _, ok := ti.labels[t][slug]; !ok {
			ti.labels[t][slug] = tag
		}
		ti.counts[t][slug]++
		edges = append(edges, Edge{SourceID: entityNodeID, TargetID: NodeID(t, slug), Kind: kind, Weight: 1})
	}
	return edges
}

func (ti *tagIndex) nodes(t NodeType) []*Node {
	out := make([]*Node, 0, len(ti.labels[t]))
	for slug, label := range ti.labels[t] {
		out = append(out, &Node{
			ID:    NodeID(t, slug),
			Type:  t,
			Label: label,
			Metadata: map[string]interface{}{
				MetaEntityID:   slug,
				MetaTopics:     []string{label},
				MetaPopularity: ti.counts[t][slug],
			},
		})
	}
	return out
}
