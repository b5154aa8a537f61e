package constants

import "time"

// Graph constants
const (
	// DefaultGraphCacheTTL is how long a built graph is served before a rebuild
	DefaultGraphCacheTTL = 5 * time.Minute

	// GraphBuildTimeout bounds a shared graph build, which runs detached from
	// the requests waiting on it
	GraphBuildTimeout = 30 * time.Second

	// MaxTraversalDepth caps subgraph and path requests coming from the API
	MaxTraversalDepth = 6

	// DefaultSearchLimit is used when a search request does not set a limit
	DefaultSearchLimit = 50
)

// Profile constants
const (
	// DefaultHistoryLimit bounds the interaction history kept on a profile
	DefaultHistoryLimit = 200

	// DefaultEngagementHalfLife is the decay half-life of engagement activity
	DefaultEngagementHalfLife = 7 * 24 * time.Hour

	// FavoriteTopicsLimit is how many ranked topics a profile exposes
	FavoriteTopicsLimit = 10

	// RecentSearchesLimit bounds the searches remembered in preferences
	RecentSearchesLimit = 20

	// TallyRecencyDepth is how many of a tally's latest interaction times
	// are kept for breaking weight ties
	TallyRecencyDepth = 8
)

// Recommendation constants
const (
	// DefaultRecommendationLimit is used when a request does not set a limit
	DefaultRecommendationLimit = 10

	// MaxRecommendationLimit caps the list length an API caller may ask for
	MaxRecommendationLimit = 100

	// RecentHistoryWindow is how many recent history events count as
	// "recently consumed" when building a candidate pool
	RecentHistoryWindow = 50
)
