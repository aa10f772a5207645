package shard

import "strings"

// ActiveIndex is the subset of the index-version store the router needs.
// Defined here (rather than imported from internal/store) so this
// package stays a thin routing layer independent of any particular
// storage implementation.
type ActiveIndex interface {
	HasActiveIndex(indexType, shardID string) (active bool, err error)
	ActiveShards(indexType string) ([]string, error)
}

// AssignmentLookup is the subset of shard-assignment persistence the
// router needs.
type AssignmentLookup interface {
	ShardFor(subreddit string) (shardID string, ok bool)
}

// Router resolves which shard_ids a query against a given index type
// should scan.
type Router struct {
	assignments AssignmentLookup
	index       ActiveIndex
}

// NewRouter builds a Router over the given assignment lookup and active
// index lookup.
func NewRouter(assignments AssignmentLookup, index ActiveIndex) *Router {
	return &Router{assignments: assignments, index: index}
}

// Resolve returns the shard_ids the searcher should query for indexType.
//
// If subreddit is non-empty, its planned shard is tried first; if that
// shard has no active index, the legacy per-subreddit shard name
// (shard_<subreddit>) is tried as a fallback, in case the subreddit was
// indexed before a grouped-shard replan folded it elsewhere. If neither
// has an active index, Resolve returns an empty slice.
//
// If subreddit is empty, Resolve returns every shard with an active
// index of indexType.
func (r *Router) Resolve(subreddit, indexType string) ([]string, error) {
	if subreddit == "" {
		return r.index.ActiveShards(indexType)
	}

	sub := strings.ToLower(strings.TrimSpace(subreddit))
	shardID, ok := r.assignments.ShardFor(sub)
	if !ok {
		shardID = "shard_" + sub
	}

	active, err := r.index.HasActiveIndex(indexType, shardID)
	if err != nil {
		return nil, err
	}
	if active {
		return []string{shardID}, nil
	}

	legacy := "shard_" + sub
	if legacy != shardID {
		active, err = r.index.HasActiveIndex(indexType, legacy)
		if err != nil {
			return nil, err
		}
		if active {
			return []string{legacy}, nil
		}
	}

	return []string{}, nil
}
