package build

import (
	"github.com/forumsearch/core/internal/shard"
	"github.com/forumsearch/core/internal/store"
)

// Store is the subset of *store.DB the builders in this package
// depend on.
type Store interface {
	TokensBySubreddits(subs []string) (map[string][]string, error)
	ListBySubreddits(subs []string) ([]store.RawPost, error)
	DocCountsBySubreddit() (map[string]int, error)
	GetLatestVersionNumber(indexType, shardID string) (int, error)
	InsertIndexVersion(v store.IndexVersion) (int64, error)
	Activate(indexType, shardID string, version int) error
	AllShardAssignments() (map[string]string, error)
	UpsertShardAssignments(assignments map[string]string) error
}

// Summary is the result of one build_subreddit/build_shard call, per
// spec.md §4.10. Version/DocCount/FilePath are zero/empty when the
// input was empty and no version row was inserted.
type Summary struct {
	ShardID    string
	Subreddits []string
	Version    int
	DocCount   int
	FilePath   string
}

// resolvePlan returns the persisted shard plan if one exists, else
// computes a fresh one from current doc counts and persists it so
// subsequent builds (and the router) see a stable assignment.
func resolvePlan(st Store, planner *shard.Planner) (shard.Plan, error) {
	assignments, err := st.AllShardAssignments()
	if err != nil {
		return shard.Plan{}, err
	}
	if len(assignments) > 0 {
		return shard.Plan{Assignments: assignments}, nil
	}

	counts, err := st.DocCountsBySubreddit()
	if err != nil {
		return shard.Plan{}, err
	}
	plan := planner.Compute(counts)
	if err := st.UpsertShardAssignments(plan.Assignments); err != nil {
		return shard.Plan{}, err
	}
	return plan, nil
}

// shardForSubreddit resolves a single subreddit to its shard id via
// the persisted/computed plan.
func shardForSubreddit(st Store, planner *shard.Planner, subreddit string) (string, error) {
	plan, err := resolvePlan(st, planner)
	if err != nil {
		return "", err
	}
	return plan.ShardFor(subreddit), nil
}
