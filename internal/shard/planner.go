// Package shard computes and resolves the subreddit -> shard_id mapping
// that every index builder and searcher routes through.
package shard

import (
	"fmt"
	"sort"
	"strings"
)

// Plan is a subreddit -> shard_id mapping produced by Compute.
type Plan struct {
	Assignments map[string]string
}

// ShardFor returns the shard assigned to subreddit, falling back to
// shard_<sub> if the plan has no entry for it.
func (p Plan) ShardFor(subreddit string) string {
	sub := normalize(subreddit)
	if sid, ok := p.Assignments[sub]; ok {
		return sid
	}
	return fmt.Sprintf("shard_%s", sub)
}

// SubredditsIn returns every subreddit routed to shardID.
func (p Plan) SubredditsIn(shardID string) []string {
	var out []string
	for sub, sid := range p.Assignments {
		if sid == shardID {
			out = append(out, sub)
		}
	}
	sort.Strings(out)
	return out
}

// ShardIDs returns the sorted set of unique shard ids in the plan.
func (p Plan) ShardIDs() []string {
	seen := make(map[string]struct{})
	for _, sid := range p.Assignments {
		seen[sid] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for sid := range seen {
		out = append(out, sid)
	}
	sort.Strings(out)
	return out
}

// Planner computes shard assignments from subreddit doc counts.
type Planner struct {
	DedicatedThreshold int
	GroupedShardName   string
}

// NewPlanner constructs a Planner with the given threshold and grouped
// shard name.
func NewPlanner(dedicatedThreshold int, groupedShardName string) *Planner {
	return &Planner{DedicatedThreshold: dedicatedThreshold, GroupedShardName: groupedShardName}
}

// Compute decides, for every subreddit with a doc count, whether it
// gets a dedicated shard or is folded into the grouped shard.
// Replanning from the same counts is idempotent.
func (p *Planner) Compute(docCounts map[string]int) Plan {
	assignments := make(map[string]string, len(docCounts))
	for sub, count := range docCounts {
		sub = normalize(sub)
		if count >= p.DedicatedThreshold {
			assignments[sub] = fmt.Sprintf("shard_%s", sub)
		} else {
			assignments[sub] = p.GroupedShardName
		}
	}
	return Plan{Assignments: assignments}
}

func normalize(subreddit string) string {
	return strings.ToLower(strings.TrimSpace(subreddit))
}
