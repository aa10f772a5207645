package store

// These thin adapters satisfy internal/shard's ActiveIndex and
// AssignmentLookup interfaces without internal/shard needing to depend
// on internal/store's richer row types.

// HasActiveIndex reports whether an active index exists for (indexType,
// shardID).
func (db *DB) HasActiveIndex(indexType, shardID string) (bool, error) {
	v, err := db.GetActive(indexType, shardID)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

// ActiveShards returns the shard ids with an active index of indexType.
func (db *DB) ActiveShards(indexType string) ([]string, error) {
	all, err := db.GetAllActive()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(all))
	for _, v := range all {
		if v.IndexType == indexType {
			out = append(out, v.ShardID)
		}
	}
	return out, nil
}

// ShardFor looks up the planned shard for subreddit.
func (db *DB) ShardFor(subreddit string) (string, bool) {
	shardID, ok, err := db.GetShardAssignment(subreddit)
	if err != nil {
		return "", false
	}
	return shardID, ok
}
