package repositories

// UpdateResult mirrors the acknowledgment of a single-row update.
// MatchedCount counts rows selected by the filter, ModifiedCount rows actually changed.
type UpdateResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}
