package models

// Datapoint is one logged measurement on a goal: a value, the unix second it
// occurred, and a free-text annotation. Fulltext and Daystamp are populated
// only on datapoints fetched from the remote API; the local store does not
// persist them.
type Datapoint struct {
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"` // unix seconds
	Comment   string  `json:"comment"`
	ID        string  `json:"id,omitempty"`
	Fulltext  string  `json:"fulltext,omitempty"`
	Daystamp  string  `json:"daystamp,omitempty"`
}

// DatapointKey is the reconciliation identity of a datapoint. Two datapoints
// with equal timestamp and value are the same record regardless of id or
// comment. Distinct legitimate records sharing both fields therefore collapse
// into one — a known modeling limitation kept for compatibility with the
// existing store format.
type DatapointKey struct {
	Timestamp int64
	Value     float64
}

// Key returns the (timestamp, value) identity pair.
func (d Datapoint) Key() DatapointKey {
	return DatapointKey{Timestamp: d.Timestamp, Value: d.Value}
}
