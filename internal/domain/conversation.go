package domain

import "time"

// Turn is one completed exchange within a session: the utterance, the intent
// it resolved to, and a short summary of the response. Turns are appended to
// the bounded session history and never mutated afterwards.
type Turn struct {
	Utterance string
	Intent    string
	Summary   string
	At        time.Time
}

// ConversationRow is a single persisted conversation turn.
type ConversationRow struct {
	PK            string
	SK            string
	SessionID     string
	Utterance     string
	Intent        string
	Summary       string
	LatencyMillis int64
	Success       bool
	TTL           int64
}

// UsageRow is a single persisted dispatch record. Rows are append-only and
// read back only in aggregate.
type UsageRow struct {
	PK            string
	SK            string
	Intent        string
	SessionID     string
	Timestamp     string
	LatencyMillis int64
	Success       bool
	TTL           int64
}
