package engine

import (
	"sort"
	"sync"
	"time"
)

// IntentStats is an aggregate usage snapshot for one intent.
type IntentStats struct {
	Dispatches   int64
	Successes    int64
	TotalLatency time.Duration
}

// SuccessRate returns the fraction of successful dispatches, zero when the
// intent has never been dispatched.
func (s IntentStats) SuccessRate() float64 {
	if s.Dispatches == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Dispatches)
}

// AverageLatency returns the mean dispatch latency.
func (s IntentStats) AverageLatency() time.Duration {
	if s.Dispatches == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.Dispatches)
}

// Usage accumulates per-intent dispatch counters. It is shared, append-only
// state across all sessions: increments are serialized, reads work on
// snapshot copies and may lag concurrent increments. Resolution never reads
// usage data; it only drives presentation ranking and fallback hints.
type Usage struct {
	mu        sync.Mutex
	perIntent map[string]IntentStats
}

// NewUsage returns an empty usage aggregate.
func NewUsage() *Usage {
	return &Usage{perIntent: make(map[string]IntentStats)}
}

// Record adds one dispatch outcome for an intent.
func (u *Usage) Record(intent string, latency time.Duration, success bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	s := u.perIntent[intent]
	s.Dispatches++
	if success {
		s.Successes++
	}
	s.TotalLatency += latency
	u.perIntent[intent] = s
}

// Seed initializes counters from persisted aggregates, e.g. at cold start.
// Intended for bootstrap only, before traffic is accepted.
func (u *Usage) Seed(counts map[string]int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for intent, n := range counts {
		s := u.perIntent[intent]
		s.Dispatches += n
		s.Successes += n
		u.perIntent[intent] = s
	}
}

// Stats returns a snapshot copy of all per-intent aggregates.
func (u *Usage) Stats() map[string]IntentStats {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make(map[string]IntentStats, len(u.perIntent))
	for intent, s := range u.perIntent {
		out[intent] = s
	}
	return out
}

// Ranking returns up to limit intent ids ordered by dispatch count, most used
// first, ties alphabetical for stability. A pure function over the snapshot.
func (u *Usage) Ranking(limit int) []string {
	stats := u.Stats()
	intents := make([]string, 0, len(stats))
	for intent := range stats {
		intents = append(intents, intent)
	}
	sort.Slice(intents, func(i, j int) bool {
		si, sj := stats[intents[i]], stats[intents[j]]
		if si.Dispatches != sj.Dispatches {
			return si.Dispatches > sj.Dispatches
		}
		return intents[i] < intents[j]
	})
	if limit > 0 && len(intents) > limit {
		intents = intents[:limit]
	}
	return intents
}
