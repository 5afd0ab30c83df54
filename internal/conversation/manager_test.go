package conversation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"buddy-agent/internal/domain"
)

func turn(n int) domain.Turn {
	return domain.Turn{
		Utterance: fmt.Sprintf("utterance %d", n),
		Intent:    "joke",
		Summary:   fmt.Sprintf("reply %d", n),
		At:        time.Date(2026, 1, 1, 12, 0, n, 0, time.UTC),
	}
}

func TestAppend_EvictsOldestBeyondBound(t *testing.T) {
	m := NewManager(3)
	for i := 0; i < 5; i++ {
		m.Append("s1", turn(i))
	}

	history := m.History("s1")
	require.Len(t, history, 3)
	require.Equal(t, "utterance 2", history[0].Utterance)
	require.Equal(t, "utterance 4", history[2].Utterance)
}

func TestHistory_UnknownSessionIsEmpty(t *testing.T) {
	m := NewManager(3)
	require.Empty(t, m.History("nope"))
}

func TestHistory_ReturnsCopy(t *testing.T) {
	m := NewManager(3)
	m.Append("s1", turn(0))

	history := m.History("s1")
	history[0].Utterance = "mutated"

	require.Equal(t, "utterance 0", m.History("s1")[0].Utterance)
}

func TestSessions_AreIsolated(t *testing.T) {
	m := NewManager(3)
	m.Append("s1", turn(0))
	m.SetPreference("s1", "location", "berlin")

	require.Empty(t, m.History("s2"))
	_, ok := m.Preference("s2", "location")
	require.False(t, ok)

	loc, ok := m.Preference("s1", "location")
	require.True(t, ok)
	require.Equal(t, "berlin", loc)
}

func TestDrop_DiscardsAllState(t *testing.T) {
	m := NewManager(3)
	m.Append("s1", turn(0))
	m.SetPreference("s1", "location", "berlin")

	m.Drop("s1")

	require.Empty(t, m.History("s1"))
	_, ok := m.Preference("s1", "location")
	require.False(t, ok)
}

func TestView_HistoryLimit(t *testing.T) {
	m := NewManager(10)
	for i := 0; i < 6; i++ {
		m.Append("s1", turn(i))
	}

	v := m.View("s1")
	limited := v.History(2)
	require.Len(t, limited, 2)
	require.Equal(t, "utterance 4", limited[0].Utterance)
	require.Equal(t, "utterance 5", limited[1].Utterance)

	require.Len(t, v.History(0), 6)
}

func TestView_Preferences(t *testing.T) {
	m := NewManager(10)
	v := m.View("s1")

	_, ok := v.Preference("location")
	require.False(t, ok)

	v.SetPreference("location", "tokyo")
	loc, ok := v.Preference("location")
	require.True(t, ok)
	require.Equal(t, "tokyo", loc)

	// Written through to the manager, visible on a fresh view.
	loc, ok = m.View("s1").Preference("location")
	require.True(t, ok)
	require.Equal(t, "tokyo", loc)
}

func TestNewManager_DefaultBound(t *testing.T) {
	m := NewManager(0)
	for i := 0; i < 15; i++ {
		m.Append("s1", turn(i))
	}
	require.Len(t, m.History("s1"), defaultMaxTurns)
}
