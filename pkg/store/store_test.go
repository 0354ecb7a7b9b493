package store

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elfiee/elfiee/pkg/model"
	"github.com/elfiee/elfiee/pkg/vclock"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.db")
	s, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustEvent(t *testing.T, entity, attribute string, value any, clock vclock.Clock) model.Event {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	return model.Event{
		EventID:   "evt_" + entity + "_" + attribute,
		Entity:    entity,
		Attribute: attribute,
		Value:     raw,
		Timestamp: clock,
	}
}

func TestAppendAndGetAllEventsPreservesOrder(t *testing.T) {
	s := openTestStore(t)

	e1 := mustEvent(t, "block-1", "ed-1/core.create", map[string]any{"name": "a"}, vclock.Clock{"ed-1": 1})
	e2 := mustEvent(t, "block-1", "ed-1/core.update_metadata", map[string]any{"metadata": "x"}, vclock.Clock{"ed-1": 2})

	require.NoError(t, s.AppendEvent(e1))
	require.NoError(t, s.AppendEvent(e2))

	got, err := s.GetAllEvents()
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, e1.EventID, got[0].EventID)
	require.Equal(t, e2.EventID, got[1].EventID)
	require.Equal(t, int64(2), got[1].Timestamp.Get("ed-1"))
}

func TestAppendEventsIsAtomic(t *testing.T) {
	s := openTestStore(t)

	events := []model.Event{
		mustEvent(t, "block-1", "ed-1/core.create", map[string]any{"name": "a"}, vclock.Clock{"ed-1": 1}),
		mustEvent(t, "block-1", "ed-1/core.link", map[string]any{"children": map[string][]string{}}, vclock.Clock{"ed-1": 2}),
	}
	require.NoError(t, s.AppendEvents(events))
	require.Equal(t, int64(2), s.CountEvents())
}

func TestGetEventsByEntityFiltersCorrectly(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AppendEvent(mustEvent(t, "block-1", "ed-1/core.create", map[string]any{}, vclock.Clock{"ed-1": 1})))
	require.NoError(t, s.AppendEvent(mustEvent(t, "block-2", "ed-1/core.create", map[string]any{}, vclock.Clock{"ed-1": 2})))

	got, err := s.GetEventsByEntity("block-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "block-1", got[0].Entity)
}

func TestGetEventsByAttributeFiltersCorrectly(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AppendEvent(mustEvent(t, "block-1", "ed-1/core.create", map[string]any{}, vclock.Clock{"ed-1": 1})))
	require.NoError(t, s.AppendEvent(mustEvent(t, "block-1", "ed-2/core.grant", map[string]any{}, vclock.Clock{"ed-2": 1})))

	got, err := s.GetEventsByAttribute("ed-1/core.create")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "ed-1/core.create", got[0].Attribute)
}

func TestCountEventsEmptyLog(t *testing.T) {
	s := openTestStore(t)
	require.Equal(t, int64(0), s.CountEvents())
}

func TestGetAllEventsSurfacesMalformedTimestampAsDecodeError(t *testing.T) {
	s := openTestStore(t)

	_, err := s.db.Exec(
		`INSERT INTO events (event_id, entity, attribute, value, timestamp) VALUES (?, ?, ?, ?, ?)`,
		"evt-bad", "block-1", "ed-1/core.create", `{}`, `not-json`,
	)
	require.NoError(t, err)

	_, err = s.GetAllEvents()
	require.Error(t, err)
	require.ErrorIs(t, err, model.ErrDecodeError)
}
