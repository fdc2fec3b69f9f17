package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/agentworkforce/seqfield/sequence"
)

func newTaskSequencer(t *testing.T, m *MemoryStore) *sequence.Sequencer {
	t.Helper()
	seq, err := sequence.New(m, "tasks", sequence.Config{
		OrderField:  "position",
		GroupFields: []string{"project"},
	})
	require.NoError(t, err)
	return seq
}

func insertRecord(t *testing.T, seq *sequence.Sequencer, m *MemoryStore, payload sequence.Record) string {
	t.Helper()
	ctx := context.Background()
	plan, err := seq.BeforeWrite(ctx, "", payload)
	require.NoError(t, err)
	id := m.Insert(seq.Collection(), payload)
	require.NoError(t, seq.AfterWrite(ctx, plan, id))
	return id
}

func updateRecord(t *testing.T, seq *sequence.Sequencer, m *MemoryStore, id string, payload sequence.Record) {
	t.Helper()
	ctx := context.Background()
	plan, err := seq.BeforeWrite(ctx, id, payload)
	require.NoError(t, err)
	require.True(t, m.Apply(seq.Collection(), id, payload))
	require.NoError(t, seq.AfterWrite(ctx, plan, id))
}

func deleteRecord(t *testing.T, seq *sequence.Sequencer, m *MemoryStore, id string) {
	t.Helper()
	ctx := context.Background()
	plan, err := seq.BeforeDelete(ctx, id)
	require.NoError(t, err)
	require.True(t, m.Delete(seq.Collection(), id))
	require.NoError(t, seq.AfterDelete(ctx, plan))
}

func seedProject(t *testing.T, seq *sequence.Sequencer, m *MemoryStore, project any, ids ...string) {
	t.Helper()
	for _, id := range ids {
		insertRecord(t, seq, m, sequence.Record{"id": id, "project": project})
	}
}

// requireSequence asserts both the ordering of the group and its contiguity:
// positions must be exactly 0..len(want)-1.
func requireSequence(t *testing.T, m *MemoryStore, project any, want []string) {
	t.Helper()
	got := m.IDsByOrder("tasks", map[string]any{"project": project}, "position")
	require.Equal(t, want, got)
	for i, id := range got {
		rec, ok := m.Get("tasks", id)
		require.True(t, ok)
		order, valid := sequence.OrderValue(rec["position"])
		require.True(t, valid)
		require.Equal(t, int64(i), order, "position of %s", id)
	}
}

func TestInsertAppendsSequentially(t *testing.T) {
	m := NewMemoryStore()
	seq := newTaskSequencer(t, m)

	seedProject(t, seq, m, "p1", "A", "B", "C")
	requireSequence(t, m, "p1", []string{"A", "B", "C"})
}

func TestInsertAtPosition(t *testing.T) {
	m := NewMemoryStore()
	seq := newTaskSequencer(t, m)

	seedProject(t, seq, m, "p1", "A", "B", "C", "D", "E")
	insertRecord(t, seq, m, sequence.Record{"id": "F", "project": "p1", "position": 2})
	requireSequence(t, m, "p1", []string{"A", "B", "F", "C", "D", "E"})
}

func TestMoveUp(t *testing.T) {
	m := NewMemoryStore()
	seq := newTaskSequencer(t, m)

	seedProject(t, seq, m, "p1", "A", "B", "C", "D", "E")
	updateRecord(t, seq, m, "E", sequence.Record{"position": 2})
	requireSequence(t, m, "p1", []string{"A", "B", "E", "C", "D"})
}

func TestMoveDown(t *testing.T) {
	m := NewMemoryStore()
	seq := newTaskSequencer(t, m)

	seedProject(t, seq, m, "p1", "A", "B", "C", "D", "E")
	updateRecord(t, seq, m, "A", sequence.Record{"position": 3})
	requireSequence(t, m, "p1", []string{"B", "C", "D", "A", "E"})
}

func TestDeleteClosesGap(t *testing.T) {
	m := NewMemoryStore()
	seq := newTaskSequencer(t, m)

	seedProject(t, seq, m, "p1", "A", "B", "C", "D", "E")
	deleteRecord(t, seq, m, "C")
	requireSequence(t, m, "p1", []string{"A", "B", "D", "E"})
}

func TestCrossGroupMoveAppends(t *testing.T) {
	m := NewMemoryStore()
	seq := newTaskSequencer(t, m)

	seedProject(t, seq, m, "p1", "A", "B", "C")
	seedProject(t, seq, m, "p2", "X", "Y")
	updateRecord(t, seq, m, "B", sequence.Record{"project": "p2"})
	requireSequence(t, m, "p1", []string{"A", "C"})
	requireSequence(t, m, "p2", []string{"X", "Y", "B"})
}

func TestCrossGroupMoveAtPosition(t *testing.T) {
	m := NewMemoryStore()
	seq := newTaskSequencer(t, m)

	seedProject(t, seq, m, "p1", "A", "B", "C")
	seedProject(t, seq, m, "p2", "X", "Y")
	updateRecord(t, seq, m, "B", sequence.Record{"project": "p2", "position": 0})
	requireSequence(t, m, "p1", []string{"A", "C"})
	requireSequence(t, m, "p2", []string{"B", "X", "Y"})
}

func TestNoOpUpdateKeepsOrders(t *testing.T) {
	m := NewMemoryStore()
	seq := newTaskSequencer(t, m)

	seedProject(t, seq, m, "p1", "A", "B", "C")
	updateRecord(t, seq, m, "B", sequence.Record{"title": "renamed"})
	updateRecord(t, seq, m, "B", sequence.Record{"position": 1, "project": "p1"})
	requireSequence(t, m, "p1", []string{"A", "B", "C"})
}

func TestNullGroupIsItsOwnGroup(t *testing.T) {
	m := NewMemoryStore()
	seq := newTaskSequencer(t, m)

	seedProject(t, seq, m, nil, "N1", "N2")
	seedProject(t, seq, m, "p1", "A")
	requireSequence(t, m, nil, []string{"N1", "N2"})
	requireSequence(t, m, "p1", []string{"A"})
}

func TestStartAtOne(t *testing.T) {
	m := NewMemoryStore()
	seq, err := sequence.New(m, "tasks", sequence.Config{
		OrderField:  "position",
		GroupFields: []string{"project"},
		StartAt:     1,
	})
	require.NoError(t, err)

	insertRecord(t, seq, m, sequence.Record{"id": "A", "project": "p1"})
	insertRecord(t, seq, m, sequence.Record{"id": "B", "project": "p1"})
	rec, ok := m.Get("tasks", "A")
	require.True(t, ok)
	order, _ := sequence.OrderValue(rec["position"])
	require.Equal(t, int64(1), order)
	require.Equal(t, []string{"A", "B"}, m.IDsByOrder("tasks", map[string]any{"project": "p1"}, "position"))
}

func TestInsertGeneratesUUID(t *testing.T) {
	m := NewMemoryStore()
	id := m.Insert("tasks", sequence.Record{"project": "p1"})
	require.NotEmpty(t, id)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
}

func TestReadFieldMissingRecord(t *testing.T) {
	m := NewMemoryStore()
	_, err := m.ReadField(context.Background(), "tasks", "ghost", "position")
	require.ErrorIs(t, err, sequence.ErrNotFound)
}

func TestFindOneEmptyGroup(t *testing.T) {
	m := NewMemoryStore()
	rec, err := m.FindOne(context.Background(), "tasks", map[string]any{"project": "p1"}, "position", true)
	require.NoError(t, err)
	require.Nil(t, rec)
}
