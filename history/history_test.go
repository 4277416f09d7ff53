package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kitchenmesh/workflow"
)

func sampleEvent(workflowID string, eventType workflow.EventType) *workflow.StatusEvent {
	evt := &workflow.StatusEvent{
		WorkflowID: workflowID,
		AgentID:    "grill",
		AgentName:  "Grill Station",
		EventType:  eventType,
		Message:    "working",
		Timestamp:  time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	evt.SetExtension("orderId", workflowID)
	return evt
}

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, sampleEvent("run-1", workflow.EventWorkflowStarted)))
	require.NoError(t, store.Append(ctx, sampleEvent("run-1", workflow.EventAgentStarted)))
	require.NoError(t, store.Append(ctx, sampleEvent("run-2", workflow.EventWorkflowStarted)))

	events, err := store.History(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, workflow.EventWorkflowStarted, events[0].EventType)
	assert.Equal(t, workflow.EventAgentStarted, events[1].EventType)
	assert.Equal(t, "run-1", events[0].Extensions["orderId"])

	empty, err := store.History(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalInstances: 2, TotalEvents: 3}, stats)
}

func TestInMemoryStore(t *testing.T) {
	testStore(t, NewInMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	testStore(t, store)
}

func TestSQLiteStore_PreservesToolCall(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	evt := sampleEvent("run-1", workflow.EventToolCalled)
	evt.ToolCall = workflow.NewToolCallInfo("cook_patty", map[string]any{"doneness": "medium"})
	require.NoError(t, store.Append(ctx, evt))

	events, err := store.History(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].ToolCall)
	assert.Equal(t, "cook_patty", events[0].ToolCall.Name)
	assert.Equal(t, "medium", events[0].ToolCall.Arguments["doneness"])
}

func TestInMemoryStore_ConcurrentAppends(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func(id string) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				_ = store.Append(ctx, sampleEvent(id, workflow.EventCustom))
			}
		}([]string{"a", "b", "c", "d"}[i])
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalInstances: 4, TotalEvents: 200}, stats)
}
