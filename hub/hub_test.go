package hub

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kitchenmesh/history"
	"github.com/hupe1980/kitchenmesh/registry"
	"github.com/hupe1980/kitchenmesh/workflow"
)

func event(workflowID string, eventType workflow.EventType) *workflow.StatusEvent {
	return &workflow.StatusEvent{
		WorkflowID: workflowID,
		AgentID:    "system",
		AgentName:  "System",
		EventType:  eventType,
		Timestamp:  time.Now().UTC(),
	}
}

func TestBroadcaster_FanOut(t *testing.T) {
	b := NewBroadcaster()
	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel1()
	defer cancel2()

	b.Publish(context.Background(), event("run-1", workflow.EventWorkflowStarted))

	for _, ch := range []<-chan workflow.StatusEvent{ch1, ch2} {
		select {
		case evt := <-ch:
			assert.Equal(t, "run-1", evt.WorkflowID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	cancel()
	cancel() // second call is a no-op

	assert.Equal(t, 0, b.SubscriberCount())

	_, open := <-ch
	assert.False(t, open)
}

func TestBroadcaster_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroadcaster()
	_, cancel := b.Subscribe() // never drained
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			b.Publish(context.Background(), event("run-1", workflow.EventCustom))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestBroadcaster_ConcurrentPublish(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	received := make(chan int)
	go func() {
		count := 0
		for range ch {
			count++
			if count == 40 {
				received <- count
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				b.Publish(context.Background(), event("run", workflow.EventCustom))
			}
		}()
	}
	wg.Wait()

	select {
	case n := <-received:
		assert.Equal(t, 40, n)
	case <-time.After(2 * time.Second):
		t.Fatal("not all events delivered")
	}
}

func newTestServer(t *testing.T, submit SubmitFunc) (*Server, *Broadcaster, *history.InMemoryStore) {
	t.Helper()
	b := NewBroadcaster()
	store := history.NewInMemoryStore()
	reg := registry.New()
	reg.Register(registry.Descriptor{ID: "grill", Name: "Grill Station", Domain: "burgers"})
	if submit == nil {
		submit = func(context.Context, string) {}
	}
	return NewServer("127.0.0.1:0", b, store, reg, submit), b, store
}

func TestServer_SubmitOrder(t *testing.T) {
	submitted := make(chan string, 1)
	srv, _, _ := newTestServer(t, func(_ context.Context, input string) { submitted <- input })

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/orders", "application/json",
		strings.NewReader(`{"order":"1 cheeseburger with fries"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case input := <-submitted:
		assert.Equal(t, "1 cheeseburger with fries", input)
	case <-time.After(time.Second):
		t.Fatal("order was not submitted")
	}
}

func TestServer_SubmitOrder_Invalid(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	for _, body := range []string{`{"order":"  "}`, `not json`} {
		resp, err := http.Post(ts.URL+"/api/orders", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
}

func TestServer_HistoryAndStats(t *testing.T) {
	srv, _, store := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx := context.Background()
	require.NoError(t, store.Append(ctx, event("run-1", workflow.EventWorkflowStarted)))
	require.NoError(t, store.Append(ctx, event("run-1", workflow.EventWorkflowEnded)))

	resp, err := http.Get(ts.URL + "/api/workflows/run-1/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var events []workflow.StatusEvent
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	require.Len(t, events, 2)
	assert.Equal(t, workflow.EventWorkflowStarted, events[0].EventType)

	statsResp, err := http.Get(ts.URL + "/api/stats")
	require.NoError(t, err)
	defer statsResp.Body.Close()

	var stats history.Stats
	require.NoError(t, json.NewDecoder(statsResp.Body).Decode(&stats))
	assert.Equal(t, history.Stats{TotalInstances: 1, TotalEvents: 2}, stats)
}

func TestServer_Agents(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/agents")
	require.NoError(t, err)
	defer resp.Body.Close()

	var agents []registry.Descriptor
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&agents))
	require.Len(t, agents, 1)
	assert.Equal(t, "grill", agents[0].ID)
}

func TestServer_EventStream(t *testing.T) {
	srv, b, _ := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Wait for the handler to register its subscription before publishing.
	require.Eventually(t, func() bool { return b.SubscriberCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	b.Publish(context.Background(), event("run-42", workflow.EventWorkflowStarted))

	scanner := bufio.NewScanner(resp.Body)
	var eventLine, dataLine string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			eventLine = line
		}
		if strings.HasPrefix(line, "data: ") {
			dataLine = line
			break
		}
	}
	assert.Equal(t, "event: status", eventLine)
	assert.Contains(t, dataLine, `"workflowId":"run-42"`)
}
