package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kitchenmesh/agent"
	"github.com/hupe1980/kitchenmesh/core"
	"github.com/hupe1980/kitchenmesh/registry"
)

// collector is a thread-safe publisher capturing every event.
type collector struct {
	mu     sync.Mutex
	events []StatusEvent
}

func (c *collector) Publish(_ context.Context, evt *StatusEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, *evt)
}

func (c *collector) all() []StatusEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]StatusEvent(nil), c.events...)
}

func (c *collector) byInstance(id string) []StatusEvent {
	var out []StatusEvent
	for _, evt := range c.all() {
		if evt.WorkflowID == id {
			out = append(out, evt)
		}
	}
	return out
}

func types(events []StatusEvent) []EventType {
	out := make([]EventType, len(events))
	for i, evt := range events {
		out[i] = evt.EventType
	}
	return out
}

// stubAgent emits some text, optionally one tool call, then finishes.
type stubAgent struct {
	id       string
	name     string
	toolName string
	failWith error
}

func (s *stubAgent) ID() string   { return s.id }
func (s *stubAgent) Name() string { return s.name }

func (s *stubAgent) Run(_ context.Context, contents []core.Content) (<-chan agent.Delta, <-chan error) {
	deltaCh := make(chan agent.Delta, 8)
	errCh := make(chan error, 1)

	go func() {
		defer close(deltaCh)
		defer close(errCh)

		deltaCh <- agent.Delta{StageID: s.id, AuthorName: s.name, Text: s.name + " working. "}
		if s.failWith != nil {
			errCh <- s.failWith
			return
		}
		if s.toolName != "" {
			deltaCh <- agent.Delta{StageID: s.id, AuthorName: s.name, ToolCall: &core.FunctionCall{
				ID:        "call-" + s.toolName,
				Name:      s.toolName,
				Arguments: `{"order":"test"}`,
			}}
		}
		output := append(append([]core.Content(nil), contents...), core.NewAssistantContent(s.name+" done"))
		deltaCh <- agent.Delta{StageID: s.id, AuthorName: s.name, Final: true, Output: output}
	}()

	return deltaCh, errCh
}

// kitchenDefinition is a fixed four-station pipeline for tests.
type kitchenDefinition struct {
	BaseDefinition
	roles []string
}

func (d *kitchenDefinition) Name() string        { return "OrderFulfillment" }
func (d *kitchenDefinition) Description() string { return "Test kitchen pipeline" }

func (d *kitchenDefinition) BuildChain(reg *registry.Registry) ([]registry.Descriptor, error) {
	out := make([]registry.Descriptor, 0, len(d.roles))
	for _, role := range d.roles {
		desc, err := reg.Get(role)
		if err != nil {
			return nil, err
		}
		out = append(out, desc)
	}
	return out, nil
}

func (d *kitchenDefinition) BuildInitialMessage(rawInput string) core.Content {
	return core.NewUserContent("ORDER SUMMARY:\n" + strings.TrimSpace(rawInput) + "\n")
}

func newKitchenRegistry(stations map[string]*stubAgent) *registry.Registry {
	reg := registry.New()
	for id, a := range stations {
		reg.Register(registry.Descriptor{ID: id, Name: a.name, Agent: a})
	}
	return reg
}

func fourStations() map[string]*stubAgent {
	return map[string]*stubAgent{
		"grill":    {id: "grill", name: "Grill Station", toolName: "cook_patty"},
		"fryer":    {id: "fryer", name: "Fryer Station", toolName: "fry_fries"},
		"desserts": {id: "desserts", name: "Dessert Station", toolName: "make_shake"},
		"expo":     {id: "expo", name: "Expo Station", toolName: "plate_meal"},
	}
}

func TestEngine_SuccessfulRun(t *testing.T) {
	pub := &collector{}
	reg := newKitchenRegistry(fourStations())
	eng := NewEngine(reg, func(o *EngineOptions) { o.Publisher = pub })
	def := &kitchenDefinition{roles: []string{"grill", "fryer", "desserts", "expo"}}

	result, err := eng.Execute(context.Background(), def, "1 cheeseburger with fries and a chocolate milkshake")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Len(t, result.InstanceID, 8)

	events := pub.byInstance(result.InstanceID)
	assert.Equal(t, []EventType{
		EventWorkflowStarted,
		EventAgentStarted, EventToolCalled,
		EventAgentStarted, EventToolCalled,
		EventAgentStarted, EventToolCalled,
		EventAgentStarted, EventToolCalled,
		EventWorkflowEnded,
	}, types(events))

	// Every event shares the minted instance id.
	assert.Len(t, pub.all(), len(events))

	var agentOrder []string
	for _, evt := range events {
		if evt.EventType == EventAgentStarted {
			agentOrder = append(agentOrder, evt.AgentID)
		}
	}
	assert.Equal(t, []string{"grill", "fryer", "desserts", "expo"}, agentOrder)

	for _, evt := range events {
		if evt.EventType != EventToolCalled {
			continue
		}
		require.NotNil(t, evt.ToolCall)
		assert.NotEmpty(t, evt.ToolCall.Name)
		require.NotNil(t, evt.ToolCall.Arguments)
		assert.Equal(t, "test", evt.ToolCall.Arguments["order"])
	}

	assert.Equal(t, "1 cheeseburger with fries and a chocolate milkshake", events[0].Message)
	assert.Contains(t, events[len(events)-1].Message, "OrderFulfillment completed")

	// Final conversation: initial message + one answer per stage.
	assert.Len(t, result.Output, 5)
	assert.Contains(t, result.Output[0].Text(), "ORDER SUMMARY:")
}

func TestEngine_NoRepeatedAgentStarted(t *testing.T) {
	pub := &collector{}
	reg := newKitchenRegistry(fourStations())
	eng := NewEngine(reg, func(o *EngineOptions) { o.Publisher = pub })
	def := &kitchenDefinition{roles: []string{"grill", "fryer"}}

	result, err := eng.Execute(context.Background(), def, "order")
	require.NoError(t, err)

	events := pub.byInstance(result.InstanceID)
	var prev string
	for _, evt := range events {
		if evt.EventType != EventAgentStarted {
			continue
		}
		assert.NotEqual(t, prev, evt.AgentID, "AgentStarted repeated for %s", evt.AgentID)
		prev = evt.AgentID
	}
}

func TestEngine_BlankAuthorFallsBackToUnknown(t *testing.T) {
	pub := &collector{}
	reg := newKitchenRegistry(map[string]*stubAgent{
		"grill": {id: "grill", name: "", toolName: "cook_patty"},
	})
	eng := NewEngine(reg, func(o *EngineOptions) { o.Publisher = pub })
	def := &kitchenDefinition{roles: []string{"grill"}}

	result, err := eng.Execute(context.Background(), def, "order")
	require.NoError(t, err)

	for _, evt := range pub.byInstance(result.InstanceID) {
		switch evt.EventType {
		case EventAgentStarted, EventToolCalled:
			assert.Equal(t, "Unknown", evt.AgentName, "event type %s", evt.EventType)
		}
	}
}

func TestEngine_BuildChainFailurePublishesNothing(t *testing.T) {
	pub := &collector{}
	reg := newKitchenRegistry(fourStations())
	eng := NewEngine(reg, func(o *EngineOptions) { o.Publisher = pub })
	def := &kitchenDefinition{roles: []string{"grill", "bar"}}

	_, err := eng.Execute(context.Background(), def, "a pint")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bar")
	assert.Empty(t, pub.all())
}

func TestEngine_MidStreamFailure(t *testing.T) {
	pub := &collector{}
	stations := fourStations()
	stations["fryer"].failWith = fmt.Errorf("fryer backend disconnected")
	reg := newKitchenRegistry(stations)
	eng := NewEngine(reg, func(o *EngineOptions) { o.Publisher = pub })
	def := &kitchenDefinition{roles: []string{"grill", "fryer", "desserts", "expo"}}

	_, err := eng.Execute(context.Background(), def, "order")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fryer backend disconnected")

	events := pub.all()
	for _, evt := range events {
		assert.NotEqual(t, EventWorkflowEnded, evt.EventType)
		assert.NotEqual(t, "desserts", evt.AgentID)
		assert.NotEqual(t, "expo", evt.AgentID)
	}

	// Started events for stages 1 and 2, then the failure closure.
	assert.Equal(t, EventWorkflowStarted, events[0].EventType)
	assert.Equal(t, EventError, events[len(events)-1].EventType)
}

func TestEngine_ConcurrentRunsStayConsistent(t *testing.T) {
	pub := &collector{}
	reg := newKitchenRegistry(fourStations())
	eng := NewEngine(reg, func(o *EngineOptions) { o.Publisher = pub })
	def := &kitchenDefinition{roles: []string{"grill", "fryer", "desserts", "expo"}}

	const runs = 8
	ids := make([]string, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := eng.Execute(context.Background(), def, fmt.Sprintf("order %d", i))
			if assert.NoError(t, err) {
				ids[i] = result.InstanceID
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]struct{}{}
	for _, id := range ids {
		_, dup := seen[id]
		assert.False(t, dup, "instance id %s reused", id)
		seen[id] = struct{}{}

		events := pub.byInstance(id)
		assert.Equal(t, EventWorkflowStarted, events[0].EventType)
		assert.Equal(t, EventWorkflowEnded, events[len(events)-1].EventType)
		for _, evt := range events[1 : len(events)-1] {
			assert.Contains(t, []EventType{EventAgentStarted, EventToolCalled}, evt.EventType)
		}
	}
}

func TestEngine_EnrichmentAppliedBeforePublish(t *testing.T) {
	pub := &collector{}
	reg := newKitchenRegistry(fourStations())
	eng := NewEngine(reg, func(o *EngineOptions) { o.Publisher = pub })
	def := &enrichingDefinition{kitchenDefinition{roles: []string{"grill"}}}

	result, err := eng.Execute(context.Background(), def, "order")
	require.NoError(t, err)

	for _, evt := range pub.all() {
		assert.Equal(t, result.InstanceID, evt.Extensions["orderId"])
		assert.False(t, evt.Timestamp.IsZero())
	}
}

type enrichingDefinition struct{ kitchenDefinition }

func (d *enrichingDefinition) EnrichEvent(evt *StatusEvent) {
	evt.SetExtension("orderId", evt.WorkflowID)
}

func TestEngine_Cancellation(t *testing.T) {
	pub := &collector{}
	blocker := &blockingAgent{id: "grill", name: "Grill Station", started: make(chan struct{})}
	reg := registry.New()
	reg.Register(registry.Descriptor{ID: "grill", Name: blocker.name, Agent: blocker})
	eng := NewEngine(reg, func(o *EngineOptions) { o.Publisher = pub })
	def := &kitchenDefinition{roles: []string{"grill"}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := eng.Execute(ctx, def, "order")
		done <- err
	}()

	<-blocker.started
	cancel()

	err := <-done
	require.Error(t, err)
	for _, evt := range pub.all() {
		assert.NotEqual(t, EventWorkflowEnded, evt.EventType)
	}
}

// blockingAgent blocks until its context is cancelled.
type blockingAgent struct {
	id      string
	name    string
	started chan struct{}
}

func (b *blockingAgent) ID() string   { return b.id }
func (b *blockingAgent) Name() string { return b.name }

func (b *blockingAgent) Run(ctx context.Context, _ []core.Content) (<-chan agent.Delta, <-chan error) {
	deltaCh := make(chan agent.Delta)
	errCh := make(chan error, 1)
	go func() {
		defer close(deltaCh)
		defer close(errCh)
		close(b.started)
		<-ctx.Done()
		errCh <- ctx.Err()
	}()
	return deltaCh, errCh
}
