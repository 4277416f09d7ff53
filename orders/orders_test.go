package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kitchenmesh/agent"
	"github.com/hupe1980/kitchenmesh/model"
	"github.com/hupe1980/kitchenmesh/registry"
	"github.com/hupe1980/kitchenmesh/workflow"
)

func stationRegistry(roles ...string) *registry.Registry {
	reg := registry.New()
	for _, role := range roles {
		m := model.NewMockModel(role)
		reg.Register(registry.Descriptor{
			ID:    role,
			Name:  role + " station",
			Agent: agent.NewChatAgent(role, role+" station", "stub", m),
		})
	}
	return reg
}

func TestDefinition_BuildChainOrder(t *testing.T) {
	def := NewDefinition()
	reg := stationRegistry("expo", "desserts", "grill", "fryer")

	descriptors, err := def.BuildChain(reg)
	require.NoError(t, err)

	var ids []string
	for _, d := range descriptors {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"grill", "fryer", "desserts", "expo"}, ids)
}

func TestDefinition_BuildChainMissingStation(t *testing.T) {
	def := NewDefinition()
	reg := stationRegistry("grill", "fryer", "desserts") // no expo

	_, err := def.BuildChain(reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expo")
}

func TestDefinition_BuildInitialMessage(t *testing.T) {
	def := NewDefinition()

	msg := def.BuildInitialMessage("  1 cheeseburger with fries  ")
	assert.Equal(t, "user", msg.Role)
	assert.Equal(t, "ORDER SUMMARY:\n1 cheeseburger with fries\n\n", msg.Text())
}

func TestDefinition_EnrichEvent(t *testing.T) {
	def := NewDefinition()

	cases := []struct {
		eventType workflow.EventType
		want      any
	}{
		{workflow.EventWorkflowStarted, string(OrderReceived)},
		{workflow.EventWorkflowEnded, string(OrderCompleted)},
		{workflow.EventError, string(OrderError)},
		{workflow.EventAgentStarted, nil},
		{workflow.EventToolCalled, nil},
	}
	for _, tc := range cases {
		evt := &workflow.StatusEvent{WorkflowID: "ab12cd34", EventType: tc.eventType}
		def.EnrichEvent(evt)

		assert.Equal(t, "ab12cd34", evt.Extensions["orderId"])
		assert.Equal(t, tc.want, evt.Extensions["orderEventType"], "event type %s", tc.eventType)
	}
}

func TestDefinition_InstanceIDs(t *testing.T) {
	def := NewDefinition()
	a, b := def.GenerateInstanceID(), def.GenerateInstanceID()
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
}

func TestStaticGenerator(t *testing.T) {
	g := NewStaticGenerator(42)

	for i := 0; i < 50; i++ {
		order := g.GenerateRandomOrder()
		assert.Contains(t, staticOrders, order)
	}
}

func TestStaticGenerator_ConcurrentDraws(t *testing.T) {
	g := NewStaticGenerator(1)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				assert.Contains(t, staticOrders, g.GenerateRandomOrder())
			}
		}()
	}
	wg.Wait()
}

func TestStaticGenerator_SeedDeterminism(t *testing.T) {
	a, b := NewStaticGenerator(7), NewStaticGenerator(7)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.GenerateRandomOrder(), b.GenerateRandomOrder())
	}
}

func TestKitchenTools(t *testing.T) {
	k := NewKitchenTools()
	tools := k.Tools()
	require.Len(t, tools, 16)

	byName := map[string]bool{}
	for _, tl := range tools {
		byName[tl.Name()] = true
		assert.NotEmpty(t, tl.Description())
	}
	for _, name := range []string{
		"cook_patty", "melt_cheese", "add_bacon", "toast_bun", "assemble_burger",
		"fry_fries", "fry_onion_rings", "fry_waffle_fries", "fry_sweet_potato_fries",
		"add_salt", "bag_fries_for_order",
		"make_shake", "make_sundae", "add_whipped_cream",
		"plate_meal", "package_for_takeout",
	} {
		assert.True(t, byName[name], "missing tool %s", name)
	}
}

func TestKitchenTools_CookPatty(t *testing.T) {
	k := NewKitchenTools()

	var patty interface {
		Call(ctx context.Context, args map[string]any) (any, error)
	}
	for _, tl := range k.Tools() {
		if tl.Name() == "cook_patty" {
			patty = tl
		}
	}
	require.NotNil(t, patty)

	result, err := patty.Call(context.Background(), map[string]any{
		"pattyType": "beef", "doneness": "medium",
	})
	require.NoError(t, err)
	assert.Contains(t, result.(string), "beef patty to medium doneness")
}

func TestSimulator_SubmitsOrders(t *testing.T) {
	var mu sync.Mutex
	var submitted []string
	run := func(_ context.Context, input string) {
		mu.Lock()
		submitted = append(submitted, input)
		mu.Unlock()
	}

	sim := NewSimulator(NewStaticGenerator(1), run)
	sim.submitOne()
	sim.submitOne()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, submitted, 2)
	assert.Contains(t, staticOrders, submitted[0])
}

func TestSimulator_StartStop(t *testing.T) {
	sim := NewSimulator(NewStaticGenerator(1), func(context.Context, string) {},
		func(o *SimulatorOptions) { o.Schedule = "@every 1h" })

	require.NoError(t, sim.Start())

	ctx := sim.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("simulator did not stop")
	}
}

func TestSimulator_BadSchedule(t *testing.T) {
	sim := NewSimulator(NewStaticGenerator(1), func(context.Context, string) {},
		func(o *SimulatorOptions) { o.Schedule = "not a schedule" })
	assert.Error(t, sim.Start())
}
