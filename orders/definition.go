// Package orders implements the restaurant order fulfillment workflow: a
// fixed four-station pipeline (grill, fryer, desserts, expo) plus the order
// generator and the simulator that feeds the kitchen with random orders.
package orders

import (
	"fmt"
	"strings"

	"github.com/hupe1980/kitchenmesh/core"
	"github.com/hupe1980/kitchenmesh/registry"
	"github.com/hupe1980/kitchenmesh/workflow"
)

// Station role ids of the fulfillment pipeline, in execution order.
var StationRoles = []string{"grill", "fryer", "desserts", "expo"}

// OrderEventType is the domain-specific classification attached to emitted
// events through the extension map.
type OrderEventType string

const (
	OrderReceived  OrderEventType = "OrderReceived"
	OrderCompleted OrderEventType = "OrderCompleted"
	OrderError     OrderEventType = "Error"
)

// Definition is the order fulfillment workflow shape. Orders flow through
// the kitchen stations strictly in sequence; every emitted event is enriched
// with the order id and, for lifecycle transitions, an order event type.
type Definition struct {
	workflow.BaseDefinition
}

// NewDefinition creates the order fulfillment workflow definition.
func NewDefinition() *Definition { return &Definition{} }

// Name implements workflow.Definition.
func (d *Definition) Name() string { return "OrderFulfillment" }

// Description implements workflow.Definition.
func (d *Definition) Description() string {
	return "Processes restaurant orders through grill, fryer, dessert, and plating stations"
}

// BuildChain resolves the fixed station sequence through the registry.
func (d *Definition) BuildChain(reg *registry.Registry) ([]registry.Descriptor, error) {
	out := make([]registry.Descriptor, 0, len(StationRoles))
	for _, role := range StationRoles {
		desc, err := reg.Get(role)
		if err != nil {
			return nil, fmt.Errorf("station %q: %w", role, err)
		}
		out = append(out, desc)
	}
	return out, nil
}

// BuildInitialMessage wraps the trimmed order text under a fixed preamble.
func (d *Definition) BuildInitialMessage(rawInput string) core.Content {
	var b strings.Builder
	b.WriteString("ORDER SUMMARY:\n")
	b.WriteString(strings.TrimSpace(rawInput))
	b.WriteString("\n\n")
	return core.NewUserContent(b.String())
}

// EnrichEvent tags every event with the order id and maps lifecycle
// transitions to order-specific event types.
func (d *Definition) EnrichEvent(evt *workflow.StatusEvent) {
	evt.SetExtension("orderId", evt.WorkflowID)

	switch evt.EventType {
	case workflow.EventWorkflowStarted:
		evt.SetExtension("orderEventType", string(OrderReceived))
	case workflow.EventWorkflowEnded:
		evt.SetExtension("orderEventType", string(OrderCompleted))
	case workflow.EventError:
		evt.SetExtension("orderEventType", string(OrderError))
	}
}
