package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/hupe1980/kitchenmesh/agent"
	"github.com/hupe1980/kitchenmesh/core"
	"github.com/hupe1980/kitchenmesh/logging"
	"github.com/hupe1980/kitchenmesh/registry"
)

// Engine drives exactly one execution of a workflow definition per Execute
// call, emitting lifecycle events to the publisher as it observes agent and
// tool activity in the delta stream.
//
// The engine holds no per-run state; one Engine serves any number of
// concurrent runs over the shared read-only registry.
type Engine struct {
	registry  *registry.Registry
	publisher Publisher
	tracer    trace.Tracer
	logger    logging.Logger
}

// EngineOptions configures optional Engine collaborators.
type EngineOptions struct {
	// Publisher receives every emitted lifecycle event. Defaults to no-op.
	Publisher Publisher

	// Tracer spans each run. Defaults to a no-op tracer; pass a real one
	// from the telemetry setup to record spans.
	Tracer trace.Tracer

	// Logger receives run progress records. Defaults to no-op.
	Logger logging.Logger
}

// NewEngine creates a workflow engine over the given agent registry.
func NewEngine(reg *registry.Registry, optFns ...func(o *EngineOptions)) *Engine {
	opts := EngineOptions{
		Publisher: NoOpPublisher{},
		Tracer:    noop.NewTracerProvider().Tracer("kitchenmesh"),
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{
		registry:  reg,
		publisher: opts.Publisher,
		tracer:    opts.Tracer,
		logger:    opts.Logger,
	}
}

// Result is the outcome of one successful run.
type Result struct {
	// InstanceID is the correlation id all events of the run carried.
	InstanceID string

	// Output is the final conversation produced by the chain.
	Output []core.Content
}

// Execute runs the definition against one raw input end to end.
//
// The chain is resolved first as a pre-flight check: a build failure surfaces
// as an error with zero events published. Once the run has started, every
// propagated failure additionally emits an Error event before returning, and
// no WorkflowEnded is emitted for a failed or incomplete run. On success the
// event sequence for the minted instance id is exactly one WorkflowStarted,
// the observed AgentStarted/ToolCalled events in order, and one
// WorkflowEnded.
func (e *Engine) Execute(ctx context.Context, def Definition, rawInput string) (*Result, error) {
	descriptors, err := def.BuildChain(e.registry)
	if err != nil {
		return nil, fmt.Errorf("build chain for workflow %s: %w", def.Name(), err)
	}

	stages := make([]agent.Agent, len(descriptors))
	for i, d := range descriptors {
		stages[i] = d.Agent
	}
	chain := agent.NewChain(def.Name(), stages, func(o *agent.ChainOptions) {
		o.Logger = e.logger
	})

	instanceID := def.GenerateInstanceID()

	ctx, span := e.tracer.Start(ctx, "workflow.execute", trace.WithAttributes(
		attribute.String("workflow.name", def.Name()),
		attribute.String("workflow.instance_id", instanceID),
	))
	defer span.End()

	e.logger.Info("workflow started", "workflow", def.Name(), "instance_id", instanceID)

	e.publish(ctx, def, &StatusEvent{
		WorkflowID: instanceID,
		AgentID:    "system",
		AgentName:  "System",
		EventType:  EventWorkflowStarted,
		Message:    rawInput,
	})

	initial := def.BuildInitialMessage(rawInput)
	result, err := e.consume(ctx, def, chain, instanceID, initial)
	if err != nil {
		span.RecordError(err)
		e.logger.Error("workflow failed", "workflow", def.Name(), "instance_id", instanceID, "error", err)
		e.publish(ctx, def, &StatusEvent{
			WorkflowID: instanceID,
			AgentID:    "system",
			AgentName:  "System",
			EventType:  EventError,
			Message:    err.Error(),
		})
		return nil, err
	}
	return result, nil
}

// consume drains the chain's delta stream, translating deltas into events.
func (e *Engine) consume(
	ctx context.Context,
	def Definition,
	chain *agent.Chain,
	instanceID string,
	initial core.Content,
) (*Result, error) {
	deltaCh, errCh := chain.Run(ctx, []core.Content{initial})

	var buf []byte
	var output []core.Content
	lastStageID := ""

	for d := range deltaCh {
		name := d.AuthorName
		if name == "" {
			name = "Unknown"
		}

		if d.StageID != "" && d.StageID != lastStageID {
			lastStageID = d.StageID
			e.logger.Info("agent starting", "instance_id", instanceID, "agent", d.StageID)
			e.publish(ctx, def, &StatusEvent{
				WorkflowID: instanceID,
				AgentID:    d.StageID,
				AgentName:  name,
				EventType:  EventAgentStarted,
				Message:    fmt.Sprintf("%s starting", name),
			})
		}

		buf = append(buf, d.Text...)

		if d.ToolCall != nil {
			e.logger.Info("tool called", "instance_id", instanceID,
				"agent", d.StageID, "tool", d.ToolCall.Name)
			e.publish(ctx, def, &StatusEvent{
				WorkflowID: instanceID,
				AgentID:    d.StageID,
				AgentName:  name,
				EventType:  EventToolCalled,
				Message:    fmt.Sprintf("Calling %s", d.ToolCall.Name),
				ToolCall:   NewToolCallInfo(d.ToolCall.Name, decodeArguments(d.ToolCall.Arguments)),
			})
		}

		if d.Final {
			output = d.Output
			e.logger.Info("workflow output ready", "instance_id", instanceID, "chars", len(buf))
			buf = buf[:0]
			e.publish(ctx, def, &StatusEvent{
				WorkflowID: instanceID,
				AgentID:    "system",
				AgentName:  "System",
				EventType:  EventWorkflowEnded,
				Message:    fmt.Sprintf("%s completed successfully", def.Name()),
			})
		}
	}

	if err, ok := <-errCh; ok && err != nil {
		return nil, err
	}
	return &Result{InstanceID: instanceID, Output: output}, nil
}

// publish stamps, enriches and hands one event to the publisher.
func (e *Engine) publish(ctx context.Context, def Definition, evt *StatusEvent) {
	evt.Timestamp = time.Now().UTC()
	def.EnrichEvent(evt)
	e.publisher.Publish(ctx, evt)
}

// decodeArguments parses a serialized tool argument payload, defaulting to an
// empty map so emitted events never carry null arguments.
func decodeArguments(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}
