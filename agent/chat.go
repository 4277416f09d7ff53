package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/kitchenmesh/core"
	"github.com/hupe1980/kitchenmesh/logging"
	"github.com/hupe1980/kitchenmesh/model"
	"github.com/hupe1980/kitchenmesh/tool"
)

// defaultMaxTurns bounds the generate / execute-tools loop so a model that
// keeps requesting tools cannot spin forever.
const defaultMaxTurns = 10

// ChatAgent is an LLM-backed worker bound to instruction text and a tool
// subset. Each Run drives the turn loop: stream a model response, execute any
// requested tool calls, feed the results back and regenerate until the model
// produces a plain text answer.
type ChatAgent struct {
	id           string
	name         string
	instructions string
	model        model.Model
	tools        []tool.Tool
	toolsByName  map[string]tool.Tool
	maxTurns     int
	logger       logging.Logger
}

// ChatAgentOptions configures optional ChatAgent behavior.
type ChatAgentOptions struct {
	// Tools the agent may invoke. Only these are declared to the model.
	Tools []tool.Tool

	// MaxTurns bounds the tool round-trip loop. Defaults to 10.
	MaxTurns int

	// Logger receives per-turn records. Defaults to no-op.
	Logger logging.Logger
}

// NewChatAgent constructs a ChatAgent for the given role.
func NewChatAgent(id, name, instructions string, m model.Model, optFns ...func(o *ChatAgentOptions)) *ChatAgent {
	opts := ChatAgentOptions{
		MaxTurns: defaultMaxTurns,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	byName := make(map[string]tool.Tool, len(opts.Tools))
	for _, t := range opts.Tools {
		byName[t.Name()] = t
	}

	return &ChatAgent{
		id:           id,
		name:         name,
		instructions: instructions,
		model:        m,
		tools:        opts.Tools,
		toolsByName:  byName,
		maxTurns:     opts.MaxTurns,
		logger:       opts.Logger,
	}
}

// ID implements Agent.
func (a *ChatAgent) ID() string { return a.id }

// Name implements Agent.
func (a *ChatAgent) Name() string { return a.name }

// Tools returns the agent's resolved tool subset.
func (a *ChatAgent) Tools() []tool.Tool { return a.tools }

// Run implements Agent. The returned delta stream carries partial text
// fragments and tool call notifications as they happen; the terminal delta
// has Final set and Output holding the contents this run appended to the
// conversation.
func (a *ChatAgent) Run(ctx context.Context, contents []core.Content) (<-chan Delta, <-chan error) {
	deltaCh := make(chan Delta, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(deltaCh)
		defer close(errCh)

		if err := a.run(ctx, contents, deltaCh); err != nil {
			errCh <- err
		}
	}()

	return deltaCh, errCh
}

func (a *ChatAgent) run(ctx context.Context, history []core.Content, deltaCh chan<- Delta) error {
	contents := make([]core.Content, len(history))
	copy(contents, history)

	for turn := 0; turn < a.maxTurns; turn++ {
		final, sawPartial, err := a.generateTurn(ctx, contents, deltaCh)
		if err != nil {
			return err
		}

		contents = append(contents, final.Content)
		calls := final.Content.FunctionCalls()

		if len(calls) == 0 {
			// Non-streaming models produce their whole answer in the final
			// chunk; surface it as one fragment so consumers always see text.
			text := final.Content.Text()
			if !sawPartial && text != "" {
				a.emit(ctx, deltaCh, Delta{StageID: a.id, AuthorName: a.name, Text: text})
			}
			a.emit(ctx, deltaCh, Delta{
				StageID:    a.id,
				AuthorName: a.name,
				Final:      true,
				Output:     contents[len(history):],
			})
			return nil
		}

		a.emit(ctx, deltaCh, Delta{StageID: a.id, AuthorName: a.name, ToolCall: &calls[0]})

		responses := make([]core.Part, 0, len(calls))
		for _, call := range calls {
			responses = append(responses, a.executeCall(ctx, call))
		}
		contents = append(contents, core.Content{Role: "tool", Parts: responses})
	}

	return fmt.Errorf("agent %s: max turns (%d) exceeded without final response", a.id, a.maxTurns)
}

// generateTurn streams one model turn, forwarding partial text fragments and
// returning the final response chunk.
func (a *ChatAgent) generateTurn(
	ctx context.Context,
	contents []core.Content,
	deltaCh chan<- Delta,
) (model.Response, bool, error) {
	req := model.Request{
		Instructions: a.instructions,
		Contents:     contents,
		Tools:        a.toolDefinitions(),
		Stream:       true,
	}

	respCh, errCh := a.model.Generate(ctx, req)

	var final model.Response
	var gotFinal, sawPartial bool
	for resp := range respCh {
		if resp.Partial {
			if text := resp.Content.Text(); text != "" {
				sawPartial = true
				a.emit(ctx, deltaCh, Delta{StageID: a.id, AuthorName: a.name, Text: text})
			}
			continue
		}
		final = resp
		gotFinal = true
	}
	if err, ok := <-errCh; ok && err != nil {
		return model.Response{}, sawPartial, fmt.Errorf("agent %s: %w", a.id, err)
	}
	if !gotFinal {
		return model.Response{}, sawPartial, fmt.Errorf("agent %s: model produced no final response", a.id)
	}
	return final, sawPartial, nil
}

// executeCall runs one requested tool and converts the outcome into a
// function response part. Failures become error responses the model can react
// to instead of aborting the run.
func (a *ChatAgent) executeCall(ctx context.Context, call core.FunctionCall) core.Part {
	t, ok := a.toolsByName[call.Name]
	if !ok {
		a.logger.Warn("agent.tool.unknown", "agent", a.id, "tool", call.Name)
		return core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
			ID:    call.ID,
			Name:  call.Name,
			Error: fmt.Sprintf("tool %q is not available to this agent", call.Name),
		}}
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			a.logger.Warn("agent.tool.bad_arguments", "agent", a.id, "tool", call.Name, "error", err)
			return core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
				ID:    call.ID,
				Name:  call.Name,
				Error: fmt.Sprintf("invalid tool arguments: %v", err),
			}}
		}
	}

	result, err := t.Call(ctx, args)
	if err != nil {
		a.logger.Error("agent.tool.failed", "agent", a.id, "tool", call.Name, "error", err)
		return core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
			ID:    call.ID,
			Name:  call.Name,
			Error: err.Error(),
		}}
	}

	a.logger.Debug("agent.tool.done", "agent", a.id, "tool", call.Name)
	return core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
		ID:       call.ID,
		Name:     call.Name,
		Response: result,
	}}
}

func (a *ChatAgent) toolDefinitions() []model.ToolDefinition {
	if len(a.tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, len(a.tools))
	for i, t := range a.tools {
		defs[i] = model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		}
	}
	return defs
}

func (a *ChatAgent) emit(ctx context.Context, deltaCh chan<- Delta, d Delta) {
	select {
	case <-ctx.Done():
	case deltaCh <- d:
	}
}
