package model

import (
	"context"
	"fmt"

	"github.com/hupe1980/kitchenmesh/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a JSON Schema object (minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by an agent turn.
type Request struct {
	Instructions string           `json:"instructions"`
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// Response is a (partial or final) chunk emitted by a streaming model.
type Response struct {
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", ...
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
// Generate returns a response channel and a terminal error channel; both are
// closed when the turn completes or the context is cancelled.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests and local runs.
//
// Besides canned text completions it can script a single tool call per turn:
// when a tool call is scripted and the conversation does not yet contain a
// response for it, Generate emits the call; once the tool response appears in
// the contents the next turn produces the final text. This mirrors how the
// provider adapters surface function calling and lets chain tests exercise
// the full call/response round trip without a live backend.
type MockModel struct {
	info      Info
	responses map[string]string
	toolCall  *core.FunctionCall
	finalText string
	err       error
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock", SupportsTools: true},
		responses: make(map[string]string),
		finalText: "done",
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// ScriptToolCall makes the first turn of every conversation request the given
// tool invocation; the follow-up turn then emits finalText.
func (m *MockModel) ScriptToolCall(name, arguments, finalText string) {
	m.toolCall = &core.FunctionCall{ID: "call-" + name, Name: name, Arguments: arguments}
	if finalText != "" {
		m.finalText = finalText
	}
}

// FailWith makes every Generate call surface err on the error channel.
func (m *MockModel) FailWith(err error) { m.err = err }

// Generate implements Model; emits optional streaming chunks then a final
// response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if m.err != nil {
			errCh <- m.err
			return
		}
		if len(req.Contents) == 0 {
			errCh <- fmt.Errorf("no contents provided")
			return
		}

		if m.toolCall != nil && !m.hasToolResponse(req.Contents) {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
			case respCh <- Response{
				Partial: false,
				Content: core.Content{
					Role:  "assistant",
					Parts: []core.Part{core.FunctionCallPart{FunctionCall: *m.toolCall}},
				},
				FinishReason: "tool_calls",
			}:
			}
			return
		}

		full := m.lookupResponse(req.Contents)
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Content: core.NewAssistantContent(string(r)),
				}:
				}
			}
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{
			Partial:      false,
			Content:      core.NewAssistantContent(full),
			FinishReason: "stop",
		}:
		}
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

func (m *MockModel) hasToolResponse(contents []core.Content) bool {
	for _, c := range contents {
		if c.Role != "tool" {
			continue
		}
		for _, fr := range c.FunctionResponses() {
			if fr.ID == m.toolCall.ID {
				return true
			}
		}
	}
	return false
}

func (m *MockModel) lookupResponse(contents []core.Content) string {
	last := contents[len(contents)-1]
	if full, ok := m.responses[last.Text()]; ok {
		return full
	}
	if m.toolCall != nil {
		return m.finalText
	}
	return fmt.Sprintf("Mock response to: %s", last.Text())
}
