package agent

import (
	"context"

	"github.com/hupe1980/kitchenmesh/core"
)

// Delta is one increment of streamed agent output.
//
// Text carries a partial fragment of the stage's response. ToolCall is set
// when the stage requested a tool execution in this increment; when a turn
// requests several tools at once only the first is surfaced here, the rest
// are still executed. The terminal delta has Final set and carries the full
// conversation produced by the run in Output.
type Delta struct {
	// StageID identifies the chain stage (agent id) that emitted the delta.
	StageID string

	// AuthorName is the display name of the emitting agent.
	AuthorName string

	// Text is a partial response fragment, possibly empty.
	Text string

	// ToolCall reports a tool invocation requested in this increment.
	ToolCall *core.FunctionCall

	// Final marks the terminal delta of the run.
	Final bool

	// Output holds the accumulated conversation; set on the terminal delta.
	Output []core.Content
}

// Agent produces a stream of deltas over a conversation. Both channels are
// closed when the run completes; a value on the error channel means the run
// failed and no terminal delta will arrive.
type Agent interface {
	// ID returns the stable role identifier ("grill", "fryer", ...).
	ID() string

	// Name returns the display name.
	Name() string

	// Run executes the agent over the given conversation.
	Run(ctx context.Context, contents []core.Content) (<-chan Delta, <-chan error)
}
