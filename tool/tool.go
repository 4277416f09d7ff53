package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/kitchenmesh/internal/util"
)

// Tool is a callable capability an agent can invoke through function calling.
//
// Implementations should provide clear snake_case names, describe themselves
// in a way a model can act on, declare a JSON schema for their arguments and
// be safe for concurrent use.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description given to the model.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool. Arguments are decoded from the model's JSON
	// function call and validated against the tool's schema before execution.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Provider contributes a set of tools to a Catalog. Local function sets and
// MCP server connections both implement it.
type Provider interface {
	// Tools returns the tools this provider contributes.
	Tools() []Tool
}

// ValidationError represents parameter validation errors.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`              // "VALIDATION_ERROR", "EXECUTION_ERROR", ...
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a ToolError with the given details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
