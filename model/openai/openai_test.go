package openai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalChunk_ToolCallOrder(t *testing.T) {
	toolAgg := map[int64]*aggCall{
		2: {id: "call-3", name: "add_bacon", args: `{}`},
		0: {id: "call-1", name: "cook_patty", args: `{"doneness":"medium"}`},
		1: {id: "call-2", name: "melt_cheese", args: `{}`},
	}

	resp := finalChunk("tool_calls", &strings.Builder{}, toolAgg)
	require.False(t, resp.Partial)
	assert.Equal(t, "tool_calls", resp.FinishReason)

	calls := resp.Content.FunctionCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, "cook_patty", calls[0].Name)
	assert.Equal(t, "melt_cheese", calls[1].Name)
	assert.Equal(t, "add_bacon", calls[2].Name)
}

func TestFinalChunk_TextAndCalls(t *testing.T) {
	var builder strings.Builder
	builder.WriteString("Firing up the grill. ")
	toolAgg := map[int64]*aggCall{
		0: {id: "call-1", name: "cook_patty", args: `{}`},
	}

	resp := finalChunk("tool_calls", &builder, toolAgg)
	assert.Equal(t, "Firing up the grill. ", resp.Content.Text())
	require.Len(t, resp.Content.FunctionCalls(), 1)
}
