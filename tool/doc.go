// Package tool implements the function calling subsystem that lets agents
// invoke structured kitchen capabilities with schema validated arguments and
// consistent error handling. Tools come from providers (local function sets,
// MCP servers) and are merged into a Catalog that agents resolve their
// declared tool names against.
package tool
