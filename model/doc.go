// Package model defines the normalized chat-completion boundary between
// kitchenmesh and LLM providers. Agents build a Request (instructions,
// conversation contents, tool definitions) and consume a channel of streamed
// Response chunks; provider adapters (model/openai, model/anthropic) translate
// both directions. MockModel offers a deterministic in-memory implementation
// for tests and local development.
package model
