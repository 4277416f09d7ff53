// Package core provides the shared conversational data model used across
// kitchenmesh. It defines:
//
//   - Content (role-tagged, ordered heterogeneous Parts)
//   - Part variants for text, function calls and function responses
//   - Identifier helpers for events and workflow instances
//
// The package intentionally keeps implementation concerns (model providers,
// tool execution, workflow orchestration) out of scope so every layer can
// exchange these types without provider-specific message formats.
package core
