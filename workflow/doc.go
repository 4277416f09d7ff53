// Package workflow contains the execution engine that drives one streamed
// run of an agent pipeline end to end and emits ordered lifecycle status
// events (WorkflowStarted, AgentStarted, ToolCalled, WorkflowEnded, Error) to
// a publisher as a side channel.
//
// The engine is shape-agnostic: a Definition describes one kind of pipeline
// (which roles in which order, how to build the first message, how to mint
// instance ids, how to enrich events with domain fields) and the engine
// supplies the generic state machine. Domain variants extend events through
// the extension map on StatusEvent instead of subtyping.
package workflow
