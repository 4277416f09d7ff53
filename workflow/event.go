package workflow

import (
	"encoding/json"
	"time"
)

// EventType classifies lifecycle status events. The numeric values are part
// of the wire contract; subscribers switch on them and they must not change.
type EventType int

const (
	EventCustom EventType = iota
	EventWorkflowStarted
	EventWorkflowEnded
	EventAgentStarted
	EventAgentCompleted
	EventToolCalled
	EventError
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventWorkflowStarted:
		return "WorkflowStarted"
	case EventWorkflowEnded:
		return "WorkflowEnded"
	case EventAgentStarted:
		return "AgentStarted"
	case EventAgentCompleted:
		return "AgentCompleted"
	case EventToolCalled:
		return "ToolCalled"
	case EventError:
		return "Error"
	default:
		return "Custom"
	}
}

// ToolCallInfo is the structured payload of a ToolCalled event. Arguments is
// never nil; a call without arguments carries an empty map.
type ToolCallInfo struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// NewToolCallInfo builds a ToolCallInfo, defaulting absent arguments to an
// empty map.
func NewToolCallInfo(name string, arguments map[string]any) *ToolCallInfo {
	if arguments == nil {
		arguments = map[string]any{}
	}
	return &ToolCallInfo{Name: name, Arguments: arguments}
}

// StatusEvent is one emitted lifecycle event of a workflow instance.
//
// Domain-specific fields (an order id, a mapped domain event type) live in
// Extensions and are flattened into the top-level JSON object on the wire, so
// subscribers see them as plain siblings of the base fields. Base field names
// always win over colliding extension keys.
type StatusEvent struct {
	WorkflowID string         `json:"workflowId"`
	AgentID    string         `json:"agentId"`
	AgentName  string         `json:"agentName"`
	EventType  EventType      `json:"eventType"`
	Message    string         `json:"message"`
	Timestamp  time.Time      `json:"timestamp"`
	ToolCall   *ToolCallInfo  `json:"toolCall,omitempty"`
	Extensions map[string]any `json:"-"`
}

// SetExtension records a domain-specific field on the event.
func (e *StatusEvent) SetExtension(key string, value any) {
	if e.Extensions == nil {
		e.Extensions = make(map[string]any)
	}
	e.Extensions[key] = value
}

// baseFieldNames are reserved top-level JSON keys.
var baseFieldNames = map[string]struct{}{
	"workflowId": {},
	"agentId":    {},
	"agentName":  {},
	"eventType":  {},
	"message":    {},
	"timestamp":  {},
	"toolCall":   {},
}

// MarshalJSON flattens Extensions into the top-level object.
func (e StatusEvent) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"workflowId": e.WorkflowID,
		"agentId":    e.AgentID,
		"agentName":  e.AgentName,
		"eventType":  int(e.EventType),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}
	if e.ToolCall != nil {
		out["toolCall"] = e.ToolCall
	}
	for k, v := range e.Extensions {
		if _, reserved := baseFieldNames[k]; reserved {
			continue
		}
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores base fields and collects unknown keys back into
// Extensions.
func (e *StatusEvent) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	take := func(key string, dst any) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		return json.Unmarshal(v, dst)
	}

	if err := take("workflowId", &e.WorkflowID); err != nil {
		return err
	}
	if err := take("agentId", &e.AgentID); err != nil {
		return err
	}
	if err := take("agentName", &e.AgentName); err != nil {
		return err
	}
	if err := take("eventType", &e.EventType); err != nil {
		return err
	}
	if err := take("message", &e.Message); err != nil {
		return err
	}
	if err := take("timestamp", &e.Timestamp); err != nil {
		return err
	}
	if err := take("toolCall", &e.ToolCall); err != nil {
		return err
	}

	e.Extensions = nil
	for k, v := range raw {
		if _, reserved := baseFieldNames[k]; reserved {
			continue
		}
		var value any
		if err := json.Unmarshal(v, &value); err != nil {
			return err
		}
		e.SetExtension(k, value)
	}
	return nil
}
