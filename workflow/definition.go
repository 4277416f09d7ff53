package workflow

import (
	"strings"

	"github.com/hupe1980/kitchenmesh/core"
	"github.com/hupe1980/kitchenmesh/registry"
)

// Definition describes the declarative shape of one kind of workflow: which
// agent roles run in which order, how raw input becomes the first message,
// how instance ids are minted and how emitted events gain domain fields.
type Definition interface {
	// Name returns the workflow's name, used in event messages.
	Name() string

	// Description returns a human-readable summary.
	Description() string

	// BuildChain resolves the pipeline's role ids through the registry into
	// ordered stage descriptors. An unresolved role is a configuration
	// defect and fails the whole build.
	BuildChain(reg *registry.Registry) ([]registry.Descriptor, error)

	// BuildInitialMessage wraps trimmed raw input into the first user
	// message. Pure and deterministic.
	BuildInitialMessage(rawInput string) core.Content

	// GenerateInstanceID mints a fresh short correlation token. Called
	// exactly once per execution, before any event is emitted.
	GenerateInstanceID() string

	// EnrichEvent adds definition-specific fields to an event immediately
	// before publish. The event's base fields are already populated.
	EnrichEvent(evt *StatusEvent)
}

// BaseDefinition supplies default behavior for Definition implementations:
// random 8-character hex instance ids, a plain pass-through initial message
// and no event enrichment. Embed it and override what the workflow needs.
type BaseDefinition struct{}

// GenerateInstanceID returns a short random hex token.
func (BaseDefinition) GenerateInstanceID() string { return core.NewShortID() }

// BuildInitialMessage wraps trimmed input in a user message.
func (BaseDefinition) BuildInitialMessage(rawInput string) core.Content {
	return core.NewUserContent(strings.TrimSpace(rawInput) + "\n")
}

// EnrichEvent is a no-op by default.
func (BaseDefinition) EnrichEvent(_ *StatusEvent) {}
