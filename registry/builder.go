package registry

import (
	"github.com/hupe1980/kitchenmesh/agent"
	"github.com/hupe1980/kitchenmesh/instruction"
	"github.com/hupe1980/kitchenmesh/logging"
	"github.com/hupe1980/kitchenmesh/model"
	"github.com/hupe1980/kitchenmesh/tool"
)

// Builder materializes a Registry from instruction definitions. For each
// definition it resolves the declared tool names against the catalog and
// binds a ChatAgent to the shared model. Tool names the catalog does not know
// are skipped with a warning rather than failing the build; the agent simply
// runs with the reduced subset.
type Builder struct {
	model   model.Model
	catalog *tool.Catalog
	logger  logging.Logger
}

// BuilderOptions configures optional Builder behavior.
type BuilderOptions struct {
	Logger logging.Logger
}

// NewBuilder creates a registry builder over a shared model and tool catalog.
func NewBuilder(m model.Model, catalog *tool.Catalog, optFns ...func(o *BuilderOptions)) *Builder {
	opts := BuilderOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Builder{model: m, catalog: catalog, logger: opts.Logger}
}

// Build binds every instruction definition into a registered agent.
func (b *Builder) Build(defs map[string]instruction.Definition) *Registry {
	reg := New()
	for _, def := range defs {
		reg.Register(b.bind(def))
	}
	b.logger.Info("registry built", "agents", reg.Len())
	return reg
}

func (b *Builder) bind(def instruction.Definition) Descriptor {
	meta := def.Metadata

	tools, missing := b.catalog.Resolve(meta.Tools)
	for _, name := range missing {
		b.logger.Warn("registry.tool.missing", "agent", meta.ID, "tool", name)
	}

	chatAgent := agent.NewChatAgent(meta.ID, meta.Name, def.Instructions, b.model,
		func(o *agent.ChatAgentOptions) {
			o.Tools = tools
			o.Logger = b.logger
		},
	)

	resolved := make([]string, 0, len(tools))
	for _, t := range tools {
		resolved = append(resolved, t.Name())
	}

	return Descriptor{
		ID:     meta.ID,
		Name:   meta.Name,
		Domain: meta.Domain,
		Tools:  resolved,
		Emoji:  meta.Emoji,
		Color:  meta.Color,
		Agent:  chatAgent,
	}
}
