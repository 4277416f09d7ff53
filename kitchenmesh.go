// Package kitchenmesh provides a high-level façade over the workflow engine
// and its collaborators (agent registry, tool catalog, event publishing &
// logging) for building streaming multi-agent kitchen pipelines. Most
// applications interact with this package by:
//  1. Creating a KitchenMesh via New() from a model and instruction definitions
//  2. Executing a workflow definition asynchronously (Execute) or collecting
//     the full event trail synchronously (ExecuteCollect)
//
// The façade delegates orchestration to workflow.Engine while keeping setup
// ergonomics concise. All defaults are safe for local development and testing;
// production deployments typically supply a real publisher, tracer and a
// structured logger.
package kitchenmesh

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/kitchenmesh/instruction"
	"github.com/hupe1980/kitchenmesh/logging"
	"github.com/hupe1980/kitchenmesh/model"
	"github.com/hupe1980/kitchenmesh/orders"
	"github.com/hupe1980/kitchenmesh/registry"
	"github.com/hupe1980/kitchenmesh/tool"
	"github.com/hupe1980/kitchenmesh/workflow"
)

// Options configures the KitchenMesh instance.
type Options struct {
	// Catalog holds the tools agents may call. Defaults to a catalog
	// preloaded with the built-in kitchen tools.
	Catalog *tool.Catalog

	// Publisher receives every emitted lifecycle event. Defaults to no-op.
	Publisher workflow.Publisher

	// Tracer spans each run when set; nil keeps the engine's no-op default.
	Tracer trace.Tracer

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// KitchenMesh is the high-level façade aggregating the registry and engine.
type KitchenMesh struct {
	opts     Options
	registry *registry.Registry
	engine   *workflow.Engine
}

// New creates a new KitchenMesh instance binding every instruction definition
// to the given model. Any unset collaborator is initialized with a safe
// default.
func New(m model.Model, defs map[string]instruction.Definition, optFns ...func(o *Options)) *KitchenMesh {
	opts := Options{
		Publisher: workflow.NoOpPublisher{},
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Catalog == nil {
		opts.Catalog = tool.NewCatalog(func(o *tool.CatalogOptions) {
			o.Logger = opts.Logger
		})
		opts.Catalog.AddProvider(orders.NewKitchenTools())
	}

	reg := registry.NewBuilder(m, opts.Catalog, func(o *registry.BuilderOptions) {
		o.Logger = opts.Logger
	}).Build(defs)

	engine := workflow.NewEngine(reg, func(o *workflow.EngineOptions) {
		o.Publisher = opts.Publisher
		o.Logger = opts.Logger
		if opts.Tracer != nil {
			o.Tracer = opts.Tracer
		}
	})

	return &KitchenMesh{opts: opts, registry: reg, engine: engine}
}

// Registry exposes the bound agents, e.g. for serving agent metadata.
func (k *KitchenMesh) Registry() *registry.Registry { return k.registry }

// Execute runs one workflow instance, emitting events to the configured
// publisher as the run progresses.
func (k *KitchenMesh) Execute(ctx context.Context, def workflow.Definition, rawInput string) (*workflow.Result, error) {
	return k.engine.Execute(ctx, def, rawInput)
}

// ExecuteCollect is a synchronous helper that runs one workflow instance and
// returns the full ordered event trail alongside the result. Events are still
// forwarded to the configured publisher.
func (k *KitchenMesh) ExecuteCollect(
	ctx context.Context,
	def workflow.Definition,
	rawInput string,
) (*workflow.Result, []workflow.StatusEvent, error) {
	var events []workflow.StatusEvent
	collector := workflow.PublisherFunc(func(_ context.Context, evt *workflow.StatusEvent) {
		events = append(events, *evt)
	})

	engine := workflow.NewEngine(k.registry, func(o *workflow.EngineOptions) {
		o.Publisher = workflow.CombinePublishers(collector, k.opts.Publisher)
		o.Logger = k.opts.Logger
		if k.opts.Tracer != nil {
			o.Tracer = k.opts.Tracer
		}
	})

	result, err := engine.Execute(ctx, def, rawInput)
	return result, events, err
}
