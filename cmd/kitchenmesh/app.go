package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/kitchenmesh/config"
	"github.com/hupe1980/kitchenmesh/history"
	"github.com/hupe1980/kitchenmesh/hub"
	"github.com/hupe1980/kitchenmesh/instruction"
	"github.com/hupe1980/kitchenmesh/logging"
	"github.com/hupe1980/kitchenmesh/model"
	"github.com/hupe1980/kitchenmesh/model/anthropic"
	"github.com/hupe1980/kitchenmesh/model/openai"
	"github.com/hupe1980/kitchenmesh/orders"
	"github.com/hupe1980/kitchenmesh/registry"
	"github.com/hupe1980/kitchenmesh/telemetry"
	"github.com/hupe1980/kitchenmesh/tool"
	"github.com/hupe1980/kitchenmesh/tool/mcp"
	"github.com/hupe1980/kitchenmesh/workflow"
)

// app bundles everything the commands need after startup wiring.
type app struct {
	cfg         config.Config
	logger      logging.Logger
	registry    *registry.Registry
	engine      *workflow.Engine
	broadcaster *hub.Broadcaster
	store       history.Store
	definition  *orders.Definition

	shutdownFns []func(context.Context) error
}

// newApp performs startup wiring. Any configuration failure is fatal; the
// process must not come up partially configured.
func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(logging.Config{
		Level:  parseLogLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})

	backend, err := buildModel(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("model backend ready", "provider", cfg.ModelProvider, "model", backend.Info().Name)

	a := &app{cfg: cfg, logger: logger}

	catalog := tool.NewCatalog(func(o *tool.CatalogOptions) { o.Logger = logger })
	if cfg.MCPConfigPath != "" {
		servers, err := loadMCPServers(cfg.MCPConfigPath)
		if err != nil {
			return nil, err
		}
		provider, err := mcp.NewProvider(ctx, servers, func(o *mcp.ProviderOptions) { o.Logger = logger })
		if err != nil {
			return nil, fmt.Errorf("connect mcp servers: %w", err)
		}
		catalog.AddProvider(provider)
		a.shutdownFns = append(a.shutdownFns, func(context.Context) error {
			provider.Close()
			return nil
		})
	}
	// Local implementations back any station tool no remote server claimed.
	catalog.AddProvider(orders.NewKitchenTools())

	defs, err := instruction.LoadDir(cfg.InstructionsPath)
	if err != nil {
		return nil, fmt.Errorf("load instructions: %w", err)
	}

	builder := registry.NewBuilder(backend, catalog, func(o *registry.BuilderOptions) { o.Logger = logger })
	a.registry = builder.Build(defs)

	a.store, err = buildStore(cfg)
	if err != nil {
		return nil, err
	}
	if closer, ok := a.store.(interface{ Close() error }); ok {
		a.shutdownFns = append(a.shutdownFns, func(context.Context) error { return closer.Close() })
	}

	a.broadcaster = hub.NewBroadcaster(func(o *hub.BroadcasterOptions) { o.Logger = logger })
	publisher := workflow.CombinePublishers(a.broadcaster, storePublisher(a.store, logger))

	tracer, shutdownTracer, err := telemetry.Setup(telemetry.Config{
		Enabled:  cfg.TracingEnabled,
		Exporter: cfg.TracingExporter,
	})
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	a.shutdownFns = append(a.shutdownFns, shutdownTracer)

	a.engine = workflow.NewEngine(a.registry, func(o *workflow.EngineOptions) {
		o.Publisher = publisher
		o.Tracer = tracer
		o.Logger = logger
	})
	a.definition = orders.NewDefinition()

	return a, nil
}

// submit starts one order run; failures are logged, not returned, since the
// caller observes progress through the event stream.
func (a *app) submit(ctx context.Context, input string) {
	if _, err := a.engine.Execute(ctx, a.definition, input); err != nil {
		a.logger.Error("order run failed", "error", err)
	}
}

// close runs shutdown hooks in reverse registration order.
func (a *app) close(ctx context.Context) {
	for i := len(a.shutdownFns) - 1; i >= 0; i-- {
		if err := a.shutdownFns[i](ctx); err != nil {
			a.logger.Warn("shutdown hook failed", "error", err)
		}
	}
}

func buildModel(cfg config.Config) (model.Model, error) {
	switch cfg.ModelProvider {
	case "openai":
		return openai.New(func(o *openai.Options) {
			o.Model = cfg.ModelName
			o.BaseURL = cfg.ModelEndpoint
			o.APIKey = cfg.ModelAPIKey
		}), nil
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			if cfg.ModelName != "" {
				o.Model = anthropicsdk.Model(cfg.ModelName)
			}
			o.APIKey = cfg.ModelAPIKey
		}), nil
	case "mock":
		return model.NewMockModel("mock"), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.ModelProvider)
	}
}

func buildStore(cfg config.Config) (history.Store, error) {
	switch cfg.HistoryBackend {
	case "sqlite":
		store, err := history.NewSQLiteStore(cfg.HistoryPath)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		return store, nil
	default:
		return history.NewInMemoryStore(), nil
	}
}

// storePublisher adapts the history store to the publisher contract; append
// failures are logged, never propagated into the run.
func storePublisher(store history.Store, logger logging.Logger) workflow.Publisher {
	return workflow.PublisherFunc(func(ctx context.Context, evt *workflow.StatusEvent) {
		if err := store.Append(ctx, evt); err != nil {
			logger.Warn("history append failed", "workflow_id", evt.WorkflowID, "error", err)
		}
	})
}

func loadMCPServers(path string) ([]mcp.ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mcp config: %w", err)
	}
	var servers []mcp.ServerConfig
	if err := json.Unmarshal(data, &servers); err != nil {
		return nil, fmt.Errorf("parse mcp config: %w", err)
	}
	return servers, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
