// Package config centralizes process configuration. Values are loaded from
// environment variables with sensible defaults; validation failures for
// required backend settings are fatal startup errors.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	// Server
	HTTPAddr string `json:"http_addr"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"` // "json" or "text"

	// Model backend
	ModelProvider string `json:"model_provider"` // "openai", "anthropic", "mock"
	ModelName     string `json:"model_name"`
	ModelEndpoint string `json:"model_endpoint"`
	ModelAPIKey   string `json:"-"` // never serialize

	// Agents
	InstructionsPath string `json:"instructions_path"`

	// Tools
	MCPConfigPath string `json:"mcp_config_path"` // optional JSON file with MCP server entries

	// History
	HistoryBackend string `json:"history_backend"` // "memory" or "sqlite"
	HistoryPath    string `json:"history_path"`

	// Simulator
	SimulatorEnabled  bool   `json:"simulator_enabled"`
	SimulatorSchedule string `json:"simulator_schedule"`

	// Tracing
	TracingEnabled  bool   `json:"tracing_enabled"`
	TracingExporter string `json:"tracing_exporter"`
}

// Load reads configuration from the environment.
func Load() Config {
	return Config{
		HTTPAddr:          getEnv("KITCHENMESH_HTTP_ADDR", ":8080"),
		LogLevel:          getEnv("KITCHENMESH_LOG_LEVEL", "info"),
		LogFormat:         getEnv("KITCHENMESH_LOG_FORMAT", "json"),
		ModelProvider:     getEnv("KITCHENMESH_MODEL_PROVIDER", "openai"),
		ModelName:         getEnv("KITCHENMESH_MODEL_NAME", ""),
		ModelEndpoint:     getEnv("KITCHENMESH_MODEL_ENDPOINT", ""),
		ModelAPIKey:       getEnv("KITCHENMESH_MODEL_API_KEY", ""),
		InstructionsPath:  getEnv("KITCHENMESH_INSTRUCTIONS_PATH", "instructions"),
		MCPConfigPath:     getEnv("KITCHENMESH_MCP_CONFIG", ""),
		HistoryBackend:    getEnv("KITCHENMESH_HISTORY_BACKEND", "memory"),
		HistoryPath:       getEnv("KITCHENMESH_HISTORY_PATH", "kitchenmesh.db"),
		SimulatorEnabled:  getEnvBool("KITCHENMESH_SIMULATOR_ENABLED", false),
		SimulatorSchedule: getEnv("KITCHENMESH_SIMULATOR_SCHEDULE", "@every 10s"),
		TracingEnabled:    getEnvBool("KITCHENMESH_TRACING_ENABLED", false),
		TracingExporter:   getEnv("KITCHENMESH_TRACING_EXPORTER", "stdout"),
	}
}

// Validate checks that required backend settings are present. A blank model
// identifier or endpoint for a real provider is a fatal configuration error.
func (c Config) Validate() error {
	switch c.ModelProvider {
	case "openai":
		if strings.TrimSpace(c.ModelName) == "" {
			return fmt.Errorf("model name must not be blank for provider %q", c.ModelProvider)
		}
		if strings.TrimSpace(c.ModelEndpoint) == "" && strings.TrimSpace(c.ModelAPIKey) == "" {
			return fmt.Errorf("provider %q requires a model endpoint or api key", c.ModelProvider)
		}
	case "anthropic":
		if strings.TrimSpace(c.ModelName) == "" {
			return fmt.Errorf("model name must not be blank for provider %q", c.ModelProvider)
		}
	case "mock":
		// No backend configuration required.
	default:
		return fmt.Errorf("unknown model provider %q", c.ModelProvider)
	}

	switch c.HistoryBackend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown history backend %q", c.HistoryBackend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
