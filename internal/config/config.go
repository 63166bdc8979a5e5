// Package config provides configuration loading for agentd.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the agentd daemon.
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Logging      LoggingConfig      `koanf:"logging"`
	Telemetry    TelemetryConfig    `koanf:"telemetry"`
	Model        ModelConfig        `koanf:"model"`
	Workspace    WorkspaceConfig    `koanf:"workspace"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Search       SearchConfig       `koanf:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
	Endpoint    string `koanf:"endpoint"`
	Insecure    bool   `koanf:"insecure"`
}

// ModelConfig holds language model provider settings.
type ModelConfig struct {
	Provider    string   `koanf:"provider"`
	Name        string   `koanf:"name"`
	APIKey      Secret   `koanf:"api_key"`
	BaseURL     string   `koanf:"base_url"`
	MaxTokens   int      `koanf:"max_tokens"`
	Temperature float64  `koanf:"temperature"`
	Timeout     Duration `koanf:"timeout"`
}

// WorkspaceConfig holds workspace file access settings.
type WorkspaceConfig struct {
	Root string `koanf:"root"`
}

// OrchestratorConfig bounds a single orchestration turn.
type OrchestratorConfig struct {
	MaxIterations int      `koanf:"max_iterations"`
	HistoryLimit  int      `koanf:"history_limit"`
	TurnTimeout   Duration `koanf:"turn_timeout"`
	EventBuffer   int      `koanf:"event_buffer"`
}

// SearchConfig holds code-search index settings.
type SearchConfig struct {
	Path       string `koanf:"path"`
	Collection string `koanf:"collection"`
	MaxResults int    `koanf:"max_results"`
}

// NewDefaultConfig returns configuration with production-ready defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 9090,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "agentd",
			Endpoint:    "localhost:4317",
			Insecure:    true,
		},
		Model: ModelConfig{
			Provider:    "openai",
			Name:        "gpt-4o-mini",
			MaxTokens:   4096,
			Temperature: 0.2,
			Timeout:     Duration(60 * time.Second),
		},
		Workspace: WorkspaceConfig{
			Root: ".",
		},
		Orchestrator: OrchestratorConfig{
			MaxIterations: 10,
			HistoryLimit:  20,
			TurnTimeout:   Duration(5 * time.Minute),
			EventBuffer:   64,
		},
		Search: SearchConfig{
			Path:       "",
			Collection: "agentd_code",
			MaxResults: 5,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in range 1-65535, got %d", c.Server.Port)
	}
	if c.Workspace.Root == "" {
		return fmt.Errorf("workspace.root is required")
	}
	if c.Orchestrator.MaxIterations < 1 {
		return fmt.Errorf("orchestrator.max_iterations must be positive, got %d", c.Orchestrator.MaxIterations)
	}
	if c.Orchestrator.HistoryLimit < 1 {
		return fmt.Errorf("orchestrator.history_limit must be positive, got %d", c.Orchestrator.HistoryLimit)
	}
	if c.Orchestrator.EventBuffer < 1 {
		return fmt.Errorf("orchestrator.event_buffer must be positive, got %d", c.Orchestrator.EventBuffer)
	}
	if c.Orchestrator.TurnTimeout.Duration() <= 0 {
		return fmt.Errorf("orchestrator.turn_timeout must be positive")
	}
	if c.Model.Provider == "" {
		return fmt.Errorf("model.provider is required")
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model.name is required")
	}
	if c.Search.MaxResults < 1 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	return nil
}
