package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "CONTEXT_KEEPER_"

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Edits     EditsConfig     `yaml:"edits"`
	Assembler AssemblerConfig `yaml:"assembler"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TransportConfig struct {
	// Mode is "http" or "stdio".
	Mode string `yaml:"mode"`
}

type WorkspaceConfig struct {
	// Root resolves relative file paths. Empty means the process working directory.
	Root string `yaml:"root"`
}

type SessionsConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	AutoCreate    bool          `yaml:"auto_create"`
}

type EditsConfig struct {
	MaxPerFile        int  `yaml:"max_per_file"`
	RecentLimit       int  `yaml:"recent_limit"`
	DedupeConsecutive bool `yaml:"dedupe_consecutive"`
}

type AssemblerConfig struct {
	MaxFiles       int           `yaml:"max_files"`
	MaxSnippets    int           `yaml:"max_snippets"`
	SnippetTimeout time.Duration `yaml:"snippet_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "context-keeper.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Sessions: SessionsConfig{
			TTL:           24 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Edits: EditsConfig{
			MaxPerFile:  100,
			RecentLimit: 20,
		},
		Assembler: AssemblerConfig{
			MaxSnippets:    10,
			SnippetTimeout: 2 * time.Second,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(envPrefix + "CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Transport.Mode != "http" && c.Transport.Mode != "stdio" {
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	if c.Sessions.TTL <= 0 {
		return fmt.Errorf("sessions.ttl must be positive")
	}
	if c.Sessions.SweepInterval <= 0 {
		return fmt.Errorf("sessions.sweep_interval must be positive")
	}
	if c.Edits.MaxPerFile <= 0 {
		return fmt.Errorf("edits.max_per_file must be positive")
	}
	if c.Edits.RecentLimit <= 0 {
		return fmt.Errorf("edits.recent_limit must be positive")
	}
	if c.Assembler.MaxFiles < 0 {
		return fmt.Errorf("assembler.max_files must not be negative")
	}
	if c.Assembler.MaxSnippets < 0 {
		return fmt.Errorf("assembler.max_snippets must not be negative")
	}
	if c.Assembler.SnippetTimeout <= 0 {
		return fmt.Errorf("assembler.snippet_timeout must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv(envPrefix + "SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if err := envInt("SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if dbPath := os.Getenv(envPrefix + "DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv(envPrefix + "LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if mode := os.Getenv(envPrefix + "TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if root := os.Getenv(envPrefix + "WORKSPACE_ROOT"); root != "" {
		cfg.Workspace.Root = root
	}
	if err := envDuration("SESSION_TTL", &cfg.Sessions.TTL); err != nil {
		return err
	}
	if err := envDuration("SWEEP_INTERVAL", &cfg.Sessions.SweepInterval); err != nil {
		return err
	}
	if err := envBool("AUTO_CREATE_SESSIONS", &cfg.Sessions.AutoCreate); err != nil {
		return err
	}
	if err := envInt("MAX_EDITS_PER_FILE", &cfg.Edits.MaxPerFile); err != nil {
		return err
	}
	if err := envInt("RECENT_EDITS_LIMIT", &cfg.Edits.RecentLimit); err != nil {
		return err
	}
	if err := envBool("DEDUPE_EDITS", &cfg.Edits.DedupeConsecutive); err != nil {
		return err
	}
	if err := envInt("MAX_FILES", &cfg.Assembler.MaxFiles); err != nil {
		return err
	}
	if err := envInt("MAX_SNIPPETS", &cfg.Assembler.MaxSnippets); err != nil {
		return err
	}
	return envDuration("SNIPPET_TIMEOUT", &cfg.Assembler.SnippetTimeout)
}

func envInt(name string, dst *int) error {
	raw := os.Getenv(envPrefix + name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = v
	return nil
}

func envBool(name string, dst *bool) error {
	raw := os.Getenv(envPrefix + name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = v
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	raw := os.Getenv(envPrefix + name)
	if raw == "" {
		return nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = v
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
