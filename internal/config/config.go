// Package config loads ema-live configuration from an optional YAML file,
// the environment and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete ema-live configuration.
type Config struct {
	Gemini       GeminiConfig       `mapstructure:"gemini" yaml:"gemini"`
	Session      SessionConfig      `mapstructure:"session" yaml:"session"`
	Audio        AudioConfig        `mapstructure:"audio" yaml:"audio"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator" yaml:"orchestrator"`
	CRM          CRMConfig          `mapstructure:"crm" yaml:"crm"`
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`
	Model      string `mapstructure:"model" yaml:"model"`
	APIVersion string `mapstructure:"api_version" yaml:"api_version"`
}

type SessionConfig struct {
	Voice             string            `mapstructure:"voice" yaml:"voice"`
	SystemInstruction string            `mapstructure:"system_instruction" yaml:"system_instruction"`
	Compression       CompressionConfig `mapstructure:"compression" yaml:"compression"`
}

// CompressionConfig enables sliding-window context compression when
// TriggerTokens is positive.
type CompressionConfig struct {
	TriggerTokens int64 `mapstructure:"trigger_tokens" yaml:"trigger_tokens"`
	TargetTokens  int64 `mapstructure:"target_tokens" yaml:"target_tokens"`
}

type AudioConfig struct {
	Backend   string `mapstructure:"backend" yaml:"backend"`
	FrameSize int    `mapstructure:"frame_size" yaml:"frame_size"`
}

type OrchestratorConfig struct {
	OutboundCapacity int           `mapstructure:"outbound_capacity" yaml:"outbound_capacity"`
	QuitSentinel     string        `mapstructure:"quit_sentinel" yaml:"quit_sentinel"`
	ToolTimeout      time.Duration `mapstructure:"tool_timeout" yaml:"tool_timeout"`
	Prompt           string        `mapstructure:"prompt" yaml:"prompt"`
}

type CRMConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type ServerConfig struct {
	Addr       string `mapstructure:"addr" yaml:"addr"`
	Store      string `mapstructure:"store" yaml:"store"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

const (
	BackendPortAudio = "portaudio"
	BackendMiniaudio = "miniaudio"

	StoreMemory = "memory"
	StoreSQLite = "sqlite"

	envPrefix = "EMA"
)

// Load reads the configuration. path may be empty, in which case only the
// environment and defaults are used.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("gemini.api_key", envPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("config: bind env: %w", err)
	}
	if err := v.BindEnv("crm.base_url", envPrefix+"_CRM_BASE_URL", "CRM_BASE_URL"); err != nil {
		return nil, fmt.Errorf("config: bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "models/gemini-live-2.5-flash-preview")
	v.SetDefault("gemini.api_version", "v1beta")
	v.SetDefault("session.voice", "Zephyr")
	v.SetDefault("session.system_instruction", DefaultSystemInstruction)
	v.SetDefault("session.compression.trigger_tokens", 25600)
	v.SetDefault("session.compression.target_tokens", 12800)
	v.SetDefault("audio.backend", BackendPortAudio)
	v.SetDefault("audio.frame_size", 1024)
	v.SetDefault("orchestrator.outbound_capacity", 5)
	v.SetDefault("orchestrator.quit_sentinel", "q")
	v.SetDefault("orchestrator.tool_timeout", 5*time.Second)
	v.SetDefault("orchestrator.prompt", "message > ")
	v.SetDefault("crm.base_url", "http://localhost:8001")
	v.SetDefault("crm.timeout", 5*time.Second)
	v.SetDefault("server.addr", ":8001")
	v.SetDefault("server.store", StoreMemory)
	v.SetDefault("server.sqlite_path", "crm.db")
	v.SetDefault("log.level", "info")
}

// applyDefaults fills values a file or the environment explicitly blanked.
func (c *Config) applyDefaults() {
	c.Audio.Backend = strings.ToLower(strings.TrimSpace(c.Audio.Backend))
	c.Server.Store = strings.ToLower(strings.TrimSpace(c.Server.Store))
	if c.Audio.Backend == "" {
		c.Audio.Backend = BackendPortAudio
	}
	if c.Server.Store == "" {
		c.Server.Store = StoreMemory
	}
	if c.Orchestrator.QuitSentinel == "" {
		c.Orchestrator.QuitSentinel = "q"
	}
	if c.Orchestrator.OutboundCapacity == 0 {
		c.Orchestrator.OutboundCapacity = 5
	}
	if c.CRM.Timeout == 0 {
		c.CRM.Timeout = 5 * time.Second
	}
	if c.Orchestrator.ToolTimeout == 0 {
		c.Orchestrator.ToolTimeout = c.CRM.Timeout
	}
}

// validate checks that all values are usable together.
func (c *Config) validate() error {
	var errs []string
	if c.Gemini.Model == "" {
		errs = append(errs, "gemini.model is required")
	}
	if c.Audio.Backend != BackendPortAudio && c.Audio.Backend != BackendMiniaudio {
		errs = append(errs, fmt.Sprintf("audio.backend must be %s or %s, got %q", BackendPortAudio, BackendMiniaudio, c.Audio.Backend))
	}
	if c.Audio.FrameSize <= 0 {
		errs = append(errs, "audio.frame_size must be positive")
	}
	if c.Orchestrator.OutboundCapacity < 1 {
		errs = append(errs, "orchestrator.outbound_capacity must be at least 1")
	}
	if c.Orchestrator.ToolTimeout < 0 || c.CRM.Timeout < 0 {
		errs = append(errs, "timeouts must not be negative")
	}
	if comp := c.Session.Compression; comp.TriggerTokens > 0 && comp.TargetTokens >= comp.TriggerTokens {
		errs = append(errs, "session.compression.target_tokens must be below trigger_tokens")
	}
	if c.Server.Store != StoreMemory && c.Server.Store != StoreSQLite {
		errs = append(errs, fmt.Sprintf("server.store must be %s or %s, got %q", StoreMemory, StoreSQLite, c.Server.Store))
	}
	if c.Server.Store == StoreSQLite && c.Server.SQLitePath == "" {
		errs = append(errs, "server.sqlite_path is required for the sqlite store")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ErrMissingAPIKey is returned by RequireAPIKey when no key is configured.
var ErrMissingAPIKey = errors.New("config: gemini.api_key is required (set GEMINI_API_KEY)")

// RequireAPIKey reports whether a live session can be opened.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q is not one of debug, info, warn, error", l.Level)
	}
	return level, nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Gemini.APIKey != "" {
		c.Gemini.APIKey = "********"
	}
	return c
}
