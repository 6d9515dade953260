package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Browser execution modes, resolved from plain configuration before the
// core runs.
const (
	BrowserModePlaywright = "playwright"
	BrowserModeCDP        = "cdp"
	BrowserModeSim        = "sim"
)

// Config is the full application configuration. Credentials and budgets are
// threaded into constructors explicitly; nothing reads process-global state.
type Config struct {
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Browser BrowserConfig `mapstructure:"browser"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Results ResultsConfig `mapstructure:"results"`
	Logger  LoggerConfig  `mapstructure:"logger"`
}

// OpenAIConfig holds credentials and model selection for both LLM roles:
// the structured-completion call that infers the task schema and the
// vision-driven computer-use loop.
type OpenAIConfig struct {
	APIKey        string `mapstructure:"api_key"`
	SchemaModel   string `mapstructure:"schema_model"`
	ComputerModel string `mapstructure:"computer_model"`
}

type BrowserConfig struct {
	Mode      string `mapstructure:"mode"`
	Headless  bool   `mapstructure:"headless"`
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
	UserAgent string `mapstructure:"user_agent"`
}

// AgentConfig bounds a research run. MaxTurns is enforced by the
// computer-use collaborator, Timeout by the supervised loop.
type AgentConfig struct {
	MaxTurns int           `mapstructure:"max_turns"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type ResultsConfig struct {
	Dir  string `mapstructure:"dir"`
	Save bool   `mapstructure:"save"`
}

type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	LogFile     string `mapstructure:"log_file"`
	MaxSize     int    `mapstructure:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAge      int    `mapstructure:"max_age"`
	Compress    bool   `mapstructure:"compress"`
	AddSource   bool   `mapstructure:"add_source"`
	ServiceName string `mapstructure:"service_name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("openai.schema_model", "gpt-4o-mini")
	v.SetDefault("openai.computer_model", "gpt-4o")

	v.SetDefault("browser.mode", BrowserModePlaywright)
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.width", 1280)
	v.SetDefault("browser.height", 720)
	v.SetDefault("browser.user_agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")

	v.SetDefault("agent.max_turns", 20)
	v.SetDefault("agent.timeout", 10*time.Minute)

	v.SetDefault("results.dir", "results")
	v.SetDefault("results.save", true)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.service_name", "research-agent")
}

// Load reads configuration from an optional file plus RESEARCH_* environment
// variables. OPENAI_API_KEY is honored as a fallback for the key so the tool
// works out of the box in the usual environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("openai.api_key", "RESEARCH_OPENAI_API_KEY", "OPENAI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Browser.Mode {
	case BrowserModePlaywright, BrowserModeCDP, BrowserModeSim:
	default:
		return fmt.Errorf("invalid browser.mode %q (want playwright, cdp or sim)", c.Browser.Mode)
	}
	if c.Agent.MaxTurns <= 0 {
		return fmt.Errorf("agent.max_turns must be positive, got %d", c.Agent.MaxTurns)
	}
	if c.Agent.Timeout <= 0 {
		return fmt.Errorf("agent.timeout must be positive, got %s", c.Agent.Timeout)
	}
	return nil
}
