package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

const (
	DevelopmentInstance = "development"
	ProductionInstance  = "production"
)

type LLMConfig struct {
	Provider string `toml:"provider" validate:"required,oneof=openai azure claude gemini ollama"`
	Model    string `toml:"model" validate:"required"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url" validate:"required_if=Provider azure"`
	// APIVersion and Deployment only apply to the azure provider.
	APIVersion  string  `toml:"api_version"`
	Deployment  string  `toml:"deployment"`
	Temperature float32 `toml:"temperature" validate:"gte=0,lte=2"`
	// MaxOutputTokens caps the completion length; 0 leaves the provider default.
	MaxOutputTokens int `toml:"max_output_tokens" validate:"gte=0"`
}

type ExtractionConfig struct {
	// ContextTokens is the model's context window. Chunks get what is left
	// after the prompt and SafetyMargin.
	ContextTokens    int    `toml:"context_tokens" validate:"gt=0"`
	SafetyMargin     int    `toml:"safety_margin" validate:"gte=0"`
	Encoding         string `toml:"encoding"`
	RepairAttempts   int    `toml:"repair_attempts" validate:"gte=0,lte=5"`
	RepairProperties bool   `toml:"repair_properties"`
	// System replaces the built-in extraction instructions when set.
	System string `toml:"system"`
}

type InstanceConfig struct {
	URI      string `toml:"uri" validate:"required"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	// MaxConnectionLifetimeSeconds defaults to 200.
	MaxConnectionLifetimeSeconds int `toml:"max_connection_lifetime_seconds" validate:"gte=0"`
}

type GraphConfig struct {
	DefaultInstance string                    `toml:"default_instance" validate:"required"`
	Instances       map[string]InstanceConfig `toml:"instances" validate:"required,min=1,dive"`
	BuildIndices    bool                      `toml:"build_indices"`
}

type ArchiveConfig struct {
	Backend string `toml:"backend" validate:"oneof=local s3 gcs"`
	Dir     string `toml:"dir" validate:"required_if=Backend local"`
	Bucket  string `toml:"bucket" validate:"required_unless=Backend local"`
	Prefix  string `toml:"prefix"`

	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UsePathStyle    bool   `toml:"use_path_style"`

	CredentialsFile string `toml:"credentials_file"`
}

type ServerConfig struct {
	Port string `toml:"port" validate:"required"`
	// Mode is the gin mode: debug, release or test.
	Mode string `toml:"mode" validate:"omitempty,oneof=debug release test"`
}

type LogConfig struct {
	Mode string `toml:"mode"`
}

type Config struct {
	LLM        LLMConfig        `toml:"llm"`
	Extraction ExtractionConfig `toml:"extraction"`
	Graph      GraphConfig      `toml:"graph"`
	Archive    ArchiveConfig    `toml:"archive"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
}

func Defaults() Config {
	return Config{
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Extraction: ExtractionConfig{
			ContextTokens: 4096,
			SafetyMargin:  400,
			Encoding:      "cl100k_base",
		},
		Graph: GraphConfig{
			DefaultInstance: DevelopmentInstance,
			Instances:       map[string]InstanceConfig{},
			BuildIndices:    true,
		},
		Archive: ArchiveConfig{
			Backend: "local",
			Dir:     "data/graphs",
		},
		Server: ServerConfig{Port: "8080"},
		Log:    LogConfig{Mode: "dev"},
	}
}

// Load reads the TOML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}

	ApplyEnv(&cfg, os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks the struct tags and the cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, ok := c.Graph.Instances[c.Graph.DefaultInstance]; !ok {
		return fmt.Errorf("invalid config: default instance %q is not configured", c.Graph.DefaultInstance)
	}
	if c.Extraction.ContextTokens <= c.Extraction.SafetyMargin {
		return fmt.Errorf("invalid config: context_tokens %d must exceed safety_margin %d",
			c.Extraction.ContextTokens, c.Extraction.SafetyMargin)
	}
	return nil
}

// InstanceNames returns the configured instance names, default first.
func (c *Config) InstanceNames() []string {
	names := []string{c.Graph.DefaultInstance}
	for name := range c.Graph.Instances {
		if name != c.Graph.DefaultInstance {
			names = append(names, name)
		}
	}
	sort.Strings(names[1:])
	return names
}
