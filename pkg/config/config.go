package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderGoogle     = "google"
	ProviderAnthropic  = "anthropic"
	ProviderCopilot    = "copilot"
	ProviderEndpoint   = "endpoint"

	ParserLegacy   = "legacy"
	ParserNumbered = "numbered"
)

// Config represents the application configuration
type Config struct {
	LLMProvider      string          `json:"llm_provider"`
	Providers        ProvidersConfig `json:"providers"`
	Endpoint         EndpointConfig  `json:"endpoint"`
	Server           ServerConfig    `json:"server"`
	Parser           string          `json:"parser"`
	DefaultVibe      string          `json:"default_vibe"`
	StreamThrottleMs int             `json:"stream_throttle_ms"`
	LogLevel         string          `json:"log_level"`
	LogFormat        string          `json:"log_format"`
	LogFile          string          `json:"log_file"`
}

// ProvidersConfig groups the per-provider settings.
type ProvidersConfig struct {
	OpenRouter OpenRouterConfig `json:"openrouter"`
	OpenAI     ProviderConfig   `json:"openai"`
	Google     ProviderConfig   `json:"google"`
	Anthropic  ProviderConfig   `json:"anthropic"`
	Copilot    ProviderConfig   `json:"copilot"`
}

// ProviderConfig holds the settings shared by the direct API providers.
type ProviderConfig struct {
	APIKey            string  `json:"api_key"`
	APIURL            string  `json:"api_url,omitempty"`
	Model             string  `json:"model"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	APITimeoutSeconds int     `json:"api_timeout_seconds"`
}

// OpenRouterConfig holds the OpenRouter API configuration
type OpenRouterConfig struct {
	APIKey            string  `json:"api_key"`
	APIURL            string  `json:"api_url"`
	HTTPReferer       string  `json:"http_referer,omitempty"`
	XTitle            string  `json:"x_title,omitempty"`
	Model             string  `json:"model"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	APITimeoutSeconds int     `json:"api_timeout_seconds"`
}

// EndpointConfig points at a remote completion endpoint that accepts
// {name, vibe, bio} and streams plain text back.
type EndpointConfig struct {
	URL               string `json:"url"`
	APITimeoutSeconds int    `json:"api_timeout_seconds"`
}

// ServerConfig configures `vibegen serve`.
type ServerConfig struct {
	Addr          string  `json:"addr"`
	RatePerSecond float64 `json:"rate_per_second"`
	Burst         int     `json:"burst"`
}

// Default returns a configuration with default values
func Default() Config {
	return Config{
		LLMProvider: ProviderOpenRouter,
		Providers: ProvidersConfig{
			OpenRouter: OpenRouterConfig{
				APIURL:            "https://openrouter.ai/api/v1",
				XTitle:            "vibegen",
				Model:             "google/gemini-3.0-flash",
				Temperature:       0.7,
				MaxTokens:         400,
				APITimeoutSeconds: 30,
			},
			OpenAI: ProviderConfig{
				Model:             "gpt-4o",
				Temperature:       0.7,
				MaxTokens:         400,
				APITimeoutSeconds: 30,
			},
			Google: ProviderConfig{
				Model:             "gemini-3-flash-preview",
				Temperature:       0.7,
				MaxTokens:         400,
				APITimeoutSeconds: 60,
			},
			Anthropic: ProviderConfig{
				Model:             "claude-3-5-sonnet-20241022",
				Temperature:       0.7,
				MaxTokens:         400,
				APITimeoutSeconds: 60,
			},
			Copilot: ProviderConfig{
				Model:             "gpt-4o",
				APITimeoutSeconds: 30,
			},
		},
		Endpoint: EndpointConfig{
			URL:               "http://127.0.0.1:8787/api/generate",
			APITimeoutSeconds: 60,
		},
		Server: ServerConfig{
			Addr:          "127.0.0.1:8787",
			RatePerSecond: 1,
			Burst:         5,
		},
		Parser:           ParserLegacy,
		DefaultVibe:      "Pun",
		StreamThrottleMs: 50,
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

// Load loads configuration from the specified path.
// If the file doesn't exist, creates one with default values.
// Keys missing from the file keep their defaults. Environment variables
// override both.
func Load(configPath string) (Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return Config{}, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if err := Save(configPath, cfg); err != nil {
				return Config{}, fmt.Errorf("failed to create default config: %w", err)
			}
			return applyEnvironmentOverrides(cfg), nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	return applyEnvironmentOverrides(cfg), nil
}

// Save saves the configuration to the specified path
func Save(configPath string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func applyEnvironmentOverrides(cfg Config) Config {
	if provider := strings.TrimSpace(os.Getenv("VIBEGEN_PROVIDER")); provider != "" {
		cfg.LLMProvider = strings.ToLower(provider)
	}

	if apiKey := os.Getenv("VIBEGEN_API_KEY"); apiKey != "" {
		switch cfg.LLMProvider {
		case ProviderOpenRouter:
			cfg.Providers.OpenRouter.APIKey = apiKey
		case ProviderOpenAI:
			cfg.Providers.OpenAI.APIKey = apiKey
		case ProviderGoogle:
			cfg.Providers.Google.APIKey = apiKey
		case ProviderAnthropic:
			cfg.Providers.Anthropic.APIKey = apiKey
		}
	}

	if model := os.Getenv("VIBEGEN_MODEL"); model != "" {
		switch cfg.LLMProvider {
		case ProviderOpenRouter:
			cfg.Providers.OpenRouter.Model = model
		case ProviderOpenAI:
			cfg.Providers.OpenAI.Model = model
		case ProviderGoogle:
			cfg.Providers.Google.Model = model
		case ProviderAnthropic:
			cfg.Providers.Anthropic.Model = model
		case ProviderCopilot:
			cfg.Providers.Copilot.Model = model
		}
	}

	if endpoint := os.Getenv("VIBEGEN_ENDPOINT_URL"); endpoint != "" {
		cfg.Endpoint.URL = endpoint
	}

	if addr := os.Getenv("VIBEGEN_SERVER_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}

	if parser := os.Getenv("VIBEGEN_PARSER"); parser != "" {
		cfg.Parser = strings.ToLower(parser)
	}

	if logLevel := os.Getenv("VIBEGEN_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = strings.ToLower(logLevel)
	}

	if throttle := os.Getenv("VIBEGEN_STREAM_THROTTLE_MS"); throttle != "" {
		if ms, err := strconv.Atoi(throttle); err == nil && ms >= 0 {
			cfg.StreamThrottleMs = ms
		}
	}

	return cfg
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenRouter:
		or := c.Providers.OpenRouter
		if strings.TrimSpace(or.APIKey) == "" {
			return fmt.Errorf("OpenRouter API key is required (set VIBEGEN_API_KEY or providers.openrouter.api_key)")
		}
		if err := validateURL("providers.openrouter.api_url", or.APIURL); err != nil {
			return err
		}
		if err := validateSampling(or.Temperature, or.MaxTokens, or.APITimeoutSeconds); err != nil {
			return err
		}
	case ProviderOpenAI, ProviderGoogle, ProviderAnthropic:
		pc := c.activeProvider()
		if strings.TrimSpace(pc.APIKey) == "" {
			return fmt.Errorf("%s API key is required (set VIBEGEN_API_KEY or providers.%s.api_key)", c.LLMProvider, c.LLMProvider)
		}
		if pc.APIURL != "" {
			if err := validateURL("providers."+c.LLMProvider+".api_url", pc.APIURL); err != nil {
				return err
			}
		}
		if err := validateSampling(pc.Temperature, pc.MaxTokens, pc.APITimeoutSeconds); err != nil {
			return err
		}
	case ProviderCopilot:
		// Copilot authenticates through the Copilot CLI.
	case ProviderEndpoint:
		if err := validateURL("endpoint.url", c.Endpoint.URL); err != nil {
			return err
		}
		if c.Endpoint.APITimeoutSeconds <= 0 {
			return fmt.Errorf("endpoint.api_timeout_seconds must be positive, got: %d", c.Endpoint.APITimeoutSeconds)
		}
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}

	switch c.Parser {
	case ParserLegacy, ParserNumbered, "":
	default:
		return fmt.Errorf("unsupported parser: %s", c.Parser)
	}

	if c.StreamThrottleMs < 0 {
		return fmt.Errorf("stream_throttle_ms must not be negative, got: %d", c.StreamThrottleMs)
	}

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unsupported log_level: %s", c.LogLevel)
	}

	return nil
}

// ValidateServer checks the settings used by `vibegen serve`.
func (c Config) ValidateServer() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.RatePerSecond <= 0 {
		return fmt.Errorf("server.rate_per_second must be positive, got: %f", c.Server.RatePerSecond)
	}
	if c.Server.Burst <= 0 {
		return fmt.Errorf("server.burst must be positive, got: %d", c.Server.Burst)
	}
	if c.LLMProvider == ProviderEndpoint {
		return fmt.Errorf("serve needs a model provider, not %q", ProviderEndpoint)
	}
	return nil
}

func (c Config) activeProvider() ProviderConfig {
	switch c.LLMProvider {
	case ProviderOpenAI:
		return c.Providers.OpenAI
	case ProviderGoogle:
		return c.Providers.Google
	case ProviderAnthropic:
		return c.Providers.Anthropic
	case ProviderCopilot:
		return c.Providers.Copilot
	}
	return ProviderConfig{}
}

func validateURL(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got: %q", field, raw)
	}
	return nil
}

func validateSampling(temperature float64, maxTokens, timeoutSeconds int) error {
	if temperature < 0 || temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got: %f", temperature)
	}
	if maxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got: %d", maxTokens)
	}
	if timeoutSeconds <= 0 {
		return fmt.Errorf("api_timeout_seconds must be positive, got: %d", timeoutSeconds)
	}
	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".vibegen/config.json"
	}
	return filepath.Join(homeDir, ".vibegen", "config.json")
}
