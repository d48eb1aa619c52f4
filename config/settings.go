// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation (caarlos0/env)
// - Default value application
// - Provider-specific configuration lookup
//
// Secrets are only ever read from the environment (or a .env file loaded by main).

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v6"
)

// DefaultProvider is used when neither the caller nor LLM_PROVIDER names one.
const DefaultProvider = "openai"

// Settings holds all application configuration.
type Settings struct {
	LLM   LLMConfig
	Tutor TutorConfig
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string
	Model       string
	BaseURL     string
	MaxTokens   uint32  `env:"LLM_MAX_TOKENS" envDefault:"4096"`
	Temperature float64 `env:"LLM_TEMPERATURE" envDefault:"0.7"`
}

// TutorConfig holds tutor session configuration.
type TutorConfig struct {
	SystemPrompt string `env:"TUTOR_SYSTEM_PROMPT"`               // Empty means the built-in instructor prompt
	SaveCommand  string `env:"TUTOR_SAVE_COMMAND" envDefault:"s"` // Input that saves the last answer
	UserName     string `env:"TUTOR_USER_NAME"`                   // Optional participant name on user messages
	OutputDir    string `env:"TUTOR_OUTPUT_DIR" envDefault:"."`   // Where .qmd files are written
	Debug        bool   `env:"TUTOR_DEBUG"`                       // Debug-level logging
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
	baseURLEnv   string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai":    {"OPENAI_MODEL", "gpt-4o", "OPENAI_API_KEY", "OPENAI_BASE_URL"},
	"anthropic": {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514", "ANTHROPIC_API_KEY", ""},
	"deepseek":  {"DEEPSEEK_MODEL", "deepseek-chat", "DEEPSEEK_API_KEY", "DEEPSEEK_BASE_URL"},
	"gemini":    {"GEMINI_MODEL", "gemini-2.5-flash", "GEMINI_API_KEY", ""},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
}

// New creates settings for the specified provider, loading values from environment variables.
// An empty provider falls back to LLM_PROVIDER, then DefaultProvider.
// Returns an error if the provider is unknown or environment variables contain invalid values.
func New(provider string) (Settings, error) {
	if provider == "" {
		provider = os.Getenv("LLM_PROVIDER")
	}
	if provider == "" {
		provider = DefaultProvider
	}
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return Settings{}, err
	}

	var settings Settings
	if err := env.Parse(&settings); err != nil {
		return Settings{}, fmt.Errorf("invalid environment: %w", err)
	}

	// Set-but-empty variables bypass envDefault
	settings.Tutor.SaveCommand = strings.TrimSpace(settings.Tutor.SaveCommand)
	if settings.Tutor.SaveCommand == "" {
		settings.Tutor.SaveCommand = "s"
	}
	if settings.Tutor.OutputDir == "" {
		settings.Tutor.OutputDir = "."
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelFrom(info)
	if info.baseURLEnv != "" {
		settings.LLM.BaseURL = os.Getenv(info.baseURLEnv)
	}

	return settings, nil
}

// MustNew creates settings for the specified provider.
// Panics if the provider is unknown or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

func modelFrom(info providerInfo) string {
	if val := os.Getenv(info.modelEnv); val != "" {
		return val
	}
	return info.defaultModel
}

// APIKeyFor returns the API key for a provider from environment variables.
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// ModelFor returns the model for a provider, checking environment first.
func ModelFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}
	return modelFrom(info), nil
}

// SupportedProviders returns the list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	return result
}
