// Provider construction for the tutor's chat backends.
//
// Information Hiding:
// - Per-provider defaults (model, key variable) kept in one table
// - Constructor selection and OpenAI-compatible endpoint overrides hidden in Build
//
//	p, err := llm.NewProviderBuilder(llm.ProviderDeepSeek).
//	    Model(llm.ModelDeepSeekReasoner).
//	    MaxTokens(2048).
//	    APIKey(key)

package llm

import (
	"fmt"
	"strings"
)

// ProviderType identifies a chat-completion backend.
type ProviderType int

const (
	// ProviderOpenAI is the OpenAI Chat Completions API.
	ProviderOpenAI ProviderType = iota
	// ProviderAnthropic is the Anthropic Messages API.
	ProviderAnthropic
	// ProviderDeepSeek is DeepSeek's OpenAI-compatible API.
	ProviderDeepSeek
	// ProviderGemini is Google's Gemini API.
	ProviderGemini
)

// Defaults applied when the builder is left unset.
const (
	DefaultMaxTokens   uint32  = 4096
	DefaultTemperature float32 = 0.7
)

type providerSpec struct {
	name         string
	aliases      []string
	apiKeyEnv    string
	defaultModel string
}

var providerSpecs = map[ProviderType]providerSpec{
	ProviderOpenAI:    {"openai", []string{"gpt"}, "OPENAI_API_KEY", ModelOpenAIGPT4o},
	ProviderAnthropic: {"anthropic", []string{"claude"}, "ANTHROPIC_API_KEY", ModelAnthropicClaudeSonnet4},
	ProviderDeepSeek:  {"deepseek", nil, "DEEPSEEK_API_KEY", ModelDeepSeekChat},
	ProviderGemini:    {"gemini", []string{"google"}, "GEMINI_API_KEY", ModelGeminiFlash25},
}

// String returns the canonical provider name.
func (p ProviderType) String() string {
	if spec, ok := providerSpecs[p]; ok {
		return spec.name
	}
	return "unknown"
}

// EnvVar returns the environment variable holding this provider's API key.
func (p ProviderType) EnvVar() string {
	return providerSpecs[p].apiKeyEnv
}

// DefaultModel returns the model used when none is configured.
func (p ProviderType) DefaultModel() string {
	return providerSpecs[p].defaultModel
}

// ParseProviderType resolves a provider name or alias, ignoring case.
func ParseProviderType(s string) (ProviderType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for p, spec := range providerSpecs {
		if spec.name == name {
			return p, nil
		}
		for _, alias := range spec.aliases {
			if alias == name {
				return p, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown provider: %s", s)
}

// ProviderBuilder collects provider options before construction.
type ProviderBuilder struct {
	providerType ProviderType
	model        string
	baseURL      string
	maxTokens    uint32
	temperature  *float32
}

// NewProviderBuilder starts configuring a provider of the given type.
func NewProviderBuilder(providerType ProviderType) *ProviderBuilder {
	return &ProviderBuilder{providerType: providerType}
}

// Model sets the model. Empty keeps the provider default.
func (b *ProviderBuilder) Model(model string) *ProviderBuilder {
	b.model = model
	return b
}

// BaseURL overrides the API endpoint. Only OpenAI-compatible providers honor it.
func (b *ProviderBuilder) BaseURL(url string) *ProviderBuilder {
	b.baseURL = url
	return b
}

// MaxTokens caps the length of each answer. Zero keeps DefaultMaxTokens.
func (b *ProviderBuilder) MaxTokens(tokens uint32) *ProviderBuilder {
	b.maxTokens = tokens
	return b
}

// Temperature sets sampling temperature (0.0 = deterministic, 1.0 = creative).
func (b *ProviderBuilder) Temperature(temp float32) *ProviderBuilder {
	b.temperature = &temp
	return b
}

// APIKey builds the provider with the given key.
func (b *ProviderBuilder) APIKey(key string) (Provider, error) {
	if key == "" {
		return nil, fmt.Errorf("%s: API key is empty (set %s)", b.providerType, b.providerType.EnvVar())
	}

	model := b.model
	if model == "" {
		model = b.providerType.DefaultModel()
	}

	maxTokens := b.maxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	temperature := DefaultTemperature
	if b.temperature != nil {
		temperature = *b.temperature
	}

	switch b.providerType {
	case ProviderOpenAI:
		if b.baseURL != "" {
			return NewOpenAIProviderWithBaseURL(key, b.baseURL, model, maxTokens, temperature), nil
		}
		return NewOpenAIProvider(key, model, maxTokens, temperature), nil
	case ProviderDeepSeek:
		baseURL := b.baseURL
		if baseURL == "" {
			baseURL = deepseekBaseURL
		}
		return newDeepSeekProvider(key, baseURL, model, maxTokens, temperature), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(key, model, maxTokens, temperature), nil
	case ProviderGemini:
		return NewGeminiProvider(key, model, maxTokens, temperature), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %v", b.providerType)
	}
}

// OpenAI models
const (
	ModelOpenAIGPT4o      = "gpt-4o"
	ModelOpenAIGPT4oMini  = "gpt-4o-mini"
	ModelOpenAIGPT35Turbo = "gpt-3.5-turbo"
)

// Anthropic models
const (
	ModelAnthropicClaudeSonnet4 = "claude-sonnet-4-20250514"
	ModelAnthropicClaudeOpus4   = "claude-opus-4-20250514"
)

// DeepSeek models
const (
	ModelDeepSeekChat     = "deepseek-chat"
	ModelDeepSeekReasoner = "deepseek-reasoner"
)

// Gemini models
const (
	ModelGeminiFlash25 = "gemini-2.5-flash"
	ModelGeminiPro25   = "gemini-2.5-pro"
)
