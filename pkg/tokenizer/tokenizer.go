// Package tokenizer estimates prompt sizes for display and budget warnings.
package tokenizer

import (
	"math"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding is used for models tiktoken does not know
const fallbackEncoding = "cl100k_base"

// Counter counts tokens, caching one encoder per model
type Counter struct {
	mu       sync.Mutex
	encoders map[string]func(string) int

	// load resolves an encoder; replaced in tests to stay offline
	load func(model string) (func(string) int, error)
}

// NewCounter returns a Counter backed by tiktoken
func NewCounter() *Counter {
	return &Counter{
		encoders: make(map[string]func(string) int),
		load:     loadTiktoken,
	}
}

func loadTiktoken(model string) (func(string) int, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, err
		}
	}
	return func(text string) int {
		return len(encoding.Encode(text, nil, nil))
	}, nil
}

// Count returns the number of tokens in text for model. When no encoding
// can be loaded it falls back to Estimate.
func (c *Counter) Count(text, model string) int {
	if text == "" {
		return 0
	}

	c.mu.Lock()
	enc, ok := c.encoders[model]
	if !ok {
		loaded, err := c.load(model)
		if err != nil {
			loaded = Estimate
		}
		enc = loaded
		c.encoders[model] = enc
	}
	c.mu.Unlock()

	return enc(text)
}

// Estimate approximates the token count at about 3.5 characters per token
func Estimate(text string) int {
	return int(math.Ceil(float64(len(text)) / 3.5))
}

// GetProviderTokenLimit returns the safe input token limit for a given
// provider and model. These are conservative to leave room for the reply.
func GetProviderTokenLimit(provider string, model string) int {
	provider = strings.ToLower(provider)
	model = strings.ToLower(model)

	switch {
	case provider == "openai" || strings.HasPrefix(model, "gpt-") || strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3"):
		if strings.Contains(model, "gpt-3.5-turbo") {
			if strings.Contains(model, "16k") {
				return 12000
			}
			return 3000
		}
		return 100000

	case provider == "claude" || provider == "anthropic" || strings.HasPrefix(model, "claude"):
		if strings.Contains(model, "claude-2") {
			return 90000
		}
		return 180000

	case provider == "gemini" || strings.HasPrefix(model, "gemini"):
		if strings.Contains(model, "1.0") {
			return 30000
		}
		return 900000

	case provider == "ollama":
		return 8000

	default:
		return 100000
	}
}

// Budget describes a prompt against the model's input limit
type Budget struct {
	Tokens int
	Limit  int
}

// Exceeded reports whether the prompt is over the limit
func (b Budget) Exceeded() bool {
	return b.Tokens > b.Limit
}

// Measure counts the system and user prompts together
func (c *Counter) Measure(provider, model, systemPrompt, userPrompt string) Budget {
	return Budget{
		Tokens: c.Count(systemPrompt, model) + c.Count(userPrompt, model),
		Limit:  GetProviderTokenLimit(provider, model),
	}
}
