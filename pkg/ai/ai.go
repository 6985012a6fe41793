// Package ai is the boundary to the language model. The core only sees the
// Generator interface; how a reply is produced is up to the implementation.
package ai

import (
	"context"
	"strings"

	"github.com/johnstilia/cmtgen/pkg/commit"
)

// DefaultTemperature is used when the configuration leaves it unset
const DefaultTemperature = 0.3

// ReasoningDepth asks the model for more or less deliberation
type ReasoningDepth string

const (
	ReasoningOff     ReasoningDepth = "off"
	ReasoningMinimal ReasoningDepth = "minimal"
	ReasoningLow     ReasoningDepth = "low"
	ReasoningHigh    ReasoningDepth = "high"
)

// ParseReasoningDepth accepts the usual spellings; anything unknown is low
func ParseReasoningDepth(s string) ReasoningDepth {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none", "disabled":
		return ReasoningOff
	case "minimal", "min":
		return ReasoningMinimal
	case "high", "max":
		return ReasoningHigh
	default:
		return ReasoningLow
	}
}

// Options tune a single generation
type Options struct {
	Model       string
	Temperature float64
	Reasoning   ReasoningDepth
}

// Generator produces a structured commit message from the two prompts.
// Implementations must honor ctx cancellation.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (commit.StructuredResult, error)
}

// GeneratorFunc adapts a function to the Generator interface
type GeneratorFunc func(ctx context.Context, systemPrompt, userPrompt string, opts Options) (commit.StructuredResult, error)

// Generate calls f
func (f GeneratorFunc) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (commit.StructuredResult, error) {
	return f(ctx, systemPrompt, userPrompt, opts)
}
