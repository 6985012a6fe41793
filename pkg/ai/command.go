package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/johnstilia/cmtgen/pkg/commit"
)

// CommandRequest is written as JSON to the command's stdin
type CommandRequest struct {
	SystemPrompt string         `json:"system_prompt"`
	UserPrompt   string         `json:"user_prompt"`
	Model        string         `json:"model,omitempty"`
	Temperature  float64        `json:"temperature"`
	Reasoning    ReasoningDepth `json:"reasoning"`
}

// CommandGenerator delegates generation to an external program. The program
// reads a CommandRequest on stdin and prints the reply on stdout, either as
// the JSON commit object or as a plain conventional commit message.
type CommandGenerator struct {
	// Provider labels errors and logs
	Provider string
	// Command is the program and its arguments
	Command []string

	// Exec allows tests to replace process creation
	Exec func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewCommandGenerator returns a generator running command
func NewCommandGenerator(provider string, command []string) *CommandGenerator {
	return &CommandGenerator{
		Provider: provider,
		Command:  command,
		Exec:     exec.CommandContext,
	}
}

// Generate implements Generator
func (g *CommandGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (commit.StructuredResult, error) {
	logger := otelzap.Ctx(ctx)

	if len(g.Command) == 0 {
		return commit.StructuredResult{}, errors.WithHint(
			errors.WithStack(&ProviderError{Provider: g.Provider, Message: "no generator command configured"}),
			"set ai.command in your configuration, for example [\"llm\", \"-m\", \"gpt-4o\"]",
		)
	}

	payload, err := json.Marshal(CommandRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Model:        opts.Model,
		Temperature:  opts.Temperature,
		Reasoning:    opts.Reasoning,
	})
	if err != nil {
		return commit.StructuredResult{}, errors.Wrap(err, "encoding generator request")
	}

	cmd := g.Exec(ctx, g.Command[0], g.Command[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.WaitDelay = time.Second
	cmd.Env = append(os.Environ(),
		"CMTGEN_MODEL="+opts.Model,
		fmt.Sprintf("CMTGEN_TEMPERATURE=%g", opts.Temperature),
		"CMTGEN_REASONING="+string(opts.Reasoning),
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("running generator command",
		zap.String("provider", g.Provider),
		zap.Strings("command", g.Command),
		zap.String("model", opts.Model),
		zap.Int("request_bytes", len(payload)))

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return commit.StructuredResult{}, ctxErr
		}
		return commit.StructuredResult{}, errors.WithStack(&ProviderError{
			Provider: g.Provider,
			Message:  strings.TrimSpace(stderr.String()),
			Err:      err,
		})
	}

	logger.Debug("generator replied", zap.Int("reply_bytes", stdout.Len()))

	result, err := commit.ParseStructuredResult(stdout.String())
	if err != nil {
		return commit.StructuredResult{}, errors.WithStack(&ProviderError{
			Provider: g.Provider,
			Message:  "unusable reply",
			Err:      err,
		})
	}

	return result, nil
}
