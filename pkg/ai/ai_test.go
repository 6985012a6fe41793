package ai

import (
	"context"
	"errors"
	"os/exec"
	"sync/atomic"
	"testing"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/johnstilia/cmtgen/pkg/commit"
)

func TestParseReasoningDepth(t *testing.T) {
	for in, want := range map[string]ReasoningDepth{
		"off":     ReasoningOff,
		"None":    ReasoningOff,
		"minimal": ReasoningMinimal,
		"low":     ReasoningLow,
		"HIGH":    ReasoningHigh,
		"":        ReasoningLow,
		"extreme": ReasoningLow,
	} {
		assert.Equal(t, want, ParseReasoningDepth(in), in)
	}
}

func TestCatalogResolve(t *testing.T) {
	c := Catalog{Provider: "claude", Default: "sonnet", Models: []string{"sonnet", "opus"}}

	m, err := c.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "sonnet", m)

	m, err = c.Resolve(" opus ")
	require.NoError(t, err)
	assert.Equal(t, "opus", m)

	_, err = c.Resolve("gpt-2")
	var invalid *InvalidModelError
	require.True(t, cerr.As(err, &invalid))
	assert.Equal(t, "gpt-2", invalid.Model)
	assert.Equal(t, "invalid model \"gpt-2\" for provider claude. Available models:\n  - sonnet\n  - opus", invalid.Error())

	open := Catalog{Provider: "local"}
	m, err = open.Resolve("anything")
	require.NoError(t, err)
	assert.Equal(t, "anything", m)
}

type PolicySuite struct {
	suite.Suite
	ctx context.Context
}

func (s *PolicySuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *PolicySuite) Test_Retries_Transient_Provider_Error() {
	calls := 0
	gen := GeneratorFunc(func(ctx context.Context, _, _ string, _ Options) (commit.StructuredResult, error) {
		calls++
		if calls == 1 {
			return commit.StructuredResult{}, &ProviderError{Provider: "test", Message: "503"}
		}
		return commit.StructuredResult{Type: commit.Fix, Subject: "ok"}, nil
	})

	res, err := Call(s.ctx, gen, "sys", "user", Options{}, Policy{Provider: "test", Retries: 1, Backoff: time.Millisecond})

	s.Require().NoError(err)
	s.Equal("ok", res.Subject)
	s.Equal(2, calls)
}

func (s *PolicySuite) Test_Does_Not_Retry_Invalid_Model() {
	calls := 0
	gen := GeneratorFunc(func(ctx context.Context, _, _ string, _ Options) (commit.StructuredResult, error) {
		calls++
		return commit.StructuredResult{}, &InvalidModelError{Provider: "test", Model: "x"}
	})

	_, err := Call(s.ctx, gen, "sys", "user", Options{}, Policy{Retries: 3})

	var invalid *InvalidModelError
	s.True(cerr.As(err, &invalid))
	s.Equal(1, calls)
}

func (s *PolicySuite) Test_Gives_Up_After_Retries() {
	calls := 0
	gen := GeneratorFunc(func(ctx context.Context, _, _ string, _ Options) (commit.StructuredResult, error) {
		calls++
		return commit.StructuredResult{}, &ProviderError{Provider: "test", Message: "down"}
	})

	_, err := Call(s.ctx, gen, "sys", "user", Options{}, Policy{Retries: 1})

	var provider *ProviderError
	s.True(cerr.As(err, &provider))
	s.Equal(2, calls)
}

func (s *PolicySuite) Test_Timeout_Becomes_Provider_Timeout() {
	gen := GeneratorFunc(func(ctx context.Context, _, _ string, _ Options) (commit.StructuredResult, error) {
		<-ctx.Done()
		return commit.StructuredResult{}, ctx.Err()
	})

	_, err := Call(s.ctx, gen, "sys", "user", Options{}, Policy{Provider: "slow", Timeout: 20 * time.Millisecond, Retries: 2})

	var timeout *ProviderTimeoutError
	s.Require().True(cerr.As(err, &timeout))
	s.Equal("slow", timeout.Provider)
	s.Equal(20*time.Millisecond, timeout.Timeout)
}

func TestPolicySuite(t *testing.T) {
	suite.Run(t, new(PolicySuite))
}

func TestGuardedOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	failing := GeneratorFunc(func(ctx context.Context, _, _ string, _ Options) (commit.StructuredResult, error) {
		calls.Add(1)
		return commit.StructuredResult{}, errors.New("backend down")
	})

	g := NewGuarded("test-provider", failing, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := g.Generate(ctx, "s", "u", Options{})
		require.Error(t, err)
	}

	_, err := g.Generate(ctx, "s", "u", Options{})
	require.Error(t, err)
	assert.True(t, cerr.Is(err, gobreaker.ErrOpenState))

	var provider *ProviderError
	assert.True(t, cerr.As(err, &provider))
	assert.Equal(t, int32(2), calls.Load())
}

func TestGuardedPassesResults(t *testing.T) {
	ok := GeneratorFunc(func(ctx context.Context, _, _ string, _ Options) (commit.StructuredResult, error) {
		return commit.StructuredResult{Type: commit.Docs, Subject: "update guide"}, nil
	})

	res, err := NewGuarded("p", ok, 2, time.Minute).Generate(context.Background(), "s", "u", Options{})
	require.NoError(t, err)
	assert.Equal(t, commit.Docs, res.Type)
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommandGenerator(t *testing.T) {
	requireShell(t)
	ctx := context.Background()
	opts := Options{Model: "m1", Temperature: 0.3, Reasoning: ReasoningLow}

	t.Run("reads request and parses reply", func(t *testing.T) {
		script := `grep -q '"model":"m1"' && [ "$CMTGEN_MODEL" = m1 ] && echo '{"type":"feat","subject":"add thing","scope":"core"}'`
		g := NewCommandGenerator("script", []string{"sh", "-c", script})

		res, err := g.Generate(ctx, "system", "user", opts)
		require.NoError(t, err)
		assert.Equal(t, commit.StructuredResult{Type: commit.Feat, Subject: "add thing", Scope: "core"}, res)
	})

	t.Run("plain text reply", func(t *testing.T) {
		g := NewCommandGenerator("script", []string{"sh", "-c", `cat >/dev/null; printf 'fix(api): handle nil body\n'`})

		res, err := g.Generate(ctx, "system", "user", opts)
		require.NoError(t, err)
		assert.Equal(t, commit.Fix, res.Type)
		assert.Equal(t, "api", res.Scope)
	})

	t.Run("failure carries stderr", func(t *testing.T) {
		g := NewCommandGenerator("script", []string{"sh", "-c", `cat >/dev/null; echo "quota exceeded" >&2; exit 3`})

		_, err := g.Generate(ctx, "system", "user", opts)
		var provider *ProviderError
		require.True(t, cerr.As(err, &provider))
		assert.Equal(t, "quota exceeded", provider.Message)
	})

	t.Run("unusable reply", func(t *testing.T) {
		g := NewCommandGenerator("script", []string{"sh", "-c", `cat >/dev/null; echo "I am not sure"`})

		_, err := g.Generate(ctx, "system", "user", opts)
		var validation *commit.ValidationError
		assert.True(t, cerr.As(err, &validation))
	})

	t.Run("missing command", func(t *testing.T) {
		_, err := NewCommandGenerator("none", nil).Generate(ctx, "s", "u", opts)
		var provider *ProviderError
		require.True(t, cerr.As(err, &provider))
		assert.NotEmpty(t, cerr.GetAllHints(err))
	})

	t.Run("deadline through policy", func(t *testing.T) {
		g := NewCommandGenerator("sleepy", []string{"sh", "-c", "sleep 5"})

		_, err := Call(ctx, g, "s", "u", opts, Policy{Provider: "sleepy", Timeout: 100 * time.Millisecond})
		var timeout *ProviderTimeoutError
		assert.True(t, cerr.As(err, &timeout))
	})
}
