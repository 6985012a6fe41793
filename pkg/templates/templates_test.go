package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnstilia/cmtgen/pkg/commit"
)

func TestRenderBuiltins(t *testing.T) {
	m, err := NewManager("")
	require.NoError(t, err)

	full := commit.StructuredResult{
		Type:     commit.Feat,
		Scope:    "auth",
		Subject:  "add token refresh",
		Details:  "- refresh tokens before expiry",
		Issues:   "#42",
		Breaking: "drop v1 tokens",
	}
	bare := commit.StructuredResult{Type: commit.Fix, Subject: "handle nil body"}

	tests := []struct {
		template string
		in       commit.StructuredResult
		want     string
	}{
		{"conventional", full, "feat(auth): add token refresh\n\n- refresh tokens before expiry"},
		{"conventional", bare, "fix: handle nil body"},
		{"simple", full, "add token refresh\n\n- refresh tokens before expiry"},
		{"simple", bare, "handle nil body"},
		{"detailed", full, "feat(auth): add token refresh\n\n- refresh tokens before expiry\n\nFixes: #42\n\nBREAKING CHANGE: drop v1 tokens"},
		{"detailed", bare, "fix: handle nil body"},
	}

	for _, tt := range tests {
		t.Run(tt.template+"/"+tt.in.Subject, func(t *testing.T) {
			got, err := m.Render(tt.template, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnknownTemplate(t *testing.T) {
	m, err := NewManager("")
	require.NoError(t, err)

	_, err = m.Render("fancy", commit.StructuredResult{})
	assert.ErrorContains(t, err, `template "fancy" not found`)
}

func TestCustomTemplates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ticket.tmpl"), []byte("[{{.Issues}}] {{.Subject}}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	m, err := NewManager(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"conventional", "detailed", "simple", "ticket"}, m.Names())

	got, err := m.Render("ticket", commit.StructuredResult{Subject: "fix login", Issues: "ABC-1"})
	require.NoError(t, err)
	assert.Equal(t, "[ABC-1] fix login", got)

	require.NoError(t, m.Save("short", "{{.Type}}: {{.Subject}}"))
	_, err = os.Stat(filepath.Join(dir, "short.tmpl"))
	require.NoError(t, err)

	reloaded, err := NewManager(dir)
	require.NoError(t, err)
	src, err := reloaded.Source("short")
	require.NoError(t, err)
	assert.Equal(t, "{{.Type}}: {{.Subject}}", src)
}

func TestSaveRejects(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, m.Save("conventional", "{{.Subject}}"))
	assert.Error(t, m.Save("../escape", "{{.Subject}}"))
	assert.Error(t, m.Save("broken", "{{.Subject"))
}

func TestMissingDirectoryIsFine(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Len(t, m.Names(), 3)
}
