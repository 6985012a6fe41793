// Package templates renders a finalized commit message with text/template.
package templates

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/cockroachdb/errors"

	"github.com/johnstilia/cmtgen/pkg/commit"
)

// Extension marks template files in the template directory
const Extension = ".tmpl"

// DefaultTemplate is used when none is configured
const DefaultTemplate = "conventional"

const conventional = `{{.Type}}{{with .Scope}}({{.}}){{end}}: {{.Subject}}{{with .Details}}

{{.}}{{end}}`

var builtin = map[string]string{
	"conventional": conventional,
	"simple": `{{.Subject}}{{with .Details}}

{{.}}{{end}}`,
	"detailed": conventional + `{{with .Issues}}

Fixes: {{.}}{{end}}{{with .Breaking}}

BREAKING CHANGE: {{.}}{{end}}`,
}

var validName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// Manager holds the built-in templates plus those found in a directory
type Manager struct {
	dir     string
	sources map[string]string
	parsed  map[string]*template.Template
}

// NewManager registers the built-ins and loads every *.tmpl file in dir.
// A missing directory is not an error; dir may be empty.
func NewManager(dir string) (*Manager, error) {
	m := &Manager{
		dir:     dir,
		sources: make(map[string]string),
		parsed:  make(map[string]*template.Template),
	}

	for name, src := range builtin {
		if err := m.register(name, src); err != nil {
			return nil, err
		}
	}

	if dir == "" {
		return m, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, errors.Wrapf(err, "reading template directory %s", dir)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Extension {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "reading template %s", e.Name())
		}
		if err := m.register(strings.TrimSuffix(e.Name(), Extension), string(data)); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Manager) register(name, src string) error {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return errors.Wrapf(err, "parsing template %q", name)
	}
	m.sources[name] = src
	m.parsed[name] = tmpl
	return nil
}

// Names lists the available templates, sorted
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.sources))
	for n := range m.sources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// IsBuiltin reports whether name is shipped with the binary
func IsBuiltin(name string) bool {
	_, ok := builtin[name]
	return ok
}

// Source returns the template text
func (m *Manager) Source(name string) (string, error) {
	src, ok := m.sources[name]
	if !ok {
		return "", m.notFound(name)
	}
	return src, nil
}

// Render executes the named template against r. Trailing whitespace is
// trimmed from the result.
func (m *Manager) Render(name string, r commit.StructuredResult) (string, error) {
	tmpl, ok := m.parsed[name]
	if !ok {
		return "", m.notFound(name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r); err != nil {
		return "", errors.Wrapf(err, "rendering template %q", name)
	}

	return strings.TrimRight(buf.String(), " \t\n"), nil
}

// Save validates src, writes it to the template directory and registers it
func (m *Manager) Save(name, src string) error {
	if !validName.MatchString(name) {
		return errors.Newf("invalid template name %q", name)
	}
	if IsBuiltin(name) {
		return errors.WithHint(errors.Newf("%q is a built-in template", name), "choose another name")
	}
	if m.dir == "" {
		return errors.New("no template directory configured")
	}
	if _, err := template.New(name).Parse(src); err != nil {
		return errors.Wrapf(err, "parsing template %q", name)
	}

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return errors.Wrap(err, "creating template directory")
	}
	if err := os.WriteFile(filepath.Join(m.dir, name+Extension), []byte(src), 0644); err != nil {
		return errors.Wrapf(err, "writing template %q", name)
	}

	return m.register(name, src)
}

func (m *Manager) notFound(name string) error {
	return errors.WithHint(
		errors.Newf("template %q not found", name),
		"available templates: "+strings.Join(m.Names(), ", "),
	)
}
