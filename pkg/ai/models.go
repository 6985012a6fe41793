package ai

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

// Catalog is the known model set of one provider
type Catalog struct {
	Provider string
	Default  string
	Models   []string
}

// Resolve returns the model to use. An empty request selects the default.
// With an empty known set any model is accepted.
func (c Catalog) Resolve(requested string) (string, error) {
	model := strings.TrimSpace(requested)
	if model == "" {
		model = c.Default
	}
	if len(c.Models) == 0 || slices.Contains(c.Models, model) {
		return model, nil
	}

	return "", errors.WithHint(
		errors.WithStack(&InvalidModelError{Provider: c.Provider, Model: model, Available: c.Models}),
		"pick one of the listed models or add it to ai.models in your configuration",
	)
}
