package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"

	"github.com/johnstilia/cmtgen/pkg/filter"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their configuration key
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field and reports all problems at once
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				result = multierror.Append(result, fieldError(fe))
			}
		} else {
			result = multierror.Append(result, err)
		}
	}

	if _, err := filter.New(c.Diff.Exclude...); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "diff.exclude"))
	}

	if err := result.ErrorOrNil(); err != nil {
		return errors.WithHint(errors.Wrap(err, "invalid configuration"),
			"fix the listed keys in your configuration file or environment")
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	// Namespace is "Config.diff.context_lines"
	_, key, _ := strings.Cut(fe.Namespace(), ".")
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += " " + fe.Param()
	}
	return errors.Newf("%s: value %v violates %q", key, fe.Value(), rule)
}

// Timeout is the per-attempt deadline for the model call
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}
