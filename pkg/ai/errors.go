package ai

import (
	"fmt"
	"strings"
	"time"
)

// ProviderError is any failure reported by the model backend
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s provider error", e.Provider)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ProviderTimeoutError is returned when the model call outlives its deadline
type ProviderTimeoutError struct {
	Provider string
	Timeout  time.Duration
}

func (e *ProviderTimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("%s provider timed out after %s", e.Provider, e.Timeout)
	}
	return fmt.Sprintf("%s provider timed out", e.Provider)
}

// InvalidModelError names a model outside the provider's known set
type InvalidModelError struct {
	Provider  string
	Model     string
	Available []string
}

func (e *InvalidModelError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid model %q for provider %s. Available models:", e.Model, e.Provider)
	for _, m := range e.Available {
		fmt.Fprintf(&b, "\n  - %s", m)
	}
	return b.String()
}
