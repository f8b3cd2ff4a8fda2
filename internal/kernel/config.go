// Package kernel owns the active reasoning kernel: a configured model plus
// decoding profile, rebuilt only when the behavior-affecting configuration
// drifts.
package kernel

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Config is the kernel configuration. Only fields that affect model
// behavior participate in the drift hash; adding unrelated process
// settings here would cause spurious rebuilds.
type Config struct {
	// Model is the active model identifier.
	Model string `json:"model"`
	// Temperature is the sampling temperature.
	Temperature float64 `json:"temperature"`
	// TopP is the nucleus sampling parameter.
	TopP float64 `json:"top_p"`
	// MaxTokens caps generation length.
	MaxTokens int `json:"max_tokens"`
}

// Hash returns the content hash of the behavior-affecting fields. Two
// configs with equal hashes are interchangeable for generation purposes.
func (c Config) Hash() string {
	h := sha256.New()
	fmt.Fprintf(h, "model=%s;temperature=%g;top_p=%g;max_tokens=%d", c.Model, c.Temperature, c.TopP, c.MaxTokens)
	return hex.EncodeToString(h.Sum(nil))
}

// ConfigSource supplies the current kernel configuration. The concrete
// source is external: a config file, an operator API, or a test stub.
type ConfigSource interface {
	// Current returns the configuration as of now.
	Current() (Config, error)
}

// ConfigSourceFunc adapts a function to the ConfigSource interface.
type ConfigSourceFunc func() (Config, error)

// Current implements ConfigSource.
func (f ConfigSourceFunc) Current() (Config, error) { return f() }
