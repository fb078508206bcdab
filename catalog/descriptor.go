package catalog

import (
	"errors"
	"fmt"
)

// ProviderTag identifies one of the six supported upstream services.
type ProviderTag string

const (
	ProviderOpenAI     ProviderTag = "openai"
	ProviderGemini     ProviderTag = "gemini"
	ProviderAnthropic  ProviderTag = "anthropic"
	ProviderGroq       ProviderTag = "groq"
	ProviderMistral    ProviderTag = "mistral"
	ProviderOpenRouter ProviderTag = "openrouter"
)

// Tags returns the closed set of supported provider tags.
func Tags() []ProviderTag {
	return []ProviderTag{
		ProviderOpenAI,
		ProviderGemini,
		ProviderAnthropic,
		ProviderGroq,
		ProviderMistral,
		ProviderOpenRouter,
	}
}

// Known reports whether tag is one of the supported providers.
func (t ProviderTag) Known() bool {
	switch t {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic,
		ProviderGroq, ProviderMistral, ProviderOpenRouter:
		return true
	}
	return false
}

func (t ProviderTag) String() string { return string(t) }

// ModelDescriptor is the resolved routing record for one caller-facing
// model key. It is resolved once per request and re-resolved only when
// a fallback key must itself be resolved.
type ModelDescriptor struct {
	Key                string
	Provider           ProviderTag
	UpstreamID         string
	Premium            bool
	DailyCap           int64
	Fallback           string
	DefaultTemperature float64
	DefaultMaxTokens   int64
	_                  struct{}
}

// Validate reports every structural problem with the descriptor.
// Descriptors come from external configuration, so a missing upstream
// id or cap means the backing record is incomplete, not defaultable.
func (d ModelDescriptor) Validate() error {
	var err error
	if d.Key == "" {
		err = errors.Join(err, errors.New("model key is required"))
	}
	if !d.Provider.Known() {
		err = errors.Join(err, fmt.Errorf("unknown provider tag %q", d.Provider))
	}
	if d.UpstreamID == "" {
		err = errors.Join(err, fmt.Errorf("model %q has no upstream model id", d.Key))
	}
	if d.DailyCap <= 0 {
		err = errors.Join(err, fmt.Errorf("model %q has no daily cap", d.Key))
	}
	return err
}
