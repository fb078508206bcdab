package convoke

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/convoke-ai/convoke/augment"
	"github.com/convoke-ai/convoke/messages"
	"github.com/convoke-ai/convoke/provider"
)

// modelKeyPattern bounds the caller-facing key alphabet. Keys are
// lowercase identifiers with the separators used by model catalogs,
// such as "gpt-5-mini" or "claude-sonnet-4.5".
var modelKeyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._:/-]*$`)

// Request is one chat-completion request. It is owned by the caller for
// the request's duration; the gateway copies the message slice before
// inserting synthetic messages.
type Request struct {
	// ModelKey is the caller-facing model identifier, resolved through
	// the catalog to a provider and upstream model id.
	ModelKey string

	// Messages is the conversation, oldest first.
	Messages []messages.Message

	// Temperature overrides the model's default when non-nil. Must be
	// within [0, 2].
	Temperature *float64

	// MaxTokens bounds the response length when non-nil.
	MaxTokens *int64

	// SearchMode steers search augmentation. Empty means
	// augment.DirectiveAuto.
	SearchMode augment.Directive

	// Prevents unkeyed literals
	_ struct{}
}

// Validate reports every structural problem with the request as one
// *provider.ValidationError, surfaced synchronously before any network
// traffic.
func (r Request) Validate() error {
	var errs error
	if !modelKeyPattern.MatchString(r.ModelKey) {
		errs = errors.Join(errs, fmt.Errorf("malformed model key %q", r.ModelKey))
	}
	if len(r.Messages) == 0 {
		errs = errors.Join(errs, errors.New("messages are required"))
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		errs = errors.Join(errs, fmt.Errorf("temperature %v is outside [0, 2]", *r.Temperature))
	}
	if r.MaxTokens != nil && *r.MaxTokens <= 0 {
		errs = errors.Join(errs, fmt.Errorf("max tokens %d must be positive", *r.MaxTokens))
	}
	switch r.SearchMode {
	case "", augment.DirectiveAuto, augment.DirectiveAlways, augment.DirectiveOff:
	default:
		errs = errors.Join(errs, fmt.Errorf("unknown search mode %q", r.SearchMode))
	}
	if errs != nil {
		return &provider.ValidationError{Reason: errs.Error()}
	}
	return nil
}
