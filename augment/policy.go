package augment

import (
	"strings"

	"github.com/convoke-ai/convoke/messages"
)

// policyMarker identifies the search-policy system message. Injection
// keys off this substring, which is what makes it idempotent.
const policyMarker = "[web-search policy]"

// policyText is the standing instruction that teaches the model how to
// treat injected search results.
const policyText = policyMarker + ` When search results are provided in a system message, ` +
	`ground your answer in them, cite sources by their bracketed number, and say so when ` +
	`the results do not cover the question. When no results are provided, answer from ` +
	`your own knowledge and do not fabricate citations.`

// InjectPolicy returns msgs with exactly one search-policy system
// message, inserted immediately after any leading system messages.
// A list that already carries the marker is returned unchanged, so the
// operation is idempotent.
func InjectPolicy(msgs []messages.Message) []messages.Message {
	for _, m := range msgs {
		if m.Role == messages.RoleSystem && strings.Contains(m.Text(), policyMarker) {
			return msgs
		}
	}

	insertAt := 0
	for insertAt < len(msgs) && msgs[insertAt].Role == messages.RoleSystem {
		insertAt++
	}

	out := make([]messages.Message, 0, len(msgs)+1)
	out = append(out, msgs[:insertAt]...)
	out = append(out, messages.System(policyText))
	out = append(out, msgs[insertAt:]...)
	return out
}
