package augment

import (
	"regexp"
	"strings"

	"github.com/convoke-ai/convoke/messages"
)

const (
	maxQueryChars = 400

	// followUpMaxChars is the length under which a user turn is
	// suspected to be a follow-up needing prior-topic context.
	followUpMaxChars = 60
	// priorContextChars bounds how much of the previous user turn is
	// prepended to a follow-up query.
	priorContextChars = 120
)

// embeddedDataPattern matches the markers the normalizer leaves behind
// for inlined payloads; they carry no search signal.
var embeddedDataPattern = regexp.MustCompile(`\[embedded [^\]]*\]`)

var followUpOpeners = []string{
	"what", "why", "how", "when", "where", "who", "which",
	"and", "but", "also", "so", "then", "ok", "okay", "what about", "how about",
}

// ExtractQuery derives the search query from the most recent user
// message. Embedded-data markers are stripped and the query is bounded.
// A short turn opening with an interrogative or continuation word is
// treated as a follow-up and prefixed with bounded context from the
// prior user message.
func ExtractQuery(msgs []messages.Message) string {
	var latest, prior string
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != messages.RoleUser {
			continue
		}
		if latest == "" {
			latest = msgs[i].Text()
			continue
		}
		prior = msgs[i].Text()
		break
	}

	query := strings.TrimSpace(embeddedDataPattern.ReplaceAllString(latest, " "))
	query = strings.Join(strings.Fields(query), " ")

	if isFollowUp(query) && prior != "" {
		context := strings.TrimSpace(embeddedDataPattern.ReplaceAllString(prior, " "))
		context = strings.Join(strings.Fields(context), " ")
		if len(context) > priorContextChars {
			context = context[:priorContextChars]
		}
		query = context + " " + query
	}

	if len(query) > maxQueryChars {
		query = query[:maxQueryChars]
	}
	return query
}

func isFollowUp(query string) bool {
	if len(query) >= followUpMaxChars {
		return false
	}
	lower := strings.ToLower(query)
	for _, opener := range followUpOpeners {
		if lower == opener || strings.HasPrefix(lower, opener+" ") {
			return true
		}
	}
	return false
}

// unresolvedPronounPattern flags queries whose subject lives in an
// earlier turn; such queries benefit from model refinement.
var unresolvedPronounPattern = regexp.MustCompile(`(?i)\b(it|they|them|he|she|his|her|their|this|that|these|those)\b`)

// HasUnresolvedPronoun reports whether the query references something
// by pronoun only.
func HasUnresolvedPronoun(query string) bool {
	return unresolvedPronounPattern.MatchString(query)
}
