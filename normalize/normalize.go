package normalize

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/convoke-ai/convoke/messages"
)

const (
	// maxInlineChars bounds decoded text-like payloads inlined into the
	// conversation.
	maxInlineChars = 8192
	// maxPreviewChars bounds the base64 preview kept for document-type
	// payloads.
	maxPreviewChars = 512

	truncationMarker = "… [truncated]"
)

var dataURLPattern = regexp.MustCompile(`data:([a-zA-Z0-9][a-zA-Z0-9.+_/-]*);base64,([A-Za-z0-9+/_-]{4,}={0,2})`)

// Conversation returns a cleaned copy of msgs: messages with blank
// string content or zero parts are dropped, and embedded base64 data in
// text is rewritten per Text.
func Conversation(msgs []messages.Message) []messages.Message {
	out := make([]messages.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Empty() {
			continue
		}
		if m.Content.Content != "" {
			m.Content.Content = Text(m.Content.Content)
		}
		if len(m.Content.Parts) > 0 {
			parts := make([]messages.ContentPart, 0, len(m.Content.Parts))
			for _, part := range m.Content.Parts {
				if tp, ok := part.(messages.TextContentPart); ok {
					tp.Text = Text(tp.Text)
					parts = append(parts, tp)
					continue
				}
				parts = append(parts, part)
			}
			m.Content.Parts = parts
		}
		out = append(out, m)
	}
	return out
}

// Text rewrites every inline base64 data URL in text. Text-like
// payloads are decoded and inlined up to a bound; known document types
// keep a bounded base64 preview; everything else, including payloads
// that fail to decode, becomes an opaque placeholder.
func Text(text string) string {
	return dataURLPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := dataURLPattern.FindStringSubmatch(match)
		mime := strings.ToLower(groups[1])
		payload := groups[2]

		switch {
		case textLike(mime):
			decoded, err := base64.StdEncoding.DecodeString(payload)
			if err != nil {
				decoded, err = base64.RawStdEncoding.DecodeString(payload)
			}
			if err != nil {
				return placeholder(mime)
			}
			inline := string(decoded)
			if len(inline) > maxInlineChars {
				inline = inline[:maxInlineChars] + truncationMarker
			}
			return fmt.Sprintf("[embedded %s]\n%s", mime, inline)
		case documentLike(mime):
			preview := payload
			if len(preview) > maxPreviewChars {
				preview = preview[:maxPreviewChars] + truncationMarker
			}
			return fmt.Sprintf("[embedded document (%s), base64 preview]\n%s", mime, preview)
		default:
			return placeholder(mime)
		}
	})
}

func placeholder(mime string) string {
	return fmt.Sprintf("[embedded file: %s]", mime)
}

func textLike(mime string) bool {
	if strings.HasPrefix(mime, "text/") {
		return true
	}
	switch mime {
	case "application/json", "application/xml", "application/csv",
		"application/x-yaml", "application/yaml", "application/markdown":
		return true
	}
	return strings.HasSuffix(mime, "+json") || strings.HasSuffix(mime, "+xml")
}

func documentLike(mime string) bool {
	switch mime {
	case "application/pdf",
		"application/msword",
		"application/vnd.ms-excel",
		"application/vnd.ms-powerpoint":
		return true
	}
	return strings.HasPrefix(mime, "application/vnd.openxmlformats-officedocument.") ||
		strings.HasPrefix(mime, "application/vnd.oasis.opendocument.")
}
