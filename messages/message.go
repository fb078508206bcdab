package messages

import "strings"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a conversation.
type Message struct {
	Role    Role           `json:"role"`
	Content ContentOrParts `json:"content"`
	_       struct{}       // require keyed usage
}

// System returns a system message with plain string content.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: ContentOrParts{Content: content}}
}

// User returns a user message with plain string content.
func User(content string) Message {
	return Message{Role: RoleUser, Content: ContentOrParts{Content: content}}
}

// Assistant returns an assistant message with plain string content.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: ContentOrParts{Content: content}}
}

// Empty reports whether the message carries no usable content: blank
// string content and no parts.
func (m Message) Empty() bool {
	return strings.TrimSpace(m.Content.Content) == "" && len(m.Content.Parts) == 0
}

// Text returns the textual content of the message. Multi-part content
// is flattened: text parts are concatenated and every image part is
// replaced by an "[image attached]" marker.
func (m Message) Text() string {
	if m.Content.Content != "" || len(m.Content.Parts) == 0 {
		return m.Content.Content
	}
	var sb strings.Builder
	for _, part := range m.Content.Parts {
		switch p := part.(type) {
		case TextContentPart:
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(p.Text)
		case ImageContentPart:
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString("[image attached]")
		}
	}
	return sb.String()
}

// HasImages reports whether any content part is an image reference.
func (m Message) HasImages() bool {
	for _, part := range m.Content.Parts {
		if _, ok := part.(ImageContentPart); ok {
			return true
		}
	}
	return false
}
