package messages

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var jsonNull = []byte(`null`)

// ContentOrParts represents either a simple string content or an ordered
// collection of content parts. It serializes to a JSON string when only
// Content is set, and to a JSON array otherwise.
type ContentOrParts struct {
	Content string        // raw string content, used when the message is just text
	Parts   []ContentPart // ordered parts (text, image)
	_       struct{}      // require keyed usage
}

// MarshalJSON renders Content as a JSON string when non-empty, the Parts
// as a JSON array otherwise, and null when both are empty.
func (c ContentOrParts) MarshalJSON() ([]byte, error) {
	if strings.TrimSpace(c.Content) != "" {
		return json.Marshal(c.Content)
	}
	if c.Parts == nil {
		return jsonNull, nil
	}
	return json.Marshal(c.Parts)
}

// UnmarshalJSON accepts either a JSON string or an array of typed parts.
func (c *ContentOrParts) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	jv := gjson.ParseBytes(input)
	if jv.IsArray() {
		aj := jv.Array()
		parts := make([]ContentPart, len(aj))
		for idx, ajv := range aj {
			tpe := ajv.Get("type").String()
			switch tpe {
			case "text":
				var part TextContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid text part at %d: %w", idx, err)
				}
				parts[idx] = part
			case "image":
				var part ImageContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid image part at %d: %w", idx, err)
				}
				parts[idx] = part
			default:
				return fmt.Errorf("content part at %d has an unknown type %q", idx, tpe)
			}
		}
		c.Parts = parts
		return nil
	}
	c.Content = jv.String()
	return nil
}

// ContentPart is the closed set of multi-part content payloads.
type ContentPart interface {
	contentPart()
}

// TextContentPart carries a run of plain text.
type TextContentPart struct {
	Text string `json:"text"`
	_    struct{}
}

func (TextContentPart) contentPart() {}

// Text returns a text content part.
func Text(text string) TextContentPart {
	return TextContentPart{Text: text}
}

// MarshalJSON emits {"type":"text","text":...}.
func (t TextContentPart) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes([]byte(`{"type":"text"}`), "text", t.Text)
}

// UnmarshalJSON parses a text part, requiring the "text" type tag.
func (t *TextContentPart) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	if tpe := gjson.GetBytes(input, "type"); tpe.String() != "text" {
		return fmt.Errorf("missing or invalid type, expected 'text'")
	}
	t.Text = gjson.GetBytes(input, "text").String()
	return nil
}

// ImageContentPart references an image, either by URL or as an inline
// base64 data URL.
type ImageContentPart struct {
	URL string `json:"url"`
	_   struct{}
}

func (ImageContentPart) contentPart() {}

// Image returns an image content part for the given URL.
func Image(url string) ImageContentPart {
	return ImageContentPart{URL: url}
}

// MarshalJSON emits {"type":"image","url":...}.
func (i ImageContentPart) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes([]byte(`{"type":"image"}`), "url", i.URL)
}

// UnmarshalJSON parses an image part, requiring the "image" type tag.
func (i *ImageContentPart) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	if tpe := gjson.GetBytes(input, "type"); tpe.String() != "image" {
		return fmt.Errorf("missing or invalid type, expected 'image'")
	}
	url := gjson.GetBytes(input, "url")
	if !url.Exists() {
		return fmt.Errorf("missing required field 'url'")
	}
	i.URL = url.String()
	return nil
}
