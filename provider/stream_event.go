package provider

import (
	"errors"
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	chunkJSON = []byte(`{"type":"chunk"}`)
	doneJSON  = []byte(`{"type":"done"}`)
	errorJSON = []byte(`{"type":"error"}`)
)

// StreamEvent is one unit of a request's fragment stream: assistant
// text in arrival order, a terminal completion marker, or a failure.
type StreamEvent interface {
	streamEvent()
}

// Chunk carries one fragment of assistant text.
type Chunk struct {
	RequestID uuid.UUID       `json:"request_id"`
	Content   string          `json:"content"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Chunk) streamEvent() {}

// Done marks the successful end of the stream. Model records which
// model key actually served the request, which differs from the
// requested key after a fallback.
type Done struct {
	RequestID uuid.UUID       `json:"request_id"`
	Model     string          `json:"model,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Done) streamEvent() {}

// Error terminates the stream with a failure. The delivery collaborator
// is expected to sanitize Err before showing it to an end user; see
// SanitizeError.
type Error struct {
	RequestID uuid.UUID       `json:"request_id"`
	Err       error           `json:"error"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Error) streamEvent() {}

func (e Error) Error() string {
	return fmt.Sprintf("request_id: %s, timestamp: %s, error: %v", e.RequestID, e.Timestamp, e.Err)
}

// MarshalJSON implements custom JSON marshaling for Chunk.
func (c Chunk) MarshalJSON() ([]byte, error) {
	result := chunkJSON

	var err error
	result, err = sjson.SetBytes(result, "request_id", c.RequestID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "content", c.Content)
	if err != nil {
		return nil, err
	}

	if !c.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", c.Timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// UnmarshalJSON implements custom JSON unmarshaling for Chunk.
func (c *Chunk) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "chunk" {
		return fmt.Errorf("missing or invalid type, expected 'chunk'")
	}

	requestID := gjson.GetBytes(data, "request_id")
	if !requestID.Exists() {
		return fmt.Errorf("missing required field 'request_id'")
	}
	if err := c.RequestID.UnmarshalText([]byte(requestID.String())); err != nil {
		return fmt.Errorf("invalid request_id: %w", err)
	}

	content := gjson.GetBytes(data, "content")
	if !content.Exists() {
		return fmt.Errorf("missing required field 'content'")
	}
	c.Content = content.String()

	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := c.Timestamp.UnmarshalText([]byte(timestamp.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	return nil
}

// MarshalJSON implements custom JSON marshaling for Done.
func (d Done) MarshalJSON() ([]byte, error) {
	result := doneJSON

	var err error
	result, err = sjson.SetBytes(result, "request_id", d.RequestID.String())
	if err != nil {
		return nil, err
	}

	if d.Model != "" {
		result, err = sjson.SetBytes(result, "model", d.Model)
		if err != nil {
			return nil, err
		}
	}

	if !d.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", d.Timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// UnmarshalJSON implements custom JSON unmarshaling for Done.
func (d *Done) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "done" {
		return fmt.Errorf("missing or invalid type, expected 'done'")
	}

	requestID := gjson.GetBytes(data, "request_id")
	if !requestID.Exists() {
		return fmt.Errorf("missing required field 'request_id'")
	}
	if err := d.RequestID.UnmarshalText([]byte(requestID.String())); err != nil {
		return fmt.Errorf("invalid request_id: %w", err)
	}

	d.Model = gjson.GetBytes(data, "model").String()

	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := d.Timestamp.UnmarshalText([]byte(timestamp.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	return nil
}

// MarshalJSON implements custom JSON marshaling for Error.
func (e Error) MarshalJSON() ([]byte, error) {
	result := errorJSON

	var err error
	result, err = sjson.SetBytes(result, "request_id", e.RequestID.String())
	if err != nil {
		return nil, err
	}

	if e.Err != nil {
		result, err = sjson.SetBytes(result, "error", e.Err.Error())
		if err != nil {
			return nil, err
		}
	}

	if !e.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", e.Timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// UnmarshalJSON implements custom JSON unmarshaling for Error.
func (e *Error) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "error" {
		return fmt.Errorf("missing or invalid type, expected 'error'")
	}

	requestID := gjson.GetBytes(data, "request_id")
	if !requestID.Exists() {
		return fmt.Errorf("missing required field 'request_id'")
	}
	if err := e.RequestID.UnmarshalText([]byte(requestID.String())); err != nil {
		return fmt.Errorf("invalid request_id: %w", err)
	}

	errMsg := gjson.GetBytes(data, "error")
	if !errMsg.Exists() {
		return errors.New("missing required field 'error'")
	}
	e.Err = errors.New(errMsg.String())

	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := e.Timestamp.UnmarshalText([]byte(timestamp.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	return nil
}
