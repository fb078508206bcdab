package provider

import (
	"errors"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_JSONRoundTrip(t *testing.T) {
	in := Chunk{
		RequestID: uuid.New(),
		Content:   "hello ",
		Timestamp: strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond)),
	}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"chunk"`)

	var out Chunk
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in.RequestID, out.RequestID)
	assert.Equal(t, in.Content, out.Content)
}

func TestChunk_UnmarshalRejectsWrongType(t *testing.T) {
	var c Chunk
	err := json.Unmarshal([]byte(`{"type":"done","request_id":"x","content":"y"}`), &c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 'chunk'")
}

func TestDone_JSONRoundTrip(t *testing.T) {
	in := Done{RequestID: uuid.New(), Model: "fast"}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"done"`)

	var out Done
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in.RequestID, out.RequestID)
	assert.Equal(t, "fast", out.Model)
}

func TestError_JSONRoundTrip(t *testing.T) {
	in := Error{RequestID: uuid.New(), Err: errors.New("quota exceeded")}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"error"`)

	var out Error
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Error(t, out.Err)
	assert.Equal(t, "quota exceeded", out.Err.Error())
}

func TestError_UnmarshalRequiresError(t *testing.T) {
	var e Error
	err := json.Unmarshal([]byte(`{"type":"error","request_id":"`+uuid.NewString()+`"}`), &e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required field 'error'")
}
