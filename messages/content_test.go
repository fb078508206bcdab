package messages

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentOrParts_MarshalString(t *testing.T) {
	c := ContentOrParts{Content: "hello"}
	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `"hello"`, string(b))
}

func TestContentOrParts_MarshalParts(t *testing.T) {
	c := ContentOrParts{Parts: []ContentPart{
		Text("look at this"),
		Image("https://example.com/cat.png"),
	}}
	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"text","text":"look at this"},{"type":"image","url":"https://example.com/cat.png"}]`, string(b))
}

func TestContentOrParts_MarshalEmpty(t *testing.T) {
	b, err := json.Marshal(ContentOrParts{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestContentOrParts_UnmarshalString(t *testing.T) {
	var c ContentOrParts
	require.NoError(t, json.Unmarshal([]byte(`"hi there"`), &c))
	assert.Equal(t, "hi there", c.Content)
	assert.Empty(t, c.Parts)
}

func TestContentOrParts_UnmarshalParts(t *testing.T) {
	var c ContentOrParts
	input := `[{"type":"text","text":"a"},{"type":"image","url":"https://example.com/x.png"}]`
	require.NoError(t, json.Unmarshal([]byte(input), &c))
	require.Len(t, c.Parts, 2)
	assert.Equal(t, Text("a"), c.Parts[0])
	assert.Equal(t, Image("https://example.com/x.png"), c.Parts[1])
}

func TestContentOrParts_UnmarshalUnknownPart(t *testing.T) {
	var c ContentOrParts
	err := json.Unmarshal([]byte(`[{"type":"audio","data":"zzz"}]`), &c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}

func TestMessage_Empty(t *testing.T) {
	assert.True(t, Message{Role: RoleUser}.Empty())
	assert.True(t, User("   \n\t").Empty())
	assert.False(t, User("hi").Empty())
	assert.False(t, Message{
		Role:    RoleUser,
		Content: ContentOrParts{Parts: []ContentPart{Image("https://example.com/a.png")}},
	}.Empty())
}

func TestMessage_Text_FlattensParts(t *testing.T) {
	m := Message{
		Role: RoleUser,
		Content: ContentOrParts{Parts: []ContentPart{
			Text("what is in this picture?"),
			Image("https://example.com/a.png"),
		}},
	}
	assert.Equal(t, "what is in this picture?\n[image attached]", m.Text())
	assert.True(t, m.HasImages())
}

func TestMessage_Text_PlainString(t *testing.T) {
	assert.Equal(t, "plain", User("plain").Text())
	assert.False(t, User("plain").HasImages())
}
