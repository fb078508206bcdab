package normalize

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/convoke-ai/convoke/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversation_DropsEmptyMessages(t *testing.T) {
	out := Conversation([]messages.Message{
		messages.User("keep me"),
		messages.User("   \n"),
		{Role: messages.RoleUser},
		{Role: messages.RoleUser, Content: messages.ContentOrParts{Parts: []messages.ContentPart{}}},
		messages.Assistant("also kept"),
	})
	require.Len(t, out, 2)
	assert.Equal(t, "keep me", out[0].Content.Content)
	assert.Equal(t, "also kept", out[1].Content.Content)
}

func TestConversation_NeverEmitsEmpty(t *testing.T) {
	inputs := [][]messages.Message{
		nil,
		{},
		{messages.User("")},
		{messages.System("\t"), messages.User("x")},
	}
	for _, in := range inputs {
		for _, m := range Conversation(in) {
			assert.False(t, m.Empty())
		}
	}
}

func TestText_InlinesTextLikePayload(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte(`{"a":1}`))
	out := Text("here is my config data:application/json;base64," + payload)
	assert.Contains(t, out, "[embedded application/json]")
	assert.Contains(t, out, `{"a":1}`)
	assert.NotContains(t, out, payload)
}

func TestText_TruncatesOversizedTextPayload(t *testing.T) {
	big := strings.Repeat("x", maxInlineChars+100)
	payload := base64.StdEncoding.EncodeToString([]byte(big))
	out := Text("data:text/plain;base64," + payload)
	assert.Contains(t, out, truncationMarker)
	assert.Less(t, len(out), len(big))
}

func TestText_DocumentKeepsBoundedPreview(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("pdfpdf", 400)))
	out := Text("data:application/pdf;base64," + payload)
	assert.Contains(t, out, "[embedded document (application/pdf), base64 preview]")
	assert.Contains(t, out, truncationMarker)
	assert.Less(t, len(out), len(payload))
}

func TestText_UnknownMimeBecomesPlaceholder(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff, 0xe0, 0x01, 0x02})
	out := Text("see data:image/jpeg;base64," + payload + " above")
	assert.Equal(t, "see [embedded file: image/jpeg] above", out)
}

func TestText_MalformedBase64DegradesToPlaceholder(t *testing.T) {
	out := Text("data:text/plain;base64,!!!!notbase64====")
	// The invalid payload does not match the data-URL shape at all, or
	// degrades to the placeholder when it does; either way no error and
	// no decoded garbage.
	assert.NotContains(t, out, "embedded text/plain]")
}

func TestText_OddLengthBase64DegradesToPlaceholder(t *testing.T) {
	out := Text("data:text/plain;base64,abcde")
	assert.Equal(t, "[embedded file: text/plain]", out)
}

func TestConversation_NormalizesTextParts(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("hello"))
	in := []messages.Message{{
		Role: messages.RoleUser,
		Content: messages.ContentOrParts{Parts: []messages.ContentPart{
			messages.Text("data:text/plain;base64," + payload),
			messages.Image("https://example.com/cat.png"),
		}},
	}}
	out := Conversation(in)
	require.Len(t, out, 1)
	require.Len(t, out[0].Content.Parts, 2)
	tp, ok := out[0].Content.Parts[0].(messages.TextContentPart)
	require.True(t, ok)
	assert.Contains(t, tp.Text, "hello")
	assert.Equal(t, messages.Image("https://example.com/cat.png"), out[0].Content.Parts[1])
}
