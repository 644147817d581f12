package prompt

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderIntentClassifier(t *testing.T) {
	r := NewRegistry()
	msgs, err := r.Render(context.Background(), PromptIntentClassifierV1, map[string]any{
		"request": `Request: build a {fancy} site`,
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, `{"intent":"..."`)
	assert.Equal(t, "Request: build a {fancy} site", msgs[1].Content)
}

func TestTemplateCached(t *testing.T) {
	r := NewRegistry()
	a, err := r.ChatTemplate(PromptChatReplyV1)
	require.NoError(t, err)
	b, err := r.ChatTemplate(PromptChatReplyV1)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestUnknownPrompt(t *testing.T) {
	_, err := NewRegistry().ChatTemplate("missing_v1")
	assert.Error(t, err)
}
