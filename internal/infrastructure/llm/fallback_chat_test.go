package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	reply string
	err   error
	calls int
}

func (m *fakeModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

type fakeProvider map[string]*fakeModel

func (p fakeProvider) Get(_ context.Context, name string) (model.BaseChatModel, error) {
	m, ok := p[name]
	if !ok {
		return nil, errors.New("unknown provider " + name)
	}
	return m, nil
}

func TestFallbackChatUsesPrimary(t *testing.T) {
	primary := &fakeModel{reply: "hello"}
	secondary := &fakeModel{reply: "fallback"}
	chat := NewFallbackChat(fakeProvider{"a": primary, "b": secondary}, []string{"a", "b"})

	out, err := chat.Reply(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, 0, secondary.calls)
}

func TestFallbackChatFallsBackOnce(t *testing.T) {
	primary := &fakeModel{err: errors.New("status 503")}
	secondary := &fakeModel{reply: "from secondary"}
	third := &fakeModel{reply: "never"}
	chat := NewFallbackChat(fakeProvider{"a": primary, "b": secondary, "c": third}, []string{"a", "b", "c"})

	out, err := chat.Reply(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "from secondary", out)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, third.calls)
}

func TestFallbackChatBothFail(t *testing.T) {
	chat := NewFallbackChat(fakeProvider{
		"a": {err: errors.New("boom")},
		"b": {reply: "   "},
	}, []string{"a", "b"})

	_, err := chat.Reply(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a: boom")
	assert.Contains(t, err.Error(), "b: empty response")
}

func TestFallbackChatStopsOnCancel(t *testing.T) {
	secondary := &fakeModel{reply: "x"}
	chat := NewFallbackChat(fakeProvider{"a": {err: context.Canceled}, "b": secondary}, []string{"a", "b"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := chat.Reply(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, secondary.calls)
}
