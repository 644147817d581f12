package callback

import (
	"context"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/stretchr/testify/assert"
)

func TestProviderFromContext(t *testing.T) {
	assert.Equal(t, "default", ProviderFromContext(context.Background()))
	assert.Equal(t, "openai", ProviderFromContext(WithProvider(context.Background(), "openai")))
}

func TestChatModelHandlerLifecycle(t *testing.T) {
	h := newChatModelCallbackHandler()
	ctx := WithProvider(context.Background(), "openai")

	ctx = h.OnStart(ctx, nil, &model.CallbackInput{Config: &model.Config{Model: "gpt-4o-mini"}})
	assert.GreaterOrEqual(t, elapsedSeconds(ctx), 0.0)

	assert.NotPanics(t, func() {
		h.OnEnd(ctx, nil, &model.CallbackOutput{Config: &model.Config{Model: "gpt-4o-mini"}})
	})
}

func TestElapsedSecondsWithoutStart(t *testing.T) {
	assert.Zero(t, elapsedSeconds(context.Background()))

	ctx := context.WithValue(context.Background(), startTimeKey{}, time.Now().Add(-time.Second))
	assert.InDelta(t, 1.0, elapsedSeconds(ctx), 0.5)
}

func TestModelNames(t *testing.T) {
	assert.Empty(t, modelNameFromInput(nil))
	assert.Empty(t, modelNameFromOutput(&model.CallbackOutput{}))
	assert.Equal(t, "m", modelNameFromOutput(&model.CallbackOutput{Config: &model.Config{Model: "m"}}))
}
