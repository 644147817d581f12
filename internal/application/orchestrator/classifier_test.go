package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

type fakeChatModel struct {
	content string
	err     error
	input   []*schema.Message
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.input = input
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.content, nil), nil
}

func (m *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func refinement(prompt string) *entity.WorkflowRequest {
	return &entity.WorkflowRequest{
		Prompt:            prompt,
		ExistingSessionID: "chat-1",
		ExistingFiles:     []entity.GeneratedFile{{Path: "app/page.tsx"}},
	}
}

func TestHeuristicClassifier(t *testing.T) {
	tests := []struct {
		name string
		req  *entity.WorkflowRequest
		want entity.WorkIntent
	}{
		{"greeting", &entity.WorkflowRequest{Prompt: "Hi!"}, entity.IntentChatResponse},
		{"question", &entity.WorkflowRequest{Prompt: "How does hosting work?"}, entity.IntentChatResponse},
		{"vague", &entity.WorkflowRequest{Prompt: "something nice"}, entity.IntentClarify},
		{"site", &entity.WorkflowRequest{Prompt: "Build a landing page for my bakery"}, entity.IntentCodeOnly},
		{"image only", &entity.WorkflowRequest{Prompt: "draw a logo with a fox"}, entity.IntentImageOnly},
		{"image and code", &entity.WorkflowRequest{Prompt: "website for a cafe with a photo of coffee"}, entity.IntentImageAndCode},
		{"search only", &entity.WorkflowRequest{Prompt: "search the latest design trends"}, entity.IntentWebSearchOnly},
		{"search and code", &entity.WorkflowRequest{Prompt: "research competitors and build a site"}, entity.IntentWebSearchAndCode},
		{"short refinement", refinement("make the button blue"), entity.IntentSimpleCode},
		{"structural refinement", refinement("redesign the navigation and add a new page for pricing"), entity.IntentNeedsCodeContext},
		{"verb only refinement", refinement("change the title text"), entity.IntentSimpleCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := HeuristicClassifier{}.Classify(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Intent)
			assert.Equal(t, SourceHeuristic, c.Source)
		})
	}
}

func TestHeuristicFillsPrompts(t *testing.T) {
	c, err := HeuristicClassifier{}.Classify(context.Background(), &entity.WorkflowRequest{Prompt: "hmm"})
	require.NoError(t, err)
	assert.Equal(t, entity.IntentClarify, c.Intent)
	assert.NotEmpty(t, c.ClarifyQuestion)

	c, err = HeuristicClassifier{}.Classify(context.Background(), &entity.WorkflowRequest{Prompt: "website with a photo gallery"})
	require.NoError(t, err)
	assert.Equal(t, "website with a photo gallery", c.ImagePrompt)
	assert.Equal(t, "website with a photo gallery", c.CodePrompt)
}

func TestLLMClassifierParsesModelOutput(t *testing.T) {
	m := &fakeChatModel{content: "Here you go:\n```json\n" +
		`{"intent":"web_search_and_code","reasoning":"needs facts","searchQuery":"vegan bakeries stockholm"}` +
		"\n```"}
	c, err := NewLLMClassifier(m, nil).Classify(context.Background(), &entity.WorkflowRequest{Prompt: "site for my vegan bakery"})

	require.NoError(t, err)
	assert.Equal(t, entity.IntentWebSearchAndCode, c.Intent)
	assert.Equal(t, SourceLLM, c.Source)
	assert.Equal(t, "vegan bakeries stockholm", c.SearchQuery)
	assert.Equal(t, "site for my vegan bakery", c.CodePrompt)
	require.Len(t, m.input, 2)
	assert.Contains(t, m.input[1].Content, "no existing site")
}

func TestLLMClassifierAppliesRefinementBias(t *testing.T) {
	m := &fakeChatModel{content: `{"intent":"code_only"}`}
	c, err := NewLLMClassifier(m, nil).Classify(context.Background(), refinement("make the header sticky"))

	require.NoError(t, err)
	assert.Equal(t, entity.IntentSimpleCode, c.Intent)
	assert.Contains(t, m.input[1].Content, "app/page.tsx")
}

func TestLLMClassifierFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeChatModel
	}{
		{"model error", &fakeChatModel{err: errors.New("status 500")}},
		{"unknown intent", &fakeChatModel{content: `{"intent":"deploy_site"}`}},
		{"no json", &fakeChatModel{content: "I think the user wants code."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewLLMClassifier(tt.model, nil).Classify(context.Background(), &entity.WorkflowRequest{Prompt: "Build a landing page"})
			require.NoError(t, err)
			assert.Equal(t, SourceHeuristic, c.Source)
			assert.Equal(t, entity.IntentCodeOnly, c.Intent)
		})
	}
}
