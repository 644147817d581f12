package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntentBuckets(t *testing.T) {
	free := []WorkIntent{IntentChatResponse, IntentClarify}
	compound := []WorkIntent{IntentImageAndCode, IntentWebSearchAndCode, IntentNeedsCodeContext}

	for _, i := range free {
		assert.True(t, i.IsFree(), i)
		assert.False(t, i.NeedsCodegen(), i)
		assert.Equal(t, "conversation", i.TimeoutClass())
	}
	for _, i := range compound {
		assert.True(t, i.IsCompound(), i)
		assert.True(t, i.NeedsCodegen(), i)
		assert.Equal(t, "compound", i.TimeoutClass())
	}
	assert.True(t, IntentImageOnly.NeedsImage())
	assert.False(t, IntentImageOnly.NeedsCodegen())
	assert.True(t, IntentWebSearchAndCode.NeedsSearch())
	assert.False(t, WorkIntent("deploy").IsValid())
	assert.Len(t, AllIntents, 9)
}

func TestWorkflowResultInvariant(t *testing.T) {
	r := &WorkflowResult{Intent: IntentCodeOnly, Success: true}
	assert.ErrorIs(t, r.Validate(), ErrEmptySuccess)

	r.ClarifyQuestion = "Which pages do you need?"
	assert.NoError(t, r.Validate())

	failed := (&WorkflowResult{}).Fail(assert.AnError)
	assert.NoError(t, failed.Validate())
	assert.Equal(t, assert.AnError.Error(), failed.Error)
}

func TestWorkflowRequestRefinement(t *testing.T) {
	req := &WorkflowRequest{Prompt: "make the header blue", ExistingSessionID: "chat_1"}
	assert.False(t, req.IsRefinement())

	req.ExistingFiles = []GeneratedFile{{Path: "app/page.tsx"}}
	assert.True(t, req.IsRefinement())

	assert.Error(t, (&WorkflowRequest{Prompt: "  "}).Validate())
	assert.Error(t, (&WorkflowRequest{Prompt: "x", Quality: "ultra"}).Validate())
}
