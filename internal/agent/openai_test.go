// ABOUTME: Tests for the OpenAI responder construction and message layout
// ABOUTME: Does not hit the API; only the deterministic parts are covered

package agent

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIResponder_RequiresKey(t *testing.T) {
	_, err := NewOpenAIResponder("", "gpt-4.1", "prompt", nil)
	assert.Error(t, err)
}

func TestBuildMessages(t *testing.T) {
	r, err := NewOpenAIResponder("sk-test", "gpt-4.1", "be helpful", nil)
	require.NoError(t, err)

	history := []Turn{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
	}
	messages := r.buildMessages("second question", history)

	require.Len(t, messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, messages[0].Role)
	assert.Equal(t, "be helpful", messages[0].Content)
	assert.Equal(t, "first question", messages[1].Content)
	assert.Equal(t, "first answer", messages[2].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, messages[3].Role)
	assert.Equal(t, "second question", messages[3].Content)
}

func TestBuildMessages_NoHistory(t *testing.T) {
	r, err := NewOpenAIResponder("sk-test", "gpt-4.1", "be helpful", nil)
	require.NoError(t, err)

	messages := r.buildMessages("hello", nil)
	require.Len(t, messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, messages[1].Role)
}
