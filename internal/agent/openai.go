// ABOUTME: OpenAI-backed Responder using chat completions
// ABOUTME: Maps stored conversation history onto the completion message list

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIResponder implements Responder using the OpenAI chat completion API.
type OpenAIResponder struct {
	client       *openai.Client
	model        string
	systemPrompt string
	logger       *slog.Logger
}

// NewOpenAIResponder creates a responder for the given API key and model.
func NewOpenAIResponder(apiKey, model, systemPrompt string, logger *slog.Logger) (*OpenAIResponder, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIResponder{
		client:       openai.NewClient(apiKey),
		model:        model,
		systemPrompt: systemPrompt,
		logger:       logger.With("component", "agent"),
	}, nil
}

// Respond sends the message with its history to the model and returns the reply.
func (r *OpenAIResponder) Respond(ctx context.Context, message string, history []Turn) (*Reply, error) {
	messages := r.buildMessages(message, history)

	r.logger.Debug("running completion", "model", r.model, "history_len", len(history))

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	return &Reply{Text: resp.Choices[0].Message.Content}, nil
}

// buildMessages lays out the completion message list: system prompt first,
// then the stored history oldest first, then the new user message.
func (r *OpenAIResponder) buildMessages(message string, history []Turn) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: r.systemPrompt,
	})
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})
	return messages
}
