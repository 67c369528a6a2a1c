// ABOUTME: Responder interface for delegating text generation to an LLM
// ABOUTME: The typed Reply result removes any response-shape guessing downstream

package agent

import "context"

// Turn is one role/content pair of prior conversation history.
type Turn struct {
	Role    string
	Content string
}

// Reply is the structured result of a successful generation.
type Reply struct {
	Text string
}

// Responder produces a reply to a message given the conversation history.
// Implementations either return a Reply or an error; callers never inspect
// response shapes.
type Responder interface {
	Respond(ctx context.Context, message string, history []Turn) (*Reply, error)
}
