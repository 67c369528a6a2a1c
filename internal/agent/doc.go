// Package agent wraps the external LLM behind the Responder interface.
//
// The gateway constructs one Responder at startup and passes it explicitly
// to every consumer. When no OpenAI API key is configured the Responder is
// absent and chat endpoints report the service unavailable instead of
// failing at startup.
package agent
