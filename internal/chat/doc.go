// Package chat is the central layer for conversation operations.
//
// Every message exchange flows through here: the service validates input,
// enforces ownership, assembles the turn-structured history, and persists
// the user/assistant pair inside one transaction. A conversation that does
// not exist and one owned by someone else produce the same not-found
// outcome, so existence is never leaked to unauthorized callers.
package chat
