// Package store provides SQLite-backed persistence for conversations,
// their messages, and saved locations.
//
// Conversations are scoped to an owner identifier derived from the caller's
// API key. Messages are immutable once committed and are always returned in
// timestamp order, with insertion order breaking ties. The user/assistant
// message pair produced by a chat exchange is appended inside a single
// transaction (ExchangeTx) so that a failed generation never leaves an
// orphaned user message behind.
package store
