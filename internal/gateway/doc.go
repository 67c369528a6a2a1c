// Package gateway composes the HTTP server for craftchat.
//
// It wires the SQLite store, API key guard, rate limiter, conversation
// service and MCP endpoint into a single http.Server with graceful
// shutdown. Handlers translate service errors into the external status
// codes; everything owner-scoped sits behind the guard and limiter
// middleware while /health and /mcp stay open.
package gateway
