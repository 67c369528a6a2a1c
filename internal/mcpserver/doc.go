// Package mcpserver exposes craftchat functionality as MCP tools.
//
// The server registers a one-shot chat tool plus save/find/list tools for
// saved locations. It is served over stdio by the mcp CLI subcommand and
// mounted at /mcp on the gateway's HTTP server via the streamable HTTP
// transport.
package mcpserver
