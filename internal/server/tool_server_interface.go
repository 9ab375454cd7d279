// Package server provides the MCP server implementation for the Tempo
// worklog service.
package server

// WorklogToolServer defines the interface for the MCP server that
// handles worklog tool calls from MCP clients.
type WorklogToolServer interface {
	// Initialize initializes the server with dependencies and configurations.
	Initialize() error

	// Start starts the MCP server on the specified transport.
	Start() error

	// Stop gracefully shuts down the MCP server.
	Stop() error
}
