// Package mcp exposes soundbar control as MCP tools over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hwalsh/yasbridge/pkg/bluetooth"
	"github.com/hwalsh/yasbridge/pkg/yas"
)

// Link is the slice of the link manager the tools need.
type Link interface {
	Connected() bool
	Paired() bool
	State() (bluetooth.State, string)
	Stats() bluetooth.Stats
	SendCommand(ctx context.Context, name string) error
	RequestStatus(ctx context.Context) yas.Status
	ResetPairing(ctx context.Context) error
	ForceReconnect()
}

// Stepper is the slice of the synchronizer the tools need.
type Stepper interface {
	Last() (yas.Status, bool)
	SetVolume(ctx context.Context, target int) (yas.Status, error)
	SetSubwoofer(ctx context.Context, target int) (yas.Status, error)
}

// Server wraps the MCP server with the bridge's soundbar control tools
type Server struct {
	mcpServer *server.MCPServer
	link      Link
	stepper   Stepper
}

// NewServer creates a new MCP server for soundbar control
func NewServer(link Link, stepper Stepper) *Server {
	s := &Server{
		link:    link,
		stepper: stepper,
	}

	// Create MCP server
	s.mcpServer = server.NewMCPServer(
		"yasbridge",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	// Register all tools
	s.registerTools()

	return s
}

// ServeStdio starts the MCP server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
