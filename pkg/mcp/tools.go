package mcp

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hwalsh/yasbridge/pkg/yas"
)

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	// Soundbar status
	s.mcpServer.AddTool(
		mcp.NewTool("get_status",
			mcp.WithDescription("Get the soundbar's current state: power, input, volume, subwoofer, surround mode and sound flags"),
		),
		s.handleGetStatus,
	)

	// Link stats
	s.mcpServer.AddTool(
		mcp.NewTool("get_link_stats",
			mcp.WithDescription("Get the Bluetooth link state and its connection/traffic counters"),
		),
		s.handleGetLinkStats,
	)

	// Raw command
	s.mcpServer.AddTool(
		mcp.NewTool("send_command",
			mcp.WithDescription("Send a named command to the soundbar. Known commands: "+strings.Join(yas.CommandNames(), ", ")),
			mcp.WithString("command",
				mcp.Required(),
				mcp.Description("Command name, e.g. power_on, mute_toggle, set_input_hdmi"),
			),
		),
		s.handleSendCommand,
	)

	// Absolute volume
	s.mcpServer.AddTool(
		mcp.NewTool("set_volume",
			mcp.WithDescription("Set the volume to an absolute level between 0 and 50"),
			mcp.WithNumber("level",
				mcp.Required(),
				mcp.Description("Target volume level (0-50)"),
			),
		),
		s.handleSetVolume,
	)

	// Absolute subwoofer level
	s.mcpServer.AddTool(
		mcp.NewTool("set_subwoofer",
			mcp.WithDescription("Set the subwoofer level to an absolute value between 0 and 32 (steps of 4)"),
			mcp.WithNumber("level",
				mcp.Required(),
				mcp.Description("Target subwoofer level (0-32)"),
			),
		),
		s.handleSetSubwoofer,
	)

	// Pairing reset
	s.mcpServer.AddTool(
		mcp.NewTool("reset_pairing",
			mcp.WithDescription("Clear the stored Bluetooth bond and re-pair with the soundbar"),
		),
		s.handleResetPairing,
	)

	// Forced reconnect
	s.mcpServer.AddTool(
		mcp.NewTool("reconnect",
			mcp.WithDescription("Force an immediate reconnect attempt, skipping the usual backoff"),
		),
		s.handleReconnect,
	)
}
