package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hwalsh/yasbridge/pkg/yas"
)

func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if last, ok := s.stepper.Last(); ok {
		return mcp.NewToolResultText(formatJSON(GetStatusOutput{Status: last, Cached: true})), nil
	}

	if !s.link.Connected() {
		return mcp.NewToolResultError("soundbar is not connected"), nil
	}

	status := s.link.RequestStatus(ctx)
	if !status.Valid {
		return mcp.NewToolResultError("soundbar did not return a valid status report"), nil
	}
	return mcp.NewToolResultText(formatJSON(GetStatusOutput{Status: status})), nil
}

func (s *Server) handleGetLinkStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, detail := s.link.State()

	out := GetLinkStatsOutput{
		State:  string(state),
		Detail: detail,
		Paired: s.link.Paired(),
		Stats:  s.link.Stats(),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleSendCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requiredString(request, "command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !yas.IsValidCommand(name) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown command %q", name)), nil
	}

	if err := s.link.SendCommand(ctx, name); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to send command: %s", err)), nil
	}

	out := SendCommandOutput{Success: true, Command: name}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleSetVolume(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := requiredInt(request, "level")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	status, err := s.stepper.SetVolume(ctx, target)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to set volume: %s", err)), nil
	}

	out := SetLevelOutput{Success: true, Target: target, Status: status}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleSetSubwoofer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := requiredInt(request, "level")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	status, err := s.stepper.SetSubwoofer(ctx, target)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to set subwoofer: %s", err)), nil
	}

	out := SetLevelOutput{Success: true, Target: target, Status: status}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleResetPairing(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.link.ResetPairing(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to reset pairing: %s", err)), nil
	}

	out := LinkActionOutput{
		Success: true,
		Message: "Stored bond cleared; the soundbar will be re-paired on the next connect",
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleReconnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.link.ForceReconnect()

	out := LinkActionOutput{
		Success: true,
		Message: "Reconnect scheduled for the next maintenance tick",
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

// --- helpers ---

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func requiredInt(request mcp.CallToolRequest, key string) (int, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("required parameter %q is missing", key)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("parameter %q must be a number", key)
	}
	return int(f), nil
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}
