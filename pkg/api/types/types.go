// Package types holds the HTTP API request and response DTOs.
package types

import "time"

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// InfoResponse is returned from GET /
type InfoResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Device    string   `json:"device"`
	Endpoints []string `json:"endpoints"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Link      string    `json:"link"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusResponse is returned from GET /status
type StatusResponse struct {
	Status    any       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// CommandResponse is returned from GET /send_command
type CommandResponse struct {
	Command string `json:"command"`
	Result  string `json:"result"`
}

// StateResponse is returned from POST /state
type StateResponse struct {
	Applied map[string]any `json:"applied"`
	Status  any            `json:"status"`
}

// DebugResponse is returned from GET /debug
type DebugResponse struct {
	UptimeSeconds int64  `json:"uptime_seconds"`
	LinkState     string `json:"link_state"`
	LinkDetail    string `json:"link_detail,omitempty"`
	Paired        bool   `json:"paired"`
	Stats         any    `json:"stats"`
	MQTTConnected bool   `json:"mqtt_connected"`
	Subscribers   int    `json:"subscribers"`
}

// LinkActionResponse is returned from GET /reset_pairing and GET /reconnect
type LinkActionResponse struct {
	Action string `json:"action"`
	Result string `json:"result"`
}
