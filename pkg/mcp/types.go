package mcp

import (
	"github.com/hwalsh/yasbridge/pkg/bluetooth"
	"github.com/hwalsh/yasbridge/pkg/yas"
)

// --- Tool output DTOs ---

// GetStatusOutput is the result of the get_status tool
type GetStatusOutput struct {
	Status yas.Status `json:"status"`
	Cached bool       `json:"cached"`
}

// GetLinkStatsOutput is the result of the get_link_stats tool
type GetLinkStatsOutput struct {
	State  string          `json:"state"`
	Detail string          `json:"detail,omitempty"`
	Paired bool            `json:"paired"`
	Stats  bluetooth.Stats `json:"stats"`
}

// SendCommandOutput is the result of the send_command tool
type SendCommandOutput struct {
	Success bool   `json:"success"`
	Command string `json:"command"`
}

// SetLevelOutput is the result of the set_volume and set_subwoofer tools
type SetLevelOutput struct {
	Success bool       `json:"success"`
	Target  int        `json:"target"`
	Status  yas.Status `json:"status"`
}

// LinkActionOutput is the result of the reset_pairing and reconnect tools
type LinkActionOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
