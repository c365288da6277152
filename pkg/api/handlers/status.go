// Package handlers implements the HTTP endpoint handlers.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hwalsh/yasbridge/pkg/api/types"
	"github.com/hwalsh/yasbridge/pkg/bluetooth"
	"github.com/hwalsh/yasbridge/pkg/yas"
)

// Link is the slice of the link manager the handlers need.
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

// Stepper is the slice of the synchronizer the handlers need.
type Stepper interface {
	Last() (yas.Status, bool)
	SetVolume(ctx context.Context, target int) (yas.Status, error)
	SetSubwoofer(ctx context.Context, target int) (yas.Status, error)
}

// StatusHandler serves the info, health and status endpoints.
type StatusHandler struct {
	link    Link
	stepper Stepper
	version string
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(link Link, stepper Stepper, version string) *StatusHandler {
	return &StatusHandler{link: link, stepper: stepper, version: version}
}

// Info handles GET /
func (h *StatusHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, types.InfoResponse{
		Name:    "yasbridge",
		Version: h.version,
		Device:  "Yamaha YAS soundbar",
		Endpoints: []string{
			"/", "/status", "/send_command", "/state", "/debug",
			"/reset_pairing", "/reconnect", "/health", "/events",
		},
	})
}

// Health handles GET /health
func (h *StatusHandler) Health(c *gin.Context) {
	linkStatus := "disconnected"
	if h.link.Connected() {
		linkStatus = "connected"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if linkStatus != "connected" {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, types.HealthResponse{
		Status:    status,
		Link:      linkStatus,
		Timestamp: time.Now(),
	})
}

// Status handles GET /status. The cached snapshot is served when one exists;
// otherwise the soundbar is queried directly.
func (h *StatusHandler) Status(c *gin.Context) {
	if !h.link.Connected() {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
			Error:   "not_connected",
			Message: "Soundbar link is down",
		})
		return
	}

	if last, ok := h.stepper.Last(); ok {
		c.JSON(http.StatusOK, types.StatusResponse{Status: last, Timestamp: time.Now()})
		return
	}

	status := h.link.RequestStatus(c.Request.Context())
	if !status.Valid {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "status_failed",
			Message: "Soundbar did not return a valid status report",
		})
		return
	}
	c.JSON(http.StatusOK, types.StatusResponse{Status: status, Timestamp: time.Now()})
}
