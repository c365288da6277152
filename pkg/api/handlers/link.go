package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hwalsh/yasbridge/pkg/api/types"
	"github.com/hwalsh/yasbridge/pkg/bus"
)

// MQTTProbe reports whether the MQTT layer currently has a broker session.
type MQTTProbe func() bool

// LinkHandler serves the link management and debug endpoints.
type LinkHandler struct {
	link    Link
	bus     *bus.Bus
	mqtt    MQTTProbe
	started time.Time
}

// NewLinkHandler creates a new link handler. mqtt may be nil when the MQTT
// layer is disabled.
func NewLinkHandler(link Link, b *bus.Bus, mqtt MQTTProbe) *LinkHandler {
	return &LinkHandler{link: link, bus: b, mqtt: mqtt, started: time.Now()}
}

// Debug handles GET /debug
func (h *LinkHandler) Debug(c *gin.Context) {
	state, detail := h.link.State()
	mqttConnected := false
	if h.mqtt != nil {
		mqttConnected = h.mqtt()
	}

	c.JSON(http.StatusOK, types.DebugResponse{
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		LinkState:     string(state),
		LinkDetail:    detail,
		Paired:        h.link.Paired(),
		Stats:         h.link.Stats(),
		MQTTConnected: mqttConnected,
		Subscribers:   h.bus.Len(),
	})
}

// ResetPairing handles GET /reset_pairing
func (h *LinkHandler) ResetPairing(c *gin.Context) {
	if err := h.link.ResetPairing(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "reset_failed",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.LinkActionResponse{Action: "reset_pairing", Result: "ok"})
}

// Reconnect handles GET /reconnect
func (h *LinkHandler) Reconnect(c *gin.Context) {
	h.link.ForceReconnect()
	c.JSON(http.StatusOK, types.LinkActionResponse{Action: "reconnect", Result: "scheduled"})
}
