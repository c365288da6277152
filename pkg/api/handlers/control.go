package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hwalsh/yasbridge/pkg/api/types"
	"github.com/hwalsh/yasbridge/pkg/bluetooth"
	"github.com/hwalsh/yasbridge/pkg/schema"
	"github.com/hwalsh/yasbridge/pkg/yas"
)

// settleDelay gives the device time to apply a command before re-polling.
const settleDelay = 100 * time.Millisecond

// ControlHandler handles the command and desired-state endpoints.
type ControlHandler struct {
	link      Link
	stepper   Stepper
	validator *schema.StateValidator
}

// NewControlHandler creates a new control handler.
func NewControlHandler(link Link, stepper Stepper, validator *schema.StateValidator) *ControlHandler {
	return &ControlHandler{link: link, stepper: stepper, validator: validator}
}

// SendCommand handles GET /send_command?cmd=NAME
func (h *ControlHandler) SendCommand(c *gin.Context) {
	name := c.Query("cmd")
	if name == "" {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "missing_command",
			Message: "cmd query parameter is required",
		})
		return
	}
	if !yas.IsValidCommand(name) {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "unknown_command",
			Message: fmt.Sprintf("unknown command %q", name),
		})
		return
	}

	if err := h.link.SendCommand(c.Request.Context(), name); err != nil {
		if errors.Is(err, bluetooth.ErrNotConnected) {
			c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
				Error:   "not_connected",
				Message: "Soundbar link is down",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "send_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.CommandResponse{Command: name, Result: "sent"})
}

// SetState handles POST /state. The body is a desired-state document;
// each present field is translated into device commands.
func (h *ControlHandler) SetState(c *gin.Context) {
	ctx := c.Request.Context()

	var req map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	if err := h.validator.Validate(req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if !h.link.Connected() {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
			Error:   "not_connected",
			Message: "Soundbar link is down",
		})
		return
	}

	if err := h.applyState(ctx, req); err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "apply_failed",
			Message: err.Error(),
		})
		return
	}

	status := h.link.RequestStatus(ctx)
	c.JSON(http.StatusOK, types.StateResponse{Applied: req, Status: status})
}

// applyState issues the commands for each field in the validated document.
func (h *ControlHandler) applyState(ctx context.Context, req map[string]any) error {
	if v, ok := req["power"].(string); ok {
		if err := h.sendToggle(ctx, v, "power_on", "power_off"); err != nil {
			return err
		}
	}
	if v, ok := req["muted"].(string); ok {
		if err := h.sendToggle(ctx, v, "mute_on", "mute_off"); err != nil {
			return err
		}
	}
	if v, ok := req["clear_voice"].(string); ok {
		if err := h.sendToggle(ctx, v, "clearvoice_on", "clearvoice_off"); err != nil {
			return err
		}
	}
	if v, ok := req["bass_ext"].(string); ok {
		if err := h.sendToggle(ctx, v, "bass_ext_on", "bass_ext_off"); err != nil {
			return err
		}
	}
	if v, ok := req["input"].(string); ok {
		if err := h.sendAndSettle(ctx, "set_input_"+v); err != nil {
			return err
		}
	}
	if v, ok := req["surround"].(string); ok {
		if err := h.sendAndSettle(ctx, "set_surround_"+v); err != nil {
			return err
		}
	}
	if v, ok := req["volume"].(float64); ok {
		if _, err := h.stepper.SetVolume(ctx, int(v)); err != nil {
			return fmt.Errorf("volume: %w", err)
		}
	}
	if v, ok := req["subwoofer"].(float64); ok {
		if _, err := h.stepper.SetSubwoofer(ctx, int(v)); err != nil {
			return fmt.Errorf("subwoofer: %w", err)
		}
	}
	return nil
}

func (h *ControlHandler) sendToggle(ctx context.Context, value, on, off string) error {
	name := off
	if value == "ON" {
		name = on
	}
	return h.sendAndSettle(ctx, name)
}

func (h *ControlHandler) sendAndSettle(ctx context.Context, name string) error {
	if err := h.link.SendCommand(ctx, name); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	time.Sleep(settleDelay)
	return nil
}
