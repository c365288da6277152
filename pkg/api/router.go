// Package api wires the HTTP surface of the bridge.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/hwalsh/yasbridge/pkg/api/handlers"
	"github.com/hwalsh/yasbridge/pkg/bus"
	"github.com/hwalsh/yasbridge/pkg/schema"
)

// Version is stamped at build time.
var Version = "dev"

// Router holds the Gin engine and dependencies
type Router struct {
	engine    *gin.Engine
	link      handlers.Link
	stepper   handlers.Stepper
	bus       *bus.Bus
	validator *schema.StateValidator
	mqtt      handlers.MQTTProbe
	apiKey    string
}

// NewRouter creates a new API router. mqtt may be nil when the MQTT layer
// is disabled; apiKey empty disables auth.
func NewRouter(link handlers.Link, stepper handlers.Stepper, b *bus.Bus, validator *schema.StateValidator, mqtt handlers.MQTTProbe, apiKey string) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	SetupMiddleware(engine)

	router := &Router{
		engine:    engine,
		link:      link,
		stepper:   stepper,
		bus:       b,
		validator: validator,
		mqtt:      mqtt,
		apiKey:    apiKey,
	}

	router.setupRoutes()

	return router
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	statusHandler := handlers.NewStatusHandler(r.link, r.stepper, Version)
	controlHandler := handlers.NewControlHandler(r.link, r.stepper, r.validator)
	linkHandler := handlers.NewLinkHandler(r.link, r.bus, r.mqtt)
	eventsHandler := handlers.NewEventsHandler(r.bus)

	// Health and info are reachable without a key so probes keep working.
	r.engine.GET("/", statusHandler.Info)
	r.engine.GET("/health", statusHandler.Health)

	authed := r.engine.Group("", APIKeyAuth(r.apiKey))
	{
		authed.GET("/status", statusHandler.Status)
		authed.GET("/send_command", controlHandler.SendCommand)
		authed.POST("/state", controlHandler.SetState)
		authed.GET("/debug", linkHandler.Debug)
		authed.GET("/reset_pairing", linkHandler.ResetPairing)
		authed.GET("/reconnect", linkHandler.Reconnect)
		authed.GET("/events", eventsHandler.Events)
	}
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}

// Engine exposes the underlying engine for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
