// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/openvalet/garage/internal/handler"
)

// RegisterRoutes wires the webhook and query endpoints onto the provided
// Echo instance.  The webhook is the write path; the three status
// endpoints are POST queries mirroring the garage simulator's contract.
func RegisterRoutes(e *echo.Echo, wh *handler.WebhookHandler, sh *handler.StatusHandler) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// Garage simulator event intake: ENTRY, PARKED and EXIT events.
	e.POST("/webhook", wh.Handle)

	// Read endpoints consumed by operators and the simulator.
	e.POST("/plate-status", sh.PlateStatus)
	e.POST("/spot-status", sh.SpotStatus)
	e.POST("/revenue", sh.Revenue)
}
