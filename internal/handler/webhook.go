package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openvalet/garage/internal/model"
	"github.com/openvalet/garage/internal/queue"
	"github.com/openvalet/garage/internal/repository"
	"github.com/openvalet/garage/internal/service"
)

// Parking is the slice of the parking service the HTTP boundary consumes.
// Declared here so handlers can be tested against a stub.
type Parking interface {
	HandleEntry(ctx context.Context, plate, entryTime string) (*model.ParkingSession, error)
	HandleParked(ctx context.Context, plate string, lat, lng float64) (*model.ParkingSession, error)
	HandleExit(ctx context.Context, plate, exitTime string) (*service.ExitResult, error)
	GetPlateStatus(ctx context.Context, plate string) (*service.PlateStatus, error)
	GetSpotStatus(ctx context.Context, lat, lng float64) (*service.SpotStatus, error)
	GetRevenue(ctx context.Context, sectorCode, date string) (*model.Revenue, error)
}

// WebhookHandler receives garage simulator events and routes them to the
// session state machine.  Publish is called after a successful EXIT; a
// nil Publish disables settlement messages (used when no broker is
// configured).
type WebhookHandler struct {
	Parking Parking
	Publish func(ctx context.Context, event queue.SessionClosedEvent) error
}

// NewWebhookHandler constructs a WebhookHandler publishing to the default
// session.closed queue.
func NewWebhookHandler(parking Parking) *WebhookHandler {
	if parking == nil {
		panic("nil parking service passed to NewWebhookHandler")
	}
	return &WebhookHandler{Parking: parking, Publish: queue.PublishSessionClosed}
}

// webhookEvent is the envelope every simulator event arrives in.  The
// event_type discriminates which of the other fields are required.
type webhookEvent struct {
	EventType    string   `json:"event_type"`
	LicensePlate string   `json:"license_plate"`
	EntryTime    string   `json:"entry_time"`
	ExitTime     string   `json:"exit_time"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
}

// Handle processes POST /webhook.  Shape validation happens here, before
// any state is touched; the state machine enforces everything that needs
// the stored state.  Recognized events are acknowledged with 200,
// malformed ones rejected with 400, and state conflicts surface as 404 or
// 409 depending on the error.
func (h *WebhookHandler) Handle(c echo.Context) error {
	var ev webhookEvent
	if err := c.Bind(&ev); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if ev.LicensePlate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "license_plate is required"})
	}
	ctx := c.Request().Context()

	switch ev.EventType {
	case model.EventEntry:
		if ev.EntryTime == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "entry_time is required"})
		}
		if _, err := h.Parking.HandleEntry(ctx, ev.LicensePlate, ev.EntryTime); err != nil {
			return writeError(c, err)
		}
	case model.EventParked:
		if ev.Lat == nil || ev.Lng == nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "lat and lng are required"})
		}
		if _, err := h.Parking.HandleParked(ctx, ev.LicensePlate, *ev.Lat, *ev.Lng); err != nil {
			return writeError(c, err)
		}
	case model.EventExit:
		if ev.ExitTime == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "exit_time is required"})
		}
		res, err := h.Parking.HandleExit(ctx, ev.LicensePlate, ev.ExitTime)
		if err != nil {
			return writeError(c, err)
		}
		h.publishClosed(ctx, res)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": fmt.Sprintf("unknown event type: %s", ev.EventType),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "event processed successfully"})
}

// publishClosed emits the settlement message.  Failures are logged and
// swallowed: the session is already settled and acknowledged.
func (h *WebhookHandler) publishClosed(ctx context.Context, res *service.ExitResult) {
	if h.Publish == nil {
		return
	}
	err := h.Publish(ctx, queue.SessionClosedEvent{
		SessionID:    res.SessionID.String(),
		LicensePlate: res.LicensePlate,
		Sector:       res.SectorCode,
		Lat:          res.Lat,
		Lng:          res.Lng,
		EntryTime:    res.EntryTime.Format(time.RFC3339),
		ExitTime:     res.ExitTime.Format(time.RFC3339),
		FactorPct:    res.FactorPct,
		AmountCents:  res.PriceCents,
		Currency:     res.Currency,
		ClosedAt:     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("webhook: session.closed publish failed for %s: %v", res.LicensePlate, err)
	}
}

// writeError translates core errors into the HTTP taxonomy: validation to
// 400, lookup failures to 404, state conflicts and exhausted capacity to
// 409, anything else to a generic 500.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrVehicleNotFound),
		errors.Is(err, repository.ErrSpotNotFound),
		errors.Is(err, repository.ErrSectorNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrCapacityExhausted):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":   "capacity exhausted",
			"message": "all sectors are full, please try again later",
		})
	case errors.Is(err, repository.ErrActiveSessionExists),
		errors.Is(err, repository.ErrSpotOccupied),
		errors.Is(err, repository.ErrNoActiveSession):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		log.Printf("handler: internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
