package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// StatusHandler exposes the read endpoints: plate status, spot status and
// revenue.  All three take POST bodies, mirroring the garage simulator's
// query contract.
type StatusHandler struct {
	Parking Parking
}

// NewStatusHandler constructs a StatusHandler.
func NewStatusHandler(parking Parking) *StatusHandler {
	if parking == nil {
		panic("nil parking service passed to NewStatusHandler")
	}
	return &StatusHandler{Parking: parking}
}

// PlateStatus handles POST /plate-status.  For a vehicle with an active
// session it returns the price accrued so far (as if exiting right now,
// at the locked-in factor when parked), entry and parked times and the
// spot coordinates; otherwise a not-currently-parked message.
func (h *StatusHandler) PlateStatus(c echo.Context) error {
	var body struct {
		LicensePlate string `json:"license_plate"`
	}
	if err := c.Bind(&body); err != nil || body.LicensePlate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "license_plate is required"})
	}
	st, err := h.Parking.GetPlateStatus(c.Request().Context(), body.LicensePlate)
	if err != nil {
		return writeError(c, err)
	}
	if !st.Active {
		return c.JSON(http.StatusOK, echo.Map{
			"license_plate": st.LicensePlate,
			"message":       "vehicle is not currently parked",
		})
	}
	resp := echo.Map{
		"license_plate":   st.LicensePlate,
		"price_until_now": cents(st.PriceUntilNowCents),
		"entry_time":      st.EntryTime,
		"time_parked":     st.ParkedTime,
	}
	if st.Parked {
		resp["lat"] = st.Lat
		resp["lng"] = st.Lng
	}
	return c.JSON(http.StatusOK, resp)
}

// SpotStatus handles POST /spot-status.  It reports whether the spot at
// the given coordinates is occupied and, when it is, the entry and parked
// times of the session using it.
func (h *StatusHandler) SpotStatus(c echo.Context) error {
	var body struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := c.Bind(&body); err != nil || body.Lat == nil || body.Lng == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lat and lng are required"})
	}
	st, err := h.Parking.GetSpotStatus(c.Request().Context(), *body.Lat, *body.Lng)
	if err != nil {
		return writeError(c, err)
	}
	resp := echo.Map{"occupied": st.Occupied}
	if st.EntryTime != nil {
		resp["entry_time"] = st.EntryTime
	}
	if st.ParkedTime != nil {
		resp["time_parked"] = st.ParkedTime
	}
	return c.JSON(http.StatusOK, resp)
}

// Revenue handles POST /revenue.  It returns the accumulated revenue for
// a sector on a calendar date, zero when nothing has settled for that key.
func (h *StatusHandler) Revenue(c echo.Context) error {
	var body struct {
		Sector string `json:"sector"`
		Date   string `json:"date"`
	}
	if err := c.Bind(&body); err != nil || body.Sector == "" || body.Date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sector and date are required"})
	}
	rev, err := h.Parking.GetRevenue(c.Request().Context(), body.Sector, body.Date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"amount":   cents(rev.AmountCents),
		"currency": rev.Currency,
		"sector":   body.Sector,
		"date":     body.Date,
	})
}

// cents converts an integer cent amount to the decimal value used on the
// wire.
func cents(v int64) float64 { return float64(v) / 100 }
