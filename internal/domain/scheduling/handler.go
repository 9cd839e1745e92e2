package scheduling

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medilab/lis/internal/platform/session"
	"github.com/medilab/lis/pkg/pagination"
)

// Handler exposes appointment and vitals endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/appointments", session.RequireRole(
		session.RoleRecords, session.RoleNurse, session.RoleDoctor))

	g.POST("", h.book)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("/:id/vitals", h.recordVitals, session.RequireRole(session.RoleNurse))
	g.GET("/:id/vitals", h.getVitals)
}

func (h *Handler) book(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Book(c.Request().Context(), &a); err != nil {
		if errors.Is(err, ErrUnknownPatient) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) list(c echo.Context) error {
	if regNo := c.QueryParam("reg_no"); regNo != "" {
		appts, err := h.svc.ListForPatient(c.Request().Context(), regNo)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to list appointments")
		}
		return c.JSON(http.StatusOK, appts)
	}

	params := pagination.FromContext(c)
	appts, total, err := h.svc.List(c.Request().Context(),
		c.QueryParam("date"), params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list appointments")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, params.Limit, params.Offset))
}

func (h *Handler) get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch appointment")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) recordVitals(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	var v Vitals
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	v.AppointmentID = id
	if v.RecordedBy == "" {
		v.RecordedBy = session.UsernameFromContext(c.Request().Context())
	}

	if err := h.svc.RecordVitals(c.Request().Context(), &v); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) getVitals(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	v, err := h.svc.VitalsForAppointment(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "vitals not recorded")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch vitals")
	}
	return c.JSON(http.StatusOK, v)
}
