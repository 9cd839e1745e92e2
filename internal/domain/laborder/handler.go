package laborder

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medilab/lis/internal/platform/session"
	"github.com/medilab/lis/pkg/pagination"
)

// Handler exposes lab order endpoints. Doctors raise orders; the lab
// reads the queue and the dashboard count.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/lab-orders")

	g.POST("", h.create, session.RequireRole(session.RoleDoctor))

	read := session.RequireRole(session.RoleDoctor, session.RoleNurse, session.RoleLabAttendant)
	g.GET("", h.list, read)
	g.GET("/pending-count", h.pendingCount, read)
	g.GET("/:id", h.get, read)
}

func (h *Handler) create(c echo.Context) error {
	var o LabOrder
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if o.OrderedBy == "" {
		o.OrderedBy = session.UsernameFromContext(c.Request().Context())
	}

	if err := h.svc.Create(c.Request().Context(), &o); err != nil {
		if errors.Is(err, ErrReference) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "patient or test does not exist")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) list(c echo.Context) error {
	status := Status(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown order status")
	}

	params := pagination.FromContext(c)
	orders, total, err := h.svc.List(c.Request().Context(),
		status, c.QueryParam("reg_no"), params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list lab orders")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(orders, total, params.Limit, params.Offset))
}

func (h *Handler) pendingCount(c echo.Context) error {
	n, err := h.svc.PendingCount(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count pending orders")
	}
	return c.JSON(http.StatusOK, map[string]int{"pending": n})
}

func (h *Handler) get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	o, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch order")
	}
	return c.JSON(http.StatusOK, o)
}
