package biohazard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medilab/lis/internal/platform/session"
	"github.com/medilab/lis/pkg/pagination"
)

// Handler exposes incident endpoints. Attendants report; resolving is
// an admin action.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/biohazard-incidents")

	attendant := session.RequireRole(session.RoleLabAttendant)
	g.POST("", h.report, attendant)
	g.GET("", h.list, attendant)
	g.GET("/:id", h.get, attendant)
	g.POST("/:id/resolve", h.resolve, session.RequireRole(session.RoleAdmin))
}

func (h *Handler) report(c echo.Context) error {
	var i Incident
	if err := c.Bind(&i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	i.ReportedBy = session.UserIDFromContext(c.Request().Context())

	if err := h.svc.Report(c.Request().Context(), &i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, i)
}

func (h *Handler) list(c echo.Context) error {
	params := pagination.FromContext(c)
	unresolvedOnly := c.QueryParam("unresolved") == "true"

	incidents, total, err := h.svc.List(c.Request().Context(), unresolvedOnly, params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list incidents")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(incidents, total, params.Limit, params.Offset))
}

func (h *Handler) get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid incident id")
	}
	i, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "incident not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch incident")
	}
	return c.JSON(http.StatusOK, i)
}

func (h *Handler) resolve(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid incident id")
	}
	if err := h.svc.Resolve(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "incident not found")
		case errors.Is(err, ErrAlreadyResolved):
			return echo.NewHTTPError(http.StatusConflict, "incident already resolved")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to resolve incident")
		}
	}
	return c.NoContent(http.StatusNoContent)
}
