package requisition

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medilab/lis/internal/platform/session"
	"github.com/medilab/lis/pkg/pagination"
)

// Handler exposes requisition endpoints to lab attendants.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/requisitions", session.RequireRole(session.RoleLabAttendant))

	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/pending-count", h.pendingCount)
	g.GET("/sample/:sample_id", h.lookupBySample)
	g.GET("/:id", h.get)
	g.POST("/:id/archive", h.archive)
	g.POST("/:id/unarchive", h.unarchive)
}

func (h *Handler) create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	q, err := h.svc.Create(ctx, &in,
		session.UserIDFromContext(ctx), session.RoleFromContext(ctx))
	if err != nil {
		switch {
		case errors.Is(err, ErrReference):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "patient or catalog reference does not exist")
		case errors.Is(err, ErrDuplicateSample):
			return echo.NewHTTPError(http.StatusConflict, "could not assign a unique sample id")
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, q)
}

func (h *Handler) list(c echo.Context) error {
	filter := ListFilter(c.QueryParam("filter"))
	if filter == "" {
		filter = FilterPending
	}
	if !filter.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown requisition filter")
	}

	params := pagination.FromContext(c)
	reqs, total, err := h.svc.List(c.Request().Context(), filter, params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list requisitions")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(reqs, total, params.Limit, params.Offset))
}

func (h *Handler) pendingCount(c echo.Context) error {
	n, err := h.svc.PendingCount(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count pending requisitions")
	}
	return c.JSON(http.StatusOK, map[string]int{"pending": n})
}

func (h *Handler) get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid requisition id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "requisition not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch requisition")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) lookupBySample(c echo.Context) error {
	d, err := h.svc.LookupBySampleID(c.Request().Context(), c.Param("sample_id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no requisition for that sample id")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to look up sample")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) archive(c echo.Context) error {
	return h.setArchived(c, (*Service).Archive)
}

func (h *Handler) unarchive(c echo.Context) error {
	return h.setArchived(c, (*Service).Unarchive)
}

func (h *Handler) setArchived(c echo.Context, fn func(*Service, context.Context, int64) error) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid requisition id")
	}
	if err := fn(h.svc, c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "requisition not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to update requisition")
		}
	}
	return c.NoContent(http.StatusNoContent)
}
