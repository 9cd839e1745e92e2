package result

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medilab/lis/internal/domain/requisition"
	"github.com/medilab/lis/internal/platform/session"
)

// Handler exposes result entry endpoints to lab attendants.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/requisitions/:id", session.RequireRole(session.RoleLabAttendant))

	g.POST("/results", h.submit)
	g.GET("/results", h.get)
	g.GET("/parameters", h.parameters)
	g.GET("/printout", h.printout)
	g.DELETE("/comments/:comment_id", h.deleteComment)
}

func (h *Handler) requisitionID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid requisition id")
	}
	return id, nil
}

func (h *Handler) submit(c echo.Context) error {
	id, err := h.requisitionID(c)
	if err != nil {
		return err
	}

	var in SubmitInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	in.RequisitionID = id

	ctx := c.Request().Context()
	res, err := h.svc.Submit(ctx, &in, session.UserIDFromContext(ctx))
	if err != nil {
		switch {
		case errors.Is(err, requisition.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "requisition not found")
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) get(c echo.Context) error {
	id, err := h.requisitionID(c)
	if err != nil {
		return err
	}
	res, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no results entered yet")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch results")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) parameters(c echo.Context) error {
	id, err := h.requisitionID(c)
	if err != nil {
		return err
	}
	params, err := h.svc.ParametersWithValues(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, requisition.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "requisition not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load parameters")
	}
	return c.JSON(http.StatusOK, params)
}

func (h *Handler) printout(c echo.Context) error {
	id, err := h.requisitionID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.BuildPrintout(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, requisition.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "requisition not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build printout")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) deleteComment(c echo.Context) error {
	id, err := h.requisitionID(c)
	if err != nil {
		return err
	}
	commentID, err := strconv.ParseInt(c.Param("comment_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid comment id")
	}

	ok, err := h.svc.DeleteComment(c.Request().Context(), id, commentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete comment")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no results for that requisition")
	}
	return c.NoContent(http.StatusNoContent)
}
