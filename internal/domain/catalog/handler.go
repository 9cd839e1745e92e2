package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medilab/lis/internal/platform/session"
)

// Handler exposes catalog endpoints. Writes are admin-only; reads are
// open to lab attendants so they can raise requisitions.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type createTestRequest struct {
	LabTest
	SampleTypeIDs []int64 `json:"sample_type_ids"`
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/catalog")

	admin := g.Group("", session.RequireRole(session.RoleAdmin))
	admin.POST("/categories", h.createCategory)
	admin.POST("/sample-types", h.createSampleType)
	admin.POST("/tests", h.createTest)
	admin.POST("/units", h.createUnit)
	admin.POST("/parameters", h.createParameter)
	admin.POST("/comment-templates", h.createCommentTemplate)
	admin.DELETE("/comment-templates/:id", h.deleteCommentTemplate)

	read := g.Group("", session.RequireRole(session.RoleLabAttendant, session.RoleDoctor))
	read.GET("/categories", h.listCategories)
	read.GET("/sample-types", h.listSampleTypes)
	read.GET("/tests", h.listTests)
	read.GET("/tests/:id", h.getTest)
	read.GET("/tests/:id/samples", h.listSamplesForTest)
	read.GET("/units", h.listUnits)
	read.GET("/tests/:id/parameters", h.listParametersForTest)
	read.GET("/comment-templates", h.listCommentTemplates)
}

func (h *Handler) createCategory(c echo.Context) error {
	var tc TestCategory
	if err := c.Bind(&tc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateCategory(c.Request().Context(), &tc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, tc)
}

func (h *Handler) listCategories(c echo.Context) error {
	out, err := h.svc.ListCategories(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list categories")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) createSampleType(c echo.Context) error {
	var st SampleType
	if err := c.Bind(&st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateSampleType(c.Request().Context(), &st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *Handler) listSampleTypes(c echo.Context) error {
	out, err := h.svc.ListSampleTypes(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list sample types")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) createTest(c echo.Context) error {
	var req createTestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateTest(c.Request().Context(), &req.LabTest, req.SampleTypeIDs); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "referenced category or sample type does not exist")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, req.LabTest)
}

func (h *Handler) getTest(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid test id")
	}
	t, err := h.svc.GetTest(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "test not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch test")
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) listTests(c echo.Context) error {
	var categoryID int64
	if v := c.QueryParam("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid category id")
		}
		categoryID = id
	}
	out, err := h.svc.ListTests(c.Request().Context(), categoryID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list tests")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) listSamplesForTest(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid test id")
	}
	out, err := h.svc.ListSamplesForTest(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list sample types")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) createUnit(c echo.Context) error {
	var u Unit
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateUnit(c.Request().Context(), &u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) listUnits(c echo.Context) error {
	out, err := h.svc.ListUnits(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list units")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) createParameter(c echo.Context) error {
	var p Parameter
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateParameter(c.Request().Context(), &p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "referenced test or unit does not exist")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) listParametersForTest(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid test id")
	}
	out, err := h.svc.ListParametersForTest(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list parameters")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) createCommentTemplate(c echo.Context) error {
	var t CommentTemplate
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateCommentTemplate(c.Request().Context(), &t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) listCommentTemplates(c echo.Context) error {
	out, err := h.svc.ListCommentTemplates(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list comment templates")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) deleteCommentTemplate(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid template id")
	}
	if err := h.svc.DeleteCommentTemplate(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "template not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete template")
	}
	return c.NoContent(http.StatusNoContent)
}
