package patient

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medilab/lis/internal/platform/session"
	"github.com/medilab/lis/pkg/pagination"
)

// Handler exposes patient endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts patient routes on the authenticated API group.
// Registration and satellite updates belong to the records desk and
// nurses; the identify lookup is for lab attendants.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/patients")

	write := g.Group("", session.RequireRole(session.RoleRecords, session.RoleNurse))
	write.POST("", h.register)
	write.PUT("/:reg_no/next-of-kin", h.updateNextOfKin)
	write.PUT("/:reg_no/guardian", h.updateGuardian)
	write.PUT("/:reg_no/medical-history", h.updateMedicalHistory)

	read := g.Group("", session.RequireRole(
		session.RoleRecords, session.RoleNurse, session.RoleDoctor, session.RoleLabAttendant))
	read.GET("", h.list)
	read.GET("/:reg_no", h.get)
	read.GET("/:reg_no/identify", h.identify)
}

func (h *Handler) register(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	verrs, err := h.svc.Register(c.Request().Context(), &p)
	if err != nil {
		if errors.Is(err, ErrDuplicateRegNo) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to register patient")
	}
	if len(verrs) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"errors": verrs,
		})
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) list(c echo.Context) error {
	params := pagination.FromContext(c)
	patients, total, err := h.svc.List(c.Request().Context(),
		c.QueryParam("q"), params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list patients")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, params.Limit, params.Offset))
}

func (h *Handler) get(c echo.Context) error {
	rec, err := h.svc.Get(c.Request().Context(), c.Param("reg_no"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch patient")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) identify(c echo.Context) error {
	p, err := h.svc.Identify(c.Request().Context(), c.Param("reg_no"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to identify patient")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"reg_no":    p.RegNo,
		"full_name": p.FullName(),
		"sex":       p.Sex,
		"phone":     p.Phone,
	})
}

func (h *Handler) updateNextOfKin(c echo.Context) error {
	var k NextOfKin
	if err := c.Bind(&k); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	k.RegNo = c.Param("reg_no")
	if err := h.svc.UpdateNextOfKin(c.Request().Context(), &k); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update next of kin")
	}
	return c.JSON(http.StatusOK, k)
}

func (h *Handler) updateGuardian(c echo.Context) error {
	var g Guardian
	if err := c.Bind(&g); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	g.RegNo = c.Param("reg_no")
	if err := h.svc.UpdateGuardian(c.Request().Context(), &g); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update guardian")
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) updateMedicalHistory(c echo.Context) error {
	var m MedicalHistory
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m.RegNo = c.Param("reg_no")
	if err := h.svc.UpdateMedicalHistory(c.Request().Context(), &m); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update medical history")
	}
	return c.JSON(http.StatusOK, m)
}
