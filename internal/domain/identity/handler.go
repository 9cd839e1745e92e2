package identity

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medilab/lis/internal/platform/session"
)

type Handler struct {
	svc      *Service
	sessions *session.Manager
}

func NewHandler(svc *Service, sessions *session.Manager) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

// RegisterRoutes wires the public login endpoints and the
// authenticated account-management endpoints.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/auth/emr/login", h.LoginEMR)
	public.POST("/auth/lis/login", h.LoginLIS)

	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/me", h.Me)

	adminGroup := api.Group("", session.RequireRole(session.RoleAdmin))
	adminGroup.POST("/users/admins", h.CreateAdmin)
	adminGroup.POST("/users/lab-attendants", h.CreateLabAttendant)
	adminGroup.POST("/users/emr", h.CreateEMRUser)
	adminGroup.POST("/physicians", h.CreateDoctor)

	api.GET("/physicians", h.ListPhysicians,
		session.RequireRole(session.RoleDoctor, session.RoleNurse, session.RoleRecords, session.RoleLabAttendant))
	api.GET("/lab-officers", h.ListLabOfficers,
		session.RequireRole(session.RoleLabAttendant))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) LoginEMR(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.svc.LoginEMR(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	if err := h.sessions.Issue(c, u.ID, u.Username, u.Role, session.RealmEMR); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":       u.ID,
		"username": u.Username,
		"role":     u.Role,
	})
}

func (h *Handler) LoginLIS(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.svc.LoginLIS(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	if err := h.sessions.Issue(c, u.ID, u.Username, u.Role, session.RealmLIS); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":       u.ID,
		"username": u.Username,
		"role":     u.Role,
	})
}

func (h *Handler) Logout(c echo.Context) error {
	h.sessions.Clear(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the session identity, used by dashboards to pick the
// right landing view.
func (h *Handler) Me(c echo.Context) error {
	claims := session.FromContext(c.Request().Context())
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":       claims.UserID,
		"username": claims.Username,
		"role":     claims.Role,
		"realm":    claims.Realm,
	})
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

func (h *Handler) CreateAdmin(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.CreateAdmin(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) CreateLabAttendant(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.CreateLabAttendant(c.Request().Context(), req.Username, req.Password, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) CreateEMRUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.CreateEMRUser(c.Request().Context(), req.Username, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, u)
}

type createDoctorRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	UserID *int64 `json:"user_id"`
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var req createDoctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.CreateDoctor(c.Request().Context(), req.Name, req.Email, req.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListPhysicians(c echo.Context) error {
	items, err := h.svc.ListPhysicians(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListLabOfficers(c echo.Context) error {
	items, err := h.svc.ListLabOfficers(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}
