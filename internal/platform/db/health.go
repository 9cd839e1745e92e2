package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// healthReport is the body of the /health endpoint.
type healthReport struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Database dbInfo `json:"database"`
}

type dbInfo struct {
	OpenConns     int32  `json:"open_conns"`
	IdleConns     int32  `json:"idle_conns"`
	BusyConns     int32  `json:"busy_conns"`
	MaxConns      int32  `json:"max_conns"`
	TotalAcquires int64  `json:"total_acquires"`
	AcquireWait   string `json:"acquire_wait"`
}

func poolInfo(pool *pgxpool.Pool) dbInfo {
	s := pool.Stat()
	return dbInfo{
		OpenConns:     s.TotalConns(),
		IdleConns:     s.IdleConns(),
		BusyConns:     s.AcquiredConns(),
		MaxConns:      s.MaxConns(),
		TotalAcquires: s.AcquireCount(),
		AcquireWait:   s.AcquireDuration().String(),
	}
}

// HealthHandler reports liveness. It pings the database with a short
// deadline so a stalled pool turns the endpoint unhealthy instead of
// hanging the probe.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		report := healthReport{Status: "ok", Database: poolInfo(pool)}
		if err := pool.Ping(ctx); err != nil {
			report.Status = "unavailable"
			report.Error = err.Error()
			return c.JSON(http.StatusServiceUnavailable, report)
		}
		return c.JSON(http.StatusOK, report)
	}
}
