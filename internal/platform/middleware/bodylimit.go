package middleware

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// BodyLimit caps request body size. The limit is a human-readable
// string: "512K", "1M", "2G", or a bare byte count. Oversized requests
// get 413 whether or not the client sent a Content-Length.
func BodyLimit(limit string) echo.MiddlewareFunc {
	maxBytes := parseSize(limit)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			body := c.Request().Body
			if body == nil || body == http.NoBody {
				return next(c)
			}
			if c.Request().ContentLength > maxBytes {
				return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
			}
			c.Request().Body = &cappedReader{rc: body, left: maxBytes}
			return next(c)
		}
	}
}

// cappedReader fails the first read that would push the running total
// past the cap. Content-Length lies, so the stream is guarded too.
type cappedReader struct {
	rc   io.ReadCloser
	left int64
}

func (r *cappedReader) Read(p []byte) (int, error) {
	if r.left < 0 {
		return 0, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
	}
	if int64(len(p)) > r.left+1 {
		p = p[:r.left+1]
	}
	n, err := r.rc.Read(p)
	r.left -= int64(n)
	if r.left < 0 {
		return 0, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
	}
	return n, err
}

func (r *cappedReader) Close() error { return r.rc.Close() }

func parseSize(s string) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	var unit int64 = 1
	switch {
	case strings.HasSuffix(s, "G"):
		unit = 1 << 30
		s = strings.TrimSuffix(s, "G")
	case strings.HasSuffix(s, "M"):
		unit = 1 << 20
		s = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "K"):
		unit = 1 << 10
		s = strings.TrimSuffix(s, "K")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 1 << 20
	}
	return n * unit
}
