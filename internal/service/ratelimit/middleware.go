package ratelimit

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	xhttp "FinCast/pkg/http"
)

// Middleware rejects requests over the per-IP budget with 429 and a
// Retry-After header.
func Middleware(l *Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if l.Allow(key) {
				return next(c)
			}
			wait := l.RetryAfter(key)
			c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("Too many analysis requests, retry later."))
		}
	}
}
