package middleware

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/context"
)

// HeaderUserID carries the acting user. It is recorded as created_by.
const HeaderUserID = "X-User-ID"

// Context stamps the request id and acting user onto the request context and
// echoes the request id back to the caller.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := strings.TrimSpace(req.Header.Get(echo.HeaderXRequestID))
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			ctx := context.SetRequestID(req.Context(), requestID)
			ctx = context.SetUserID(ctx, strings.TrimSpace(req.Header.Get(HeaderUserID)))
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
