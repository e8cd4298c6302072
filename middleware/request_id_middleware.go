package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"doc-retriever/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID extracts or generates a request id and puts it on the context logger.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), requestID)))
			c.Response().Header().Set(RequestIDHeader, requestID)

			return next(c)
		}
	}
}
