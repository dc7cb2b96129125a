// Package handler contains the HTTP endpoints. Handlers bind and validate
// input, delegate to services, and translate domain errors into the single
// {"error": "..."} response shape.
package handler

import (
	"strings"

	"github.com/labstack/echo/v4"

	"medintake/internal/auth"
	apperrors "medintake/internal/errors"
)

// PayloadContextKey is where the auth middleware stores the verified token
// payload on the echo context.
const PayloadContextKey = "caller"

func caller(c echo.Context) (*auth.Payload, error) {
	payload, ok := c.Get(PayloadContextKey).(*auth.Payload)
	if !ok || payload == nil {
		return nil, apperrors.ErrInvalidToken
	}
	return payload, nil
}

// bearerToken returns the raw token from the Authorization header.
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
}

func writeError(c echo.Context, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return c.JSON(httpErr.StatusCode, apperrors.ErrorResponse{Error: httpErr.Message})
}
