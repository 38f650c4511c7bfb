package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
)

// BindRequest binds path, query and body into T and validates it. Both kinds
// of failure answer 400.
func BindRequest[T any](c echo.Context) (T, error) {
	var v T

	if err := c.Bind(&v); err != nil {
		return v, httperror.NewHTTPError(http.StatusBadRequest, bindMessage(err))
	}

	v, err := Validate(v)
	if err != nil {
		return v, httperror.WrapError(http.StatusBadRequest, err)
	}
	return v, nil
}

// bindMessage prefers the decoder's reason over echo's generic message.
func bindMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			return fmt.Sprintf("Invalid request: %s", he.Internal.Error())
		}
		return fmt.Sprintf("Invalid request: %v", he.Message)
	}
	return fmt.Sprintf("Invalid request: %s", err.Error())
}
