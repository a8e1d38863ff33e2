package middleware

import (
	"fmt"
	"net/http"

	"github.com/covestore/cove/internal/webserver/weberror"
	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
)

// NewHTTPErrorHandler returns Echo's centralized error handler. Every error
// that escapes a handler is normalized to a weberror payload so clients
// always receive the same JSON shape with a kind and a message.
func NewHTTPErrorHandler(log logger.Logger) func(err error, c echo.Context) {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		werr, ok := err.(*weberror.Error)
		if !ok {
			werr = normalize(err)
		}
		log.Error(werr)

		if err := c.JSON(werr.HTTPCode(), werr); err != nil {
			log.Errorf("HTTPErrorHandler: %s", err)
		}
	}
}

// normalize converts router errors and unexpected failures to the payload
// format. Unknown errors are infrastructure faults.
func normalize(err error) *weberror.Error {
	code := http.StatusInternalServerError
	message := err.Error()

	if herr, ok := err.(*echo.HTTPError); ok {
		code = herr.Code
		message = fmt.Sprintf("%v", herr.Message)
	}

	return weberror.New(code, message).(*weberror.Error)
}
