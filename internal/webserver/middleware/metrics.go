package middleware

import (
	"strconv"

	"github.com/covestore/cove/internal/metrics"
	"github.com/covestore/cove/internal/webserver/weberror"
	"github.com/labstack/echo/v4"
)

// Metrics returns a middleware that counts requests per operation and status.
// The operation is the handler_method set by the handlers, so unrouted
// requests are not counted.
func Metrics(m *metrics.GatewayMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			err = next(c)

			operation, _ := c.Get("handler_method").(string)
			if operation == "" {
				return err
			}

			status := c.Response().Status
			if err != nil {
				status = weberror.StatusCode(err)
			}

			m.RequestsTotal.WithLabelValues(operation, strconv.Itoa(status)).Inc()
			return err
		}
	}
}
