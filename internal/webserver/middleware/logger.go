package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
)

// Logger returns a middleware that logs every handled request.
func Logger(log logger.Logger) echo.MiddlewareFunc {
	log = log.WithPrefix("[http]")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			start := time.Now()

			err = next(c)
			if err != nil {
				c.Error(err)
			}

			r := c.Request()
			log.Infof("%s %s (%d) %s", r.Method, r.URL.Path, c.Response().Status, time.Since(start))
			return nil
		}
	}
}
