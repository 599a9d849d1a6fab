package config

import (
	"log"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupMiddleware installs the request-independent middleware: trailing-slash
// redirects, request logging and panic recovery.
func SetupMiddleware(e *echo.Echo, cfg *Config) {
	e.Pre(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: 301,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, strings.TrimSuffix(cfg.MediaURL, "/")+"/") ||
				c.Request().URL.Path == "/health"
		},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Printf("%s %s -> %d (%s): %v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			log.Printf("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())
}
