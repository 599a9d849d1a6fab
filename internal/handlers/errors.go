package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// errorTemplates maps status codes to the page rendered for them.
var errorTemplates = map[int]string{
	http.StatusNotFound:            templateNotFound,
	http.StatusForbidden:           templateCSRF,
	http.StatusInternalServerError: templateServer,
}

// HTTPErrorHandler renders HTML error pages for browsers and falls back to
// echo's JSON errors for API clients and unmapped status codes.
func HTTPErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}
		if code == http.StatusInternalServerError {
			log.Printf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		}

		name, ok := errorTemplates[code]
		if !ok || wantsJSON(c.Request()) {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}
		if c.Request().Method == http.MethodHead {
			if rerr := c.NoContent(code); rerr != nil {
				log.Printf("write error response: %v", rerr)
			}
			return
		}
		if rerr := c.Render(code, name, nil); rerr != nil {
			log.Printf("render %s: %v", name, rerr)
			e.DefaultHTTPErrorHandler(err, c)
		}
	}
}

// CSRFError turns a failed CSRF check into the 403 page.
func CSRFError(err error, c echo.Context) error {
	return echo.NewHTTPError(http.StatusForbidden, "CSRF verification failed").SetInternal(err)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) ||
		strings.HasPrefix(r.URL.Path, "/auth/token/")
}
