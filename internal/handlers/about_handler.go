package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func RegisterAboutRoutes(e *echo.Echo) {
	e.GET("/about/author/", AboutAuthor)
	e.GET("/about/tech/", AboutTech)
}

func AboutAuthor(c echo.Context) error {
	return c.Render(http.StatusOK, templateAbout, nil)
}

func AboutTech(c echo.Context) error {
	return c.Render(http.StatusOK, templateTech, nil)
}
