package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// HealthCheck reports whether the service can reach its database.
func HealthCheck(db *gorm.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		status, database := http.StatusOK, "up"
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request().Context())
		}
		if err != nil {
			status, database = http.StatusServiceUnavailable, "down"
		}
		return c.JSON(status, map[string]string{
			"status":   http.StatusText(status),
			"service":  "yatube",
			"database": database,
		})
	}
}
