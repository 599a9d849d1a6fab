package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	// UserKey is the echo context key holding the authenticated *models.User.
	UserKey = "user"

	sessionUserIDKey = "user_id"
)

// Authenticate resolves the current user from the session cookie or, failing
// that, from a bearer token. Anonymous requests pass through untouched.
func Authenticate(sessions *scs.SessionManager, users repositories.UserRepository, jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			userID := uint(sessions.GetInt64(ctx, sessionUserIDKey))
			if userID == 0 {
				tokenString, present, err := bearerToken(c)
				if err != nil {
					return err
				}
				if present {
					claims, err := ParseToken(jwtSecret, tokenString)
					if err != nil {
						return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
					}
					userID = claims.UserID
				}
			}
			if userID == 0 {
				return next(c)
			}

			user, err := users.GetUserByID(ctx, userID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// Account removed since login.
					sessions.Remove(ctx, sessionUserIDKey)
					return next(c)
				}
				return err
			}
			c.Set(UserKey, user)
			return next(c)
		}
	}
}

// LoginRequired redirects anonymous requests to loginURL?next=<requested path>.
func LoginRequired(loginURL string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) == nil {
				return c.Redirect(http.StatusFound, LoginRedirectURL(loginURL, c.Request().URL.RequestURI()))
			}
			return next(c)
		}
	}
}

// LoginRedirectURL builds loginURL?next=<target> keeping slashes readable.
func LoginRedirectURL(loginURL, target string) string {
	return loginURL + "?next=" + strings.ReplaceAll(url.QueryEscape(target), "%2F", "/")
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(UserKey).(*models.User)
	return user
}

// Login binds user to a fresh session token.
func Login(ctx context.Context, sessions *scs.SessionManager, user *models.User) error {
	if err := sessions.RenewToken(ctx); err != nil {
		return err
	}
	sessions.Put(ctx, sessionUserIDKey, int64(user.ID))
	return nil
}

// Logout drops the session entirely.
func Logout(ctx context.Context, sessions *scs.SessionManager) error {
	return sessions.Destroy(ctx)
}

// SafeRedirect returns next when it is a local path and fallback otherwise.
func SafeRedirect(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}
