package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/yatube/internal/cache"
	"github.com/anonto42/yatube/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRedirectURL(t *testing.T) {
	assert.Equal(t, "/auth/login/?next=/create/", LoginRedirectURL("/auth/login/", "/create/"))
	assert.Equal(t, "/auth/login/?next=/follow/%3Fpage%3D2", LoginRedirectURL("/auth/login/", "/follow/?page=2"))
}

func TestSafeRedirect(t *testing.T) {
	tests := map[string]string{
		"":                      "/",
		"/create/":              "/create/",
		"//evil.example.com/":   "/",
		"https://evil.example/": "/",
		`/\evil.example.com`:    "/",
	}
	for next, want := range tests {
		assert.Equal(t, want, SafeRedirect(next, "/"), next)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	user := &models.User{ID: 7, Username: "leo"}
	token, err := GenerateToken("secret", user, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "leo", claims.Username)

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)

	expired, err := GenerateToken("secret", user, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.Error(t, err)
}

func TestLoginRequired(t *testing.T) {
	e := echo.New()
	handler := LoginRequired("/auth/login/")(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/follow/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login/?next=/follow/", rec.Header().Get(echo.HeaderLocation))

	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(UserKey, &models.User{ID: 1})
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCachePageServesStoredResponse(t *testing.T) {
	e := echo.New()
	store := cache.NewMemoryCache(100, time.Minute)
	calls := 0
	handler := CachePage(store, time.Minute, "index_page")(func(c echo.Context) error {
		calls++
		return c.HTML(http.StatusOK, "<p>page</p>")
	})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)))
		assert.Equal(t, "<p>page</p>", rec.Body.String())
	}
	assert.Equal(t, 1, calls)

	// Each viewer gets their own entry.
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.Set(UserKey, &models.User{ID: 3})
	require.NoError(t, handler(c))
	assert.Equal(t, 2, calls)

	rec = httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(httptest.NewRequest(http.MethodGet, "/?page=2", nil), rec)))
	assert.Equal(t, 3, calls)
}

func TestCachePageKeysOnCSRFToken(t *testing.T) {
	e := echo.New()
	store := cache.NewMemoryCache(100, time.Minute)
	handler := CachePage(store, time.Minute, "index_page")(func(c echo.Context) error {
		token, _ := c.Get("csrf").(string)
		return c.HTML(http.StatusOK, `<input name="csrfmiddlewaretoken" value="`+token+`">`)
	})
	render := func(userID uint, token string) string {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		if userID != 0 {
			c.Set(UserKey, &models.User{ID: userID})
		}
		c.Set("csrf", token)
		require.NoError(t, handler(c))
		return rec.Body.String()
	}

	first := render(7, "browser-a")
	assert.Contains(t, first, "browser-a")
	assert.Contains(t, render(7, "browser-b"), "browser-b", "second browser must not get the first browser's token")
	assert.Equal(t, first, render(7, "browser-a"))

	// Anonymous viewers share one entry.
	anon := render(0, "anon-1")
	assert.Equal(t, anon, render(0, "anon-2"))
}
