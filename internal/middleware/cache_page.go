package middleware

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/anonto42/yatube/internal/cache"
	"github.com/labstack/echo/v4"
)

// csrfContextKey is where echo's CSRF middleware stores the request token.
const csrfContextKey = "csrf"

type bodyRecorder struct {
	http.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// CachePage serves successful GET responses from store for ttl. Entries are
// keyed by prefix, viewer and request URI, so logged-in users never see a page
// rendered for someone else. Pages for logged-in users carry a CSRF token, so
// their key also includes the token of the requesting browser.
func CachePage(store cache.Cache, ttl time.Duration, prefix string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet && req.Method != http.MethodHead {
				return next(c)
			}

			var viewer uint
			var token string
			if user := CurrentUser(c); user != nil {
				viewer = user.ID
				token, _ = c.Get(csrfContextKey).(string)
			}
			key := fmt.Sprintf("%s:%d:%s:%s", prefix, viewer, token, req.URL.RequestURI())
			ctx := req.Context()

			entry, ok, err := store.Get(ctx, key)
			if err != nil {
				log.Printf("page cache get %s: %v", req.URL.RequestURI(), err)
			}
			if ok {
				return c.Blob(entry.Status, entry.ContentType, entry.Body)
			}

			res := c.Response()
			rec := &bodyRecorder{ResponseWriter: res.Writer, body: new(bytes.Buffer)}
			res.Writer = rec
			if err := next(c); err != nil {
				return err
			}
			if res.Status != http.StatusOK || req.Method != http.MethodGet {
				return nil
			}
			entry = &cache.Entry{
				Status:      res.Status,
				ContentType: res.Header().Get(echo.HeaderContentType),
				Body:        rec.body.Bytes(),
			}
			if err := store.Set(ctx, key, entry, ttl); err != nil {
				log.Printf("page cache set %s: %v", req.URL.RequestURI(), err)
			}
			return nil
		}
	}
}
