package handlers_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/yatube/internal/cache"
	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/paginator"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/anonto42/yatube/internal/router"
	"github.com/anonto42/yatube/internal/storage"
	"github.com/anonto42/yatube/internal/views"
	"github.com/anonto42/yatube/pkg/config"
	"github.com/anonto42/yatube/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// smallGIF is a 2x1 pixel GIF.
var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

type renderCall struct {
	Name string
	Data echo.Map
}

// recordingRenderer remembers every template rendered and delegates the
// actual output to the real renderer.
type recordingRenderer struct {
	next  echo.Renderer
	mu    sync.Mutex
	calls []renderCall
}

func (r *recordingRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	m, _ := data.(echo.Map)
	r.mu.Lock()
	r.calls = append(r.calls, renderCall{Name: name, Data: m})
	r.mu.Unlock()
	return r.next.Render(w, name, data, c)
}

func (r *recordingRenderer) last(t *testing.T) renderCall {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.calls, "nothing was rendered")
	return r.calls[len(r.calls)-1]
}

type testApp struct {
	e        *echo.Echo
	db       *gorm.DB
	cfg      *config.Config
	cache    *cache.MemoryCache
	renderer *recordingRenderer

	users    *repositories.PostgresUserRepository
	groups   *repositories.PostgresGroupRepository
	posts    *repositories.PostgresPostRepository
	comments *repositories.PostgresCommentRepository
	follows  *repositories.PostgresFollowRepository
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWith(t, nil)
}

// newTestAppWith lets configure adjust the config before the app is wired.
func newTestAppWith(t *testing.T, configure func(*config.Config)) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	cfg := &config.Config{
		Env:             "test",
		JWTSecret:       "test-secret",
		PostsPerPage:    10,
		IndexCacheTTL:   20 * time.Second,
		MediaRoot:       t.TempDir(),
		MediaURL:        "/media/",
		SessionLifetime: time.Hour,
		CSRFEnabled:     false,
		LoginURL:        "/auth/login/",
	}
	if configure != nil {
		configure(cfg)
	}

	images, err := storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
	require.NoError(t, err)
	pages, err := views.NewRenderer(images.URL)
	require.NoError(t, err)

	app := &testApp{
		e:        echo.New(),
		db:       db,
		cfg:      cfg,
		cache:    cache.NewMemoryCache(100, cfg.IndexCacheTTL),
		renderer: &recordingRenderer{next: pages},
		users:    repositories.NewPostgresUserRepository(db),
		groups:   repositories.NewPostgresGroupRepository(db),
		posts:    repositories.NewPostgresPostRepository(db),
		comments: repositories.NewPostgresCommentRepository(db),
		follows:  repositories.NewPostgresFollowRepository(db),
	}
	app.e.Renderer = app.renderer
	app.e.Validator = validators.NewValidator()

	svc := router.Services{
		Sessions: router.NewSessionManager(cfg),
		Cache:    app.cache,
		Images:   images,
	}
	router.SetupMiddleware(app.e, cfg, db, svc)
	router.SetupRoutes(app.e, cfg, db, svc)
	return app
}

func (a *testApp) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Username: username, Password: string(hash)}
	require.NoError(t, a.users.CreateUser(context.Background(), user))
	return user
}

func (a *testApp) createGroup(t *testing.T, title, slug string) *models.Group {
	t.Helper()
	group := &models.Group{Title: title, Slug: slug, Description: "Test description"}
	require.NoError(t, a.groups.CreateGroup(context.Background(), group))
	return group
}

func (a *testApp) createPost(t *testing.T, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	post := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		post.GroupID = &group.ID
	}
	require.NoError(t, a.posts.CreatePost(context.Background(), post))
	return post
}

func (a *testApp) countPosts(t *testing.T) int64 {
	t.Helper()
	n, err := a.posts.CountPosts(context.Background(), repositories.PostFilter{})
	require.NoError(t, err)
	return n
}

// request sends a request through the full middleware stack. A non-nil user is
// authenticated with a bearer token.
func (a *testApp) request(t *testing.T, method, target string, body io.Reader, contentType string, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if user != nil {
		token, err := middleware.GenerateToken(a.cfg.JWTSecret, user, time.Hour)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) get(t *testing.T, target string, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	return a.request(t, http.MethodGet, target, nil, "", user)
}

func (a *testApp) postForm(t *testing.T, target string, form url.Values, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	return a.request(t, http.MethodPost, target, strings.NewReader(form.Encode()), echo.MIMEApplicationForm, user)
}

func (a *testApp) postMultipart(t *testing.T, target string, fields map[string]string, filename string, content []byte, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return a.request(t, http.MethodPost, target, &buf, w.FormDataContentType(), user)
}

func pageOf(t *testing.T, call renderCall) *paginator.Page[models.Post] {
	t.Helper()
	page, ok := call.Data["Page"].(*paginator.Page[models.Post])
	require.True(t, ok, "context has no post page")
	return page
}

// fixture is one author with one post in one group.
type fixture struct {
	app    *testApp
	author *models.User
	group  *models.Group
	post   *models.Post
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	app := newTestApp(t)
	author := app.createUser(t, "auth")
	group := app.createGroup(t, "Тестовая группа", "test-slug")
	post := app.createPost(t, author, group, "Тестовый пост для проверки")
	return &fixture{app: app, author: author, group: group, post: post}
}
