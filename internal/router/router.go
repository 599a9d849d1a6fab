package router

import (
	"log"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/anonto42/yatube/internal/cache"
	"github.com/anonto42/yatube/internal/handlers"
	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/anonto42/yatube/internal/storage"
	"github.com/anonto42/yatube/pkg/config"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

// indexCachePrefix namespaces the front page entries in the page cache.
const indexCachePrefix = "index_page"

// Services are the stateful collaborators shared by all handlers.
type Services struct {
	Sessions *scs.SessionManager
	Cache    cache.Cache
	Images   storage.ImageStore
}

// NewSessionManager builds the cookie session manager for browsers.
func NewSessionManager(cfg *config.Config) *scs.SessionManager {
	sessions := scs.New()
	sessions.Lifetime = cfg.SessionLifetime
	sessions.Cookie.Name = "sessionid"
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.SameSite = http.SameSiteLaxMode
	sessions.Cookie.Secure = cfg.IsProduction()
	return sessions
}

// SetupMiddleware configures global Echo middleware: request logging, sessions,
// CSRF protection for forms and loading of the current user.
func SetupMiddleware(e *echo.Echo, cfg *config.Config, pgdb *gorm.DB, svc Services) {
	config.SetupMiddleware(e, cfg)
	e.Use(echo.WrapMiddleware(svc.Sessions.LoadAndSave))
	if cfg.CSRFEnabled {
		e.Use(eMiddleware.CSRFWithConfig(eMiddleware.CSRFConfig{
			Skipper: func(c echo.Context) bool {
				// Token clients do not carry cookies.
				return c.Request().Header.Get(echo.HeaderAuthorization) != "" ||
					strings.HasPrefix(c.Request().URL.Path, "/auth/token/")
			},
			TokenLookup:    "form:csrfmiddlewaretoken",
			CookieName:     "csrftoken",
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSameSite: http.SameSiteLaxMode,
			ErrorHandler:   handlers.CSRFError,
		}))
	}
	e.Use(middleware.Authenticate(svc.Sessions, repositories.NewPostgresUserRepository(pgdb), cfg.JWTSecret))
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, pgdb *gorm.DB, svc Services) {
	if err := models.AutoMigrate(pgdb); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("Auto-migrations completed for all models.")

	e.HTTPErrorHandler = handlers.HTTPErrorHandler(e)
	e.GET("/health", handlers.HealthCheck(pgdb))

	if local, ok := svc.Images.(*storage.LocalStore); ok {
		e.Static(strings.TrimSuffix(cfg.MediaURL, "/"), local.Root())
	}

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	groupRepo := repositories.NewPostgresGroupRepository(pgdb)
	postRepo := repositories.NewPostgresPostRepository(pgdb)
	commentRepo := repositories.NewPostgresCommentRepository(pgdb)
	followRepo := repositories.NewPostgresFollowRepository(pgdb)

	loginRequired := middleware.LoginRequired(cfg.LoginURL)
	indexCache := middleware.CachePage(svc.Cache, cfg.IndexCacheTTL, indexCachePrefix)

	// --- Authentication ---
	authHandler := handlers.NewAuthHandler(userRepo, svc.Sessions, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(e.Group("/auth"))
	log.Println("Auth routes configured.")

	// --- Posts ---
	postHandler := handlers.NewPostHandler(postRepo, groupRepo, commentRepo, svc.Images, cfg.PostsPerPage)
	postHandler.RegisterPostRoutes(e, loginRequired, indexCache)
	log.Println("Post routes configured.")

	groupHandler := handlers.NewGroupHandler(groupRepo, postRepo, cfg.PostsPerPage)
	groupHandler.RegisterGroupRoutes(e)
	log.Println("Group routes configured.")

	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo)
	commentHandler.RegisterCommentRoutes(e, loginRequired)
	log.Println("Comment routes configured.")

	// --- Profiles and follows ---
	followHandler := handlers.NewFollowHandler(followRepo, userRepo, postRepo, cfg.PostsPerPage)
	followHandler.RegisterFollowRoutes(e, loginRequired)
	log.Println("Follow routes configured.")

	handlers.RegisterAboutRoutes(e)
	log.Println("All routes configured.")
}
