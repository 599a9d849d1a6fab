package main

import (
	"context"
	"log"

	"github.com/anonto42/yatube/internal/cache"
	"github.com/anonto42/yatube/internal/router"
	"github.com/anonto42/yatube/internal/storage"
	"github.com/anonto42/yatube/internal/views"
	"github.com/anonto42/yatube/pkg/config"
	"github.com/anonto42/yatube/pkg/firebase"
	"github.com/anonto42/yatube/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	ctx := context.Background()

	// Page cache: MongoDB when configured, memory otherwise
	var pageCache cache.Cache = cache.NewMemoryCache(cfg.PageCacheMaxEntries, cfg.IndexCacheTTL)
	if db.Mongo != nil {
		mongoCache, err := cache.NewMongoCache(ctx, db.Mongo.Database(cfg.MongoDatabase))
		if err != nil {
			log.Fatalf("Failed to initialize page cache: %v", err)
		}
		pageCache = mongoCache
	}

	// Image storage: Firebase bucket when configured, local media directory otherwise
	var images storage.ImageStore
	if cfg.FirebaseCredentialsPath != "" && cfg.FirebaseBucket != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseBucket)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		images = storage.NewBucketStore(firebaseApp.Bucket, firebaseApp.BucketName)
	} else {
		local, err := storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
		if err != nil {
			log.Fatalf("Failed to initialize media storage: %v", err)
		}
		images = local
	}

	renderer, err := views.NewRenderer(images.URL)
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.Validator = validators.NewValidator()

	svc := router.Services{
		Sessions: router.NewSessionManager(cfg),
		Cache:    pageCache,
		Images:   images,
	}

	// Setup global middleware
	router.SetupMiddleware(e, cfg, db.Postgres, svc)

	// Setup routes and dependencies
	router.SetupRoutes(e, cfg, db.Postgres, svc)

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
