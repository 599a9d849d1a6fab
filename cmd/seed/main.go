// Seed tool: fills the database with demo users, groups and posts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/anonto42/yatube/pkg/config"
	"golang.org/x/crypto/bcrypt"
)

var words = strings.Fields(`lorem ipsum dolor sit amet consectetur adipiscing elit sed do
eiusmod tempor incididunt ut labore et dolore magna aliqua enim ad minim veniam quis
nostrud exercitation ullamco laboris nisi aliquip ex ea commodo consequat`)

func main() {
	var numUsers, numGroups, numPosts, batchSize int
	var password string
	flag.IntVar(&numUsers, "users", 10, "number of users")
	flag.IntVar(&numGroups, "groups", 3, "number of groups")
	flag.IntVar(&numPosts, "posts", 200, "number of posts to insert")
	flag.IntVar(&batchSize, "batch", 100, "insert batch size")
	flag.StringVar(&password, "password", "password123", "password for every seeded user")
	flag.Parse()

	if numUsers < 1 || batchSize < 1 {
		log.Fatal("users and batch must be positive")
	}

	cfg := config.Load()
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	if err := models.AutoMigrate(db.Postgres); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}

	ctx := context.Background()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	start := time.Now()
	if err := seed(ctx, r, db, numUsers, numGroups, numPosts, batchSize, password); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	log.Printf("done in %s", time.Since(start).Truncate(time.Millisecond))
}

func seed(ctx context.Context, r *rand.Rand, db *config.DB, numUsers, numGroups, numPosts, batchSize int, password string) error {
	users := repositories.NewPostgresUserRepository(db.Postgres)
	groups := repositories.NewPostgresGroupRepository(db.Postgres)
	posts := repositories.NewPostgresPostRepository(db.Postgres)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	suffix := time.Now().Format("0102150405")
	authorIDs := make([]uint, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		user := &models.User{
			Username:  fmt.Sprintf("user%d_%s", i+1, suffix),
			FirstName: "Demo",
			LastName:  fmt.Sprintf("User %d", i+1),
			Password:  string(hash),
		}
		if err := users.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("create user %s: %w", user.Username, err)
		}
		authorIDs = append(authorIDs, user.ID)
	}
	log.Printf("created %d users", len(authorIDs))

	groupIDs := make([]uint, 0, numGroups)
	for i := 0; i < numGroups; i++ {
		group := &models.Group{
			Title:       fmt.Sprintf("Group %d", i+1),
			Slug:        fmt.Sprintf("group-%d-%s", i+1, suffix),
			Description: makeText(r, 20),
		}
		if err := groups.CreateGroup(ctx, group); err != nil {
			return fmt.Errorf("create group %s: %w", group.Slug, err)
		}
		groupIDs = append(groupIDs, group.ID)
	}
	log.Printf("created %d groups", len(groupIDs))

	// Spread publication dates over the last year.
	now := time.Now()
	yearAgo := now.Add(-365 * 24 * time.Hour)
	batch := make([]models.Post, 0, batchSize)
	flush := func() error {
		if err := posts.CreatePosts(ctx, batch, batchSize); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
		batch = batch[:0]
		return nil
	}
	for i := 0; i < numPosts; i++ {
		post := models.Post{
			Text:     makeText(r, 10+r.Intn(40)),
			AuthorID: authorIDs[r.Intn(len(authorIDs))],
			PubDate:  yearAgo.Add(time.Duration(r.Int63n(int64(now.Sub(yearAgo))))),
		}
		if len(groupIDs) > 0 && r.Intn(3) > 0 {
			id := groupIDs[r.Intn(len(groupIDs))]
			post.GroupID = &id
		}
		batch = append(batch, post)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	log.Printf("created %d posts", numPosts)
	return nil
}

func makeText(r *rand.Rand, n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = words[r.Intn(len(words))]
	}
	return strings.Join(out, " ")
}
