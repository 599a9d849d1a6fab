package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/yatube/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))
	return db
}

type repos struct {
	users    *PostgresUserRepository
	groups   *PostgresGroupRepository
	posts    *PostgresPostRepository
	comments *PostgresCommentRepository
	follows  *PostgresFollowRepository
}

func newRepos(db *gorm.DB) repos {
	return repos{
		users:    NewPostgresUserRepository(db),
		groups:   NewPostgresGroupRepository(db),
		posts:    NewPostgresPostRepository(db),
		comments: NewPostgresCommentRepository(db),
		follows:  NewPostgresFollowRepository(db),
	}
}

func mustUser(t *testing.T, r repos, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Password: "x"}
	require.NoError(t, r.users.CreateUser(context.Background(), u))
	return u
}

func TestUsernameIsUnique(t *testing.T) {
	r := newRepos(openTestDB(t))
	mustUser(t, r, "leo")
	err := r.users.CreateUser(context.Background(), &models.User{Username: "leo"})
	assert.Error(t, err)
}

func TestGetMissingRecords(t *testing.T) {
	r := newRepos(openTestDB(t))
	ctx := context.Background()

	_, err := r.users.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = r.groups.GetGroupBySlug(ctx, "nothing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = r.posts.GetPostByID(ctx, 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPostStringIsShortPreview(t *testing.T) {
	post := models.Post{Text: "Съешь же ещё этих мягких французских булок"}
	assert.Equal(t, "Съешь же ещё эт", post.String())
	assert.Equal(t, "Группа", models.Group{Title: "Группа"}.String())
}

func TestListPostsFiltersAndOrder(t *testing.T) {
	r := newRepos(openTestDB(t))
	ctx := context.Background()
	leo := mustUser(t, r, "leo")
	anna := mustUser(t, r, "anna")
	group := &models.Group{Title: "Классика", Slug: "classic"}
	require.NoError(t, r.groups.CreateGroup(ctx, group))

	base := time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC)
	posts := []models.Post{
		{Text: "old", AuthorID: leo.ID, GroupID: &group.ID, PubDate: base},
		{Text: "middle", AuthorID: anna.ID, PubDate: base.Add(time.Hour)},
		{Text: "new", AuthorID: leo.ID, PubDate: base.Add(2 * time.Hour)},
	}
	require.NoError(t, r.posts.CreatePosts(ctx, posts, 2))

	all, err := r.posts.ListPosts(ctx, PostFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"new", "middle", "old"}, []string{all[0].Text, all[1].Text, all[2].Text})
	assert.Equal(t, "leo", all[0].Author.Username)

	byGroup, err := r.posts.ListPosts(ctx, PostFilter{GroupID: group.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, byGroup, 1)
	assert.Equal(t, "old", byGroup[0].Text)
	assert.Equal(t, "classic", byGroup[0].Group.Slug)

	n, err := r.posts.CountPosts(ctx, PostFilter{AuthorID: leo.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	window, err := r.posts.ListPosts(ctx, PostFilter{}, 1, 1)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "middle", window[0].Text)
}

func TestFollowFilter(t *testing.T) {
	r := newRepos(openTestDB(t))
	ctx := context.Background()
	leo := mustUser(t, r, "leo")
	anna := mustUser(t, r, "anna")
	reader := mustUser(t, r, "reader")
	require.NoError(t, r.posts.CreatePost(ctx, &models.Post{Text: "by leo", AuthorID: leo.ID}))
	require.NoError(t, r.posts.CreatePost(ctx, &models.Post{Text: "by anna", AuthorID: anna.ID}))

	_, err := r.follows.Follow(ctx, reader.ID, leo.ID)
	require.NoError(t, err)

	feed, err := r.posts.ListPosts(ctx, PostFilter{FollowerID: reader.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "by leo", feed[0].Text)

	n, err := r.posts.CountPosts(ctx, PostFilter{FollowerID: anna.ID})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFollowIsGetOrCreate(t *testing.T) {
	r := newRepos(openTestDB(t))
	ctx := context.Background()
	leo := mustUser(t, r, "leo")
	reader := mustUser(t, r, "reader")

	created, err := r.follows.Follow(ctx, reader.ID, leo.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = r.follows.Follow(ctx, reader.ID, leo.ID)
	require.NoError(t, err)
	assert.False(t, created)

	following, err := r.follows.IsFollowing(ctx, reader.ID, leo.ID)
	require.NoError(t, err)
	assert.True(t, following)
	following, err = r.follows.IsFollowing(ctx, leo.ID, reader.ID)
	require.NoError(t, err)
	assert.False(t, following)

	followers, err := r.follows.GetFollowersCount(ctx, leo.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)

	require.NoError(t, r.follows.Unfollow(ctx, reader.ID, leo.ID))
	require.NoError(t, r.follows.Unfollow(ctx, reader.ID, leo.ID))
	followers, err = r.follows.GetFollowersCount(ctx, leo.ID)
	require.NoError(t, err)
	assert.Zero(t, followers)
}

func TestUpdatePost(t *testing.T) {
	r := newRepos(openTestDB(t))
	ctx := context.Background()
	leo := mustUser(t, r, "leo")
	group := &models.Group{Title: "Классика", Slug: "classic"}
	require.NoError(t, r.groups.CreateGroup(ctx, group))
	post := &models.Post{Text: "draft", AuthorID: leo.ID, GroupID: &group.ID, Image: "posts/a.gif"}
	require.NoError(t, r.posts.CreatePost(ctx, post))

	post.Text = "final"
	post.GroupID = nil
	post.Image = ""
	require.NoError(t, r.posts.UpdatePost(ctx, post))

	got, err := r.posts.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Text)
	assert.Nil(t, got.GroupID)
	assert.Nil(t, got.Group)
	assert.Empty(t, got.Image)
	assert.Equal(t, post.PubDate.Unix(), got.PubDate.Unix())
}

func TestDeletingGroupKeepsPosts(t *testing.T) {
	db := openTestDB(t)
	r := newRepos(db)
	ctx := context.Background()
	leo := mustUser(t, r, "leo")
	group := &models.Group{Title: "Классика", Slug: "classic"}
	require.NoError(t, r.groups.CreateGroup(ctx, group))
	post := &models.Post{Text: "in group", AuthorID: leo.ID, GroupID: &group.ID}
	require.NoError(t, r.posts.CreatePost(ctx, post))

	require.NoError(t, db.Delete(group).Error)

	got, err := r.posts.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)
}

func TestDeletingAuthorCascades(t *testing.T) {
	db := openTestDB(t)
	r := newRepos(db)
	ctx := context.Background()
	leo := mustUser(t, r, "leo")
	reader := mustUser(t, r, "reader")
	post := &models.Post{Text: "doomed", AuthorID: leo.ID}
	require.NoError(t, r.posts.CreatePost(ctx, post))
	require.NoError(t, r.comments.CreateComment(ctx, &models.Comment{Text: "hi", AuthorID: reader.ID, PostID: post.ID}))
	_, err := r.follows.Follow(ctx, reader.ID, leo.ID)
	require.NoError(t, err)

	require.NoError(t, db.Delete(leo).Error)

	_, err = r.posts.GetPostByID(ctx, post.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	n, err := r.comments.CountCommentsByPostID(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	following, err := r.follows.GetFollowingCount(ctx, reader.ID)
	require.NoError(t, err)
	assert.Zero(t, following)
}

func TestCommentsNewestFirst(t *testing.T) {
	r := newRepos(openTestDB(t))
	ctx := context.Background()
	leo := mustUser(t, r, "leo")
	post := &models.Post{Text: "topic", AuthorID: leo.ID}
	require.NoError(t, r.posts.CreatePost(ctx, post))

	base := time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, r.comments.CreateComment(ctx, &models.Comment{Text: "first", AuthorID: leo.ID, PostID: post.ID, Created: base}))
	require.NoError(t, r.comments.CreateComment(ctx, &models.Comment{Text: "second", AuthorID: leo.ID, PostID: post.ID, Created: base.Add(time.Minute)}))

	comments, err := r.comments.GetCommentsByPostID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Text)
	assert.Equal(t, "leo", comments[0].Author.Username)
}

func TestListGroupsByTitle(t *testing.T) {
	r := newRepos(openTestDB(t))
	ctx := context.Background()
	require.NoError(t, r.groups.CreateGroup(ctx, &models.Group{Title: "Б", Slug: "b"}))
	require.NoError(t, r.groups.CreateGroup(ctx, &models.Group{Title: "А", Slug: "a"}))

	groups, err := r.groups.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "a", groups[0].Slug)

	dup := r.groups.CreateGroup(ctx, &models.Group{Title: "В", Slug: "a"})
	assert.Error(t, dup)
}

func TestFollowIndexes(t *testing.T) {
	db := openTestDB(t)
	m := db.Migrator()
	assert.True(t, m.HasIndex(&models.Follow{}, "idx_follow_user_author"))
	assert.True(t, m.HasIndex(&models.Follow{}, "idx_follows_author_id"))
	assert.False(t, m.HasIndex(&models.Follow{}, "idx_follows_user_id"))
}
