package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/paginator"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Template names, relative to the embedded templates directory.
const (
	templateIndex      = "posts/index.html"
	templateGroupList  = "posts/group_list.html"
	templateProfile    = "posts/profile.html"
	templatePostDetail = "posts/post_page.html"
	templatePostForm   = "posts/update_post.html"
	templateFollow     = "posts/follow.html"
	templateAbout      = "about/author.html"
	templateTech       = "about/tech.html"
	templateSignup     = "users/signup.html"
	templateLogin      = "users/login.html"
	templateLoggedOut  = "users/logged_out.html"
	templateNotFound   = "core/404.html"
	templateCSRF       = "core/403csrf.html"
	templateServer     = "core/500.html"
)

// PostFormView is what the post form template renders: current values, the
// group choices and per-field errors.
type PostFormView struct {
	Text    string
	GroupID uint
	Image   string
	Groups  []models.Group
	Errors  map[string]string
}

// Fields lists the form inputs in display order.
func (f *PostFormView) Fields() []string {
	return []string{"text", "group", "image"}
}

func (f *PostFormView) Valid() bool { return len(f.Errors) == 0 }

// CommentFormView backs the comment box on the post page.
type CommentFormView struct {
	Text   string
	Errors map[string]string
}

func (f *CommentFormView) Fields() []string { return []string{"text"} }

// SignupFormView backs users/signup.html.
type SignupFormView struct {
	Values models.SignupForm
	Errors map[string]string
}

// LoginFormView backs users/login.html.
type LoginFormView struct {
	Values models.LoginForm
	Errors map[string]string
}

// parseID reads a numeric path parameter. Anything else is a missing page.
func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Page not found")
	}
	return uint(id), nil
}

// lookupError maps gorm.ErrRecordNotFound to a 404 and anything else to a 500.
func lookupError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, what+" not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// paginatePosts loads the page selected by ?page= of the filtered posts.
func paginatePosts(c echo.Context, posts repositories.PostRepository, filter repositories.PostFilter, perPage int) (*paginator.Page[models.Post], error) {
	ctx := c.Request().Context()
	count, err := posts.CountPosts(ctx, filter)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	window := paginator.Resolve(c.QueryParam("page"), count, perPage)
	items, err := posts.ListPosts(ctx, filter, window.Offset(), window.Limit())
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return paginator.NewPage(window, items), nil
}

func profileURL(username string) string {
	return "/profile/" + username + "/"
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}
