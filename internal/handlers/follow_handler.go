package handlers

import (
	"log"
	"net/http"

	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FollowHandler serves author profiles, the follow feed and the
// follow/unfollow actions.
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
	postRepository   repositories.PostRepository
	perPage          int
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, postRepo repositories.PostRepository, perPage int) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
		postRepository:   postRepo,
		perPage:          perPage,
	}
}

// RegisterFollowRoutes registers profile and follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(e *echo.Echo, loginRequired echo.MiddlewareFunc) {
	methods := []string{http.MethodGet, http.MethodPost}
	e.GET("/profile/:username/", h.Profile)
	e.GET("/follow/", h.FollowIndex, loginRequired)
	e.Match(methods, "/profile/:username/follow/", h.ProfileFollow, loginRequired)
	e.Match(methods, "/profile/:username/unfollow/", h.ProfileUnfollow, loginRequired)
}

// Profile shows an author's posts and whether the viewer follows them.
func (h *FollowHandler) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	author, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		return lookupError(err, "User")
	}
	page, err := paginatePosts(c, h.postRepository, repositories.PostFilter{AuthorID: author.ID}, h.perPage)
	if err != nil {
		return err
	}

	following := false
	if viewer := middleware.CurrentUser(c); viewer != nil {
		if following, err = h.followRepository.IsFollowing(ctx, viewer.ID, author.ID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	followers, err := h.followRepository.GetFollowersCount(ctx, author.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	followingCount, err := h.followRepository.GetFollowingCount(ctx, author.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.Render(http.StatusOK, templateProfile, echo.Map{
		"Author":         author,
		"Page":           page,
		"Following":      following,
		"FollowersCount": followers,
		"FollowingCount": followingCount,
	})
}

// FollowIndex lists posts by the authors the current user follows.
func (h *FollowHandler) FollowIndex(c echo.Context) error {
	user := middleware.CurrentUser(c)
	page, err := paginatePosts(c, h.postRepository, repositories.PostFilter{FollowerID: user.ID}, h.perPage)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, templateFollow, echo.Map{"Page": page})
}

// ProfileFollow subscribes the current user to the author. Following yourself
// is silently ignored and following twice changes nothing.
func (h *FollowHandler) ProfileFollow(c echo.Context) error {
	user := middleware.CurrentUser(c)
	ctx := c.Request().Context()

	author, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		return lookupError(err, "User")
	}
	if author.ID != user.ID {
		created, err := h.followRepository.Follow(ctx, user.ID, author.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if created {
			log.Printf("%s now follows %s", user.Username, author.Username)
		}
	}
	return c.Redirect(http.StatusFound, profileURL(author.Username))
}

// ProfileUnfollow drops the subscription if there is one.
func (h *FollowHandler) ProfileUnfollow(c echo.Context) error {
	user := middleware.CurrentUser(c)
	ctx := c.Request().Context()

	author, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		return lookupError(err, "User")
	}
	if err := h.followRepository.Unfollow(ctx, user.ID, author.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Redirect(http.StatusFound, profileURL(author.Username))
}
