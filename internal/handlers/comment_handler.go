package handlers

import (
	"net/http"

	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/anonto42/yatube/internal/sanitize"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(e *echo.Echo, loginRequired echo.MiddlewareFunc) {
	e.Match([]string{http.MethodGet, http.MethodPost}, "/posts/:post_id/comment/", h.AddComment, loginRequired)
}

// AddComment stores a valid comment on the post. The response is always a
// redirect back to the post page; an invalid form is simply dropped.
func (h *CommentHandler) AddComment(c echo.Context) error {
	postID, err := parseID(c, "post_id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return lookupError(err, "Post")
	}

	var req models.CommentForm
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form data")
	}
	req.Text = sanitize.Text(req.Text)
	if err := c.Validate(&req); err == nil {
		comment := &models.Comment{
			Text:     req.Text,
			AuthorID: middleware.CurrentUser(c).ID,
			PostID:   post.ID,
		}
		if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Redirect(http.StatusFound, postURL(post.ID))
}
