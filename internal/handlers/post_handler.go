package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/anonto42/yatube/internal/sanitize"
	"github.com/anonto42/yatube/internal/storage"
	"github.com/anonto42/yatube/validators"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	msgInvalidGroup  = "Select a valid choice. That choice is not one of the available choices."
	msgClearConflict = "Please either submit a file or check the clear checkbox, not both."
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository    repositories.PostRepository
	groupRepository   repositories.GroupRepository
	commentRepository repositories.CommentRepository
	images            storage.ImageStore
	perPage           int
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, groupRepo repositories.GroupRepository, commentRepo repositories.CommentRepository, images storage.ImageStore, perPage int) *PostHandler {
	return &PostHandler{
		postRepository:    postRepo,
		groupRepository:   groupRepo,
		commentRepository: commentRepo,
		images:            images,
		perPage:           perPage,
	}
}

// RegisterPostRoutes registers post-related routes. indexCache wraps the
// front page only.
func (h *PostHandler) RegisterPostRoutes(e *echo.Echo, loginRequired, indexCache echo.MiddlewareFunc) {
	e.GET("/", h.Index, indexCache)
	e.GET("/posts/:post_id/", h.PostDetail)
	e.Match([]string{http.MethodGet, http.MethodPost}, "/create/", h.PostCreate, loginRequired)
	e.Match([]string{http.MethodGet, http.MethodPost}, "/posts/:post_id/edit/", h.PostEdit, loginRequired)
}

// Index lists every post, newest first.
func (h *PostHandler) Index(c echo.Context) error {
	page, err := paginatePosts(c, h.postRepository, repositories.PostFilter{}, h.perPage)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, templateIndex, echo.Map{"Page": page})
}

// PostDetail shows one post with its comments and an empty comment form.
func (h *PostHandler) PostDetail(c echo.Context) error {
	postID, err := parseID(c, "post_id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return lookupError(err, "Post")
	}
	comments, err := h.commentRepository.GetCommentsByPostID(ctx, post.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	authorPosts, err := h.postRepository.CountPosts(ctx, repositories.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.Render(http.StatusOK, templatePostDetail, echo.Map{
		"Post":             post,
		"Comments":         comments,
		"AuthorPostsCount": authorPosts,
		"Form":             &CommentFormView{Errors: map[string]string{}},
	})
}

// PostCreate shows the empty post form and publishes valid submissions as the
// current user.
func (h *PostHandler) PostCreate(c echo.Context) error {
	user := middleware.CurrentUser(c)
	ctx := c.Request().Context()

	groups, err := h.groupRepository.ListGroups(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	form := &PostFormView{Groups: groups, Errors: map[string]string{}}
	if c.Request().Method != http.MethodPost {
		return c.Render(http.StatusOK, templatePostForm, echo.Map{"Form": form, "IsEdit": false})
	}

	upload, err := h.bindPostForm(c, form)
	if err != nil {
		return err
	}
	if upload != nil {
		defer upload.Close()
	}
	if !form.Valid() {
		return c.Render(http.StatusOK, templatePostForm, echo.Map{"Form": form, "IsEdit": false})
	}

	post := &models.Post{Text: form.Text, AuthorID: user.ID, GroupID: groupRef(form.GroupID)}
	if upload != nil {
		if post.Image, err = h.images.Save(ctx, upload.filename, upload.content); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Redirect(http.StatusFound, profileURL(user.Username))
}

// PostEdit lets the author change a post. Everyone else is sent back to the
// post page.
func (h *PostHandler) PostEdit(c echo.Context) error {
	postID, err := parseID(c, "post_id")
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return lookupError(err, "Post")
	}
	if post.AuthorID != user.ID {
		return c.Redirect(http.StatusFound, postURL(post.ID))
	}

	groups, err := h.groupRepository.ListGroups(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	form := &PostFormView{Text: post.Text, Image: post.Image, Groups: groups, Errors: map[string]string{}}
	if post.GroupID != nil {
		form.GroupID = *post.GroupID
	}
	data := echo.Map{"Form": form, "IsEdit": true, "Post": post}
	if c.Request().Method != http.MethodPost {
		return c.Render(http.StatusOK, templatePostForm, data)
	}

	upload, err := h.bindPostForm(c, form)
	if err != nil {
		return err
	}
	if upload != nil {
		defer upload.Close()
	}
	if !form.Valid() {
		return c.Render(http.StatusOK, templatePostForm, data)
	}

	post.Text = form.Text
	post.GroupID = groupRef(form.GroupID)
	switch {
	case upload != nil:
		if post.Image, err = h.images.Save(ctx, upload.filename, upload.content); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	case form.Image == "":
		post.Image = ""
	}
	if err := h.postRepository.UpdatePost(ctx, post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Redirect(http.StatusFound, postURL(post.ID))
}

type imageUpload struct {
	filename string
	content  io.Reader
	file     multipart.File
}

func (u *imageUpload) Close() error { return u.file.Close() }

// bindPostForm fills form from the request and records field errors on it. The
// returned upload is non-nil only when a valid image was submitted.
func (h *PostHandler) bindPostForm(c echo.Context, form *PostFormView) (*imageUpload, error) {
	var req models.PostForm
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid form data")
	}
	req.Text = sanitize.Text(req.Text)
	form.Text = req.Text
	form.GroupID = 0

	if err := c.Validate(&req); err != nil {
		for field, msg := range validators.FieldErrors(err) {
			if field == "group" {
				msg = msgInvalidGroup
			}
			form.Errors[field] = msg
		}
	}

	if req.Group != "" && form.Errors["group"] == "" {
		id, err := strconv.ParseUint(req.Group, 10, 64)
		if err != nil {
			form.Errors["group"] = msgInvalidGroup
		} else if _, err := h.groupRepository.GetGroupByID(c.Request().Context(), uint(id)); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			form.Errors["group"] = msgInvalidGroup
		} else {
			form.GroupID = uint(id)
		}
	}

	upload, err := openImage(c)
	if err != nil {
		if errors.Is(err, storage.ErrNotImage) {
			form.Errors["image"] = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
			return nil, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ClearImage() {
		if upload != nil {
			upload.Close()
			form.Errors["image"] = msgClearConflict
			return nil, nil
		}
		form.Image = ""
	}
	return upload, nil
}

// openImage returns the "image" upload after checking its content really is an
// image. A request without a file yields nil.
func openImage(c echo.Context) (*imageUpload, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fh.Size == 0 {
		return nil, storage.ErrNotImage
	}
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	content, _, err := storage.SniffImage(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &imageUpload{filename: fh.Filename, content: content, file: file}, nil
}

func groupRef(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
