package handlers

import (
	"net/http"

	"github.com/anonto42/yatube/internal/repositories"
	"github.com/labstack/echo/v4"
)

// GroupHandler serves the per-group post listings.
type GroupHandler struct {
	groupRepository repositories.GroupRepository
	postRepository  repositories.PostRepository
	perPage         int
}

func NewGroupHandler(groupRepo repositories.GroupRepository, postRepo repositories.PostRepository, perPage int) *GroupHandler {
	return &GroupHandler{
		groupRepository: groupRepo,
		postRepository:  postRepo,
		perPage:         perPage,
	}
}

func (h *GroupHandler) RegisterGroupRoutes(e *echo.Echo) {
	e.GET("/group/:slug/", h.GroupPosts)
}

// GroupPosts lists the posts filed under the group with the given slug.
func (h *GroupHandler) GroupPosts(c echo.Context) error {
	group, err := h.groupRepository.GetGroupBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return lookupError(err, "Group")
	}
	page, err := paginatePosts(c, h.postRepository, repositories.PostFilter{GroupID: group.ID}, h.perPage)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, templateGroupList, echo.Map{
		"Group": group,
		"Page":  page,
	})
}
