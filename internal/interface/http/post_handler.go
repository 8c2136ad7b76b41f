package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fastbb/internal/application"
	"github.com/oksasatya/fastbb/internal/interface/middleware"
	"github.com/oksasatya/fastbb/pkg/response"
	"github.com/oksasatya/fastbb/pkg/validation"
)

type PostHandler struct {
	Svc    *application.PostService
	Logger *logrus.Logger
}

func NewPostHandler(svc *application.PostService, logger *logrus.Logger) *PostHandler {
	return &PostHandler{Svc: svc, Logger: logger}
}

type createPostRequest struct {
	Text     string `json:"text" binding:"required,posttext"`
	Category string `json:"category" binding:"required,category"`
	ParentID *int64 `json:"parent_id" binding:"omitempty,gt=0"`
}

type searchQuery struct {
	Q    string `form:"q" binding:"required"`
	Size int    `form:"size" binding:"gte=0,lte=50"`
}

func (h *PostHandler) Create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p, err := h.Svc.Create(c.Request.Context(), middleware.CurrentUser(c), application.CreatePostInput{
		Text:     req.Text,
		Category: req.Category,
		ParentID: req.ParentID,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusCreated, p, "post created", nil)
}

func (h *PostHandler) ListByCategory(c *gin.Context) {
	q, err := bindPage(c)
	if err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	posts, err := h.Svc.ListByCategory(c.Request.Context(), c.Param("name"), q.Skip, q.Limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, posts, "posts", q.meta(len(posts)))
}

func (h *PostHandler) ListByUser(c *gin.Context) {
	q, err := bindPage(c)
	if err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	posts, err := h.Svc.ListByUser(c.Request.Context(), c.Param("username"), q.Skip, q.Limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, posts, "posts", q.meta(len(posts)))
}

// Thread returns a post with its nested replies.
func (h *PostHandler) Thread(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Abort(c, http.StatusBadRequest, "invalid post id", nil)
		return
	}
	p, err := h.Svc.Thread(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, p, "post", nil)
}

func (h *PostHandler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	posts, err := h.Svc.Search(c.Request.Context(), q.Q, q.Size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, posts, "search results", map[string]any{"q": q.Q, "count": len(posts)})
}
