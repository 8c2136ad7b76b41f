package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fastbb/internal/application"
	"github.com/oksasatya/fastbb/internal/interface/middleware"
	"github.com/oksasatya/fastbb/pkg/response"
	"github.com/oksasatya/fastbb/pkg/validation"
)

type CategoryHandler struct {
	Svc    *application.CategoryService
	Logger *logrus.Logger
}

func NewCategoryHandler(svc *application.CategoryService, logger *logrus.Logger) *CategoryHandler {
	return &CategoryHandler{Svc: svc, Logger: logger}
}

type createCategoryRequest struct {
	Name string `json:"name" binding:"required,category"`
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	cat, err := h.Svc.Create(c.Request.Context(), middleware.CurrentUser(c), req.Name)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusCreated, cat, "category created", nil)
}

func (h *CategoryHandler) List(c *gin.Context) {
	q, err := bindPage(c)
	if err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	cats, err := h.Svc.List(c.Request.Context(), q.Skip, q.Limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, cats, "categories", q.meta(len(cats)))
}
