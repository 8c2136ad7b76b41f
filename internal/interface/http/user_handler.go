package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fastbb/internal/application"
	"github.com/oksasatya/fastbb/internal/interface/middleware"
	"github.com/oksasatya/fastbb/pkg/response"
	"github.com/oksasatya/fastbb/pkg/validation"
)

const maxAvatarBytes = 2 << 20

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

func (h *UserHandler) List(c *gin.Context) {
	q, err := bindPage(c)
	if err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	users, err := h.Svc.List(c.Request.Context(), q.Skip, q.Limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, users, "users", q.meta(len(users)))
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.Svc.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, u, "user", nil)
}

// UploadAvatar accepts a multipart "avatar" image for the current user.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Abort(c, http.StatusBadRequest, "avatar file is required", nil)
		return
	}
	if fh.Size > maxAvatarBytes {
		response.Abort(c, http.StatusBadRequest, "avatar must be at most 2MB", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	defer func() { _ = f.Close() }()

	contentType := fh.Header.Get("Content-Type")
	if mt, _, ok := strings.Cut(contentType, ";"); ok {
		contentType = mt
	}
	u, err := h.Svc.UploadAvatar(c.Request.Context(), middleware.CurrentUser(c), f, fh.Filename, strings.TrimSpace(contentType))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, u, "avatar updated", nil)
}
