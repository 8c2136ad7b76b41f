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

type AuthHandler struct {
	Svc    *application.AuthService
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,username"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required,pwd"`
}

// loginRequest binds from JSON or from an OAuth2-style password form.
type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusCreated, u, "user registered", nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	tok, err := h.Svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, tok, "login successful", nil)
}

// Me returns the user resolved from the bearer token.
func (h *AuthHandler) Me(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		writeError(c, h.Logger, application.ErrUnauthorized)
		return
	}
	response.OK(c, http.StatusOK, u, "current user", nil)
}
