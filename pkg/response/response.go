package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope every JSON endpoint answers with.
type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data"`
	Meta      interface{} `json:"meta,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

// PageMeta describes the window of a list response.
type PageMeta struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
	Count int `json:"count"`
}

func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	return APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	}
}

func Error[T any](ctx *gin.Context, status int, message string, err interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	return APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     err,
	}
}

// OK writes a success envelope with the given status.
func OK[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) {
	res := Success(ctx, status, data, message, meta)
	ctx.JSON(res.Status, res)
}

// Abort writes an error envelope and stops the handler chain.
// 401 responses always carry a Bearer challenge.
func Abort(ctx *gin.Context, status int, message string, err interface{}) {
	res := Error[any](ctx, status, message, err)
	if res.Status == http.StatusUnauthorized {
		ctx.Header("WWW-Authenticate", "Bearer")
	}
	ctx.AbortWithStatusJSON(res.Status, res)
}
