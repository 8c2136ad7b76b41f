package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fastbb/internal/application"
	"github.com/oksasatya/fastbb/pkg/response"
)

// writeError maps application errors onto HTTP statuses. Anything it does not
// recognise is logged and reported as a generic 500.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	var verr *application.ValidationError
	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		response.Abort(c, http.StatusUnauthorized, "incorrect username or password", nil)
	case errors.Is(err, application.ErrInactiveUser):
		response.Abort(c, http.StatusUnauthorized, "inactive user", nil)
	case errors.Is(err, application.ErrUnauthorized):
		response.Abort(c, http.StatusUnauthorized, "could not validate credentials", nil)
	case errors.Is(err, application.ErrForbidden):
		response.Abort(c, http.StatusForbidden, "not enough permissions", nil)
	case errors.Is(err, application.ErrNotFound):
		response.Abort(c, http.StatusNotFound, detail(err, application.ErrNotFound), nil)
	case errors.Is(err, application.ErrConflict):
		response.Abort(c, http.StatusConflict, detail(err, application.ErrConflict), nil)
	case errors.As(err, &verr):
		response.Abort(c, http.StatusBadRequest, verr.Msg, nil)
	case errors.Is(err, application.ErrStorageUnavailable):
		response.Abort(c, http.StatusServiceUnavailable, "file storage is not configured", nil)
	default:
		if logger != nil {
			logger.WithError(err).WithField("path", c.FullPath()).WithField("request_id", c.GetString("request_id")).Error("request failed")
		}
		response.Abort(c, http.StatusInternalServerError, "internal server error", nil)
	}
}

// detail drops the "kind: " prefix of a wrapped sentinel.
func detail(err, kind error) string {
	return strings.TrimPrefix(err.Error(), kind.Error()+": ")
}
