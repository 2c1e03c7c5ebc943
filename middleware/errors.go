package middleware

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"heritage-api/apperr"
	"heritage-api/logger"
)

// RespondError aborts the request with the status and message that match
// err. Server errors are logged and reported; their cause is never sent
// to the client.
func RespondError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status := apperr.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("request_id", GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": apperr.Message(err),
		"code":  code,
	})
}
