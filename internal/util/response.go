package util

import (
	"net/http"

	"edforge_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// EngineFailure maps the engine error taxonomy onto HTTP responses so
// every handler reports the same stable kinds to the client.
func EngineFailure(c *gin.Context, err error) {
	kind := Kind(err)
	status := http.StatusInternalServerError
	switch kind {
	case KindValidation, KindInvalidBlockType:
		status = http.StatusBadRequest
	case KindNotFound:
		status = http.StatusNotFound
	case KindAlreadyAttempted, KindAlreadySubmitted:
		status = http.StatusConflict
	case KindAuthorization:
		status = http.StatusForbidden
	}
	if status == http.StatusInternalServerError {
		logger.Log.Error("Internal server error", zap.Error(err))
		InternalServerError(c)
		return
	}
	c.JSON(status, Response{
		Code:    status,
		Message: err.Error(),
		Kind:    string(kind),
	})
}
