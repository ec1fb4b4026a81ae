package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

var statusByCode = map[string]int{
	CodeInvalidDate:       http.StatusBadRequest,
	CodeOutOfHours:        http.StatusBadRequest,
	CodeInvalidDuration:   http.StatusBadRequest,
	CodeInvalidService:    http.StatusBadRequest,
	CodeInvalidResource:   http.StatusBadRequest,
	CodeInvalidRequest:    http.StatusBadRequest,
	CodeSlotConflict:      http.StatusConflict,
	CodeFullyBooked:       http.StatusConflict,
	CodeInvalidTransition: http.StatusConflict,
	CodeAlreadyWaiting:    http.StatusConflict,
	CodeTimeout:           http.StatusServiceUnavailable,
	CodeUnauthorized:      http.StatusForbidden,
	CodeNotFound:          http.StatusNotFound,
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

// Respond traduz qualquer erro vindo da fachada para a resposta HTTP.
func Respond(c *gin.Context, err error) {
	if be, ok := AsBusiness(err); ok {
		status, known := statusByCode[be.Code]
		if !known {
			status = http.StatusBadRequest
		}
		Write(c, status, be.Code, be.Message)
		return
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		NotFound(c, CodeNotFound, defaultMessages[CodeNotFound])
		return
	}

	Internal(c, "internal_error", "Erro interno.")
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}
