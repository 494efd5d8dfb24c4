package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/expohall/expoadmin-backend/internal/apperr"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondOK(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func RespondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorEnvelope{Error: APIError{Code: code, Message: message}})
}

// RespondAppError maps the service error taxonomy onto the wire envelope.
func RespondAppError(c *gin.Context, err error) {
	RespondError(c, apperr.HTTPStatus(err), apperr.Code(err), err.Error())
}
