package utils

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"auto-uc2-dashboard/api"
	"auto-uc2-dashboard/negotiation"
	"auto-uc2-dashboard/realtime"
	"auto-uc2-dashboard/services"
	"auto-uc2-dashboard/session"
)

// ConfirmHeader must be "true" on every destructive request.
const ConfirmHeader = "X-Confirm"

type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

// RespondSuccess writes a 200 envelope.
func RespondSuccess(c *gin.Context, data any, meta any) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: "success", Data: data, Meta: meta})
}

// RespondError maps err to a status and writes the error envelope.
func RespondError(c *gin.Context, err error) {
	status := StatusFor(err)
	c.AbortWithStatusJSON(status, Response{Code: status, Message: MessageFor(err)})
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotConfirmed):
		return http.StatusPreconditionRequired
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, negotiation.ErrEmptyMessage),
		errors.Is(err, negotiation.ErrNoSelection):
		return http.StatusBadRequest
	case errors.Is(err, negotiation.ErrSendInFlight), errors.Is(err, services.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, negotiation.ErrAttachmentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, realtime.ErrNotConnected):
		return http.StatusServiceUnavailable
	}
	if st := api.StatusOf(err); st >= 400 && st < 500 {
		return st
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func MessageFor(err error) string {
	return api.Message(err)
}

// Confirmed reports whether the request carries the confirmation header.
func Confirmed(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader(ConfirmHeader), "true")
}
