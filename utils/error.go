package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Details string   `json:"details,omitempty"`
	Unmet   []string `json:"unmet,omitempty"`
}

// CodedError is implemented by every domain error that is safe to show to a
// caller. Code is stable and machine readable.
type CodedError interface {
	error
	Code() string
}

// unmetLister is implemented by escrow release rejections.
type unmetLister interface {
	UnmetConditions() []string
}

// statusByCode maps domain error codes to HTTP statuses.
var statusByCode = map[string]int{
	"invalid_amount":         http.StatusBadRequest,
	"invalid_request":        http.StatusBadRequest,
	"not_found":              http.StatusNotFound,
	"forbidden":              http.StatusForbidden,
	"guard_failed":           http.StatusConflict,
	"conditions_not_met":     http.StatusConflict,
	"invalid_transition":     http.StatusConflict,
	"already_exists":         http.StatusConflict,
	"otp_mismatch":           http.StatusUnprocessableEntity,
	"otp_locked":             http.StatusLocked,
	"otp_not_issued":         http.StatusNotFound,
	"offer_already_resolved": http.StatusConflict,
	"freelancer_busy":        http.StatusConflict,
	"version_conflict":       http.StatusConflict,
	"unavailable":            http.StatusServiceUnavailable,
}

// HandleErrors is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// RespondError turns a service error into a JSON response. Coded errors are
// surfaced with their code and message; anything else is logged and hidden
// behind a generic 500.
func RespondError(c *gin.Context, err error) {
	var coded CodedError
	if errors.As(err, &coded) {
		status, ok := statusByCode[coded.Code()]
		if !ok {
			status = http.StatusBadRequest
		}
		resp := ErrorResponse{Message: coded.Error(), Code: coded.Code()}
		var unmet unmetLister
		if errors.As(err, &unmet) {
			resp.Unmet = unmet.UnmetConditions()
		}
		GetLogger().Warn("request rejected",
			zap.String("path", c.FullPath()),
			zap.String("code", coded.Code()),
			zap.Error(err))
		c.JSON(status, resp)
		return
	}

	GetLogger().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Message: "Internal Server Error",
		Details: "An unexpected error occurred. Please try again later.",
	})
}
