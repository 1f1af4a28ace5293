package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/medagenda/clinic-api/pkg/errors"
)

// Response is the envelope every endpoint returns: success carries data,
// validation failures carry a field -> message map, everything else a single
// message. Code lets clients branch on unauthenticated vs clinic_required
// for their redirects.
type Response struct {
	Status           string            `json:"status"`
	Code             string            `json:"code,omitempty"`
	Message          string            `json:"message,omitempty"`
	Data             interface{}       `json:"data,omitempty"`
	ValidationErrors map[string]string `json:"validation_errors,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError maps an application error onto the envelope. Unknown errors
// are logged and surface as a generic failure.
func RespondError(c *gin.Context, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString("request_id")).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
		return
	}

	switch appErr.Code {
	case apperrors.ErrValidation:
		c.JSON(http.StatusUnprocessableEntity, &Response{
			Status:           "error",
			Code:             "validation_error",
			Message:          appErr.Message,
			ValidationErrors: appErr.Fields,
		})
	case apperrors.ErrUnauthenticated:
		c.JSON(http.StatusUnauthorized, &Response{
			Status:  "error",
			Code:    "unauthenticated",
			Message: appErr.Message,
		})
	case apperrors.ErrClinicRequired:
		c.JSON(http.StatusForbidden, &Response{
			Status:  "error",
			Code:    "clinic_required",
			Message: appErr.Message,
		})
	case apperrors.ErrNotFound:
		c.JSON(http.StatusNotFound, NewErrorResponse(appErr.Message))
	case apperrors.ErrConflict:
		c.JSON(http.StatusConflict, NewErrorResponse(appErr.Message))
	case apperrors.ErrBadRequest:
		c.JSON(http.StatusBadRequest, NewErrorResponse(appErr.Message))
	default:
		log.Error().
			Err(appErr).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString("request_id")).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
	}
}
