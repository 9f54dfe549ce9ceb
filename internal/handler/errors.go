package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medprep/medmcq-backend/internal/billing"
	"github.com/medprep/medmcq-backend/internal/quiz"
	"github.com/medprep/medmcq-backend/internal/response"
	"github.com/medprep/medmcq-backend/internal/service"
	"github.com/rs/zerolog"
)

// errorStatus maps a service error to its HTTP status and error code.
// Unknown errors are internal.
func errorStatus(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, response.ErrInvalidCredentials
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, response.ErrEmailTaken
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, response.ErrNotFound

	case errors.Is(err, service.ErrModuleNotFound):
		return http.StatusNotFound, response.ErrModuleNotFound
	case errors.Is(err, service.ErrPremiumRequired):
		return http.StatusPaymentRequired, response.ErrPremiumRequired
	case errors.Is(err, service.ErrQuestionNotFound):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, service.ErrQuestionsUnavailable):
		return http.StatusBadGateway, response.ErrQuestionsUnavailable
	case errors.Is(err, service.ErrInvalidQuestionBank):
		return http.StatusBadRequest, response.ErrValidation
	case errors.Is(err, service.ErrOptionMismatch):
		return http.StatusBadRequest, response.ErrOptionMismatch

	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, service.ErrAlreadyAnswered):
		return http.StatusConflict, response.ErrAlreadyAnswered

	case errors.Is(err, service.ErrRunNotFound):
		return http.StatusNotFound, response.ErrRunNotFound
	case errors.Is(err, service.ErrRunBusy):
		return http.StatusConflict, response.ErrRunBusy
	case errors.Is(err, quiz.ErrOptionOutOfRange):
		return http.StatusBadRequest, response.ErrOptionOutOfRange
	case errors.Is(err, quiz.ErrUnknownDirection):
		return http.StatusBadRequest, response.ErrValidation
	case errors.Is(err, quiz.ErrNoIncorrectAnswers):
		return http.StatusConflict, response.ErrNoIncorrectAnswers
	case errors.Is(err, quiz.ErrRestartNotConfirmed):
		return http.StatusConflict, response.ErrRestartNotConfirmed

	case errors.Is(err, service.ErrBillingDisabled):
		return http.StatusServiceUnavailable, response.ErrBillingDisabled
	case errors.Is(err, service.ErrPlanNotFound):
		return http.StatusNotFound, response.ErrPlanNotFound
	case errors.Is(err, service.ErrPaymentProvider):
		return http.StatusBadGateway, response.ErrPaymentProvider
	case errors.Is(err, billing.ErrInvalidSignature):
		return http.StatusBadRequest, response.ErrInvalidSignature
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// failWith writes the error response for err, logging anything unexpected.
func failWith(c *gin.Context, log zerolog.Logger, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError || status == http.StatusBadGateway {
		reqLog := response.Logger(c, log)
		reqLog.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	response.Fail(c, status, code)
}
