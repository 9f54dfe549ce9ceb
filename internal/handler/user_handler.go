package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medprep/medmcq-backend/internal/middleware"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/medprep/medmcq-backend/internal/response"
	"github.com/medprep/medmcq-backend/internal/service"
	"github.com/medprep/medmcq-backend/internal/validator"
	"github.com/rs/zerolog"
)

// UserHandler serves the signed-in user's profile and history.
type UserHandler struct {
	userService    *service.UserService
	sessionService *service.StudySessionService
	billingService *service.BillingService
	log            zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(
	userService *service.UserService,
	sessionService *service.StudySessionService,
	billingService *service.BillingService,
	log zerolog.Logger,
) *UserHandler {
	return &UserHandler{
		userService:    userService,
		sessionService: sessionService,
		billingService: billingService,
		log:            log.With().Str("component", "user_handler").Logger(),
	}
}

type limitQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// UpdateProfile godoc
// PATCH /api/v1/user/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.UpdateProfileRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// ListSessions godoc
// GET /api/v1/user/sessions?limit=
func (h *UserHandler) ListSessions(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var q limitQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sessions, err := h.sessionService.ListSessions(c.Request.Context(), claims.UserID, q.Limit)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

// Stats godoc
// GET /api/v1/user/stats
// Totals, accuracy, recent activity and a per-module breakdown.
func (h *UserHandler) Stats(c *gin.Context) {
	claims := middleware.GetClaims(c)

	stats, err := h.sessionService.Stats(c.Request.Context(), claims.UserID)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// ListPayments godoc
// GET /api/v1/user/payments?limit=
func (h *UserHandler) ListPayments(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var q limitQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	payments, err := h.billingService.ListPayments(c.Request.Context(), claims.UserID, q.Limit)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payments": payments})
}
