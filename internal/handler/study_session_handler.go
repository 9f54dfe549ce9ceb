package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/medprep/medmcq-backend/internal/middleware"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/medprep/medmcq-backend/internal/response"
	"github.com/medprep/medmcq-backend/internal/service"
	"github.com/medprep/medmcq-backend/internal/validator"
	"github.com/rs/zerolog"
)

// StudySessionHandler opens and updates study sessions.
type StudySessionHandler struct {
	sessionService *service.StudySessionService
	log            zerolog.Logger
}

// NewStudySessionHandler creates a new StudySessionHandler.
func NewStudySessionHandler(sessionService *service.StudySessionService, log zerolog.Logger) *StudySessionHandler {
	return &StudySessionHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "study_session_handler").Logger(),
	}
}

// Start godoc
// POST /api/v1/sessions
func (h *StudySessionHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.StartSession(c.Request.Context(), claims.UserID, req.ModuleID)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": session})
}

// Update godoc
// PATCH /api/v1/sessions/:id
// Ends a session or corrects its counters. Owner only.
func (h *StudySessionHandler) Update(c *gin.Context) {
	claims := middleware.GetClaims(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.UpdateSession(c.Request.Context(), claims.UserID, id, req)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}
