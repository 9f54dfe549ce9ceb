package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/medprep/medmcq-backend/internal/middleware"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/medprep/medmcq-backend/internal/quiz"
	"github.com/medprep/medmcq-backend/internal/response"
	"github.com/medprep/medmcq-backend/internal/service"
	"github.com/medprep/medmcq-backend/internal/validator"
	"github.com/rs/zerolog"
)

// PracticeHandler exposes practice runs over REST. Each call is one intent
// against the run's quiz session.
type PracticeHandler struct {
	practiceService *service.PracticeService
	log             zerolog.Logger
}

// NewPracticeHandler creates a new PracticeHandler.
func NewPracticeHandler(practiceService *service.PracticeService, log zerolog.Logger) *PracticeHandler {
	return &PracticeHandler{
		practiceService: practiceService,
		log:             log.With().Str("component", "practice_handler").Logger(),
	}
}

// Start godoc
// POST /api/v1/practice
// Fetches a shuffled question set and opens a run.
func (h *PracticeHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.StartPracticeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.practiceService.Start(c.Request.Context(), claims.UserID, req.ModuleID, req.Limit)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.SuccessWithWarnings(c, http.StatusCreated, view, view.Warnings)
}

// Get godoc
// GET /api/v1/practice/:run_id
func (h *PracticeHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	runID, ok := runIDParam(c)
	if !ok {
		return
	}

	view, err := h.practiceService.Get(c.Request.Context(), claims.UserID, runID)
	h.respond(c, view, err)
}

// Answer godoc
// POST /api/v1/practice/:run_id/answer
// Body: {"position": n}. Answering twice, or while reviewing, returns the
// unchanged run with changed=false.
func (h *PracticeHandler) Answer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	runID, ok := runIDParam(c)
	if !ok {
		return
	}

	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.practiceService.Answer(c.Request.Context(), claims.UserID, runID, *req.Position)
	h.respond(c, view, err)
}

// Navigate godoc
// POST /api/v1/practice/:run_id/navigate
// Body: {"direction": "previous"|"next"|"skip"}.
func (h *PracticeHandler) Navigate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	runID, ok := runIDParam(c)
	if !ok {
		return
	}

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	dir, err := quiz.ParseDirection(req.Direction)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	view, err := h.practiceService.Navigate(c.Request.Context(), claims.UserID, runID, dir)
	h.respond(c, view, err)
}

// EnterReview godoc
// POST /api/v1/practice/:run_id/review
func (h *PracticeHandler) EnterReview(c *gin.Context) {
	claims := middleware.GetClaims(c)
	runID, ok := runIDParam(c)
	if !ok {
		return
	}

	view, err := h.practiceService.EnterReview(c.Request.Context(), claims.UserID, runID)
	h.respond(c, view, err)
}

// ExitReview godoc
// DELETE /api/v1/practice/:run_id/review
func (h *PracticeHandler) ExitReview(c *gin.Context) {
	claims := middleware.GetClaims(c)
	runID, ok := runIDParam(c)
	if !ok {
		return
	}

	view, err := h.practiceService.ExitReview(c.Request.Context(), claims.UserID, runID)
	h.respond(c, view, err)
}

// Restart godoc
// POST /api/v1/practice/:run_id/restart
// Body: {"confirm": true}. Without confirmation nothing changes and 409 is
// returned so the client can ask the user.
func (h *PracticeHandler) Restart(c *gin.Context) {
	claims := middleware.GetClaims(c)
	runID, ok := runIDParam(c)
	if !ok {
		return
	}

	var req model.RestartRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.practiceService.Restart(c.Request.Context(), claims.UserID, runID, req.Confirm)
	h.respond(c, view, err)
}

// End godoc
// DELETE /api/v1/practice/:run_id
func (h *PracticeHandler) End(c *gin.Context) {
	claims := middleware.GetClaims(c)
	runID, ok := runIDParam(c)
	if !ok {
		return
	}

	warnings, err := h.practiceService.End(c.Request.Context(), claims.UserID, runID)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.SuccessWithWarnings(c, http.StatusOK, gin.H{"run_id": runID}, warnings)
}

func (h *PracticeHandler) respond(c *gin.Context, view *model.PracticeView, err error) {
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.SuccessWithWarnings(c, http.StatusOK, view, view.Warnings)
}

func runIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("run_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
