package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/medprep/medmcq-backend/internal/middleware"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/medprep/medmcq-backend/internal/response"
	"github.com/medprep/medmcq-backend/internal/service"
	"github.com/medprep/medmcq-backend/internal/validator"
	"github.com/rs/zerolog"
)

// QuestionHandler serves questions and grades single answers.
type QuestionHandler struct {
	questionService *service.QuestionService
	sessionService  *service.StudySessionService
	log             zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(
	questionService *service.QuestionService,
	sessionService *service.StudySessionService,
	log zerolog.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		sessionService:  sessionService,
		log:             log.With().Str("component", "question_handler").Logger(),
	}
}

type listQuestionsQuery struct {
	ModuleID string `form:"module_id" binding:"required,module_id"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// List godoc
// GET /api/v1/questions?module_id=&limit=
// Questions without correctness data. module_id may be "all".
func (h *QuestionHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var q listQuestionsQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.questionService.List(c.Request.Context(), claims.UserID, q.ModuleID, q.Limit)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Get godoc
// GET /api/v1/questions/:id
func (h *QuestionHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	question, err := h.questionService.Get(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// SubmitAnswer godoc
// POST /api/v1/submit-answer
// Records an attempt and reveals the correct option, explanation and
// slide reference for that one question.
func (h *QuestionHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.sessionService.SubmitAnswer(c.Request.Context(), claims.UserID, req)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}
