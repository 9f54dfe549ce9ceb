package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medprep/medmcq-backend/internal/middleware"
	"github.com/medprep/medmcq-backend/internal/response"
	"github.com/medprep/medmcq-backend/internal/service"
	"github.com/rs/zerolog"
)

// ModuleHandler serves the module catalogue.
type ModuleHandler struct {
	moduleService *service.ModuleService
	log           zerolog.Logger
}

// NewModuleHandler creates a new ModuleHandler.
func NewModuleHandler(moduleService *service.ModuleService, log zerolog.Logger) *ModuleHandler {
	return &ModuleHandler{
		moduleService: moduleService,
		log:           log.With().Str("component", "module_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/modules
// Every module with a locked flag for premium modules the caller cannot open.
func (h *ModuleHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)

	modules, err := h.moduleService.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"modules": modules})
}
