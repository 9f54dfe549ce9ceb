package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medprep/medmcq-backend/internal/middleware"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/medprep/medmcq-backend/internal/response"
	"github.com/medprep/medmcq-backend/internal/service"
	"github.com/medprep/medmcq-backend/internal/validator"
	"github.com/rs/zerolog"
)

// maxWebhookBody bounds webhook payloads read into memory.
const maxWebhookBody = 64 << 10

// BillingHandler serves plans, checkout and the payment webhook.
type BillingHandler struct {
	planService    *service.PlanService
	billingService *service.BillingService
	log            zerolog.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(planService *service.PlanService, billingService *service.BillingService, log zerolog.Logger) *BillingHandler {
	return &BillingHandler{
		planService:    planService,
		billingService: billingService,
		log:            log.With().Str("component", "billing_handler").Logger(),
	}
}

// ListPlans godoc
// GET /api/v1/plans
func (h *BillingHandler) ListPlans(c *gin.Context) {
	plans, err := h.planService.List(c.Request.Context())
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"plans": plans})
}

// CreatePaymentIntent godoc
// POST /api/v1/create-payment-intent
func (h *BillingHandler) CreatePaymentIntent(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreatePaymentIntentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	intent, err := h.billingService.CreatePaymentIntent(c.Request.Context(), claims.UserID, req.PlanID)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, intent)
}

// Webhook godoc
// POST /api/v1/webhook
// Receives payment processor events. The raw body is needed for
// signature verification, so it is read before any binding.
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	if err := h.billingService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"received": true})
}
