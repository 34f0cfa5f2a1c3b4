package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/commercekit/stripe-gateway/internal/config"
	"github.com/commercekit/stripe-gateway/internal/domain"
	"github.com/commercekit/stripe-gateway/internal/dto"
	"github.com/commercekit/stripe-gateway/internal/response"
	"github.com/commercekit/stripe-gateway/internal/service"
)

// PaymentHandler handles payment HTTP endpoints
type PaymentHandler struct {
	paymentService service.PaymentService
	gatewayName    string
	stripeCfg      *config.StripeConfig
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService service.PaymentService, gatewayName string, stripeCfg *config.StripeConfig) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		gatewayName:    gatewayName,
		stripeCfg:      stripeCfg,
	}
}

// CreatePayment handles POST /payments
// Authorizes a new payment, optionally capturing immediately
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	svcReq := &service.CreatePaymentRequest{
		OrderID:         req.OrderID,
		PaymentMethodID: req.PaymentMethodID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Capture:         req.Capture,
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), svcReq)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Created(c, dto.FromPayment(payment))
}

// GetPayment handles GET /payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	paymentID := c.Param("id")
	if paymentID == "" {
		response.BadRequest(c, "payment_id is required")
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, dto.FromPayment(payment))
}

// CapturePayment handles POST /payments/:id/capture
// Captures an authorized payment; body is optional for a full capture
func (h *PaymentHandler) CapturePayment(c *gin.Context) {
	paymentID := c.Param("id")
	if paymentID == "" {
		response.BadRequest(c, "payment_id is required")
		return
	}

	var req dto.CapturePaymentRequest
	_ = c.ShouldBindJSON(&req)

	payment, err := h.paymentService.CapturePayment(c.Request.Context(), paymentID, req.Amount)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, dto.FromPayment(payment))
}

// VoidPayment handles POST /payments/:id/void
func (h *PaymentHandler) VoidPayment(c *gin.Context) {
	paymentID := c.Param("id")
	if paymentID == "" {
		response.BadRequest(c, "payment_id is required")
		return
	}

	payment, err := h.paymentService.VoidPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, dto.FromPayment(payment))
}

// RefundPayment handles POST /payments/:id/refund
// Body is optional for a full refund of the remaining balance
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	paymentID := c.Param("id")
	if paymentID == "" {
		response.BadRequest(c, "payment_id is required")
		return
	}

	var req dto.RefundPaymentRequest
	_ = c.ShouldBindJSON(&req)

	payment, err := h.paymentService.RefundPayment(c.Request.Context(), paymentID, req.Amount)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, dto.FromPayment(payment))
}

// CreatePaymentMethod handles POST /payment-methods
// Stores a tokenized card as a reusable payment method
func (h *PaymentHandler) CreatePaymentMethod(c *gin.Context) {
	var req dto.CreatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	method, err := h.paymentService.CreatePaymentMethod(c.Request.Context(), &service.CreatePaymentMethodRequest{
		AccountID: req.AccountID,
		Details:   req.Details,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Created(c, dto.FromPaymentMethod(method))
}

// GetPaymentMethod handles GET /payment-methods/:id
func (h *PaymentHandler) GetPaymentMethod(c *gin.Context) {
	methodID := c.Param("id")
	if methodID == "" {
		response.BadRequest(c, "method_id is required")
		return
	}

	method, err := h.paymentService.GetPaymentMethod(c.Request.Context(), methodID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, dto.FromPaymentMethod(method))
}

// DeletePaymentMethod handles DELETE /payment-methods/:id
func (h *PaymentHandler) DeletePaymentMethod(c *gin.Context) {
	methodID := c.Param("id")
	if methodID == "" {
		response.BadRequest(c, "method_id is required")
		return
	}

	if err := h.paymentService.DeletePaymentMethod(c.Request.Context(), methodID); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// GetClientConfig handles GET /config
// Returns the browser-facing gateway configuration. The secret key never
// leaves the server.
func (h *PaymentHandler) GetClientConfig(c *gin.Context) {
	response.Success(c, &dto.ClientConfigResponse{
		Gateway:        h.gatewayName,
		Mode:           h.stripeCfg.Mode,
		PublishableKey: h.stripeCfg.PublishableKey(),
	})
}

// writeError maps service errors to HTTP responses: lookup failures to
// 404, precondition failures to 400/409, and classified gateway failures
// by kind (declines to 402, upstream faults to 502).
func (h *PaymentHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrPaymentNotFound):
		response.NotFound(c, "payment not found")
		return
	case errors.Is(err, domain.ErrPaymentMethodNotFound):
		response.NotFound(c, "payment method not found")
		return
	case errors.Is(err, domain.ErrAccountNotFound):
		response.NotFound(c, "account not found")
		return
	case errors.Is(err, domain.ErrPaymentAlreadyExists):
		response.Conflict(c, "payment already exists for this order")
		return
	case errors.Is(err, domain.ErrInvalidPaymentState):
		response.BadRequest(c, "payment cannot be modified in its current state")
		return
	case errors.Is(err, domain.ErrPaymentMethodRequired):
		response.BadRequest(c, "a payment method is required")
		return
	case errors.Is(err, domain.ErrMissingToken):
		response.BadRequest(c, "stripe_token is required in details")
		return
	}

	var gwErr *domain.GatewayError
	if errors.As(err, &gwErr) {
		switch gwErr.Kind {
		case domain.FailureDecline:
			response.PaymentRequired(c, "CARD_DECLINED", gwErr.Message)
		case domain.FailureHardDecline:
			response.PaymentRequired(c, "HARD_DECLINE", gwErr.Message)
		case domain.FailureInvalidRequest:
			response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", gwErr.Message, "")
		case domain.FailureAuthentication:
			response.BadGateway(c, "GATEWAY_AUTHENTICATION", gwErr.Message)
		default:
			response.BadGateway(c, "GATEWAY_ERROR", gwErr.Message)
		}
		return
	}

	response.InternalError(c, err)
}
