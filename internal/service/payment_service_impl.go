package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/commercekit/stripe-gateway/internal/domain"
	"github.com/commercekit/stripe-gateway/internal/gateway"
	"github.com/commercekit/stripe-gateway/internal/logger"
	"github.com/commercekit/stripe-gateway/internal/metrics"
	"github.com/commercekit/stripe-gateway/internal/repository"
)

// paymentServiceImpl implements PaymentService
type paymentServiceImpl struct {
	payments repository.PaymentRepository
	methods  repository.PaymentMethodRepository
	accounts repository.AccountRepository
	gateway  gateway.PaymentGateway
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	payments repository.PaymentRepository,
	methods repository.PaymentMethodRepository,
	accounts repository.AccountRepository,
	gw gateway.PaymentGateway,
) PaymentService {
	return &paymentServiceImpl{
		payments: payments,
		methods:  methods,
		accounts: accounts,
		gateway:  gw,
	}
}

// CreatePayment authorizes a new payment against the remote gateway. The
// local record is only created after the remote charge succeeded; a
// declined charge leaves no trace.
func (s *paymentServiceImpl) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*domain.Payment, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if req.PaymentMethodID == "" {
		return nil, domain.ErrPaymentMethodRequired
	}

	// One payment per order
	existing, err := s.payments.GetByOrderID(ctx, req.OrderID)
	if err == nil && existing != nil {
		return nil, domain.ErrPaymentAlreadyExists
	}

	method, err := s.methods.GetByID(ctx, req.PaymentMethodID)
	if err != nil {
		return nil, err
	}
	if method.Expired(time.Now()) {
		return nil, domain.NewHardDecline("the provided payment method has expired", 0)
	}

	account, err := s.accounts.GetByID(ctx, method.AccountID)
	if err != nil {
		return nil, err
	}

	payment, err := domain.NewPayment(req.OrderID, req.PaymentMethodID, req.Amount, req.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	chargeReq := &gateway.ChargeRequest{
		Amount:      gateway.MinorUnits(req.Amount),
		Currency:    strings.ToLower(req.Currency),
		CustomerID:  account.RemoteCustomerID,
		SourceID:    method.RemoteSourceID,
		Capture:     req.Capture,
		Description: fmt.Sprintf("Payment for order %s", req.OrderID),
	}

	start := time.Now()
	result, err := s.gateway.CreateCharge(ctx, chargeReq)
	metrics.RecordGatewayCall(ctx, "create_charge", time.Since(start).Seconds())
	if err != nil {
		s.recordFailure(ctx, req.OrderID, "create_charge", err)
		return nil, err
	}
	if err := gateway.CheckResult(result); err != nil {
		s.recordFailure(ctx, req.OrderID, "create_charge", err)
		return nil, err
	}

	if err := payment.Authorize(result.ID, req.Capture); err != nil {
		return nil, err
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	metrics.RecordPaymentAuthorized(ctx, payment.OrderID, payment.Currency, payment.Amount, req.Capture)
	logger.Get().Info("payment authorized",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", payment.OrderID),
		zap.String("remote_charge_id", payment.RemoteChargeID),
		zap.Bool("captured", req.Capture),
	)

	return payment, nil
}

// GetPayment retrieves a payment by ID
func (s *paymentServiceImpl) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return s.payments.GetByID(ctx, paymentID)
}

// CapturePayment captures a previously authorized payment. The captured
// amount replaces the authorized amount and may not exceed it.
func (s *paymentServiceImpl) CapturePayment(ctx context.Context, paymentID string, amount float64) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.State != domain.PaymentStateAuthorization {
		return nil, domain.ErrInvalidPaymentState
	}

	if amount == 0 {
		amount = payment.Amount
	}
	if amount < 0 || amount > payment.Amount {
		return nil, domain.NewInvalidRequest(
			fmt.Sprintf("capture amount %.2f exceeds authorized amount %.2f", amount, payment.Amount), 0)
	}

	start := time.Now()
	result, err := s.gateway.CaptureCharge(ctx, payment.RemoteChargeID, gateway.MinorUnits(amount))
	metrics.RecordGatewayCall(ctx, "capture_charge", time.Since(start).Seconds())
	if err != nil {
		s.recordFailure(ctx, payment.OrderID, "capture_charge", err)
		return nil, err
	}
	if err := gateway.CheckResult(result); err != nil {
		s.recordFailure(ctx, payment.OrderID, "capture_charge", err)
		return nil, err
	}

	if err := payment.Capture(amount); err != nil {
		return nil, err
	}
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	metrics.RecordPaymentCaptured(ctx, payment.OrderID, payment.Currency)
	logger.Get().Info("payment captured",
		zap.String("payment_id", payment.ID),
		zap.Float64("amount", amount),
	)

	return payment, nil
}

// VoidPayment releases an uncaptured authorization. The charge API has no
// separate void call; an uncaptured charge is released by refunding its
// full amount.
func (s *paymentServiceImpl) VoidPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.State != domain.PaymentStateAuthorization {
		return nil, domain.ErrInvalidPaymentState
	}

	start := time.Now()
	result, err := s.gateway.RefundCharge(ctx, payment.RemoteChargeID, gateway.MinorUnits(payment.Amount))
	metrics.RecordGatewayCall(ctx, "refund_charge", time.Since(start).Seconds())
	if err != nil {
		s.recordFailure(ctx, payment.OrderID, "void_payment", err)
		return nil, err
	}
	if err := gateway.CheckResult(result); err != nil {
		s.recordFailure(ctx, payment.OrderID, "void_payment", err)
		return nil, err
	}

	if err := payment.Void(); err != nil {
		return nil, err
	}
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	metrics.RecordPaymentVoided(ctx, payment.OrderID)
	logger.Get().Info("payment voided",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", payment.OrderID),
	)

	return payment, nil
}

// RefundPayment refunds part or all of a captured payment. The balance
// check happens before any remote call so an over-refund never reaches
// the gateway.
func (s *paymentServiceImpl) RefundPayment(ctx context.Context, paymentID string, amount float64) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.Refundable() {
		return nil, domain.ErrInvalidPaymentState
	}

	balance := payment.Balance()
	if amount == 0 {
		amount = balance
	}
	if amount <= 0 || amount > balance {
		return nil, domain.NewInvalidRequest(
			fmt.Sprintf("refund amount %.2f exceeds remaining balance %.2f", amount, balance), 0)
	}

	start := time.Now()
	result, err := s.gateway.RefundCharge(ctx, payment.RemoteChargeID, gateway.MinorUnits(amount))
	metrics.RecordGatewayCall(ctx, "refund_charge", time.Since(start).Seconds())
	if err != nil {
		s.recordFailure(ctx, payment.OrderID, "refund_charge", err)
		return nil, err
	}
	if err := gateway.CheckResult(result); err != nil {
		s.recordFailure(ctx, payment.OrderID, "refund_charge", err)
		return nil, err
	}

	if err := payment.RegisterRefund(amount); err != nil {
		return nil, err
	}
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	metrics.RecordPaymentRefunded(ctx, payment.OrderID, payment.Currency, amount)
	logger.Get().Info("payment refunded",
		zap.String("payment_id", payment.ID),
		zap.Float64("amount", amount),
		zap.String("state", string(payment.State)),
	)

	return payment, nil
}

// CreatePaymentMethod exchanges an opaque card token for a reusable remote
// source. The remote customer is created lazily on the first stored method
// and reused afterwards.
func (s *paymentServiceImpl) CreatePaymentMethod(ctx context.Context, req *CreatePaymentMethodRequest) (*domain.PaymentMethod, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	token := req.Token()
	if token == "" {
		return nil, domain.ErrMissingToken
	}

	account, err := s.accounts.GetByID(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	var card *gateway.CardSource
	if account.HasRemoteCustomer() {
		card, err = s.gateway.AttachSource(ctx, account.RemoteCustomerID, token)
		if err != nil {
			return nil, err
		}
	} else {
		customer, err := s.gateway.CreateCustomer(ctx, &gateway.CreateCustomerRequest{
			Email: account.Email,
			Token: token,
		})
		if err != nil {
			return nil, err
		}

		cards, err := s.gateway.ListCardSources(ctx, customer.ID)
		if err != nil {
			return nil, err
		}
		if len(cards) == 0 {
			return nil, domain.NewInvalidResponse("customer created without a card source")
		}
		card = cards[0]

		account.RemoteCustomerID = customer.ID
		account.UpdatedAt = time.Now()
		if err := s.accounts.Update(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to save remote customer id: %w", err)
		}
	}

	brand, err := gateway.MapBrand(card.Brand)
	if err != nil {
		return nil, err
	}

	method, err := domain.NewPaymentMethod(account.ID, card.ID, brand, card.Last4, card.ExpMonth, card.ExpYear)
	if err != nil {
		return nil, err
	}
	if err := s.methods.Create(ctx, method); err != nil {
		return nil, fmt.Errorf("failed to save payment method: %w", err)
	}

	metrics.RecordPaymentMethodStored(ctx, string(method.Brand))
	logger.Get().Info("payment method stored",
		zap.String("method_id", method.ID),
		zap.String("account_id", account.ID),
		zap.String("brand", string(method.Brand)),
	)

	return method, nil
}

// GetPaymentMethod retrieves a payment method by ID
func (s *paymentServiceImpl) GetPaymentMethod(ctx context.Context, methodID string) (*domain.PaymentMethod, error) {
	return s.methods.GetByID(ctx, methodID)
}

// DeletePaymentMethod detaches the remote source and then removes the
// local record. The local record survives when the remote pass fails.
func (s *paymentServiceImpl) DeletePaymentMethod(ctx context.Context, methodID string) error {
	method, err := s.methods.GetByID(ctx, methodID)
	if err != nil {
		return err
	}

	account, err := s.accounts.GetByID(ctx, method.AccountID)
	if err != nil {
		return err
	}
	if account.HasRemoteCustomer() {
		if err := s.gateway.DeleteSource(ctx, account.RemoteCustomerID, method.RemoteSourceID); err != nil {
			s.recordFailure(ctx, "", "delete_source", err)
			return err
		}
	}

	if err := s.methods.Delete(ctx, methodID); err != nil {
		return err
	}

	metrics.RecordPaymentMethodDeleted(ctx)
	logger.Get().Info("payment method deleted",
		zap.String("method_id", methodID),
	)

	return nil
}

func (s *paymentServiceImpl) recordFailure(ctx context.Context, orderID, operation string, err error) {
	if kind, ok := domain.FailureKindOf(err); ok {
		metrics.RecordPaymentDeclined(ctx, orderID, string(kind))
		metrics.RecordError(ctx, string(kind), operation)
		return
	}
	metrics.RecordError(ctx, "internal", operation)
}
