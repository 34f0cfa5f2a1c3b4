package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/commercekit/stripe-gateway/internal/domain"
	"github.com/commercekit/stripe-gateway/internal/gateway"
	"github.com/commercekit/stripe-gateway/internal/repository"
)

// fakeGateway is a scriptable gateway that counts remote calls
type fakeGateway struct {
	createChargeCalls   int
	captureChargeCalls  int
	refundChargeCalls   int
	createCustomerCalls int
	attachSourceCalls   int
	deleteSourceCalls   int

	chargeErr   error
	chargeState string // result status returned by charge calls
	customerErr error
	deleteErr   error
	card        *gateway.CardSource
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		chargeState: "succeeded",
		card: &gateway.CardSource{
			ID:       "card_fake",
			Brand:    "Visa",
			Last4:    "4242",
			ExpMonth: 12,
			ExpYear:  time.Now().Year() + 3,
		},
	}
}

func (f *fakeGateway) result() *gateway.Result {
	return &gateway.Result{ID: "ch_fake", Status: f.chargeState}
}

func (f *fakeGateway) CreateCharge(ctx context.Context, req *gateway.ChargeRequest) (*gateway.Result, error) {
	f.createChargeCalls++
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	return f.result(), nil
}

func (f *fakeGateway) CaptureCharge(ctx context.Context, chargeID string, amount int64) (*gateway.Result, error) {
	f.captureChargeCalls++
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	return f.result(), nil
}

func (f *fakeGateway) RefundCharge(ctx context.Context, chargeID string, amount int64) (*gateway.Result, error) {
	f.refundChargeCalls++
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	return f.result(), nil
}

func (f *fakeGateway) CreateCustomer(ctx context.Context, req *gateway.CreateCustomerRequest) (*gateway.Customer, error) {
	f.createCustomerCalls++
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	return &gateway.Customer{ID: "cus_fake", Email: req.Email}, nil
}

func (f *fakeGateway) AttachSource(ctx context.Context, customerID, token string) (*gateway.CardSource, error) {
	f.attachSourceCalls++
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	return f.card, nil
}

func (f *fakeGateway) ListCardSources(ctx context.Context, customerID string) ([]*gateway.CardSource, error) {
	return []*gateway.CardSource{f.card}, nil
}

func (f *fakeGateway) DeleteSource(ctx context.Context, customerID, sourceID string) error {
	f.deleteSourceCalls++
	return f.deleteErr
}

func (f *fakeGateway) Name() string { return "fake" }

type serviceFixture struct {
	svc      PaymentService
	gw       *fakeGateway
	payments *repository.MemoryPaymentRepository
	methods  *repository.MemoryPaymentMethodRepository
	accounts *repository.MemoryAccountRepository
	account  *domain.Account
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	gw := newFakeGateway()
	payments := repository.NewMemoryPaymentRepository()
	methods := repository.NewMemoryPaymentMethodRepository()
	accounts := repository.NewMemoryAccountRepository()

	account := &domain.Account{
		ID:        "acct-1",
		Email:     "customer@example.com",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	accounts.Seed(account)

	return &serviceFixture{
		svc:      NewPaymentService(payments, methods, accounts, gw),
		gw:       gw,
		payments: payments,
		methods:  methods,
		accounts: accounts,
		account:  account,
	}
}

func (fx *serviceFixture) storeMethod(t *testing.T) *domain.PaymentMethod {
	t.Helper()
	method, err := fx.svc.CreatePaymentMethod(context.Background(), &CreatePaymentMethodRequest{
		AccountID: fx.account.ID,
		Details:   map[string]string{"stripe_token": "tok_visa"},
	})
	if err != nil {
		t.Fatalf("CreatePaymentMethod() error = %v", err)
	}
	return method
}

func TestCreatePaymentMethodProvisionsCustomer(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	method := fx.storeMethod(t)
	if method.Brand != domain.CardBrandVisa {
		t.Errorf("brand = %v, want visa", method.Brand)
	}
	if fx.gw.createCustomerCalls != 1 {
		t.Errorf("createCustomerCalls = %d, want 1", fx.gw.createCustomerCalls)
	}

	account, err := fx.accounts.GetByID(ctx, fx.account.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if account.RemoteCustomerID != "cus_fake" {
		t.Errorf("remote customer id = %q, want cus_fake", account.RemoteCustomerID)
	}

	// A second stored card reuses the provisioned customer
	fx.storeMethod(t)
	if fx.gw.createCustomerCalls != 1 {
		t.Errorf("createCustomerCalls after second method = %d, want 1", fx.gw.createCustomerCalls)
	}
	if fx.gw.attachSourceCalls != 1 {
		t.Errorf("attachSourceCalls = %d, want 1", fx.gw.attachSourceCalls)
	}
}

func TestCreatePaymentMethodMissingToken(t *testing.T) {
	fx := newServiceFixture(t)

	_, err := fx.svc.CreatePaymentMethod(context.Background(), &CreatePaymentMethodRequest{
		AccountID: fx.account.ID,
		Details:   map[string]string{},
	})
	if !errors.Is(err, domain.ErrMissingToken) {
		t.Errorf("error = %v, want ErrMissingToken", err)
	}
	if fx.gw.createCustomerCalls != 0 || fx.gw.attachSourceCalls != 0 {
		t.Error("remote calls made despite missing token")
	}
}

func TestCreatePaymentMethodUnsupportedBrand(t *testing.T) {
	fx := newServiceFixture(t)
	fx.gw.card.Brand = "UnionPay"

	_, err := fx.svc.CreatePaymentMethod(context.Background(), &CreatePaymentMethodRequest{
		AccountID: fx.account.ID,
		Details:   map[string]string{"stripe_token": "tok_unionpay"},
	})
	if !domain.IsHardDecline(err) {
		t.Errorf("error = %v, want hard decline", err)
	}

	methods, _ := fx.methods.ListByAccount(context.Background(), fx.account.ID)
	if len(methods) != 0 {
		t.Errorf("stored %d methods for unsupported brand", len(methods))
	}
}

func TestCreatePayment(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	method := fx.storeMethod(t)

	payment, err := fx.svc.CreatePayment(ctx, &CreatePaymentRequest{
		OrderID:         "order-1",
		PaymentMethodID: method.ID,
		Amount:          19.99,
		Currency:        "USD",
		Capture:         false,
	})
	if err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}
	if payment.State != domain.PaymentStateAuthorization {
		t.Errorf("state = %v, want authorization", payment.State)
	}
	if payment.RemoteChargeID != "ch_fake" {
		t.Errorf("remote charge id = %q, want ch_fake", payment.RemoteChargeID)
	}
	if fx.gw.createChargeCalls != 1 {
		t.Errorf("createChargeCalls = %d, want 1", fx.gw.createChargeCalls)
	}

	stored, err := fx.payments.GetByID(ctx, payment.ID)
	if err != nil {
		t.Fatalf("payment not persisted: %v", err)
	}
	if stored.State != domain.PaymentStateAuthorization {
		t.Errorf("persisted state = %v, want authorization", stored.State)
	}
}

func TestCreatePaymentWithCapture(t *testing.T) {
	fx := newServiceFixture(t)
	method := fx.storeMethod(t)

	payment, err := fx.svc.CreatePayment(context.Background(), &CreatePaymentRequest{
		OrderID:         "order-1",
		PaymentMethodID: method.ID,
		Amount:          50,
		Currency:        "USD",
		Capture:         true,
	})
	if err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}
	if payment.State != domain.PaymentStateCaptureCompleted {
		t.Errorf("state = %v, want capture_completed", payment.State)
	}
}

func TestCreatePaymentWithoutMethod(t *testing.T) {
	fx := newServiceFixture(t)

	_, err := fx.svc.CreatePayment(context.Background(), &CreatePaymentRequest{
		OrderID:  "order-1",
		Amount:   50,
		Currency: "USD",
	})
	if !errors.Is(err, domain.ErrPaymentMethodRequired) {
		t.Errorf("error = %v, want ErrPaymentMethodRequired", err)
	}
	if fx.gw.createChargeCalls != 0 {
		t.Error("remote charge attempted without a payment method")
	}
}

func TestCreatePaymentDeclinedLeavesNoRecord(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	method := fx.storeMethod(t)
	fx.gw.chargeErr = domain.NewDecline("card declined")

	_, err := fx.svc.CreatePayment(ctx, &CreatePaymentRequest{
		OrderID:         "order-1",
		PaymentMethodID: method.ID,
		Amount:          50,
		Currency:        "USD",
	})
	if kind, ok := domain.FailureKindOf(err); !ok || kind != domain.FailureDecline {
		t.Errorf("error = %v, want decline", err)
	}

	if _, err := fx.payments.GetByOrderID(ctx, "order-1"); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Error("declined payment was persisted")
	}
}

func TestCreatePaymentDuplicateOrder(t *testing.T) {
	fx := newServiceFixture(t)
	method := fx.storeMethod(t)

	req := &CreatePaymentRequest{
		OrderID:         "order-1",
		PaymentMethodID: method.ID,
		Amount:          50,
		Currency:        "USD",
	}
	if _, err := fx.svc.CreatePayment(context.Background(), req); err != nil {
		t.Fatalf("first CreatePayment() error = %v", err)
	}
	if _, err := fx.svc.CreatePayment(context.Background(), req); !errors.Is(err, domain.ErrPaymentAlreadyExists) {
		t.Errorf("error = %v, want ErrPaymentAlreadyExists", err)
	}
}

func TestCapturePayment(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	method := fx.storeMethod(t)

	payment, _ := fx.svc.CreatePayment(ctx, &CreatePaymentRequest{
		OrderID:         "order-1",
		PaymentMethodID: method.ID,
		Amount:          100,
		Currency:        "USD",
	})

	captured, err := fx.svc.CapturePayment(ctx, payment.ID, 80)
	if err != nil {
		t.Fatalf("CapturePayment() error = %v", err)
	}
	if captured.State != domain.PaymentStateCaptureCompleted {
		t.Errorf("state = %v, want capture_completed", captured.State)
	}
	if captured.Amount != 80 {
		t.Errorf("amount = %v, want 80", captured.Amount)
	}
	if fx.gw.captureChargeCalls != 1 {
		t.Errorf("captureChargeCalls = %d, want 1", fx.gw.captureChargeCalls)
	}

	// Zero amount defaults to the full authorized amount
	fx2 := newServiceFixture(t)
	method2 := fx2.storeMethod(t)
	payment2, _ := fx2.svc.CreatePayment(ctx, &CreatePaymentRequest{
		OrderID:         "order-2",
		PaymentMethodID: method2.ID,
		Amount:          100,
		Currency:        "USD",
	})
	captured2, err := fx2.svc.CapturePayment(ctx, payment2.ID, 0)
	if err != nil {
		t.Fatalf("CapturePayment(0) error = %v", err)
	}
	if captured2.Amount != 100 {
		t.Errorf("amount = %v, want 100", captured2.Amount)
	}
}

func TestCapturePaymentExceedingAuthorization(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	method := fx.storeMethod(t)

	payment, _ := fx.svc.CreatePayment(ctx, &CreatePaymentRequest{
		OrderID:         "order-1",
		PaymentMethodID: method.ID,
		Amount:          100,
		Currency:        "USD",
	})

	_, err := fx.svc.CapturePayment(ctx, payment.ID, 150)
	if !domain.IsInvalidRequest(err) {
		t.Errorf("error = %v, want invalid request", err)
	}
	if fx.gw.captureChargeCalls != 0 {
		t.Error("remote capture attempted for excessive amount")
	}
}

func TestVoidPayment(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	method := fx.storeMethod(t)

	payment, _ := fx.svc.CreatePayment(ctx, &CreatePaymentRequest{
		OrderID:         "order-1",
		PaymentMethodID: method.ID,
		Amount:          100,
		Currency:        "USD",
	})

	voided, err := fx.svc.VoidPayment(ctx, payment.ID)
	if err != nil {
		t.Fatalf("VoidPayment() error = %v", err)
	}
	if voided.State != domain.PaymentStateAuthorizationVoided {
		t.Errorf("state = %v, want authorization_voided", voided.State)
	}
	// An uncaptured charge is released by refunding it in full
	if fx.gw.refundChargeCalls != 1 {
		t.Errorf("refundChargeCalls = %d, want 1", fx.gw.refundChargeCalls)
	}

	// A voided authorization cannot be captured
	if _, err := fx.svc.CapturePayment(ctx, payment.ID, 0); !errors.Is(err, domain.ErrInvalidPaymentState) {
		t.Errorf("capture after void error = %v, want ErrInvalidPaymentState", err)
	}
}

func TestRefundPayment(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	method := fx.storeMethod(t)

	payment, _ := fx.svc.CreatePayment(ctx, &CreatePaymentRequest{
		OrderID:         "order-1",
		PaymentMethodID: method.ID,
		Amount:          100,
		Currency:        "USD",
		Capture:         true,
	})

	refunded, err := fx.svc.RefundPayment(ctx, payment.ID, 40)
	if err != nil {
		t.Fatalf("RefundPayment() error = %v", err)
	}
	if refunded.State != domain.PaymentStatePartiallyRefunded {
		t.Errorf("state = %v, want capture_partially_refunded", refunded.State)
	}
	if refunded.Balance() != 60 {
		t.Errorf("balance = %v, want 60", refunded.Balance())
	}

	// Zero amount refunds the remaining balance
	refunded, err = fx.svc.RefundPayment(ctx, payment.ID, 0)
	if err != nil {
		t.Fatalf("RefundPayment(0) error = %v", err)
	}
	if refunded.State != domain.PaymentStateRefunded {
		t.Errorf("state = %v, want capture_refunded", refunded.State)
	}
	if fx.gw.refundChargeCalls != 2 {
		t.Errorf("refundChargeCalls = %d, want 2", fx.gw.refundChargeCalls)
	}
}

func TestRefundPaymentExceedingBalance(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	method := fx.storeMethod(t)

	payment, _ := fx.svc.CreatePayment(ctx, &CreatePaymentRequest{
		OrderID:         "order-1",
		PaymentMethodID: method.ID,
		Amount:          100,
		Currency:        "USD",
		Capture:         true,
	})
	if _, err := fx.svc.RefundPayment(ctx, payment.ID, 70); err != nil {
		t.Fatalf("RefundPayment(70) error = %v", err)
	}

	// The over-refund is rejected locally; no remote call, no mutation
	before := fx.gw.refundChargeCalls
	_, err := fx.svc.RefundPayment(ctx, payment.ID, 50)
	if !domain.IsInvalidRequest(err) {
		t.Errorf("error = %v, want invalid request", err)
	}
	if fx.gw.refundChargeCalls != before {
		t.Error("remote refund attempted for amount above balance")
	}

	stored, _ := fx.payments.GetByID(ctx, payment.ID)
	if stored.RefundedAmount != 70 {
		t.Errorf("refunded amount = %v, want 70", stored.RefundedAmount)
	}
	if stored.State != domain.PaymentStatePartiallyRefunded {
		t.Errorf("state = %v, want capture_partially_refunded", stored.State)
	}
}

func TestDeletePaymentMethod(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	method := fx.storeMethod(t)

	if err := fx.svc.DeletePaymentMethod(ctx, method.ID); err != nil {
		t.Fatalf("DeletePaymentMethod() error = %v", err)
	}
	if fx.gw.deleteSourceCalls != 1 {
		t.Errorf("deleteSourceCalls = %d, want 1", fx.gw.deleteSourceCalls)
	}
	if _, err := fx.methods.GetByID(ctx, method.ID); !errors.Is(err, domain.ErrPaymentMethodNotFound) {
		t.Error("local record still present after delete")
	}
}

func TestDeletePaymentMethodRemoteFailureKeepsLocal(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	method := fx.storeMethod(t)
	fx.gw.deleteErr = domain.NewInvalidResponse("network communication with stripe failed")

	err := fx.svc.DeletePaymentMethod(ctx, method.ID)
	if err == nil {
		t.Fatal("DeletePaymentMethod() succeeded despite remote failure")
	}
	if _, err := fx.methods.GetByID(ctx, method.ID); err != nil {
		t.Error("local record deleted despite remote failure")
	}
}

func TestCreatePaymentExpiredMethod(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	// Store a method and backdate its expiry past the check boundary
	method := fx.storeMethod(t)
	stored, _ := fx.methods.GetByID(ctx, method.ID)
	stored.ExpMonth = 1
	stored.ExpYear = 2020
	// Memory repo clones on write, re-create with the stale expiry
	_ = fx.methods.Delete(ctx, method.ID)
	if err := fx.methods.Create(ctx, stored); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err := fx.svc.CreatePayment(ctx, &CreatePaymentRequest{
		OrderID:         "order-1",
		PaymentMethodID: stored.ID,
		Amount:          50,
		Currency:        "USD",
	})
	if !domain.IsHardDecline(err) {
		t.Errorf("error = %v, want hard decline", err)
	}
	if fx.gw.createChargeCalls != 0 {
		t.Error("remote charge attempted with expired card")
	}
}
