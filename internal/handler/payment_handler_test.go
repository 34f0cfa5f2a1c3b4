package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/commercekit/stripe-gateway/internal/config"
	"github.com/commercekit/stripe-gateway/internal/domain"
	"github.com/commercekit/stripe-gateway/internal/dto"
	"github.com/commercekit/stripe-gateway/internal/response"
	"github.com/commercekit/stripe-gateway/internal/service"
)

// mockPaymentService implements service.PaymentService for testing
type mockPaymentService struct {
	payments map[string]*domain.Payment
	methods  map[string]*domain.PaymentMethod

	// forcedErr overrides every call's outcome when set
	forcedErr error
}

func newMockPaymentService() *mockPaymentService {
	return &mockPaymentService{
		payments: make(map[string]*domain.Payment),
		methods:  make(map[string]*domain.PaymentMethod),
	}
}

func (m *mockPaymentService) CreatePayment(ctx context.Context, req *service.CreatePaymentRequest) (*domain.Payment, error) {
	if m.forcedErr != nil {
		return nil, m.forcedErr
	}
	for _, p := range m.payments {
		if p.OrderID == req.OrderID {
			return nil, domain.ErrPaymentAlreadyExists
		}
	}

	payment, err := domain.NewPayment(req.OrderID, req.PaymentMethodID, req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}
	if err := payment.Authorize("ch_test", req.Capture); err != nil {
		return nil, err
	}
	m.payments[payment.ID] = payment
	return payment, nil
}

func (m *mockPaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, ok := m.payments[paymentID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return payment, nil
}

func (m *mockPaymentService) CapturePayment(ctx context.Context, paymentID string, amount float64) (*domain.Payment, error) {
	if m.forcedErr != nil {
		return nil, m.forcedErr
	}
	payment, ok := m.payments[paymentID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	if amount == 0 {
		amount = payment.Amount
	}
	if err := payment.Capture(amount); err != nil {
		return nil, err
	}
	return payment, nil
}

func (m *mockPaymentService) VoidPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, ok := m.payments[paymentID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	if err := payment.Void(); err != nil {
		return nil, err
	}
	return payment, nil
}

func (m *mockPaymentService) RefundPayment(ctx context.Context, paymentID string, amount float64) (*domain.Payment, error) {
	if m.forcedErr != nil {
		return nil, m.forcedErr
	}
	payment, ok := m.payments[paymentID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	if amount == 0 {
		amount = payment.Balance()
	}
	if err := payment.RegisterRefund(amount); err != nil {
		return nil, err
	}
	return payment, nil
}

func (m *mockPaymentService) CreatePaymentMethod(ctx context.Context, req *service.CreatePaymentMethodRequest) (*domain.PaymentMethod, error) {
	if m.forcedErr != nil {
		return nil, m.forcedErr
	}
	if req.Token() == "" {
		return nil, domain.ErrMissingToken
	}
	method, err := domain.NewPaymentMethod(req.AccountID, "card_test", domain.CardBrandVisa, "4242", 12, time.Now().Year()+3)
	if err != nil {
		return nil, err
	}
	m.methods[method.ID] = method
	return method, nil
}

func (m *mockPaymentService) GetPaymentMethod(ctx context.Context, methodID string) (*domain.PaymentMethod, error) {
	method, ok := m.methods[methodID]
	if !ok {
		return nil, domain.ErrPaymentMethodNotFound
	}
	return method, nil
}

func (m *mockPaymentService) DeletePaymentMethod(ctx context.Context, methodID string) error {
	if m.forcedErr != nil {
		return m.forcedErr
	}
	if _, ok := m.methods[methodID]; !ok {
		return domain.ErrPaymentMethodNotFound
	}
	delete(m.methods, methodID)
	return nil
}

func setupTestRouter(svc service.PaymentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	stripeCfg := &config.StripeConfig{
		Mode:               "test",
		TestSecretKey:      "sk_test_123",
		TestPublishableKey: "pk_test_123",
	}

	h := NewPaymentHandler(svc, "stripe", stripeCfg)
	v1 := router.Group("/api/v1")
	{
		v1.GET("/config", h.GetClientConfig)

		payments := v1.Group("/payments")
		payments.POST("", h.CreatePayment)
		payments.GET("/:id", h.GetPayment)
		payments.POST("/:id/capture", h.CapturePayment)
		payments.POST("/:id/void", h.VoidPayment)
		payments.POST("/:id/refund", h.RefundPayment)

		methods := v1.Group("/payment-methods")
		methods.POST("", h.CreatePaymentMethod)
		methods.GET("/:id", h.GetPaymentMethod)
		methods.DELETE("/:id", h.DeletePaymentMethod)
	}

	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPaymentHandler_CreatePayment(t *testing.T) {
	svc := newMockPaymentService()
	router := setupTestRouter(svc)

	w := doJSON(router, "POST", "/api/v1/payments", dto.CreatePaymentRequest{
		OrderID:         "order-001",
		PaymentMethodID: "method-001",
		Amount:          100.00,
		Currency:        "USD",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Success {
		t.Error("Expected success response")
	}
}

func TestPaymentHandler_CreatePayment_ValidationError(t *testing.T) {
	svc := newMockPaymentService()
	router := setupTestRouter(svc)

	// Missing required fields
	w := doJSON(router, "POST", "/api/v1/payments", map[string]interface{}{
		"amount": 100.00,
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestPaymentHandler_CreatePayment_Duplicate(t *testing.T) {
	svc := newMockPaymentService()
	router := setupTestRouter(svc)

	body := dto.CreatePaymentRequest{
		OrderID:         "order-dup",
		PaymentMethodID: "method-001",
		Amount:          100.00,
		Currency:        "USD",
	}
	doJSON(router, "POST", "/api/v1/payments", body)
	w := doJSON(router, "POST", "/api/v1/payments", body)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestPaymentHandler_CreatePayment_Declined(t *testing.T) {
	svc := newMockPaymentService()
	svc.forcedErr = domain.NewDecline("card declined")
	router := setupTestRouter(svc)

	w := doJSON(router, "POST", "/api/v1/payments", dto.CreatePaymentRequest{
		OrderID:         "order-001",
		PaymentMethodID: "method-001",
		Amount:          100.00,
		Currency:        "USD",
	})

	if w.Code != http.StatusPaymentRequired {
		t.Errorf("Expected status %d, got %d", http.StatusPaymentRequired, w.Code)
	}

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error == nil || resp.Error.Code != "CARD_DECLINED" {
		t.Errorf("Expected CARD_DECLINED error, got %+v", resp.Error)
	}
}

func TestPaymentHandler_CreatePayment_HardDecline(t *testing.T) {
	svc := newMockPaymentService()
	svc.forcedErr = domain.NewHardDecline("unsupported credit card type", 0)
	router := setupTestRouter(svc)

	w := doJSON(router, "POST", "/api/v1/payments", dto.CreatePaymentRequest{
		OrderID:         "order-001",
		PaymentMethodID: "method-001",
		Amount:          100.00,
		Currency:        "USD",
	})

	if w.Code != http.StatusPaymentRequired {
		t.Errorf("Expected status %d, got %d", http.StatusPaymentRequired, w.Code)
	}

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error == nil || resp.Error.Code != "HARD_DECLINE" {
		t.Errorf("Expected HARD_DECLINE error, got %+v", resp.Error)
	}
}

func TestPaymentHandler_GetPayment_NotFound(t *testing.T) {
	svc := newMockPaymentService()
	router := setupTestRouter(svc)

	w := doJSON(router, "GET", "/api/v1/payments/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestPaymentHandler_CaptureAndRefund(t *testing.T) {
	svc := newMockPaymentService()
	router := setupTestRouter(svc)

	w := doJSON(router, "POST", "/api/v1/payments", dto.CreatePaymentRequest{
		OrderID:         "order-001",
		PaymentMethodID: "method-001",
		Amount:          100.00,
		Currency:        "USD",
	})
	var created response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	data, _ := json.Marshal(created.Data)
	var payment dto.PaymentResponse
	_ = json.Unmarshal(data, &payment)

	// Capture without a body captures the full amount
	w = doJSON(router, "POST", "/api/v1/payments/"+payment.ID+"/capture", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("capture: expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	// Partial refund
	w = doJSON(router, "POST", "/api/v1/payments/"+payment.ID+"/refund", dto.RefundPaymentRequest{Amount: 30})
	if w.Code != http.StatusOK {
		t.Fatalf("refund: expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var refunded response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &refunded)
	data, _ = json.Marshal(refunded.Data)
	var refundedPayment dto.PaymentResponse
	_ = json.Unmarshal(data, &refundedPayment)
	if refundedPayment.State != domain.PaymentStatePartiallyRefunded {
		t.Errorf("state = %v, want capture_partially_refunded", refundedPayment.State)
	}
	if refundedPayment.Balance != 70 {
		t.Errorf("balance = %v, want 70", refundedPayment.Balance)
	}
}

func TestPaymentHandler_VoidCapturedPayment(t *testing.T) {
	svc := newMockPaymentService()
	router := setupTestRouter(svc)

	w := doJSON(router, "POST", "/api/v1/payments", dto.CreatePaymentRequest{
		OrderID:         "order-001",
		PaymentMethodID: "method-001",
		Amount:          100.00,
		Currency:        "USD",
		Capture:         true,
	})
	var created response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	data, _ := json.Marshal(created.Data)
	var payment dto.PaymentResponse
	_ = json.Unmarshal(data, &payment)

	w = doJSON(router, "POST", "/api/v1/payments/"+payment.ID+"/void", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestPaymentHandler_PaymentMethods(t *testing.T) {
	svc := newMockPaymentService()
	router := setupTestRouter(svc)

	w := doJSON(router, "POST", "/api/v1/payment-methods", dto.CreatePaymentMethodRequest{
		AccountID: "acct-001",
		Details:   map[string]string{"stripe_token": "tok_visa"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	var created response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	data, _ := json.Marshal(created.Data)
	var method dto.PaymentMethodResponse
	_ = json.Unmarshal(data, &method)
	if method.Brand != domain.CardBrandVisa {
		t.Errorf("brand = %v, want visa", method.Brand)
	}

	w = doJSON(router, "GET", "/api/v1/payment-methods/"+method.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("get: expected status %d, got %d", http.StatusOK, w.Code)
	}

	w = doJSON(router, "DELETE", "/api/v1/payment-methods/"+method.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete: expected status %d, got %d", http.StatusOK, w.Code)
	}

	w = doJSON(router, "GET", "/api/v1/payment-methods/"+method.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestPaymentHandler_PaymentMethod_MissingToken(t *testing.T) {
	svc := newMockPaymentService()
	router := setupTestRouter(svc)

	w := doJSON(router, "POST", "/api/v1/payment-methods", dto.CreatePaymentMethodRequest{
		AccountID: "acct-001",
		Details:   map[string]string{"other": "value"},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestPaymentHandler_GetClientConfig(t *testing.T) {
	svc := newMockPaymentService()
	router := setupTestRouter(svc)

	w := doJSON(router, "GET", "/api/v1/config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	data, _ := json.Marshal(resp.Data)
	var cfg dto.ClientConfigResponse
	_ = json.Unmarshal(data, &cfg)

	if cfg.PublishableKey != "pk_test_123" {
		t.Errorf("publishable key = %q, want pk_test_123", cfg.PublishableKey)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("sk_test_123")) {
		t.Error("secret key leaked into client config response")
	}
}
