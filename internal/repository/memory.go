package repository

import (
	"context"
	"sync"

	"github.com/commercekit/stripe-gateway/internal/domain"
)

// MemoryPaymentRepository implements PaymentRepository using in-memory
// storage. Useful for testing and development.
type MemoryPaymentRepository struct {
	payments map[string]*domain.Payment
	byOrder  map[string]string // orderID -> paymentID
	mu       sync.RWMutex
}

// NewMemoryPaymentRepository creates a new in-memory payment repository
func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{
		payments: make(map[string]*domain.Payment),
		byOrder:  make(map[string]string),
	}
}

// Create creates a new payment record
func (r *MemoryPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[payment.ID]; exists {
		return domain.ErrPaymentAlreadyExists
	}

	// Clone to avoid external modifications
	p := *payment
	r.payments[payment.ID] = &p
	r.byOrder[payment.OrderID] = payment.ID
	return nil
}

// GetByID retrieves a payment by its ID
func (r *MemoryPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, exists := r.payments[id]
	if !exists {
		return nil, domain.ErrPaymentNotFound
	}
	p := *payment
	return &p, nil
}

// GetByOrderID retrieves a payment by order ID
func (r *MemoryPaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paymentID, exists := r.byOrder[orderID]
	if !exists {
		return nil, domain.ErrPaymentNotFound
	}
	payment, exists := r.payments[paymentID]
	if !exists {
		return nil, domain.ErrPaymentNotFound
	}
	p := *payment
	return &p, nil
}

// Update updates an existing payment
func (r *MemoryPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[payment.ID]; !exists {
		return domain.ErrPaymentNotFound
	}
	p := *payment
	r.payments[payment.ID] = &p
	return nil
}

// MemoryPaymentMethodRepository implements PaymentMethodRepository in memory.
type MemoryPaymentMethodRepository struct {
	methods map[string]*domain.PaymentMethod
	mu      sync.RWMutex
}

// NewMemoryPaymentMethodRepository creates a new in-memory payment method
// repository
func NewMemoryPaymentMethodRepository() *MemoryPaymentMethodRepository {
	return &MemoryPaymentMethodRepository{
		methods: make(map[string]*domain.PaymentMethod),
	}
}

// Create creates a new payment method record
func (r *MemoryPaymentMethodRepository) Create(ctx context.Context, method *domain.PaymentMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := *method
	r.methods[method.ID] = &m
	return nil
}

// GetByID retrieves a payment method by its ID
func (r *MemoryPaymentMethodRepository) GetByID(ctx context.Context, id string) (*domain.PaymentMethod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	method, exists := r.methods[id]
	if !exists {
		return nil, domain.ErrPaymentMethodNotFound
	}
	m := *method
	return &m, nil
}

// ListByAccount returns all payment methods owned by an account
func (r *MemoryPaymentMethodRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.PaymentMethod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.PaymentMethod
	for _, method := range r.methods {
		if method.AccountID == accountID {
			m := *method
			result = append(result, &m)
		}
	}
	return result, nil
}

// Delete removes a payment method record
func (r *MemoryPaymentMethodRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.methods[id]; !exists {
		return domain.ErrPaymentMethodNotFound
	}
	delete(r.methods, id)
	return nil
}

// MemoryAccountRepository implements AccountRepository in memory.
type MemoryAccountRepository struct {
	accounts map[string]*domain.Account
	mu       sync.RWMutex
}

// NewMemoryAccountRepository creates a new in-memory account repository
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed inserts an account directly; used by tests and dev bootstrap.
func (r *MemoryAccountRepository) Seed(account *domain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := *account
	r.accounts[account.ID] = &a
}

// GetByID retrieves an account by its ID
func (r *MemoryAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[id]
	if !exists {
		return nil, domain.ErrAccountNotFound
	}
	a := *account
	return &a, nil
}

// Update updates an existing account
func (r *MemoryAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[account.ID]; !exists {
		return domain.ErrAccountNotFound
	}
	a := *account
	r.accounts[account.ID] = &a
	return nil
}
