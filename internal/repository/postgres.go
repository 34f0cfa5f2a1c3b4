package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/commercekit/stripe-gateway/internal/database"
	"github.com/commercekit/stripe-gateway/internal/domain"
)

// PostgreSQL error code for unique violation
const pgUniqueViolationCode = "23505"

// nullString returns nil if s is empty, otherwise a pointer to s
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// PostgresPaymentRepository implements PaymentRepository using PostgreSQL
type PostgresPaymentRepository struct {
	db *database.PostgresDB
}

// NewPostgresPaymentRepository creates a new PostgreSQL payment repository
func NewPostgresPaymentRepository(db *database.PostgresDB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

const paymentColumns = `
	id, order_id, payment_method_id, amount, currency, state,
	remote_charge_id, refunded_amount, authorized_at, captured_at,
	created_at, updated_at`

// Create creates a new payment record
func (r *PostgresPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)`

	_, err := r.db.Pool().Exec(ctx, query,
		payment.ID,
		payment.OrderID,
		nullString(payment.PaymentMethodID),
		payment.Amount,
		payment.Currency,
		string(payment.State),
		nullString(payment.RemoteChargeID),
		payment.RefundedAmount,
		payment.AuthorizedAt,
		payment.CapturedAt,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return domain.ErrPaymentAlreadyExists
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by its ID
func (r *PostgresPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return r.scanPayment(r.db.Pool().QueryRow(ctx, query, id))
}

// GetByOrderID retrieves a payment by its owning order
func (r *PostgresPaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1`
	return r.scanPayment(r.db.Pool().QueryRow(ctx, query, orderID))
}

// Update updates an existing payment
func (r *PostgresPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments SET
			amount = $2,
			state = $3,
			remote_charge_id = $4,
			refunded_amount = $5,
			authorized_at = $6,
			captured_at = $7,
			updated_at = $8
		WHERE id = $1`

	tag, err := r.db.Pool().Exec(ctx, query,
		payment.ID,
		payment.Amount,
		string(payment.State),
		nullString(payment.RemoteChargeID),
		payment.RefundedAmount,
		payment.AuthorizedAt,
		payment.CapturedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

func (r *PostgresPaymentRepository) scanPayment(row pgx.Row) (*domain.Payment, error) {
	var payment domain.Payment
	var methodID, remoteChargeID *string
	var state string

	err := row.Scan(
		&payment.ID,
		&payment.OrderID,
		&methodID,
		&payment.Amount,
		&payment.Currency,
		&state,
		&remoteChargeID,
		&payment.RefundedAmount,
		&payment.AuthorizedAt,
		&payment.CapturedAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	payment.State = domain.PaymentState(state)
	if methodID != nil {
		payment.PaymentMethodID = *methodID
	}
	if remoteChargeID != nil {
		payment.RemoteChargeID = *remoteChargeID
	}
	return &payment, nil
}

// PostgresPaymentMethodRepository implements PaymentMethodRepository using
// PostgreSQL
type PostgresPaymentMethodRepository struct {
	db *database.PostgresDB
}

// NewPostgresPaymentMethodRepository creates a new PostgreSQL payment
// method repository
func NewPostgresPaymentMethodRepository(db *database.PostgresDB) *PostgresPaymentMethodRepository {
	return &PostgresPaymentMethodRepository{db: db}
}

const methodColumns = `
	id, account_id, remote_source_id, brand, last4, exp_month, exp_year, created_at`

// Create creates a new payment method record
func (r *PostgresPaymentMethodRepository) Create(ctx context.Context, method *domain.PaymentMethod) error {
	query := `
		INSERT INTO payment_methods (` + methodColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Pool().Exec(ctx, query,
		method.ID,
		method.AccountID,
		method.RemoteSourceID,
		string(method.Brand),
		method.Last4,
		method.ExpMonth,
		method.ExpYear,
		method.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment method: %w", err)
	}
	return nil
}

// GetByID retrieves a payment method by its ID
func (r *PostgresPaymentMethodRepository) GetByID(ctx context.Context, id string) (*domain.PaymentMethod, error) {
	query := `SELECT ` + methodColumns + ` FROM payment_methods WHERE id = $1`
	return scanPaymentMethod(r.db.Pool().QueryRow(ctx, query, id))
}

// ListByAccount returns all payment methods owned by an account
func (r *PostgresPaymentMethodRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.PaymentMethod, error) {
	query := `SELECT ` + methodColumns + ` FROM payment_methods WHERE account_id = $1 ORDER BY created_at`

	rows, err := r.db.Pool().Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	defer rows.Close()

	var methods []*domain.PaymentMethod
	for rows.Next() {
		method, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}
	return methods, rows.Err()
}

// Delete removes a payment method record
func (r *PostgresPaymentMethodRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM payment_methods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment method: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentMethodNotFound
	}
	return nil
}

func scanPaymentMethod(row pgx.Row) (*domain.PaymentMethod, error) {
	var method domain.PaymentMethod
	var brand string

	err := row.Scan(
		&method.ID,
		&method.AccountID,
		&method.RemoteSourceID,
		&brand,
		&method.Last4,
		&method.ExpMonth,
		&method.ExpYear,
		&method.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentMethodNotFound
		}
		return nil, fmt.Errorf("failed to scan payment method: %w", err)
	}
	method.Brand = domain.CardBrand(brand)
	return &method, nil
}

// PostgresAccountRepository implements AccountRepository using PostgreSQL
type PostgresAccountRepository struct {
	db *database.PostgresDB
}

// NewPostgresAccountRepository creates a new PostgreSQL account repository
func NewPostgresAccountRepository(db *database.PostgresDB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

// GetByID retrieves an account by its ID
func (r *PostgresAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		SELECT id, email, remote_customer_id, created_at, updated_at
		FROM accounts WHERE id = $1`

	var account domain.Account
	var remoteCustomerID *string

	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Email,
		&remoteCustomerID,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	if remoteCustomerID != nil {
		account.RemoteCustomerID = *remoteCustomerID
	}
	return &account, nil
}

// Update updates an existing account
func (r *PostgresAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts SET
			email = $2,
			remote_customer_id = $3,
			updated_at = $4
		WHERE id = $1`

	tag, err := r.db.Pool().Exec(ctx, query,
		account.ID,
		account.Email,
		nullString(account.RemoteCustomerID),
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
