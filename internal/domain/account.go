package domain

import "time"

// Account is the host-side owner of payment methods. The remote customer id
// is created lazily on first payment-method provisioning and reused for
// every later one.
type Account struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	RemoteCustomerID string    `json:"remote_customer_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasRemoteCustomer reports whether a remote customer record exists for
// this account.
func (a *Account) HasRemoteCustomer() bool {
	return a.RemoteCustomerID != ""
}
