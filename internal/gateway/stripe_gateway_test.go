package gateway

import (
	"context"
	"testing"

	"github.com/stripe/stripe-go/v82"
)

func TestNewStripeGatewayRequiresSecretKey(t *testing.T) {
	if _, err := NewStripeGateway(nil); err == nil {
		t.Error("NewStripeGateway(nil) should fail")
	}
	if _, err := NewStripeGateway(&StripeGatewayConfig{}); err == nil {
		t.Error("NewStripeGateway with empty key should fail")
	}
	if _, err := NewStripeGateway(&StripeGatewayConfig{SecretKey: "sk_test_123"}); err != nil {
		t.Errorf("NewStripeGateway() error = %v", err)
	}
}

func TestCaptureParams(t *testing.T) {
	params := captureParams(context.Background(), 1999)
	if params.Amount == nil || *params.Amount != 1999 {
		t.Errorf("Amount = %v, want 1999", params.Amount)
	}
}

func TestCustomerParams(t *testing.T) {
	params := customerParams(context.Background(), &CreateCustomerRequest{
		Email: "payer@example.com",
		Token: "tok_visa",
	})
	if params.Email == nil || *params.Email != "payer@example.com" {
		t.Errorf("Email = %v, want payer@example.com", params.Email)
	}
	if params.Description == nil || *params.Description != "Customer for payer@example.com" {
		t.Errorf("Description = %v, want reference to the email", params.Description)
	}
	if params.Source == nil || *params.Source != "tok_visa" {
		t.Errorf("Source = %v, want tok_visa", params.Source)
	}

	// Without a token no source is attached
	params = customerParams(context.Background(), &CreateCustomerRequest{Email: "payer@example.com"})
	if params.Source != nil {
		t.Errorf("Source = %v, want nil without a token", params.Source)
	}
}

func TestAttachSourceParams(t *testing.T) {
	params := attachSourceParams(context.Background(), "cus_123", "tok_visa")
	if params.Customer == nil || *params.Customer != "cus_123" {
		t.Errorf("Customer = %v, want cus_123", params.Customer)
	}
	if params.Source == nil || params.Source.Token == nil || *params.Source.Token != "tok_visa" {
		t.Errorf("Source token = %+v, want tok_visa", params.Source)
	}
}

func TestChargeResult(t *testing.T) {
	result := chargeResult(&stripe.Charge{
		ID:             "ch_1",
		Status:         stripe.ChargeStatusFailed,
		FailureCode:    "502",
		FailureMessage: "processor rejected",
	})
	if result.ID != "ch_1" {
		t.Errorf("ID = %q, want ch_1", result.ID)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("len(Errors) = %d, want 1", len(result.Errors))
	}
	if result.Errors[0].Code != 502 || result.Errors[0].Message != "processor rejected" {
		t.Errorf("Errors[0] = %+v, want code 502", result.Errors[0])
	}

	result = chargeResult(&stripe.Charge{ID: "ch_2", Status: stripe.ChargeStatusSucceeded})
	if len(result.Errors) != 0 {
		t.Errorf("len(Errors) = %d, want 0", len(result.Errors))
	}
}
