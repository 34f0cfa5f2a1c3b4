package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/commercekit/stripe-gateway/internal/telemetry"
)

var (
	// Payment counters
	PaymentsAuthorized *telemetry.Counter
	PaymentsCaptured   *telemetry.Counter
	PaymentsVoided     *telemetry.Counter
	PaymentsRefunded   *telemetry.Counter
	PaymentsDeclined   *telemetry.Counter

	// Payment method counters
	PaymentMethodsStored  *telemetry.Counter
	PaymentMethodsDeleted *telemetry.Counter

	// Error tracking counters
	ErrorsTotal       *telemetry.Counter
	SlowRequestsTotal *telemetry.Counter

	// Histograms
	GatewayDuration *telemetry.Histogram
	PaymentAmount   *telemetry.Histogram
	RequestDuration *telemetry.Histogram

	// Gauges
	OpenAuthorizations *telemetry.UpDownCounter

	initOnce sync.Once
	initErr  error
)

// Init initializes all payment metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	// Payment counters
	PaymentsAuthorized, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "gateway_payments_authorized_total",
		Description: "Total number of payments authorized",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PaymentsCaptured, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "gateway_payments_captured_total",
		Description: "Total number of payments captured",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PaymentsVoided, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "gateway_payments_voided_total",
		Description: "Total number of authorizations voided",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PaymentsRefunded, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "gateway_payments_refunded_total",
		Description: "Total number of payments refunded",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PaymentsDeclined, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "gateway_payments_declined_total",
		Description: "Total number of payments declined by the remote gateway",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	// Payment method counters
	PaymentMethodsStored, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "gateway_payment_methods_stored_total",
		Description: "Total number of payment methods stored",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PaymentMethodsDeleted, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "gateway_payment_methods_deleted_total",
		Description: "Total number of payment methods deleted",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	// Histograms
	GatewayDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "gateway_remote_call_duration_seconds",
		Description: "Duration of remote gateway calls",
		Unit:        "s",
	}, []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}) // 100ms to 30s
	if err != nil {
		return err
	}

	PaymentAmount, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "gateway_payment_amount",
		Description: "Payment amounts distribution",
		Unit:        "USD",
	}, []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000})
	if err != nil {
		return err
	}

	// Request duration histogram for latency tracking (p50, p90, p99)
	RequestDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "gateway_request_duration_seconds",
		Description: "HTTP request duration in seconds",
		Unit:        "s",
	}, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}) // 5ms to 10s
	if err != nil {
		return err
	}

	// Error tracking
	ErrorsTotal, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "gateway_errors_total",
		Description: "Total number of errors by type",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	SlowRequestsTotal, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "gateway_slow_requests_total",
		Description: "Total number of slow requests (>1s)",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	// Up-down counter for current state
	OpenAuthorizations, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
		Name:        "gateway_open_authorizations",
		Description: "Current number of uncaptured authorizations",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	return nil
}

// RecordPaymentAuthorized records a successful authorization
func RecordPaymentAuthorized(ctx context.Context, orderID, currency string, amount float64, captured bool) {
	if PaymentsAuthorized != nil {
		PaymentsAuthorized.Inc(ctx,
			attribute.String("order_id", orderID),
			attribute.String("currency", currency),
			attribute.Bool("captured", captured),
		)
	}
	if PaymentAmount != nil {
		PaymentAmount.Record(ctx, amount,
			attribute.String("currency", currency),
		)
	}
	if !captured && OpenAuthorizations != nil {
		OpenAuthorizations.Inc(ctx)
	}
}

// RecordPaymentCaptured records a successful capture
func RecordPaymentCaptured(ctx context.Context, orderID, currency string) {
	if PaymentsCaptured != nil {
		PaymentsCaptured.Inc(ctx,
			attribute.String("order_id", orderID),
			attribute.String("currency", currency),
		)
	}
	if OpenAuthorizations != nil {
		OpenAuthorizations.Dec(ctx)
	}
}

// RecordPaymentVoided records a voided authorization
func RecordPaymentVoided(ctx context.Context, orderID string) {
	if PaymentsVoided != nil {
		PaymentsVoided.Inc(ctx,
			attribute.String("order_id", orderID),
		)
	}
	if OpenAuthorizations != nil {
		OpenAuthorizations.Dec(ctx)
	}
}

// RecordPaymentRefunded records a refund
func RecordPaymentRefunded(ctx context.Context, orderID, currency string, amount float64) {
	if PaymentsRefunded != nil {
		PaymentsRefunded.Inc(ctx,
			attribute.String("order_id", orderID),
			attribute.String("currency", currency),
		)
	}
}

// RecordPaymentDeclined records a declined payment by failure kind
func RecordPaymentDeclined(ctx context.Context, orderID, kind string) {
	if PaymentsDeclined != nil {
		PaymentsDeclined.Inc(ctx,
			attribute.String("order_id", orderID),
			attribute.String("kind", kind),
		)
	}
}

// RecordPaymentMethodStored records a stored payment method
func RecordPaymentMethodStored(ctx context.Context, brand string) {
	if PaymentMethodsStored != nil {
		PaymentMethodsStored.Inc(ctx,
			attribute.String("brand", brand),
		)
	}
}

// RecordPaymentMethodDeleted records a deleted payment method
func RecordPaymentMethodDeleted(ctx context.Context) {
	if PaymentMethodsDeleted != nil {
		PaymentMethodsDeleted.Inc(ctx)
	}
}

// RecordGatewayCall records the duration of a remote gateway call
func RecordGatewayCall(ctx context.Context, operation string, durationSeconds float64) {
	if GatewayDuration != nil {
		GatewayDuration.Record(ctx, durationSeconds,
			attribute.String("operation", operation),
		)
	}
}

// RecordError records an error by type and operation
func RecordError(ctx context.Context, errorType, operation string) {
	if ErrorsTotal != nil {
		ErrorsTotal.Inc(ctx,
			attribute.String("error_type", errorType),
			attribute.String("operation", operation),
		)
	}
}

// RecordRequestDuration records HTTP request duration and tracks slow requests
func RecordRequestDuration(ctx context.Context, operation string, durationSeconds float64) {
	if RequestDuration != nil {
		RequestDuration.Record(ctx, durationSeconds,
			attribute.String("operation", operation),
		)
	}
	// Track slow requests (>1s)
	if durationSeconds > 1.0 && SlowRequestsTotal != nil {
		SlowRequestsTotal.Inc(ctx,
			attribute.String("operation", operation),
		)
	}
}
