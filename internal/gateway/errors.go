package gateway

import (
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/commercekit/stripe-gateway/internal/domain"
	"github.com/commercekit/stripe-gateway/internal/logger"
)

// hardDeclineCodes are the result-payload error codes treated as permanent
// validation failures rather than fixable request errors.
var hardDeclineCodes = map[int64]struct{}{
	500: {},
	502: {},
	503: {},
	504: {},
}

// TranslateError classifies an error returned by a Stripe call into the
// local typed-failure taxonomy. Every classified error is logged once at
// warn level with the original message; the caller re-raises the typed
// failure and never retries here.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		logger.Get().Warn("stripe request failed",
			zap.String("error_type", string(stripeErr.Type)),
			zap.String("error_code", string(stripeErr.Code)),
			zap.String("request_id", stripeErr.RequestID),
			zap.String("message", stripeErr.Msg),
		)
		switch {
		case stripeErr.Type == stripe.ErrorTypeCard:
			return domain.NewDecline("we encountered an error processing your card details, please verify your details and try again")
		case stripeErr.HTTPStatusCode == http.StatusTooManyRequests:
			return domain.NewInvalidRequest("too many requests", 0)
		case stripeErr.HTTPStatusCode == http.StatusUnauthorized:
			return domain.NewAuthenticationFailure("stripe authentication failed")
		case stripeErr.Type == stripe.ErrorTypeInvalidRequest:
			return domain.NewInvalidRequest("invalid parameters were supplied to stripe's api", 0)
		default:
			return domain.NewInvalidResponse("there was an error with the stripe request")
		}
	}

	logger.Get().Warn("stripe request failed", zap.Error(err))

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return domain.NewInvalidResponse("network communication with stripe failed")
	}
	return domain.NewInvalidResponse(err.Error())
}

// CheckResult inspects a normalized result payload from a call that did not
// itself fail. A succeeded status passes regardless of other fields;
// otherwise the first nested error wins: hard-decline codes become
// HardDecline failures, everything else InvalidRequest.
func CheckResult(result *Result) error {
	if result == nil {
		return domain.NewInvalidResponse("empty result from stripe")
	}
	if result.Status == "succeeded" {
		return nil
	}
	for _, resultErr := range result.Errors {
		logger.Get().Warn("stripe result reported an error",
			zap.String("remote_id", result.ID),
			zap.String("status", result.Status),
			zap.Int64("code", resultErr.Code),
			zap.String("message", resultErr.Message),
		)
		if _, hard := hardDeclineCodes[resultErr.Code]; hard {
			return domain.NewHardDecline(resultErr.Message, resultErr.Code)
		}
		return domain.NewInvalidRequest(resultErr.Message, resultErr.Code)
	}
	return nil
}
