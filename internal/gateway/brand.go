package gateway

import (
	"fmt"

	"github.com/commercekit/stripe-gateway/internal/domain"
)

// brandMap maps Stripe card brand strings to the canonical local brand
// identifiers. https://support.stripe.com/questions/which-cards-and-payment-types-can-i-accept-with-stripe
var brandMap = map[string]domain.CardBrand{
	"American Express": domain.CardBrandAmex,
	"Diners Club":      domain.CardBrandDinersClub,
	"Discover":         domain.CardBrandDiscover,
	"JCB":              domain.CardBrandJCB,
	"MasterCard":       domain.CardBrandMasterCard,
	"Visa":             domain.CardBrandVisa,
}

// MapBrand maps a Stripe card brand string to the canonical local brand.
// An unmapped brand is a hard decline, never a silent default.
func MapBrand(remoteBrand string) (domain.CardBrand, error) {
	brand, ok := brandMap[remoteBrand]
	if !ok {
		return "", domain.NewHardDecline(fmt.Sprintf("unsupported credit card type %q", remoteBrand), 0)
	}
	return brand, nil
}
