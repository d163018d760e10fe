package reservations

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	pkgstripe "github.com/nestfinderhq/nestfinder-backend/pkg/stripe"
)

type stripeClientWrapper struct{}

// NewStripeClient wraps the configured Stripe client so the reservation
// service can be tested against a stub.
func NewStripeClient(api *pkgstripe.Client) PaymentIntentClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}
