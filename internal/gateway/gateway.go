// Package gateway is the port to the external payment provider. The engine
// only ever sees opaque session references and lifecycle events; nothing
// provider-specific leaks past this boundary.
package gateway

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type CheckoutInput struct {
	ReservationID string
	Amount        int64
	Currency      string
}

// Checkout is an opened gateway session: an opaque reference plus the URL
// the payer is redirected to.
type Checkout struct {
	Ref         string
	RedirectURL string
}

type Gateway interface {
	CreateCheckout(ctx context.Context, in CheckoutInput) (Checkout, error)
}

// Sandbox issues checkout references locally, for development and tests.
// Webhook events for sandbox sessions are posted by hand or by test
// drivers.
type Sandbox struct {
	baseURL string
}

func NewSandbox(baseURL string) *Sandbox {
	return &Sandbox{baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Sandbox) CreateCheckout(_ context.Context, in CheckoutInput) (Checkout, error) {
	ref := "cs_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	return Checkout{
		Ref:         ref,
		RedirectURL: s.baseURL + "/checkout/" + ref,
	}, nil
}
