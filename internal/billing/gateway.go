// AngelaMos | 2026
// gateway.go

package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	portal "github.com/stripe/stripe-go/v79/billingportal/session"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/carterperez-dev/medprep/internal/config"
	"github.com/carterperez-dev/medprep/internal/core"
)

const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Event is the part of a payment provider event the plan logic needs.
type Event struct {
	Type       string
	CustomerID string
	AccountID  string
}

type Gateway interface {
	CreateCustomer(ctx context.Context, accountID, email string) (string, error)
	CheckoutURL(ctx context.Context, customerID, accountID string) (string, error)
	PortalURL(ctx context.Context, customerID string) (string, error)
	ParseEvent(payload []byte, signature string) (*Event, error)
}

type StripeGateway struct {
	priceID       string
	webhookSecret string
	frontendURL   string
}

// NewStripeGateway returns nil when Stripe is not configured.
func NewStripeGateway(cfg config.BillingConfig) *StripeGateway {
	if !cfg.StripeEnabled() {
		return nil
	}

	stripe.Key = cfg.StripeSecretKey

	return &StripeGateway{
		priceID:       cfg.PriceID,
		webhookSecret: cfg.WebhookSecret,
		frontendURL:   strings.TrimRight(cfg.FrontendURL, "/"),
	}
}

func (g *StripeGateway) CreateCustomer(
	ctx context.Context,
	accountID, email string,
) (string, error) {
	params := &stripe.CustomerParams{
		Email:    stripe.String(email),
		Metadata: map[string]string{"account_id": accountID},
	}
	params.Context = ctx

	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}

	return cust.ID, nil
}

func (g *StripeGateway) CheckoutURL(
	ctx context.Context,
	customerID, accountID string,
) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:          stripe.String(customerID),
		ClientReferenceID: stripe.String(accountID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(g.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(g.frontendURL + "/billing/success"),
		CancelURL:  stripe.String(g.frontendURL + "/billing/cancel"),
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	return sess.URL, nil
}

func (g *StripeGateway) PortalURL(ctx context.Context, customerID string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(g.frontendURL + "/settings/billing"),
	}
	params.Context = ctx

	sess, err := portal.New(params)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}

	return sess.URL, nil
}

// ParseEvent verifies the signature and extracts the customer reference.
// Event types the service does not act on come back with only Type set.
func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*Event, error) {
	if g.webhookSecret == "" {
		return nil, fmt.Errorf("webhook secret not set: %w", core.ErrBillingUnavailable)
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, fmt.Errorf("verify webhook: %v: %w", err, core.ErrInvalidInput)
	}

	out := &Event{Type: string(event.Type)}

	switch out.Type {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %v: %w", err, core.ErrInvalidInput)
		}
		if sess.Customer != nil {
			out.CustomerID = sess.Customer.ID
		}
		out.AccountID = sess.ClientReferenceID
	case EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %v: %w", err, core.ErrInvalidInput)
		}
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
	}

	return out, nil
}
