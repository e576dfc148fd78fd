package payments

import (
	"context"
	"fmt"
	"log/slog"

	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// StripeInvoicer implements billing.Invoicer against the Stripe API.
//
// Charge flow (one-off overage invoice on the existing customer):
//  1. create a pending invoice item for the overage amount
//  2. create an auto-advancing invoice (picks up pending items)
//  3. pay it immediately against the default payment method
//
// Each step is a separate API call; a crash between steps leaves at worst a
// pending invoice item that the next invoice collects.
type StripeInvoicer struct {
	api *client.API
	log *slog.Logger
}

func NewStripeInvoicer(secretKey string, log *slog.Logger) *StripeInvoicer {
	api := &client.API{}
	api.Init(secretKey, nil)
	if log == nil {
		log = slog.Default()
	}
	return &StripeInvoicer{api: api, log: log}
}

func (s *StripeInvoicer) ChargeOverage(ctx context.Context, customerRef string, amountCents int64, description string) (string, error) {
	if customerRef == "" {
		return "", fmt.Errorf("stripe: customer ref is required")
	}
	if amountCents <= 0 {
		return "", fmt.Errorf("stripe: amount must be > 0, got %d", amountCents)
	}

	itemParams := &stripe.InvoiceItemParams{
		Customer:    stripe.String(customerRef),
		Amount:      stripe.Int64(amountCents),
		Currency:    stripe.String(string(stripe.CurrencyUSD)),
		Description: stripe.String(description),
	}
	itemParams.Context = ctx
	item, err := s.api.InvoiceItems.New(itemParams)
	if err != nil {
		return "", fmt.Errorf("stripe: create invoice item: %w", err)
	}

	invParams := &stripe.InvoiceParams{
		Customer:         stripe.String(customerRef),
		AutoAdvance:      stripe.Bool(true),
		CollectionMethod: stripe.String(string(stripe.InvoiceCollectionMethodChargeAutomatically)),
	}
	invParams.Context = ctx
	inv, err := s.api.Invoices.New(invParams)
	if err != nil {
		return "", fmt.Errorf("stripe: create invoice: %w", err)
	}

	payParams := &stripe.InvoicePayParams{}
	payParams.Context = ctx
	paid, err := s.api.Invoices.Pay(inv.ID, payParams)
	if err != nil {
		return "", fmt.Errorf("stripe: pay invoice %s: %w", inv.ID, err)
	}

	s.log.Info("overage invoice paid",
		"customer_ref", customerRef,
		"invoice_id", paid.ID,
		"invoice_item_id", item.ID,
		"amount_cents", amountCents,
	)
	return paid.ID, nil
}
