package stripe

import (
	"context"
	"fmt"
	"time"

	stripego "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/invoice"
	"github.com/stripe/stripe-go/v81/subscription"

	"github.com/clientpulse/clientpulse-backend-go/internal/config"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
)

// Client reads commercial metrics from Stripe. Account ids are Stripe
// customer ids in this deployment.
type Client struct {
	cfg config.StripeConfig
}

// NewClient configures the Stripe SDK and returns the billing source.
func NewClient(cfg config.StripeConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("stripe api key is required")
	}
	stripego.Key = cfg.APIKey
	return &Client{cfg: cfg}, nil
}

// Name identifies the source in logs and metrics.
func (c *Client) Name() string {
	return "stripe"
}

// FetchCommercial assembles commercial metrics from the customer's active
// subscriptions and open invoices.
func (c *Client) FetchCommercial(ctx context.Context, accountID string) (*account.CommercialMetrics, error) {
	metrics := &account.CommercialMetrics{
		PaymentStatus: account.PaymentUnknown,
	}

	subParams := &stripego.SubscriptionListParams{
		Customer: stripego.String(accountID),
	}
	subParams.Context = ctx

	iter := subscription.List(subParams)
	for iter.Next() {
		sub := iter.Subscription()
		switch sub.Status {
		case stripego.SubscriptionStatusActive, stripego.SubscriptionStatusTrialing:
			if metrics.PaymentStatus == account.PaymentUnknown {
				metrics.PaymentStatus = account.PaymentCurrent
			}
		case stripego.SubscriptionStatusPastDue:
			metrics.PaymentStatus = account.PaymentAtRisk
		case stripego.SubscriptionStatusUnpaid:
			metrics.PaymentStatus = account.PaymentOverdue
		default:
			continue
		}

		for _, item := range sub.Items.Data {
			if item.Price == nil {
				continue
			}
			monthly := monthlyAmount(item.Price, item.Quantity)
			metrics.MRR += monthly
			metrics.SeatsUsed += int(item.Quantity)
		}

		periodEnd := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		if metrics.RenewalDate == nil || periodEnd.Before(*metrics.RenewalDate) {
			metrics.RenewalDate = &periodEnd
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe: failed to list subscriptions for %s: %w", accountID, err)
	}

	metrics.ARR = metrics.MRR * 12

	invParams := &stripego.InvoiceListParams{
		Customer: stripego.String(accountID),
		Status:   stripego.String(string(stripego.InvoiceStatusOpen)),
	}
	invParams.Context = ctx

	now := time.Now().UTC()
	invIter := invoice.List(invParams)
	for invIter.Next() {
		inv := invIter.Invoice()
		if inv.DueDate > 0 && time.Unix(inv.DueDate, 0).Before(now) {
			metrics.OverdueAmount += float64(inv.AmountRemaining) / 100.0
		}
	}
	if err := invIter.Err(); err != nil {
		return nil, fmt.Errorf("stripe: failed to list invoices for %s: %w", accountID, err)
	}

	if metrics.OverdueAmount > 0 && metrics.PaymentStatus == account.PaymentCurrent {
		metrics.PaymentStatus = account.PaymentAtRisk
	}

	return metrics, nil
}

// monthlyAmount normalizes a price to a monthly amount in major units.
func monthlyAmount(price *stripego.Price, quantity int64) float64 {
	if price.Recurring == nil {
		return 0
	}
	amount := float64(price.UnitAmount) / 100.0 * float64(quantity)
	switch price.Recurring.Interval {
	case stripego.PriceRecurringIntervalYear:
		return amount / 12.0
	case stripego.PriceRecurringIntervalMonth:
		return amount
	case stripego.PriceRecurringIntervalWeek:
		return amount * 4.33
	case stripego.PriceRecurringIntervalDay:
		return amount * 30.0
	default:
		return amount
	}
}
