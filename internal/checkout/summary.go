package checkout

import (
	"fmt"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/shopspring/decimal"
)

// Pricing holds the shipping and tax rules applied to an order summary.
type Pricing struct {
	FreeShippingThreshold decimal.Decimal
	FlatShipping          decimal.Decimal
	TaxRate               decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		FreeShippingThreshold: decimal.NewFromInt(100),
		FlatShipping:          decimal.RequireFromString("9.99"),
		TaxRate:               decimal.RequireFromString("0.08"),
	}
}

// NewPricing parses the checkout section of the config.
func NewPricing(cfg config.CheckoutConfig) (Pricing, error) {
	threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold)
	if err != nil {
		return Pricing{}, fmt.Errorf("parse free shipping threshold: %w", err)
	}
	flat, err := decimal.NewFromString(cfg.FlatShipping)
	if err != nil {
		return Pricing{}, fmt.Errorf("parse flat shipping: %w", err)
	}
	rate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return Pricing{}, fmt.Errorf("parse tax rate: %w", err)
	}
	if threshold.IsNegative() || flat.IsNegative() || rate.IsNegative() {
		return Pricing{}, fmt.Errorf("checkout pricing values must not be negative")
	}
	return Pricing{FreeShippingThreshold: threshold, FlatShipping: flat, TaxRate: rate}, nil
}

type Summary struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	// FreeShippingRemaining is zero once the subtotal reaches the threshold.
	FreeShippingRemaining decimal.Decimal
}

// Summarize prices items. Shipping is free strictly above the threshold.
func (p Pricing) Summarize(items []cart.LineItem) (Summary, error) {
	subtotal, err := (&cart.Cart{Items: items}).Total()
	if err != nil {
		return Summary{}, err
	}
	shipping := p.FlatShipping
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(p.TaxRate)
	remaining := decimal.Zero
	if subtotal.LessThan(p.FreeShippingThreshold) {
		remaining = p.FreeShippingThreshold.Sub(subtotal)
	}
	return Summary{
		Subtotal:              subtotal,
		Shipping:              shipping,
		Tax:                   tax,
		Total:                 subtotal.Add(shipping).Add(tax),
		FreeShippingRemaining: remaining,
	}, nil
}

type SummaryView struct {
	Subtotal              string  `json:"subtotal"`
	Shipping              string  `json:"shipping"`
	FreeShipping          bool    `json:"freeShipping"`
	Tax                   string  `json:"tax"`
	Total                 string  `json:"total"`
	FreeShippingRemaining *string `json:"freeShippingRemaining,omitempty"`
	FreeShippingNotice    string  `json:"freeShippingNotice,omitempty"`
}

// View formats the summary to cents.
func (s Summary) View() SummaryView {
	view := SummaryView{
		Subtotal:     s.Subtotal.StringFixed(2),
		Shipping:     s.Shipping.StringFixed(2),
		FreeShipping: s.Shipping.IsZero(),
		Tax:          s.Tax.StringFixed(2),
		Total:        s.Total.StringFixed(2),
	}
	if s.FreeShippingRemaining.IsPositive() {
		remaining := s.FreeShippingRemaining.StringFixed(2)
		view.FreeShippingRemaining = &remaining
		view.FreeShippingNotice = fmt.Sprintf("Add $%s more for free shipping", remaining)
	}
	return view
}
