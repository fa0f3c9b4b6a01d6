// Package pricing computes booking fares. All amounts are integer cents.
package pricing

import (
	"errors"
	"strings"
)

var ErrInvalidPromoCode = errors.New("invalid promo code")

const (
	// The only recognized promo code and its flat discount.
	promoCode          = "save15"
	promoDiscountCents = int64(-1500)

	// Flat discount for redeeming loyalty points. Points themselves are
	// display-only and never decremented.
	loyaltyDiscountCents = int64(-1000)
)

type Input struct {
	BaseFareCents   int64
	PassengerCount  int
	TaxesCents      int64
	ServiceFeeCents int64
	PromoCode       string
	UseLoyalty      bool
}

type Quote struct {
	BaseFareCents        int64
	PassengerCount       int
	TaxesCents           int64
	ServiceFeeCents      int64
	PromoDiscountCents   int64
	LoyaltyDiscountCents int64
	TotalCents           int64
}

// Calculate prices a booking. Discounts are negative amounts added into the
// total. A non-empty promo code other than the recognized one fails the whole
// quote; an empty code simply applies no discount.
func Calculate(in Input) (Quote, error) {
	q := Quote{
		BaseFareCents:   in.BaseFareCents,
		PassengerCount:  in.PassengerCount,
		TaxesCents:      in.TaxesCents,
		ServiceFeeCents: in.ServiceFeeCents,
	}

	if code := strings.TrimSpace(in.PromoCode); code != "" {
		if !strings.EqualFold(code, promoCode) {
			return Quote{}, ErrInvalidPromoCode
		}
		q.PromoDiscountCents = promoDiscountCents
	}
	if in.UseLoyalty {
		q.LoyaltyDiscountCents = loyaltyDiscountCents
	}

	q.TotalCents = q.BaseFareCents*int64(q.PassengerCount) +
		q.TaxesCents +
		q.ServiceFeeCents +
		q.PromoDiscountCents +
		q.LoyaltyDiscountCents
	return q, nil
}

// DiscountCents is the combined (positive) discount applied to the quote.
func (q Quote) DiscountCents() int64 {
	return -(q.PromoDiscountCents + q.LoyaltyDiscountCents)
}
