package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate_PromoAndLoyaltyStacking(t *testing.T) {
	quote, err := Calculate(Input{
		BaseFareCents:   8900,
		PassengerCount:  2,
		TaxesCents:      712,
		ServiceFeeCents: 450,
		PromoCode:       "SAVE15",
		UseLoyalty:      true,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(-1500), quote.PromoDiscountCents)
	assert.Equal(t, int64(-1000), quote.LoyaltyDiscountCents)
	assert.Equal(t, int64(16462), quote.TotalCents)
	assert.Equal(t, int64(2500), quote.DiscountCents())
}

func TestCalculate_NoDiscounts(t *testing.T) {
	quote, err := Calculate(Input{
		BaseFareCents:   8900,
		PassengerCount:  2,
		TaxesCents:      712,
		ServiceFeeCents: 450,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(18962), quote.TotalCents)
	assert.Zero(t, quote.DiscountCents())
}

func TestCalculate_InvalidPromoCode(t *testing.T) {
	_, err := Calculate(Input{
		BaseFareCents:  8900,
		PassengerCount: 1,
		PromoCode:      "SAVE20",
	})

	assert.ErrorIs(t, err, ErrInvalidPromoCode)
}

func TestCalculate_PromoCodeCaseInsensitive(t *testing.T) {
	for _, code := range []string{"save15", "SAVE15", "Save15"} {
		quote, err := Calculate(Input{BaseFareCents: 5000, PassengerCount: 1, PromoCode: code})
		assert.NoError(t, err)
		assert.Equal(t, int64(-1500), quote.PromoDiscountCents)
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	in := Input{
		BaseFareCents:   7500,
		PassengerCount:  3,
		TaxesCents:      1250,
		ServiceFeeCents: 450,
		PromoCode:       "save15",
		UseLoyalty:      true,
	}

	first, err := Calculate(in)
	assert.NoError(t, err)
	second, err := Calculate(in)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}
