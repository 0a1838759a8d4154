// Package money holds the fixed-point arithmetic used for order totals and
// gateway amounts. Nothing here touches float64.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrFractionalMinorUnit = errors.New("amount has more precision than the currency minor unit")

// minorExp is the number of decimal places in one major unit (paise, cents).
const minorExp = 2

// LineTotal is quantity x unit price.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Total is subtotal - discount + tax + shipping.
func Total(subtotal, discount, tax, shipping decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount).Add(tax).Add(shipping)
}

// Sum adds all amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// ToMinorUnits converts 1999.98 into 199998. An amount that does not land on
// a whole minor unit is rejected instead of being rounded.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	shifted := amount.Shift(minorExp)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, ErrFractionalMinorUnit
	}
	return shifted.IntPart(), nil
}

func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorExp)
}

// HasMinorPrecision reports whether amount fits in whole minor units.
func HasMinorPrecision(amount decimal.Decimal) bool {
	_, err := ToMinorUnits(amount)
	return err == nil
}
