package feecalc

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/nestfinderhq/nestfinder-backend/pkg/errors"
)

// rate is the platform's unlock fee rate applied to the per-room annual rent.
var rate = decimal.NewFromFloat(0.01)

// UnlockFee computes the fee charged to unlock a property's contact details:
// one percent of the per-room annual rent, rounded half up to whole currency
// units. The stored listing fee column is advisory only; this function is the
// single authority for what a student is charged.
func UnlockFee(annualRent decimal.Decimal, totalRooms int) (decimal.Decimal, error) {
	if totalRooms <= 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "total rooms must be positive")
	}
	if annualRent.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "annual rent cannot be negative")
	}

	perRoom := annualRent.Div(decimal.NewFromInt(int64(totalRooms)))
	return perRoom.Mul(rate).Round(0), nil
}

// UnlockFeeMinorUnits returns the unlock fee expressed in minor currency
// units, as required by the payment provider.
func UnlockFeeMinorUnits(annualRent decimal.Decimal, totalRooms int) (int64, error) {
	fee, err := UnlockFee(annualRent, totalRooms)
	if err != nil {
		return 0, err
	}
	return fee.Mul(decimal.NewFromInt(100)).IntPart(), nil
}
