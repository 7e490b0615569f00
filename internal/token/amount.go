package token

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	xerrors "SLH-Bot/internal/errors"
)

var amountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// Amount is a human-readable token quantity. The zero value is 0.
type Amount struct {
	value decimal.Decimal
}

// ParseAmount parses a positive plain decimal such as "12.5". Signs,
// exponents and thousands separators are rejected.
func ParseAmount(raw string) (Amount, error) {
	s := strings.TrimSpace(raw)
	if !amountPattern.MatchString(s) {
		return Amount{}, xerrors.New(xerrors.CodeValidation, "金额格式不正确")
	}
	value, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, xerrors.Wrap(xerrors.CodeValidation, err, "金额格式不正确")
	}
	if value.Sign() <= 0 {
		return Amount{}, xerrors.New(xerrors.CodeValidation, "金额必须大于 0")
	}
	return Amount{value: value}, nil
}

// NewAmount wraps an existing decimal value.
func NewAmount(value decimal.Decimal) Amount {
	return Amount{value: value}
}

// FromBaseUnits converts an on-chain integer amount to human units.
func FromBaseUnits(raw *big.Int, decimals uint8) Amount {
	if raw == nil {
		return Amount{}
	}
	return Amount{value: decimal.NewFromBigInt(raw, -int32(decimals))}
}

// ToBaseUnits scales the amount by 10^decimals. Amounts that would leave a
// fractional base unit are rejected rather than rounded.
func (a Amount) ToBaseUnits(decimals uint8) (*big.Int, error) {
	scaled := a.value.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, xerrors.New(xerrors.CodeValidation, "金额精度超出代币小数位",
			xerrors.WithMetadata("decimals", decimal.NewFromInt(int64(decimals)).String()))
	}
	return scaled.BigInt(), nil
}

// FitsPrecision reports whether the amount is representable with the given
// number of decimals.
func (a Amount) FitsPrecision(decimals uint8) bool {
	return a.value.Shift(int32(decimals)).IsInteger()
}

// Cmp compares two amounts: -1 if a < b, 0 if equal, +1 if a > b.
func (a Amount) Cmp(b Amount) int {
	return a.value.Cmp(b.value)
}

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool {
	return a.value.LessThan(b.value)
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.value.Sign() > 0
}

// Decimal exposes the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

// String renders the exact value without trailing zeros.
func (a Amount) String() string {
	return a.value.String()
}
