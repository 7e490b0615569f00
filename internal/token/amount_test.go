package token

import (
	"math/big"
	"testing"

	xerrors "SLH-Bot/internal/errors"
)

func TestParseAmount(t *testing.T) {
	valid := map[string]string{
		"12.5":   "12.5",
		"  50 ":  "50",
		"0.0001": "0.0001",
		"100.00": "100",
	}
	for in, want := range valid {
		got, err := ParseAmount(in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if got.String() != want {
			t.Fatalf("%q: got %s want %s", in, got, want)
		}
	}

	invalid := []string{"", "abc", "0", "0.000", "-5", "+5", "1e3", "1,000", "1.2.3", ".5", "5."}
	for _, in := range invalid {
		if _, err := ParseAmount(in); !xerrors.IsCode(err, xerrors.CodeValidation) {
			t.Fatalf("%q: expected validation error, got %v", in, err)
		}
	}
}

func TestToBaseUnits(t *testing.T) {
	amount, _ := ParseAmount("50")
	got, err := amount.ToBaseUnits(18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := new(big.Int).Mul(big.NewInt(50), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	if got.Cmp(want) != 0 {
		t.Fatalf("got %s want %s", got, want)
	}

	fine, _ := ParseAmount("1.25")
	if units, err := fine.ToBaseUnits(2); err != nil || units.Int64() != 125 {
		t.Fatalf("unexpected conversion %v %v", units, err)
	}

	tooFine, _ := ParseAmount("1.255")
	if _, err := tooFine.ToBaseUnits(2); !xerrors.IsCode(err, xerrors.CodeValidation) {
		t.Fatalf("expected precision error, got %v", err)
	}
	if tooFine.FitsPrecision(2) || !tooFine.FitsPrecision(3) {
		t.Fatalf("FitsPrecision disagrees with ToBaseUnits")
	}
}

func TestBaseUnitRoundTrip(t *testing.T) {
	inputs := []string{"1", "0.000000000000000001", "12.5", "123456789.123456789", "99999999999.999999999999999999"}
	for _, in := range inputs {
		for _, decimals := range []uint8{18, 9} {
			amount, err := ParseAmount(in)
			if err != nil {
				t.Fatalf("%q: %v", in, err)
			}
			if !amount.FitsPrecision(decimals) {
				continue
			}
			units, err := amount.ToBaseUnits(decimals)
			if err != nil {
				t.Fatalf("%q: %v", in, err)
			}
			back := FromBaseUnits(units, decimals)
			if back.Cmp(amount) != 0 {
				t.Fatalf("%q/%d: round trip produced %s", in, decimals, back)
			}
		}
	}
}

func TestFromBaseUnits(t *testing.T) {
	raw, _ := new(big.Int).SetString("100500000000000000000", 10)
	if got := FromBaseUnits(raw, 18).String(); got != "100.5" {
		t.Fatalf("unexpected human amount %s", got)
	}
	if got := FromBaseUnits(nil, 18); got.IsPositive() {
		t.Fatalf("nil raw balance should be zero")
	}
	ten, _ := ParseAmount("10")
	fifty, _ := ParseAmount("50")
	if !ten.LessThan(fifty) || fifty.LessThan(ten) {
		t.Fatalf("comparison is wrong")
	}
}
