// Package catalog holds the per-user product listing behind /store and /add.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	xerrors "SLH-Bot/internal/errors"
)

// Product is a listing priced in SLH.
type Product struct {
	ID      int64
	OwnerID int64
	Name    string
	Price   decimal.Decimal
	// ImageCID is an optional content identifier supplied by the owner.
	ImageCID  string
	CreatedAt time.Time
}

// Repository persists products.
type Repository interface {
	Add(ctx context.Context, p Product) (Product, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
}

const maxNameLength = 120

// ParseAddArgs parses the argument of "/add name, price". The name may not
// contain commas; the price must be a non-negative decimal.
func ParseAddArgs(args string) (string, decimal.Decimal, error) {
	parts := strings.Split(args, ",")
	if len(parts) != 2 {
		return "", decimal.Decimal{}, xerrors.New(xerrors.CodeValidation, "expected \"name, price\"")
	}
	name := strings.TrimSpace(parts[0])
	if name == "" || len([]rune(name)) > maxNameLength {
		return "", decimal.Decimal{}, xerrors.New(xerrors.CodeValidation, "invalid product name")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil || price.IsNegative() {
		return "", decimal.Decimal{}, xerrors.New(xerrors.CodeValidation, "invalid price")
	}
	return name, price, nil
}
