package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"SLH-Bot/internal/token"
	"SLH-Bot/internal/web3"
)

// BalanceService reads balances in human units.
type BalanceService struct {
	client web3.TokenClient
}

// NewBalanceService wraps client.
func NewBalanceService(client web3.TokenClient) *BalanceService {
	return &BalanceService{client: client}
}

// HumanBalance returns the balance of owner divided by 10^decimals. The
// conversion is exact.
func (s *BalanceService) HumanBalance(ctx context.Context, owner common.Address) (token.Amount, error) {
	raw, err := s.client.BalanceOf(ctx, owner)
	if err != nil {
		return token.Amount{}, err
	}
	decimals, err := s.client.Decimals(ctx)
	if err != nil {
		return token.Amount{}, err
	}
	return token.FromBaseUnits(raw, decimals), nil
}

// Decimals returns the token precision.
func (s *BalanceService) Decimals(ctx context.Context) (uint8, error) {
	return s.client.Decimals(ctx)
}
