package ethereum_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	xerrors "SLH-Bot/internal/errors"
	"SLH-Bot/internal/web3/ethereum"
	"SLH-Bot/internal/web3/ethereum/ethtest"
)

var tokenContract = common.HexToAddress("0xACb0A09414CEA1C879c67bB7A877E4e19480f022")

func newTestClient(t *testing.T, decimals uint8) (*ethereum.Client, *ethtest.Backend) {
	t.Helper()
	backend := ethtest.NewBackend(56, tokenContract, decimals)
	client, err := ethereum.NewBackendClient(ethereum.Config{
		Name:         "bsc",
		ChainID:      56,
		TokenAddress: tokenContract.Hex(),
		Symbol:       "SLH",
	}, backend)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(client.Close)
	return client, backend
}

func TestBalanceOf(t *testing.T) {
	client, backend := newTestClient(t, 18)
	owner := common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	want, _ := new(big.Int).SetString("100000000000000000000", 10)
	backend.SetBalance(owner, want)

	got, err := client.BalanceOf(context.Background(), owner)
	if err != nil {
		t.Fatalf("balanceOf: %v", err)
	}
	if got.Cmp(want) != 0 {
		t.Fatalf("expected %s, got %s", want, got)
	}

	empty, err := client.BalanceOf(context.Background(), common.HexToAddress("0x01"))
	if err != nil || empty.Sign() != 0 {
		t.Fatalf("expected zero balance, got %v (%v)", empty, err)
	}
}

func TestDecimalsCachedAfterFirstSuccess(t *testing.T) {
	client, backend := newTestClient(t, 18)
	ctx := context.Background()

	backend.FailCalls(errors.New("rpc unavailable"))
	if _, err := client.Decimals(ctx); !xerrors.IsCode(err, xerrors.CodeChainFailure) {
		t.Fatalf("expected chain failure, got %v", err)
	}
	backend.FailCalls(nil)

	for i := 0; i < 3; i++ {
		d, err := client.Decimals(ctx)
		if err != nil {
			t.Fatalf("decimals: %v", err)
		}
		if d != 18 {
			t.Fatalf("expected 18 decimals, got %d", d)
		}
	}
	if calls := backend.DecimalsCalls(); calls != 1 {
		t.Fatalf("expected one successful decimals call, got %d", calls)
	}
}

func TestSubmitTransferSignsAndFetchesNonceEveryTime(t *testing.T) {
	client, backend := newTestClient(t, 18)
	ctx := context.Background()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	backend.SetBalance(from, big.NewInt(1_000))
	to := common.HexToAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")

	first, err := client.SubmitTransfer(ctx, key, to, big.NewInt(300))
	if err != nil {
		t.Fatalf("first transfer: %v", err)
	}
	second, err := client.SubmitTransfer(ctx, key, to, big.NewInt(200))
	if err != nil {
		t.Fatalf("second transfer: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct transaction hashes")
	}

	sent := backend.Sent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(sent))
	}
	if sent[0].From != from || sent[0].To != to || sent[0].Nonce != 0 || sent[1].Nonce != 1 {
		t.Fatalf("unexpected transfers: %+v", sent)
	}
	if sent[0].Gas != 200_000 || sent[0].GasPrice.Cmp(big.NewInt(5_000_000_000)) != 0 {
		t.Fatalf("unexpected gas settings: %d @ %s", sent[0].Gas, sent[0].GasPrice)
	}
	if backend.NonceCalls() != 2 {
		t.Fatalf("expected nonce to be fetched per submission, got %d", backend.NonceCalls())
	}
	if backend.Balance(to).Int64() != 500 || backend.Balance(from).Int64() != 500 {
		t.Fatalf("unexpected balances after transfers")
	}
}

func TestSubmitTransferFailures(t *testing.T) {
	client, backend := newTestClient(t, 18)
	ctx := context.Background()
	to := common.HexToAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")

	if _, err := client.SubmitTransfer(ctx, nil, to, big.NewInt(1)); !xerrors.IsCode(err, xerrors.CodeMissingCredential) {
		t.Fatalf("expected missing credential, got %v", err)
	}

	key, _ := crypto.GenerateKey()
	backend.FailSends(errors.New("insufficient funds for gas"))
	_, err := client.SubmitTransfer(ctx, key, to, big.NewInt(1))
	if !xerrors.IsCode(err, xerrors.CodeChainFailure) {
		t.Fatalf("expected chain failure, got %v", err)
	}
	if len(backend.Sent()) != 0 {
		t.Fatalf("failed broadcast must not be recorded")
	}
}

func TestNewBackendClientValidatesConfig(t *testing.T) {
	backend := ethtest.NewBackend(56, tokenContract, 18)
	if _, err := ethereum.NewBackendClient(ethereum.Config{ChainID: 56, TokenAddress: "nope"}, backend); err == nil {
		t.Fatalf("expected invalid contract address to fail")
	}
	if _, err := ethereum.NewBackendClient(ethereum.Config{TokenAddress: tokenContract.Hex()}, backend); err == nil {
		t.Fatalf("expected missing chain id to fail")
	}
	if _, err := ethereum.NewClient(context.Background(), ethereum.Config{}); err == nil {
		t.Fatalf("expected missing rpc url to fail")
	}
}
