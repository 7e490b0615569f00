package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"SLH-Bot/internal/config"
)

const tokenAddress = "0xACb0A09414CEA1C879c67bB7A877E4e19480f022"

func TestRegistryFromDefinitions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.yaml")
	content := `chains:
  bsc:
    rpc_url: http://127.0.0.1:8545
    chain_id: 56
    token_address: ` + tokenAddress + `
  bsc-testnet:
    rpc_url: http://127.0.0.1:8546
    chain_id: 97
    explorer_tx_url: https://testnet.bscscan.com/tx/
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write chain config: %v", err)
	}

	reg, err := NewRegistry(context.Background(), config.Web3Config{
		ChainConfig:   path,
		DefaultChain:  "bsc",
		TokenAddress:  tokenAddress,
		Symbol:        "SLH",
		ExplorerTxURL: "https://bscscan.com/tx/",
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	defer reg.Close()

	if got := reg.Chains(); len(got) != 2 || got[0] != "bsc" || got[1] != "bsc-testnet" {
		t.Fatalf("unexpected chains %v", got)
	}
	def, err := reg.Default()
	if err != nil {
		t.Fatalf("default chain: %v", err)
	}
	if def.Name != "bsc" || def.Symbol != "SLH" || def.ExplorerTxURL != "https://bscscan.com/tx/" {
		t.Fatalf("unexpected default chain %+v", def)
	}
	testnet, ok := reg.Chain("bsc-testnet")
	if !ok || testnet.ExplorerTxURL != "https://testnet.bscscan.com/tx/" {
		t.Fatalf("per-chain explorer url should win, got %+v", testnet)
	}
}

func TestRegistryFallsBackToTopLevelRPC(t *testing.T) {
	reg, err := NewRegistry(context.Background(), config.Web3Config{
		RPCURL:       "http://127.0.0.1:8545",
		ChainID:      56,
		TokenAddress: tokenAddress,
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	defer reg.Close()
	if _, ok := reg.Chain("default"); !ok {
		t.Fatalf("expected default chain to be registered")
	}
}

func TestRegistryErrors(t *testing.T) {
	if _, err := NewRegistry(context.Background(), config.Web3Config{}); err == nil {
		t.Fatalf("expected error without any endpoint")
	}
	if _, err := NewRegistry(context.Background(), config.Web3Config{
		RPCURL: "http://127.0.0.1:8545", ChainID: 56, TokenAddress: tokenAddress, DefaultChain: "eth",
	}); err == nil {
		t.Fatalf("expected error for unknown default chain")
	}
	var nilReg *Registry
	if _, err := nilReg.Default(); err == nil {
		t.Fatalf("expected error from nil registry")
	}
}
