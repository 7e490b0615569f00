package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"SLH-Bot/internal/config"
	"SLH-Bot/internal/web3"
	"SLH-Bot/internal/web3/ethereum"
)

// Chain bundles a token client with the presentation metadata of its chain.
type Chain struct {
	Name          string
	Client        web3.TokenClient
	Symbol        string
	ExplorerTxURL string
}

// Registry manages a set of token clients keyed by human readable names.
type Registry struct {
	defaultChain string
	chains       map[string]Chain
}

// NewRegistry loads chain definitions and instantiates concrete clients.
// Values missing from a definition fall back to the top-level web3 config.
func NewRegistry(ctx context.Context, cfg config.Web3Config) (*Registry, error) {
	defs, err := web3.LoadChainDefinitions(cfg.ChainConfig)
	if err != nil {
		return nil, err
	}

	chains := make(map[string]Chain)
	for name, def := range defs.Chains {
		chainType := strings.ToLower(strings.TrimSpace(def.Type))
		if chainType == "" {
			chainType = "evm"
		}
		if chainType != "evm" {
			closeAll(chains)
			return nil, fmt.Errorf("链 %s 使用了不支持的类型 %s", name, def.Type)
		}
		chain, err := newChain(ctx, name, mergeDefinition(def, cfg), cfg)
		if err != nil {
			closeAll(chains)
			return nil, fmt.Errorf("初始化链 %s 失败: %w", name, err)
		}
		chains[name] = chain
	}

	if len(chains) == 0 && strings.TrimSpace(cfg.RPCURL) != "" {
		chain, err := newChain(ctx, "default", mergeDefinition(web3.ChainDefinition{}, cfg), cfg)
		if err != nil {
			return nil, err
		}
		chains["default"] = chain
		if cfg.DefaultChain == "" {
			cfg.DefaultChain = "default"
		}
	}

	if len(chains) == 0 {
		return nil, errors.New("未配置任何链的 RPC 端点")
	}

	defaultChain := cfg.DefaultChain
	if defaultChain == "" {
		names := make([]string, 0, len(chains))
		for name := range chains {
			names = append(names, name)
		}
		sort.Strings(names)
		defaultChain = names[0]
	}
	if _, ok := chains[defaultChain]; !ok {
		closeAll(chains)
		return nil, fmt.Errorf("默认链 %s 未在配置中找到", defaultChain)
	}

	return &Registry{defaultChain: defaultChain, chains: chains}, nil
}

func mergeDefinition(def web3.ChainDefinition, cfg config.Web3Config) web3.ChainDefinition {
	if def.RPCURL == "" {
		def.RPCURL = cfg.RPCURL
	}
	if def.ChainID == 0 {
		def.ChainID = cfg.ChainID
	}
	if def.TokenAddress == "" {
		def.TokenAddress = cfg.TokenAddress
	}
	if def.Symbol == "" {
		def.Symbol = cfg.Symbol
	}
	if def.ExplorerTxURL == "" {
		def.ExplorerTxURL = cfg.ExplorerTxURL
	}
	return def
}

func newChain(ctx context.Context, name string, def web3.ChainDefinition, cfg config.Web3Config) (Chain, error) {
	var gasPrice *big.Int
	if cfg.GasPriceWei > 0 {
		gasPrice = big.NewInt(cfg.GasPriceWei)
	}
	client, err := ethereum.NewClient(ctx, ethereum.Config{
		Name:         name,
		RPCURL:       def.RPCURL,
		ChainID:      def.ChainID,
		TokenAddress: def.TokenAddress,
		Symbol:       def.Symbol,
		GasLimit:     cfg.GasLimit,
		GasPrice:     gasPrice,
	})
	if err != nil {
		return Chain{}, err
	}
	return Chain{
		Name:          name,
		Client:        client,
		Symbol:        def.Symbol,
		ExplorerTxURL: def.ExplorerTxURL,
	}, nil
}

func closeAll(chains map[string]Chain) {
	for _, chain := range chains {
		chain.Client.Close()
	}
}

// Default returns the chain configured as default.
func (r *Registry) Default() (Chain, error) {
	if r == nil {
		return Chain{}, errors.New("未初始化的链客户端注册表")
	}
	chain, ok := r.chains[r.defaultChain]
	if !ok {
		return Chain{}, fmt.Errorf("默认链 %s 未在注册表中", r.defaultChain)
	}
	return chain, nil
}

// Chain returns the chain identified by name.
func (r *Registry) Chain(name string) (Chain, bool) {
	if r == nil {
		return Chain{}, false
	}
	chain, ok := r.chains[name]
	return chain, ok
}

// Close releases all clients managed by the registry.
func (r *Registry) Close() {
	if r == nil {
		return
	}
	for name, chain := range r.chains {
		if chain.Client != nil {
			chain.Client.Close()
		}
		delete(r.chains, name)
	}
}

// Chains returns the list of registered chain names.
func (r *Registry) Chains() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.chains))
	for name := range r.chains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
