package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	xerrors "SLH-Bot/internal/errors"
	"SLH-Bot/internal/observability/metrics"
	"SLH-Bot/internal/web3"
)

const (
	defaultGasLimit = 200_000
	defaultGasPrice = 5_000_000_000 // 5 gwei
)

// Config describes how to construct a token client for an EVM chain.
type Config struct {
	Name         string
	RPCURL       string
	ChainID      int64
	TokenAddress string
	Symbol       string
	GasLimit     uint64
	GasPrice     *big.Int
}

// Backend is the subset of ethclient.Client the token client needs.
type Backend interface {
	CallContract(ctx context.Context, call gethcore.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *coretypes.Transaction) error
}

// Client implements web3.TokenClient for one ERC-20 contract.
type Client struct {
	name      string
	info      web3.TokenInfo
	rpcClient *gethrpc.Client
	eth       *ethclient.Client
	backend   Backend
	gasLimit  uint64
	gasPrice  *big.Int

	mu       sync.Mutex
	decimals *uint8
}

// NewClient dials the configured RPC endpoint and returns a ready-to-use
// client. When ChainID is zero it is read from the node.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	rpcURL := strings.TrimSpace(cfg.RPCURL)
	if rpcURL == "" {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "未配置链 RPC 地址")
	}

	rpcClient, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeChainFailure, err, "连接链节点失败")
	}
	eth := ethclient.NewClient(rpcClient)

	if cfg.ChainID == 0 {
		id, err := eth.ChainID(ctx)
		if err != nil {
			rpcClient.Close()
			return nil, xerrors.Wrap(xerrors.CodeChainFailure, err, "获取链 ID 失败")
		}
		cfg.ChainID = id.Int64()
	}

	client, err := NewBackendClient(cfg, eth)
	if err != nil {
		rpcClient.Close()
		return nil, err
	}
	client.rpcClient = rpcClient
	client.eth = eth
	return client, nil
}

// NewBackendClient builds a client over an existing backend, such as an
// in-process fake in tests.
func NewBackendClient(cfg Config, backend Backend) (*Client, error) {
	if backend == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "客户端缺少链访问后端")
	}
	if !common.IsHexAddress(cfg.TokenAddress) {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, fmt.Sprintf("代币合约地址无效: %q", cfg.TokenAddress))
	}
	if cfg.ChainID <= 0 {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "未配置链 ID")
	}
	gasLimit := cfg.GasLimit
	if gasLimit == 0 {
		gasLimit = defaultGasLimit
	}
	gasPrice := big.NewInt(defaultGasPrice)
	if cfg.GasPrice != nil && cfg.GasPrice.Sign() > 0 {
		gasPrice = new(big.Int).Set(cfg.GasPrice)
	}
	return &Client{
		name: cfg.Name,
		info: web3.TokenInfo{
			ChainID:  big.NewInt(cfg.ChainID),
			Contract: common.HexToAddress(cfg.TokenAddress),
			Symbol:   cfg.Symbol,
		},
		backend:  backend,
		gasLimit: gasLimit,
		gasPrice: gasPrice,
	}, nil
}

// Info returns the chain and contract the client is bound to.
func (c *Client) Info() web3.TokenInfo {
	return web3.TokenInfo{
		ChainID:  new(big.Int).Set(c.info.ChainID),
		Contract: c.info.Contract,
		Symbol:   c.info.Symbol,
	}
}

// Close releases network connections held by the client.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eth != nil {
		c.eth.Close()
		c.eth = nil
	}
	if c.rpcClient != nil {
		c.rpcClient.Close()
		c.rpcClient = nil
	}
}

// BalanceOf calls balanceOf(owner) on the token contract.
func (c *Client) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	values, err := c.call(ctx, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, xerrors.New(xerrors.CodeChainFailure, fmt.Sprintf("balanceOf 返回了意外类型 %T", values[0]))
	}
	return balance, nil
}

// Decimals returns the token precision, fetching it once per process.
func (c *Client) Decimals(ctx context.Context) (uint8, error) {
	c.mu.Lock()
	if c.decimals != nil {
		d := *c.decimals
		c.mu.Unlock()
		return d, nil
	}
	c.mu.Unlock()

	values, err := c.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, xerrors.New(xerrors.CodeChainFailure, fmt.Sprintf("decimals 返回了意外类型 %T", values[0]))
	}

	c.mu.Lock()
	c.decimals = &decimals
	c.mu.Unlock()
	return decimals, nil
}

// SubmitTransfer signs transfer(to, amount) with key and broadcasts it. The
// signer nonce is read from the node on every call; concurrent submissions
// by the same signer rely on the node's pending nonce.
func (c *Client) SubmitTransfer(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, amount *big.Int) (hash common.Hash, err error) {
	if key == nil {
		return common.Hash{}, xerrors.New(xerrors.CodeMissingCredential, "未提供交易签名私钥")
	}
	if amount == nil || amount.Sign() <= 0 {
		return common.Hash{}, xerrors.New(xerrors.CodeValidation, "转账数量必须大于 0")
	}

	started := time.Now()
	defer func() { metrics.ObserveChainCall("transfer", err, time.Since(started)) }()

	from := crypto.PubkeyToAddress(key.PublicKey)
	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, xerrors.Wrap(xerrors.CodeChainFailure, err, "获取 nonce 失败")
	}

	data, err := TokenABI.Pack("transfer", to, amount)
	if err != nil {
		return common.Hash{}, xerrors.Wrap(xerrors.CodeChainFailure, err, "编码 transfer 调用失败")
	}

	contract := c.info.Contract
	tx := coretypes.NewTx(&coretypes.LegacyTx{
		Nonce:    nonce,
		GasPrice: new(big.Int).Set(c.gasPrice),
		Gas:      c.gasLimit,
		To:       &contract,
		Value:    big.NewInt(0),
		Data:     data,
	})
	signed, err := coretypes.SignTx(tx, coretypes.NewEIP155Signer(c.info.ChainID), key)
	if err != nil {
		return common.Hash{}, xerrors.Wrap(xerrors.CodeChainFailure, err, "签名交易失败")
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, xerrors.Wrap(xerrors.CodeChainFailure, err, "广播交易失败")
	}
	return signed.Hash(), nil
}

func (c *Client) call(ctx context.Context, method string, args ...any) (values []any, err error) {
	started := time.Now()
	defer func() { metrics.ObserveChainCall(method, err, time.Since(started)) }()

	data, err := TokenABI.Pack(method, args...)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeChainFailure, err, fmt.Sprintf("编码 %s 调用失败", method))
	}
	contract := c.info.Contract
	out, err := c.backend.CallContract(ctx, gethcore.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeChainFailure, err, fmt.Sprintf("调用 %s 失败", method))
	}
	if len(out) == 0 {
		return nil, xerrors.Wrap(xerrors.CodeChainFailure, errors.New("empty return data"), fmt.Sprintf("合约 %s 未返回数据", method))
	}
	values, err = TokenABI.Unpack(method, out)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeChainFailure, err, fmt.Sprintf("解析 %s 返回值失败", method))
	}
	if len(values) == 0 {
		return nil, xerrors.New(xerrors.CodeChainFailure, fmt.Sprintf("%s 返回值为空", method))
	}
	return values, nil
}

var _ web3.TokenClient = (*Client)(nil)
