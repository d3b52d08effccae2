// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package chain provides typed accessors over the vaccination
// registry contracts: ABI packing, call/submit plumbing, receipt
// waiting, and classification of contract reverts into the gateway
// error taxonomy.
package chain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultCallTimeout    = 15 * time.Second
	DefaultReceiptTimeout = 2 * time.Minute

	receiptPollInterval = 500 * time.Millisecond
)

// Backend is the subset of an Ethereum JSON-RPC client the accessors
// need. *ethclient.Client satisfies it; tests provide fakes.
type Backend interface {
	CallContract(
		ctx context.Context,
		msg ethereum.CallMsg,
		blockNumber *big.Int,
	) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(
		ctx context.Context,
		txHash common.Hash,
	) (*types.Receipt, error)
	PendingNonceAt(
		ctx context.Context,
		account common.Address,
	) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Dial connects to an Ethereum JSON-RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (Backend, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dialing RPC endpoint: %w", err)
	}
	return client, nil
}

type ClientConfig struct {
	Backend        Backend
	Signer         *Signer
	Logger         *slog.Logger
	PromRegistry   prometheus.Registerer
	CallTimeout    time.Duration
	ReceiptTimeout time.Duration
}

// Client carries the shared call/submit plumbing for the per-contract
// accessors. A Client without a Signer is read-only.
type Client struct {
	backend        Backend
	signer         *Signer
	logger         *slog.Logger
	metrics        *clientMetrics
	callTimeout    time.Duration
	receiptTimeout time.Duration

	chainIDMu sync.Mutex
	chainID   *big.Int

	nonceMu sync.Mutex
}

// NewClient creates a Client from the given config.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Backend == nil {
		return nil, errors.New("no backend provided")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	c := &Client{
		backend:        cfg.Backend,
		signer:         cfg.Signer,
		logger:         logger.With("component", "chain"),
		callTimeout:    cfg.CallTimeout,
		receiptTimeout: cfg.ReceiptTimeout,
	}
	if c.callTimeout <= 0 {
		c.callTimeout = DefaultCallTimeout
	}
	if c.receiptTimeout <= 0 {
		c.receiptTimeout = DefaultReceiptTimeout
	}
	if cfg.PromRegistry != nil {
		c.initMetrics(cfg.PromRegistry)
	}
	return c, nil
}

// Signer returns the configured signer, or nil for a read-only
// client.
func (c *Client) Signer() *Signer {
	return c.signer
}

// BlockNumber returns the current chain head height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	num, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return 0, classifyError("blockNumber", err)
	}
	return num, nil
}

// call performs a read-only contract call and returns the unpacked
// output values.
func (c *Client) call(
	ctx context.Context,
	contract common.Address,
	contractABI *abi.ABI,
	method string,
	args ...any,
) ([]any, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	start := time.Now()
	result, err := c.backend.CallContract(
		callCtx,
		ethereum.CallMsg{
			To:   &contract,
			Data: data,
		},
		nil,
	)
	c.observeCall(method, time.Since(start), err)
	if err != nil {
		return nil, classifyError(method, err)
	}
	out, err := contractABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s result: %w", method, err)
	}
	return out, nil
}

// TxOpts carries per-transaction overrides for submit.
type TxOpts struct {
	// GasLimit overrides gas estimation when non-zero
	GasLimit uint64
	// Value is the ETH amount to send with the call
	Value *big.Int
}

// submit packs and signs a state-changing call, sends it, and blocks
// until the transaction is mined. A receipt with failed status is
// re-simulated to recover the revert reason.
func (c *Client) submit(
	ctx context.Context,
	contract common.Address,
	contractABI *abi.ABI,
	method string,
	opts TxOpts,
	args ...any,
) (*types.Receipt, error) {
	if c.signer == nil {
		return nil, &Error{
			Kind: KindPermissionDenied,
			Op:   method,
			Err:  errors.New("client is read-only: no signer configured"),
		}
	}
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}
	chainID, err := c.getChainID(ctx)
	if err != nil {
		return nil, classifyError(method, err)
	}

	// Serialize nonce fetch and send so concurrent writes from the
	// same account don't race on the pending nonce
	c.nonceMu.Lock()
	tx, err := c.buildAndSendTx(ctx, contract, data, chainID, method, opts)
	c.nonceMu.Unlock()
	if err != nil {
		return nil, err
	}

	c.logger.Debug(
		"transaction submitted",
		"method", method,
		"tx", tx.Hash().Hex(),
	)
	receipt, err := c.waitMined(ctx, tx)
	if err != nil {
		return nil, classifyError(method, err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return nil, c.reviveRevertReason(
			ctx,
			contract,
			data,
			method,
			receipt,
			opts,
		)
	}
	c.observeTx(method, true)
	return receipt, nil
}

func (c *Client) buildAndSendTx(
	ctx context.Context,
	contract common.Address,
	data []byte,
	chainID *big.Int,
	method string,
	opts TxOpts,
) (*types.Transaction, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	from := c.signer.Address()
	nonce, err := c.backend.PendingNonceAt(callCtx, from)
	if err != nil {
		return nil, classifyError(method, err)
	}
	gasPrice, err := c.backend.SuggestGasPrice(callCtx)
	if err != nil {
		return nil, classifyError(method, err)
	}
	gasLimit := opts.GasLimit
	if gasLimit == 0 {
		msg := ethereum.CallMsg{
			From:  from,
			To:    &contract,
			Data:  data,
			Value: opts.Value,
		}
		gasLimit, err = c.backend.EstimateGas(callCtx, msg)
		if err != nil {
			// Estimation simulates the call, so a revert surfaces
			// here with its reason intact
			return nil, classifyError(method, err)
		}
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &contract,
		Value:    opts.Value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signedTx, err := c.signer.signTx(tx, chainID)
	if err != nil {
		return nil, fmt.Errorf("signing %s transaction: %w", method, err)
	}
	if err := c.backend.SendTransaction(callCtx, signedTx); err != nil {
		c.observeTx(method, false)
		return nil, classifyError(method, err)
	}
	return signedTx, nil
}

// waitMined polls for the transaction receipt until it lands or the
// receipt timeout expires.
func (c *Client) waitMined(
	ctx context.Context,
	tx *types.Transaction,
) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()
	for {
		receipt, err := c.backend.TransactionReceipt(waitCtx, tx.Hash())
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}
		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf(
				"waiting for receipt of %s: %w",
				tx.Hash().Hex(),
				waitCtx.Err(),
			)
		case <-ticker.C:
		}
	}
}

// reviveRevertReason re-simulates a failed transaction at its mined
// block to recover the revert reason for classification.
func (c *Client) reviveRevertReason(
	ctx context.Context,
	contract common.Address,
	data []byte,
	method string,
	receipt *types.Receipt,
	opts TxOpts,
) error {
	c.observeTx(method, false)
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	_, err := c.backend.CallContract(
		callCtx,
		ethereum.CallMsg{
			From:  c.signer.Address(),
			To:    &contract,
			Data:  data,
			Value: opts.Value,
		},
		receipt.BlockNumber,
	)
	if err != nil {
		return classifyError(method, err)
	}
	return &Error{
		Kind: KindUnknown,
		Op:   method,
		Err: fmt.Errorf(
			"transaction %s reverted without reason",
			receipt.TxHash.Hex(),
		),
	}
}

// getChainID fetches and caches the chain id. Failed fetches are not
// cached so a transient RPC error doesn't poison the client.
func (c *Client) getChainID(ctx context.Context) (*big.Int, error) {
	c.chainIDMu.Lock()
	defer c.chainIDMu.Unlock()
	if c.chainID != nil {
		return c.chainID, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	chainID, err := c.backend.ChainID(callCtx)
	if err != nil {
		return nil, err
	}
	c.chainID = chainID
	return c.chainID, nil
}
