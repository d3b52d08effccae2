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

package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// GasLimitMint is the fixed gas limit for governance token mints.
const GasLimitMint = 100_000

// TokenInfo is the static metadata of the governance token.
type TokenInfo struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *big.Int
	Owner       common.Address
}

// Token wraps the governance (voting) token contract. All amounts are
// in wei; decimal formatting happens at the presentation boundary.
type Token struct {
	client *Client
	addr   common.Address
}

func NewToken(client *Client, addr common.Address) *Token {
	return &Token{
		client: client,
		addr:   addr,
	}
}

// Info returns the token's static metadata in one round of calls.
func (t *Token) Info(ctx context.Context) (TokenInfo, error) {
	var info TokenInfo
	out, err := t.client.call(ctx, t.addr, tokenABI, "name")
	if err != nil {
		return TokenInfo{}, err
	}
	info.Name = *abi.ConvertType(out[0], new(string)).(*string)
	out, err = t.client.call(ctx, t.addr, tokenABI, "symbol")
	if err != nil {
		return TokenInfo{}, err
	}
	info.Symbol = *abi.ConvertType(out[0], new(string)).(*string)
	out, err = t.client.call(ctx, t.addr, tokenABI, "decimals")
	if err != nil {
		return TokenInfo{}, err
	}
	info.Decimals = *abi.ConvertType(out[0], new(uint8)).(*uint8)
	out, err = t.client.call(ctx, t.addr, tokenABI, "totalSupply")
	if err != nil {
		return TokenInfo{}, err
	}
	info.TotalSupply = *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	out, err = t.client.call(ctx, t.addr, tokenABI, "owner")
	if err != nil {
		return TokenInfo{}, err
	}
	info.Owner = *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	return info, nil
}

// BalanceOf returns the wei balance of an account.
func (t *Token) BalanceOf(
	ctx context.Context,
	account common.Address,
) (*big.Int, error) {
	out, err := t.client.call(
		ctx,
		t.addr,
		tokenABI,
		"balanceOf",
		account,
	)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Transfer sends amount wei to another account.
func (t *Token) Transfer(
	ctx context.Context,
	to common.Address,
	amount *big.Int,
) (*types.Receipt, error) {
	return t.client.submit(
		ctx,
		t.addr,
		tokenABI,
		"transfer",
		TxOpts{},
		to,
		amount,
	)
}

// Approve lets spender move up to amount wei from the signing
// account.
func (t *Token) Approve(
	ctx context.Context,
	spender common.Address,
	amount *big.Int,
) (*types.Receipt, error) {
	return t.client.submit(
		ctx,
		t.addr,
		tokenABI,
		"approve",
		TxOpts{},
		spender,
		amount,
	)
}

// Mint creates amount wei for an account. Owner-only on-chain.
func (t *Token) Mint(
	ctx context.Context,
	to common.Address,
	amount *big.Int,
) (*types.Receipt, error) {
	return t.client.submit(
		ctx,
		t.addr,
		tokenABI,
		"mint",
		TxOpts{GasLimit: GasLimitMint},
		to,
		amount,
	)
}

// Burn destroys amount wei from the signing account.
func (t *Token) Burn(
	ctx context.Context,
	amount *big.Int,
) (*types.Receipt, error) {
	return t.client.submit(
		ctx,
		t.addr,
		tokenABI,
		"burn",
		TxOpts{},
		amount,
	)
}

// BurnFrom destroys amount wei from another account using an
// existing allowance.
func (t *Token) BurnFrom(
	ctx context.Context,
	account common.Address,
	amount *big.Int,
) (*types.Receipt, error) {
	return t.client.submit(
		ctx,
		t.addr,
		tokenABI,
		"burnFrom",
		TxOpts{},
		account,
		amount,
	)
}
