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

	"github.com/blinklabs-io/vaxgate/vaxid"
)

// StockLevel is the stock state for a (center, vaccine type) pair.
type StockLevel struct {
	CurrentQuantity   *big.Int
	CriticalThreshold *big.Int
}

// Critical reports whether the current quantity has fallen to or
// below the configured threshold.
func (s StockLevel) Critical() bool {
	if s.CurrentQuantity == nil || s.CriticalThreshold == nil {
		return false
	}
	return s.CurrentQuantity.Cmp(s.CriticalThreshold) <= 0
}

// Stock wraps the vaccine stock contract.
type Stock struct {
	client *Client
	addr   common.Address
}

func NewStock(client *Client, addr common.Address) *Stock {
	return &Stock{
		client: client,
		addr:   addr,
	}
}

// AddCenter registers a vaccination center.
func (s *Stock) AddCenter(
	ctx context.Context,
	centerID string,
) (*types.Receipt, error) {
	return s.client.submit(
		ctx,
		s.addr,
		stockABI,
		"addCenter",
		TxOpts{},
		centerID,
	)
}

// ConfigureStock initializes the stock entry for a center and vaccine
// type with a starting quantity and critical threshold.
func (s *Stock) ConfigureStock(
	ctx context.Context,
	centerID string,
	typeID vaxid.TypeID,
	initialQuantity *big.Int,
	criticalThreshold *big.Int,
) (*types.Receipt, error) {
	return s.client.submit(
		ctx,
		s.addr,
		stockABI,
		"configureStock",
		TxOpts{},
		centerID,
		typeID.Hash(),
		initialQuantity,
		criticalThreshold,
	)
}

// AddStock increases the stock for a center and vaccine type.
func (s *Stock) AddStock(
	ctx context.Context,
	centerID string,
	typeID vaxid.TypeID,
	quantity *big.Int,
) (*types.Receipt, error) {
	return s.client.submit(
		ctx,
		s.addr,
		stockABI,
		"addStock",
		TxOpts{},
		centerID,
		typeID.Hash(),
		quantity,
	)
}

// RemoveStock decreases the stock for a center and vaccine type.
func (s *Stock) RemoveStock(
	ctx context.Context,
	centerID string,
	typeID vaxid.TypeID,
	quantity *big.Int,
) (*types.Receipt, error) {
	return s.client.submit(
		ctx,
		s.addr,
		stockABI,
		"removeStock",
		TxOpts{},
		centerID,
		typeID.Hash(),
		quantity,
	)
}

// GetStock returns the stock level for a center and vaccine type.
// An unconfigured pair reverts on-chain and surfaces here as a
// not-found error.
func (s *Stock) GetStock(
	ctx context.Context,
	centerID string,
	typeID vaxid.TypeID,
) (StockLevel, error) {
	out, err := s.client.call(
		ctx,
		s.addr,
		stockABI,
		"getStock",
		centerID,
		typeID.Hash(),
	)
	if err != nil {
		return StockLevel{}, err
	}
	return StockLevel{
		CurrentQuantity:   *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		CriticalThreshold: *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
	}, nil
}

// GetAllCenters returns every registered center id.
func (s *Stock) GetAllCenters(ctx context.Context) ([]string, error) {
	out, err := s.client.call(
		ctx,
		s.addr,
		stockABI,
		"getAllCenters",
	)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]string)).(*[]string), nil
}
