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

package vaxgate

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	// Default logger must be usable without nil guards
	require.NotNil(t, cfg.logger)
	assert.Empty(t, cfg.rpcURL)
	assert.Equal(t, ContractAddresses{}, cfg.contracts)
}

func TestNewConfigOptions(t *testing.T) {
	registryAddr := common.HexToAddress(
		"0x1111111111111111111111111111111111111111",
	)
	cfg := NewConfig(
		WithRPCURL("http://localhost:8545"),
		WithContractAddresses(ContractAddresses{
			Registry: registryAddr,
		}),
		WithListenAddress(":3000"),
		WithFanoutLimit(4),
		WithCallTimeout(5*time.Second),
	)
	assert.Equal(t, "http://localhost:8545", cfg.rpcURL)
	assert.Equal(t, registryAddr, cfg.contracts.Registry)
	assert.Equal(t, ":3000", cfg.listenAddress)
	assert.Equal(t, 4, cfg.fanoutLimit)
	assert.Equal(t, 5*time.Second, cfg.callTimeout)
}

func TestNewRequiresRPCURL(t *testing.T) {
	_, err := New(NewConfig(
		WithContractAddresses(ContractAddresses{
			Registry: common.HexToAddress(
				"0x1111111111111111111111111111111111111111",
			),
		}),
	))
	require.ErrorContains(t, err, "no RPC URL configured")
}

func TestNewRequiresRegistryAddress(t *testing.T) {
	_, err := New(NewConfig(
		WithRPCURL("http://localhost:8545"),
	))
	require.ErrorContains(t, err, "no registry contract address")
}

func TestNewCreatesEventBus(t *testing.T) {
	g, err := New(NewConfig(
		WithRPCURL("http://localhost:8545"),
		WithContractAddresses(ContractAddresses{
			Registry: common.HexToAddress(
				"0x1111111111111111111111111111111111111111",
			),
		}),
	))
	require.NoError(t, err)
	require.NotNil(t, g.EventBus())
}
