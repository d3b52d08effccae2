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

// Package session tracks the single active on-chain identity (account,
// chain id, RPC endpoint). Anything derived from session state carries
// the version it was derived under; a version mismatch means the data
// belongs to a previous identity and must be discarded, never merged.
package session

import (
	"io"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/vaxgate/event"
)

const (
	// InvalidatedEventType is published whenever the active account or
	// network changes. The event data is an InvalidatedEvent.
	InvalidatedEventType event.EventType = "session.invalidated"
)

// InvalidatedEvent carries the new session snapshot and the version
// that replaced the old one.
type InvalidatedEvent struct {
	Account common.Address
	ChainID *big.Int
	RPCURL  string
	Version uint64
}

type SessionConfig struct {
	EventBus *event.EventBus
	Logger   *slog.Logger
	Account  common.Address
	ChainID  *big.Int
	RPCURL   string
}

// Session is the single active identity. There is never more than one;
// switching replaces it wholesale.
type Session struct {
	eventBus *event.EventBus
	logger   *slog.Logger
	account  common.Address
	chainID  *big.Int
	rpcURL   string
	version  uint64
	mu       sync.RWMutex
}

func NewSession(cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Session{
		eventBus: cfg.EventBus,
		logger:   logger.With("component", "session"),
		account:  cfg.Account,
		chainID:  cfg.ChainID,
		rpcURL:   cfg.RPCURL,
		version:  1,
	}
}

// Version returns the current session version. The counter is
// monotonic; it only moves forward, so a reader holding an older
// version can always detect that its data is stale.
func (s *Session) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Session) Account() common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

func (s *Session) ChainID() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.chainID == nil {
		return nil
	}
	return new(big.Int).Set(s.chainID)
}

func (s *Session) RPCURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rpcURL
}

// Valid reports whether data derived under the given version may still
// be trusted.
func (s *Session) Valid(version uint64) bool {
	return s.Version() == version
}

// SwitchAccount replaces the active account, bumps the session version,
// and publishes a session.invalidated event. A switch to the same
// account still invalidates: the caller asked for a fresh identity.
func (s *Session) SwitchAccount(account common.Address) uint64 {
	s.mu.Lock()
	s.account = account
	s.version++
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.publishInvalidated(snapshot)
	return snapshot.Version
}

// SwitchNetwork replaces the active chain id and RPC endpoint, bumps
// the session version, and publishes a session.invalidated event.
func (s *Session) SwitchNetwork(chainID *big.Int, rpcURL string) uint64 {
	s.mu.Lock()
	s.chainID = chainID
	s.rpcURL = rpcURL
	s.version++
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.publishInvalidated(snapshot)
	return snapshot.Version
}

func (s *Session) snapshotLocked() InvalidatedEvent {
	var chainID *big.Int
	if s.chainID != nil {
		chainID = new(big.Int).Set(s.chainID)
	}
	return InvalidatedEvent{
		Account: s.account,
		ChainID: chainID,
		RPCURL:  s.rpcURL,
		Version: s.version,
	}
}

func (s *Session) publishInvalidated(snapshot InvalidatedEvent) {
	s.logger.Info(
		"session invalidated",
		"account", snapshot.Account.Hex(),
		"version", snapshot.Version,
	)
	if s.eventBus != nil {
		s.eventBus.Publish(
			InvalidatedEventType,
			event.NewEvent(InvalidatedEventType, snapshot),
		)
	}
}
