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

// Package access is the advisory role gate. It answers "would this
// account be allowed" for UX purposes only: the contracts enforce
// authorization, and a stale or wrong answer here cannot grant
// anything. Answers are never cached; roles can change between any
// two actions.
package access

import (
	"context"
	"io"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/vaxgate/vaxid"
)

// RoleReader reads role membership from a contract.
type RoleReader interface {
	HasRole(
		ctx context.Context,
		role vaxid.TypeID,
		account common.Address,
	) (bool, error)
}

type GateConfig struct {
	Reader RoleReader
	Logger *slog.Logger
}

type Gate struct {
	reader RoleReader
	logger *slog.Logger
}

func NewGate(cfg GateConfig) *Gate {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Gate{
		reader: cfg.Reader,
		logger: logger.With("component", "access"),
	}
}

// Allowed reports whether account holds the named role, re-checked
// on-chain for every call. Read failures degrade to false with a
// warning: denying a permitted action is recoverable, displaying a
// forbidden one is misleading.
func (g *Gate) Allowed(
	ctx context.Context,
	roleName string,
	account common.Address,
) bool {
	roleID := vaxid.DeriveRoleID(roleName)
	allowed, err := g.reader.HasRole(ctx, roleID, account)
	if err != nil {
		g.logger.Warn(
			"role check failed, denying",
			"role", roleName,
			"account", account.Hex(),
			"error", err,
		)
		return false
	}
	return allowed
}
