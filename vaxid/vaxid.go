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

// Package vaxid derives the bytes32 identifiers used by the registry
// contracts. All identifier derivation in this repo goes through this
// package so that a given name maps to exactly one on-chain key.
package vaxid

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// TypeID is a 32-byte contract-side identifier derived from a
// human-readable name.
type TypeID [32]byte

// AdminRole is the name of the default admin role. It maps to the
// zero identifier rather than a keccak hash, matching the
// OpenZeppelin DEFAULT_ADMIN_ROLE sentinel.
const AdminRole = "ADMIN_ROLE"

// DefaultAdminRole is an accepted alias for AdminRole.
const DefaultAdminRole = "DEFAULT_ADMIN_ROLE"

// DeriveTypeID returns the identifier for a vaccine type name:
// keccak-256 over the raw UTF-8 bytes of the name. The name is not
// trimmed, padded, or case-folded; distinct strings yield distinct
// identifiers.
func DeriveTypeID(name string) TypeID {
	return TypeID(crypto.Keccak256Hash([]byte(name)))
}

// DeriveRoleID returns the identifier for a role name. The admin role
// names map to the zero value; any other role name is hashed the same
// way as a vaccine type name.
func DeriveRoleID(role string) TypeID {
	if role == AdminRole || role == DefaultAdminRole {
		return TypeID{}
	}
	return DeriveTypeID(role)
}

// Hash returns the identifier as a common.Hash for use in contract
// call arguments.
func (t TypeID) Hash() common.Hash {
	return common.Hash(t)
}

// Bytes returns the identifier as a byte slice.
func (t TypeID) Bytes() []byte {
	return t[:]
}

// IsZero reports whether the identifier is the zero sentinel.
func (t TypeID) IsZero() bool {
	return t == TypeID{}
}

// String returns the 0x-prefixed hex form of the identifier.
func (t TypeID) String() string {
	return common.Hash(t).Hex()
}
