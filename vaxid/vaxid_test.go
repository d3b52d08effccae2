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

package vaxid_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/vaxgate/vaxid"
)

func TestDeriveTypeIDKnownVectors(t *testing.T) {
	// Known keccak-256 vectors
	testDefs := []struct {
		name     string
		expected string
	}{
		{
			name:     "",
			expected: "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		},
		{
			name:     "abc",
			expected: "0x4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45",
		},
		{
			name:     "MINTER_ROLE",
			expected: "0x9f2df0fed2c77648de5860a4cc508cd0818c85b8b8a1ab4ceeef8d981c8956a6",
		},
	}
	for _, testDef := range testDefs {
		id := vaxid.DeriveTypeID(testDef.name)
		require.Equal(t, testDef.expected, id.String())
	}
}

func TestDeriveTypeIDDeterministic(t *testing.T) {
	require.Equal(
		t,
		vaxid.DeriveTypeID("COVID-19"),
		vaxid.DeriveTypeID("COVID-19"),
	)
}

func TestDeriveTypeIDDivergence(t *testing.T) {
	// Names differing in case or whitespace must map to distinct ids
	names := []string{
		"COVID-19",
		"covid-19",
		"COVID-19 ",
		" COVID-19",
		"COVID19",
	}
	seen := make(map[vaxid.TypeID]string)
	for _, name := range names {
		id := vaxid.DeriveTypeID(name)
		if prev, ok := seen[id]; ok {
			t.Fatalf("names %q and %q derived the same id", prev, name)
		}
		seen[id] = name
	}
}

func TestDeriveRoleIDAdminSentinel(t *testing.T) {
	require.True(t, vaxid.DeriveRoleID(vaxid.AdminRole).IsZero())
	require.True(t, vaxid.DeriveRoleID(vaxid.DefaultAdminRole).IsZero())
}

func TestDeriveRoleIDNonAdmin(t *testing.T) {
	id := vaxid.DeriveRoleID("MEDICAL_AGENT_ROLE")
	require.False(t, id.IsZero())
	require.Equal(t, vaxid.DeriveTypeID("MEDICAL_AGENT_ROLE"), id)
}
