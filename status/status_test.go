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

package status_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/vaxgate/chain"
	"github.com/blinklabs-io/vaxgate/status"
	"github.com/blinklabs-io/vaxgate/vaxid"
)

type fakeReader struct {
	statusFunc func(
		code string,
		typeID vaxid.TypeID,
	) (chain.RawStatus, error)
	typeInfo    chain.VaccinationType
	typeInfoErr error
}

func (f *fakeReader) GetPatientVaccinationStatus(
	_ context.Context,
	code string,
	typeID vaxid.TypeID,
) (chain.RawStatus, error) {
	return f.statusFunc(code, typeID)
}

func (f *fakeReader) GetVaccinationTypeInfo(
	_ context.Context,
	_ vaxid.TypeID,
) (chain.VaccinationType, error) {
	if f.typeInfoErr != nil {
		return chain.VaccinationType{}, f.typeInfoErr
	}
	return f.typeInfo, nil
}

func notFoundErr() error {
	return &chain.Error{
		Kind: chain.KindNotFound,
		Op:   "getPatientVaccinationStatus",
	}
}

func transportErr() error {
	return &chain.Error{
		Kind: chain.KindTransport,
		Op:   "getPatientVaccinationStatus",
	}
}

func TestStatusNotFoundYieldsZero(t *testing.T) {
	reader := &fakeReader{
		statusFunc: func(
			_ string,
			_ vaxid.TypeID,
		) (chain.RawStatus, error) {
			return chain.RawStatus{}, notFoundErr()
		},
		typeInfoErr: notFoundErr(),
	}
	reconciler := status.NewReconciler(status.ReconcilerConfig{
		Reader: reader,
	})
	st, err := reconciler.Status(context.Background(), "PAT-404", "COVID-19")
	require.NoError(t, err)
	require.Zero(t, st.DoseCount())
	require.False(t, st.Complete)
	require.False(t, st.HasCertificateToken())
}

func TestStatusTransportFailureYieldsZero(t *testing.T) {
	// A transport failure presents identically to a missing record;
	// only logs and metrics tell them apart
	reader := &fakeReader{
		statusFunc: func(
			_ string,
			_ vaxid.TypeID,
		) (chain.RawStatus, error) {
			return chain.RawStatus{}, transportErr()
		},
	}
	reconciler := status.NewReconciler(status.ReconcilerConfig{
		Reader: reader,
	})
	st, err := reconciler.Status(context.Background(), "PAT-001", "COVID-19")
	require.NoError(t, err)
	require.Zero(t, st.DoseCount())
	require.False(t, st.Complete)
}

func TestStatusDerivesTypeIDFromName(t *testing.T) {
	var gotTypeID vaxid.TypeID
	reader := &fakeReader{
		statusFunc: func(
			_ string,
			typeID vaxid.TypeID,
		) (chain.RawStatus, error) {
			gotTypeID = typeID
			return chain.RawStatus{
				CertificateTokenID: big.NewInt(0),
			}, nil
		},
		typeInfoErr: notFoundErr(),
	}
	reconciler := status.NewReconciler(status.ReconcilerConfig{
		Reader: reader,
	})
	_, err := reconciler.Status(context.Background(), "PAT-001", "COVID-19")
	require.NoError(t, err)
	require.Equal(t, vaxid.DeriveTypeID("COVID-19"), gotTypeID)
}

func TestStatusCompleteWithCertificate(t *testing.T) {
	reader := &fakeReader{
		statusFunc: func(
			_ string,
			_ vaxid.TypeID,
		) (chain.RawStatus, error) {
			return chain.RawStatus{
				Doses: []chain.DoseRecord{
					{Date: 1700000000, CenterID: "CENTER-1"},
					{Date: 1702000000, CenterID: "CENTER-1"},
				},
				CertificateTokenID: big.NewInt(9),
				Complete:           true,
			}, nil
		},
		typeInfo: chain.VaccinationType{
			Name:          "COVID-19",
			RequiredDoses: 2,
			Exists:        true,
		},
	}
	reconciler := status.NewReconciler(status.ReconcilerConfig{
		Reader: reader,
	})
	st, err := reconciler.Status(context.Background(), "PAT-001", "COVID-19")
	require.NoError(t, err)
	require.Equal(t, 2, st.DoseCount())
	require.True(t, st.Complete)
	require.True(t, st.HasCertificateToken())
}

func TestStatusCompletionFlagAuthoritativeOnMismatch(t *testing.T) {
	// One dose of two, but the contract says complete: the flag wins
	reader := &fakeReader{
		statusFunc: func(
			_ string,
			_ vaxid.TypeID,
		) (chain.RawStatus, error) {
			return chain.RawStatus{
				Doses: []chain.DoseRecord{
					{Date: 1700000000, CenterID: "CENTER-1"},
				},
				CertificateTokenID: big.NewInt(0),
				Complete:           true,
			}, nil
		},
		typeInfo: chain.VaccinationType{
			Name:          "COVID-19",
			RequiredDoses: 2,
			Exists:        true,
		},
	}
	reconciler := status.NewReconciler(status.ReconcilerConfig{
		Reader: reader,
	})
	st, err := reconciler.Status(context.Background(), "PAT-001", "COVID-19")
	require.NoError(t, err)
	require.True(t, st.Complete)
}

func TestStatusIdempotentReads(t *testing.T) {
	reader := &fakeReader{
		statusFunc: func(
			_ string,
			_ vaxid.TypeID,
		) (chain.RawStatus, error) {
			return chain.RawStatus{
				Doses: []chain.DoseRecord{
					{Date: 1700000000, CenterID: "CENTER-1"},
				},
				CertificateTokenID: big.NewInt(3),
				Complete:           false,
			}, nil
		},
		typeInfoErr: notFoundErr(),
	}
	reconciler := status.NewReconciler(status.ReconcilerConfig{
		Reader: reader,
	})
	first, err := reconciler.Status(context.Background(), "PAT-001", "COVID-19")
	require.NoError(t, err)
	second, err := reconciler.Status(context.Background(), "PAT-001", "COVID-19")
	require.NoError(t, err)
	require.Equal(t, first, second)
}
