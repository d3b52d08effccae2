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

package certificate_test

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/vaxgate/certificate"
	"github.com/blinklabs-io/vaxgate/chain"
	"github.com/blinklabs-io/vaxgate/ipfs"
	"github.com/blinklabs-io/vaxgate/status"
)

const (
	metadataCID = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"
	imageCID    = "bafybeihkoviema7g3gxyt6la7vd5ho32ictqbilu3wnlo3rs7ewhnp7lly"
)

type fakeURIReader struct {
	uri string
	err error
}

func (f *fakeURIReader) TokenURI(
	_ context.Context,
	_ *big.Int,
) (string, error) {
	return f.uri, f.err
}

func completeStatus(tokenID int64) status.Status {
	return status.Status{
		Doses: []chain.DoseRecord{
			{Date: 1700000000, CenterID: "CENTER-1"},
			{Date: 1702000000, CenterID: "CENTER-1"},
		},
		CertificateTokenID: big.NewInt(tokenID),
		Complete:           true,
	}
}

func TestResolveZeroTokenShortCircuits(t *testing.T) {
	reader := &fakeURIReader{
		err: errors.New("should not be called"),
	}
	resolver := certificate.NewResolver(certificate.ResolverConfig{
		Reader: reader,
		Fetcher: ipfs.NewClient(ipfs.ClientConfig{
			GatewayURL: "http://127.0.0.1:1",
		}),
	})
	cert := resolver.Resolve(
		context.Background(),
		"COVID-19",
		completeStatus(0),
	)
	require.Empty(t, cert.TokenURI)
	require.False(t, cert.HasMetadata)
	require.False(t, cert.HasImage)
	require.Equal(t, 2, cert.DoseCount)
}

func TestResolveFullChain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/ipfs/"+metadataCID, r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			//nolint:errcheck
			w.Write([]byte(`{
				"name": "COVID-19 Vaccination Certificate",
				"description": "Completed schedule",
				"image": "ipfs://` + imageCID + `"
			}`))
		},
	))
	defer srv.Close()
	resolver := certificate.NewResolver(certificate.ResolverConfig{
		Reader: &fakeURIReader{uri: "ipfs://" + metadataCID},
		Fetcher: ipfs.NewClient(ipfs.ClientConfig{
			GatewayURL: srv.URL,
		}),
	})
	cert := resolver.Resolve(
		context.Background(),
		"COVID-19",
		completeStatus(7),
	)
	require.True(t, cert.HasMetadata)
	require.True(t, cert.HasImage)
	require.Equal(
		t,
		"COVID-19 Vaccination Certificate",
		cert.Metadata.Name,
	)
	require.Equal(t, srv.URL+"/ipfs/"+imageCID, cert.ImageURL)
}

func TestResolveMetadataFetchFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
	))
	defer srv.Close()
	resolver := certificate.NewResolver(certificate.ResolverConfig{
		Reader: &fakeURIReader{uri: "ipfs://" + metadataCID},
		Fetcher: ipfs.NewClient(ipfs.ClientConfig{
			GatewayURL: srv.URL,
		}),
	})
	cert := resolver.Resolve(
		context.Background(),
		"COVID-19",
		completeStatus(7),
	)
	// Certificate still exists, just without metadata
	require.Equal(t, "ipfs://"+metadataCID, cert.TokenURI)
	require.False(t, cert.HasMetadata)
	require.False(t, cert.HasImage)
}

func TestResolveTokenURIFailureDegrades(t *testing.T) {
	resolver := certificate.NewResolver(certificate.ResolverConfig{
		Reader: &fakeURIReader{err: errors.New("rpc down")},
		Fetcher: ipfs.NewClient(ipfs.ClientConfig{
			GatewayURL: "http://127.0.0.1:1",
		}),
	})
	cert := resolver.Resolve(
		context.Background(),
		"COVID-19",
		completeStatus(7),
	)
	require.Empty(t, cert.TokenURI)
	require.False(t, cert.HasMetadata)
}

func TestResolveMetadataWithoutImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			//nolint:errcheck
			w.Write([]byte(`{"name": "Certificate", "description": "x"}`))
		},
	))
	defer srv.Close()
	resolver := certificate.NewResolver(certificate.ResolverConfig{
		Reader: &fakeURIReader{uri: "ipfs://" + metadataCID},
		Fetcher: ipfs.NewClient(ipfs.ClientConfig{
			GatewayURL: srv.URL,
		}),
	})
	cert := resolver.Resolve(
		context.Background(),
		"COVID-19",
		completeStatus(7),
	)
	require.True(t, cert.HasMetadata)
	require.False(t, cert.HasImage)
	require.Empty(t, cert.ImageURL)
}
