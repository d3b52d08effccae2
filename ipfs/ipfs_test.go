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

package ipfs_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/vaxgate/ipfs"
)

const testCID = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"

func TestExtractCID(t *testing.T) {
	testDefs := []struct {
		uri      string
		expected string
	}{
		{
			uri:      "ipfs://" + testCID,
			expected: testCID,
		},
		{
			uri:      "ipfs://ipfs/" + testCID,
			expected: testCID,
		},
		{
			uri:      "https://gateway.pinata.cloud/ipfs/" + testCID,
			expected: testCID,
		},
		{
			uri:      "https://gateway.pinata.cloud/ipfs/" + testCID + "?filename=cert.json",
			expected: testCID,
		},
		{
			uri:      "https://gateway.pinata.cloud/ipfs/" + testCID + "/image.png",
			expected: testCID,
		},
		{
			uri:      "https://example.com/not-a-cid",
			expected: "",
		},
		{
			uri:      "",
			expected: "",
		},
	}
	for _, testDef := range testDefs {
		require.Equal(
			t,
			testDef.expected,
			ipfs.ExtractCID(testDef.uri),
			"uri %q",
			testDef.uri,
		)
	}
}

func TestPinJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/pinning/pinJSONToIPFS", r.URL.Path)
			require.Equal(t, "test-key", r.Header.Get("pinata_api_key"))
			var body map[string]any
			require.NoError(
				t,
				json.NewDecoder(r.Body).Decode(&body),
			)
			require.Contains(t, body, "pinataContent")
			w.Header().Set("Content-Type", "application/json")
			//nolint:errcheck
			json.NewEncoder(w).Encode(map[string]any{
				"IpfsHash":  testCID,
				"PinSize":   1234,
				"Timestamp": "2026-01-01T00:00:00Z",
			})
		},
	))
	defer srv.Close()
	client := ipfs.NewClient(ipfs.ClientConfig{
		APIURL:    srv.URL,
		APIKey:    "test-key",
		APISecret: "test-secret",
	})
	result, err := client.PinJSON(
		context.Background(),
		"cert-metadata",
		map[string]string{"name": "Certificate"},
	)
	require.NoError(t, err)
	require.Equal(t, testCID, result.CID)
	require.Equal(t, int64(1234), result.Size)
}

func TestPinJSONErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
	))
	defer srv.Close()
	client := ipfs.NewClient(ipfs.ClientConfig{APIURL: srv.URL})
	_, err := client.PinJSON(context.Background(), "x", map[string]int{})
	require.ErrorContains(t, err, "unexpected status 401")
}

func TestListPins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/data/pinList", r.URL.Path)
			require.Equal(t, "pinned", r.URL.Query().Get("status"))
			w.Header().Set("Content-Type", "application/json")
			//nolint:errcheck
			w.Write([]byte(`{
				"count": 1,
				"rows": [{
					"ipfs_pin_hash": "` + testCID + `",
					"size": 99,
					"date_pinned": "2026-01-01T00:00:00Z",
					"metadata": {"name": "cert-1"}
				}]
			}`))
		},
	))
	defer srv.Close()
	client := ipfs.NewClient(ipfs.ClientConfig{APIURL: srv.URL})
	pins, err := client.ListPins(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pins, 1)
	require.Equal(t, testCID, pins[0].CID)
	require.Equal(t, "cert-1", pins[0].Name)
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.True(
				t,
				strings.HasPrefix(r.URL.Path, "/ipfs/"),
			)
			w.Header().Set("Content-Type", "application/json")
			//nolint:errcheck
			w.Write([]byte(`{"name":"Certificate","image":"ipfs://` + testCID + `"}`))
		},
	))
	defer srv.Close()
	client := ipfs.NewClient(ipfs.ClientConfig{GatewayURL: srv.URL})
	var doc struct {
		Name  string `json:"name"`
		Image string `json:"image"`
	}
	require.NoError(
		t,
		client.GetJSON(context.Background(), testCID, &doc),
	)
	require.Equal(t, "Certificate", doc.Name)
	require.Equal(t, "ipfs://"+testCID, doc.Image)
}

func TestGetJSONGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
	))
	defer srv.Close()
	client := ipfs.NewClient(ipfs.ClientConfig{GatewayURL: srv.URL})
	var doc map[string]any
	err := client.GetJSON(context.Background(), testCID, &doc)
	require.ErrorContains(t, err, "unexpected status 404")
}

func TestGatewayURL(t *testing.T) {
	client := ipfs.NewClient(ipfs.ClientConfig{
		GatewayURL: "https://gateway.example.com/",
	})
	require.Equal(
		t,
		"https://gateway.example.com/ipfs/"+testCID,
		client.GatewayURL(testCID),
	)
}
