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

// Package certificate resolves completion certificates: token URI to
// CID, CID to metadata JSON, metadata to a gateway image URL. Every
// resolution step is best-effort; a certificate with unreachable
// metadata still exists, it just renders without it.
package certificate

import (
	"context"
	"io"
	"log/slog"
	"math/big"

	"github.com/blinklabs-io/vaxgate/ipfs"
	"github.com/blinklabs-io/vaxgate/status"
)

// TokenURIReader reads certificate token URIs from the registry
// contract.
type TokenURIReader interface {
	TokenURI(ctx context.Context, tokenID *big.Int) (string, error)
}

// MetadataFetcher fetches metadata documents from an IPFS gateway.
// *ipfs.Client satisfies it.
type MetadataFetcher interface {
	GetJSON(ctx context.Context, cid string, v any) error
	GatewayURL(cid string) string
}

// Metadata is the certificate's NFT metadata document.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Certificate is a resolved completion certificate. HasMetadata and
// HasImage record how far resolution got.
type Certificate struct {
	VaccineName string
	TokenID     *big.Int
	TokenURI    string
	Metadata    Metadata
	ImageURL    string
	DoseCount   int
	HasMetadata bool
	HasImage    bool
}

type ResolverConfig struct {
	Reader  TokenURIReader
	Fetcher MetadataFetcher
	Logger  *slog.Logger
}

type Resolver struct {
	reader  TokenURIReader
	fetcher MetadataFetcher
	logger  *slog.Logger
}

func NewResolver(cfg ResolverConfig) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Resolver{
		reader:  cfg.Reader,
		fetcher: cfg.Fetcher,
		logger:  logger.With("component", "certificate"),
	}
}

// Resolve builds the certificate view for a complete vaccination
// status. Token id zero is the "no certificate minted" sentinel and
// short-circuits without any lookup. Failures at any later step leave
// the corresponding Has* flag unset and never error: one unreachable
// metadata document must not take down a whole certificate listing.
func (r *Resolver) Resolve(
	ctx context.Context,
	vaccineName string,
	st status.Status,
) Certificate {
	cert := Certificate{
		VaccineName: vaccineName,
		TokenID:     st.CertificateTokenID,
		DoseCount:   st.DoseCount(),
	}
	if !st.HasCertificateToken() {
		return cert
	}
	uri, err := r.reader.TokenURI(ctx, st.CertificateTokenID)
	if err != nil {
		r.logger.Warn(
			"token URI lookup failed",
			"token", st.CertificateTokenID,
			"vaccine", vaccineName,
			"error", err,
		)
		return cert
	}
	cert.TokenURI = uri
	cid := ipfs.ExtractCID(uri)
	if cid == "" {
		r.logger.Warn(
			"token URI holds no recognizable CID",
			"token", st.CertificateTokenID,
			"uri", uri,
		)
		return cert
	}
	var metadata Metadata
	if err := r.fetcher.GetJSON(ctx, cid, &metadata); err != nil {
		r.logger.Warn(
			"certificate metadata fetch failed",
			"token", st.CertificateTokenID,
			"cid", cid,
			"error", err,
		)
		return cert
	}
	cert.Metadata = metadata
	cert.HasMetadata = true
	imageCID := ipfs.ExtractCID(metadata.Image)
	if imageCID == "" {
		return cert
	}
	cert.ImageURL = r.fetcher.GatewayURL(imageCID)
	cert.HasImage = true
	return cert
}
