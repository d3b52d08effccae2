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

// Package ipfs is a client for the Pinata pinning API and an IPFS
// HTTP gateway. Certificate metadata and images are pinned through
// Pinata and read back through the gateway.
package ipfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultPinataAPIURL = "https://api.pinata.cloud"
	DefaultGatewayURL   = "https://gateway.pinata.cloud"

	defaultTimeout = 30 * time.Second

	// maxResponseBytes bounds gateway and API response bodies to
	// 10 MiB so a misbehaving gateway can't exhaust memory
	maxResponseBytes = 10 << 20
)

type ClientConfig struct {
	// APIURL overrides the Pinata API base URL (tests)
	APIURL string
	// GatewayURL is the IPFS gateway base URL
	GatewayURL string
	APIKey     string
	APISecret  string
	Logger     *slog.Logger
	Timeout    time.Duration
}

// Client talks to the Pinata pinning API and an IPFS gateway.
type Client struct {
	rest       *resty.Client
	gateway    *resty.Client
	gatewayURL string
	logger     *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultPinataAPIURL
	}
	gatewayURL := cfg.GatewayURL
	if gatewayURL == "" {
		gatewayURL = DefaultGatewayURL
	}
	gatewayURL = strings.TrimRight(gatewayURL, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rest := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(timeout).
		SetHeader("pinata_api_key", cfg.APIKey).
		SetHeader("pinata_secret_api_key", cfg.APISecret)
	gateway := resty.New().
		SetBaseURL(gatewayURL).
		SetTimeout(timeout).
		SetDoNotParseResponse(true)
	return &Client{
		rest:       rest,
		gateway:    gateway,
		gatewayURL: gatewayURL,
		logger:     logger.With("component", "ipfs"),
	}
}

// PinResult is the outcome of a pin operation.
type PinResult struct {
	CID       string `json:"IpfsHash"`
	Size      int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Pin is one entry from the pin listing.
type Pin struct {
	CID        string `json:"ipfs_pin_hash"`
	Size       int64  `json:"size"`
	DatePinned string `json:"date_pinned"`
	Name       string `json:"-"`
}

type pinListRow struct {
	CID        string `json:"ipfs_pin_hash"`
	Size       int64  `json:"size"`
	DatePinned string `json:"date_pinned"`
	Metadata   struct {
		Name string `json:"name"`
	} `json:"metadata"`
}

type pinListResponse struct {
	Count int          `json:"count"`
	Rows  []pinListRow `json:"rows"`
}

// PinJSON pins an arbitrary JSON document under the given name and
// returns its CID.
func (c *Client) PinJSON(
	ctx context.Context,
	name string,
	content any,
) (PinResult, error) {
	var result PinResult
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"pinataContent": content,
			"pinataMetadata": map[string]any{
				"name": name,
			},
		}).
		SetResult(&result).
		Post("/pinning/pinJSONToIPFS")
	if err != nil {
		return PinResult{}, fmt.Errorf("pinning JSON %q: %w", name, err)
	}
	if resp.IsError() {
		return PinResult{}, fmt.Errorf(
			"pinning JSON %q: unexpected status %d: %s",
			name,
			resp.StatusCode(),
			resp.String(),
		)
	}
	return result, nil
}

// PinFile pins a file read from r under the given name and returns
// its CID.
func (c *Client) PinFile(
	ctx context.Context,
	name string,
	r io.Reader,
) (PinResult, error) {
	var result PinResult
	resp, err := c.rest.R().
		SetContext(ctx).
		SetFileReader("file", name, r).
		SetResult(&result).
		Post("/pinning/pinFileToIPFS")
	if err != nil {
		return PinResult{}, fmt.Errorf("pinning file %q: %w", name, err)
	}
	if resp.IsError() {
		return PinResult{}, fmt.Errorf(
			"pinning file %q: unexpected status %d: %s",
			name,
			resp.StatusCode(),
			resp.String(),
		)
	}
	return result, nil
}

// ListPins returns up to limit currently pinned entries.
func (c *Client) ListPins(
	ctx context.Context,
	limit int,
) ([]Pin, error) {
	if limit <= 0 {
		limit = 100
	}
	var listResp pinListResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"status":    "pinned",
			"pageLimit": fmt.Sprintf("%d", limit),
		}).
		SetResult(&listResp).
		Get("/data/pinList")
	if err != nil {
		return nil, fmt.Errorf("listing pins: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf(
			"listing pins: unexpected status %d: %s",
			resp.StatusCode(),
			resp.String(),
		)
	}
	pins := make([]Pin, 0, len(listResp.Rows))
	for _, row := range listResp.Rows {
		pins = append(pins, Pin{
			CID:        row.CID,
			Size:       row.Size,
			DatePinned: row.DatePinned,
			Name:       row.Metadata.Name,
		})
	}
	return pins, nil
}

// Unpin removes a pin by CID.
func (c *Client) Unpin(ctx context.Context, cid string) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		Delete("/pinning/unpin/" + url.PathEscape(cid))
	if err != nil {
		return fmt.Errorf("unpinning %s: %w", cid, err)
	}
	if resp.IsError() {
		return fmt.Errorf(
			"unpinning %s: unexpected status %d: %s",
			cid,
			resp.StatusCode(),
			resp.String(),
		)
	}
	return nil
}

// GetJSON fetches a CID through the gateway and decodes it into v.
func (c *Client) GetJSON(
	ctx context.Context,
	cid string,
	v any,
) error {
	body, err := c.getBody(ctx, cid)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", cid, err)
	}
	return nil
}

// GetFile fetches a CID through the gateway and returns its bytes.
func (c *Client) GetFile(
	ctx context.Context,
	cid string,
) ([]byte, error) {
	body, err := c.getBody(ctx, cid)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", cid, err)
	}
	return data, nil
}

func (c *Client) getBody(
	ctx context.Context,
	cid string,
) (io.ReadCloser, error) {
	resp, err := c.gateway.R().
		SetContext(ctx).
		Get("/ipfs/" + url.PathEscape(cid))
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", cid, err)
	}
	raw := resp.RawBody()
	if raw == nil {
		return nil, errors.New("nil response body from gateway")
	}
	if resp.IsError() {
		defer raw.Close()
		return nil, fmt.Errorf(
			"fetching %s: unexpected status %d",
			cid,
			resp.StatusCode(),
		)
	}
	return &limitedReadCloser{
		Reader: io.LimitReader(raw, maxResponseBytes),
		Closer: raw,
	}, nil
}

// GatewayURL returns the gateway URL for a CID.
func (c *Client) GatewayURL(cid string) string {
	return c.gatewayURL + "/ipfs/" + cid
}

// ExtractCID pulls the CID out of an IPFS URI. Both the ipfs://CID
// scheme and gateway-style .../ipfs/CID paths are accepted. Returns
// an empty string when the URI holds no recognizable CID.
func ExtractCID(uri string) string {
	if uri == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(uri, "ipfs://"); ok {
		return strings.TrimPrefix(rest, "ipfs/")
	}
	if idx := strings.LastIndex(uri, "/ipfs/"); idx >= 0 {
		cid := uri[idx+len("/ipfs/"):]
		// Strip any trailing path or query
		if cut := strings.IndexAny(cid, "/?#"); cut >= 0 {
			cid = cid[:cut]
		}
		return cid
	}
	return ""
}

// limitedReadCloser wraps a size-limited Reader with the underlying
// connection's Closer.
type limitedReadCloser struct {
	io.Reader
	io.Closer
}
