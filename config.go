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
	"io"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

// ContractAddresses holds the deployed contract addresses the gateway
// talks to. Registry is required; the others enable their respective
// feature sets when set.
type ContractAddresses struct {
	Registry common.Address
	Stock    common.Address
	Governor common.Address
	Token    common.Address
}

type Config struct {
	promRegistry    prometheus.Registerer
	logger          *slog.Logger
	rpcURL          string
	contracts       ContractAddresses
	signerKey       string
	listenAddress   string
	pinataAPIURL    string
	pinataAPIKey    string
	pinataAPISecret string
	gatewayURL      string
	metricsPort     uint
	fanoutLimit     int
	callTimeout     time.Duration
	shutdownTimeout time.Duration
	tracing         bool
	tracingStdout   bool
}

type ConfigOptionFunc func(*Config)

// NewConfig creates a new vaxgate config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies the prometheus registry for component metrics
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithRPCURL specifies the Ethereum JSON-RPC endpoint to use
func WithRPCURL(rpcURL string) ConfigOptionFunc {
	return func(c *Config) {
		c.rpcURL = rpcURL
	}
}

// WithContractAddresses specifies the deployed contract addresses
func WithContractAddresses(contracts ContractAddresses) ConfigOptionFunc {
	return func(c *Config) {
		c.contracts = contracts
	}
}

// WithSignerKey specifies the hex-encoded signing key. Without it the
// gateway is read-only and write operations fail with permission
// denied
func WithSignerKey(hexKey string) ConfigOptionFunc {
	return func(c *Config) {
		c.signerKey = hexKey
	}
}

// WithListenAddress specifies the REST API listen address (empty = disabled)
func WithListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.listenAddress = addr
	}
}

// WithMetricsPort specifies the port for the prometheus metrics listener
func WithMetricsPort(port uint) ConfigOptionFunc {
	return func(c *Config) {
		c.metricsPort = port
	}
}

// WithPinningCredentials specifies the Pinata pinning API credentials
func WithPinningCredentials(
	apiURL string,
	apiKey string,
	apiSecret string,
) ConfigOptionFunc {
	return func(c *Config) {
		c.pinataAPIURL = apiURL
		c.pinataAPIKey = apiKey
		c.pinataAPISecret = apiSecret
	}
}

// WithGatewayURL specifies the IPFS gateway base URL for certificate
// metadata resolution
func WithGatewayURL(gatewayURL string) ConfigOptionFunc {
	return func(c *Config) {
		c.gatewayURL = gatewayURL
	}
}

// WithFanoutLimit specifies the concurrency limit for aggregate view
// fan-out
func WithFanoutLimit(limit int) ConfigOptionFunc {
	return func(c *Config) {
		c.fanoutLimit = limit
	}
}

// WithCallTimeout specifies the per-call timeout for contract reads
func WithCallTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.callTimeout = timeout
	}
}

// WithTracing enables the OpenTelemetry tracer
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout outputs traces to stdout instead of OTLP-HTTP
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
