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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "vaxgate.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	RPCURL          string `yaml:"rpcUrl"          envconfig:"RPC_URL"`
	RegistryAddr    string `yaml:"registryAddr"                                  split_words:"true"`
	StockAddr       string `yaml:"stockAddr"                                     split_words:"true"`
	GovernorAddr    string `yaml:"governorAddr"                                  split_words:"true"`
	TokenAddr       string `yaml:"tokenAddr"                                     split_words:"true"`
	SignerKey       string `yaml:"signerKey"       envconfig:"SIGNER_KEY"`
	ListenAddress   string `yaml:"listenAddress"                                 split_words:"true"`
	PinataAPIURL    string `yaml:"pinataApiUrl"    envconfig:"PINATA_API_URL"`
	PinataAPIKey    string `yaml:"pinataApiKey"    envconfig:"PINATA_API_KEY"`
	PinataAPISecret string `yaml:"pinataApiSecret" envconfig:"PINATA_API_SECRET"`
	GatewayURL      string `yaml:"gatewayUrl"      envconfig:"GATEWAY_URL"`
	CallTimeout     string `yaml:"callTimeout"                                   split_words:"true"`
	ShutdownTimeout string `yaml:"shutdownTimeout"                               split_words:"true"`
	TracingExporter string `yaml:"tracingExporter"                               split_words:"true"`
	MetricsPort     uint   `yaml:"metricsPort"                                   split_words:"true"`
	FanoutLimit     int    `yaml:"fanoutLimit"                                   split_words:"true"`
	Tracing         bool   `yaml:"tracing"`
}

var globalConfig = &Config{
	RPCURL:          "http://localhost:8545",
	ListenAddress:   ":3000",
	MetricsPort:     12798,
	PinataAPIURL:    "https://api.pinata.cloud",
	GatewayURL:      "https://gateway.pinata.cloud",
	FanoutLimit:     8,
	CallTimeout:     "10s",
	ShutdownTimeout: DefaultShutdownTimeout,
}

// LoadConfig loads the config file (if any), then overlays values
// from VAXGATE_-prefixed environment variables. An explicit path
// wins; otherwise ~/.vaxgate/vaxgate.yaml is tried, then
// /etc/vaxgate/vaxgate.yaml.
func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(
				homeDir,
				".vaxgate",
				"vaxgate.yaml",
			)
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			systemPath := "/etc/vaxgate/vaxgate.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf(
				"error reading config file: %w",
				err,
			)
		}
		if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return nil, fmt.Errorf(
				"error parsing config file: %w",
				err,
			)
		}
	}

	// Env vars override config file values
	if err := envconfig.Process("vaxgate", globalConfig); err != nil {
		return nil, fmt.Errorf(
			"error processing environment: %w",
			err,
		)
	}

	return globalConfig, nil
}

// GetConfig returns the global config instance.
func GetConfig() *Config {
	return globalConfig
}
