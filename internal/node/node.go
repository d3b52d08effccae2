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

package node

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blinklabs-io/vaxgate"
	"github.com/blinklabs-io/vaxgate/internal/config"
)

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")

	// Parse timeouts
	shutdownTimeout := 30 * time.Second
	if cfg.ShutdownTimeout != "" {
		var err error
		shutdownTimeout, err = time.ParseDuration(cfg.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdown timeout: %w", err)
		}
	}
	var callTimeout time.Duration
	if cfg.CallTimeout != "" {
		var err error
		callTimeout, err = time.ParseDuration(cfg.CallTimeout)
		if err != nil {
			return fmt.Errorf("invalid call timeout: %w", err)
		}
	}

	g, err := vaxgate.New(
		vaxgate.NewConfig(
			vaxgate.WithLogger(logger),
			vaxgate.WithRPCURL(cfg.RPCURL),
			vaxgate.WithContractAddresses(vaxgate.ContractAddresses{
				Registry: common.HexToAddress(cfg.RegistryAddr),
				Stock:    common.HexToAddress(cfg.StockAddr),
				Governor: common.HexToAddress(cfg.GovernorAddr),
				Token:    common.HexToAddress(cfg.TokenAddr),
			}),
			vaxgate.WithSignerKey(cfg.SignerKey),
			vaxgate.WithListenAddress(cfg.ListenAddress),
			vaxgate.WithMetricsPort(cfg.MetricsPort),
			vaxgate.WithPinningCredentials(
				cfg.PinataAPIURL,
				cfg.PinataAPIKey,
				cfg.PinataAPISecret,
			),
			vaxgate.WithGatewayURL(cfg.GatewayURL),
			vaxgate.WithFanoutLimit(cfg.FanoutLimit),
			vaxgate.WithCallTimeout(callTimeout),
			vaxgate.WithTracing(cfg.Tracing),
			vaxgate.WithTracingStdout(cfg.TracingExporter == "stdout"),
			vaxgate.WithShutdownTimeout(shutdownTimeout),
			// Enable metrics with default prometheus registry
			vaxgate.WithPrometheusRegistry(prometheus.DefaultRegisterer),
		),
	)
	if err != nil {
		return err
	}

	// Metrics listener
	http.Handle("/metrics", promhttp.Handler())
	logger.Info(
		fmt.Sprintf(
			"serving prometheus metrics on :%d",
			cfg.MetricsPort,
		),
		"component", "node",
	)
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Error(
				fmt.Sprintf(
					"failed to start metrics listener: %s",
					err,
				),
				"component", "node",
			)
			os.Exit(1)
		}
	}()

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run gateway in goroutine
	errChan := make(chan error, 1)
	go func() {
		err := g.Run()
		select {
		case errChan <- err:
		case <-signalCtx.Done():
		}
	}()

	stopMetrics := func() {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(
				"metrics server shutdown error",
				"error", err,
			)
		}
	}

	// Wait for signal or error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
		stopMetrics()
		if err := g.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
			return err
		}
		logger.Info("shutdown complete")
		return nil

	case err := <-errChan:
		stopMetrics()
		if err == nil {
			logger.Info("gateway stopped")
			if stopErr := g.Stop(); stopErr != nil {
				logger.Error(
					"shutdown errors occurred",
					"error", stopErr,
				)
				return stopErr
			}
			return nil
		}
		return err
	}
}
