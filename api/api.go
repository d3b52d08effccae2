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

// Package api is the REST presentation layer. All chain values cross
// this boundary formatted for display: epoch seconds become RFC3339
// strings and wei amounts become decimal strings, and nowhere else.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// ServerConfig holds the API server configuration.
type ServerConfig struct {
	ListenAddress string
}

// Server is the gateway REST API server.
type Server struct {
	config     ServerConfig
	logger     *slog.Logger
	gateway    GatewayNode
	httpServer *http.Server
	mu         sync.Mutex
}

// New creates a new API server instance.
func New(
	cfg ServerConfig,
	gateway GatewayNode,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":3000"
	}
	return &Server{
		config:  cfg,
		logger:  logger,
		gateway: gateway,
	}
}

// Start starts the HTTP server in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}

	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.routes(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	s.httpServer = server
	s.mu.Unlock()

	// Start the server with deterministic error detection
	if err := s.startServer(server); err != nil {
		s.mu.Lock()
		s.httpServer = nil
		s.mu.Unlock()
		return err
	}

	s.logger.Info(
		"API listener started on " + s.config.ListenAddress,
	)

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		srv := s.httpServer
		s.httpServer = nil
		s.mu.Unlock()

		if srv != nil {
			s.logger.Debug(
				"context cancelled, shutting down API server",
			)
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				30*time.Second,
			)
			defer cancel()
			//nolint:contextcheck
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error(
					"failed to shutdown API server on context cancellation",
					"error", err,
				)
			}
		}
	}()

	return nil
}

// routes builds the request mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/patients", s.handleListPatients)
	mux.HandleFunc("GET /api/v1/patients/{code}", s.handleGetPatient)
	mux.HandleFunc(
		"GET /api/v1/patients/{code}/status/{vaccine}",
		s.handleGetStatus,
	)
	mux.HandleFunc(
		"GET /api/v1/patients/{code}/certificates",
		s.handleGetCertificates,
	)
	mux.HandleFunc(
		"GET /api/v1/patients/{code}/history",
		s.handleGetHistory,
	)
	mux.HandleFunc(
		"GET /api/v1/patients/{code}/mapis",
		s.handleGetMAPIs,
	)
	mux.HandleFunc("GET /api/v1/matrix", s.handleMatrix)
	mux.HandleFunc("GET /api/v1/dashboard", s.handleDashboard)
	mux.HandleFunc(
		"GET /api/v1/vaccine-types",
		s.handleListVaccineTypes,
	)
	mux.HandleFunc("GET /api/v1/centers", s.handleListCenters)
	mux.HandleFunc(
		"GET /api/v1/stock/{center}/{vaccine}",
		s.handleGetStock,
	)
	mux.HandleFunc("GET /api/v1/proposals", s.handleListProposals)
	mux.HandleFunc(
		"GET /api/v1/proposals/{id}",
		s.handleGetProposal,
	)
	mux.HandleFunc("GET /api/v1/token", s.handleTokenInfo)
	mux.HandleFunc(
		"GET /api/v1/token/balances/{account}",
		s.handleTokenBalance,
	)
	mux.HandleFunc("POST /api/v1/patients", s.handleRegisterPatient)
	mux.HandleFunc("POST /api/v1/doses", s.handleRegisterDose)
	mux.HandleFunc(
		"POST /api/v1/vaccine-types",
		s.handleAddVaccineType,
	)
	mux.HandleFunc(
		"POST /api/v1/stock/{center}/add",
		s.handleAddStock,
	)
	mux.HandleFunc("POST /api/v1/mapis", s.handleDeclareMAPI)
	mux.HandleFunc("POST /api/v1/proposals", s.handleCreateProposal)
	mux.HandleFunc(
		"POST /api/v1/proposals/{id}/votes",
		s.handleCastVote,
	)
	mux.HandleFunc(
		"POST /api/v1/token/transfers",
		s.handleTokenTransfer,
	)
	return mux
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()

	if srv != nil {
		s.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf(
				"failed to shutdown API server: %w",
				err,
			)
		}
	}
	return nil
}

// startServer starts the HTTP server with deterministic error
// detection. It binds the listening socket first so port conflicts
// are detected immediately, then serves in a background goroutine.
func (s *Server) startServer(server *http.Server) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf(
			"failed to listen for API server: %w",
			err,
		)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()
	return nil
}
