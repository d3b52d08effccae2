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

// Package vaxgate wires the on-chain vaccination registry accessors,
// the status reconciler, the certificate resolver, and the aggregate
// views into a single gateway with a REST API.
package vaxgate

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/blinklabs-io/vaxgate/access"
	"github.com/blinklabs-io/vaxgate/aggregate"
	"github.com/blinklabs-io/vaxgate/api"
	"github.com/blinklabs-io/vaxgate/certificate"
	"github.com/blinklabs-io/vaxgate/chain"
	"github.com/blinklabs-io/vaxgate/event"
	"github.com/blinklabs-io/vaxgate/governance"
	"github.com/blinklabs-io/vaxgate/ipfs"
	"github.com/blinklabs-io/vaxgate/session"
	"github.com/blinklabs-io/vaxgate/status"
	"github.com/blinklabs-io/vaxgate/vaxid"
)

type Gateway struct {
	config        Config
	eventBus      *event.EventBus
	session       *session.Session
	client        *chain.Client
	registry      *chain.Registry
	stock         *chain.Stock
	governor      *chain.Governor
	token         *chain.Token
	reconciler    *status.Reconciler
	resolver      *certificate.Resolver
	aggregator    *aggregate.Aggregator
	proposals     *governance.Service
	roleGate      *access.Gate
	apiServer     *api.Server
	shutdownFuncs []func(context.Context) error
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Gateway, error) {
	if cfg.rpcURL == "" {
		return nil, errors.New("no RPC URL configured")
	}
	if cfg.contracts.Registry == (common.Address{}) {
		return nil, errors.New("no registry contract address configured")
	}
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	return &Gateway{
		config:   cfg,
		eventBus: eventBus,
		done:     make(chan struct{}),
	}, nil
}

// EventBus returns the gateway's event bus for callers that want to
// observe session invalidation or publish their own events.
func (g *Gateway) EventBus() *event.EventBus {
	return g.eventBus
}

// Session returns the gateway's active session.
func (g *Gateway) Session() *session.Session {
	return g.session
}

// Run starts the gateway and blocks until Stop is called.
func (g *Gateway) Run() error {
	// Configure tracing
	if g.config.tracing {
		if err := g.setupTracing(); err != nil {
			return err
		}
	}
	// Connect to the RPC endpoint
	dialCtx, dialCancel := context.WithTimeout(
		context.Background(),
		30*time.Second,
	)
	defer dialCancel()
	backend, err := chain.Dial(dialCtx, g.config.rpcURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}
	// Configure signer
	var signer *chain.Signer
	if g.config.signerKey != "" {
		signer, err = chain.NewSigner(g.config.signerKey)
		if err != nil {
			return fmt.Errorf("invalid signer key: %w", err)
		}
	}
	// Build contract client and accessors
	client, err := chain.NewClient(chain.ClientConfig{
		Backend:      backend,
		Signer:       signer,
		Logger:       g.config.logger,
		PromRegistry: g.config.promRegistry,
		CallTimeout:  g.config.callTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create chain client: %w", err)
	}
	g.client = client
	g.registry = chain.NewRegistry(client, g.config.contracts.Registry)
	if g.config.contracts.Stock != (common.Address{}) {
		g.stock = chain.NewStock(client, g.config.contracts.Stock)
	}
	if g.config.contracts.Governor != (common.Address{}) {
		g.governor = chain.NewGovernor(
			client,
			g.config.contracts.Governor,
		)
	}
	if g.config.contracts.Token != (common.Address{}) {
		g.token = chain.NewToken(client, g.config.contracts.Token)
	}
	// Establish the active session
	var account common.Address
	if signer != nil {
		account = signer.Address()
	}
	chainIDCtx, chainIDCancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer chainIDCancel()
	chainID, err := backend.ChainID(chainIDCtx)
	if err != nil {
		g.config.logger.Warn(
			"could not determine chain id",
			"error", err,
		)
	}
	g.session = session.NewSession(session.SessionConfig{
		EventBus: g.eventBus,
		Logger:   g.config.logger,
		Account:  account,
		ChainID:  chainID,
		RPCURL:   g.config.rpcURL,
	})
	g.eventBus.SubscribeFunc(
		session.InvalidatedEventType,
		g.handleSessionInvalidated,
	)
	// Build the read-side components
	g.reconciler = status.NewReconciler(status.ReconcilerConfig{
		Reader:       g.registry,
		Logger:       g.config.logger,
		PromRegistry: g.config.promRegistry,
	})
	ipfsClient := ipfs.NewClient(ipfs.ClientConfig{
		APIURL:     g.config.pinataAPIURL,
		GatewayURL: g.config.gatewayURL,
		APIKey:     g.config.pinataAPIKey,
		APISecret:  g.config.pinataAPISecret,
		Logger:     g.config.logger,
	})
	g.resolver = certificate.NewResolver(certificate.ResolverConfig{
		Reader:  g.registry,
		Fetcher: ipfsClient,
		Logger:  g.config.logger,
	})
	g.aggregator = aggregate.NewAggregator(aggregate.AggregatorConfig{
		Registry:     g.registry,
		Stock:        g.stock,
		Statuses:     g.reconciler,
		Certificates: g.resolver,
		Logger:       g.config.logger,
		PromRegistry: g.config.promRegistry,
		FanoutLimit:  g.config.fanoutLimit,
	})
	if g.governor != nil {
		g.proposals = governance.NewService(governance.ServiceConfig{
			Governor: g.governor,
			Logger:   g.config.logger,
		})
	}
	g.roleGate = access.NewGate(access.GateConfig{
		Reader: g.registry,
		Logger: g.config.logger,
	})
	// Start the REST API
	if g.config.listenAddress != "" {
		g.apiServer = api.New(
			api.ServerConfig{
				ListenAddress: g.config.listenAddress,
			},
			g,
			g.config.logger,
		)
		apiCtx, apiCancel := context.WithCancel(context.Background())
		g.shutdownFuncs = append(
			g.shutdownFuncs,
			func(context.Context) error {
				apiCancel()
				return nil
			},
		)
		if err := g.apiServer.Start(apiCtx); err != nil {
			apiCancel()
			return err
		}
	}

	// Wait for shutdown signal
	<-g.done
	return nil
}

func (g *Gateway) handleSessionInvalidated(evt event.Event) {
	payload, ok := evt.Data.(session.InvalidatedEvent)
	if !ok {
		return
	}
	g.config.logger.Info(
		"discarding derived state for previous session",
		"component", "gateway",
		"version", payload.Version,
	)
}

func (g *Gateway) Stop() error {
	var err error
	g.shutdownOnce.Do(func() {
		err = g.shutdown()
	})
	return err
}

func (g *Gateway) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := 30 * time.Second
	if g.config.shutdownTimeout > 0 {
		shutdownTimeout = g.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(
		context.Background(),
		shutdownTimeout,
	)
	defer cancel()

	var err error

	g.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new requests
	g.config.logger.Debug("shutdown phase 1: stopping new work")

	if g.apiServer != nil {
		if stopErr := g.apiServer.Stop(ctx); stopErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("api server shutdown: %w", stopErr),
			)
		}
	}

	// Phase 2: Cleanup resources
	g.config.logger.Debug("shutdown phase 2: cleanup resources")

	for _, fn := range g.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("shutdown function: %w", fnErr),
			)
		}
	}
	g.shutdownFuncs = nil

	if g.eventBus != nil {
		g.eventBus.Stop()
	}

	g.config.logger.Debug("graceful shutdown complete")
	close(g.done)
	return err
}

// errNotConfigured reports an operation against a contract whose
// address was not configured.
func errNotConfigured(op string, contract string) error {
	return &chain.Error{
		Kind:   chain.KindNotFound,
		Op:     op,
		Reason: contract + " contract not configured",
	}
}

// The methods below form the api.GatewayNode surface, delegating to
// the wired components.

func (g *Gateway) GetAllPatients(
	ctx context.Context,
) ([]chain.Patient, error) {
	return g.registry.GetAllPatients(ctx)
}

func (g *Gateway) GetPatientInfo(
	ctx context.Context,
	code string,
) (chain.Patient, error) {
	return g.registry.GetPatientInfo(ctx, code)
}

func (g *Gateway) RegisterPatient(
	ctx context.Context,
	patientAddress common.Address,
	code string,
	professionalCategory string,
) (*ethtypes.Receipt, error) {
	return g.registry.RegisterPatient(
		ctx,
		patientAddress,
		code,
		professionalCategory,
	)
}

func (g *Gateway) RegisterDose(
	ctx context.Context,
	code string,
	typeID vaxid.TypeID,
	centerID string,
	batchNumber string,
	metadataURI string,
) (*ethtypes.Receipt, error) {
	return g.registry.RegisterDose(
		ctx,
		code,
		typeID,
		centerID,
		batchNumber,
		metadataURI,
	)
}

func (g *Gateway) GetAllVaccinationTypes(
	ctx context.Context,
) ([]chain.VaccinationType, error) {
	return g.registry.GetAllVaccinationTypes(ctx)
}

func (g *Gateway) AddVaccinationType(
	ctx context.Context,
	name string,
	requiredDoses uint8,
) (*ethtypes.Receipt, error) {
	return g.registry.AddVaccinationType(ctx, name, requiredDoses)
}

func (g *Gateway) GetMAPIsByPatient(
	ctx context.Context,
	code string,
) ([]chain.MAPIRecord, error) {
	return g.registry.GetMAPIsByPatient(ctx, code)
}

func (g *Gateway) DeclareMAPI(
	ctx context.Context,
	code string,
	description string,
) (*ethtypes.Receipt, error) {
	return g.registry.DeclareMAPI(ctx, code, description)
}

func (g *Gateway) Status(
	ctx context.Context,
	code string,
	vaccineName string,
) (status.Status, error) {
	return g.reconciler.Status(ctx, code, vaccineName)
}

func (g *Gateway) Matrix(ctx context.Context) (aggregate.Matrix, error) {
	return g.aggregator.Matrix(ctx)
}

func (g *Gateway) PatientCertificates(
	ctx context.Context,
	code string,
) ([]certificate.Certificate, error) {
	return g.aggregator.PatientCertificates(ctx, code)
}

func (g *Gateway) PatientHistory(
	ctx context.Context,
	code string,
) ([]aggregate.HistoryEntry, error) {
	return g.aggregator.PatientHistory(ctx, code)
}

func (g *Gateway) Dashboard(
	ctx context.Context,
) (aggregate.DashboardTotals, error) {
	if g.stock == nil {
		return aggregate.DashboardTotals{}, errNotConfigured(
			"dashboard",
			"stock",
		)
	}
	return g.aggregator.Dashboard(ctx)
}

func (g *Gateway) GetAllCenters(ctx context.Context) ([]string, error) {
	if g.stock == nil {
		return nil, errNotConfigured("getAllCenters", "stock")
	}
	return g.stock.GetAllCenters(ctx)
}

func (g *Gateway) GetStock(
	ctx context.Context,
	centerID string,
	typeID vaxid.TypeID,
) (chain.StockLevel, error) {
	if g.stock == nil {
		return chain.StockLevel{}, errNotConfigured(
			"getStock",
			"stock",
		)
	}
	return g.stock.GetStock(ctx, centerID, typeID)
}

func (g *Gateway) AddStock(
	ctx context.Context,
	centerID string,
	typeID vaxid.TypeID,
	quantity *big.Int,
) (*ethtypes.Receipt, error) {
	if g.stock == nil {
		return nil, errNotConfigured("addStock", "stock")
	}
	return g.stock.AddStock(ctx, centerID, typeID, quantity)
}

func (g *Gateway) ListProposals(
	ctx context.Context,
) ([]governance.Proposal, error) {
	if g.proposals == nil {
		return nil, errNotConfigured("proposals", "governor")
	}
	return g.proposals.ListProposals(ctx)
}

func (g *Gateway) GetProposal(
	ctx context.Context,
	proposalID *big.Int,
) (governance.Proposal, error) {
	if g.proposals == nil {
		return governance.Proposal{}, errNotConfigured(
			"proposals",
			"governor",
		)
	}
	return g.proposals.GetProposal(ctx, proposalID)
}

func (g *Gateway) Propose(
	ctx context.Context,
	calls []chain.ProposalCall,
	description string,
) (*ethtypes.Receipt, error) {
	if g.governor == nil {
		return nil, errNotConfigured("propose", "governor")
	}
	return g.governor.Propose(ctx, calls, description)
}

func (g *Gateway) CastVoteWithReason(
	ctx context.Context,
	proposalID *big.Int,
	support chain.VoteSupport,
	reason string,
) (*ethtypes.Receipt, error) {
	if g.governor == nil {
		return nil, errNotConfigured("castVote", "governor")
	}
	return g.governor.CastVoteWithReason(
		ctx,
		proposalID,
		support,
		reason,
	)
}

func (g *Gateway) TokenInfo(ctx context.Context) (chain.TokenInfo, error) {
	if g.token == nil {
		return chain.TokenInfo{}, errNotConfigured("token", "token")
	}
	return g.token.Info(ctx)
}

func (g *Gateway) TokenBalance(
	ctx context.Context,
	account common.Address,
) (*big.Int, error) {
	if g.token == nil {
		return nil, errNotConfigured("balanceOf", "token")
	}
	return g.token.BalanceOf(ctx, account)
}

func (g *Gateway) TokenTransfer(
	ctx context.Context,
	to common.Address,
	amount *big.Int,
) (*ethtypes.Receipt, error) {
	if g.token == nil {
		return nil, errNotConfigured("transfer", "token")
	}
	return g.token.Transfer(ctx, to, amount)
}

// Allowed reports whether account would pass the named role gate.
// Advisory only; the contracts enforce authorization on writes.
func (g *Gateway) Allowed(
	ctx context.Context,
	roleName string,
	account common.Address,
) bool {
	return g.roleGate.Allowed(ctx, roleName, account)
}
