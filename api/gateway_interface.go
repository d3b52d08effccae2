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

package api

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/blinklabs-io/vaxgate/aggregate"
	"github.com/blinklabs-io/vaxgate/certificate"
	"github.com/blinklabs-io/vaxgate/chain"
	"github.com/blinklabs-io/vaxgate/governance"
	"github.com/blinklabs-io/vaxgate/status"
	"github.com/blinklabs-io/vaxgate/vaxid"
)

// GatewayNode is the interface the API server uses to reach the
// gateway's accessors and views. This decouples the HTTP server from
// the concrete Gateway struct and enables testing with mock
// implementations.
type GatewayNode interface {
	// Patient registry
	GetAllPatients(ctx context.Context) ([]chain.Patient, error)
	GetPatientInfo(
		ctx context.Context,
		code string,
	) (chain.Patient, error)
	RegisterPatient(
		ctx context.Context,
		patientAddress common.Address,
		code string,
		professionalCategory string,
	) (*types.Receipt, error)
	RegisterDose(
		ctx context.Context,
		code string,
		typeID vaxid.TypeID,
		centerID string,
		batchNumber string,
		metadataURI string,
	) (*types.Receipt, error)

	// Vaccine types
	GetAllVaccinationTypes(
		ctx context.Context,
	) ([]chain.VaccinationType, error)
	AddVaccinationType(
		ctx context.Context,
		name string,
		requiredDoses uint8,
	) (*types.Receipt, error)

	// Adverse events
	GetMAPIsByPatient(
		ctx context.Context,
		code string,
	) ([]chain.MAPIRecord, error)
	DeclareMAPI(
		ctx context.Context,
		code string,
		description string,
	) (*types.Receipt, error)

	// Reconciled status
	Status(
		ctx context.Context,
		code string,
		vaccineName string,
	) (status.Status, error)

	// Aggregate views
	Matrix(ctx context.Context) (aggregate.Matrix, error)
	PatientCertificates(
		ctx context.Context,
		code string,
	) ([]certificate.Certificate, error)
	PatientHistory(
		ctx context.Context,
		code string,
	) ([]aggregate.HistoryEntry, error)
	Dashboard(ctx context.Context) (aggregate.DashboardTotals, error)

	// Stock
	GetAllCenters(ctx context.Context) ([]string, error)
	GetStock(
		ctx context.Context,
		centerID string,
		typeID vaxid.TypeID,
	) (chain.StockLevel, error)
	AddStock(
		ctx context.Context,
		centerID string,
		typeID vaxid.TypeID,
		quantity *big.Int,
	) (*types.Receipt, error)

	// Governance
	ListProposals(ctx context.Context) ([]governance.Proposal, error)
	GetProposal(
		ctx context.Context,
		proposalID *big.Int,
	) (governance.Proposal, error)
	Propose(
		ctx context.Context,
		calls []chain.ProposalCall,
		description string,
	) (*types.Receipt, error)
	CastVoteWithReason(
		ctx context.Context,
		proposalID *big.Int,
		support chain.VoteSupport,
		reason string,
	) (*types.Receipt, error)

	// Governance token
	TokenInfo(ctx context.Context) (chain.TokenInfo, error)
	TokenBalance(
		ctx context.Context,
		account common.Address,
	) (*big.Int, error)
	TokenTransfer(
		ctx context.Context,
		to common.Address,
		amount *big.Int,
	) (*types.Receipt, error)
}
