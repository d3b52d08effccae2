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

// RootResponse is returned by GET /.
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// ErrorResponse is the error body for all endpoints.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// PatientResponse represents a registered patient.
type PatientResponse struct {
	ID                   string `json:"id"`
	Address              string `json:"address"`
	Code                 string `json:"code"`
	ProfessionalCategory string `json:"professional_category"`
	RegistrationDate     string `json:"registration_date"`
}

// VaccineTypeResponse represents a registered vaccine type.
type VaccineTypeResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	RequiredDoses uint8  `json:"required_doses"`
}

// DoseResponse represents one administered dose.
type DoseResponse struct {
	Date        string `json:"date"`
	CenterID    string `json:"center_id"`
	BatchNumber string `json:"batch_number"`
}

// StatusResponse represents a reconciled vaccination status.
type StatusResponse struct {
	PatientCode        string         `json:"patient_code"`
	VaccineName        string         `json:"vaccine_name"`
	Doses              []DoseResponse `json:"doses"`
	DoseCount          int            `json:"dose_count"`
	CertificateTokenID string         `json:"certificate_token_id,omitempty"`
	Complete           bool           `json:"complete"`
}

// CertificateResponse represents a resolved completion certificate.
type CertificateResponse struct {
	VaccineName string `json:"vaccine_name"`
	TokenID     string `json:"token_id"`
	TokenURI    string `json:"token_uri,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	DoseCount   int    `json:"dose_count"`
	HasMetadata bool   `json:"has_metadata"`
	HasImage    bool   `json:"has_image"`
}

// HistoryEntryResponse is one event in a patient's merged timeline.
type HistoryEntryResponse struct {
	Kind        string `json:"kind"`
	Date        string `json:"date"`
	VaccineName string `json:"vaccine_name"`
	DoseNumber  int    `json:"dose_number,omitempty"`
	CenterID    string `json:"center_id,omitempty"`
	BatchNumber string `json:"batch_number,omitempty"`
	Description string `json:"description,omitempty"`
}

// MAPIResponse represents an adverse event declaration.
type MAPIResponse struct {
	ID              string `json:"id"`
	PatientID       string `json:"patient_id"`
	Description     string `json:"description"`
	DeclarationDate string `json:"declaration_date"`
	ReportingAgent  string `json:"reporting_agent"`
}

// MatrixCellResponse is one (patient, vaccine) intersection.
type MatrixCellResponse struct {
	PatientCode string `json:"patient_code"`
	VaccineName string `json:"vaccine_name"`
	DoseCount   int    `json:"dose_count"`
	Complete    bool   `json:"complete"`
	Failed      bool   `json:"failed,omitempty"`
}

// MatrixResponse is the full coverage matrix.
type MatrixResponse struct {
	Patients     []PatientResponse     `json:"patients"`
	VaccineTypes []VaccineTypeResponse `json:"vaccine_types"`
	Cells        []MatrixCellResponse  `json:"cells"`
}

// StockResponse is the stock level for a (center, vaccine) pair.
type StockResponse struct {
	CenterID          string `json:"center_id"`
	VaccineName       string `json:"vaccine_name,omitempty"`
	CurrentQuantity   string `json:"current_quantity"`
	CriticalThreshold string `json:"critical_threshold"`
	Critical          bool   `json:"critical"`
}

// DashboardResponse is the operational overview.
type DashboardResponse struct {
	Patients       int             `json:"patients"`
	VaccineTypes   int             `json:"vaccine_types"`
	Centers        int             `json:"centers"`
	DosesRecorded  int             `json:"doses_recorded"`
	CompleteCounts map[string]int  `json:"complete_counts"`
	TotalStock     string          `json:"total_stock"`
	CriticalStocks []StockResponse `json:"critical_stocks"`
}

// ProposalVotesResponse is the vote tally for a proposal.
type ProposalVotesResponse struct {
	Against string `json:"against"`
	For     string `json:"for"`
	Abstain string `json:"abstain"`
}

// ProposalResponse represents a governance proposal.
type ProposalResponse struct {
	ID        string                `json:"id"`
	Proposer  string                `json:"proposer"`
	Title     string                `json:"title"`
	Body      string                `json:"body,omitempty"`
	State     string                `json:"state"`
	Votes     ProposalVotesResponse `json:"votes"`
	VoteStart string                `json:"vote_start"`
	VoteEnd   string                `json:"vote_end"`
	Executed  bool                  `json:"executed"`
	Canceled  bool                  `json:"canceled"`
}

// TokenInfoResponse is the governance token metadata.
type TokenInfoResponse struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply string `json:"total_supply"`
	Owner       string `json:"owner"`
}

// BalanceResponse is a token balance, formatted in whole tokens.
type BalanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

// TxResponse is returned by all write endpoints once the transaction
// has been mined.
type TxResponse struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
}

// RegisterPatientRequest is the body for POST /api/v1/patients.
type RegisterPatientRequest struct {
	Address              string `json:"address"`
	Code                 string `json:"code"`
	ProfessionalCategory string `json:"professional_category"`
}

// RegisterDoseRequest is the body for POST /api/v1/doses.
type RegisterDoseRequest struct {
	PatientCode string `json:"patient_code"`
	VaccineName string `json:"vaccine_name"`
	CenterID    string `json:"center_id"`
	BatchNumber string `json:"batch_number"`
	MetadataURI string `json:"metadata_uri"`
}

// AddVaccineTypeRequest is the body for POST /api/v1/vaccine-types.
type AddVaccineTypeRequest struct {
	Name          string `json:"name"`
	RequiredDoses uint8  `json:"required_doses"`
}

// AddStockRequest is the body for POST /api/v1/stock/{center}/add.
type AddStockRequest struct {
	VaccineName string `json:"vaccine_name"`
	Quantity    string `json:"quantity"`
}

// DeclareMAPIRequest is the body for POST /api/v1/mapis.
type DeclareMAPIRequest struct {
	PatientCode string `json:"patient_code"`
	Description string `json:"description"`
}

// ProposalCallRequest is one action in a proposal.
type ProposalCallRequest struct {
	Target   string `json:"target"`
	Value    string `json:"value,omitempty"`
	Calldata string `json:"calldata"`
}

// CreateProposalRequest is the body for POST /api/v1/proposals.
type CreateProposalRequest struct {
	Description string                `json:"description"`
	Calls       []ProposalCallRequest `json:"calls"`
}

// CastVoteRequest is the body for POST /api/v1/proposals/{id}/votes.
type CastVoteRequest struct {
	Support string `json:"support"`
	Reason  string `json:"reason,omitempty"`
}

// TokenTransferRequest is the body for POST /api/v1/token/transfers.
type TokenTransferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}
