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
	"encoding/json"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/blinklabs-io/vaxgate/certificate"
	"github.com/blinklabs-io/vaxgate/chain"
	"github.com/blinklabs-io/vaxgate/governance"
	"github.com/blinklabs-io/vaxgate/internal/version"
	"github.com/blinklabs-io/vaxgate/status"
	"github.com/blinklabs-io/vaxgate/vaxid"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
//
//nolint:unparam
func writeError(
	w http.ResponseWriter,
	status int,
	errStr string,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      errStr,
		Message:    message,
	})
}

// writeChainError maps a classified chain error to an HTTP status.
func writeChainError(w http.ResponseWriter, err error) {
	kind := chain.KindOf(err)
	var status int
	var errStr string
	switch kind {
	case chain.KindNotFound:
		status = http.StatusNotFound
		errStr = "Not Found"
	case chain.KindPermissionDenied:
		status = http.StatusForbidden
		errStr = "Forbidden"
	case chain.KindInsufficientResource,
		chain.KindAlreadyInTerminalState:
		status = http.StatusConflict
		errStr = "Conflict"
	case chain.KindTransport:
		status = http.StatusBadGateway
		errStr = "Bad Gateway"
	default:
		status = http.StatusInternalServerError
		errStr = "Internal Server Error"
	}
	writeError(w, status, errStr, err.Error())
}

// formatTime renders an on-chain epoch-second timestamp as RFC3339
// UTC. This is the only place chain timestamps become strings.
func formatTime(epochSeconds int64) string {
	return time.Unix(epochSeconds, 0).UTC().Format(time.RFC3339)
}

// formatUnits renders a wei amount as a decimal token string. This is
// the only place wei becomes a display value; everything below this
// boundary carries raw *big.Int.
func formatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}
	divisor := new(big.Int).Exp(
		big.NewInt(10),
		big.NewInt(int64(decimals)),
		nil,
	)
	whole, frac := new(big.Int).QuoRem(
		amount,
		divisor,
		new(big.Int),
	)
	if frac.Sign() == 0 {
		return whole.String()
	}
	fracStr := frac.Abs(frac).String()
	for len(fracStr) < int(decimals) {
		fracStr = "0" + fracStr
	}
	fracStr = strings.TrimRight(fracStr, "0")
	return whole.String() + "." + fracStr
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func toPatientResponse(p chain.Patient) PatientResponse {
	return PatientResponse{
		ID:                   bigString(p.ID),
		Address:              p.Address.Hex(),
		Code:                 p.Code,
		ProfessionalCategory: p.ProfessionalCategory,
		RegistrationDate:     formatTime(p.RegistrationDate),
	}
}

func toVaccineTypeResponse(
	v chain.VaccinationType,
) VaccineTypeResponse {
	return VaccineTypeResponse{
		ID:            v.ID.String(),
		Name:          v.Name,
		RequiredDoses: v.RequiredDoses,
	}
}

func toStatusResponse(
	code string,
	vaccineName string,
	st status.Status,
) StatusResponse {
	doses := make([]DoseResponse, 0, len(st.Doses))
	for _, dose := range st.Doses {
		doses = append(doses, DoseResponse{
			Date:        formatTime(dose.Date),
			CenterID:    dose.CenterID,
			BatchNumber: dose.BatchNumber,
		})
	}
	resp := StatusResponse{
		PatientCode: code,
		VaccineName: vaccineName,
		Doses:       doses,
		DoseCount:   st.DoseCount(),
		Complete:    st.Complete,
	}
	if st.HasCertificateToken() {
		resp.CertificateTokenID = st.CertificateTokenID.String()
	}
	return resp
}

func toCertificateResponse(
	cert certificate.Certificate,
) CertificateResponse {
	return CertificateResponse{
		VaccineName: cert.VaccineName,
		TokenID:     bigString(cert.TokenID),
		TokenURI:    cert.TokenURI,
		Name:        cert.Metadata.Name,
		Description: cert.Metadata.Description,
		ImageURL:    cert.ImageURL,
		DoseCount:   cert.DoseCount,
		HasMetadata: cert.HasMetadata,
		HasImage:    cert.HasImage,
	}
}

func toProposalResponse(p governance.Proposal) ProposalResponse {
	return ProposalResponse{
		ID:       bigString(p.ID),
		Proposer: p.Proposer.Hex(),
		Title:    p.Title,
		Body:     p.Body,
		State:    p.State.String(),
		Votes: ProposalVotesResponse{
			Against: bigString(p.Votes.Against),
			For:     bigString(p.Votes.For),
			Abstain: bigString(p.Votes.Abstain),
		},
		VoteStart: bigString(p.VoteStart),
		VoteEnd:   bigString(p.VoteEnd),
		Executed:  p.Executed,
		Canceled:  p.Canceled,
	}
}

func toStockResponse(
	centerID string,
	vaccineName string,
	level chain.StockLevel,
) StockResponse {
	return StockResponse{
		CenterID:          centerID,
		VaccineName:       vaccineName,
		CurrentQuantity:   bigString(level.CurrentQuantity),
		CriticalThreshold: bigString(level.CriticalThreshold),
		Critical:          level.Critical(),
	}
}

func toTxResponse(receipt *ethtypes.Receipt) TxResponse {
	resp := TxResponse{
		TxHash: receipt.TxHash.Hex(),
	}
	if receipt.BlockNumber != nil {
		resp.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return resp
}

// decodeBody decodes a JSON request body, reporting a 400 on failure.
func decodeBody(
	w http.ResponseWriter,
	r *http.Request,
	v any,
) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid request body: "+err.Error(),
		)
		return false
	}
	return true
}

// parseAddress parses a hex address, reporting a 400 on failure.
func parseAddress(
	w http.ResponseWriter,
	value string,
	field string,
) (common.Address, bool) {
	if !common.IsHexAddress(value) {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid address in field "+field,
		)
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

// parseAmount parses a base-10 big integer, reporting a 400 on
// failure.
func parseAmount(
	w http.ResponseWriter,
	value string,
	field string,
) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid amount in field "+field,
		)
		return nil, false
	}
	return amount, true
}

// handleRoot handles GET / and returns API metadata.
func (s *Server) handleRoot(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    "vaxgate",
		Version: version.GetVersionString(),
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

// handleListPatients handles GET /api/v1/patients.
func (s *Server) handleListPatients(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
		return
	}
	patients, err := s.gateway.GetAllPatients(r.Context())
	if err != nil {
		writeChainError(w, err)
		return
	}
	SetPaginationHeaders(w, len(patients), params)
	page := PaginateSlice(patients, params)
	resp := make([]PatientResponse, 0, len(page))
	for _, patient := range page {
		resp = append(resp, toPatientResponse(patient))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetPatient handles GET /api/v1/patients/{code}.
func (s *Server) handleGetPatient(
	w http.ResponseWriter,
	r *http.Request,
) {
	patient, err := s.gateway.GetPatientInfo(
		r.Context(),
		r.PathValue("code"),
	)
	if err != nil {
		writeChainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPatientResponse(patient))
}

// handleGetStatus handles
// GET /api/v1/patients/{code}/status/{vaccine}.
func (s *Server) handleGetStatus(
	w http.ResponseWriter,
	r *http.Request,
) {
	code := r.PathValue("code")
	vaccineName := r.PathValue("vaccine")
	st, err := s.gateway.Status(r.Context(), code, vaccineName)
	if err != nil {
		writeChainError(w, err)
		return
	}
	writeJSON(
		w,
		http.StatusOK,
		toStatusResponse(code, vaccineName, st),
	)
}

// handleGetCertificates handles
// GET /api/v1/patients/{code}/certificates.
func (s *Server) handleGetCertificates(
	w http.ResponseWriter,
	r *http.Request,
) {
	certificates, err := s.gateway.PatientCertificates(
		r.Context(),
		r.PathValue("code"),
	)
	if err != nil {
		writeChainError(w, err)
		return
	}
	resp := make([]CertificateResponse, 0, len(certificates))
	for _, cert := range certificates {
		resp = append(resp, toCertificateResponse(cert))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetHistory handles GET /api/v1/patients/{code}/history.
func (s *Server) handleGetHistory(
	w http.ResponseWriter,
	r *http.Request,
) {
	history, err := s.gateway.PatientHistory(
		r.Context(),
		r.PathValue("code"),
	)
	if err != nil {
		writeChainError(w, err)
		return
	}
	resp := make([]HistoryEntryResponse, 0, len(history))
	for _, entry := range history {
		resp = append(resp, HistoryEntryResponse{
			Kind:        string(entry.Kind),
			Date:        formatTime(entry.Date),
			VaccineName: entry.VaccineName,
			DoseNumber:  entry.DoseNumber,
			CenterID:    entry.CenterID,
			BatchNumber: entry.BatchNumber,
			Description: entry.Description,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetMAPIs handles GET /api/v1/patients/{code}/mapis.
func (s *Server) handleGetMAPIs(
	w http.ResponseWriter,
	r *http.Request,
) {
	records, err := s.gateway.GetMAPIsByPatient(
		r.Context(),
		r.PathValue("code"),
	)
	if err != nil {
		writeChainError(w, err)
		return
	}
	resp := make([]MAPIResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, MAPIResponse{
			ID:              bigString(record.ID),
			PatientID:       bigString(record.PatientID),
			Description:     record.Description,
			DeclarationDate: formatTime(record.DeclarationDate),
			ReportingAgent:  record.ReportingAgent.Hex(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMatrix handles GET /api/v1/matrix.
func (s *Server) handleMatrix(
	w http.ResponseWriter,
	r *http.Request,
) {
	matrix, err := s.gateway.Matrix(r.Context())
	if err != nil {
		writeChainError(w, err)
		return
	}
	resp := MatrixResponse{
		Patients: make(
			[]PatientResponse,
			0,
			len(matrix.Patients),
		),
		VaccineTypes: make(
			[]VaccineTypeResponse,
			0,
			len(matrix.VaccineTypes),
		),
	}
	for _, patient := range matrix.Patients {
		resp.Patients = append(
			resp.Patients,
			toPatientResponse(patient),
		)
	}
	for _, vaccineType := range matrix.VaccineTypes {
		resp.VaccineTypes = append(
			resp.VaccineTypes,
			toVaccineTypeResponse(vaccineType),
		)
	}
	for _, row := range matrix.Cells {
		for _, cell := range row {
			resp.Cells = append(resp.Cells, MatrixCellResponse{
				PatientCode: cell.PatientCode,
				VaccineName: cell.VaccineName,
				DoseCount:   cell.Status.DoseCount(),
				Complete:    cell.Status.Complete,
				Failed:      cell.Failed,
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDashboard handles GET /api/v1/dashboard.
func (s *Server) handleDashboard(
	w http.ResponseWriter,
	r *http.Request,
) {
	totals, err := s.gateway.Dashboard(r.Context())
	if err != nil {
		writeChainError(w, err)
		return
	}
	resp := DashboardResponse{
		Patients:       totals.Patients,
		VaccineTypes:   totals.VaccineTypes,
		Centers:        totals.Centers,
		DosesRecorded:  totals.DosesRecorded,
		CompleteCounts: totals.CompleteCounts,
		TotalStock:     bigString(totals.TotalStock),
		CriticalStocks: make(
			[]StockResponse,
			0,
			len(totals.CriticalStocks),
		),
	}
	for _, entry := range totals.CriticalStocks {
		resp.CriticalStocks = append(
			resp.CriticalStocks,
			toStockResponse(
				entry.CenterID,
				entry.VaccineName,
				entry.Level,
			),
		)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListVaccineTypes handles GET /api/v1/vaccine-types.
func (s *Server) handleListVaccineTypes(
	w http.ResponseWriter,
	r *http.Request,
) {
	vaccineTypes, err := s.gateway.GetAllVaccinationTypes(
		r.Context(),
	)
	if err != nil {
		writeChainError(w, err)
		return
	}
	resp := make([]VaccineTypeResponse, 0, len(vaccineTypes))
	for _, vaccineType := range vaccineTypes {
		resp = append(resp, toVaccineTypeResponse(vaccineType))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListCenters handles GET /api/v1/centers.
func (s *Server) handleListCenters(
	w http.ResponseWriter,
	r *http.Request,
) {
	centers, err := s.gateway.GetAllCenters(r.Context())
	if err != nil {
		writeChainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, centers)
}

// handleGetStock handles GET /api/v1/stock/{center}/{vaccine}.
func (s *Server) handleGetStock(
	w http.ResponseWriter,
	r *http.Request,
) {
	centerID := r.PathValue("center")
	vaccineName := r.PathValue("vaccine")
	level, err := s.gateway.GetStock(
		r.Context(),
		centerID,
		vaxid.DeriveTypeID(vaccineName),
	)
	if err != nil {
		writeChainError(w, err)
		return
	}
	writeJSON(
		w,
		http.StatusOK,
		toStockResponse(centerID, vaccineName, level),
	)
}

// handleListProposals handles GET /api/v1/proposals.
func (s *Server) handleListProposals(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposals, err := s.gateway.ListProposals(r.Context())
	if err != nil {
		writeChainError(w, err)
		return
	}
	resp := make([]ProposalResponse, 0, len(proposals))
	for _, proposal := range proposals {
		resp = append(resp, toProposalResponse(proposal))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetProposal handles GET /api/v1/proposals/{id}.
func (s *Server) handleGetProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalID, ok := new(big.Int).SetString(
		r.PathValue("id"),
		10,
	)
	if !ok {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid proposal id",
		)
		return
	}
	proposal, err := s.gateway.GetProposal(r.Context(), proposalID)
	if err != nil {
		writeChainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProposalResponse(proposal))
}

// handleTokenInfo handles GET /api/v1/token.
func (s *Server) handleTokenInfo(
	w http.ResponseWriter,
	r *http.Request,
) {
	info, err := s.gateway.TokenInfo(r.Context())
	if err != nil {
		writeChainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenInfoResponse{
		Name:     info.Name,
		Symbol:   info.Symbol,
		Decimals: info.Decimals,
		TotalSupply: formatUnits(
			info.TotalSupply,
			info.Decimals,
		),
		Owner: info.Owner.Hex(),
	})
}

// handleTokenBalance handles GET /api/v1/token/balances/{account}.
func (s *Server) handleTokenBalance(
	w http.ResponseWriter,
	r *http.Request,
) {
	account, ok := parseAddress(w, r.PathValue("account"), "account")
	if !ok {
		return
	}
	info, err := s.gateway.TokenInfo(r.Context())
	if err != nil {
		writeChainError(w, err)
		return
	}
	balance, err := s.gateway.TokenBalance(r.Context(), account)
	if err != nil {
		writeChainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		Account: account.Hex(),
		Balance: formatUnits(balance, info.Decimals),
	})
}

// handleRegisterPatient handles POST /api/v1/patients.
func (s *Server) handleRegisterPatient(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req RegisterPatientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	address, ok := parseAddress(w, req.Address, "address")
	if !ok {
		return
	}
	if req.Code == "" {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"patient code must not be empty",
		)
		return
	}
	receipt, err := s.gateway.RegisterPatient(
		r.Context(),
		address,
		req.Code,
		req.ProfessionalCategory,
	)
	if err != nil {
		writeChainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTxResponse(receipt))
}

// handleRegisterDose handles POST /api/v1/doses.
func (s *Server) handleRegisterDose(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req RegisterDoseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PatientCode == "" || req.VaccineName == "" {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"patient_code and vaccine_name must not be empty",
		)
		return
	}
	receipt, err := s.gateway.RegisterDose(
		r.Context(),
		req.PatientCode,
		vaxid.DeriveTypeID(req.VaccineName),
		req.CenterID,
		req.BatchNumber,
		req.MetadataURI,
	)
	if err != nil {
		writeChainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTxResponse(receipt))
}

// handleAddVaccineType handles POST /api/v1/vaccine-types.
func (s *Server) handleAddVaccineType(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req AddVaccineTypeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" || req.RequiredDoses == 0 {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"name must not be empty and required_doses must be positive",
		)
		return
	}
	receipt, err := s.gateway.AddVaccinationType(
		r.Context(),
		req.Name,
		req.RequiredDoses,
	)
	if err != nil {
		writeChainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTxResponse(receipt))
}

// handleAddStock handles POST /api/v1/stock/{center}/add.
func (s *Server) handleAddStock(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req AddStockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	quantity, ok := parseAmount(w, req.Quantity, "quantity")
	if !ok {
		return
	}
	receipt, err := s.gateway.AddStock(
		r.Context(),
		r.PathValue("center"),
		vaxid.DeriveTypeID(req.VaccineName),
		quantity,
	)
	if err != nil {
		writeChainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTxResponse(receipt))
}

// handleDeclareMAPI handles POST /api/v1/mapis.
func (s *Server) handleDeclareMAPI(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req DeclareMAPIRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PatientCode == "" || req.Description == "" {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"patient_code and description must not be empty",
		)
		return
	}
	receipt, err := s.gateway.DeclareMAPI(
		r.Context(),
		req.PatientCode,
		req.Description,
	)
	if err != nil {
		writeChainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTxResponse(receipt))
}

// handleCreateProposal handles POST /api/v1/proposals.
func (s *Server) handleCreateProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req CreateProposalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Description == "" || len(req.Calls) == 0 {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"description and calls must not be empty",
		)
		return
	}
	calls := make([]chain.ProposalCall, 0, len(req.Calls))
	for _, call := range req.Calls {
		target, ok := parseAddress(w, call.Target, "target")
		if !ok {
			return
		}
		calldata, err := hexutil.Decode(call.Calldata)
		if err != nil {
			writeError(
				w,
				http.StatusBadRequest,
				"Bad Request",
				"invalid calldata: "+err.Error(),
			)
			return
		}
		value := big.NewInt(0)
		if call.Value != "" {
			value, ok = parseAmount(w, call.Value, "value")
			if !ok {
				return
			}
		}
		calls = append(calls, chain.ProposalCall{
			Target:   target,
			Value:    value,
			Calldata: calldata,
		})
	}
	receipt, err := s.gateway.Propose(
		r.Context(),
		calls,
		req.Description,
	)
	if err != nil {
		writeChainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTxResponse(receipt))
}

// handleCastVote handles POST /api/v1/proposals/{id}/votes.
func (s *Server) handleCastVote(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalID, ok := new(big.Int).SetString(
		r.PathValue("id"),
		10,
	)
	if !ok {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid proposal id",
		)
		return
	}
	var req CastVoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var support chain.VoteSupport
	switch strings.ToLower(req.Support) {
	case "against", "0":
		support = chain.VoteAgainst
	case "for", "1":
		support = chain.VoteFor
	case "abstain", "2":
		support = chain.VoteAbstain
	default:
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"support must be one of against, for, abstain",
		)
		return
	}
	receipt, err := s.gateway.CastVoteWithReason(
		r.Context(),
		proposalID,
		support,
		req.Reason,
	)
	if err != nil {
		writeChainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTxResponse(receipt))
}

// handleTokenTransfer handles POST /api/v1/token/transfers.
func (s *Server) handleTokenTransfer(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req TokenTransferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	to, ok := parseAddress(w, req.To, "to")
	if !ok {
		return
	}
	amount, ok := parseAmount(w, req.Amount, "amount")
	if !ok {
		return
	}
	receipt, err := s.gateway.TokenTransfer(r.Context(), to, amount)
	if err != nil {
		writeChainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTxResponse(receipt))
}
