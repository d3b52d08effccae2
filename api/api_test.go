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
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/vaxgate/aggregate"
	"github.com/blinklabs-io/vaxgate/certificate"
	"github.com/blinklabs-io/vaxgate/chain"
	"github.com/blinklabs-io/vaxgate/governance"
	"github.com/blinklabs-io/vaxgate/status"
	"github.com/blinklabs-io/vaxgate/vaxid"
)

// mockGateway implements GatewayNode with overridable function
// fields. Unset fields return zero values.
type mockGateway struct {
	getPatientInfoFunc func(string) (chain.Patient, error)
	statusFunc         func(string, string) (status.Status, error)
	tokenInfoFunc      func() (chain.TokenInfo, error)
	tokenBalanceFunc   func(common.Address) (*big.Int, error)
	registerDoseFunc   func() (*ethtypes.Receipt, error)
	castVoteFunc       func(
		*big.Int,
		chain.VoteSupport,
		string,
	) (*ethtypes.Receipt, error)
	patients []chain.Patient
}

func (m *mockGateway) GetAllPatients(
	_ context.Context,
) ([]chain.Patient, error) {
	return m.patients, nil
}

func (m *mockGateway) GetPatientInfo(
	_ context.Context,
	code string,
) (chain.Patient, error) {
	if m.getPatientInfoFunc != nil {
		return m.getPatientInfoFunc(code)
	}
	return chain.Patient{}, nil
}

func (m *mockGateway) RegisterPatient(
	_ context.Context,
	_ common.Address,
	_ string,
	_ string,
) (*ethtypes.Receipt, error) {
	return testReceipt(), nil
}

func (m *mockGateway) RegisterDose(
	_ context.Context,
	_ string,
	_ vaxid.TypeID,
	_ string,
	_ string,
	_ string,
) (*ethtypes.Receipt, error) {
	if m.registerDoseFunc != nil {
		return m.registerDoseFunc()
	}
	return testReceipt(), nil
}

func (m *mockGateway) GetAllVaccinationTypes(
	_ context.Context,
) ([]chain.VaccinationType, error) {
	return nil, nil
}

func (m *mockGateway) AddVaccinationType(
	_ context.Context,
	_ string,
	_ uint8,
) (*ethtypes.Receipt, error) {
	return testReceipt(), nil
}

func (m *mockGateway) GetMAPIsByPatient(
	_ context.Context,
	_ string,
) ([]chain.MAPIRecord, error) {
	return nil, nil
}

func (m *mockGateway) DeclareMAPI(
	_ context.Context,
	_ string,
	_ string,
) (*ethtypes.Receipt, error) {
	return testReceipt(), nil
}

func (m *mockGateway) Status(
	_ context.Context,
	code string,
	vaccineName string,
) (status.Status, error) {
	if m.statusFunc != nil {
		return m.statusFunc(code, vaccineName)
	}
	return status.Status{}, nil
}

func (m *mockGateway) Matrix(
	_ context.Context,
) (aggregate.Matrix, error) {
	return aggregate.Matrix{}, nil
}

func (m *mockGateway) PatientCertificates(
	_ context.Context,
	_ string,
) ([]certificate.Certificate, error) {
	return nil, nil
}

func (m *mockGateway) PatientHistory(
	_ context.Context,
	_ string,
) ([]aggregate.HistoryEntry, error) {
	return nil, nil
}

func (m *mockGateway) Dashboard(
	_ context.Context,
) (aggregate.DashboardTotals, error) {
	return aggregate.DashboardTotals{}, nil
}

func (m *mockGateway) GetAllCenters(
	_ context.Context,
) ([]string, error) {
	return nil, nil
}

func (m *mockGateway) GetStock(
	_ context.Context,
	_ string,
	_ vaxid.TypeID,
) (chain.StockLevel, error) {
	return chain.StockLevel{}, nil
}

func (m *mockGateway) AddStock(
	_ context.Context,
	_ string,
	_ vaxid.TypeID,
	_ *big.Int,
) (*ethtypes.Receipt, error) {
	return testReceipt(), nil
}

func (m *mockGateway) ListProposals(
	_ context.Context,
) ([]governance.Proposal, error) {
	return nil, nil
}

func (m *mockGateway) GetProposal(
	_ context.Context,
	_ *big.Int,
) (governance.Proposal, error) {
	return governance.Proposal{}, nil
}

func (m *mockGateway) Propose(
	_ context.Context,
	_ []chain.ProposalCall,
	_ string,
) (*ethtypes.Receipt, error) {
	return testReceipt(), nil
}

func (m *mockGateway) CastVoteWithReason(
	_ context.Context,
	proposalID *big.Int,
	support chain.VoteSupport,
	reason string,
) (*ethtypes.Receipt, error) {
	if m.castVoteFunc != nil {
		return m.castVoteFunc(proposalID, support, reason)
	}
	return testReceipt(), nil
}

func (m *mockGateway) TokenInfo(
	_ context.Context,
) (chain.TokenInfo, error) {
	if m.tokenInfoFunc != nil {
		return m.tokenInfoFunc()
	}
	return chain.TokenInfo{}, nil
}

func (m *mockGateway) TokenBalance(
	_ context.Context,
	account common.Address,
) (*big.Int, error) {
	if m.tokenBalanceFunc != nil {
		return m.tokenBalanceFunc(account)
	}
	return big.NewInt(0), nil
}

func (m *mockGateway) TokenTransfer(
	_ context.Context,
	_ common.Address,
	_ *big.Int,
) (*ethtypes.Receipt, error) {
	return testReceipt(), nil
}

func testReceipt() *ethtypes.Receipt {
	return &ethtypes.Receipt{
		TxHash:      common.HexToHash("0xabcd"),
		BlockNumber: big.NewInt(42),
		Status:      ethtypes.ReceiptStatusSuccessful,
	}
}

func testServer(gateway GatewayNode) *Server {
	return New(ServerConfig{}, gateway, nil)
}

func doRequest(
	t *testing.T,
	server *Server,
	method string,
	path string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reqBody)
	rec := httptest.NewRecorder()
	server.routes().ServeHTTP(rec, req)
	return rec
}

func TestHandleGetPatient(t *testing.T) {
	server := testServer(&mockGateway{
		getPatientInfoFunc: func(code string) (chain.Patient, error) {
			return chain.Patient{
				ID:                   big.NewInt(1),
				Address:              common.HexToAddress("0x0123"),
				Code:                 code,
				ProfessionalCategory: "nurse",
				RegistrationDate:     1700000000,
				Exists:               true,
			}, nil
		},
	})
	rec := doRequest(t, server, "GET", "/api/v1/patients/P-001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp PatientResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "P-001", resp.Code)
	require.Equal(t, "2023-11-14T22:13:20Z", resp.RegistrationDate)
}

func TestErrorStatusMapping(t *testing.T) {
	testDefs := []struct {
		kind       chain.ErrorKind
		wantStatus int
	}{
		{chain.KindNotFound, http.StatusNotFound},
		{chain.KindPermissionDenied, http.StatusForbidden},
		{chain.KindInsufficientResource, http.StatusConflict},
		{chain.KindAlreadyInTerminalState, http.StatusConflict},
		{chain.KindTransport, http.StatusBadGateway},
		{chain.KindUnknown, http.StatusInternalServerError},
	}
	for _, testDef := range testDefs {
		server := testServer(&mockGateway{
			getPatientInfoFunc: func(
				_ string,
			) (chain.Patient, error) {
				return chain.Patient{}, &chain.Error{
					Kind: testDef.kind,
					Op:   "getPatientInfo",
				}
			},
		})
		rec := doRequest(
			t,
			server,
			"GET",
			"/api/v1/patients/P-001",
			nil,
		)
		require.Equal(
			t,
			testDef.wantStatus,
			rec.Code,
			"kind %s", testDef.kind,
		)
		var resp ErrorResponse
		require.NoError(
			t,
			json.Unmarshal(rec.Body.Bytes(), &resp),
		)
		require.Equal(t, testDef.wantStatus, resp.StatusCode)
	}
}

func TestHandleGetStatus(t *testing.T) {
	server := testServer(&mockGateway{
		statusFunc: func(
			code string,
			vaccineName string,
		) (status.Status, error) {
			return status.Status{
				Doses: []chain.DoseRecord{
					{
						Date:        1700000000,
						CenterID:    "C1",
						BatchNumber: "B1",
					},
				},
				CertificateTokenID: big.NewInt(7),
				Complete:           true,
			}, nil
		},
	})
	rec := doRequest(
		t,
		server,
		"GET",
		"/api/v1/patients/P-001/status/Polio",
		nil,
	)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "P-001", resp.PatientCode)
	require.Equal(t, "Polio", resp.VaccineName)
	require.Equal(t, 1, resp.DoseCount)
	require.Equal(t, "7", resp.CertificateTokenID)
	require.True(t, resp.Complete)
	require.Equal(t, "2023-11-14T22:13:20Z", resp.Doses[0].Date)
}

func TestHandleGetStatusZeroOmitsToken(t *testing.T) {
	server := testServer(&mockGateway{})
	rec := doRequest(
		t,
		server,
		"GET",
		"/api/v1/patients/P-001/status/Polio",
		nil,
	)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.CertificateTokenID)
	require.Zero(t, resp.DoseCount)
	require.False(t, resp.Complete)
}

func TestHandleRegisterPatientBadAddress(t *testing.T) {
	server := testServer(&mockGateway{})
	rec := doRequest(
		t,
		server,
		"POST",
		"/api/v1/patients",
		RegisterPatientRequest{
			Address: "not-an-address",
			Code:    "P-001",
		},
	)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRegisterDose(t *testing.T) {
	server := testServer(&mockGateway{})
	rec := doRequest(
		t,
		server,
		"POST",
		"/api/v1/doses",
		RegisterDoseRequest{
			PatientCode: "P-001",
			VaccineName: "Polio",
			CenterID:    "C1",
			BatchNumber: "B1",
		},
	)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp TxResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, uint64(42), resp.BlockNumber)
	require.NotEmpty(t, resp.TxHash)
}

func TestHandleCastVoteSupportValues(t *testing.T) {
	var gotSupport chain.VoteSupport
	server := testServer(&mockGateway{
		castVoteFunc: func(
			_ *big.Int,
			support chain.VoteSupport,
			_ string,
		) (*ethtypes.Receipt, error) {
			gotSupport = support
			return testReceipt(), nil
		},
	})
	testDefs := []struct {
		support string
		want    chain.VoteSupport
	}{
		{"for", chain.VoteFor},
		{"against", chain.VoteAgainst},
		{"abstain", chain.VoteAbstain},
		{"1", chain.VoteFor},
	}
	for _, testDef := range testDefs {
		rec := doRequest(
			t,
			server,
			"POST",
			"/api/v1/proposals/3/votes",
			CastVoteRequest{Support: testDef.support},
		)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, testDef.want, gotSupport)
	}
	rec := doRequest(
		t,
		server,
		"POST",
		"/api/v1/proposals/3/votes",
		CastVoteRequest{Support: "maybe"},
	)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTokenInfoFormatsSupply(t *testing.T) {
	server := testServer(&mockGateway{
		tokenInfoFunc: func() (chain.TokenInfo, error) {
			supply, _ := new(big.Int).SetString(
				"1500000000000000000",
				10,
			)
			return chain.TokenInfo{
				Name:        "VaxToken",
				Symbol:      "VAX",
				Decimals:    18,
				TotalSupply: supply,
			}, nil
		},
	})
	rec := doRequest(t, server, "GET", "/api/v1/token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp TokenInfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "1.5", resp.TotalSupply)
}

func TestHandleListPatientsPagination(t *testing.T) {
	patients := make([]chain.Patient, 5)
	for i := range patients {
		patients[i] = chain.Patient{
			ID:     big.NewInt(int64(i + 1)),
			Code:   string(rune('A' + i)),
			Exists: true,
		}
	}
	server := testServer(&mockGateway{patients: patients})
	rec := doRequest(
		t,
		server,
		"GET",
		"/api/v1/patients?count=2&page=2",
		nil,
	)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp []PatientResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	require.Equal(t, "C", resp[0].Code)
	require.Equal(
		t,
		"5",
		rec.Header().Get("X-Pagination-Count-Total"),
	)
	require.Equal(
		t,
		"3",
		rec.Header().Get("X-Pagination-Page-Total"),
	)
}

func TestFormatUnits(t *testing.T) {
	testDefs := []struct {
		amount   string
		decimals uint8
		want     string
	}{
		{"0", 18, "0"},
		{"1000000000000000000", 18, "1"},
		{"1500000000000000000", 18, "1.5"},
		{"1", 18, "0.000000000000000001"},
		{"123", 0, "123"},
		{"1050", 2, "10.5"},
	}
	for _, testDef := range testDefs {
		amount, ok := new(big.Int).SetString(testDef.amount, 10)
		require.True(t, ok)
		require.Equal(
			t,
			testDef.want,
			formatUnits(amount, testDef.decimals),
			"amount %s decimals %d",
			testDef.amount,
			testDef.decimals,
		)
	}
}
