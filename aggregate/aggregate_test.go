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

package aggregate_test

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/vaxgate/aggregate"
	"github.com/blinklabs-io/vaxgate/certificate"
	"github.com/blinklabs-io/vaxgate/chain"
	"github.com/blinklabs-io/vaxgate/status"
	"github.com/blinklabs-io/vaxgate/vaxid"
)

type fakeRegistry struct {
	patients     []chain.Patient
	vaccineTypes []chain.VaccinationType
	mapis        map[string][]chain.MAPIRecord
}

func (f *fakeRegistry) GetAllPatients(
	_ context.Context,
) ([]chain.Patient, error) {
	return f.patients, nil
}

func (f *fakeRegistry) GetAllVaccinationTypes(
	_ context.Context,
) ([]chain.VaccinationType, error) {
	return f.vaccineTypes, nil
}

func (f *fakeRegistry) GetMAPIsByPatient(
	_ context.Context,
	code string,
) ([]chain.MAPIRecord, error) {
	return f.mapis[code], nil
}

type fakeStock struct {
	centers []string
	levels  map[string]chain.StockLevel
}

func (f *fakeStock) GetAllCenters(_ context.Context) ([]string, error) {
	return f.centers, nil
}

func (f *fakeStock) GetStock(
	_ context.Context,
	centerID string,
	typeID vaxid.TypeID,
) (chain.StockLevel, error) {
	key := centerID + "/" + typeID.String()
	level, ok := f.levels[key]
	if !ok {
		return chain.StockLevel{}, &chain.Error{
			Kind:   chain.KindNotFound,
			Op:     "getStock",
			Reason: "stock not configured",
		}
	}
	return level, nil
}

type statusKey struct {
	code    string
	vaccine string
}

type fakeStatuses struct {
	mu         sync.Mutex
	statuses   map[statusKey]status.Status
	failures   map[statusKey]error
	inFlight   atomic.Int32
	maxSeen    atomic.Int32
	delay      time.Duration
	totalCalls atomic.Int32
}

func (f *fakeStatuses) Status(
	_ context.Context,
	code string,
	vaccineName string,
) (status.Status, error) {
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if current <= seen || f.maxSeen.CompareAndSwap(seen, current) {
			break
		}
	}
	f.totalCalls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := statusKey{code: code, vaccine: vaccineName}
	if err, ok := f.failures[key]; ok {
		return status.Status{}, err
	}
	return f.statuses[key], nil
}

type fakeResolver struct {
	calls atomic.Int32
}

func (f *fakeResolver) Resolve(
	_ context.Context,
	vaccineName string,
	st status.Status,
) certificate.Certificate {
	f.calls.Add(1)
	return certificate.Certificate{
		VaccineName: vaccineName,
		TokenID:     st.CertificateTokenID,
		DoseCount:   st.DoseCount(),
		HasMetadata: true,
	}
}

func patient(code string) chain.Patient {
	return chain.Patient{Code: code, Exists: true}
}

func vaccineType(name string) chain.VaccinationType {
	return chain.VaccinationType{
		ID:     vaxid.DeriveTypeID(name),
		Name:   name,
		Exists: true,
	}
}

func completeStatus(tokenID int64, doses int) status.Status {
	doseRecords := make([]chain.DoseRecord, doses)
	for i := range doseRecords {
		doseRecords[i] = chain.DoseRecord{Date: int64(1700000000 + i)}
	}
	return status.Status{
		Doses:              doseRecords,
		CertificateTokenID: big.NewInt(tokenID),
		Complete:           true,
	}
}

func TestMatrixCellFailureIsolated(t *testing.T) {
	statuses := &fakeStatuses{
		statuses: map[statusKey]status.Status{
			{code: "P1", vaccine: "Polio"}: completeStatus(7, 2),
		},
		failures: map[statusKey]error{
			{code: "P2", vaccine: "Polio"}: &chain.Error{
				Kind: chain.KindUnknown,
				Op:   "getPatientVaccinationStatus",
			},
		},
	}
	aggregator := aggregate.NewAggregator(aggregate.AggregatorConfig{
		Registry: &fakeRegistry{
			patients:     []chain.Patient{patient("P1"), patient("P2")},
			vaccineTypes: []chain.VaccinationType{vaccineType("Polio")},
		},
		Statuses: statuses,
	})
	matrix, err := aggregator.Matrix(context.Background())
	require.NoError(t, err)
	require.Len(t, matrix.Cells, 2)
	require.True(t, matrix.Cells[0][0].Status.Complete)
	require.False(t, matrix.Cells[0][0].Failed)
	require.True(t, matrix.Cells[1][0].Failed)
	require.Zero(t, matrix.Cells[1][0].Status.DoseCount())
}

func TestMatrixBoundedConcurrency(t *testing.T) {
	patients := make([]chain.Patient, 6)
	for i := range patients {
		patients[i] = patient(string(rune('A' + i)))
	}
	statuses := &fakeStatuses{delay: 10 * time.Millisecond}
	aggregator := aggregate.NewAggregator(aggregate.AggregatorConfig{
		Registry: &fakeRegistry{
			patients: patients,
			vaccineTypes: []chain.VaccinationType{
				vaccineType("Polio"),
				vaccineType("Measles"),
			},
		},
		Statuses:    statuses,
		FanoutLimit: 2,
	})
	_, err := aggregator.Matrix(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(12), statuses.totalCalls.Load())
	require.LessOrEqual(t, statuses.maxSeen.Load(), int32(2))
}

func TestPatientCertificatesOnlyComplete(t *testing.T) {
	statuses := &fakeStatuses{
		statuses: map[statusKey]status.Status{
			{code: "P1", vaccine: "Polio"}:   completeStatus(7, 3),
			{code: "P1", vaccine: "Measles"}: {}, // not vaccinated
			{code: "P1", vaccine: "Tetanus"}: {
				Doses:              []chain.DoseRecord{{Date: 1}},
				CertificateTokenID: big.NewInt(0),
			},
		},
	}
	resolver := &fakeResolver{}
	aggregator := aggregate.NewAggregator(aggregate.AggregatorConfig{
		Registry: &fakeRegistry{
			vaccineTypes: []chain.VaccinationType{
				vaccineType("Polio"),
				vaccineType("Measles"),
				vaccineType("Tetanus"),
			},
		},
		Statuses:     statuses,
		Certificates: resolver,
	})
	certificates, err := aggregator.PatientCertificates(
		context.Background(),
		"P1",
	)
	require.NoError(t, err)
	require.Len(t, certificates, 1)
	require.Equal(t, "Polio", certificates[0].VaccineName)
	require.Equal(t, int32(1), resolver.calls.Load())
}

func TestPatientHistoryMergedNewestFirst(t *testing.T) {
	statuses := &fakeStatuses{
		statuses: map[statusKey]status.Status{
			{code: "P1", vaccine: "Polio"}: {
				Doses: []chain.DoseRecord{
					{Date: 100, CenterID: "C1", BatchNumber: "B1"},
					{Date: 300, CenterID: "C1", BatchNumber: "B2"},
				},
			},
			{code: "P1", vaccine: "Measles"}: {
				Doses: []chain.DoseRecord{
					{Date: 200, CenterID: "C2", BatchNumber: "B3"},
				},
			},
		},
	}
	aggregator := aggregate.NewAggregator(aggregate.AggregatorConfig{
		Registry: &fakeRegistry{
			vaccineTypes: []chain.VaccinationType{
				vaccineType("Polio"),
				vaccineType("Measles"),
			},
			mapis: map[string][]chain.MAPIRecord{
				"P1": {
					{
						ID:              big.NewInt(1),
						Description:     "Polio: mild fever",
						DeclarationDate: 250,
					},
				},
			},
		},
		Statuses: statuses,
	})
	history, err := aggregator.PatientHistory(context.Background(), "P1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	require.Equal(t, int64(300), history[0].Date)
	require.Equal(t, aggregate.HistoryDose, history[0].Kind)
	require.Equal(t, int64(250), history[1].Date)
	require.Equal(t, aggregate.HistoryMAPI, history[1].Kind)
	require.Equal(t, "Polio", history[1].VaccineName)
	require.Equal(t, int64(200), history[2].Date)
	require.Equal(t, int64(100), history[3].Date)
	// dose numbers follow on-chain order, not merge order
	require.Equal(t, 2, history[0].DoseNumber)
	require.Equal(t, 1, history[3].DoseNumber)
}

func TestDashboardTotals(t *testing.T) {
	polio := vaccineType("Polio")
	measles := vaccineType("Measles")
	statuses := &fakeStatuses{
		statuses: map[statusKey]status.Status{
			{code: "P1", vaccine: "Polio"}: completeStatus(7, 3),
			{code: "P2", vaccine: "Polio"}: {
				Doses: []chain.DoseRecord{{Date: 1}},
			},
		},
	}
	aggregator := aggregate.NewAggregator(aggregate.AggregatorConfig{
		Registry: &fakeRegistry{
			patients: []chain.Patient{patient("P1"), patient("P2")},
			vaccineTypes: []chain.VaccinationType{
				polio,
				measles,
			},
		},
		Stock: &fakeStock{
			centers: []string{"C1", "C2"},
			levels: map[string]chain.StockLevel{
				"C1/" + polio.ID.String(): {
					CurrentQuantity:   big.NewInt(100),
					CriticalThreshold: big.NewInt(10),
				},
				"C2/" + polio.ID.String(): {
					CurrentQuantity:   big.NewInt(5),
					CriticalThreshold: big.NewInt(10),
				},
				// C1/Measles and C2/Measles left unconfigured
			},
		},
		Statuses: statuses,
	})
	totals, err := aggregator.Dashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, totals.Patients)
	require.Equal(t, 2, totals.VaccineTypes)
	require.Equal(t, 2, totals.Centers)
	require.Equal(t, 4, totals.DosesRecorded)
	require.Equal(t, 1, totals.CompleteCounts["Polio"])
	require.Equal(t, int64(105), totals.TotalStock.Int64())
	require.Len(t, totals.CriticalStocks, 1)
	require.Equal(t, "C2", totals.CriticalStocks[0].CenterID)
}
