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

// Package aggregate builds the multi-entity read views: the coverage
// matrix, per-patient certificates and history, and dashboard totals.
// Fan-out is bounded and cell failures stay isolated to their cell.
package aggregate

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/blinklabs-io/vaxgate/certificate"
	"github.com/blinklabs-io/vaxgate/chain"
	"github.com/blinklabs-io/vaxgate/mapi"
	"github.com/blinklabs-io/vaxgate/status"
	"github.com/blinklabs-io/vaxgate/vaxid"
)

// DefaultFanoutLimit bounds concurrent per-cell reads against the RPC
// endpoint.
const DefaultFanoutLimit = 8

// RegistryReader is the slice of the registry accessor the aggregator
// needs.
type RegistryReader interface {
	GetAllPatients(ctx context.Context) ([]chain.Patient, error)
	GetAllVaccinationTypes(
		ctx context.Context,
	) ([]chain.VaccinationType, error)
	GetMAPIsByPatient(
		ctx context.Context,
		code string,
	) ([]chain.MAPIRecord, error)
}

// StockReader is the slice of the stock accessor the aggregator needs.
type StockReader interface {
	GetAllCenters(ctx context.Context) ([]string, error)
	GetStock(
		ctx context.Context,
		centerID string,
		typeID vaxid.TypeID,
	) (chain.StockLevel, error)
}

// StatusProvider produces reconciled statuses. *status.Reconciler
// satisfies it.
type StatusProvider interface {
	Status(
		ctx context.Context,
		code string,
		vaccineName string,
	) (status.Status, error)
}

// CertificateResolver resolves certificates for complete statuses.
// *certificate.Resolver satisfies it.
type CertificateResolver interface {
	Resolve(
		ctx context.Context,
		vaccineName string,
		st status.Status,
	) certificate.Certificate
}

// MatrixCell is one (patient, vaccine type) intersection. Failed marks
// cells whose status read errored out; their Status is the zero value.
type MatrixCell struct {
	PatientCode string
	VaccineName string
	Status      status.Status
	Failed      bool
}

// Matrix is the full coverage view: one row per patient, one column
// per vaccine type. Cells[i][j] belongs to Patients[i] and
// VaccineTypes[j].
type Matrix struct {
	Patients     []chain.Patient
	VaccineTypes []chain.VaccinationType
	Cells        [][]MatrixCell
}

// HistoryEntryKind discriminates dose records from adverse event
// declarations in a merged history.
type HistoryEntryKind string

const (
	HistoryDose HistoryEntryKind = "dose"
	HistoryMAPI HistoryEntryKind = "mapi"
)

// HistoryEntry is one event in a patient's merged timeline. Date is
// epoch seconds.
type HistoryEntry struct {
	Kind        HistoryEntryKind
	Date        int64
	VaccineName string
	DoseNumber  int
	CenterID    string
	BatchNumber string
	Description string
}

// StockEntry is the stock level for one (center, vaccine type) pair in
// the dashboard view.
type StockEntry struct {
	CenterID    string
	VaccineName string
	Level       chain.StockLevel
	Configured  bool
}

// DashboardTotals is the operational overview.
type DashboardTotals struct {
	Patients       int
	VaccineTypes   int
	Centers        int
	DosesRecorded  int
	CompleteCounts map[string]int
	TotalStock     *big.Int
	CriticalStocks []StockEntry
}

type AggregatorConfig struct {
	Registry     RegistryReader
	Stock        StockReader
	Statuses     StatusProvider
	Certificates CertificateResolver
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	FanoutLimit  int
}

type Aggregator struct {
	registry     RegistryReader
	stock        StockReader
	statuses     StatusProvider
	certificates CertificateResolver
	logger       *slog.Logger
	metrics      *aggregatorMetrics
	fanoutLimit  int
}

type aggregatorMetrics struct {
	cellsTotal  prometheus.Counter
	cellsFailed prometheus.Counter
	duration    *prometheus.HistogramVec
}

func NewAggregator(cfg AggregatorConfig) *Aggregator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	fanoutLimit := cfg.FanoutLimit
	if fanoutLimit <= 0 {
		fanoutLimit = DefaultFanoutLimit
	}
	a := &Aggregator{
		registry:     cfg.Registry,
		stock:        cfg.Stock,
		statuses:     cfg.Statuses,
		certificates: cfg.Certificates,
		logger:       logger.With("component", "aggregate"),
		fanoutLimit:  fanoutLimit,
	}
	if cfg.PromRegistry != nil {
		a.metrics = &aggregatorMetrics{
			cellsTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "vaxgate_aggregate_cells_total",
					Help: "matrix cells computed",
				},
			),
			cellsFailed: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "vaxgate_aggregate_cells_failed_total",
					Help: "matrix cells that failed to resolve",
				},
			),
			duration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "vaxgate_aggregate_duration_seconds",
					Help:    "aggregate view build duration",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"view"},
			),
		}
		cfg.PromRegistry.MustRegister(
			a.metrics.cellsTotal,
			a.metrics.cellsFailed,
			a.metrics.duration,
		)
	}
	return a
}

// Matrix builds the patient/vaccine coverage matrix. The roster and
// type list must be readable; individual cell failures degrade to a
// zero status with the Failed flag set so a single bad read cannot
// blank the whole view.
func (a *Aggregator) Matrix(ctx context.Context) (Matrix, error) {
	defer a.observe("matrix", time.Now())
	patients, err := a.registry.GetAllPatients(ctx)
	if err != nil {
		return Matrix{}, err
	}
	vaccineTypes, err := a.registry.GetAllVaccinationTypes(ctx)
	if err != nil {
		return Matrix{}, err
	}
	cells := make([][]MatrixCell, len(patients))
	for i := range cells {
		cells[i] = make([]MatrixCell, len(vaccineTypes))
	}
	group := new(errgroup.Group)
	group.SetLimit(a.fanoutLimit)
	for i, patient := range patients {
		for j, vaccineType := range vaccineTypes {
			group.Go(func() error {
				cells[i][j] = a.cell(
					ctx,
					patient.Code,
					vaccineType.Name,
				)
				return nil
			})
		}
	}
	// Workers never return errors; Wait is only a barrier here
	_ = group.Wait()
	return Matrix{
		Patients:     patients,
		VaccineTypes: vaccineTypes,
		Cells:        cells,
	}, nil
}

func (a *Aggregator) cell(
	ctx context.Context,
	code string,
	vaccineName string,
) MatrixCell {
	cell := MatrixCell{
		PatientCode: code,
		VaccineName: vaccineName,
	}
	if a.metrics != nil {
		a.metrics.cellsTotal.Inc()
	}
	st, err := a.statuses.Status(ctx, code, vaccineName)
	if err != nil {
		a.logger.Warn(
			"matrix cell failed",
			"patient", code,
			"vaccine", vaccineName,
			"error", err,
		)
		if a.metrics != nil {
			a.metrics.cellsFailed.Inc()
		}
		cell.Failed = true
		return cell
	}
	cell.Status = st
	return cell
}

// PatientCertificates resolves the certificates a patient has earned,
// one per complete vaccination status.
func (a *Aggregator) PatientCertificates(
	ctx context.Context,
	code string,
) ([]certificate.Certificate, error) {
	defer a.observe("certificates", time.Now())
	vaccineTypes, err := a.registry.GetAllVaccinationTypes(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]*certificate.Certificate, len(vaccineTypes))
	group := new(errgroup.Group)
	group.SetLimit(a.fanoutLimit)
	for i, vaccineType := range vaccineTypes {
		group.Go(func() error {
			st, err := a.statuses.Status(ctx, code, vaccineType.Name)
			if err != nil {
				a.logger.Warn(
					"certificate status read failed",
					"patient", code,
					"vaccine", vaccineType.Name,
					"error", err,
				)
				return nil
			}
			if !st.Complete {
				return nil
			}
			cert := a.certificates.Resolve(ctx, vaccineType.Name, st)
			results[i] = &cert
			return nil
		})
	}
	_ = group.Wait()
	certificates := make([]certificate.Certificate, 0, len(results))
	for _, cert := range results {
		if cert != nil {
			certificates = append(certificates, *cert)
		}
	}
	return certificates, nil
}

// PatientHistory merges a patient's dose records across all vaccine
// types with their adverse event declarations, newest first. Ties
// sort doses before declarations.
func (a *Aggregator) PatientHistory(
	ctx context.Context,
	code string,
) ([]HistoryEntry, error) {
	defer a.observe("history", time.Now())
	vaccineTypes, err := a.registry.GetAllVaccinationTypes(ctx)
	if err != nil {
		return nil, err
	}
	knownNames := make([]string, 0, len(vaccineTypes))
	for _, vaccineType := range vaccineTypes {
		knownNames = append(knownNames, vaccineType.Name)
	}
	perType := make([][]HistoryEntry, len(vaccineTypes))
	group := new(errgroup.Group)
	group.SetLimit(a.fanoutLimit)
	for i, vaccineType := range vaccineTypes {
		group.Go(func() error {
			st, err := a.statuses.Status(ctx, code, vaccineType.Name)
			if err != nil {
				a.logger.Warn(
					"history status read failed",
					"patient", code,
					"vaccine", vaccineType.Name,
					"error", err,
				)
				return nil
			}
			entries := make([]HistoryEntry, 0, len(st.Doses))
			for doseIdx, dose := range st.Doses {
				entries = append(entries, HistoryEntry{
					Kind:        HistoryDose,
					Date:        dose.Date,
					VaccineName: vaccineType.Name,
					DoseNumber:  doseIdx + 1,
					CenterID:    dose.CenterID,
					BatchNumber: dose.BatchNumber,
				})
			}
			perType[i] = entries
			return nil
		})
	}
	var declarations []chain.MAPIRecord
	group.Go(func() error {
		records, err := a.registry.GetMAPIsByPatient(ctx, code)
		if err != nil {
			a.logger.Warn(
				"adverse event read failed",
				"patient", code,
				"error", err,
			)
			return nil
		}
		declarations = records
		return nil
	})
	_ = group.Wait()
	var history []HistoryEntry
	for _, entries := range perType {
		history = append(history, entries...)
	}
	for _, record := range declarations {
		history = append(history, HistoryEntry{
			Kind:        HistoryMAPI,
			Date:        record.DeclarationDate,
			VaccineName: mapi.ExtractVaccineType(record.Description, knownNames),
			Description: record.Description,
		})
	}
	sort.SliceStable(history, func(i, j int) bool {
		if history[i].Date != history[j].Date {
			return history[i].Date > history[j].Date
		}
		return history[i].Kind == HistoryDose &&
			history[j].Kind == HistoryMAPI
	})
	return history, nil
}

// Dashboard builds the operational totals view. Unconfigured stock
// pairs are skipped; other stock read failures are logged and skipped
// the same way so the dashboard never fails wholesale over one center.
func (a *Aggregator) Dashboard(
	ctx context.Context,
) (DashboardTotals, error) {
	defer a.observe("dashboard", time.Now())
	matrix, err := a.Matrix(ctx)
	if err != nil {
		return DashboardTotals{}, err
	}
	centers, err := a.stock.GetAllCenters(ctx)
	if err != nil {
		return DashboardTotals{}, err
	}
	totals := DashboardTotals{
		Patients:       len(matrix.Patients),
		VaccineTypes:   len(matrix.VaccineTypes),
		Centers:        len(centers),
		CompleteCounts: make(map[string]int),
		TotalStock:     big.NewInt(0),
	}
	for _, row := range matrix.Cells {
		for _, cell := range row {
			totals.DosesRecorded += cell.Status.DoseCount()
			if cell.Status.Complete {
				totals.CompleteCounts[cell.VaccineName]++
			}
		}
	}
	entries := make(
		[]StockEntry,
		len(centers)*len(matrix.VaccineTypes),
	)
	group := new(errgroup.Group)
	group.SetLimit(a.fanoutLimit)
	for i, centerID := range centers {
		for j, vaccineType := range matrix.VaccineTypes {
			group.Go(func() error {
				level, err := a.stock.GetStock(ctx, centerID, vaccineType.ID)
				if err != nil {
					if !chain.IsNotFound(err) {
						a.logger.Warn(
							"stock read failed",
							"center", centerID,
							"vaccine", vaccineType.Name,
							"error", err,
						)
					}
					entries[i*len(matrix.VaccineTypes)+j] = StockEntry{
						CenterID:    centerID,
						VaccineName: vaccineType.Name,
					}
					return nil
				}
				entries[i*len(matrix.VaccineTypes)+j] = StockEntry{
					CenterID:    centerID,
					VaccineName: vaccineType.Name,
					Level:       level,
					Configured:  true,
				}
				return nil
			})
		}
	}
	_ = group.Wait()
	for _, entry := range entries {
		if !entry.Configured {
			continue
		}
		totals.TotalStock.Add(
			totals.TotalStock,
			entry.Level.CurrentQuantity,
		)
		if entry.Level.Critical() {
			totals.CriticalStocks = append(totals.CriticalStocks, entry)
		}
	}
	return totals, nil
}

func (a *Aggregator) observe(view string, start time.Time) {
	if a.metrics != nil {
		a.metrics.duration.WithLabelValues(view).
			Observe(time.Since(start).Seconds())
	}
}
