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

// Package status reconciles on-chain vaccination records into display
// values. A patient with no on-chain record and a patient whose
// record could not be fetched both present as "not vaccinated"; only
// the logs and metrics distinguish the two.
package status

import (
	"context"
	"io"
	"log/slog"
	"math/big"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/vaxgate/chain"
	"github.com/blinklabs-io/vaxgate/vaxid"
)

// StatusReader abstracts the registry accessor for tests.
type StatusReader interface {
	GetPatientVaccinationStatus(
		ctx context.Context,
		code string,
		typeID vaxid.TypeID,
	) (chain.RawStatus, error)
	GetVaccinationTypeInfo(
		ctx context.Context,
		typeID vaxid.TypeID,
	) (chain.VaccinationType, error)
}

// Status is the reconciled vaccination status for one patient and
// vaccine type. The zero value means "not vaccinated".
type Status struct {
	Doses              []chain.DoseRecord
	CertificateTokenID *big.Int
	Complete           bool
}

// DoseCount returns the number of administered doses.
func (s Status) DoseCount() int {
	return len(s.Doses)
}

// HasCertificateToken reports whether a certificate token has been
// minted. Token id zero is the contract's "no certificate" sentinel.
func (s Status) HasCertificateToken() bool {
	return s.CertificateTokenID != nil &&
		s.CertificateTokenID.Sign() > 0
}

type ReconcilerConfig struct {
	Reader       StatusReader
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
}

// Reconciler turns raw status tuples into Status values, absorbing
// not-found and transport failures into the zero status.
type Reconciler struct {
	reader  StatusReader
	logger  *slog.Logger
	metrics *reconcilerMetrics
}

type reconcilerMetrics struct {
	zeroStatus *prometheus.CounterVec
	mismatches prometheus.Counter
}

func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	r := &Reconciler{
		reader: cfg.Reader,
		logger: logger.With("component", "status"),
	}
	if cfg.PromRegistry != nil {
		r.metrics = &reconcilerMetrics{
			zeroStatus: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "vaxgate_status_zero_total",
					Help: "statuses resolved to zero value by cause",
				},
				[]string{"cause"},
			),
			mismatches: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "vaxgate_status_completion_mismatch_total",
					Help: "statuses where the completion flag disagrees with the dose count",
				},
			),
		}
		cfg.PromRegistry.MustRegister(
			r.metrics.zeroStatus,
			r.metrics.mismatches,
		)
	}
	return r
}

// Status returns the reconciled vaccination status for a patient and
// vaccine name. Missing records yield the zero status; so do
// transport failures, which are logged at warn level and counted
// separately so an outage doesn't read as a healthy "not vaccinated"
// population. Repeated calls with unchanged chain state return equal
// results.
func (r *Reconciler) Status(
	ctx context.Context,
	code string,
	vaccineName string,
) (Status, error) {
	typeID := vaxid.DeriveTypeID(vaccineName)
	raw, err := r.reader.GetPatientVaccinationStatus(ctx, code, typeID)
	if err != nil {
		if chain.IsNotFound(err) {
			r.logger.Debug(
				"no vaccination record",
				"patient", code,
				"vaccine", vaccineName,
			)
			r.countZero("not_found")
			return Status{}, nil
		}
		if chain.IsTransport(err) {
			r.logger.Warn(
				"vaccination status unavailable, reporting zero status",
				"patient", code,
				"vaccine", vaccineName,
				"error", err,
			)
			r.countZero("transport")
			return Status{}, nil
		}
		return Status{}, err
	}
	status := Status{
		Doses:              raw.Doses,
		CertificateTokenID: raw.CertificateTokenID,
		Complete:           raw.Complete,
	}
	r.checkCompletion(ctx, code, vaccineName, typeID, status)
	return status, nil
}

// checkCompletion cross-checks the contract's completion flag against
// the dose count when the type's requirement is known. The flag stays
// authoritative; disagreement is only logged and counted.
func (r *Reconciler) checkCompletion(
	ctx context.Context,
	code string,
	vaccineName string,
	typeID vaxid.TypeID,
	status Status,
) {
	info, err := r.reader.GetVaccinationTypeInfo(ctx, typeID)
	if err != nil {
		// Requirement unknown, nothing to check
		return
	}
	byCount := status.DoseCount() >= int(info.RequiredDoses)
	if byCount != status.Complete {
		r.logger.Warn(
			"completion flag disagrees with dose count",
			"patient", code,
			"vaccine", vaccineName,
			"doses", status.DoseCount(),
			"required", info.RequiredDoses,
			"complete", status.Complete,
		)
		if r.metrics != nil {
			r.metrics.mismatches.Inc()
		}
	}
}

func (r *Reconciler) countZero(cause string) {
	if r.metrics != nil {
		r.metrics.zeroStatus.WithLabelValues(cause).Inc()
	}
}
