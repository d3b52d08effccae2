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

package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/blinklabs-io/vaxgate/vaxid"
)

// registerDose touches patient, type, stock, and certificate state in
// one transaction, which gas estimation tends to undershoot on some
// dev chains. Use a fixed limit instead.
const GasLimitRegisterDose = 500_000

// Patient is a registered patient record.
type Patient struct {
	ID                   *big.Int
	Address              common.Address
	Code                 string
	ProfessionalCategory string
	RegistrationDate     int64
	Exists               bool
}

// VaccinationType is a registered vaccine type.
type VaccinationType struct {
	ID            vaxid.TypeID
	Name          string
	RequiredDoses uint8
	Exists        bool
}

// DoseRecord is a single administered dose. Date is epoch seconds as
// stored on-chain; formatting happens at the presentation boundary.
type DoseRecord struct {
	Date        int64
	CenterID    string
	BatchNumber string
}

// RawStatus is the vaccination status tuple exactly as the contract
// returns it. The status package reconciles it into a display value.
type RawStatus struct {
	Doses              []DoseRecord
	CertificateTokenID *big.Int
	Complete           bool
}

// MAPIRecord is an adverse event (MAPI) declaration.
type MAPIRecord struct {
	ID              *big.Int
	PatientID       *big.Int
	Description     string
	DeclarationDate int64
	ReportingAgent  common.Address
}

// Registry wraps the vaccination registry contract.
type Registry struct {
	client *Client
	addr   common.Address
}

func NewRegistry(client *Client, addr common.Address) *Registry {
	return &Registry{
		client: client,
		addr:   addr,
	}
}

// raw tuple shapes for ABI unpacking; field names must match the
// capitalized ABI component names

type rawPatient struct {
	PatientId            *big.Int
	PatientAddress       common.Address
	UniquePatientCode    string
	ProfessionalCategory string
	RegistrationDate     *big.Int
	Exists               bool
}

type rawVaccinationType struct {
	TypeId        [32]byte
	Name          string
	RequiredDoses uint8
	Exists        bool
}

type rawDose struct {
	Date        uint64
	CenterId    string
	BatchNumber string
}

type rawMAPI struct {
	MapiId          *big.Int
	PatientId       *big.Int
	Description     string
	DeclarationDate *big.Int
	ReportingAgent  common.Address
}

func (p rawPatient) toPatient() Patient {
	return Patient{
		ID:                   p.PatientId,
		Address:              p.PatientAddress,
		Code:                 p.UniquePatientCode,
		ProfessionalCategory: p.ProfessionalCategory,
		RegistrationDate:     p.RegistrationDate.Int64(),
		Exists:               p.Exists,
	}
}

func (v rawVaccinationType) toVaccinationType() VaccinationType {
	return VaccinationType{
		ID:            vaxid.TypeID(v.TypeId),
		Name:          v.Name,
		RequiredDoses: v.RequiredDoses,
		Exists:        v.Exists,
	}
}

// AddVaccinationType registers a new vaccine type with its required
// dose count. The contract derives the type id from the name the same
// way vaxid.DeriveTypeID does.
func (r *Registry) AddVaccinationType(
	ctx context.Context,
	name string,
	requiredDoses uint8,
) (*types.Receipt, error) {
	return r.client.submit(
		ctx,
		r.addr,
		registryABI,
		"addVaccinationType",
		TxOpts{},
		name,
		requiredDoses,
	)
}

// RegisterPatient registers a new patient under a unique code.
func (r *Registry) RegisterPatient(
	ctx context.Context,
	patientAddress common.Address,
	code string,
	professionalCategory string,
) (*types.Receipt, error) {
	return r.client.submit(
		ctx,
		r.addr,
		registryABI,
		"registerPatient",
		TxOpts{},
		patientAddress,
		code,
		professionalCategory,
	)
}

// RegisterDose records an administered dose for a patient and vaccine
// type. The stock contract is debited by the registry in the same
// transaction.
func (r *Registry) RegisterDose(
	ctx context.Context,
	code string,
	typeID vaxid.TypeID,
	centerID string,
	batchNumber string,
	metadataURI string,
) (*types.Receipt, error) {
	return r.client.submit(
		ctx,
		r.addr,
		registryABI,
		"registerDose",
		TxOpts{GasLimit: GasLimitRegisterDose},
		code,
		typeID.Hash(),
		centerID,
		batchNumber,
		metadataURI,
	)
}

// DeclareMAPI records an adverse event declaration for a patient.
func (r *Registry) DeclareMAPI(
	ctx context.Context,
	code string,
	description string,
) (*types.Receipt, error) {
	return r.client.submit(
		ctx,
		r.addr,
		registryABI,
		"declareMAPI",
		TxOpts{},
		code,
		description,
	)
}

// GetPatientInfo returns the patient record for a patient code.
// A missing patient is reported as a not-found error whether the
// contract reverts or returns a record with the exists flag unset.
func (r *Registry) GetPatientInfo(
	ctx context.Context,
	code string,
) (Patient, error) {
	out, err := r.client.call(
		ctx,
		r.addr,
		registryABI,
		"getPatientInfo",
		code,
	)
	if err != nil {
		return Patient{}, err
	}
	raw := *abi.ConvertType(out[0], new(rawPatient)).(*rawPatient)
	if !raw.Exists {
		return Patient{}, &Error{
			Kind:   KindNotFound,
			Op:     "getPatientInfo",
			Reason: "patient " + code + " not registered",
		}
	}
	return raw.toPatient(), nil
}

// GetAllPatients returns every registered patient.
func (r *Registry) GetAllPatients(
	ctx context.Context,
) ([]Patient, error) {
	out, err := r.client.call(
		ctx,
		r.addr,
		registryABI,
		"getAllPatients",
	)
	if err != nil {
		return nil, err
	}
	raws := *abi.ConvertType(out[0], new([]rawPatient)).(*[]rawPatient)
	patients := make([]Patient, 0, len(raws))
	for _, raw := range raws {
		patients = append(patients, raw.toPatient())
	}
	return patients, nil
}

// GetVaccinationTypeInfo returns the vaccine type record for a
// derived type id.
func (r *Registry) GetVaccinationTypeInfo(
	ctx context.Context,
	typeID vaxid.TypeID,
) (VaccinationType, error) {
	out, err := r.client.call(
		ctx,
		r.addr,
		registryABI,
		"getVaccinationTypeInfo",
		typeID.Hash(),
	)
	if err != nil {
		return VaccinationType{}, err
	}
	raw := *abi.ConvertType(out[0], new(rawVaccinationType)).(*rawVaccinationType)
	if !raw.Exists {
		return VaccinationType{}, &Error{
			Kind:   KindNotFound,
			Op:     "getVaccinationTypeInfo",
			Reason: "vaccination type " + typeID.String() + " not registered",
		}
	}
	return raw.toVaccinationType(), nil
}

// GetAllVaccinationTypes returns every registered vaccine type.
func (r *Registry) GetAllVaccinationTypes(
	ctx context.Context,
) ([]VaccinationType, error) {
	out, err := r.client.call(
		ctx,
		r.addr,
		registryABI,
		"getAllVaccinationTypes",
	)
	if err != nil {
		return nil, err
	}
	raws := *abi.ConvertType(out[0], new([]rawVaccinationType)).(*[]rawVaccinationType)
	vaccinationTypes := make([]VaccinationType, 0, len(raws))
	for _, raw := range raws {
		vaccinationTypes = append(vaccinationTypes, raw.toVaccinationType())
	}
	return vaccinationTypes, nil
}

// GetPatientVaccinationStatus returns the raw status tuple for a
// patient and vaccine type.
func (r *Registry) GetPatientVaccinationStatus(
	ctx context.Context,
	code string,
	typeID vaxid.TypeID,
) (RawStatus, error) {
	out, err := r.client.call(
		ctx,
		r.addr,
		registryABI,
		"getPatientVaccinationStatus",
		code,
		typeID.Hash(),
	)
	if err != nil {
		return RawStatus{}, err
	}
	rawDoses := *abi.ConvertType(out[0], new([]rawDose)).(*[]rawDose)
	doses := make([]DoseRecord, 0, len(rawDoses))
	for _, d := range rawDoses {
		doses = append(doses, DoseRecord{
			Date:        int64(d.Date), // #nosec G115
			CenterID:    d.CenterId,
			BatchNumber: d.BatchNumber,
		})
	}
	return RawStatus{
		Doses:              doses,
		CertificateTokenID: *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		Complete:           *abi.ConvertType(out[2], new(bool)).(*bool),
	}, nil
}

// GetMAPIsByPatient returns adverse event declarations for a patient.
func (r *Registry) GetMAPIsByPatient(
	ctx context.Context,
	code string,
) ([]MAPIRecord, error) {
	out, err := r.client.call(
		ctx,
		r.addr,
		registryABI,
		"getMAPIsByPatient",
		code,
	)
	if err != nil {
		return nil, err
	}
	raws := *abi.ConvertType(out[0], new([]rawMAPI)).(*[]rawMAPI)
	records := make([]MAPIRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, MAPIRecord{
			ID:              raw.MapiId,
			PatientID:       raw.PatientId,
			Description:     raw.Description,
			DeclarationDate: raw.DeclarationDate.Int64(),
			ReportingAgent:  raw.ReportingAgent,
		})
	}
	return records, nil
}

// GetPatientCodeById resolves a patient id back to its unique code.
func (r *Registry) GetPatientCodeById(
	ctx context.Context,
	patientID *big.Int,
) (string, error) {
	out, err := r.client.call(
		ctx,
		r.addr,
		registryABI,
		"getPatientCodeById",
		patientID,
	)
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// TokenURI returns the metadata URI for a certificate token.
func (r *Registry) TokenURI(
	ctx context.Context,
	tokenID *big.Int,
) (string, error) {
	out, err := r.client.call(
		ctx,
		r.addr,
		registryABI,
		"tokenURI",
		tokenID,
	)
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// HasRole reports whether account holds the given role on the
// registry contract.
func (r *Registry) HasRole(
	ctx context.Context,
	role vaxid.TypeID,
	account common.Address,
) (bool, error) {
	out, err := r.client.call(
		ctx,
		r.addr,
		registryABI,
		"hasRole",
		role.Hash(),
		account,
	)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// GrantRole grants a role to an account.
func (r *Registry) GrantRole(
	ctx context.Context,
	role vaxid.TypeID,
	account common.Address,
) (*types.Receipt, error) {
	return r.client.submit(
		ctx,
		r.addr,
		registryABI,
		"grantRole",
		TxOpts{},
		role.Hash(),
		account,
	)
}

// RevokeRole revokes a role from an account.
func (r *Registry) RevokeRole(
	ctx context.Context,
	role vaxid.TypeID,
	account common.Address,
) (*types.Receipt, error) {
	return r.client.submit(
		ctx,
		r.addr,
		registryABI,
		"revokeRole",
		TxOpts{},
		role.Hash(),
		account,
	)
}

// RenounceRole removes a role from the signing account itself.
func (r *Registry) RenounceRole(
	ctx context.Context,
	role vaxid.TypeID,
) (*types.Receipt, error) {
	if r.client.signer == nil {
		return nil, &Error{
			Kind: KindPermissionDenied,
			Op:   "renounceRole",
			Reason: "client is read-only: no signer configured",
		}
	}
	return r.client.submit(
		ctx,
		r.addr,
		registryABI,
		"renounceRole",
		TxOpts{},
		role.Hash(),
		r.client.signer.Address(),
	)
}

// GetRoleAdmin returns the admin role for a role.
func (r *Registry) GetRoleAdmin(
	ctx context.Context,
	role vaxid.TypeID,
) (vaxid.TypeID, error) {
	out, err := r.client.call(
		ctx,
		r.addr,
		registryABI,
		"getRoleAdmin",
		role.Hash(),
	)
	if err != nil {
		return vaxid.TypeID{}, err
	}
	return vaxid.TypeID(*abi.ConvertType(out[0], new([32]byte)).(*[32]byte)), nil
}

// SetStockContract points the registry at the stock contract used to
// debit doses.
func (r *Registry) SetStockContract(
	ctx context.Context,
	stockContract common.Address,
) (*types.Receipt, error) {
	return r.client.submit(
		ctx,
		r.addr,
		registryABI,
		"setStockContract",
		TxOpts{},
		stockContract,
	)
}
