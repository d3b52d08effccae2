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
	"errors"
	"fmt"
	"strings"
)

// ErrorKind partitions contract and transport failures into the
// handful of classes the rest of the gateway dispatches on.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindNotFound: the referenced entity does not exist on-chain
	KindNotFound
	// KindTransport: the RPC endpoint could not be reached or timed out
	KindTransport
	// KindPermissionDenied: the signing account lacks the required role
	KindPermissionDenied
	// KindInsufficientResource: stock or token balance too low
	KindInsufficientResource
	// KindAlreadyInTerminalState: the operation cannot apply to the
	// entity's current lifecycle state
	KindAlreadyInTerminalState
	// KindMetadataResolution: off-chain metadata could not be resolved
	KindMetadataResolution
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindTransport:
		return "transport_failure"
	case KindPermissionDenied:
		return "permission_denied"
	case KindInsufficientResource:
		return "insufficient_resource"
	case KindAlreadyInTerminalState:
		return "already_in_terminal_state"
	case KindMetadataResolution:
		return "metadata_resolution_failure"
	default:
		return "unknown"
	}
}

// Error is a classified contract or transport failure. Op names the
// contract operation that failed.
type Error struct {
	Err    error
	Op     string
	Reason string
	Kind   ErrorKind
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or KindUnknown when err
// is not a chain error.
func KindOf(err error) ErrorKind {
	var chainErr *Error
	if errors.As(err, &chainErr) {
		return chainErr.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err means the referenced entity does not
// exist on-chain.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsTransport reports whether err is an RPC transport failure rather
// than a contract-level outcome.
func IsTransport(err error) bool {
	return KindOf(err) == KindTransport
}

func IsPermissionDenied(err error) bool {
	return KindOf(err) == KindPermissionDenied
}

func IsInsufficientResource(err error) bool {
	return KindOf(err) == KindInsufficientResource
}

func IsTerminalState(err error) bool {
	return KindOf(err) == KindAlreadyInTerminalState
}

// revertClassifiers maps revert reason fragments (custom error names
// and require strings emitted by the registry contracts) to error
// kinds.
var revertClassifiers = []struct {
	fragment string
	kind     ErrorKind
}{
	{"PatientNotFound", KindNotFound},
	{"VaccinationTypeNotFound", KindNotFound},
	{"Patient not found", KindNotFound},
	{"Vaccination type not found", KindNotFound},
	{"Stock not configured", KindNotFound},
	{"InsufficientStock", KindInsufficientResource},
	{"ERC20InsufficientBalance", KindInsufficientResource},
	{"insufficient balance", KindInsufficientResource},
	{"below proposal threshold", KindInsufficientResource},
	{"GovernorInsufficientProposerVotes", KindInsufficientResource},
	{"AccessControlUnauthorizedAccount", KindPermissionDenied},
	{"AccessControl:", KindPermissionDenied},
	{"MEDICAL_AGENT_ROLE", KindPermissionDenied},
	{"OwnableUnauthorizedAccount", KindPermissionDenied},
	{"VaccinationAlreadyComplete", KindAlreadyInTerminalState},
	{"DoseNumberExceedsRequirement", KindAlreadyInTerminalState},
	{"GovernorAlreadyCastVote", KindAlreadyInTerminalState},
	{"already voted", KindAlreadyInTerminalState},
	{"GovernorUnexpectedProposalState", KindAlreadyInTerminalState},
	{"proposal not successful", KindAlreadyInTerminalState},
}

// classifyRevert maps a revert reason string to an ErrorKind.
func classifyRevert(reason string) ErrorKind {
	for _, c := range revertClassifiers {
		if strings.Contains(reason, c.fragment) {
			return c.kind
		}
	}
	return KindUnknown
}

// isRevert reports whether err looks like a contract revert rather
// than a transport failure. EVM endpoints differ in how they phrase
// this, so we match the common forms.
func isRevert(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "execution reverted") ||
		strings.Contains(msg, "revert")
}

// classifyError wraps err as a chain Error for the named operation.
// Reverts are classified by reason; everything else is a transport
// failure.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isRevert(err) {
		reason := err.Error()
		kind := classifyRevert(reason)
		if kind == KindUnknown {
			// A revert we can't name is still a contract outcome,
			// not a transport problem. The contracts signal missing
			// state by reverting, so unknown reverts map there.
			kind = KindNotFound
		}
		return &Error{
			Kind:   kind,
			Op:     op,
			Reason: reason,
			Err:    err,
		}
	}
	return &Error{
		Kind: KindTransport,
		Op:   op,
		Err:  err,
	}
}
