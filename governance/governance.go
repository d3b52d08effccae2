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

// Package governance provides read views over the DAO governor:
// named proposal states, vote gating, and proposal listing.
package governance

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/vaxgate/chain"
)

// ProposalState is the governor proposal lifecycle state. Values
// mirror the contract's enum exactly.
type ProposalState int

const (
	StatePending ProposalState = iota
	StateActive
	StateCanceled
	StateDefeated
	StateSucceeded
	StateQueued
	StateExpired
	StateExecuted
)

var stateNames = [...]string{
	"Pending",
	"Active",
	"Canceled",
	"Defeated",
	"Succeeded",
	"Queued",
	"Expired",
	"Executed",
}

func (s ProposalState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("ProposalState(%d)", int(s))
	}
	return stateNames[s]
}

// StateFromInt maps a raw contract state value to a ProposalState.
// Out-of-range values are an error, never silently coerced.
func StateFromInt(raw uint8) (ProposalState, error) {
	if int(raw) >= len(stateNames) {
		return 0, fmt.Errorf("unknown proposal state value: %d", raw)
	}
	return ProposalState(raw), nil
}

// Terminal reports whether the state is a lifecycle endpoint.
func (s ProposalState) Terminal() bool {
	switch s {
	case StateCanceled, StateDefeated, StateExpired, StateExecuted:
		return true
	default:
		return false
	}
}

// CanVote reports whether a vote can be cast: the proposal must be
// active and the account must not have voted already.
func CanVote(state ProposalState, hasVoted bool) bool {
	return state == StateActive && !hasVoted
}

// Proposal is a listed proposal with its description split into a
// title and body at the first newline.
type Proposal struct {
	ID        *big.Int
	Proposer  common.Address
	Title     string
	Body      string
	State     ProposalState
	Votes     chain.ProposalVotes
	VoteStart *big.Int
	VoteEnd   *big.Int
	Executed  bool
	Canceled  bool
}

// SplitDescription splits a proposal description into title and body
// at the first newline. A description without a newline is all title.
func SplitDescription(description string) (title, body string) {
	title, body, _ = strings.Cut(description, "\n")
	return strings.TrimSpace(title), strings.TrimSpace(body)
}

// GovernorReader is the subset of the governor accessor the listing
// service needs.
type GovernorReader interface {
	ProposalCount(ctx context.Context) (*big.Int, error)
	Proposal(
		ctx context.Context,
		proposalID *big.Int,
	) (chain.ProposalRecord, error)
	State(ctx context.Context, proposalID *big.Int) (uint8, error)
	Votes(
		ctx context.Context,
		proposalID *big.Int,
	) (chain.ProposalVotes, error)
}

type ServiceConfig struct {
	Governor GovernorReader
	Logger   *slog.Logger
}

// Service joins governor reads into proposal views.
type Service struct {
	governor GovernorReader
	logger   *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Service{
		governor: cfg.Governor,
		logger:   logger.With("component", "governance"),
	}
}

// GetProposal returns the full view of one proposal. A state read
// failure here is surfaced, not masked as a lifecycle state.
func (s *Service) GetProposal(
	ctx context.Context,
	proposalID *big.Int,
) (Proposal, error) {
	record, err := s.governor.Proposal(ctx, proposalID)
	if err != nil {
		return Proposal{}, err
	}
	rawState, err := s.governor.State(ctx, proposalID)
	if err != nil {
		return Proposal{}, err
	}
	state, err := StateFromInt(rawState)
	if err != nil {
		return Proposal{}, err
	}
	votes, err := s.governor.Votes(ctx, proposalID)
	if err != nil {
		return Proposal{}, err
	}
	title, body := SplitDescription(record.Description)
	return Proposal{
		ID:        proposalID,
		Proposer:  record.Proposer,
		Title:     title,
		Body:      body,
		State:     state,
		Votes:     votes,
		VoteStart: record.VoteStart,
		VoteEnd:   record.VoteEnd,
		Executed:  record.Executed,
		Canceled:  record.Canceled,
	}, nil
}

// ListProposals returns all proposals, newest first. Ids are 1-based
// and contiguous. Individual proposals that fail to load are skipped
// with a warning so one bad read doesn't empty the whole listing.
func (s *Service) ListProposals(ctx context.Context) ([]Proposal, error) {
	count, err := s.governor.ProposalCount(ctx)
	if err != nil {
		return nil, err
	}
	total := count.Int64()
	proposals := make([]Proposal, 0, total)
	for id := total; id >= 1; id-- {
		proposal, err := s.GetProposal(ctx, big.NewInt(id))
		if err != nil {
			s.logger.Warn(
				"skipping unreadable proposal",
				"proposal", id,
				"error", err,
			)
			continue
		}
		proposals = append(proposals, proposal)
	}
	return proposals, nil
}
