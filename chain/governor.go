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

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// proposeGasFallback is used when gas estimation for propose fails.
// Proposal creation cost scales with calldata, so estimation gets a
// 50% margin and this ceiling as a backstop.
const proposeGasFallback = 1_000_000

// VoteSupport is the governor vote support value.
type VoteSupport uint8

const (
	VoteAgainst VoteSupport = 0
	VoteFor     VoteSupport = 1
	VoteAbstain VoteSupport = 2
)

// ProposalRecord is the stored proposal tuple from the governor
// contract. State is read separately via State.
type ProposalRecord struct {
	ID          *big.Int
	Proposer    common.Address
	Description string
	VoteStart   *big.Int
	VoteEnd     *big.Int
	Executed    bool
	Canceled    bool
}

// ProposalVotes is the vote tally for a proposal.
type ProposalVotes struct {
	Against *big.Int
	For     *big.Int
	Abstain *big.Int
}

// ProposalCall describes one action a proposal will execute.
type ProposalCall struct {
	Target   common.Address
	Value    *big.Int
	Calldata []byte
}

// Governor wraps the DAO governor contract.
type Governor struct {
	client *Client
	addr   common.Address
}

func NewGovernor(client *Client, addr common.Address) *Governor {
	return &Governor{
		client: client,
		addr:   addr,
	}
}

// ProposalCount returns the number of proposals ever created.
// Proposal ids are 1-based and contiguous.
func (g *Governor) ProposalCount(ctx context.Context) (*big.Int, error) {
	out, err := g.client.call(
		ctx,
		g.addr,
		governorABI,
		"proposalCount",
	)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Proposal returns the stored proposal record for an id.
func (g *Governor) Proposal(
	ctx context.Context,
	proposalID *big.Int,
) (ProposalRecord, error) {
	out, err := g.client.call(
		ctx,
		g.addr,
		governorABI,
		"proposals",
		proposalID,
	)
	if err != nil {
		return ProposalRecord{}, err
	}
	return ProposalRecord{
		ID:          proposalID,
		Proposer:    *abi.ConvertType(out[0], new(common.Address)).(*common.Address),
		Description: *abi.ConvertType(out[1], new(string)).(*string),
		VoteStart:   *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		VoteEnd:     *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
		Executed:    *abi.ConvertType(out[4], new(bool)).(*bool),
		Canceled:    *abi.ConvertType(out[5], new(bool)).(*bool),
	}, nil
}

// State returns the raw numeric lifecycle state for a proposal. The
// governance package maps it to a named state.
func (g *Governor) State(
	ctx context.Context,
	proposalID *big.Int,
) (uint8, error) {
	out, err := g.client.call(
		ctx,
		g.addr,
		governorABI,
		"state",
		proposalID,
	)
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// Votes returns the vote tally for a proposal.
func (g *Governor) Votes(
	ctx context.Context,
	proposalID *big.Int,
) (ProposalVotes, error) {
	out, err := g.client.call(
		ctx,
		g.addr,
		governorABI,
		"proposalVotes",
		proposalID,
	)
	if err != nil {
		return ProposalVotes{}, err
	}
	return ProposalVotes{
		Against: *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		For:     *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		Abstain: *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
	}, nil
}

// HasVoted reports whether account has already voted on a proposal.
func (g *Governor) HasVoted(
	ctx context.Context,
	proposalID *big.Int,
	account common.Address,
) (bool, error) {
	out, err := g.client.call(
		ctx,
		g.addr,
		governorABI,
		"hasVoted",
		proposalID,
		account,
	)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// VotingPower returns the voting power of account at the given block.
func (g *Governor) VotingPower(
	ctx context.Context,
	account common.Address,
	blockNumber *big.Int,
) (*big.Int, error) {
	out, err := g.client.call(
		ctx,
		g.addr,
		governorABI,
		"getVotes",
		account,
		blockNumber,
	)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Quorum returns the quorum requirement at the given block. Quorum is
// defined against a mined block, so callers pass head-1.
func (g *Governor) Quorum(
	ctx context.Context,
	blockNumber *big.Int,
) (*big.Int, error) {
	out, err := g.client.call(
		ctx,
		g.addr,
		governorABI,
		"quorum",
		blockNumber,
	)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// ProposalThreshold returns the minimum voting power needed to
// create a proposal.
func (g *Governor) ProposalThreshold(
	ctx context.Context,
) (*big.Int, error) {
	out, err := g.client.call(
		ctx,
		g.addr,
		governorABI,
		"proposalThreshold",
	)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// ProposalDeadline returns the block at which voting closes for a
// proposal.
func (g *Governor) ProposalDeadline(
	ctx context.Context,
	proposalID *big.Int,
) (*big.Int, error) {
	out, err := g.client.call(
		ctx,
		g.addr,
		governorABI,
		"proposalDeadline",
		proposalID,
	)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Propose creates a proposal from the given calls and description.
// Gas is estimated with a 50% margin; if estimation fails the
// fallback limit is used so a flaky estimator doesn't block proposal
// creation.
func (g *Governor) Propose(
	ctx context.Context,
	calls []ProposalCall,
	description string,
) (*types.Receipt, error) {
	targets, values, calldatas := splitCalls(calls)
	gasLimit := g.estimateProposeGas(
		ctx,
		targets,
		values,
		calldatas,
		description,
	)
	return g.client.submit(
		ctx,
		g.addr,
		governorABI,
		"propose",
		TxOpts{GasLimit: gasLimit},
		targets,
		values,
		calldatas,
		description,
	)
}

func (g *Governor) estimateProposeGas(
	ctx context.Context,
	targets []common.Address,
	values []*big.Int,
	calldatas [][]byte,
	description string,
) uint64 {
	data, err := governorABI.Pack(
		"propose",
		targets,
		values,
		calldatas,
		description,
	)
	if err != nil {
		return proposeGasFallback
	}
	callCtx, cancel := context.WithTimeout(ctx, g.client.callTimeout)
	defer cancel()
	msg := ethereum.CallMsg{
		To:   &g.addr,
		Data: data,
	}
	if g.client.signer != nil {
		msg.From = g.client.signer.Address()
	}
	estimate, err := g.client.backend.EstimateGas(callCtx, msg)
	if err != nil {
		g.client.logger.Debug(
			"propose gas estimation failed, using fallback",
			"error", err,
		)
		return proposeGasFallback
	}
	return estimate + estimate/2
}

// CastVote votes on a proposal.
func (g *Governor) CastVote(
	ctx context.Context,
	proposalID *big.Int,
	support VoteSupport,
) (*types.Receipt, error) {
	return g.client.submit(
		ctx,
		g.addr,
		governorABI,
		"castVote",
		TxOpts{},
		proposalID,
		uint8(support),
	)
}

// CastVoteWithReason votes on a proposal with an attached reason
// string.
func (g *Governor) CastVoteWithReason(
	ctx context.Context,
	proposalID *big.Int,
	support VoteSupport,
	reason string,
) (*types.Receipt, error) {
	return g.client.submit(
		ctx,
		g.addr,
		governorABI,
		"castVoteWithReason",
		TxOpts{},
		proposalID,
		uint8(support),
		reason,
	)
}

// Execute runs a successful proposal. The description hash is the
// keccak-256 of the original description string, per the governor's
// addressing scheme.
func (g *Governor) Execute(
	ctx context.Context,
	calls []ProposalCall,
	description string,
) (*types.Receipt, error) {
	targets, values, calldatas := splitCalls(calls)
	descriptionHash := crypto.Keccak256Hash([]byte(description))
	return g.client.submit(
		ctx,
		g.addr,
		governorABI,
		"execute",
		TxOpts{},
		targets,
		values,
		calldatas,
		descriptionHash,
	)
}

func splitCalls(
	calls []ProposalCall,
) ([]common.Address, []*big.Int, [][]byte) {
	targets := make([]common.Address, 0, len(calls))
	values := make([]*big.Int, 0, len(calls))
	calldatas := make([][]byte, 0, len(calls))
	for _, call := range calls {
		targets = append(targets, call.Target)
		value := call.Value
		if value == nil {
			value = big.NewInt(0)
		}
		values = append(values, value)
		calldatas = append(calldatas, call.Calldata)
	}
	return targets, values, calldatas
}
