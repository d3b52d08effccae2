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
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract ABIs, trimmed to the methods the gateway uses.

var (
	registryABI = mustParseABI(registryABIJSON)
	stockABI    = mustParseABI(stockABIJSON)
	governorABI = mustParseABI(governorABIJSON)
	tokenABI    = mustParseABI(tokenABIJSON)
)

func mustParseABI(abiJSON string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic("invalid embedded ABI: " + err.Error())
	}
	return &parsed
}

const registryABIJSON = `[
  {"type":"function","name":"addVaccinationType","stateMutability":"nonpayable",
   "inputs":[{"name":"name","type":"string"},{"name":"requiredDoses","type":"uint8"}],
   "outputs":[]},
  {"type":"function","name":"registerPatient","stateMutability":"nonpayable",
   "inputs":[{"name":"patientAddress","type":"address"},{"name":"uniquePatientCode","type":"string"},{"name":"professionalCategory","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"registerDose","stateMutability":"nonpayable",
   "inputs":[{"name":"uniquePatientCode","type":"string"},{"name":"vaccinationTypeId","type":"bytes32"},{"name":"centerId","type":"string"},{"name":"batchNumber","type":"string"},{"name":"metadataURI","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"declareMAPI","stateMutability":"nonpayable",
   "inputs":[{"name":"uniquePatientCode","type":"string"},{"name":"description","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"getPatientInfo","stateMutability":"view",
   "inputs":[{"name":"uniquePatientCode","type":"string"}],
   "outputs":[{"name":"patient","type":"tuple","components":[
     {"name":"patientId","type":"uint256"},
     {"name":"patientAddress","type":"address"},
     {"name":"uniquePatientCode","type":"string"},
     {"name":"professionalCategory","type":"string"},
     {"name":"registrationDate","type":"uint256"},
     {"name":"exists","type":"bool"}]}]},
  {"type":"function","name":"getAllPatients","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"patients","type":"tuple[]","components":[
     {"name":"patientId","type":"uint256"},
     {"name":"patientAddress","type":"address"},
     {"name":"uniquePatientCode","type":"string"},
     {"name":"professionalCategory","type":"string"},
     {"name":"registrationDate","type":"uint256"},
     {"name":"exists","type":"bool"}]}]},
  {"type":"function","name":"getVaccinationTypeInfo","stateMutability":"view",
   "inputs":[{"name":"vaccinationTypeId","type":"bytes32"}],
   "outputs":[{"name":"info","type":"tuple","components":[
     {"name":"typeId","type":"bytes32"},
     {"name":"name","type":"string"},
     {"name":"requiredDoses","type":"uint8"},
     {"name":"exists","type":"bool"}]}]},
  {"type":"function","name":"getAllVaccinationTypes","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"types","type":"tuple[]","components":[
     {"name":"typeId","type":"bytes32"},
     {"name":"name","type":"string"},
     {"name":"requiredDoses","type":"uint8"},
     {"name":"exists","type":"bool"}]}]},
  {"type":"function","name":"getPatientVaccinationStatus","stateMutability":"view",
   "inputs":[{"name":"uniquePatientCode","type":"string"},{"name":"vaccinationTypeId","type":"bytes32"}],
   "outputs":[
     {"name":"administeredDoses","type":"tuple[]","components":[
       {"name":"date","type":"uint64"},
       {"name":"centerId","type":"string"},
       {"name":"batchNumber","type":"string"}]},
     {"name":"certificateTokenId","type":"uint256"},
     {"name":"isComplete","type":"bool"}]},
  {"type":"function","name":"getMAPIsByPatient","stateMutability":"view",
   "inputs":[{"name":"uniquePatientCode","type":"string"}],
   "outputs":[{"name":"mapis","type":"tuple[]","components":[
     {"name":"mapiId","type":"uint256"},
     {"name":"patientId","type":"uint256"},
     {"name":"description","type":"string"},
     {"name":"declarationDate","type":"uint256"},
     {"name":"reportingAgent","type":"address"}]}]},
  {"type":"function","name":"getPatientCodeById","stateMutability":"view",
   "inputs":[{"name":"patientId","type":"uint256"}],
   "outputs":[{"name":"uniquePatientCode","type":"string"}]},
  {"type":"function","name":"tokenURI","stateMutability":"view",
   "inputs":[{"name":"tokenId","type":"uint256"}],
   "outputs":[{"name":"uri","type":"string"}]},
  {"type":"function","name":"hasRole","stateMutability":"view",
   "inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"grantRole","stateMutability":"nonpayable",
   "inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],
   "outputs":[]},
  {"type":"function","name":"revokeRole","stateMutability":"nonpayable",
   "inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],
   "outputs":[]},
  {"type":"function","name":"renounceRole","stateMutability":"nonpayable",
   "inputs":[{"name":"role","type":"bytes32"},{"name":"callerConfirmation","type":"address"}],
   "outputs":[]},
  {"type":"function","name":"getRoleAdmin","stateMutability":"view",
   "inputs":[{"name":"role","type":"bytes32"}],
   "outputs":[{"name":"","type":"bytes32"}]},
  {"type":"function","name":"setStockContract","stateMutability":"nonpayable",
   "inputs":[{"name":"stockContract","type":"address"}],
   "outputs":[]}
]`

const stockABIJSON = `[
  {"type":"function","name":"addCenter","stateMutability":"nonpayable",
   "inputs":[{"name":"centerId","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"configureStock","stateMutability":"nonpayable",
   "inputs":[{"name":"centerId","type":"string"},{"name":"vaccinationTypeId","type":"bytes32"},{"name":"initialQuantity","type":"uint256"},{"name":"criticalThreshold","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"addStock","stateMutability":"nonpayable",
   "inputs":[{"name":"centerId","type":"string"},{"name":"vaccinationTypeId","type":"bytes32"},{"name":"quantity","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"removeStock","stateMutability":"nonpayable",
   "inputs":[{"name":"centerId","type":"string"},{"name":"vaccinationTypeId","type":"bytes32"},{"name":"quantity","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"getStock","stateMutability":"view",
   "inputs":[{"name":"centerId","type":"string"},{"name":"vaccinationTypeId","type":"bytes32"}],
   "outputs":[{"name":"currentQuantity","type":"uint256"},{"name":"criticalThreshold","type":"uint256"}]},
  {"type":"function","name":"getAllCenters","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"centers","type":"string[]"}]}
]`

const governorABIJSON = `[
  {"type":"function","name":"proposalCount","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"proposals","stateMutability":"view",
   "inputs":[{"name":"proposalId","type":"uint256"}],
   "outputs":[
     {"name":"proposer","type":"address"},
     {"name":"description","type":"string"},
     {"name":"voteStart","type":"uint256"},
     {"name":"voteEnd","type":"uint256"},
     {"name":"executed","type":"bool"},
     {"name":"canceled","type":"bool"}]},
  {"type":"function","name":"state","stateMutability":"view",
   "inputs":[{"name":"proposalId","type":"uint256"}],
   "outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"proposalVotes","stateMutability":"view",
   "inputs":[{"name":"proposalId","type":"uint256"}],
   "outputs":[
     {"name":"againstVotes","type":"uint256"},
     {"name":"forVotes","type":"uint256"},
     {"name":"abstainVotes","type":"uint256"}]},
  {"type":"function","name":"hasVoted","stateMutability":"view",
   "inputs":[{"name":"proposalId","type":"uint256"},{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"getVotes","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"},{"name":"timepoint","type":"uint256"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"quorum","stateMutability":"view",
   "inputs":[{"name":"timepoint","type":"uint256"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"proposalThreshold","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"proposalDeadline","stateMutability":"view",
   "inputs":[{"name":"proposalId","type":"uint256"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"propose","stateMutability":"nonpayable",
   "inputs":[
     {"name":"targets","type":"address[]"},
     {"name":"values","type":"uint256[]"},
     {"name":"calldatas","type":"bytes[]"},
     {"name":"description","type":"string"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"castVote","stateMutability":"nonpayable",
   "inputs":[{"name":"proposalId","type":"uint256"},{"name":"support","type":"uint8"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"castVoteWithReason","stateMutability":"nonpayable",
   "inputs":[{"name":"proposalId","type":"uint256"},{"name":"support","type":"uint8"},{"name":"reason","type":"string"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"execute","stateMutability":"payable",
   "inputs":[
     {"name":"targets","type":"address[]"},
     {"name":"values","type":"uint256[]"},
     {"name":"calldatas","type":"bytes[]"},
     {"name":"descriptionHash","type":"bytes32"}],
   "outputs":[{"name":"","type":"uint256"}]}
]`

const tokenABIJSON = `[
  {"type":"function","name":"name","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"symbol","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"decimals","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"totalSupply","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"owner","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"transfer","stateMutability":"nonpayable",
   "inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable",
   "inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"mint","stateMutability":"nonpayable",
   "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"burn","stateMutability":"nonpayable",
   "inputs":[{"name":"amount","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"burnFrom","stateMutability":"nonpayable",
   "inputs":[{"name":"account","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[]}
]`
