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

// Package mapi handles adverse event (MAPI) declarations. The
// contract stores only a free-text description, so the vaccine type
// is recovered heuristically; Unknown is a first-class outcome, not
// an error.
package mapi

import "strings"

// Unknown is the vaccine type bucket for descriptions that name no
// recognizable vaccine.
const Unknown = "Unknown"

// maxPrefixLen bounds how much leading text is accepted as a
// "TYPE: rest" declaration prefix.
const maxPrefixLen = 64

// ExtractVaccineType recovers the vaccine type referenced by a MAPI
// description. A "TYPE: rest of description" prefix wins; otherwise
// the description is scanned case-insensitively for any of the known
// vaccine names; otherwise Unknown.
func ExtractVaccineType(description string, knownNames []string) string {
	if description == "" {
		return Unknown
	}
	if prefix, _, ok := strings.Cut(description, ":"); ok {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" && len(prefix) <= maxPrefixLen {
			// Prefer the canonical name when the prefix matches a
			// known vaccine, otherwise take the prefix as declared
			for _, name := range knownNames {
				if strings.EqualFold(prefix, name) {
					return name
				}
			}
			return prefix
		}
	}
	lowered := strings.ToLower(description)
	for _, name := range knownNames {
		if name == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(name)) {
			return name
		}
	}
	return Unknown
}
