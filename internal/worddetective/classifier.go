// Copyright 2025 LexiAssist Backend Project
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

package worddetective

import "strings"

// Mistake categories produced by MistakeType.
const (
	MistakeCaseSpacing   = "case/spacing"
	MistakeTransposition = "transposition"
	MistakeMissingLetter = "missing_letter"
	MistakeExtraLetter   = "extra_letter"
	MistakeDigraph       = "ei/ie_confusion"
	MistakeOther         = "other"
)

// Risk bands produced by RiskBand.
const (
	RiskLow     = "low"
	RiskMonitor = "monitor"
	RiskHigh    = "high"
)

// MistakeType classifies the learner's chosen-incorrect word against the
// correct spelling. Rules apply first-match-wins: case/spacing, adjacent
// transposition, length-based missing/extra letter, ei/ie digraph confusion,
// else other. A swap of the e/i pair itself ("recieve" for "receive") is the
// digraph confusion, not a generic transposition. Purely local string
// arithmetic, no model call.
func MistakeType(correct, wrong string) string {
	if correct == "" || wrong == "" {
		return MistakeOther
	}

	if foldCaseSpacing(correct) == foldCaseSpacing(wrong) {
		return MistakeCaseSpacing
	}

	// Adjacent-pair swap anywhere in the word.
	for i := 0; i+1 < len(wrong); i++ {
		if i+1 < len(correct) && wrong[i+1] == correct[i] && wrong[i] == correct[i+1] {
			if isEISwap(wrong[i], wrong[i+1]) {
				return MistakeDigraph
			}
			return MistakeTransposition
		}
	}

	if len(wrong) < len(correct) {
		return MistakeMissingLetter
	}
	if len(wrong) > len(correct) {
		return MistakeExtraLetter
	}

	if hasEIDigraph(correct) && hasEIDigraph(wrong) {
		return MistakeDigraph
	}
	return MistakeOther
}

// RiskBand maps an accuracy percentage to a screening risk band. Thresholds
// are strict greater-than: exactly 80% is "monitor", not "low".
func RiskBand(accuracyPercent float64) string {
	switch {
	case accuracyPercent > 80:
		return RiskLow
	case accuracyPercent > 60:
		return RiskMonitor
	default:
		return RiskHigh
	}
}

func foldCaseSpacing(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "")
}

func hasEIDigraph(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "ei") || strings.Contains(lower, "ie")
}

func isEISwap(a, b byte) bool {
	a |= 0x20
	b |= 0x20
	return (a == 'e' && b == 'i') || (a == 'i' && b == 'e')
}
