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

// Package worddetective implements the word-detective mini-game: AI-generated
// (correct spelling, plausible misspelling) pairs and a purely local
// quantitative analysis of the learner's attempts.
package worddetective

import (
	"encoding/json"
	"fmt"
)

// MaxWordPairs is the number of pairs a generation call delivers at most.
const MaxWordPairs = 6

// WordPair is a correct spelling and a plausible misspelling of it.
// Both fields are always non-empty.
type WordPair struct {
	Correct string `json:"correct"`
	Wrong   string `json:"wrong"`
}

var fallbackWordPairs = []WordPair{
	{Correct: "friend", Wrong: "freind"},
	{Correct: "because", Wrong: "becuase"},
	{Correct: "beautiful", Wrong: "beatiful"},
	{Correct: "tomorrow", Wrong: "tommorow"},
	{Correct: "receive", Wrong: "recieve"},
	{Correct: "different", Wrong: "diffrent"},
}

// FallbackWordPairs returns a copy of the static pair catalog.
func FallbackWordPairs() []WordPair {
	pairs := make([]WordPair, len(fallbackWordPairs))
	copy(pairs, fallbackWordPairs)
	return pairs
}

// ValidateWordPairs checks an extracted JSON array against the word-pair
// contract. Entries missing either field or carrying empty strings are
// skipped; an empty surviving set rejects the batch. At most MaxWordPairs
// pairs are returned.
func ValidateWordPairs(payload json.RawMessage) ([]WordPair, error) {
	var candidates []WordPair
	if err := json.Unmarshal(payload, &candidates); err != nil {
		return nil, fmt.Errorf("word pairs are not an array of objects: %w", err)
	}

	pairs := make([]WordPair, 0, MaxWordPairs)
	for _, p := range candidates {
		if p.Correct == "" || p.Wrong == "" {
			continue
		}
		pairs = append(pairs, p)
		if len(pairs) == MaxWordPairs {
			break
		}
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("no usable word pairs in payload")
	}
	return pairs, nil
}
