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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMistakeType(t *testing.T) {
	tests := []struct {
		name    string
		correct string
		wrong   string
		want    string
	}{
		{"adjacent transposition", "the", "hte", MistakeTransposition},
		{"extra letter", "cat", "cats", MistakeExtraLetter},
		{"missing letter", "friend", "frend", MistakeMissingLetter},
		{"case and spacing only", "Cat", " cat", MistakeCaseSpacing},
		{"ei/ie confusion", "receive", "recieve", MistakeDigraph},
		{"ie swap classifies as digraph", "friend", "freind", MistakeDigraph},
		{"unrelated word", "dog", "big", MistakeOther},
		{"empty wrong", "dog", "", MistakeOther},
		{"empty correct", "", "dog", MistakeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MistakeType(tt.correct, tt.wrong))
		})
	}
}

func TestRiskBand(t *testing.T) {
	tests := []struct {
		accuracy float64
		want     string
	}{
		{100, RiskLow},
		{85, RiskLow},
		{80.01, RiskLow},
		{80, RiskMonitor},
		{70, RiskMonitor},
		{60.5, RiskMonitor},
		{60, RiskHigh},
		{50, RiskHigh},
		{0, RiskHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskBand(tt.accuracy), "accuracy %.2f", tt.accuracy)
	}
}

func TestValidateWordPairs(t *testing.T) {
	t.Run("accepts well formed pairs", func(t *testing.T) {
		pairs, err := ValidateWordPairs([]byte(`[
			{"correct": "friend", "wrong": "freind"},
			{"correct": "because", "wrong": "becuase"}
		]`))
		assert.NoError(t, err)
		assert.Len(t, pairs, 2)
	})

	t.Run("skips entries with empty fields", func(t *testing.T) {
		pairs, err := ValidateWordPairs([]byte(`[
			{"correct": "friend", "wrong": ""},
			{"correct": "", "wrong": "becuase"},
			{"correct": "receive", "wrong": "recieve"}
		]`))
		assert.NoError(t, err)
		assert.Equal(t, []WordPair{{Correct: "receive", Wrong: "recieve"}}, pairs)
	})

	t.Run("caps at max pairs", func(t *testing.T) {
		pairs, err := ValidateWordPairs([]byte(`[
			{"correct": "a1", "wrong": "b1"}, {"correct": "a2", "wrong": "b2"},
			{"correct": "a3", "wrong": "b3"}, {"correct": "a4", "wrong": "b4"},
			{"correct": "a5", "wrong": "b5"}, {"correct": "a6", "wrong": "b6"},
			{"correct": "a7", "wrong": "b7"}, {"correct": "a8", "wrong": "b8"}
		]`))
		assert.NoError(t, err)
		assert.Len(t, pairs, MaxWordPairs)
	})

	t.Run("rejects non-array payload", func(t *testing.T) {
		_, err := ValidateWordPairs([]byte(`{"correct": "friend", "wrong": "freind"}`))
		assert.Error(t, err)
	})

	t.Run("rejects empty surviving set", func(t *testing.T) {
		_, err := ValidateWordPairs([]byte(`[{"correct": "", "wrong": ""}]`))
		assert.Error(t, err)
	})
}

func TestFallbackWordPairsReturnsCopy(t *testing.T) {
	first := FallbackWordPairs()
	first[0].Correct = "mutated"

	second := FallbackWordPairs()
	assert.Equal(t, "friend", second[0].Correct)
	assert.Len(t, second, MaxWordPairs)
}
