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

package storybook

// Hand-authored catalog returned whenever generation, extraction, or
// validation fails. The content does not adapt to requested language or
// difficulty. Marker scores are deliberately mid-range: an indeterminate
// signal rather than a false-positive or false-negative extreme.

var fallbackRounds = []Round{
	{
		ID:         "fallback-4",
		Type:       RoundKindText,
		PromptText: "Tap the sentences in the correct story order:",
		Items: []string{
			"A small bird lost its way during a big storm.",
			"The bird dropped down beside a quiet garden path.",
			"A kind child found the bird and brought it home.",
			"Before bedtime the child fed the bird warm bread.",
			"The bird learned to fly again and thanked the child.",
		},
		AIGenerated: false,
	},
	{
		ID:         "fallback-5",
		Type:       RoundKindText,
		PromptText: "Tap the sentences in the correct story order:",
		Items: []string{
			"The boy planted a tiny seed in the garden bed.",
			"First he watered the seed every single day.",
			"Then a green sprout pushed up through the dark soil.",
			"After a week the sprout turned into a tall plant.",
			"Finally the plant had bright flowers that bees loved.",
		},
		AIGenerated: false,
	},
}

// FallbackRounds returns a copy of the static 2-round catalog. The copy keeps
// callers from mutating the shared backing arrays.
func FallbackRounds() []Round {
	rounds := make([]Round, len(fallbackRounds))
	for i, r := range fallbackRounds {
		items := make([]string, len(r.Items))
		copy(items, r.Items)
		r.Items = items
		rounds[i] = r
	}
	return rounds
}

// FallbackAnalysis returns the fixed indeterminate analysis used when the
// model's assessment cannot be obtained or validated.
func FallbackAnalysis() AnalysisResult {
	return AnalysisResult{
		Sequencing:      MarkerScore{Score: 0.5, Note: "Unable to assess sequencing patterns."},
		Omissions:       MarkerScore{Score: 0.5, Note: "Unable to assess for omissions."},
		VisualConfusion: MarkerScore{Score: 0.2, Note: "No clear visual confusion patterns detected in this attempt."},
		PhonologicalCue: MarkerScore{Score: 0.2, Note: "No clear phonological emphasis detected in this attempt."},
		RecommendedFollowUps: []string{
			"Ask the child to read the sentences aloud to listen for phonological patterns.",
			"Ask why they chose that specific order.",
		},
		Confidence: 0.3,
	}
}
