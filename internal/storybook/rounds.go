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

// Package storybook implements the storybook-sequencing mini-game: AI round
// generation, learner-response analysis, schema validation, and the fallback
// catalog that guarantees every request a usable answer.
package storybook

import (
	"encoding/json"
	"fmt"
)

const (
	// RoundKindText is the only activity kind currently produced:
	// ordered sentences the learner taps back into story order.
	RoundKindText = "text"

	// RoundsPerBatch is the number of rounds a generation call delivers.
	RoundsPerBatch = 2
	// MinItemsPerRound is the minimum story-sentence count per round.
	MinItemsPerRound = 5

	// SourceAI tags responses produced by the generative model.
	SourceAI = "ai"
	// SourceFallback tags responses drawn from the static catalog.
	SourceFallback = "fallback"
)

// Round is one ordering-based screening activity. Items hold a coherent
// story in its correct order; the client shuffles them for presentation.
// Rounds are immutable once generated.
type Round struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	PromptText  string   `json:"promptText"`
	Items       []string `json:"items"`
	AIGenerated bool     `json:"aiGenerated"`
}

// MarkerScore is a single dyslexia-marker observation: a confidence score in
// [0,1] plus the assessor's note.
type MarkerScore struct {
	Score float64 `json:"score"`
	Note  string  `json:"note"`
}

// AnalysisResult is the structured outcome of analyzing a learner's ordering.
// All four marker fields, the follow-up list, and the overall confidence must
// be present for a model response to be accepted.
type AnalysisResult struct {
	Sequencing           MarkerScore `json:"sequencing"`
	Omissions            MarkerScore `json:"omissions"`
	VisualConfusion      MarkerScore `json:"visualConfusion"`
	PhonologicalCue      MarkerScore `json:"phonologicalCue"`
	RecommendedFollowUps []string    `json:"recommendedFollowUps"`
	Confidence           float64     `json:"confidence"`
}

var roundRequiredFields = []string{"id", "type", "promptText", "items"}

var analysisRequiredFields = []string{
	"sequencing", "omissions", "visualConfusion",
	"phonologicalCue", "recommendedFollowUps", "confidence",
}

// ValidateRoundBatch checks an extracted payload against the round-batch
// contract: a "rounds" array of at least RoundsPerBatch entries, each of the
// first two carrying every required field and at least MinItemsPerRound
// items. Acceptance is all-or-nothing; a partial batch is never returned.
// Accepted rounds are tagged machine-generated and truncated to exactly
// RoundsPerBatch.
func ValidateRoundBatch(payload json.RawMessage) ([]Round, error) {
	var envelope struct {
		Rounds []json.RawMessage `json:"rounds"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("round batch is not an object: %w", err)
	}
	if len(envelope.Rounds) < RoundsPerBatch {
		return nil, fmt.Errorf("round batch has %d rounds, need %d", len(envelope.Rounds), RoundsPerBatch)
	}

	rounds := make([]Round, 0, RoundsPerBatch)
	for i, raw := range envelope.Rounds[:RoundsPerBatch] {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("round %d is not an object: %w", i, err)
		}
		for _, field := range roundRequiredFields {
			if _, ok := fields[field]; !ok {
				return nil, fmt.Errorf("round %d missing required field %q", i, field)
			}
		}

		var round Round
		if err := json.Unmarshal(raw, &round); err != nil {
			return nil, fmt.Errorf("round %d has malformed fields: %w", i, err)
		}
		if len(round.Items) < MinItemsPerRound {
			return nil, fmt.Errorf("round %d has %d items, need at least %d", i, len(round.Items), MinItemsPerRound)
		}

		round.AIGenerated = true
		rounds = append(rounds, round)
	}

	return rounds, nil
}

// ValidateAnalysis checks an extracted payload against the analysis contract:
// all six top-level fields present. Missing any one rejects the whole result.
func ValidateAnalysis(payload json.RawMessage) (AnalysisResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return AnalysisResult{}, fmt.Errorf("analysis is not an object: %w", err)
	}
	for _, field := range analysisRequiredFields {
		if _, ok := fields[field]; !ok {
			return AnalysisResult{}, fmt.Errorf("analysis missing required field %q", field)
		}
	}

	var result AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return AnalysisResult{}, fmt.Errorf("analysis has malformed fields: %w", err)
	}
	return result, nil
}
