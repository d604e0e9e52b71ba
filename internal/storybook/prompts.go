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

import (
	"fmt"
	"strconv"
	"strings"
)

// BuildGenerationPrompt renders the round-generation prompt: the output
// schema, the marker-eliciting design instructions, and the instruction to
// return only JSON. Pure function of its inputs.
func BuildGenerationPrompt(preferredLanguage string) string {
	if preferredLanguage == "" {
		preferredLanguage = "english"
	}

	return fmt.Sprintf(`You are creating personalized dyslexia screening stories for a child. These stories should help identify potential dyslexia markers through careful sequencing challenges.

Return exactly 2 rounds as JSON. Each round must have:
- id: string (e.g., "ai-4", "ai-5")
- type: "text"
- promptText: instruction (e.g., "Tap the sentences in the correct story order:")
- items: array of exactly 5-6 short sentences (8-15 words each) forming a coherent story

IMPORTANT - Design sentences to expose dyslexia markers:
1. Include words with visually similar letters (b/d, p/q, n/u) to detect VISUAL CONFUSION
2. Include words with similar sounds but different meanings to detect PHONOLOGICAL CUES
3. Include temporal sequencing words (first, then, after, before, finally) to test SEQUENCING
4. Vary sentence length and structure to test reading comprehension
5. Make the story internally coherent so correct sequencing is clear

Example structures:
- "The boy and girl began their day." (b/d confusion potential)
- "The doll was different from the dollar." (d/b and similar sounds)
- "Before the bell rang, Dan and Ben ran." (temporal + visual confusion)

Generate 2 different stories, each with 5-6 sentences. Make them age-appropriate but strategically challenging.
Keep sentences simple vocabulary but structurally interesting.
Return ONLY valid JSON with key "rounds" containing an array of 2 round objects.
Language: %s

Example format:
{"rounds": [{"id": "ai-4", "type": "text", "promptText": "Tap...", "items": ["sentence 1", "sentence 2", "sentence 3", "sentence 4", "sentence 5"]}, {"id": "ai-5", "type": "text", "promptText": "Tap...", "items": ["sentence 1", "sentence 2", "sentence 3", "sentence 4", "sentence 5", "sentence 6"]}]}`, preferredLanguage)
}

// BuildAnalysisPrompt renders the response-analysis prompt. The intended
// correct ordering is encoded as 1..N (the items' original order) so the
// prompt can reference "correct order" unambiguously against the learner's
// submitted ordering.
func BuildAnalysisPrompt(promptText string, items []string, userOrder []int) string {
	userOrderParts := make([]string, len(userOrder))
	for i, n := range userOrder {
		userOrderParts[i] = strconv.Itoa(n)
	}

	itemLines := make([]string, len(items))
	correctOrderParts := make([]string, len(items))
	for i, item := range items {
		itemLines[i] = fmt.Sprintf("%d. %s", i+1, item)
		correctOrderParts[i] = strconv.Itoa(i + 1)
	}

	return fmt.Sprintf(`You are an expert assessor of reading and sequencing interpretation for dyslexia screening (this is a screening aid, not a diagnosis).

The child was asked to read and order sentences that were intentionally designed to test for dyslexia markers:
- Visual confusion (b/d, p/q, n/u confusion)
- Phonological cues (sound-based reasoning over visual)
- Sequencing ability (temporal words: first, then, after, before, finally)

Prompt given to child: "%s"

Story sentences (correct order should be: %s):
%s

Child's response (order they selected): %s

Analyze the child's response focusing on:
1. Did they get the sequencing correct?
2. If incorrect, does it suggest visual confusion (mixing similar-looking letters)?
3. Does it suggest phonological reasoning (mixing similar-sounding words)?
4. Any patterns in which sentences were misplaced?

Return ONLY a JSON object with these fields:
- sequencing: {score: 0-1, note: "explanation of sequencing understanding"}
- omissions: {score: 0-1, note: "explanation of any missing key elements"}
- visualConfusion: {score: 0-1, note: "evidence of visual-letter confusion (b/d/p/q/n/u)"}
- phonologicalCue: {score: 0-1, note: "evidence of phonological/sound-based reasoning"}
- recommendedFollowUps: ["question 1", "question 2", "question 3"]
- confidence: 0-1

Scores: 0=not present, 0.3-0.6=possibly present, 1=clearly present.
Focus on the markers that the sentences were designed to detect.
Return ONLY valid JSON, nothing else.`,
		promptText,
		strings.Join(correctOrderParts, ", "),
		strings.Join(itemLines, "\n"),
		strings.Join(userOrderParts, ", "),
	)
}
