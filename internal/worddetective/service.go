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
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/your-org/lexiassist-backend/internal/extract"
	"github.com/your-org/lexiassist-backend/internal/genai"
)

// Generator is the slice of the model gateway the pipeline needs.
type Generator interface {
	Configured() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerateRequest is the body of POST /api/worddetective/generate.
type GenerateRequest struct {
	Age               int      `json:"age"`
	Language          string   `json:"language,omitempty"`
	Difficulties      []string `json:"difficulties,omitempty"`
	PreferredLanguage string   `json:"preferredLanguage,omitempty"`
}

// GenerateResponse carries up to MaxWordPairs pairs.
type GenerateResponse struct {
	WordPairs []WordPair `json:"wordPairs"`
}

// AttemptEntry is one question's outcome as reported by the client.
type AttemptEntry struct {
	QuestionIndex    int      `json:"questionIndex"`
	PresentedPair    WordPair `json:"presentedPair"`
	ChosenWord       string   `json:"chosenWord,omitempty"`
	ChosenWasCorrect bool     `json:"chosenWasCorrect"`
	ResponseTimeSec  *float64 `json:"responseTimeSec,omitempty"`
}

// AnalyzeRequest is the body of POST /api/worddetective/analyze.
type AnalyzeRequest struct {
	RegistrationInfo *GenerateRequest `json:"registrationInfo,omitempty"`
	Attempts         []AttemptEntry   `json:"attempts"`
	TotalTimeSec     float64          `json:"totalTimeSec"`
	SessionID        string           `json:"sessionId,omitempty"`
}

// PerQuestion is the per-attempt breakdown in the analysis report.
type PerQuestion struct {
	QuestionIndex   int      `json:"questionIndex"`
	Correct         string   `json:"correct"`
	Chosen          string   `json:"chosen,omitempty"`
	WasCorrect      bool     `json:"wasCorrect"`
	ResponseTimeSec *float64 `json:"responseTimeSec,omitempty"`
}

// RawStats holds the auxiliary statistics attached to a report.
type RawStats struct {
	MistakeTypes map[string]int `json:"mistakeTypes"`
	AvgTimeSec   *float64       `json:"avgTimeSec"`
}

// AnalyzeResponse is the quantitative word-detective report.
type AnalyzeResponse struct {
	Score          int            `json:"score"`
	TotalQuestions int            `json:"totalQuestions"`
	Accuracy       float64        `json:"accuracy"`
	CommonMistakes map[string]int `json:"commonMistakes"`
	PerQuestion    []PerQuestion  `json:"perQuestion"`
	Risk           string         `json:"risk"`
	AnalysisText   string         `json:"analysisText,omitempty"`
	Raw            RawStats       `json:"raw"`
}

// Service runs word-pair generation and the local attempt analysis.
type Service struct {
	gateway Generator
	logger  *zap.Logger
}

// NewService creates the word-detective service.
func NewService(gateway Generator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gateway: gateway, logger: logger}
}

// Configured reports whether the generation gateway has credentials.
func (s *Service) Configured() bool {
	return s.gateway.Configured()
}

// BuildGenerationPrompt renders the word-pair generation prompt. Pure
// function of its inputs.
func BuildGenerationPrompt(age int, language string, difficulties []string) string {
	if language == "" {
		language = "english"
	}
	difficultyList := strings.Join(difficulties, ", ")
	if difficultyList == "" {
		difficultyList = "none"
	}

	return fmt.Sprintf("You are a psychologist designing a short dyslexia risk screening activity for children. "+
		"Create %d simple %s word pairs appropriate for a child aged %d. "+
		"For each pair return a JSON object with 'correct' and 'wrong'. "+
		"Difficulties to consider: %s. "+
		"Return only a valid JSON array of pair objects, nothing else.",
		MaxWordPairs, language, age, difficultyList)
}

// GenerateWords returns up to MaxWordPairs pairs, degrading to the static
// catalog on any pipeline failure. Never returns an error to the caller.
func (s *Service) GenerateWords(ctx context.Context, req GenerateRequest) GenerateResponse {
	language := req.Language
	if language == "" {
		language = req.PreferredLanguage
	}
	prompt := BuildGenerationPrompt(req.Age, language, req.Difficulties)

	text, err := s.gateway.Generate(ctx, prompt)
	if err != nil {
		if err == genai.ErrNotConfigured {
			s.logger.Error("Provider not configured, serving fallback word pairs")
		} else {
			s.logger.Warn("Provider failed, serving fallback word pairs", zap.Error(err))
		}
		return GenerateResponse{WordPairs: FallbackWordPairs()}
	}

	payload, ok := extract.Array(text)
	if !ok {
		s.logger.Warn("Word-pair generation degraded to fallback",
			zap.Error(&genai.MalformedOutputError{Stage: "extract", Reason: "no JSON array in model text"}),
		)
		return GenerateResponse{WordPairs: FallbackWordPairs()}
	}

	pairs, err := ValidateWordPairs(payload)
	if err != nil {
		s.logger.Warn("Word-pair generation degraded to fallback",
			zap.Error(&genai.MalformedOutputError{Stage: "validate", Reason: err.Error()}),
		)
		return GenerateResponse{WordPairs: FallbackWordPairs()}
	}

	return GenerateResponse{WordPairs: pairs}
}

// Analyze computes the quantitative report over the learner's attempts.
// Purely local arithmetic; no model call.
func (s *Service) Analyze(req AnalyzeRequest) AnalyzeResponse {
	attempts := req.Attempts
	total := len(attempts)

	score := 0
	commonMistakes := make(map[string]int)
	mistakeTypes := make(map[string]int)
	perQuestion := make([]PerQuestion, 0, total)

	var timeSum float64
	var timeCount int

	for _, a := range attempts {
		if a.ChosenWasCorrect {
			score++
		} else if a.ChosenWord != "" {
			key := fmt.Sprintf("%s -> %s", a.PresentedPair.Correct, a.ChosenWord)
			commonMistakes[key]++
			mistakeTypes[MistakeType(a.PresentedPair.Correct, a.ChosenWord)]++
		}

		if a.ResponseTimeSec != nil && *a.ResponseTimeSec > 0 {
			timeSum += *a.ResponseTimeSec
			timeCount++
		}

		perQuestion = append(perQuestion, PerQuestion{
			QuestionIndex:   a.QuestionIndex,
			Correct:         a.PresentedPair.Correct,
			Chosen:          a.ChosenWord,
			WasCorrect:      a.ChosenWasCorrect,
			ResponseTimeSec: a.ResponseTimeSec,
		})
	}

	var accuracy float64
	if total > 0 {
		accuracy = math.Round(float64(score)/float64(total)*100*100) / 100
	}

	var avgTime *float64
	if timeCount > 0 {
		mean := timeSum / float64(timeCount)
		avgTime = &mean
	}

	return AnalyzeResponse{
		Score:          score,
		TotalQuestions: total,
		Accuracy:       accuracy,
		CommonMistakes: commonMistakes,
		PerQuestion:    perQuestion,
		Risk:           RiskBand(accuracy),
		Raw:            RawStats{MistakeTypes: mistakeTypes, AvgTimeSec: avgTime},
	}
}
