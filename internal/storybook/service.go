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
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/your-org/lexiassist-backend/internal/extract"
	"github.com/your-org/lexiassist-backend/internal/genai"
)

// Generator is the slice of the model gateway the pipeline needs.
type Generator interface {
	Configured() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

// RoundStore caches generated round batches per session so generation is
// idempotent for the lifetime of a session. Implementations live in the
// cache package (in-memory and Redis).
type RoundStore interface {
	Get(ctx context.Context, sessionID string) ([]Round, bool, error)
	Put(ctx context.Context, sessionID string, rounds []Round) error
}

// GenerateRoundsRequest is the body of POST /api/storybook/generate-rounds.
type GenerateRoundsRequest struct {
	PreferredLanguage string `json:"preferredLanguage"`
	SessionID         string `json:"sessionId,omitempty"`
}

// GenerateRoundsResponse carries the rounds plus the provenance tag. The tag
// is part of the public contract: it lets the client distinguish a genuine
// model product from degraded catalog content.
type GenerateRoundsResponse struct {
	Rounds []Round `json:"rounds"`
	Source string  `json:"source"`
}

// AnalyzeRequest is the body of POST /api/storybook/analyze-response.
type AnalyzeRequest struct {
	RoundID           string   `json:"roundId"`
	PromptText        string   `json:"promptText"`
	Items             []string `json:"items"`
	UserOrder         []int    `json:"userOrder"`
	SessionID         string   `json:"sessionId,omitempty"`
	PreferredLanguage string   `json:"preferredLanguage,omitempty"`
	StudentID         string   `json:"studentId,omitempty"`
}

// AnalyzeResponse carries the analysis plus the provenance tag.
type AnalyzeResponse struct {
	Analysis AnalysisResult `json:"analysis"`
	Source   string         `json:"source"`
}

// Service runs the storybook generation and analysis pipelines. AI-pipeline
// failures never surface as errors; they degrade to the fallback catalog
// with the provenance tag flipped.
type Service struct {
	gateway Generator
	store   RoundStore
	flight  singleflight.Group
	logger  *zap.Logger
}

// NewService creates the storybook service.
func NewService(gateway Generator, store RoundStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gateway: gateway,
		store:   store,
		logger:  logger,
	}
}

// Configured reports whether the provider credential is present; surfaced by
// the storybook health endpoint.
func (s *Service) Configured() bool {
	return s.gateway.Configured()
}

// GenerateRounds returns a 2-round batch for the session. A non-empty session
// identifier makes the call idempotent: the first successful AI batch is
// cached and returned byte-identically on subsequent calls, and concurrent
// first-requests for one session collapse into a single upstream generation.
// An empty session identifier disables caching; every call regenerates.
func (s *Service) GenerateRounds(ctx context.Context, req GenerateRoundsRequest) GenerateRoundsResponse {
	if req.SessionID == "" {
		return s.generateBatch(ctx, req.PreferredLanguage)
	}

	v, _, _ := s.flight.Do(req.SessionID, func() (interface{}, error) {
		rounds, ok, err := s.store.Get(ctx, req.SessionID)
		if err != nil {
			s.logger.Warn("Round cache read failed",
				zap.String("session_id", req.SessionID),
				zap.Error(err),
			)
		} else if ok {
			s.logger.Info("Returning cached rounds",
				zap.String("session_id", req.SessionID),
			)
			return GenerateRoundsResponse{Rounds: rounds, Source: SourceAI}, nil
		}

		resp := s.generateBatch(ctx, req.PreferredLanguage)
		// Only genuine AI batches are cached; fallback content is
		// regenerated on the next attempt.
		if resp.Source == SourceAI {
			if err := s.store.Put(ctx, req.SessionID, resp.Rounds); err != nil {
				s.logger.Warn("Round cache write failed",
					zap.String("session_id", req.SessionID),
					zap.Error(err),
				)
			}
		}
		return resp, nil
	})

	return v.(GenerateRoundsResponse)
}

// generateBatch runs prompt -> gateway -> extract -> validate, degrading to
// the fallback catalog at the first failed stage.
func (s *Service) generateBatch(ctx context.Context, preferredLanguage string) GenerateRoundsResponse {
	prompt := BuildGenerationPrompt(preferredLanguage)

	text, err := s.gateway.Generate(ctx, prompt)
	if err != nil {
		s.logGatewayFailure("generate-rounds", err)
		return GenerateRoundsResponse{Rounds: FallbackRounds(), Source: SourceFallback}
	}

	payload, ok := extract.Object(text)
	if !ok {
		s.logger.Warn("Round generation degraded to fallback",
			zap.Error(&genai.MalformedOutputError{Stage: "extract", Reason: "no JSON object in model text"}),
		)
		return GenerateRoundsResponse{Rounds: FallbackRounds(), Source: SourceFallback}
	}

	rounds, err := ValidateRoundBatch(payload)
	if err != nil {
		s.logger.Warn("Round generation degraded to fallback",
			zap.Error(&genai.MalformedOutputError{Stage: "validate", Reason: err.Error()}),
		)
		return GenerateRoundsResponse{Rounds: FallbackRounds(), Source: SourceFallback}
	}

	return GenerateRoundsResponse{Rounds: rounds, Source: SourceAI}
}

// AnalyzeResponse analyzes the learner's submitted ordering against the
// round. Same pipeline shape as generation: any failure degrades to the
// fixed indeterminate analysis.
func (s *Service) AnalyzeResponse(ctx context.Context, req AnalyzeRequest) AnalyzeResponse {
	prompt := BuildAnalysisPrompt(req.PromptText, req.Items, req.UserOrder)

	text, err := s.gateway.Generate(ctx, prompt)
	if err != nil {
		s.logGatewayFailure("analyze-response", err)
		return AnalyzeResponse{Analysis: FallbackAnalysis(), Source: SourceFallback}
	}

	payload, ok := extract.Object(text)
	if !ok {
		s.logger.Warn("Response analysis degraded to fallback",
			zap.Error(&genai.MalformedOutputError{Stage: "extract", Reason: "no JSON object in model text"}),
		)
		return AnalyzeResponse{Analysis: FallbackAnalysis(), Source: SourceFallback}
	}

	analysis, err := ValidateAnalysis(payload)
	if err != nil {
		s.logger.Warn("Response analysis degraded to fallback",
			zap.Error(&genai.MalformedOutputError{Stage: "validate", Reason: err.Error()}),
		)
		return AnalyzeResponse{Analysis: FallbackAnalysis(), Source: SourceFallback}
	}

	return AnalyzeResponse{Analysis: analysis, Source: SourceAI}
}

func (s *Service) logGatewayFailure(operation string, err error) {
	if err == genai.ErrNotConfigured {
		s.logger.Error("Provider not configured, serving fallback",
			zap.String("operation", operation),
		)
		return
	}
	s.logger.Warn("Provider failed, serving fallback",
		zap.String("operation", operation),
		zap.Error(err),
	)
}
