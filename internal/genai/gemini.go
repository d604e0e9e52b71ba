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

package genai

import (
	"context"
	"fmt"
	"strings"

	gemini "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is the model used for storybook round generation and
// response analysis when no override is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider drives the Google Gemini API. Used by the storybook pipeline.
type GeminiProvider struct {
	apiKey string
	model  string
}

// NewGeminiProvider creates a Gemini provider. An empty API key is allowed;
// the gateway checks Configured before attempting any call.
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiProvider{
		apiKey: strings.TrimSpace(apiKey),
		model:  strings.TrimSpace(model),
	}
}

// Name implements Provider.
func (p *GeminiProvider) Name() string { return "gemini" }

// Configured implements Provider.
func (p *GeminiProvider) Configured() bool { return p.apiKey != "" }

// Generate implements Provider. Each call builds a fresh client; attempts
// share no state beyond the gateway's counter.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	cl, err := gemini.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return "", fmt.Errorf("gemini client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(p.model)
	resp, err := m.GenerateContent(ctx, gemini.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := flattenGeminiResponse(resp)
	if text == "" {
		return "", fmt.Errorf("gemini generate: empty response")
	}
	return text, nil
}

// flattenGeminiResponse concatenates the text parts of the first candidate.
func flattenGeminiResponse(resp *gemini.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(gemini.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String())
}
