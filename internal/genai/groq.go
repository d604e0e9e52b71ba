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

	"github.com/sashabaranov/go-openai"
)

const (
	// GroqBaseURL is Groq's OpenAI-compatible endpoint.
	GroqBaseURL = "https://api.groq.com/openai/v1"
	// DefaultGroqModel is the model used for word-pair generation.
	DefaultGroqModel = "llama-3.1-8b-instant"

	groqSystemPrompt = "You are a helpful psychologist designing screening items."
	groqTemperature  = 0.6
	groqMaxTokens    = 400
)

// GroqProvider drives the Groq chat-completion API through its
// OpenAI-compatible surface. Used by the word-detective pipeline.
type GroqProvider struct {
	client *openai.Client
	apiKey string
	model  string
}

// NewGroqProvider creates a Groq provider. An empty API key is allowed; the
// gateway checks Configured before attempting any call.
func NewGroqProvider(apiKey, model string) *GroqProvider {
	if model == "" {
		model = DefaultGroqModel
	}
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	cfg.BaseURL = GroqBaseURL
	return &GroqProvider{
		client: openai.NewClientWithConfig(cfg),
		apiKey: strings.TrimSpace(apiKey),
		model:  model,
	}
}

// Name implements Provider.
func (p *GroqProvider) Name() string { return "groq" }

// Configured implements Provider.
func (p *GroqProvider) Configured() bool { return p.apiKey != "" }

// Generate implements Provider.
func (p *GroqProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: groqSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: groqTemperature,
		MaxTokens:   groqMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("groq chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq chat completion: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
