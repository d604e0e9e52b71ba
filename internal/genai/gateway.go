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

// Package genai wraps the external generative-model providers behind a single
// structured-generation capability: send a prompt, receive raw text, bounded
// attempts, uniform failure taxonomy. Both mini-game pipelines reuse it.
package genai

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxAttempts is the default attempt budget per generation call.
	DefaultMaxAttempts = 2
	// DefaultBackoff is the fixed wait between attempts. Deliberately
	// non-exponential; the budget is small and requests are interactive.
	DefaultBackoff = time.Second
)

// Provider is an interchangeable generative text model integration.
type Provider interface {
	// Name identifies the provider in logs and error values.
	Name() string
	// Configured reports whether the provider credential is present.
	Configured() bool
	// Generate sends a single prompt and returns the raw model text.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gateway wraps a Provider with a bounded retry policy. It never panics for
// provider errors; every call resolves to text or a typed failure.
type Gateway struct {
	provider    Provider
	maxAttempts int
	backoff     time.Duration
	logger      *zap.Logger
}

// NewGateway creates a gateway around the given provider. Non-positive
// maxAttempts or backoff fall back to the defaults.
func NewGateway(provider Provider, maxAttempts int, backoff time.Duration, logger *zap.Logger) *Gateway {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		provider:    provider,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		logger:      logger,
	}
}

// Configured reports whether the underlying provider credential is present.
// Surfaced by the health endpoint.
func (g *Gateway) Configured() bool {
	return g.provider.Configured()
}

// Generate calls the provider with up to maxAttempts tries, waiting the fixed
// backoff between failures. A missing credential fails immediately with
// ErrNotConfigured; exhausted attempts return a *TransientError.
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	if !g.provider.Configured() {
		g.logger.Error("Provider credential missing, skipping generation",
			zap.String("provider", g.provider.Name()),
		)
		return "", ErrNotConfigured
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if attempt > 1 {
			g.logger.Warn("Retrying generation request",
				zap.String("provider", g.provider.Name()),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", g.maxAttempts),
				zap.Duration("backoff", g.backoff),
			)
			select {
			case <-ctx.Done():
				return "", &TransientError{Provider: g.provider.Name(), Attempts: attempt - 1, Err: ctx.Err()}
			case <-time.After(g.backoff):
			}
		}

		text, err := g.provider.Generate(ctx, prompt)
		if err != nil {
			lastErr = err
			g.logger.Warn("Generation attempt failed",
				zap.String("provider", g.provider.Name()),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		if attempt > 1 {
			g.logger.Info("Generation succeeded after retry",
				zap.String("provider", g.provider.Name()),
				zap.Int("attempt", attempt),
			)
		}
		return text, nil
	}

	g.logger.Error("All generation attempts exhausted",
		zap.String("provider", g.provider.Name()),
		zap.Int("max_attempts", g.maxAttempts),
		zap.Error(lastErr),
	)
	return "", &TransientError{Provider: g.provider.Name(), Attempts: g.maxAttempts, Err: lastErr}
}
