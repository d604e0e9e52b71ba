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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeProvider scripts per-attempt outcomes for gateway tests.
type fakeProvider struct {
	configured bool
	responses  []string
	errs       []error
	calls      int
	callTimes  []time.Time
}

func (f *fakeProvider) Name() string     { return "fake" }
func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) Generate(_ context.Context, _ string) (string, error) {
	idx := f.calls
	f.calls++
	f.callTimes = append(f.callTimes, time.Now())
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return "", errors.New("unscripted call")
}

func TestGatewayFailsFastWithoutCredential(t *testing.T) {
	provider := &fakeProvider{configured: false}
	gw := NewGateway(provider, 3, time.Millisecond, zap.NewNop())

	_, err := gw.Generate(context.Background(), "prompt")

	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, 0, provider.calls, "no network attempt should be made without a credential")
}

func TestGatewayReturnsTextOnFirstAttempt(t *testing.T) {
	provider := &fakeProvider{configured: true, responses: []string{"hello"}}
	gw := NewGateway(provider, 2, time.Millisecond, zap.NewNop())

	text, err := gw.Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, 1, provider.calls)
}

func TestGatewayRecoversOnRetry(t *testing.T) {
	provider := &fakeProvider{
		configured: true,
		errs:       []error{errors.New("boom")},
		responses:  []string{"", "recovered"},
	}
	gw := NewGateway(provider, 2, time.Millisecond, zap.NewNop())

	text, err := gw.Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, 2, provider.calls)
}

func TestGatewayExhaustsExactlyMaxAttempts(t *testing.T) {
	provider := &fakeProvider{
		configured: true,
		errs:       []error{errors.New("a"), errors.New("b"), errors.New("c")},
	}
	backoff := 20 * time.Millisecond
	gw := NewGateway(provider, 3, backoff, zap.NewNop())

	_, err := gw.Generate(context.Background(), "prompt")

	var transient *TransientError
	require.ErrorAs(t, err, &transient)
	assert.Equal(t, 3, transient.Attempts)
	assert.Equal(t, 3, provider.calls)

	// Attempts are separated by the configured fixed backoff.
	for i := 1; i < len(provider.callTimes); i++ {
		gap := provider.callTimes[i].Sub(provider.callTimes[i-1])
		assert.GreaterOrEqual(t, gap, backoff, "attempt %d fired before the backoff elapsed", i+1)
	}
}

func TestGatewayTransientIsNotConfigurationError(t *testing.T) {
	provider := &fakeProvider{configured: true, errs: []error{errors.New("down"), errors.New("down")}}
	gw := NewGateway(provider, 2, time.Millisecond, zap.NewNop())

	_, err := gw.Generate(context.Background(), "prompt")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConfigured)
}

func TestGatewayHonorsContextBetweenAttempts(t *testing.T) {
	provider := &fakeProvider{configured: true, errs: []error{errors.New("boom")}}
	gw := NewGateway(provider, 2, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.Generate(ctx, "prompt")

	var transient *TransientError
	require.ErrorAs(t, err, &transient)
	assert.ErrorIs(t, transient.Err, context.Canceled)
	assert.Equal(t, 1, provider.calls, "cancelled context must stop the retry loop")
}

func TestGatewayDefaults(t *testing.T) {
	gw := NewGateway(&fakeProvider{configured: true}, 0, 0, nil)

	assert.Equal(t, DefaultMaxAttempts, gw.maxAttempts)
	assert.Equal(t, DefaultBackoff, gw.backoff)
}
