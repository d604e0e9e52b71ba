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

// Package cache provides the session-keyed round stores injected into the
// storybook pipeline: a process-local map for single-instance deployments
// and a Redis-backed store so multiple instances share generation state and
// restarts do not silently reset it.
package cache

import (
	"context"
	"sync"

	"github.com/your-org/lexiassist-backend/internal/storybook"
)

// MemoryRoundStore is a process-lifetime, mutex-guarded round store. Distinct
// sessions never contend beyond the map lock; same-key writes are
// last-write-wins.
type MemoryRoundStore struct {
	mu     sync.RWMutex
	rounds map[string][]storybook.Round
}

// NewMemoryRoundStore creates an empty in-memory round store.
func NewMemoryRoundStore() *MemoryRoundStore {
	return &MemoryRoundStore{
		rounds: make(map[string][]storybook.Round),
	}
}

// Get implements storybook.RoundStore.
func (m *MemoryRoundStore) Get(_ context.Context, sessionID string) ([]storybook.Round, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rounds, ok := m.rounds[sessionID]
	if !ok {
		return nil, false, nil
	}
	return copyRounds(rounds), true, nil
}

// Put implements storybook.RoundStore.
func (m *MemoryRoundStore) Put(_ context.Context, sessionID string, rounds []storybook.Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rounds[sessionID] = copyRounds(rounds)
	return nil
}

// copyRounds deep-copies a batch so cached rounds stay immutable regardless
// of what callers do with the returned slice.
func copyRounds(rounds []storybook.Round) []storybook.Round {
	out := make([]storybook.Round, len(rounds))
	for i, r := range rounds {
		items := make([]string, len(r.Items))
		copy(items, r.Items)
		r.Items = items
		out[i] = r
	}
	return out
}
