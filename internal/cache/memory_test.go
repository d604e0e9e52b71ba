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

package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/lexiassist-backend/internal/storybook"
)

func sampleBatch() []storybook.Round {
	return []storybook.Round{
		{
			ID:          "ai-4",
			Type:        storybook.RoundKindText,
			PromptText:  "Tap the sentences in the correct story order:",
			Items:       []string{"one", "two", "three", "four", "five"},
			AIGenerated: true,
		},
		{
			ID:          "ai-5",
			Type:        storybook.RoundKindText,
			PromptText:  "Tap the sentences in the correct story order:",
			Items:       []string{"a", "b", "c", "d", "e", "f"},
			AIGenerated: true,
		},
	}
}

func TestMemoryRoundStoreMiss(t *testing.T) {
	store := NewMemoryRoundStore()

	rounds, ok, err := store.Get(context.Background(), "unknown")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rounds)
}

func TestMemoryRoundStoreRoundTrip(t *testing.T) {
	store := NewMemoryRoundStore()
	batch := sampleBatch()

	require.NoError(t, store.Put(context.Background(), "session-1", batch))

	got, ok, err := store.Get(context.Background(), "session-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, batch, got)
}

func TestMemoryRoundStoreReturnsCopies(t *testing.T) {
	store := NewMemoryRoundStore()
	require.NoError(t, store.Put(context.Background(), "session-1", sampleBatch()))

	first, _, err := store.Get(context.Background(), "session-1")
	require.NoError(t, err)
	first[0].Items[0] = "mutated"
	first[0].ID = "mutated"

	second, _, err := store.Get(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, "one", second[0].Items[0], "cached rounds must be immutable")
	assert.Equal(t, "ai-4", second[0].ID)
}

func TestMemoryRoundStoreLastWriteWins(t *testing.T) {
	store := NewMemoryRoundStore()
	batch := sampleBatch()

	require.NoError(t, store.Put(context.Background(), "session-1", batch))

	replacement := sampleBatch()
	replacement[0].ID = "ai-4-second"
	require.NoError(t, store.Put(context.Background(), "session-1", replacement))

	got, ok, err := store.Get(context.Background(), "session-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ai-4-second", got[0].ID)
}

func TestMemoryRoundStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryRoundStore()
	batch := sampleBatch()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(2)
		sessionID := fmt.Sprintf("session-%d", i%4)
		go func() {
			defer wg.Done()
			_ = store.Put(context.Background(), sessionID, batch)
		}()
		go func() {
			defer wg.Done()
			_, _, _ = store.Get(context.Background(), sessionID)
		}()
	}
	wg.Wait()
}
