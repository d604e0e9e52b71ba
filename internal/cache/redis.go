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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/your-org/lexiassist-backend/internal/storybook"
)

const (
	redisKeyPrefix   = "lexiassist:rounds:"
	redisDialTimeout = 5 * time.Second
)

// RedisRoundStore is a Redis-backed round store. Batches are stored as JSON
// under a prefixed session key with a TTL, so state survives restarts and is
// shared across service instances.
type RedisRoundStore struct {
	client *goredis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisRoundStore connects to Redis and verifies the connection with a
// ping. A zero ttl keeps entries until Redis evicts them.
func NewRedisRoundStore(addr, password string, db int, ttl time.Duration, logger *zap.Logger) (*RedisRoundStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: redisDialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisRoundStore{client: client, ttl: ttl, logger: logger}, nil
}

// Get implements storybook.RoundStore.
func (r *RedisRoundStore) Get(ctx context.Context, sessionID string) ([]storybook.Round, bool, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var rounds []storybook.Round
	if err := json.Unmarshal(data, &rounds); err != nil {
		// A corrupt entry is treated as a miss; the pipeline regenerates.
		r.logger.Warn("Discarding corrupt cached round batch",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, false, nil
	}
	return rounds, true, nil
}

// Put implements storybook.RoundStore.
func (r *RedisRoundStore) Put(ctx context.Context, sessionID string, rounds []storybook.Round) error {
	data, err := json.Marshal(rounds)
	if err != nil {
		return fmt.Errorf("marshal round batch: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+sessionID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (r *RedisRoundStore) Close() error {
	return r.client.Close()
}
