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

package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestManager_Check(t *testing.T) {
	logger := zap.NewNop()
	manager := NewManager("lexiassist", "1.0.0", logger)

	manager.AddCheckerFunc("healthy", func(ctx context.Context) CheckResult {
		return CheckResult{
			Status:    StatusHealthy,
			Timestamp: time.Now(),
		}
	})

	manager.AddCheckerFunc("unhealthy", func(ctx context.Context) CheckResult {
		return CheckResult{
			Status:    StatusUnhealthy,
			Error:     "service is down",
			Timestamp: time.Now(),
		}
	})

	ctx := context.Background()
	result := manager.Check(ctx)

	if result.Status != StatusUnhealthy {
		t.Errorf("Expected status to be unhealthy, got %s", result.Status)
	}

	if result.Service != "lexiassist" {
		t.Errorf("Expected service to be lexiassist, got %s", result.Service)
	}

	if len(result.Dependencies) != 2 {
		t.Errorf("Expected 2 dependencies, got %d", len(result.Dependencies))
	}

	if result.Dependencies["healthy"].Status != StatusHealthy {
		t.Errorf("Expected healthy dependency to be healthy, got %s",
			result.Dependencies["healthy"].Status)
	}
}

func TestManager_Check_DegradedDoesNotOverrideUnhealthy(t *testing.T) {
	manager := NewManager("lexiassist", "1.0.0", zap.NewNop())

	manager.AddCheckerFunc("down", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusUnhealthy}
	})
	manager.AddCheckerFunc("limping", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusDegraded}
	})

	result := manager.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy overall status, got %s", result.Status)
	}
}

func TestManager_Check_DegradedOnly(t *testing.T) {
	manager := NewManager("lexiassist", "1.0.0", zap.NewNop())

	manager.AddCheckerFunc("limping", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusDegraded}
	})

	result := manager.Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("Expected degraded overall status, got %s", result.Status)
	}
}

func TestManager_Check_AllHealthy(t *testing.T) {
	manager := NewManager("lexiassist", "1.0.0", zap.NewNop())

	manager.AddCheckerFunc("a", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy}
	})
	manager.AddCheckerFunc("b", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy}
	})

	result := manager.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Expected healthy overall status, got %s", result.Status)
	}
	if result.Metadata["go_version"] == nil {
		t.Error("Expected system metadata to include go_version")
	}
}

func TestDatabaseChecker(t *testing.T) {
	t.Run("healthy when ping succeeds", func(t *testing.T) {
		checker := DatabaseChecker("sqlite", func(ctx context.Context) error {
			return nil
		})

		result := checker.Check(context.Background())
		if result.Status != StatusHealthy {
			t.Errorf("Expected healthy status, got %s", result.Status)
		}
		if result.Metadata["driver"] != "sqlite" {
			t.Errorf("Expected driver metadata sqlite, got %v", result.Metadata["driver"])
		}
	})

	t.Run("unhealthy when ping fails", func(t *testing.T) {
		checker := DatabaseChecker("postgres", func(ctx context.Context) error {
			return errors.New("connection refused")
		})

		result := checker.Check(context.Background())
		if result.Status != StatusUnhealthy {
			t.Errorf("Expected unhealthy status, got %s", result.Status)
		}
		if result.Error == "" {
			t.Error("Expected error message to be set")
		}
	})
}

func TestGenerationChecker(t *testing.T) {
	t.Run("healthy when configured", func(t *testing.T) {
		checker := GenerationChecker("gemini", func() bool { return true })

		result := checker.Check(context.Background())
		if result.Status != StatusHealthy {
			t.Errorf("Expected healthy status, got %s", result.Status)
		}
		if result.Metadata["api_key_configured"] != true {
			t.Error("Expected api_key_configured metadata to be true")
		}
	})

	t.Run("degraded when unconfigured", func(t *testing.T) {
		checker := GenerationChecker("groq", func() bool { return false })

		result := checker.Check(context.Background())
		if result.Status != StatusDegraded {
			t.Errorf("Expected degraded status, got %s", result.Status)
		}
		if result.Metadata["api_key_configured"] != false {
			t.Error("Expected api_key_configured metadata to be false")
		}
	})
}

func TestManager_SetTimeout(t *testing.T) {
	manager := NewManager("lexiassist", "1.0.0", zap.NewNop())
	manager.SetTimeout(50 * time.Millisecond)

	manager.AddCheckerFunc("slow", func(ctx context.Context) CheckResult {
		select {
		case <-ctx.Done():
			return CheckResult{Status: StatusUnhealthy, Error: ctx.Err().Error()}
		case <-time.After(time.Second):
			return CheckResult{Status: StatusHealthy}
		}
	})

	start := time.Now()
	result := manager.Check(context.Background())
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Check ran past its timeout: %v", elapsed)
	}
	if result.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy status after timeout, got %s", result.Status)
	}
}
