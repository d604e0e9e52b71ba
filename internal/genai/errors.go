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
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when a provider credential is absent.
// It is a configuration failure: the gateway fails fast without attempting
// a network call, and the health endpoint reports it separately from
// transient provider trouble.
var ErrNotConfigured = errors.New("provider credential not configured")

// TransientError indicates that every attempt against the provider failed.
// Callers route it to the fallback catalog.
type TransientError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("provider %s failed after %d attempts: %v", e.Provider, e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// MalformedOutputError indicates the provider answered but the text could not
// be coerced into the expected schema. For the caller it degrades exactly like
// a transient failure, but tests and logs can tell the categories apart.
type MalformedOutputError struct {
	Stage  string // "extract" or "validate"
	Reason string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed model output at %s: %s", e.Stage, e.Reason)
}
