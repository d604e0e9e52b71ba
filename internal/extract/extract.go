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

// Package extract recovers structured JSON payloads from raw generative-model
// text. Models routinely wrap their JSON in prose or markdown fences; the
// two-tier strategy here (strict parse, then outermost-bracket slice) recovers
// the common case cheaply and refuses to guess at anything worse. Absence of
// a payload is a normal outcome, not an error.
package extract

import (
	"encoding/json"
	"strings"
)

// Object parses raw text as a single JSON object. It first attempts a strict
// parse of the whole text, then retries on the substring between the first
// '{' and the last '}' inclusive. The returned message is compact, verbatim
// JSON; ok is false when no object can be recovered.
func Object(raw string) (json.RawMessage, bool) {
	return slice(raw, '{', '}')
}

// Array parses raw text as a single JSON array, with the same two-tier
// strategy over '[' and ']'. Used for payloads the provider returns as a
// bare list.
func Array(raw string) (json.RawMessage, bool) {
	return slice(raw, '[', ']')
}

func slice(raw string, open, close byte) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false
	}

	if msg, ok := parse(trimmed, open); ok {
		return msg, true
	}

	start := strings.IndexByte(trimmed, open)
	end := strings.LastIndexByte(trimmed, close)
	if start == -1 || end <= start {
		return nil, false
	}
	return parse(trimmed[start:end+1], open)
}

// parse validates candidate as JSON and checks the top-level value starts
// with the expected bracket, so an extractor asked for an object does not
// accept a bare number or string.
func parse(candidate string, open byte) (json.RawMessage, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || candidate[0] != open {
		return nil, false
	}
	var probe interface{}
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return nil, false
	}
	return json.RawMessage(candidate), true
}
