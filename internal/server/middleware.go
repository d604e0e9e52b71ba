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

package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/your-org/lexiassist-backend/internal/auth"
	"github.com/your-org/lexiassist-backend/internal/store"
)

const parentContextKey = "parent"

// requireAuth resolves the session cookie into the owning parent account.
func (s *Server) requireAuth(c *gin.Context) {
	token, err := c.Cookie(auth.CookieName)
	if err != nil || token == "" {
		respondError(c, http.StatusUnauthorized, "Not authenticated", "NOT_AUTHENTICATED", nil)
		c.Abort()
		return
	}

	parentID, err := s.tokens.VerifyToken(token)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Invalid or expired token", "INVALID_TOKEN", nil)
		c.Abort()
		return
	}

	parent, err := s.store.ParentByID(c.Request.Context(), parentID)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Invalid or expired token", "INVALID_TOKEN", nil)
		c.Abort()
		return
	}

	c.Set(parentContextKey, parent)
	c.Next()
}

// currentParent returns the parent resolved by requireAuth.
func currentParent(c *gin.Context) *store.Parent {
	return c.MustGet(parentContextKey).(*store.Parent)
}

// bufferingWriter duplicates everything written to the response so the
// capture middleware can persist it afterwards.
type bufferingWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bufferingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bufferingWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// captureStorybook records every storybook generation and analysis exchange
// as a correlation document keyed by session and student. Persistence
// failures are logged, never surfaced: capture must not block the response.
func (s *Server) captureStorybook(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Next()
		return
	}

	var reqBody []byte
	if c.Request.Body != nil {
		reqBody, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(reqBody))
	}

	writer := &bufferingWriter{ResponseWriter: c.Writer}
	c.Writer = writer

	c.Next()

	var reqFields struct {
		SessionID string `json:"sessionId"`
		StudentID string `json:"studentId"`
	}
	_ = json.Unmarshal(reqBody, &reqFields)

	reqJSON := jsonOrEmptyObject(reqBody)
	respJSON := jsonOrEmptyObject(writer.buf.Bytes())
	path := c.Request.URL.Path
	ctx := c.Request.Context()

	var err error
	switch {
	case strings.HasSuffix(path, "/generate-rounds"):
		err = s.store.SaveAIRound(ctx, &store.AIRoundRecord{
			SessionID: reqFields.SessionID,
			Path:      path,
			Request:   reqJSON,
			Response:  respJSON,
		})
	case strings.HasSuffix(path, "/analyze-response"):
		err = s.store.SaveAIAnalysis(ctx, &store.AIAnalysisRecord{
			SessionID: reqFields.SessionID,
			StudentID: reqFields.StudentID,
			Path:      path,
			Request:   reqJSON,
			Analysis:  respJSON,
		})
	}
	if err != nil {
		s.logger.Warn("Failed to persist storybook capture",
			zap.String("path", path),
			zap.Error(err),
		)
	}
}

func jsonOrEmptyObject(b []byte) datatypes.JSON {
	if json.Valid(b) && len(bytes.TrimSpace(b)) > 0 {
		return datatypes.JSON(b)
	}
	return datatypes.JSON([]byte("{}"))
}
