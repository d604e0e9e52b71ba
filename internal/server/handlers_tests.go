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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/your-org/lexiassist-backend/internal/store"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// testSubmitRequest is the generic submission shape shared by all three
// mini-games; results keeps each game's own result schema.
type testSubmitRequest struct {
	TestType     string          `json:"testType" binding:"required"`
	StudentID    string          `json:"studentId" binding:"required"`
	Results      json.RawMessage `json:"results" binding:"required"`
	Metadata     json.RawMessage `json:"metadata"`
	QuestionData json.RawMessage `json:"questionData"`
	RoundData    json.RawMessage `json:"roundData"`
	WordPairs    json.RawMessage `json:"wordPairs"`
}

func (s *Server) handleSubmitTest(c *gin.Context) {
	var req testSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid test payload", "INVALID_PAYLOAD", nil)
		return
	}

	ctx := c.Request.Context()
	parent := currentParent(c)

	if _, err := s.store.StudentByID(ctx, req.StudentID, parent.ID); err != nil {
		respondError(c, http.StatusNotFound,
			"Student not found or not owned by authenticated parent", "STUDENT_NOT_FOUND", nil)
		return
	}

	record := &store.TestRecord{
		StudentID:    req.StudentID,
		TestType:     req.TestType,
		Results:      jsonOrEmptyObject(req.Results),
		Metadata:     jsonOrEmptyObject(req.Metadata),
		QuestionData: datatypes.JSON(req.QuestionData),
		RoundData:    datatypes.JSON(req.RoundData),
		WordPairs:    datatypes.JSON(req.WordPairs),
	}

	// The server-side analysis recorded during the storybook session is the
	// trusted one; a frontend-supplied analysis is kept but labeled.
	var resultFields struct {
		SessionID  string          `json:"sessionId"`
		AIAnalysis json.RawMessage `json:"aiAnalysis"`
	}
	_ = json.Unmarshal(req.Results, &resultFields)

	if rec, err := s.store.LatestAnalysis(ctx, resultFields.SessionID, req.StudentID); err == nil && len(rec.Analysis) > 0 {
		record.AIAnalysis = rec.Analysis
	} else if len(resultFields.AIAnalysis) > 0 {
		labeled, err := json.Marshal(gin.H{"source": "frontend", "analysis": resultFields.AIAnalysis})
		if err == nil {
			record.AIAnalysis = datatypes.JSON(labeled)
		}
	}

	if err := s.store.CreateTest(ctx, record); err != nil {
		s.logger.Error("Failed to store test submission", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to store test", "INTERNAL", nil)
		return
	}

	respondSuccess(c, http.StatusCreated, "Test submitted", gin.H{"testId": record.ID})
}

func (s *Server) handleTestHistory(c *gin.Context) {
	ctx := c.Request.Context()
	parent := currentParent(c)

	limit := parseQueryInt(c, "limit", defaultHistoryLimit)
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset := parseQueryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	students, err := s.store.StudentsByParent(ctx, parent.ID)
	if err != nil {
		s.logger.Error("Failed to list students for history", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to load history", "INTERNAL", nil)
		return
	}
	studentIDs := make([]string, len(students))
	for i, st := range students {
		studentIDs[i] = st.ID
	}

	tests, total, err := s.store.TestHistory(ctx, studentIDs, c.Query("testType"), limit, offset)
	if err != nil {
		s.logger.Error("Failed to load test history", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to load history", "INTERNAL", nil)
		return
	}
	if tests == nil {
		tests = []store.TestRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"total": total, "tests": tests}})
}

func (s *Server) handleTestDetail(c *gin.Context) {
	ctx := c.Request.Context()
	parent := currentParent(c)

	test, err := s.store.TestByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Test not found", "TEST_NOT_FOUND", nil)
			return
		}
		s.logger.Error("Failed to fetch test", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to fetch test", "INTERNAL", nil)
		return
	}

	if _, err := s.store.StudentByID(ctx, test.StudentID, parent.ID); err != nil {
		respondError(c, http.StatusForbidden, "Not authorized to view this test", "NOT_AUTHORIZED", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": test})
}

func parseQueryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
