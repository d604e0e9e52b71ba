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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/lexiassist-backend/internal/storybook"
	"github.com/your-org/lexiassist-backend/internal/worddetective"
)

func (s *Server) handleGenerateRounds(c *gin.Context) {
	var req storybook.GenerateRoundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request payload", "INVALID_PAYLOAD", nil)
		return
	}
	c.JSON(http.StatusOK, s.storybook.GenerateRounds(c.Request.Context(), req))
}

func (s *Server) handleAnalyzeResponse(c *gin.Context) {
	var req storybook.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request payload", "INVALID_PAYLOAD", nil)
		return
	}
	c.JSON(http.StatusOK, s.storybook.AnalyzeResponse(c.Request.Context(), req))
}

func (s *Server) handleStorybookHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":             "ok",
		"api_key_configured": s.storybook.Configured(),
	})
}

func (s *Server) handleGenerateWords(c *gin.Context) {
	var req worddetective.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request payload", "INVALID_PAYLOAD", nil)
		return
	}
	c.JSON(http.StatusOK, s.words.GenerateWords(c.Request.Context(), req))
}

func (s *Server) handleAnalyzeWords(c *gin.Context) {
	var req worddetective.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request payload", "INVALID_PAYLOAD", nil)
		return
	}
	c.JSON(http.StatusOK, s.words.Analyze(req))
}
