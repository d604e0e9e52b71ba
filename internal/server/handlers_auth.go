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
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/your-org/lexiassist-backend/internal/auth"
	"github.com/your-org/lexiassist-backend/internal/store"
)

// registerRequest is the five-step intake payload as the frontend sends it.
// Password is optional; a strong one is generated when absent.
type registerRequest struct {
	ParentName        string `json:"parentName" binding:"required"`
	Relationship      string `json:"relationship" binding:"required"`
	Email             string `json:"email" binding:"required,email"`
	Mobile            string `json:"mobile"`
	PreferredLanguage string `json:"preferredLanguage" binding:"required"`

	studentPayload

	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid registration payload", "INVALID_PAYLOAD", nil)
		return
	}

	if !req.ConsentAnalysis {
		respondError(c, http.StatusBadRequest, "Consent is required to submit registration", "CONSENT_REQUIRED",
			map[string]string{"consentAnalysis": "consentAnalysis must be true to submit registration"})
		return
	}

	password := req.Password
	if password == "" {
		generated, err := auth.GeneratePassword()
		if err != nil {
			s.logger.Error("Failed to generate password", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Registration failed", "INTERNAL", nil)
			return
		}
		password = generated
	}

	if pwErrs := auth.ValidatePassword(password); len(pwErrs) > 0 {
		respondError(c, http.StatusBadRequest, "Password does not meet requirements", "PASSWORD_INVALID",
			map[string]string{"password": strings.Join(pwErrs, " and ")})
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Registration failed", "INTERNAL", nil)
		return
	}

	ctx := c.Request.Context()
	parent := &store.Parent{
		ParentName:        req.ParentName,
		Relationship:      req.Relationship,
		Email:             req.Email,
		Mobile:            req.Mobile,
		PreferredLanguage: req.PreferredLanguage,
		PasswordHash:      hash,
	}
	if err := s.store.CreateParent(ctx, parent); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			respondError(c, http.StatusConflict, "Email already registered", "EMAIL_EXISTS",
				map[string]string{"email": "Email already in use"})
			return
		}
		s.logger.Error("Failed to create parent", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Registration failed", "INTERNAL", nil)
		return
	}

	student, err := req.studentPayload.toModel(parent.ID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid student payload", "INVALID_PAYLOAD", nil)
		return
	}
	if err := s.store.CreateStudent(ctx, student); err != nil {
		s.logger.Error("Failed to create student", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Registration failed", "INTERNAL", nil)
		return
	}

	token, err := s.tokens.IssueToken(parent.ID)
	if err != nil {
		s.logger.Error("Failed to issue token", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Registration failed", "INTERNAL", nil)
		return
	}
	s.setSessionCookie(c, token)

	respondSuccess(c, http.StatusCreated, "Registration successful", gin.H{
		"parentId":  parent.ID,
		"studentId": student.ID,
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid login payload", "INVALID_PAYLOAD", nil)
		return
	}

	parent, err := s.store.ParentByEmail(c.Request.Context(), req.Email)
	if err != nil || !auth.VerifyPassword(req.Password, parent.PasswordHash) {
		respondError(c, http.StatusUnauthorized, "Invalid credentials", "INVALID_CREDENTIALS", nil)
		return
	}

	token, err := s.tokens.IssueToken(parent.ID)
	if err != nil {
		s.logger.Error("Failed to issue token", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Login failed", "INTERNAL", nil)
		return
	}
	s.setSessionCookie(c, token)

	respondSuccess(c, http.StatusOK, "Login successful", gin.H{"parentId": parent.ID})
}

func (s *Server) handleMe(c *gin.Context) {
	parent := currentParent(c)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"id":                parent.ID,
		"parentName":        parent.ParentName,
		"email":             parent.Email,
		"preferredLanguage": parent.PreferredLanguage,
	}})
}
