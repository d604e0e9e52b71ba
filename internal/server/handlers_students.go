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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/your-org/lexiassist-backend/internal/store"
)

// studentPayload is the child intake section shared by registration and
// standalone student creation.
type studentPayload struct {
	ChildName        string   `json:"childName" binding:"required"`
	ChildAge         string   `json:"childAge" binding:"required"`
	ChildGrade       string   `json:"childGrade" binding:"required"`
	PrimaryLanguage  string   `json:"primaryLanguage" binding:"required"`
	LanguagesCanRead []string `json:"languagesCanRead"`

	StrugglingWithReading string `json:"strugglingWithReading"`
	LetterMixups          string `json:"letterMixups"`
	FeelingAboutReading   string `json:"feelingAboutReading"`
	TeacherMentioned      string `json:"teacherMentioned"`
	DifficultySpelling    string `json:"difficultySpelling"`
	PrefersListening      string `json:"prefersListening"`

	ProblemsSince   string   `json:"problemsSince"`
	ProblemAreas    []string `json:"problemAreas"`
	AdditionalInfo  string   `json:"additionalInfo"`
	ConsentAnalysis bool     `json:"consentAnalysis"`
}

func (p *studentPayload) toModel(parentID string) (*store.Student, error) {
	languages, err := json.Marshal(p.LanguagesCanRead)
	if err != nil {
		return nil, err
	}
	areas, err := json.Marshal(p.ProblemAreas)
	if err != nil {
		return nil, err
	}

	return &store.Student{
		ParentID:              parentID,
		ChildName:             p.ChildName,
		ChildAge:              p.ChildAge,
		ChildGrade:            p.ChildGrade,
		PrimaryLanguage:       p.PrimaryLanguage,
		LanguagesCanRead:      datatypes.JSON(languages),
		StrugglingWithReading: p.StrugglingWithReading,
		LetterMixups:          p.LetterMixups,
		FeelingAboutReading:   p.FeelingAboutReading,
		TeacherMentioned:      p.TeacherMentioned,
		DifficultySpelling:    p.DifficultySpelling,
		PrefersListening:      p.PrefersListening,
		ProblemsSince:         p.ProblemsSince,
		ProblemAreas:          datatypes.JSON(areas),
		AdditionalInfo:        p.AdditionalInfo,
		ConsentAnalysis:       p.ConsentAnalysis,
	}, nil
}

// studentUpdateRequest allows partial updates; only supplied fields change.
type studentUpdateRequest struct {
	ChildName        *string   `json:"childName"`
	ChildAge         *string   `json:"childAge"`
	ChildGrade       *string   `json:"childGrade"`
	PrimaryLanguage  *string   `json:"primaryLanguage"`
	LanguagesCanRead *[]string `json:"languagesCanRead"`

	StrugglingWithReading *string `json:"strugglingWithReading"`
	LetterMixups          *string `json:"letterMixups"`
	FeelingAboutReading   *string `json:"feelingAboutReading"`
	TeacherMentioned      *string `json:"teacherMentioned"`
	DifficultySpelling    *string `json:"difficultySpelling"`
	PrefersListening      *string `json:"prefersListening"`

	ProblemsSince  *string   `json:"problemsSince"`
	ProblemAreas   *[]string `json:"problemAreas"`
	AdditionalInfo *string   `json:"additionalInfo"`
}

func (r *studentUpdateRequest) toUpdates() (map[string]any, error) {
	updates := make(map[string]any)

	setString := func(column string, v *string) {
		if v != nil {
			updates[column] = *v
		}
	}
	setString("child_name", r.ChildName)
	setString("child_age", r.ChildAge)
	setString("child_grade", r.ChildGrade)
	setString("primary_language", r.PrimaryLanguage)
	setString("struggling_with_reading", r.StrugglingWithReading)
	setString("letter_mixups", r.LetterMixups)
	setString("feeling_about_reading", r.FeelingAboutReading)
	setString("teacher_mentioned", r.TeacherMentioned)
	setString("difficulty_spelling", r.DifficultySpelling)
	setString("prefers_listening", r.PrefersListening)
	setString("problems_since", r.ProblemsSince)
	setString("additional_info", r.AdditionalInfo)

	if r.LanguagesCanRead != nil {
		b, err := json.Marshal(*r.LanguagesCanRead)
		if err != nil {
			return nil, err
		}
		updates["languages_can_read"] = datatypes.JSON(b)
	}
	if r.ProblemAreas != nil {
		b, err := json.Marshal(*r.ProblemAreas)
		if err != nil {
			return nil, err
		}
		updates["problem_areas"] = datatypes.JSON(b)
	}

	return updates, nil
}

func (s *Server) handleCreateStudent(c *gin.Context) {
	var req studentPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid student payload", "INVALID_PAYLOAD", nil)
		return
	}

	student, err := req.toModel(currentParent(c).ID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid student payload", "INVALID_PAYLOAD", nil)
		return
	}

	if err := s.store.CreateStudent(c.Request.Context(), student); err != nil {
		s.logger.Error("Failed to create student", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to create student", "INTERNAL", nil)
		return
	}

	respondSuccess(c, http.StatusCreated, "Student created successfully", gin.H{"studentId": student.ID})
}

func (s *Server) handleListStudents(c *gin.Context) {
	students, err := s.store.StudentsByParent(c.Request.Context(), currentParent(c).ID)
	if err != nil {
		s.logger.Error("Failed to list students", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list students", "INTERNAL", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": students})
}

func (s *Server) handleGetStudent(c *gin.Context) {
	student, err := s.store.StudentByID(c.Request.Context(), c.Param("id"), currentParent(c).ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Student not found", "STUDENT_NOT_FOUND", nil)
			return
		}
		s.logger.Error("Failed to fetch student", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to fetch student", "INTERNAL", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": student})
}

func (s *Server) handleUpdateStudent(c *gin.Context) {
	var req studentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid student payload", "INVALID_PAYLOAD", nil)
		return
	}

	updates, err := req.toUpdates()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid student payload", "INVALID_PAYLOAD", nil)
		return
	}

	err = s.store.UpdateStudent(c.Request.Context(), c.Param("id"), currentParent(c).ID, updates)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Student not found", "STUDENT_NOT_FOUND", nil)
			return
		}
		s.logger.Error("Failed to update student", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to update student", "INTERNAL", nil)
		return
	}

	respondSuccess(c, http.StatusOK, "Student updated successfully", nil)
}

func (s *Server) handleDeleteStudent(c *gin.Context) {
	err := s.store.DeleteStudent(c.Request.Context(), c.Param("id"), currentParent(c).ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Student not found", "STUDENT_NOT_FOUND", nil)
			return
		}
		s.logger.Error("Failed to delete student", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to delete student", "INTERNAL", nil)
		return
	}

	respondSuccess(c, http.StatusOK, "Student deleted successfully", nil)
}
