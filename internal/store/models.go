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

package store

import (
	"time"

	"gorm.io/datatypes"
)

// Parent is a registered guardian account. Email is unique.
type Parent struct {
	ID                string `gorm:"primaryKey;size:36" json:"id"`
	ParentName        string `json:"parentName"`
	Relationship      string `json:"relationship"`
	Email             string `gorm:"uniqueIndex;size:320" json:"email"`
	Mobile            string `json:"mobile"`
	PreferredLanguage string `json:"preferredLanguage"`
	PasswordHash      string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
}

// Student is a child profile owned by a parent. The intake answers are kept
// verbatim as the registration flow collects them.
type Student struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	ParentID string `gorm:"index;size:36" json:"parentId"`

	ChildName        string         `json:"childName"`
	ChildAge         string         `json:"childAge"`
	ChildGrade       string         `json:"childGrade"`
	PrimaryLanguage  string         `json:"primaryLanguage"`
	LanguagesCanRead datatypes.JSON `json:"languagesCanRead"`

	StrugglingWithReading string `json:"strugglingWithReading"`
	LetterMixups          string `json:"letterMixups"`
	FeelingAboutReading   string `json:"feelingAboutReading"`
	TeacherMentioned      string `json:"teacherMentioned"`
	DifficultySpelling    string `json:"difficultySpelling"`
	PrefersListening      string `json:"prefersListening"`

	ProblemsSince   string         `json:"problemsSince"`
	ProblemAreas    datatypes.JSON `json:"problemAreas"`
	AdditionalInfo  string         `json:"additionalInfo"`
	ConsentAnalysis bool           `json:"consentAnalysis"`

	CreatedAt time.Time `json:"createdAt"`
}

// TestRecord is one submitted screening test. The free-form sections land in
// JSON columns so each mini-game can keep its own result shape.
type TestRecord struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	StudentID string `gorm:"index:idx_tests_student_type;size:36" json:"studentId"`
	TestType  string `gorm:"index:idx_tests_student_type;size:64" json:"testType"`

	Results      datatypes.JSON `json:"results"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`
	QuestionData datatypes.JSON `json:"questionData,omitempty"`
	RoundData    datatypes.JSON `json:"roundData,omitempty"`
	WordPairs    datatypes.JSON `json:"wordPairs,omitempty"`
	AIAnalysis   datatypes.JSON `json:"aiAnalysis,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// AIRoundRecord correlates a generate-rounds request with the batch that was
// served. Append-only.
type AIRoundRecord struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	SessionID string `gorm:"index;size:128" json:"sessionId"`
	Path      string `json:"path"`

	Request  datatypes.JSON `json:"request"`
	Response datatypes.JSON `json:"response"`

	CreatedAt time.Time `json:"createdAt"`
}

// AIAnalysisRecord correlates an analyze-response request with the analysis
// that was served. Append-only; the newest record per session or student is
// the trusted one.
type AIAnalysisRecord struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	SessionID string `gorm:"index;size:128" json:"sessionId"`
	StudentID string `gorm:"index;size:36" json:"studentId"`
	Path      string `json:"path"`

	Request  datatypes.JSON `json:"request"`
	Analysis datatypes.JSON `json:"analysis"`

	CreatedAt time.Time `json:"createdAt"`
}
