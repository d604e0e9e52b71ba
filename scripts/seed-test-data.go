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

// Seeds a local development database with a demo parent, a student, and
// a few finished screenings so the frontend has something to render.
package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/your-org/lexiassist-backend/internal/auth"
	"github.com/your-org/lexiassist-backend/internal/store"
)

const (
	DemoEmail    = "demo.parent@example.com"
	DemoPassword = "Demo-Pass1!"
)

func main() {
	log.Println("Seeding development data...")

	dsn := os.Getenv("LEXIASSIST_DATABASE_DSN")
	if dsn == "" {
		dsn = "./lexiassist.db"
	}
	driver := os.Getenv("LEXIASSIST_DATABASE_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}

	st, err := store.Open(driver, dsn, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() { _ = st.Close() }()

	if err := st.Migrate(); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	ctx := context.Background()

	if _, err := st.ParentByEmail(ctx, DemoEmail); err == nil {
		log.Printf("Demo account %s already exists, nothing to do", DemoEmail)
		return
	}

	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		log.Fatalf("Failed to hash demo password: %v", err)
	}

	parent := &store.Parent{
		ParentName:        "Demo Parent",
		Relationship:      "mother",
		Email:             DemoEmail,
		Mobile:            "+1-555-0100",
		PreferredLanguage: "english",
		PasswordHash:      hash,
	}
	if err := st.CreateParent(ctx, parent); err != nil {
		log.Fatalf("Failed to create demo parent: %v", err)
	}

	student := &store.Student{
		ParentID:              parent.ID,
		ChildName:             "Demo Child",
		ChildAge:              "8",
		ChildGrade:            "3",
		PrimaryLanguage:       "english",
		LanguagesCanRead:      datatypes.JSON(`["english"]`),
		StrugglingWithReading: "sometimes",
		LetterMixups:          "often",
		FeelingAboutReading:   "frustrated",
		TeacherMentioned:      "yes",
		DifficultySpelling:    "yes",
		PrefersListening:      "yes",
		ProblemsSince:         "kindergarten",
		ProblemAreas:          datatypes.JSON(`["reading","spelling"]`),
		AdditionalInfo:        "Seeded for local development.",
		ConsentAnalysis:       true,
	}
	if err := st.CreateStudent(ctx, student); err != nil {
		log.Fatalf("Failed to create demo student: %v", err)
	}

	tests := []*store.TestRecord{
		{
			StudentID: student.ID,
			TestType:  "letterMatch",
			Results:   datatypes.JSON(`{"correctAnswers": 7, "totalQuestions": 10, "totalTimeSec": 94.5}`),
			Metadata:  datatypes.JSON(`{"device": "tablet"}`),
		},
		{
			StudentID: student.ID,
			TestType:  "wordDetective",
			Results:   datatypes.JSON(`{"score": 4, "totalQuestions": 6, "accuracy": 66.67, "risk": "monitor"}`),
			WordPairs: datatypes.JSON(`[{"correct": "friend", "wrong": "freind"}, {"correct": "because", "wrong": "becuase"}]`),
		},
		{
			StudentID:  student.ID,
			TestType:   "storybook",
			Results:    datatypes.JSON(`{"sessionId": "seed-session-1", "roundsCompleted": 10}`),
			AIAnalysis: datatypes.JSON(`{"source": "fallback", "sequencing_accuracy": "medium", "risk_indicator": "monitor"}`),
		},
	}
	for _, rec := range tests {
		if err := st.CreateTest(ctx, rec); err != nil {
			log.Fatalf("Failed to create demo test %s: %v", rec.TestType, err)
		}
	}

	log.Printf("Seeded parent %s (password %q) with student %s and %d tests",
		DemoEmail, DemoPassword, student.ID, len(tests))
}
