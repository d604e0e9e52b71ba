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

// Package store persists accounts, student profiles, submitted tests and the
// AI correlation records. Documents with flexible shapes live in JSON columns.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken is returned when a parent registration reuses an email.
	ErrEmailTaken = errors.New("email already registered")
)

// Store wraps the database handle.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to the configured database. Supported drivers are "postgres"
// and "sqlite".
func Open(driver, dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	logger.Info("Database connected", zap.String("driver", driver))
	return &Store{db: db, logger: logger}, nil
}

// Migrate creates or updates the schema for all models.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(
		&Parent{},
		&Student{},
		&TestRecord{},
		&AIRoundRecord{},
		&AIAnalysisRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateParent inserts a new parent account. The email must be unused.
func (s *Store) CreateParent(ctx context.Context, parent *Parent) error {
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	parent.Email = strings.ToLower(parent.Email)

	err := s.db.WithContext(ctx).Create(parent).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailTaken
	}
	return err
}

// ParentByEmail looks a parent up by email, case-insensitively.
func (s *Store) ParentByEmail(ctx context.Context, email string) (*Parent, error) {
	var parent Parent
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&parent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &parent, nil
}

// ParentByID fetches a parent account.
func (s *Store) ParentByID(ctx context.Context, id string) (*Parent, error) {
	var parent Parent
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&parent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &parent, nil
}

// CreateStudent inserts a new student profile.
func (s *Store) CreateStudent(ctx context.Context, student *Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(student).Error
}

// StudentsByParent lists all students owned by a parent.
func (s *Store) StudentsByParent(ctx context.Context, parentID string) ([]Student, error) {
	var students []Student
	err := s.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&students).Error
	return students, err
}

// StudentByID fetches one student, scoped to the owning parent.
func (s *Store) StudentByID(ctx context.Context, studentID, parentID string) (*Student, error) {
	var student Student
	err := s.db.WithContext(ctx).
		Where("id = ? AND parent_id = ?", studentID, parentID).
		First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// UpdateStudent applies a partial update to a parent-owned student.
// Returns ErrNotFound when the student does not exist or belongs to a
// different parent.
func (s *Store) UpdateStudent(ctx context.Context, studentID, parentID string, updates map[string]any) error {
	if len(updates) == 0 {
		_, err := s.StudentByID(ctx, studentID, parentID)
		return err
	}
	res := s.db.WithContext(ctx).
		Model(&Student{}).
		Where("id = ? AND parent_id = ?", studentID, parentID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteStudent removes a parent-owned student.
func (s *Store) DeleteStudent(ctx context.Context, studentID, parentID string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND parent_id = ?", studentID, parentID).
		Delete(&Student{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateTest inserts a submitted test.
func (s *Store) CreateTest(ctx context.Context, test *TestRecord) error {
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(test).Error
}

// TestByID fetches one test record.
func (s *Store) TestByID(ctx context.Context, testID string) (*TestRecord, error) {
	var test TestRecord
	err := s.db.WithContext(ctx).Where("id = ?", testID).First(&test).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &test, nil
}

// TestHistory lists tests for a set of students, newest first, optionally
// filtered by test type and paginated by limit/offset. The returned total is
// the unpaginated match count.
func (s *Store) TestHistory(ctx context.Context, studentIDs []string, testType string, limit, offset int) ([]TestRecord, int64, error) {
	if len(studentIDs) == 0 {
		return nil, 0, nil
	}

	query := s.db.WithContext(ctx).Model(&TestRecord{}).Where("student_id IN ?", studentIDs)
	if testType != "" {
		query = query.Where("test_type = ?", testType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tests []TestRecord
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&tests).Error
	return tests, total, err
}

// SaveAIRound appends a generate-rounds correlation record.
func (s *Store) SaveAIRound(ctx context.Context, rec *AIRoundRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(rec).Error
}

// SaveAIAnalysis appends an analyze-response correlation record.
func (s *Store) SaveAIAnalysis(ctx context.Context, rec *AIAnalysisRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(rec).Error
}

// LatestAnalysis resolves the trusted server-side analysis for a submission.
// Session lookup wins when a session id is supplied; otherwise the newest
// analysis recorded for the student is used. Returns ErrNotFound when
// neither matches.
func (s *Store) LatestAnalysis(ctx context.Context, sessionID, studentID string) (*AIAnalysisRecord, error) {
	var rec AIAnalysisRecord

	query := s.db.WithContext(ctx).Order("created_at DESC")
	switch {
	case sessionID != "":
		query = query.Where("session_id = ?", sessionID)
	case studentID != "":
		query = query.Where("student_id = ?", studentID)
	default:
		return nil, ErrNotFound
	}

	err := query.First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
