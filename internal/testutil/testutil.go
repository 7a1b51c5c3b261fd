// Package testutil provides shared helpers for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"photoshare/internal/imaging"
	"photoshare/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTestDB opens an isolated in-memory SQLite database with the full schema
// migrated and foreign keys enforced, so cascade behaviour matches production.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys = ON")

	if err := db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Post{},
		&models.Comment{},
		&models.Rating{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM ratings")
		db.Exec("DELETE FROM comments")
		db.Exec("DELETE FROM post_m2m_tag")
		db.Exec("DELETE FROM posts")
		db.Exec("DELETE FROM tags")
		db.Exec("DELETE FROM users")
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateTestUser inserts a user with a unique email.
func CreateTestUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Email:     fmt.Sprintf("user-%s-%d@example.com", role, userSeq(db)),
		FirstName: "Test",
		LastName:  "User",
		Password:  "$2a$10$0000000000000000000000000000000000000000000000000000",
		Role:      role,
		Confirmed: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func userSeq(db *gorm.DB) int64 {
	var n int64
	db.Model(&models.User{}).Count(&n)
	return n + 1
}

// StubStorage is an imaging.Storage that records calls and returns canned URLs.
type StubStorage struct {
	UploadCalls    int
	TransformCalls int
	DeleteCalls    int
	UploadErr      error
	TransformErr   error
	LastEffect     imaging.Effect
}

func (s *StubStorage) Upload(_ context.Context, _ []byte, _ string) (string, string, error) {
	s.UploadCalls++
	if s.UploadErr != nil {
		return "", "", s.UploadErr
	}
	publicID := fmt.Sprintf("stub-%d", s.UploadCalls)
	return "https://cdn.example.com/" + publicID + ".webp", publicID, nil
}

func (s *StubStorage) Transform(_ context.Context, publicID string, effect imaging.Effect) (string, error) {
	s.TransformCalls++
	s.LastEffect = effect
	if s.TransformErr != nil {
		return "", s.TransformErr
	}
	return fmt.Sprintf("https://cdn.example.com/%s_%s.webp", publicID, effect), nil
}

func (s *StubStorage) Delete(_ context.Context, _ string) error {
	s.DeleteCalls++
	return nil
}

// StubMailer records confirmation and reset mail sends.
type StubMailer struct {
	Sent      []string
	ResetSent []string
	Err       error
}

func (m *StubMailer) SendConfirmation(to, _ string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, to)
	return nil
}

func (m *StubMailer) SendReset(to, _ string) error {
	if m.Err != nil {
		return m.Err
	}
	m.ResetSent = append(m.ResetSent, to)
	return nil
}
