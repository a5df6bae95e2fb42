package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Akinaru/event-poll/database"
	"github.com/Akinaru/event-poll/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB points database.DB at a fresh in-memory database with the full schema
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open("", &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	previous := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = previous
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// CreateTestUser inserts a user with a hashed password
func CreateTestUser(t *testing.T, username, password, role string) *models.User {
	t.Helper()

	user, err := database.CreateUser(username, password, role)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// CreateTestPoll inserts a poll owned by userID, dated one year from now
func CreateTestPoll(t *testing.T, userID uint, name string) *models.Poll {
	t.Helper()

	poll := models.Poll{
		Name:        name,
		Description: "A test poll",
		EventDate:   NextYear(),
		UserID:      userID,
	}
	if err := database.DB.Create(&poll).Error; err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}
	return &poll
}

// CreateTestVote inserts a vote of userID on pollID
func CreateTestVote(t *testing.T, pollID, userID uint, status bool) *models.Vote {
	t.Helper()

	vote := models.Vote{PollID: pollID, UserID: userID, Status: status, Created: time.Now()}
	if err := database.DB.Create(&vote).Error; err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}
	return &vote
}

// NextYear returns midnight UTC one year from today
func NextYear() time.Time {
	return time.Now().UTC().AddDate(1, 0, 0).Truncate(24 * time.Hour)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// BearerHeader returns the Authorization header for token
func BearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
