package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/Akinaru/event-poll/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Query helpers over DB. Lookups that find nothing return gorm.ErrRecordNotFound.
// Writes not covered here are issued by the handlers directly on DB, one unit
// of work per request.

// HashPassword returns the bcrypt hash stored in users.password_hash
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// FindUserByCredentials matches the username ignoring case and the password
// against its hash. Any mismatch is reported as gorm.ErrRecordNotFound.
func FindUserByCredentials(username, password string) (*models.User, error) {
	var user models.User
	if err := DB.Where("username_key = ?", models.NormalizeUsername(username)).First(&user).Error; err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, gorm.ErrRecordNotFound
	}

	return &user, nil
}

// UsernameExists reports whether a user with this name exists, ignoring case
func UsernameExists(username string) (bool, error) {
	var count int64
	err := DB.Model(&models.User{}).
		Where("username_key = ?", models.NormalizeUsername(username)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateUser hashes the password and inserts the user
func CreateUser(username, password, role string) (*models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := DB.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// pollsQuery loads polls with their creator, plus votes and voters when asked
func pollsQuery(includeVotes bool) *gorm.DB {
	query := DB.Preload("User")

	if includeVotes {
		query = query.Preload("Votes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created ASC")
		}).Preload("Votes.User")
	}

	return query
}

// GetPolls returns every poll ordered by id
func GetPolls(includeVotes bool) ([]models.Poll, error) {
	polls := []models.Poll{}
	if err := pollsQuery(includeVotes).Order("id ASC").Find(&polls).Error; err != nil {
		return nil, err
	}
	return polls, nil
}

// FindPoll returns one poll, loaded like GetPolls
func FindPoll(id uint, includeVotes bool) (*models.Poll, error) {
	var poll models.Poll
	if err := pollsQuery(includeVotes).First(&poll, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &poll, nil
}

// PollExists reports whether a poll with this id exists
func PollExists(id uint) (bool, error) {
	var count int64
	if err := DB.Model(&models.Poll{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindVote returns the vote of userID on pollID with its voter
func FindVote(pollID, userID uint) (*models.Vote, error) {
	var vote models.Vote
	err := DB.Preload("User").
		Where("poll_id = ? AND user_id = ?", pollID, userID).
		First(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// UpsertVote records the vote of userID on pollID. The first write stores
// created; later writes only change status. Both branches are one statement
// on the (poll_id, user_id) key, so concurrent first votes cannot collide.
func UpsertVote(pollID, userID uint, status bool, now time.Time) (*models.Vote, error) {
	vote := models.Vote{
		PollID:  pollID,
		UserID:  userID,
		Status:  status,
		Created: now,
	}

	err := DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "poll_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status"}),
	}).Create(&vote).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert vote: %w", err)
	}

	return FindVote(pollID, userID)
}

// DeleteVote removes the vote of userID on pollID
func DeleteVote(pollID, userID uint) error {
	result := DB.Where("poll_id = ? AND user_id = ?", pollID, userID).Delete(&models.Vote{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsNotFound reports whether err means the row does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
