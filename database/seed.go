package database

import (
	"fmt"
	"log"
	"time"

	"github.com/Akinaru/event-poll/models"
	"gorm.io/gorm"
)

// SeedDemoData fills an empty database with an admin, two users, one poll
// and one vote. It does nothing once any user exists.
func SeedDemoData() error {
	var count int64
	if err := DB.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	return DB.Transaction(func(tx *gorm.DB) error {
		users := []struct {
			username, password, role string
		}{
			{"admin", "admin", models.RoleAdmin},
			{"user1", "user1", ""},
			{"user2", "user2", ""},
		}

		created := make([]models.User, 0, len(users))
		for _, u := range users {
			hash, err := HashPassword(u.password)
			if err != nil {
				return err
			}
			user := models.User{Username: u.username, PasswordHash: hash, Role: u.role}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create user %s: %w", u.username, err)
			}
			created = append(created, user)
		}

		now := time.Now()
		poll := models.Poll{
			Name:        "Un premier événement",
			Description: "Ceci est un premier événement de test.",
			EventDate:   now.AddDate(0, 1, 0).Truncate(24 * time.Hour),
			UserID:      created[0].ID,
		}
		if err := tx.Create(&poll).Error; err != nil {
			return fmt.Errorf("failed to create poll: %w", err)
		}

		vote := models.Vote{
			PollID:  poll.ID,
			UserID:  created[1].ID,
			Status:  true,
			Created: now.AddDate(0, 0, -2),
		}
		if err := tx.Create(&vote).Error; err != nil {
			return fmt.Errorf("failed to create vote: %w", err)
		}

		log.Println("✅ Demo data seeded (admin/admin, user1/user1, user2/user2)")
		return nil
	})
}
