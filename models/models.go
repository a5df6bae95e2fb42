package models

import (
	"time"
)

// Poll model: an event that users answer yes or no to
type Poll struct {
	ID          uint      `gorm:"primaryKey;column:id"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description;not null"`
	ImageName   *string   `gorm:"column:image_name"`
	EventDate   time.Time `gorm:"column:event_date;not null"`
	UserID      uint      `gorm:"column:user_id;not null;index"`

	User  *User  `gorm:"foreignKey:UserID"`
	Votes []Vote `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE"`
}

func (Poll) TableName() string {
	return "polls"
}

// Vote model, at most one per (poll, user)
type Vote struct {
	PollID  uint      `gorm:"primaryKey;autoIncrement:false;column:poll_id"`
	UserID  uint      `gorm:"primaryKey;autoIncrement:false;column:user_id;index"`
	Status  bool      `gorm:"column:status;not null"`
	Created time.Time `gorm:"column:created;not null"`

	User *User `gorm:"foreignKey:UserID"`
}

func (Vote) TableName() string {
	return "votes"
}
