package models

import (
	"gorm.io/gorm"
)

type User struct {
	ID            string  `gorm:"type:varchar(36);primarykey" json:"id"`
	Email         string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name          string  `gorm:"type:varchar(100);not null" json:"name"`
	PasswordHash  string  `gorm:"type:varchar(255);not null" json:"-"`
	EmailVerified bool    `gorm:"not null;default:false" json:"email_verified"`
	AvatarURL     *string `gorm:"type:varchar(500)" json:"avatar_url"`
	SearchText    string  `gorm:"type:text" json:"-"`
	CreatedAt     int64   `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt     int64   `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}
