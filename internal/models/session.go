package models

type Session struct {
	ID        string `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID    string `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Token     string `gorm:"type:varchar(128);uniqueIndex;not null" json:"-"`
	ExpiresAt int64  `gorm:"index;not null" json:"expires_at"`
	CreatedAt int64  `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt int64  `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

// IsExpired reports whether the session has expired at now (epoch millis).
func (s *Session) IsExpired(now int64) bool {
	return s.ExpiresAt <= now
}

type EmailVerificationToken struct {
	Token     string `gorm:"type:varchar(128);primarykey"`
	UserID    string `gorm:"type:varchar(36);index;not null"`
	ExpiresAt int64  `gorm:"not null"`
	CreatedAt int64  `gorm:"autoCreateTime:milli"`
}

type PasswordResetToken struct {
	Token     string `gorm:"type:varchar(128);primarykey"`
	UserID    string `gorm:"type:varchar(36);index;not null"`
	ExpiresAt int64  `gorm:"not null"`
	CreatedAt int64  `gorm:"autoCreateTime:milli"`
}
