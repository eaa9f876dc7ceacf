package models

import "gorm.io/gorm"

type Team struct {
	ID          string `gorm:"type:varchar(36);primarykey" json:"id"`
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	CreatedByID string `gorm:"type:varchar(36);not null" json:"created_by_id"`
	CreatedAt   int64  `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt   int64  `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	return nil
}

type MemberStatus string

const (
	MemberStatusInvited  MemberStatus = "invited"
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

// TeamMember links a user to a team. At most one row exists per (team, user).
type TeamMember struct {
	ID          string       `gorm:"type:varchar(36);primarykey" json:"id"`
	TeamID      string       `gorm:"type:varchar(36);not null;uniqueIndex:idx_team_members_team_user" json:"team_id"`
	UserID      string       `gorm:"type:varchar(36);not null;uniqueIndex:idx_team_members_team_user;index" json:"user_id"`
	RoleID      string       `gorm:"type:varchar(36);not null" json:"role_id"`
	Status      MemberStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	InvitedByID *string      `gorm:"type:varchar(36)" json:"invited_by_id"`
	JoinedAt    *int64       `json:"joined_at"`
	CreatedAt   int64        `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt   int64        `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	return nil
}

// IsActive reports whether the membership grants access to the team.
func (m *TeamMember) IsActive() bool {
	return m != nil && m.Status == MemberStatusActive
}

type InvitationStatus string

const (
	InvitationStatusPending   InvitationStatus = "pending"
	InvitationStatusAccepted  InvitationStatus = "accepted"
	InvitationStatusExpired   InvitationStatus = "expired"
	InvitationStatusCancelled InvitationStatus = "cancelled"
)

type TeamInvitation struct {
	ID          string           `gorm:"type:varchar(36);primarykey" json:"id"`
	TeamID      string           `gorm:"type:varchar(36);not null;index" json:"team_id"`
	Email       string           `gorm:"type:varchar(255);not null;index" json:"email"`
	RoleID      string           `gorm:"type:varchar(36);not null" json:"role_id"`
	Token       string           `gorm:"type:varchar(128);uniqueIndex;not null" json:"-"`
	InvitedByID string           `gorm:"type:varchar(36);not null" json:"invited_by_id"`
	ExpiresAt   int64            `gorm:"not null" json:"expires_at"`
	Status      InvitationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt   int64            `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt   int64            `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

func (i *TeamInvitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = NewID()
	}
	return nil
}

// IsPending reports whether the invitation can still be accepted or cancelled.
func (i *TeamInvitation) IsPending() bool {
	return i.Status == InvitationStatusPending
}

// IsExpired reports whether the invitation has passed its expiry at now.
func (i *TeamInvitation) IsExpired(now int64) bool {
	return i.ExpiresAt <= now
}
