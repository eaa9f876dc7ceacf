package models

import "gorm.io/gorm"

type Role struct {
	ID          string `gorm:"type:varchar(36);primarykey" json:"id"`
	Name        string `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	CreatedAt   int64  `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt   int64  `gorm:"autoUpdateTime:milli" json:"updated_at"`

	Permissions []Permission `gorm:"-" json:"permissions,omitempty"`
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	return nil
}

type Permission struct {
	ID          string `gorm:"type:varchar(36);primarykey" json:"id"`
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	CreatedAt   int64  `gorm:"autoCreateTime:milli" json:"created_at"`
}

func (p *Permission) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}

type RolePermission struct {
	RoleID       string `gorm:"type:varchar(36);primarykey"`
	PermissionID string `gorm:"type:varchar(36);primarykey;index"`
	CreatedAt    int64  `gorm:"autoCreateTime:milli"`
}
