package models

import "gorm.io/gorm"

type ObjectiveType string

const (
	ObjectiveTypePersonal     ObjectiveType = "personal"
	ObjectiveTypeTeam         ObjectiveType = "team"
	ObjectiveTypeOrganization ObjectiveType = "organization"
)

func (t ObjectiveType) Valid() bool {
	switch t {
	case ObjectiveTypePersonal, ObjectiveTypeTeam, ObjectiveTypeOrganization:
		return true
	}
	return false
}

type ObjectiveStatus string

const (
	ObjectiveStatusDraft     ObjectiveStatus = "draft"
	ObjectiveStatusActive    ObjectiveStatus = "active"
	ObjectiveStatusCompleted ObjectiveStatus = "completed"
	ObjectiveStatusCancelled ObjectiveStatus = "cancelled"
)

func (s ObjectiveStatus) Valid() bool {
	switch s {
	case ObjectiveStatusDraft, ObjectiveStatusActive, ObjectiveStatusCompleted, ObjectiveStatusCancelled:
		return true
	}
	return false
}

type KeyResultType string

const (
	KeyResultTypePercentage KeyResultType = "percentage"
	KeyResultTypeNumber     KeyResultType = "number"
	KeyResultTypeBoolean    KeyResultType = "boolean"
)

func (t KeyResultType) Valid() bool {
	switch t {
	case KeyResultTypePercentage, KeyResultTypeNumber, KeyResultTypeBoolean:
		return true
	}
	return false
}

type KeyResultStatus string

const (
	KeyResultStatusActive    KeyResultStatus = "active"
	KeyResultStatusCompleted KeyResultStatus = "completed"
	KeyResultStatusCancelled KeyResultStatus = "cancelled"
)

func (s KeyResultStatus) Valid() bool {
	switch s {
	case KeyResultStatusActive, KeyResultStatusCompleted, KeyResultStatusCancelled:
		return true
	}
	return false
}

type Objective struct {
	ID          string          `gorm:"type:varchar(36);primarykey" json:"id"`
	Title       string          `gorm:"type:varchar(200);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Type        ObjectiveType   `gorm:"type:varchar(20);not null" json:"type"`
	OwnerID     string          `gorm:"type:varchar(36);not null;index" json:"owner_id"`
	TeamID      *string         `gorm:"type:varchar(36);index" json:"team_id"`
	ParentID    *string         `gorm:"type:varchar(36);index" json:"parent_id"`
	StartDate   int64           `gorm:"not null" json:"start_date"`
	EndDate     int64           `gorm:"not null" json:"end_date"`
	Status      ObjectiveStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	SearchText  string          `gorm:"type:text" json:"-"`
	CreatedAt   int64           `gorm:"autoCreateTime:milli;index" json:"created_at"`
	UpdatedAt   int64           `gorm:"autoUpdateTime:milli" json:"updated_at"`

	// Relations
	KeyResults []KeyResult `gorm:"foreignKey:ObjectiveID;constraint:OnDelete:CASCADE" json:"key_results,omitempty"`
}

func (o *Objective) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = NewID()
	}
	return nil
}

// IsOwnedBy reports whether userID owns the objective.
func (o *Objective) IsOwnedBy(userID string) bool {
	return o.OwnerID == userID
}

// CanBeAccessedBy reports whether userID may read the objective. Team and
// organization objectives are readable by any authenticated user.
func (o *Objective) CanBeAccessedBy(userID string) bool {
	if o.IsOwnedBy(userID) {
		return true
	}
	return o.Type == ObjectiveTypeTeam || o.Type == ObjectiveTypeOrganization
}

// CanBeEditedBy reports whether userID may modify the objective and its key results.
func (o *Objective) CanBeEditedBy(userID string) bool {
	return o.IsOwnedBy(userID)
}

type KeyResult struct {
	ID           string          `gorm:"type:varchar(36);primarykey" json:"id"`
	ObjectiveID  string          `gorm:"type:varchar(36);not null;index" json:"objective_id"`
	Title        string          `gorm:"type:varchar(200);not null" json:"title"`
	Description  string          `gorm:"type:text" json:"description"`
	Type         KeyResultType   `gorm:"type:varchar(20);not null" json:"type"`
	TargetValue  float64         `gorm:"not null" json:"target_value"`
	CurrentValue float64         `gorm:"not null;default:0" json:"current_value"`
	Unit         string          `gorm:"type:varchar(50)" json:"unit"`
	StartDate    int64           `gorm:"not null" json:"start_date"`
	EndDate      int64           `gorm:"not null" json:"end_date"`
	Status       KeyResultStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt    int64           `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt    int64           `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

func (k *KeyResult) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = NewID()
	}
	return nil
}
