package dto

import (
	"time"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/services"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/utils"
)

// KeyResultDTO represents a key result in API responses
type KeyResultDTO struct {
	ID           string                 `json:"id"`
	ObjectiveID  string                 `json:"objectiveId"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Type         models.KeyResultType   `json:"type"`
	TargetValue  float64                `json:"targetValue"`
	CurrentValue float64                `json:"currentValue"`
	Unit         string                 `json:"unit"`
	Status       models.KeyResultStatus `json:"status"`
	Progress     float64                `json:"progress"`
	StartDate    time.Time              `json:"startDate"`
	EndDate      time.Time              `json:"endDate"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

// ObjectiveDTO represents an objective with its key results
type ObjectiveDTO struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Type        models.ObjectiveType   `json:"type"`
	Status      models.ObjectiveStatus `json:"status"`
	OwnerID     string                 `json:"ownerId"`
	TeamID      *string                `json:"teamId"`
	ParentID    *string                `json:"parentId"`
	Progress    float64                `json:"progress"`
	StartDate   time.Time              `json:"startDate"`
	EndDate     time.Time              `json:"endDate"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
	KeyResults  []KeyResultDTO         `json:"keyResults"`
}

// ObjectiveListResponse represents a page of objectives
type ObjectiveListResponse struct {
	Objectives []ObjectiveDTO           `json:"objectives"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// DashboardDTO summarises the caller's objectives
type DashboardDTO struct {
	TotalObjectives     int64                            `json:"totalObjectives"`
	ObjectivesByStatus  map[models.ObjectiveStatus]int64 `json:"objectivesByStatus"`
	TotalKeyResults     int64                            `json:"totalKeyResults"`
	CompletedKeyResults int64                            `json:"completedKeyResults"`
	AverageProgress     float64                          `json:"averageProgress"`
}

// SuggestionDTO is a drafted key result that has not been saved
type SuggestionDTO struct {
	Title       string               `json:"title"`
	Type        models.KeyResultType `json:"type"`
	TargetValue float64              `json:"targetValue"`
	Unit        string               `json:"unit"`
}

// ToKeyResultDTO converts a key result to DTO. A non-finite progress is reported as 0.
func ToKeyResultDTO(kr models.KeyResult) KeyResultDTO {
	return KeyResultDTO{
		ID:           kr.ID,
		ObjectiveID:  kr.ObjectiveID,
		Title:        kr.Title,
		Description:  kr.Description,
		Type:         kr.Type,
		TargetValue:  kr.TargetValue,
		CurrentValue: kr.CurrentValue,
		Unit:         kr.Unit,
		Status:       kr.Status,
		Progress:     models.FiniteOrZero(kr.ProgressPercentage()),
		StartDate:    models.FromMillis(kr.StartDate),
		EndDate:      models.FromMillis(kr.EndDate),
		CreatedAt:    models.FromMillis(kr.CreatedAt),
		UpdatedAt:    models.FromMillis(kr.UpdatedAt),
	}
}

// ToKeyResultDTOs converts a list of key results
func ToKeyResultDTOs(krs []models.KeyResult) []KeyResultDTO {
	out := make([]KeyResultDTO, len(krs))
	for i, kr := range krs {
		out[i] = ToKeyResultDTO(kr)
	}
	return out
}

// ToObjectiveDTO converts an objective and its loaded key results to DTO
func ToObjectiveDTO(o models.Objective) ObjectiveDTO {
	return ObjectiveDTO{
		ID:          o.ID,
		Title:       o.Title,
		Description: o.Description,
		Type:        o.Type,
		Status:      o.Status,
		OwnerID:     o.OwnerID,
		TeamID:      o.TeamID,
		ParentID:    o.ParentID,
		Progress:    models.FiniteOrZero(o.ProgressPercentage()),
		StartDate:   models.FromMillis(o.StartDate),
		EndDate:     models.FromMillis(o.EndDate),
		CreatedAt:   models.FromMillis(o.CreatedAt),
		UpdatedAt:   models.FromMillis(o.UpdatedAt),
		KeyResults:  ToKeyResultDTOs(o.KeyResults),
	}
}

// ToObjectiveListResponse converts a page of objectives
func ToObjectiveListResponse(objectives []models.Objective, params utils.PaginationParams, total int64) ObjectiveListResponse {
	items := make([]ObjectiveDTO, len(objectives))
	for i, o := range objectives {
		items[i] = ToObjectiveDTO(o)
	}
	return ObjectiveListResponse{
		Objectives: items,
		Pagination: utils.NewPaginationResponse(params, total),
	}
}

// ToDashboardDTO converts dashboard stats
func ToDashboardDTO(stats models.DashboardStats) DashboardDTO {
	return DashboardDTO{
		TotalObjectives:     stats.TotalObjectives,
		ObjectivesByStatus:  stats.ObjectivesByStatus,
		TotalKeyResults:     stats.TotalKeyResults,
		CompletedKeyResults: stats.CompletedKeyResults,
		AverageProgress:     models.FiniteOrZero(stats.AverageProgress),
	}
}

// ToSuggestionDTOs converts drafted key results
func ToSuggestionDTOs(suggestions []services.SuggestedKeyResult) []SuggestionDTO {
	out := make([]SuggestionDTO, len(suggestions))
	for i, s := range suggestions {
		out[i] = SuggestionDTO{Title: s.Title, Type: s.Type, TargetValue: s.TargetValue, Unit: s.Unit}
	}
	return out
}
