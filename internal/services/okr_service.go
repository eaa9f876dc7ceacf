package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/authz"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/constants"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/utils"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/validation"
)

// KeyResultSuggester drafts key results for an objective.
type KeyResultSuggester interface {
	SuggestKeyResults(ctx context.Context, objective *models.Objective) ([]SuggestedKeyResult, error)
}

// OKRService handles objective and key result business logic
type OKRService struct {
	okrs       repository.OkrRepository
	authorizer *authz.Authorizer
	suggester  KeyResultSuggester
	log        logrus.FieldLogger
}

// NewOKRService creates a new OKRService. suggester may be nil when no AI
// backend is configured.
func NewOKRService(okrs repository.OkrRepository, authorizer *authz.Authorizer, suggester KeyResultSuggester, log logrus.FieldLogger) *OKRService {
	return &OKRService{
		okrs:       okrs,
		authorizer: authorizer,
		suggester:  suggester,
		log:        log,
	}
}

// CreateObjectiveInput represents input for creating an objective
type CreateObjectiveInput struct {
	Title       string               `json:"title" validate:"notblank,max=200"`
	Description string               `json:"description" validate:"max=1000"`
	Type        models.ObjectiveType `json:"type" validate:"required,oneof=personal team organization"`
	TeamID      *string              `json:"teamId" validate:"omitempty,uuid"`
	ParentID    *string              `json:"parentId" validate:"omitempty,uuid"`
	StartDate   time.Time            `json:"startDate" validate:"required"`
	EndDate     time.Time            `json:"endDate" validate:"required,gtefield=StartDate"`
}

// UpdateObjectiveInput represents input for updating an objective. Nil
// fields are left unchanged.
type UpdateObjectiveInput struct {
	Title       *string                 `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string                 `json:"description" validate:"omitempty,max=1000"`
	Type        *models.ObjectiveType   `json:"type" validate:"omitempty,oneof=personal team organization"`
	Status      *models.ObjectiveStatus `json:"status" validate:"omitempty,oneof=draft active completed cancelled"`
	StartDate   *time.Time              `json:"startDate"`
	EndDate     *time.Time              `json:"endDate"`
}

// ListObjectivesInput represents filters for listing objectives
type ListObjectivesInput struct {
	Search    string
	Type      *models.ObjectiveType
	Status    *models.ObjectiveStatus
	OwnerID   *string
	TeamID    *string
	ParentID  *string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// CreateKeyResultInput represents input for creating a key result
type CreateKeyResultInput struct {
	Title       string               `json:"title" validate:"notblank,max=200"`
	Description string               `json:"description" validate:"max=1000"`
	Type        models.KeyResultType `json:"type" validate:"required,oneof=percentage number boolean"`
	TargetValue float64              `json:"targetValue" validate:"gte=0"`
	Unit        string               `json:"unit" validate:"max=50"`
	StartDate   time.Time            `json:"startDate" validate:"required"`
	EndDate     time.Time            `json:"endDate" validate:"required,gtefield=StartDate"`
}

// UpdateKeyResultInput represents input for updating a key result. Nil
// fields are left unchanged.
type UpdateKeyResultInput struct {
	Title       *string                 `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string                 `json:"description" validate:"omitempty,max=1000"`
	Type        *models.KeyResultType   `json:"type" validate:"omitempty,oneof=percentage number boolean"`
	TargetValue *float64                `json:"targetValue" validate:"omitempty,gte=0"`
	Unit        *string                 `json:"unit" validate:"omitempty,max=50"`
	Status      *models.KeyResultStatus `json:"status" validate:"omitempty,oneof=active completed cancelled"`
	StartDate   *time.Time              `json:"startDate"`
	EndDate     *time.Time              `json:"endDate"`
}

func checkDateRange(start, end int64) error {
	if start > end {
		return apperr.InvalidField("endDate", "must not be before startDate")
	}
	return nil
}

// checkTeamScope requires a team on team objectives. Organization objectives
// may stand alone.
func checkTeamScope(typ models.ObjectiveType, teamID *string) error {
	if typ == models.ObjectiveTypeTeam && teamID == nil {
		return apperr.InvalidField("teamId", "is required for team objectives")
	}
	return nil
}

// accessibleObjective loads an objective the user may read. Objectives the
// user cannot see are reported as missing.
func (s *OKRService) accessibleObjective(ctx context.Context, userID, objectiveID string) (*models.Objective, error) {
	objective, err := s.okrs.FindObjectiveByID(ctx, objectiveID)
	if err != nil {
		return nil, err
	}
	if objective == nil || !objective.CanBeAccessedBy(userID) {
		return nil, apperr.NotFound("objective", objectiveID)
	}
	return objective, nil
}

// editableObjective loads an objective the user may modify.
func (s *OKRService) editableObjective(ctx context.Context, userID, objectiveID, action string) (*models.Objective, error) {
	objective, err := s.accessibleObjective(ctx, userID, objectiveID)
	if err != nil {
		return nil, err
	}
	if !objective.CanBeEditedBy(userID) {
		return nil, apperr.Forbidden(action)
	}
	return objective, nil
}

// editableKeyResult loads a key result whose objective the user may modify.
func (s *OKRService) editableKeyResult(ctx context.Context, userID, keyResultID, action string) (*models.KeyResult, error) {
	keyResult, err := s.okrs.FindKeyResultByID(ctx, keyResultID)
	if err != nil {
		return nil, err
	}
	if keyResult == nil {
		return nil, apperr.NotFound("key result", keyResultID)
	}
	if _, err := s.editableObjective(ctx, userID, keyResult.ObjectiveID, action); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("key result", keyResultID)
		}
		return nil, err
	}
	return keyResult, nil
}

// CreateObjective creates a draft objective owned by ownerID. Objectives
// attached to a team require okr:create in that team.
func (s *OKRService) CreateObjective(ctx context.Context, ownerID string, input CreateObjectiveInput) (*models.Objective, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := checkTeamScope(input.Type, input.TeamID); err != nil {
		return nil, err
	}

	if input.TeamID != nil {
		if _, err := s.authorizer.Require(ctx, ownerID, *input.TeamID, authz.OkrCreate); err != nil {
			return nil, err
		}
	}
	if input.ParentID != nil {
		if _, err := s.accessibleObjective(ctx, ownerID, *input.ParentID); err != nil {
			return nil, err
		}
	}

	objective := &models.Objective{
		Title:       input.Title,
		Description: input.Description,
		Type:        input.Type,
		OwnerID:     ownerID,
		TeamID:      input.TeamID,
		ParentID:    input.ParentID,
		StartDate:   models.ToMillis(input.StartDate),
		EndDate:     models.ToMillis(input.EndDate),
		Status:      models.ObjectiveStatusDraft,
	}
	if err := s.okrs.CreateObjective(ctx, objective); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"objective_id": objective.ID, "user_id": ownerID}).Info("Objective created")
	return objective, nil
}

// GetObjective returns an objective with its key results.
func (s *OKRService) GetObjective(ctx context.Context, userID, objectiveID string) (*models.Objective, error) {
	return s.accessibleObjective(ctx, userID, objectiveID)
}

// UpdateObjective applies the provided fields to an objective the user owns.
func (s *OKRService) UpdateObjective(ctx context.Context, userID, objectiveID string, input UpdateObjectiveInput) (*models.Objective, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	objective, err := s.editableObjective(ctx, userID, objectiveID, "edit objective")
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		objective.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		objective.Description = *input.Description
	}
	if input.Type != nil {
		objective.Type = *input.Type
	}
	if input.Status != nil {
		objective.Status = *input.Status
	}
	if input.StartDate != nil {
		objective.StartDate = models.ToMillis(*input.StartDate)
	}
	if input.EndDate != nil {
		objective.EndDate = models.ToMillis(*input.EndDate)
	}
	if err := checkDateRange(objective.StartDate, objective.EndDate); err != nil {
		return nil, err
	}
	if err := checkTeamScope(objective.Type, objective.TeamID); err != nil {
		return nil, err
	}

	if err := s.okrs.UpdateObjective(ctx, objective); err != nil {
		return nil, err
	}
	return objective, nil
}

// DeleteObjective deletes an objective and its key results.
func (s *OKRService) DeleteObjective(ctx context.Context, userID, objectiveID string) error {
	if _, err := s.editableObjective(ctx, userID, objectiveID, "delete objective"); err != nil {
		return err
	}
	if err := s.okrs.DeleteObjective(ctx, objectiveID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"objective_id": objectiveID, "user_id": userID}).Info("Objective deleted")
	return nil
}

// ListObjectives returns the objectives visible to the user that match the filters.
func (s *OKRService) ListObjectives(ctx context.Context, userID string, input ListObjectivesInput) ([]models.Objective, int64, error) {
	if input.Type != nil && !input.Type.Valid() {
		return nil, 0, apperr.InvalidField("type", "must be one of: personal team organization")
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, apperr.InvalidField("status", "must be one of: draft active completed cancelled")
	}
	if input.SortBy != "" {
		if _, ok := repository.ObjectiveSortColumns[input.SortBy]; !ok {
			return nil, 0, apperr.InvalidField("sortBy", "is not a sortable field")
		}
	}
	if input.SortOrder != "" && input.SortOrder != repository.SortAsc && input.SortOrder != repository.SortDesc {
		return nil, 0, apperr.InvalidField("sortOrder", "must be one of: asc desc")
	}

	paging := utils.NormalizePagination(input.Page, input.PageSize)

	filter := repository.ObjectiveFilter{
		Search:    input.Search,
		Type:      input.Type,
		Status:    input.Status,
		OwnerID:   input.OwnerID,
		TeamID:    input.TeamID,
		ParentID:  input.ParentID,
		VisibleTo: &userID,
		SortBy:    input.SortBy,
		SortOrder: input.SortOrder,
		Page:      paging.Page,
		PageSize:  paging.Limit,
	}
	return s.okrs.ListObjectives(ctx, filter)
}

// CreateKeyResult adds a key result to an objective the user owns. The
// current value always starts at zero.
func (s *OKRService) CreateKeyResult(ctx context.Context, userID, objectiveID string, input CreateKeyResultInput) (*models.KeyResult, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	ok, err := s.okrs.CanUserEditObjective(ctx, objectiveID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := s.editableObjective(ctx, userID, objectiveID, "create key result"); err != nil {
			return nil, err
		}
		return nil, apperr.Forbidden("create key result")
	}

	keyResult := &models.KeyResult{
		ObjectiveID:  objectiveID,
		Title:        input.Title,
		Description:  input.Description,
		Type:         input.Type,
		TargetValue:  input.TargetValue,
		CurrentValue: 0,
		Unit:         input.Unit,
		StartDate:    models.ToMillis(input.StartDate),
		EndDate:      models.ToMillis(input.EndDate),
		Status:       models.KeyResultStatusActive,
	}
	if err := s.okrs.CreateKeyResult(ctx, keyResult); err != nil {
		return nil, err
	}
	return keyResult, nil
}

// GetKeyResult returns a key result of an objective the user can read.
func (s *OKRService) GetKeyResult(ctx context.Context, userID, keyResultID string) (*models.KeyResult, error) {
	keyResult, err := s.okrs.FindKeyResultByID(ctx, keyResultID)
	if err != nil {
		return nil, err
	}
	if keyResult == nil {
		return nil, apperr.NotFound("key result", keyResultID)
	}

	ok, err := s.okrs.CanUserAccessObjective(ctx, keyResult.ObjectiveID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("key result", keyResultID)
	}
	return keyResult, nil
}

// ListKeyResults returns the key results of an objective the user can read.
func (s *OKRService) ListKeyResults(ctx context.Context, userID, objectiveID string) ([]models.KeyResult, error) {
	if _, err := s.accessibleObjective(ctx, userID, objectiveID); err != nil {
		return nil, err
	}
	return s.okrs.ListKeyResults(ctx, objectiveID)
}

// UpdateKeyResult applies the provided fields to a key result.
func (s *OKRService) UpdateKeyResult(ctx context.Context, userID, keyResultID string, input UpdateKeyResultInput) (*models.KeyResult, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	keyResult, err := s.editableKeyResult(ctx, userID, keyResultID, "edit key result")
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		keyResult.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		keyResult.Description = *input.Description
	}
	if input.Type != nil {
		keyResult.Type = *input.Type
	}
	if input.TargetValue != nil {
		keyResult.TargetValue = *input.TargetValue
	}
	if input.Unit != nil {
		keyResult.Unit = *input.Unit
	}
	if input.Status != nil {
		keyResult.Status = *input.Status
	}
	if input.StartDate != nil {
		keyResult.StartDate = models.ToMillis(*input.StartDate)
	}
	if input.EndDate != nil {
		keyResult.EndDate = models.ToMillis(*input.EndDate)
	}
	if err := checkDateRange(keyResult.StartDate, keyResult.EndDate); err != nil {
		return nil, err
	}

	if err := s.okrs.UpdateKeyResult(ctx, keyResult); err != nil {
		return nil, err
	}
	return keyResult, nil
}

// DeleteKeyResult removes a key result.
func (s *OKRService) DeleteKeyResult(ctx context.Context, userID, keyResultID string) error {
	if _, err := s.editableKeyResult(ctx, userID, keyResultID, "delete key result"); err != nil {
		return err
	}
	return s.okrs.DeleteKeyResult(ctx, keyResultID)
}

// UpdateKeyResultProgress records a new current value. The status is not
// changed; completing a key result is a manual step.
func (s *OKRService) UpdateKeyResultProgress(ctx context.Context, userID, keyResultID string, currentValue float64) (*models.KeyResult, error) {
	if math.IsNaN(currentValue) || math.IsInf(currentValue, 0) {
		return nil, apperr.InvalidField("currentValue", "must be a finite number")
	}
	if _, err := s.editableKeyResult(ctx, userID, keyResultID, "update progress"); err != nil {
		return nil, err
	}

	keyResult, err := s.okrs.UpdateKeyResultProgress(ctx, keyResultID, currentValue)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"key_result_id": keyResultID,
		"user_id":       userID,
		"current_value": currentValue,
	}).Debug("Key result progress updated")
	return keyResult, nil
}

// GetDashboardStats summarises the objectives owned by the user.
func (s *OKRService) GetDashboardStats(ctx context.Context, userID string) (*models.DashboardStats, error) {
	return s.okrs.GetDashboardStats(ctx, userID)
}

// SuggestKeyResults asks the AI backend to draft key results for an objective
// the user owns. Nothing is persisted.
func (s *OKRService) SuggestKeyResults(ctx context.Context, userID, objectiveID string) ([]SuggestedKeyResult, error) {
	if s.suggester == nil {
		return nil, ErrAIServiceNotConfigured
	}

	objective, err := s.editableObjective(ctx, userID, objectiveID, "suggest key results")
	if err != nil {
		return nil, err
	}

	suggestions, err := s.suggester.SuggestKeyResults(ctx, objective)
	if err != nil {
		s.log.WithError(err).WithField("objective_id", objectiveID).Error("Key result suggestion failed")
		return nil, err
	}

	valid := make([]SuggestedKeyResult, 0, len(suggestions))
	for _, suggestion := range suggestions {
		if strings.TrimSpace(suggestion.Title) == "" || !suggestion.Type.Valid() {
			continue
		}
		valid = append(valid, suggestion)
		if len(valid) == constants.MaxSuggestedKeyResults {
			break
		}
	}
	return valid, nil
}
