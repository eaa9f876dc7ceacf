package repository

import (
	"context"
	"strings"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/database"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"gorm.io/gorm"
)

// GormOkrRepository is a GORM implementation of OkrRepository
type GormOkrRepository struct {
	db *gorm.DB
}

// NewOkrRepository creates a new OkrRepository
func NewOkrRepository(db *gorm.DB) OkrRepository {
	return &GormOkrRepository{db: db}
}

func (r *GormOkrRepository) fail(op string, err error) error {
	return apperr.Repository(apperr.DomainOkr, op, err)
}

func keyResultOrder(db *gorm.DB) *gorm.DB {
	return db.Order("key_results.created_at ASC").Order("key_results.id ASC")
}

// CreateObjective creates a new objective
func (r *GormOkrRepository) CreateObjective(ctx context.Context, objective *models.Objective) error {
	objective.SearchText = models.SearchText(objective.Title, objective.Description)
	return r.fail("create objective", r.db.WithContext(ctx).Omit("KeyResults").Create(objective).Error)
}

// FindObjectiveByID finds an objective with its key results
func (r *GormOkrRepository) FindObjectiveByID(ctx context.Context, id string) (*models.Objective, error) {
	var objective models.Objective
	found, err := first(r.db.WithContext(ctx).Preload("KeyResults", keyResultOrder).Where("id = ?", id), &objective)
	if err != nil || !found {
		return nil, r.fail("find objective", err)
	}
	return &objective, nil
}

// UpdateObjective saves all objective fields
func (r *GormOkrRepository) UpdateObjective(ctx context.Context, objective *models.Objective) error {
	keyResults := objective.KeyResults
	objective.KeyResults = nil
	defer func() { objective.KeyResults = keyResults }()
	objective.SearchText = models.SearchText(objective.Title, objective.Description)

	found, err := saveAll(r.db.WithContext(ctx), objective, &models.Objective{}, objective.ID)
	if err != nil {
		return r.fail("update objective", err)
	}
	if !found {
		return apperr.NotFound("objective", objective.ID)
	}
	return nil
}

// detachChildren clears parent_id on every objective whose parent is in parentIDs.
func detachChildren(tx *gorm.DB, parentIDs ...string) error {
	if len(parentIDs) == 0 {
		return nil
	}
	return tx.Model(&models.Objective{}).Where("parent_id IN ?", parentIDs).UpdateColumn("parent_id", nil).Error
}

// DeleteObjective deletes an objective and its key results in one transaction.
// Child objectives are kept and become top-level.
func (r *GormOkrRepository) DeleteObjective(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("objective_id = ?", id).Delete(&models.KeyResult{}).Error; err != nil {
			return err
		}
		if err := detachChildren(tx, id); err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Objective{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("objective", id)
		}
		return nil
	})
	return r.fail("delete objective", err)
}

// ListObjectives retrieves objectives with filtering, sorting and pagination
func (r *GormOkrRepository) ListObjectives(ctx context.Context, filter ObjectiveFilter) ([]models.Objective, int64, error) {
	filter = filter.Normalized()
	query := r.db.WithContext(ctx).Model(&models.Objective{})

	if strings.TrimSpace(filter.Search) != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("objectives.search_text LIKE ? ESCAPE '"+likeEscape+"'", pattern)
	}
	if filter.Type != nil {
		query = query.Where("objectives.type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("objectives.status = ?", *filter.Status)
	}
	if filter.OwnerID != nil {
		query = query.Where("objectives.owner_id = ?", *filter.OwnerID)
	}
	if filter.TeamID != nil {
		query = query.Where("objectives.team_id = ?", *filter.TeamID)
	}
	if filter.ParentID != nil {
		query = query.Where("objectives.parent_id = ?", *filter.ParentID)
	}
	if filter.VisibleTo != nil {
		query = query.Where("(objectives.owner_id = ? OR objectives.type IN ?)", *filter.VisibleTo,
			[]models.ObjectiveType{models.ObjectiveTypeTeam, models.ObjectiveTypeOrganization})
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, r.fail("count objectives", err)
	}

	direction := " DESC"
	if filter.SortOrder == SortAsc {
		direction = " ASC"
	}
	listQuery := query.
		Order("objectives." + ObjectiveSortColumns[filter.SortBy] + direction).
		Order("objectives.id" + direction)

	listQuery = listQuery.Scopes(database.Paginate(filter.Page, filter.PageSize))

	var objectives []models.Objective
	if err := listQuery.Preload("KeyResults", keyResultOrder).Find(&objectives).Error; err != nil {
		return nil, 0, r.fail("list objectives", err)
	}

	return objectives, total, nil
}

// CreateKeyResult creates a key result under an existing objective
func (r *GormOkrRepository) CreateKeyResult(ctx context.Context, keyResult *models.KeyResult) error {
	db := r.db.WithContext(ctx)
	found, err := exists(db, &models.Objective{}, keyResult.ObjectiveID)
	if err != nil {
		return r.fail("create key result", err)
	}
	if !found {
		return apperr.NotFound("objective", keyResult.ObjectiveID)
	}
	return r.fail("create key result", db.Create(keyResult).Error)
}

func (r *GormOkrRepository) FindKeyResultByID(ctx context.Context, id string) (*models.KeyResult, error) {
	var keyResult models.KeyResult
	found, err := first(r.db.WithContext(ctx).Where("id = ?", id), &keyResult)
	if err != nil || !found {
		return nil, r.fail("find key result", err)
	}
	return &keyResult, nil
}

func (r *GormOkrRepository) ListKeyResults(ctx context.Context, objectiveID string) ([]models.KeyResult, error) {
	var keyResults []models.KeyResult
	if err := keyResultOrder(r.db.WithContext(ctx).Where("objective_id = ?", objectiveID)).Find(&keyResults).Error; err != nil {
		return nil, r.fail("list key results", err)
	}
	return keyResults, nil
}

func (r *GormOkrRepository) UpdateKeyResult(ctx context.Context, keyResult *models.KeyResult) error {
	found, err := saveAll(r.db.WithContext(ctx), keyResult, &models.KeyResult{}, keyResult.ID)
	if err != nil {
		return r.fail("update key result", err)
	}
	if !found {
		return apperr.NotFound("key result", keyResult.ID)
	}
	return nil
}

func (r *GormOkrRepository) DeleteKeyResult(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.KeyResult{})
	if result.Error != nil {
		return r.fail("delete key result", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("key result", id)
	}
	return nil
}

// UpdateKeyResultProgress sets only the current value and bumps updated_at
func (r *GormOkrRepository) UpdateKeyResultProgress(ctx context.Context, id string, currentValue float64) (*models.KeyResult, error) {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.KeyResult{}).Where("id = ?", id).Updates(map[string]interface{}{
		"current_value": currentValue,
		"updated_at":    models.NowMillis(),
	})
	if result.Error != nil {
		return nil, r.fail("update key result progress", result.Error)
	}

	keyResult, err := r.FindKeyResultByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if keyResult == nil {
		return nil, apperr.NotFound("key result", id)
	}
	return keyResult, nil
}

func (r *GormOkrRepository) loadObjective(ctx context.Context, op, objectiveID string) (*models.Objective, error) {
	var objective models.Objective
	found, err := first(r.db.WithContext(ctx).Select("id", "owner_id", "type").Where("id = ?", objectiveID), &objective)
	if err != nil {
		return nil, r.fail(op, err)
	}
	if !found {
		return nil, nil
	}
	return &objective, nil
}

// IsObjectiveOwner reports whether userID owns the objective
func (r *GormOkrRepository) IsObjectiveOwner(ctx context.Context, objectiveID, userID string) (bool, error) {
	objective, err := r.loadObjective(ctx, "check objective owner", objectiveID)
	if err != nil || objective == nil {
		return false, err
	}
	return objective.IsOwnedBy(userID), nil
}

// CanUserAccessObjective reports whether userID may read the objective
func (r *GormOkrRepository) CanUserAccessObjective(ctx context.Context, objectiveID, userID string) (bool, error) {
	objective, err := r.loadObjective(ctx, "check objective access", objectiveID)
	if err != nil || objective == nil {
		return false, err
	}
	return objective.CanBeAccessedBy(userID), nil
}

// CanUserEditObjective reports whether userID may modify the objective
func (r *GormOkrRepository) CanUserEditObjective(ctx context.Context, objectiveID, userID string) (bool, error) {
	objective, err := r.loadObjective(ctx, "check objective edit", objectiveID)
	if err != nil || objective == nil {
		return false, err
	}
	return objective.CanBeEditedBy(userID), nil
}

// GetDashboardStats summarises the objectives owned by a user
func (r *GormOkrRepository) GetDashboardStats(ctx context.Context, userID string) (*models.DashboardStats, error) {
	var objectives []models.Objective
	if err := r.db.WithContext(ctx).Preload("KeyResults").Where("owner_id = ?", userID).Find(&objectives).Error; err != nil {
		return nil, r.fail("load dashboard", err)
	}
	stats := models.BuildDashboardStats(objectives)
	return &stats, nil
}
