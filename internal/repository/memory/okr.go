package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository"
)

type okrRepository struct {
	s *Store
}

// withKeyResults returns a copy of o with its key results attached.
func (r *okrRepository) withKeyResults(o models.Objective) models.Objective {
	o.KeyResults = r.keyResultsOf(o.ID)
	return o
}

func (r *okrRepository) keyResultsOf(objectiveID string) []models.KeyResult {
	krs := []models.KeyResult{}
	for _, kr := range r.s.keyResults {
		if kr.ObjectiveID == objectiveID {
			krs = append(krs, kr)
		}
	}
	sort.Slice(krs, func(i, j int) bool {
		if krs[i].CreatedAt != krs[j].CreatedAt {
			return krs[i].CreatedAt < krs[j].CreatedAt
		}
		return krs[i].ID < krs[j].ID
	})
	return krs
}

func (r *okrRepository) CreateObjective(_ context.Context, objective *models.Objective) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stamp(&objective.ID, &objective.CreatedAt, &objective.UpdatedAt, r.s.now())
	if _, ok := r.s.objectives[objective.ID]; ok {
		return duplicate(apperr.DomainOkr, "create objective")
	}
	if objective.Status == "" {
		objective.Status = models.ObjectiveStatusDraft
	}
	stored := *objective
	stored.KeyResults = nil
	r.s.objectives[objective.ID] = stored
	return nil
}

func (r *okrRepository) FindObjectiveByID(_ context.Context, id string) (*models.Objective, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.objectives[id]
	if !ok {
		return nil, nil
	}
	o = r.withKeyResults(o)
	return &o, nil
}

func (r *okrRepository) UpdateObjective(_ context.Context, objective *models.Objective) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.objectives[objective.ID]
	if !ok {
		return apperr.NotFound("objective", objective.ID)
	}
	objective.CreatedAt = existing.CreatedAt
	objective.UpdatedAt = r.s.now()
	stored := *objective
	stored.KeyResults = nil
	r.s.objectives[objective.ID] = stored
	return nil
}

func (r *okrRepository) DeleteObjective(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.objectives[id]; !ok {
		return apperr.NotFound("objective", id)
	}
	for kid, kr := range r.s.keyResults {
		if kr.ObjectiveID == id {
			delete(r.s.keyResults, kid)
		}
	}
	delete(r.s.objectives, id)
	r.s.detachChildren(id)
	return nil
}

// detachChildren makes every child of parentID a top-level objective.
// Callers hold the write lock.
func (s *Store) detachChildren(parentID string) {
	for oid, o := range s.objectives {
		if o.ParentID != nil && *o.ParentID == parentID {
			o.ParentID = nil
			s.objectives[oid] = o
		}
	}
}

func matchesObjective(o models.Objective, f repository.ObjectiveFilter) bool {
	if search := models.SearchText(strings.TrimSpace(f.Search)); search != "" {
		if !strings.Contains(models.SearchText(o.Title, o.Description), search) {
			return false
		}
	}
	if f.Type != nil && o.Type != *f.Type {
		return false
	}
	if f.Status != nil && o.Status != *f.Status {
		return false
	}
	if f.OwnerID != nil && o.OwnerID != *f.OwnerID {
		return false
	}
	if f.TeamID != nil && (o.TeamID == nil || *o.TeamID != *f.TeamID) {
		return false
	}
	if f.ParentID != nil && (o.ParentID == nil || *o.ParentID != *f.ParentID) {
		return false
	}
	if f.VisibleTo != nil && !o.CanBeAccessedBy(*f.VisibleTo) {
		return false
	}
	return true
}

// compareObjectives orders a before b on the sort column, ascending.
func compareObjectives(a, b models.Objective, sortBy string) int {
	switch sortBy {
	case repository.SortByTitle:
		return strings.Compare(a.Title, b.Title)
	case repository.SortByStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	case repository.SortByType:
		return strings.Compare(string(a.Type), string(b.Type))
	case repository.SortByStartDate:
		return compareInt(a.StartDate, b.StartDate)
	case repository.SortByEndDate:
		return compareInt(a.EndDate, b.EndDate)
	case repository.SortByUpdatedAt:
		return compareInt(a.UpdatedAt, b.UpdatedAt)
	default:
		return compareInt(a.CreatedAt, b.CreatedAt)
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (r *okrRepository) ListObjectives(_ context.Context, filter repository.ObjectiveFilter) ([]models.Objective, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	filter = filter.Normalized()
	objectives := []models.Objective{}
	for _, o := range r.s.objectives {
		if matchesObjective(o, filter) {
			objectives = append(objectives, o)
		}
	}

	desc := filter.SortOrder == repository.SortDesc
	sort.Slice(objectives, func(i, j int) bool {
		c := compareObjectives(objectives[i], objectives[j], filter.SortBy)
		if c == 0 {
			c = strings.Compare(objectives[i].ID, objectives[j].ID)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})

	total := int64(len(objectives))
	page := paginate(objectives, filter.Page, filter.PageSize)
	out := make([]models.Objective, len(page))
	for i, o := range page {
		out[i] = r.withKeyResults(o)
	}
	return out, total, nil
}

func (r *okrRepository) CreateKeyResult(_ context.Context, keyResult *models.KeyResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.objectives[keyResult.ObjectiveID]; !ok {
		return apperr.NotFound("objective", keyResult.ObjectiveID)
	}
	stamp(&keyResult.ID, &keyResult.CreatedAt, &keyResult.UpdatedAt, r.s.now())
	if keyResult.Status == "" {
		keyResult.Status = models.KeyResultStatusActive
	}
	r.s.keyResults[keyResult.ID] = *keyResult
	return nil
}

func (r *okrRepository) FindKeyResultByID(_ context.Context, id string) (*models.KeyResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	kr, ok := r.s.keyResults[id]
	if !ok {
		return nil, nil
	}
	return &kr, nil
}

func (r *okrRepository) ListKeyResults(_ context.Context, objectiveID string) ([]models.KeyResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.keyResultsOf(objectiveID), nil
}

func (r *okrRepository) UpdateKeyResult(_ context.Context, keyResult *models.KeyResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.keyResults[keyResult.ID]
	if !ok {
		return apperr.NotFound("key result", keyResult.ID)
	}
	keyResult.CreatedAt = existing.CreatedAt
	keyResult.UpdatedAt = r.s.now()
	r.s.keyResults[keyResult.ID] = *keyResult
	return nil
}

func (r *okrRepository) DeleteKeyResult(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.keyResults[id]; !ok {
		return apperr.NotFound("key result", id)
	}
	delete(r.s.keyResults, id)
	return nil
}

func (r *okrRepository) UpdateKeyResultProgress(_ context.Context, id string, currentValue float64) (*models.KeyResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kr, ok := r.s.keyResults[id]
	if !ok {
		return nil, apperr.NotFound("key result", id)
	}
	kr.CurrentValue = currentValue
	kr.UpdatedAt = r.s.now()
	r.s.keyResults[id] = kr
	return &kr, nil
}

func (r *okrRepository) objective(id string) (models.Objective, bool) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.objectives[id]
	return o, ok
}

func (r *okrRepository) IsObjectiveOwner(_ context.Context, objectiveID, userID string) (bool, error) {
	o, ok := r.objective(objectiveID)
	return ok && o.IsOwnedBy(userID), nil
}

func (r *okrRepository) CanUserAccessObjective(_ context.Context, objectiveID, userID string) (bool, error) {
	o, ok := r.objective(objectiveID)
	return ok && o.CanBeAccessedBy(userID), nil
}

func (r *okrRepository) CanUserEditObjective(_ context.Context, objectiveID, userID string) (bool, error) {
	o, ok := r.objective(objectiveID)
	return ok && o.CanBeEditedBy(userID), nil
}

func (r *okrRepository) GetDashboardStats(_ context.Context, userID string) (*models.DashboardStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var owned []models.Objective
	for _, o := range r.s.objectives {
		if o.OwnerID == userID {
			owned = append(owned, r.withKeyResults(o))
		}
	}
	stats := models.BuildDashboardStats(owned)
	return &stats, nil
}
