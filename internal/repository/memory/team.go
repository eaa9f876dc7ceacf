package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
)

type teamRepository struct {
	s *Store
}

func (r *teamRepository) memberIndex(teamID, userID string) (models.TeamMember, bool) {
	for _, m := range r.s.members {
		if m.TeamID == teamID && m.UserID == userID {
			return m, true
		}
	}
	return models.TeamMember{}, false
}

func (r *teamRepository) insertMember(member *models.TeamMember) error {
	if _, ok := r.memberIndex(member.TeamID, member.UserID); ok {
		return duplicate(apperr.DomainTeam, "add member")
	}
	stamp(&member.ID, &member.CreatedAt, &member.UpdatedAt, r.s.now())
	r.s.members[member.ID] = *member
	return nil
}

func (r *teamRepository) CreateWithOwner(_ context.Context, team *models.Team, owner *models.TeamMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stamp(&team.ID, &team.CreatedAt, &team.UpdatedAt, r.s.now())
	if _, ok := r.s.teams[team.ID]; ok {
		return duplicate(apperr.DomainTeam, "create team")
	}
	owner.TeamID = team.ID
	if err := r.insertMember(owner); err != nil {
		return err
	}
	r.s.teams[team.ID] = *team
	return nil
}

func (r *teamRepository) FindByID(_ context.Context, id string) (*models.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.teams[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *teamRepository) Update(_ context.Context, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.teams[team.ID]
	if !ok {
		return apperr.NotFound("team", team.ID)
	}
	team.CreatedAt = existing.CreatedAt
	team.UpdatedAt = r.s.now()
	r.s.teams[team.ID] = *team
	return nil
}

func (r *teamRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.teams[id]; !ok {
		return apperr.NotFound("team", id)
	}
	for oid, o := range r.s.objectives {
		if o.TeamID != nil && *o.TeamID == id {
			for kid, kr := range r.s.keyResults {
				if kr.ObjectiveID == oid {
					delete(r.s.keyResults, kid)
				}
			}
			delete(r.s.objectives, oid)
			r.s.detachChildren(oid)
		}
	}
	for iid, inv := range r.s.invitations {
		if inv.TeamID == id {
			delete(r.s.invitations, iid)
		}
	}
	for mid, m := range r.s.members {
		if m.TeamID == id {
			delete(r.s.members, mid)
		}
	}
	delete(r.s.teams, id)
	return nil
}

func (r *teamRepository) ListForUser(_ context.Context, userID string) ([]models.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var teams []models.Team
	for _, m := range r.s.members {
		if m.UserID != userID || m.Status != models.MemberStatusActive {
			continue
		}
		if t, ok := r.s.teams[m.TeamID]; ok {
			teams = append(teams, t)
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}

func (r *teamRepository) AddMember(_ context.Context, member *models.TeamMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.insertMember(member)
}

func (r *teamRepository) FindMember(_ context.Context, teamID, userID string) (*models.TeamMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.memberIndex(teamID, userID)
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *teamRepository) UpdateMember(_ context.Context, member *models.TeamMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.members[member.ID]
	if !ok {
		return apperr.NotFound("team member", member.UserID)
	}
	member.CreatedAt = existing.CreatedAt
	member.UpdatedAt = r.s.now()
	r.s.members[member.ID] = *member
	return nil
}

func (r *teamRepository) RemoveMember(_ context.Context, teamID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.memberIndex(teamID, userID)
	if !ok {
		return apperr.NotFound("team member", userID)
	}
	delete(r.s.members, m.ID)
	return nil
}

func (r *teamRepository) ListMembers(_ context.Context, teamID string) ([]models.TeamMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var members []models.TeamMember
	for _, m := range r.s.members {
		if m.TeamID == teamID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].CreatedAt != members[j].CreatedAt {
			return members[i].CreatedAt < members[j].CreatedAt
		}
		return members[i].ID < members[j].ID
	})
	return members, nil
}

func (r *teamRepository) CreateInvitation(_ context.Context, invitation *models.TeamInvitation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, inv := range r.s.invitations {
		if inv.Token == invitation.Token {
			return duplicate(apperr.DomainTeam, "create invitation")
		}
	}
	invitation.Email = strings.ToLower(invitation.Email)
	if invitation.Status == "" {
		invitation.Status = models.InvitationStatusPending
	}
	stamp(&invitation.ID, &invitation.CreatedAt, &invitation.UpdatedAt, r.s.now())
	r.s.invitations[invitation.ID] = *invitation
	return nil
}

func (r *teamRepository) FindInvitationByID(_ context.Context, id string) (*models.TeamInvitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	inv, ok := r.s.invitations[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (r *teamRepository) FindInvitationByToken(_ context.Context, token string) (*models.TeamInvitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, inv := range r.s.invitations {
		if inv.Token == token {
			return &inv, nil
		}
	}
	return nil, nil
}

func (r *teamRepository) FindPendingInvitation(_ context.Context, teamID, email string) (*models.TeamInvitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, inv := range r.s.invitations {
		if inv.TeamID == teamID && inv.Email == email && inv.IsPending() {
			return &inv, nil
		}
	}
	return nil, nil
}

func (r *teamRepository) ListInvitations(_ context.Context, teamID string) ([]models.TeamInvitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var invitations []models.TeamInvitation
	for _, inv := range r.s.invitations {
		if inv.TeamID == teamID {
			invitations = append(invitations, inv)
		}
	}
	sort.Slice(invitations, func(i, j int) bool {
		if invitations[i].CreatedAt != invitations[j].CreatedAt {
			return invitations[i].CreatedAt > invitations[j].CreatedAt
		}
		return invitations[i].ID > invitations[j].ID
	})
	return invitations, nil
}

func (r *teamRepository) UpdateInvitation(_ context.Context, invitation *models.TeamInvitation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.invitations[invitation.ID]
	if !ok {
		return apperr.NotFound("invitation", invitation.ID)
	}
	invitation.CreatedAt = existing.CreatedAt
	invitation.UpdatedAt = r.s.now()
	r.s.invitations[invitation.ID] = *invitation
	return nil
}

func (r *teamRepository) AcceptInvitation(_ context.Context, invitation *models.TeamInvitation, member *models.TeamMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.invitations[invitation.ID]
	if !ok || !stored.IsPending() {
		return apperr.NotFound("invitation", invitation.ID)
	}

	if existing, found := r.memberIndex(member.TeamID, member.UserID); found {
		if existing.Status == models.MemberStatusActive {
			return apperr.Conflict("user is already a member of this team")
		}
		member.ID = existing.ID
		member.CreatedAt = existing.CreatedAt
		member.UpdatedAt = r.s.now()
		r.s.members[member.ID] = *member
	} else if err := r.insertMember(member); err != nil {
		return err
	}

	stored.Status = models.InvitationStatusAccepted
	stored.UpdatedAt = r.s.now()
	r.s.invitations[stored.ID] = stored
	invitation.Status = models.InvitationStatusAccepted
	return nil
}

func (r *teamRepository) ExpireInvitations(_ context.Context, now int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var expired int64
	for id, inv := range r.s.invitations {
		if inv.IsPending() && inv.IsExpired(now) {
			inv.Status = models.InvitationStatusExpired
			inv.UpdatedAt = r.s.now()
			r.s.invitations[id] = inv
			expired++
		}
	}
	return expired, nil
}
