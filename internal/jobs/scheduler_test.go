package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository/memory"
)

type failingSessions struct {
	repository.SessionRepository
}

func (failingSessions) DeleteExpired(context.Context, int64) (int64, error) {
	return 0, errors.New("connection reset")
}

func seed(t *testing.T, store *memory.Store, now time.Time) {
	t.Helper()
	ctx := context.Background()
	past := models.ToMillis(now.Add(-time.Hour))
	future := models.ToMillis(now.Add(time.Hour))

	for token, expiresAt := range map[string]int64{"old": past, "fresh": future} {
		require.NoError(t, store.Sessions().Create(ctx, &models.Session{UserID: models.NewID(), Token: token, ExpiresAt: expiresAt}))
	}
	for token, expiresAt := range map[string]int64{"stale": past, "live": future} {
		require.NoError(t, store.Teams().CreateInvitation(ctx, &models.TeamInvitation{
			TeamID: models.NewID(), Email: token + "@example.com", RoleID: models.NewID(),
			Token: token, InvitedByID: models.NewID(), ExpiresAt: expiresAt,
		}))
	}
}

func TestScheduler_RunMaintenance(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Now()
	seed(t, store, now)

	log, _ := test.NewNullLogger()
	s := NewScheduler(store.Sessions(), store.Teams(), log)
	s.now = func() time.Time { return now }

	result := s.RunMaintenance(ctx)
	assert.Equal(t, MaintenanceResult{SessionsDeleted: 1, InvitationsExpired: 1}, result)

	old, err := store.Sessions().FindByToken(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, old)

	stale, err := store.Teams().FindInvitationByToken(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusExpired, stale.Status)

	live, err := store.Teams().FindInvitationByToken(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusPending, live.Status)

	assert.Equal(t, MaintenanceResult{}, s.RunMaintenance(ctx))
}

func TestScheduler_FailingTaskDoesNotStopOthers(t *testing.T) {
	store := memory.NewStore()
	now := time.Now()
	seed(t, store, now)

	log, hook := test.NewNullLogger()
	s := NewScheduler(failingSessions{store.Sessions()}, store.Teams(), log)
	s.now = func() time.Time { return now }

	result := s.RunMaintenance(context.Background())
	assert.Equal(t, int64(0), result.SessionsDeleted)
	assert.Equal(t, int64(1), result.InvitationsExpired)

	var errorsLogged int
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			errorsLogged++
		}
	}
	assert.Equal(t, 1, errorsLogged)
}

func TestScheduler_StartRejectsInvalidSchedule(t *testing.T) {
	store := memory.NewStore()
	log, _ := test.NewNullLogger()
	s := NewScheduler(store.Sessions(), store.Teams(), log)

	assert.Error(t, s.Start("every tuesday"))

	require.NoError(t, s.Start("@every 1h"))
	s.Stop()
}
