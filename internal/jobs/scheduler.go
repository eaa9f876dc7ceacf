// Package jobs runs periodic maintenance outside the request path.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository"
)

const runTimeout = 5 * time.Minute

// Scheduler purges expired sessions and expires stale invitations on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	sessions repository.SessionRepository
	teams    repository.TeamRepository
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewScheduler(sessions repository.SessionRepository, teams repository.TeamRepository, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		sessions: sessions,
		teams:    teams,
		log:      log.WithField("component", "jobs"),
		now:      time.Now,
	}
}

// Start registers the maintenance run under spec and starts the scheduler.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		s.RunMaintenance(ctx)
	}); err != nil {
		return fmt.Errorf("invalid maintenance schedule %q: %w", spec, err)
	}

	s.cron.Start()
	s.log.WithField("schedule", spec).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

// MaintenanceResult reports what one maintenance run changed.
type MaintenanceResult struct {
	SessionsDeleted    int64
	InvitationsExpired int64
}

// RunMaintenance runs every maintenance task once. A failing task is logged
// and does not stop the others.
func (s *Scheduler) RunMaintenance(ctx context.Context) MaintenanceResult {
	var result MaintenanceResult
	now := models.ToMillis(s.now())

	deleted, err := s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		s.log.WithError(err).Error("Failed to delete expired sessions")
	} else {
		result.SessionsDeleted = deleted
	}

	expired, err := s.teams.ExpireInvitations(ctx, now)
	if err != nil {
		s.log.WithError(err).Error("Failed to expire invitations")
	} else {
		result.InvitationsExpired = expired
	}

	s.log.WithFields(logrus.Fields{
		"sessions_deleted":    result.SessionsDeleted,
		"invitations_expired": result.InvitationsExpired,
	}).Info("Maintenance run finished")
	return result
}
