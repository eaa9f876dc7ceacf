// Command seed installs the default permission catalog and roles. With -demo
// it also creates a demo user, a team and a sample objective.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/authz"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/config"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/database"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/email"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/logging"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/services"
	"gorm.io/gorm"
)

func main() {
	demo := flag.Bool("demo", false, "also create a demo user, team and objective")
	demoEmail := flag.String("email", "demo@okr.local", "email of the demo user")
	demoPassword := flag.String("password", "password123", "password of the demo user")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logging.New(logging.Options{Level: cfg.LogLevel})
	if err != nil {
		logrus.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := database.Migrate(db, log); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	roles := repository.NewRoleRepository(db)
	if err := authz.SeedDefaults(ctx, roles, log); err != nil {
		log.WithError(err).Fatal("Failed to seed roles and permissions")
	}
	log.Info("Roles and permissions seeded")

	if !*demo {
		return
	}
	if err := seedDemo(ctx, cfg, db, log, *demoEmail, *demoPassword); err != nil {
		log.WithError(err).Fatal("Failed to seed demo data")
	}
}

func seedDemo(ctx context.Context, cfg *config.Config, db *gorm.DB, log *logrus.Logger, address, password string) error {
	users := repository.NewUserRepository(db)
	teams := repository.NewTeamRepository(db)
	roles := repository.NewRoleRepository(db)

	existing, err := users.FindByEmail(ctx, address)
	if err != nil {
		return err
	}
	if existing != nil {
		log.WithField("email", address).Info("Demo user already exists, skipping")
		return nil
	}

	hasher := services.NewBcryptHasher(cfg.BcryptCost)
	mailer := email.NewService(email.NewLogSender(log), cfg.AppURL)
	authorizer := authz.NewAuthorizer(teams, roles)

	auth := services.NewAuthService(users, repository.NewSessionRepository(db), hasher, mailer, log, cfg.SessionTTL)
	teamService := services.NewTeamService(teams, users, roles, authorizer, mailer, log)
	okrService := services.NewOKRService(repository.NewOkrRepository(db), authorizer, nil, log)

	user, err := auth.Register(ctx, services.RegisterInput{Email: address, Name: "Demo User", Password: password})
	if err != nil {
		return err
	}

	team, err := teamService.CreateTeam(ctx, user.ID, services.CreateTeamInput{
		Name:        "Demo Team",
		Description: "Created by the seed command",
	})
	if err != nil {
		return err
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	end := start.AddDate(0, 3, 0)
	objective, err := okrService.CreateObjective(ctx, user.ID, services.CreateObjectiveInput{
		Title:     "Launch the OKR program",
		Type:      models.ObjectiveTypeTeam,
		TeamID:    &team.ID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return err
	}

	keyResults := []services.CreateKeyResultInput{
		{Title: "Teams with published OKRs", Type: models.KeyResultTypePercentage, TargetValue: 100, Unit: "%"},
		{Title: "Weekly check-ins held", Type: models.KeyResultTypeNumber, TargetValue: 12, Unit: "check-ins"},
		{Title: "Retrospective completed", Type: models.KeyResultTypeBoolean, TargetValue: 1},
	}
	for _, input := range keyResults {
		input.StartDate, input.EndDate = start, end
		if _, err := okrService.CreateKeyResult(ctx, user.ID, objective.ID, input); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{
		"user_id":      user.ID,
		"team_id":      team.ID,
		"objective_id": objective.ID,
	}).Info("Demo data seeded")
	return nil
}
