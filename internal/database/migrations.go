package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds composite indexes used by list and dashboard queries
func AddIndexes(db *gorm.DB, log logrus.FieldLogger) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		{"objectives", "idx_objectives_owner_status", "owner_id, status"},
		{"objectives", "idx_objectives_team_status", "team_id, status"},
		{"key_results", "idx_key_results_objective_created", "objective_id, created_at"},
		{"team_invitations", "idx_team_invitations_team_status", "team_id, status"},
		{"team_invitations", "idx_team_invitations_status_expires", "status, expires_at"},
		{"team_members", "idx_team_members_user_status", "user_id, status"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.WithField("index", idx.name).Debug("Index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.WithFields(logrus.Fields{"index": idx.name, "table": idx.table}).Debug("Created index")
	}

	return nil
}

// BackfillSearchText fills the folded search column on rows written before it existed.
func BackfillSearchText(db *gorm.DB, log logrus.FieldLogger) error {
	var objectives []models.Objective
	err := db.Select("id", "title", "description").
		Where("search_text IS NULL OR search_text = ''").
		FindInBatches(&objectives, 500, func(tx *gorm.DB, _ int) error {
			for _, o := range objectives {
				if err := db.Model(&models.Objective{}).Where("id = ?", o.ID).
					UpdateColumn("search_text", models.SearchText(o.Title, o.Description)).Error; err != nil {
					return err
				}
			}
			return nil
		}).Error
	if err != nil {
		return fmt.Errorf("failed to backfill objective search text: %w", err)
	}

	var users []models.User
	err = db.Select("id", "name", "email").
		Where("search_text IS NULL OR search_text = ''").
		FindInBatches(&users, 500, func(tx *gorm.DB, _ int) error {
			for _, u := range users {
				if err := db.Model(&models.User{}).Where("id = ?", u.ID).
					UpdateColumn("search_text", models.SearchText(u.Name, u.Email)).Error; err != nil {
					return err
				}
			}
			return nil
		}).Error
	if err != nil {
		return fmt.Errorf("failed to backfill user search text: %w", err)
	}

	log.Debug("Search text backfilled")
	return nil
}
