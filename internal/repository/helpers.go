package repository

import (
	"errors"
	"strings"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"gorm.io/gorm"
)

// first runs a First query and maps a missing record to (false, nil).
func first(query *gorm.DB, dest interface{}) (bool, error) {
	err := query.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// likeEscape is the escape character paired with likePattern. A backslash
// would need doubling on MySQL, so a plain character is used instead.
const likeEscape = "!"

var likeReplacer = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

// likePattern builds a lower-cased substring pattern with LIKE wildcards in
// the search escaped. Use it with "LIKE ? ESCAPE '!'" against a search_text
// column.
func likePattern(search string) string {
	return "%" + likeReplacer.Replace(models.SearchText(strings.TrimSpace(search))) + "%"
}

// saveAll overwrites every column of model except its key and creation time.
// It reports whether the row exists; MySQL reports zero affected rows for an
// unchanged row, so a miss is confirmed with a count.
func saveAll(db *gorm.DB, model, zero interface{}, id string) (bool, error) {
	result := db.Model(model).Select("*").Omit("id", "created_at").Updates(model)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}
	return exists(db, zero, id)
}

func exists(db *gorm.DB, zero interface{}, id string) (bool, error) {
	var count int64
	if err := db.Model(zero).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
