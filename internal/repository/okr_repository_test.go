package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockOkrRepository(t *testing.T) (OkrRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewOkrRepository(db), mock
}

const (
	deleteKeyResultsSQL = `DELETE FROM "key_results" WHERE objective_id = $1`
	detachChildrenSQL   = `UPDATE "objectives" SET "parent_id"=$1 WHERE parent_id IN ($2)`
	deleteObjectiveSQL  = `DELETE FROM "objectives" WHERE id = $1`
)

func TestDeleteObjective_RemovesKeyResultsInTransaction(t *testing.T) {
	repo, mock := newMockOkrRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteKeyResultsSQL)).
		WithArgs("obj-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(detachChildrenSQL)).
		WithArgs(nil, "obj-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(deleteObjectiveSQL)).
		WithArgs("obj-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteObjective(context.Background(), "obj-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteObjective_RollsBackWhenKeyResultDeleteFails(t *testing.T) {
	repo, mock := newMockOkrRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteKeyResultsSQL)).
		WithArgs("obj-1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.DeleteObjective(context.Background(), "obj-1")
	require.Error(t, err)
	assert.True(t, apperr.IsRepository(err))

	var repoErr *apperr.RepositoryError
	require.True(t, errors.As(err, &repoErr))
	assert.Equal(t, apperr.DomainOkr, repoErr.Domain)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteObjective_RollsBackWhenDetachingChildrenFails(t *testing.T) {
	repo, mock := newMockOkrRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteKeyResultsSQL)).
		WithArgs("obj-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(detachChildrenSQL)).
		WithArgs(nil, "obj-1").
		WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	err := repo.DeleteObjective(context.Background(), "obj-1")
	assert.True(t, apperr.IsRepository(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteObjective_MissingObjectiveRollsBack(t *testing.T) {
	repo, mock := newMockOkrRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteKeyResultsSQL)).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(detachChildrenSQL)).
		WithArgs(nil, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(deleteObjectiveSQL)).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteObjective(context.Background(), "missing")
	assert.True(t, apperr.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateKeyResultProgress_StorageFailure(t *testing.T) {
	repo, mock := newMockOkrRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "key_results" SET`)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.UpdateKeyResultProgress(context.Background(), "kr-1", 10)
	assert.True(t, apperr.IsRepository(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
