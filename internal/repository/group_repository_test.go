package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unitime-api/internal/models"
)

var groupColumnNames = []string{"id", "name", "institute_id", "faculty_id", "course_level", "shift", "student_count"}

func TestGroupRepositoryFindByIDs(t *testing.T) {
	db, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	groups, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, groups)

	mock.ExpectQuery(regexp.QuoteMeta("FROM groups WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(groupColumnNames).
			AddRow("g1", "CS-101", "inst-1", "fac-1", 1, "morning", 25).
			AddRow("g2", "CS-102", "inst-1", "fac-1", 1, "morning", 28))

	groups, err = repo.FindByIDs(context.Background(), []string{"g1", "g2"})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, models.ShiftMorning, groups[0].Shift)
	assert.Equal(t, 53, groups[0].StudentCount+groups[1].StudentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryFindByIDReturnsNoRows(t *testing.T) {
	db, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM groups WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(groupColumnNames))

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryInstituteLookups(t *testing.T) {
	db, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM institutes WHERE id = $1")).
		WithArgs("inst-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "pair_duration_minutes", "academic_hour_minutes"}).
			AddRow("inst-1", "Engineering", 80, 40))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT institute_id FROM faculties WHERE id = $1")).
		WithArgs("fac-1").
		WillReturnRows(sqlmock.NewRows([]string{"institute_id"}).AddRow("inst-1"))

	institute, err := repo.FindInstitute(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Equal(t, models.HourRatio{PairMinutes: 80, HourMinutes: 40}, institute.HourRatio())

	instituteID, err := repo.FacultyInstitute(context.Background(), "fac-1")
	require.NoError(t, err)
	assert.Equal(t, "inst-1", instituteID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
