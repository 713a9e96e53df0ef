package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unitime-api/internal/models"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
)

type groupSlotListerStub struct {
	semesterID string
	slots      []models.ScheduleSlot
}

func (s *groupSlotListerStub) ListByGroup(ctx context.Context, groupID, semesterID string) ([]models.ScheduleSlot, error) {
	s.semesterID = semesterID
	return s.slots, nil
}

func TestTimetableServiceForGroup(t *testing.T) {
	groups := &fakeGroupReader{groups: map[string]models.Group{
		"g1": {ID: "g1", FacultyID: "fac-1", CourseLevel: 1},
		"g2": {ID: "g2", FacultyID: "fac-2", CourseLevel: 1},
	}}
	semesters := &fakeSemesterReader{semesters: map[string]models.Semester{
		"sem-1": {ID: "sem-1", FacultyID: "fac-1", CourseLevel: 1, IsActive: true},
	}}
	lister := &groupSlotListerStub{}
	svc := NewTimetableService(lister, groups, semesters, nil)

	timetable, err := svc.ForGroup(context.Background(), "g1", "")
	require.NoError(t, err)
	assert.Equal(t, "sem-1", lister.semesterID)
	assert.Equal(t, "sem-1", timetable.Semester.ID)
	assert.NotNil(t, timetable.Slots)

	_, err = svc.ForGroup(context.Background(), "g2", "")
	requireAppError(t, err, appErrors.ErrNoActiveSemester)

	_, err = svc.ForGroup(context.Background(), "g3", "")
	requireAppError(t, err, appErrors.ErrNotFound)
}
