package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/unitime-api/internal/dto"
	"github.com/noah-isme/unitime-api/internal/models"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type fakeSlotStore struct {
	slots     map[string]models.ScheduleSlot
	seq       int
	createErr error
}

func newFakeSlotStore(slots ...models.ScheduleSlot) *fakeSlotStore {
	store := &fakeSlotStore{slots: make(map[string]models.ScheduleSlot)}
	for _, slot := range slots {
		slot.IsActive = true
		store.slots[slot.ID] = slot
	}
	return store
}

func (f *fakeSlotStore) sorted(match func(models.ScheduleSlot) bool) []models.ScheduleSlot {
	var result []models.ScheduleSlot
	for _, slot := range f.slots {
		if match(slot) {
			result = append(result, slot)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (f *fakeSlotStore) FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error) {
	slot, ok := f.slots[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &slot, nil
}

func (f *fakeSlotStore) ListAtPosition(ctx context.Context, exec sqlx.ExtContext, pos models.SlotPosition) ([]models.ScheduleSlot, error) {
	return f.sorted(func(s models.ScheduleSlot) bool {
		return s.IsActive && s.SemesterID == pos.SemesterID && s.DayOfWeek == pos.DayOfWeek && s.TimeSlotID == pos.TimeSlotID
	}), nil
}

func (f *fakeSlotStore) ListByStream(ctx context.Context, exec sqlx.ExtContext, streamID string) ([]models.ScheduleSlot, error) {
	return f.sorted(func(s models.ScheduleSlot) bool { return s.StreamID != nil && *s.StreamID == streamID }), nil
}

func (f *fakeSlotStore) CreateBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.ScheduleSlot) error {
	if f.createErr != nil {
		return f.createErr
	}
	for i := range slots {
		f.seq++
		slots[i].ID = fmt.Sprintf("new-%02d", f.seq)
		f.slots[slots[i].ID] = slots[i]
	}
	return nil
}

func (f *fakeSlotStore) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) (int, error) {
	count := 0
	for _, id := range ids {
		if _, ok := f.slots[id]; ok {
			delete(f.slots, id)
			count++
		}
	}
	return count, nil
}

func (f *fakeSlotStore) DeleteByStream(ctx context.Context, exec sqlx.ExtContext, streamID string) (int, error) {
	members, _ := f.ListByStream(ctx, exec, streamID)
	for _, m := range members {
		delete(f.slots, m.ID)
	}
	return len(members), nil
}

func (f *fakeSlotStore) DeleteByGroupDay(ctx context.Context, exec sqlx.ExtContext, groupID, semesterID string, day int) (int, error) {
	matches := f.sorted(func(s models.ScheduleSlot) bool {
		return s.IsActive && s.GroupID == groupID && s.SemesterID == semesterID && s.DayOfWeek == day
	})
	for _, m := range matches {
		delete(f.slots, m.ID)
	}
	return len(matches), nil
}

func (f *fakeSlotStore) UpdateRoom(ctx context.Context, exec sqlx.ExtContext, ids []string, classroomID, roomText string) error {
	for _, id := range ids {
		slot := f.slots[id]
		slot.ClassroomID = &classroomID
		slot.RoomText = &roomText
		f.slots[id] = slot
	}
	return nil
}

func (f *fakeSlotStore) UpdateRoomByStream(ctx context.Context, exec sqlx.ExtContext, streamID, classroomID, roomText string) (int, error) {
	members, _ := f.ListByStream(ctx, exec, streamID)
	for _, m := range members {
		m.ClassroomID = &classroomID
		m.RoomText = &roomText
		f.slots[m.ID] = m
	}
	return len(members), nil
}

type fakeGroupReader struct {
	groups     map[string]models.Group
	institutes map[string]models.Institute
	faculties  map[string]string
}

func (f *fakeGroupReader) FindByID(ctx context.Context, id string) (*models.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &g, nil
}

func (f *fakeGroupReader) FindByIDs(ctx context.Context, ids []string) ([]models.Group, error) {
	var result []models.Group
	for _, id := range ids {
		if g, ok := f.groups[id]; ok {
			result = append(result, g)
		}
	}
	return result, nil
}

func (f *fakeGroupReader) FindInstitute(ctx context.Context, id string) (*models.Institute, error) {
	inst, ok := f.institutes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &inst, nil
}

func (f *fakeGroupReader) FacultyInstitute(ctx context.Context, facultyID string) (string, error) {
	inst, ok := f.faculties[facultyID]
	if !ok {
		return "", sql.ErrNoRows
	}
	return inst, nil
}

type fakeSubjectReader struct {
	subjects map[string]models.Subject
	groups   map[string][]string
}

func (f *fakeSubjectReader) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	s, ok := f.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (f *fakeSubjectReader) FindByCode(ctx context.Context, code string) (*models.Subject, error) {
	for _, s := range f.subjects {
		if s.Code == code {
			s := s
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSubjectReader) ListGroupIDs(ctx context.Context, subjectID string) ([]string, error) {
	return f.groups[subjectID], nil
}

func (f *fakeSubjectReader) ListByGroup(ctx context.Context, groupID string) ([]models.Subject, error) {
	var result []models.Subject
	for subjectID, groupIDs := range f.groups {
		for _, id := range groupIDs {
			if id == groupID {
				result = append(result, f.subjects[subjectID])
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type fakeSemesterReader struct {
	semesters map[string]models.Semester
}

func (f *fakeSemesterReader) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	s, ok := f.semesters[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (f *fakeSemesterReader) FindActiveForScope(ctx context.Context, facultyID string, courseLevel int) (*models.Semester, error) {
	for _, s := range f.semesters {
		if s.IsActive && s.FacultyID == facultyID && s.CourseLevel == courseLevel {
			s := s
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeTimeGrid struct {
	slots map[string]models.TimeSlot
}

func (f *fakeTimeGrid) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	ts, ok := f.slots[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &ts, nil
}

func (f *fakeTimeGrid) ListForInstitute(ctx context.Context, instituteID string, shift models.Shift) ([]models.TimeSlot, error) {
	var result []models.TimeSlot
	for _, ts := range f.slots {
		if ts.Shift == shift {
			result = append(result, ts)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

type fakeClassrooms struct {
	rooms []models.Classroom
}

func (f *fakeClassrooms) FindActiveByNumber(ctx context.Context, number string) ([]models.Classroom, error) {
	var result []models.Classroom
	for _, r := range f.rooms {
		if r.Number == number && r.IsActive {
			result = append(result, r)
		}
	}
	return result, nil
}

func (f *fakeClassrooms) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	for _, r := range f.rooms {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, sql.ErrNoRows
}

// occupancyRecorder answers room checks from the fake store and records invalidated days.
type occupancyRecorder struct {
	store     *fakeSlotStore
	semesters *fakeSemesterReader
	days      []string
}

func (r *occupancyRecorder) RoomOccupants(ctx context.Context, classroomID string, pos models.SlotPosition) ([]models.ScheduleSlot, error) {
	return r.store.sorted(func(s models.ScheduleSlot) bool {
		if !s.IsActive || s.ClassroomID == nil || *s.ClassroomID != classroomID {
			return false
		}
		if s.DayOfWeek != pos.DayOfWeek || s.TimeSlotID != pos.TimeSlotID {
			return false
		}
		return s.SemesterID == pos.SemesterID || r.semesters.semesters[s.SemesterID].IsActive
	}), nil
}

func (r *occupancyRecorder) InvalidateDay(ctx context.Context, semesterID string, day int) {
	r.days = append(r.days, fmt.Sprintf("%s:%d", semesterID, day))
}

type assignmentFixture struct {
	service     *AssignmentService
	store       *fakeSlotStore
	subjects    *fakeSubjectReader
	groups      *fakeGroupReader
	semesters   *fakeSemesterReader
	invalidated *occupancyRecorder
	mock        sqlmock.Sqlmock
}

func strPtr(v string) *string { return &v }

func newAssignmentFixture(t *testing.T, existing ...models.ScheduleSlot) *assignmentFixture {
	t.Helper()
	tx, mock := newTxProviderMock(t)

	groups := &fakeGroupReader{
		groups: map[string]models.Group{
			"g1": {ID: "g1", Name: "CS-101", InstituteID: "inst-1", FacultyID: "fac-1", CourseLevel: 1, Shift: models.ShiftMorning, StudentCount: 20},
			"g2": {ID: "g2", Name: "CS-102", InstituteID: "inst-1", FacultyID: "fac-1", CourseLevel: 1, Shift: models.ShiftMorning, StudentCount: 20},
			"g3": {ID: "g3", Name: "CS-103", InstituteID: "inst-1", FacultyID: "fac-1", CourseLevel: 1, Shift: models.ShiftMorning, StudentCount: 15},
			"g4": {ID: "g4", Name: "CS-104", InstituteID: "inst-1", FacultyID: "fac-1", CourseLevel: 1, Shift: models.ShiftMorning, StudentCount: 15},
			"g5": {ID: "g5", Name: "MA-101", InstituteID: "inst-1", FacultyID: "fac-2", CourseLevel: 1, Shift: models.ShiftMorning, StudentCount: 25},
			"g9": {ID: "g9", Name: "EC-301", InstituteID: "inst-1", FacultyID: "fac-9", CourseLevel: 3, Shift: models.ShiftMorning, StudentCount: 10},
		},
		institutes: map[string]models.Institute{
			"inst-1": {ID: "inst-1", PairDurationMinutes: 80, AcademicHourMinutes: 40},
		},
	}
	subjects := &fakeSubjectReader{
		subjects: map[string]models.Subject{
			"algo":    {ID: "algo", Code: "ALG", Name: "Algorithms", LectureHours: 32, PracticeHours: 16, SemesterWeeks: 16, TeacherID: strPtr("t1")},
			"physics": {ID: "physics", Code: "PHY", Name: "Physics", PracticeHours: 32, SemesterWeeks: 16},
			"chem":    {ID: "chem", Code: "CHM", Name: "Chemistry", PracticeHours: 32, SemesterWeeks: 16, TeacherID: strPtr("t2")},
			"mil":     {ID: "mil", Code: "MILITARY", Name: "Military training"},
		},
		groups: map[string][]string{
			"algo":    {"g1", "g2"},
			"physics": {"g1"},
			"chem":    {"g1", "g5"},
		},
	}
	semesters := &fakeSemesterReader{semesters: map[string]models.Semester{
		"sem-1":   {ID: "sem-1", FacultyID: "fac-1", CourseLevel: 1, Shift: models.ShiftMorning, IsActive: true},
		"sem-day": {ID: "sem-day", FacultyID: "fac-1", CourseLevel: 1, Shift: models.ShiftDay},
		"sem-5":   {ID: "sem-5", FacultyID: "fac-2", CourseLevel: 1, Shift: models.ShiftMorning, IsActive: true},
	}}
	grid := &fakeTimeGrid{slots: map[string]models.TimeSlot{
		"ts-1":   {ID: "ts-1", Shift: models.ShiftMorning, Number: 1, StartTime: "08:00", EndTime: "09:20"},
		"ts-2":   {ID: "ts-2", Shift: models.ShiftMorning, Number: 2, StartTime: "09:30", EndTime: "10:50"},
		"ts-d1":  {ID: "ts-d1", Shift: models.ShiftDay, Number: 1, StartTime: "13:30", EndTime: "14:50"},
		"ts-bad": {ID: "ts-bad", Shift: models.ShiftMorning, Number: 9, StartTime: "late"},
	}}
	rooms := &fakeClassrooms{rooms: []models.Classroom{
		{ID: "room-a101", BuildingName: "A", InstituteID: "inst-1", Number: "101", Capacity: 30, IsActive: true},
		{ID: "room-b101", BuildingName: "B", InstituteID: "inst-2", Number: "101", Capacity: 100, IsActive: true},
		{ID: "room-a200", BuildingName: "A", InstituteID: "inst-1", Number: "200", Capacity: 120, IsActive: true},
		{ID: "room-a300", BuildingName: "A", InstituteID: "inst-1", Number: "300", Capacity: 50, IsActive: false},
	}}

	store := newFakeSlotStore(existing...)
	invalidated := &occupancyRecorder{store: store, semesters: semesters}
	svc := NewAssignmentService(store, groups, subjects, semesters, grid, rooms, invalidated, NewMetricsService(), tx, nil, zap.NewNop(), AssignmentConfig{})
	return &assignmentFixture{service: svc, store: store, subjects: subjects, groups: groups, semesters: semesters, invalidated: invalidated, mock: mock}
}

func requireAppError(t *testing.T, err error, expected *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, expected.Code, appErr.Code)
	assert.Equal(t, expected.Status, appErr.Status)
}

func lectureRequest(group string) dto.AssignmentRequest {
	return dto.AssignmentRequest{GroupID: group, SubjectID: "algo", DayOfWeek: 0, TimeSlotID: "ts-2", LessonType: "LECTURE"}
}

func TestAssignmentServiceCreatesStreamForSharedLecture(t *testing.T) {
	fx := newAssignmentFixture(t)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	outcome, err := fx.service.CreateAssignment(context.Background(), lectureRequest("g1"))
	require.NoError(t, err)
	require.True(t, outcome.Committed())
	assert.Equal(t, 2, outcome.Count)
	assert.True(t, outcome.IsStream)
	require.NotNil(t, outcome.StreamID)

	require.Len(t, fx.store.slots, 2)
	groups := map[string]bool{}
	for _, slot := range fx.store.slots {
		require.NotNil(t, slot.StreamID)
		assert.Equal(t, *outcome.StreamID, *slot.StreamID)
		assert.Equal(t, "sem-1", slot.SemesterID)
		assert.Equal(t, "09:30", slot.StartTime)
		assert.Equal(t, "t1", *slot.TeacherID)
		groups[slot.GroupID] = true
	}
	assert.Equal(t, map[string]bool{"g1": true, "g2": true}, groups)
	assert.Equal(t, []string{"sem-1:0"}, fx.invalidated.days)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestAssignmentServiceThirdGroupJoinsStreamAndFourthIsRejected(t *testing.T) {
	fx := newAssignmentFixture(t)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()
	_, err := fx.service.CreateAssignment(context.Background(), lectureRequest("g1"))
	require.NoError(t, err)

	fx.subjects.groups["algo"] = []string{"g1", "g2", "g3"}
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()
	outcome, err := fx.service.CreateAssignment(context.Background(), lectureRequest("g3"))
	require.NoError(t, err)
	require.True(t, outcome.Committed())
	assert.Equal(t, 3, outcome.Count)

	require.Len(t, fx.store.slots, 3)
	for _, slot := range fx.store.slots {
		assert.Equal(t, *outcome.StreamID, *slot.StreamID)
	}

	fx.subjects.groups["algo"] = []string{"g1", "g2", "g3", "g4"}
	_, err = fx.service.CreateAssignment(context.Background(), lectureRequest("g4"))
	requireAppError(t, err, appErrors.ErrStreamTooLarge)
	assert.Len(t, fx.store.slots, 3)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestAssignmentServiceStreamKeepsRoomWhenGroupJoins(t *testing.T) {
	fx := newAssignmentFixture(t)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()
	created, err := fx.service.CreateAssignment(context.Background(), lectureRequest("g1"))
	require.NoError(t, err)
	require.Len(t, created.Slots, 2)

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()
	roomed, err := fx.service.UpdateRoom(context.Background(), dto.UpdateRoomRequest{SlotID: created.Slots[0].ID, Room: "200"})
	require.NoError(t, err)
	require.True(t, roomed.Committed())

	fx.subjects.groups["algo"] = []string{"g1", "g2", "g3"}
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()
	outcome, err := fx.service.CreateAssignment(context.Background(), lectureRequest("g3"))
	require.NoError(t, err)
	require.True(t, outcome.Committed())
	assert.Equal(t, 3, outcome.Count)

	require.Len(t, fx.store.slots, 3)
	for _, slot := range fx.store.slots {
		require.NotNil(t, slot.ClassroomID, slot.GroupID)
		assert.Equal(t, "room-a200", *slot.ClassroomID)
		require.NotNil(t, slot.RoomText)
		assert.Equal(t, "A-200", *slot.RoomText)
	}
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestAssignmentServiceGroupConflictSoftFailsThenForceReplaces(t *testing.T) {
	existing := models.ScheduleSlot{ID: "old", GroupID: "g1", SubjectID: "physics", LessonType: models.LessonPractice, WeekParity: models.ParityEvery, SemesterID: "sem-1", DayOfWeek: 0, TimeSlotID: "ts-2"}
	fx := newAssignmentFixture(t, existing)

	req := dto.AssignmentRequest{GroupID: "g1", SubjectID: "algo", DayOfWeek: 0, TimeSlotID: "ts-2", LessonType: "PRACTICE"}
	outcome, err := fx.service.CreateAssignment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeConflict, outcome.Kind)
	require.Len(t, outcome.Conflicts, 1)
	assert.Equal(t, models.ConflictGroup, outcome.Conflicts[0].Kind)
	assert.Equal(t, "old", outcome.Conflicts[0].SlotID)
	assert.Contains(t, models.JoinConflictMessages(outcome.Conflicts), "CS-101")
	assert.Contains(t, fx.store.slots, "old")
	assert.Empty(t, fx.invalidated.days)

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()
	req.Force = true
	outcome, err = fx.service.CreateAssignment(context.Background(), req)
	require.NoError(t, err)
	require.True(t, outcome.Committed())
	assert.Equal(t, 1, outcome.Count)
	assert.False(t, outcome.IsStream)
	assert.Nil(t, outcome.StreamID)
	assert.NotContains(t, fx.store.slots, "old")
	assert.Len(t, fx.store.slots, 1)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestAssignmentServiceTeacherConflict(t *testing.T) {
	busy := models.ScheduleSlot{ID: "busy", GroupID: "g9", SubjectID: "other", TeacherID: strPtr("t2"), LessonType: models.LessonPractice, WeekParity: models.ParityEvery, SemesterID: "sem-1", DayOfWeek: 0, TimeSlotID: "ts-2"}
	fx := newAssignmentFixture(t, busy)

	outcome, err := fx.service.CreateAssignment(context.Background(), dto.AssignmentRequest{GroupID: "g1", SubjectID: "chem", DayOfWeek: 0, TimeSlotID: "ts-2", LessonType: "PRACTICE"})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeConflict, outcome.Kind)
	require.Len(t, outcome.Conflicts, 1)
	assert.Equal(t, models.ConflictTeacher, outcome.Conflicts[0].Kind)
	assert.Len(t, fx.store.slots, 1)
}

func TestAssignmentServiceRespectsWeekParity(t *testing.T) {
	red := models.ScheduleSlot{ID: "red", GroupID: "g1", SubjectID: "physics", LessonType: models.LessonPractice, WeekParity: models.ParityRed, SemesterID: "sem-1", DayOfWeek: 0, TimeSlotID: "ts-2"}
	fx := newAssignmentFixture(t, red)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	outcome, err := fx.service.CreateAssignment(context.Background(), dto.AssignmentRequest{GroupID: "g1", SubjectID: "chem", DayOfWeek: 0, TimeSlotID: "ts-2", LessonType: "PRACTICE", WeekParity: "blue"})
	require.NoError(t, err)
	require.True(t, outcome.Committed())
	assert.Len(t, fx.store.slots, 2)

	outcome, err = fx.service.CreateAssignment(context.Background(), dto.AssignmentRequest{GroupID: "g1", SubjectID: "algo", DayOfWeek: 0, TimeSlotID: "ts-2", LessonType: "PRACTICE", WeekParity: "every"})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeConflict, outcome.Kind)
	assert.Len(t, outcome.Conflicts, 2)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestAssignmentServiceParityChangeOfSameSessionConflicts(t *testing.T) {
	every := models.ScheduleSlot{ID: "every", GroupID: "g1", SubjectID: "physics", LessonType: models.LessonPractice, WeekParity: models.ParityEvery, SemesterID: "sem-1", DayOfWeek: 0, TimeSlotID: "ts-2"}
	fx := newAssignmentFixture(t, every)

	req := dto.AssignmentRequest{GroupID: "g1", SubjectID: "physics", DayOfWeek: 0, TimeSlotID: "ts-2", LessonType: "PRACTICE", WeekParity: "red"}
	outcome, err := fx.service.CreateAssignment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeConflict, outcome.Kind)
	require.Len(t, outcome.Conflicts, 1)
	assert.Equal(t, models.ConflictGroup, outcome.Conflicts[0].Kind)
	assert.Equal(t, "every", outcome.Conflicts[0].SlotID)
	assert.Contains(t, fx.store.slots, "every")
	assert.Len(t, fx.store.slots, 1)
	assert.Empty(t, fx.invalidated.days)

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()
	req.Force = true
	outcome, err = fx.service.CreateAssignment(context.Background(), req)
	require.NoError(t, err)
	require.True(t, outcome.Committed())
	assert.NotContains(t, fx.store.slots, "every")
	require.Len(t, fx.store.slots, 1)
	for _, slot := range fx.store.slots {
		assert.Equal(t, models.ParityRed, slot.WeekParity)
	}

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()
	outcome, err = fx.service.CreateAssignment(context.Background(), dto.AssignmentRequest{GroupID: "g1", SubjectID: "physics", DayOfWeek: 0, TimeSlotID: "ts-2", LessonType: "PRACTICE", WeekParity: "red"})
	require.NoError(t, err)
	require.True(t, outcome.Committed())
	assert.Len(t, fx.store.slots, 1)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestAssignmentServiceShiftMismatchCommitsNothing(t *testing.T) {
	fx := newAssignmentFixture(t)

	req := lectureRequest("g1")
	req.SemesterID = "sem-day"
	_, err := fx.service.CreateAssignment(context.Background(), req)
	requireAppError(t, err, appErrors.ErrShiftMismatch)
	assert.Empty(t, fx.store.slots)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestAssignmentServiceMalformedTime(t *testing.T) {
	fx := newAssignmentFixture(t)

	req := lectureRequest("g1")
	req.TimeSlotID = "ts-bad"
	_, err := fx.service.CreateAssignment(context.Background(), req)
	requireAppError(t, err, appErrors.ErrMalformedTime)
}

func TestAssignmentServiceNoActiveSemester(t *testing.T) {
	fx := newAssignmentFixture(t)

	_, err := fx.service.CreateAssignment(context.Background(), dto.AssignmentRequest{GroupID: "g9", SubjectID: "physics", DayOfWeek: 1, TimeSlotID: "ts-1", LessonType: "PRACTICE"})
	requireAppError(t, err, appErrors.ErrNoActiveSemester)
}

func TestAssignmentServiceNotFoundAndValidation(t *testing.T) {
	fx := newAssignmentFixture(t)

	_, err := fx.service.CreateAssignment(context.Background(), dto.AssignmentRequest{GroupID: "missing", SubjectID: "algo", TimeSlotID: "ts-1", LessonType: "LECTURE"})
	requireAppError(t, err, appErrors.ErrNotFound)

	_, err = fx.service.CreateAssignment(context.Background(), dto.AssignmentRequest{GroupID: "g1", SubjectID: "algo", TimeSlotID: "ts-1", LessonType: "SEMINAR"})
	requireAppError(t, err, appErrors.ErrValidation)

	_, err = fx.service.CreateAssignment(context.Background(), dto.AssignmentRequest{GroupID: "g1", SubjectID: "algo", DayOfWeek: 6, TimeSlotID: "ts-1", LessonType: "LECTURE"})
	requireAppError(t, err, appErrors.ErrValidation)
}

func TestAssignmentServiceRollsBackWhenInsertFails(t *testing.T) {
	fx := newAssignmentFixture(t)
	fx.store.createErr = errors.New("insert failed")
	fx.mock.ExpectBegin()
	fx.mock.ExpectRollback()

	_, err := fx.service.CreateAssignment(context.Background(), lectureRequest("g1"))
	requireAppError(t, err, appErrors.ErrInternal)
	assert.Empty(t, fx.store.slots)
	assert.Empty(t, fx.invalidated.days)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestAssignmentServiceCheckConflictsDoesNotWrite(t *testing.T) {
	occupant := models.ScheduleSlot{ID: "occ", GroupID: "g9", SubjectID: "other", LessonType: models.LessonPractice, WeekParity: models.ParityEvery, SemesterID: "sem-1", DayOfWeek: 0, TimeSlotID: "ts-2", ClassroomID: strPtr("room-a200")}
	mine := models.ScheduleSlot{ID: "mine", GroupID: "g1", SubjectID: "physics", LessonType: models.LessonPractice, WeekParity: models.ParityEvery, SemesterID: "sem-1", DayOfWeek: 0, TimeSlotID: "ts-2"}
	fx := newAssignmentFixture(t, occupant, mine)

	conflicts, err := fx.service.CheckConflicts(context.Background(), dto.ConflictCheckRequest{AssignmentRequest: lectureRequest("g1"), Room: "200"})
	require.NoError(t, err)
	require.Len(t, conflicts, 2)
	assert.Equal(t, models.ConflictGroup, conflicts[0].Kind)
	assert.Equal(t, models.ConflictRoom, conflicts[1].Kind)
	assert.Len(t, fx.store.slots, 2)

	conflicts, err = fx.service.CheckConflicts(context.Background(), dto.ConflictCheckRequest{AssignmentRequest: dto.AssignmentRequest{GroupID: "g1", SubjectID: "algo", DayOfWeek: 1, TimeSlotID: "ts-1", LessonType: "PRACTICE"}})
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func streamSlots() []models.ScheduleSlot {
	stream := "stream-1"
	return []models.ScheduleSlot{
		{ID: "s1", GroupID: "g1", SubjectID: "algo", LessonType: models.LessonLecture, WeekParity: models.ParityEvery, SemesterID: "sem-1", DayOfWeek: 2, TimeSlotID: "ts-1", StreamID: &stream},
		{ID: "s2", GroupID: "g2", SubjectID: "algo", LessonType: models.LessonLecture, WeekParity: models.ParityEvery, SemesterID: "sem-1", DayOfWeek: 2, TimeSlotID: "ts-1", StreamID: &stream},
		{ID: "solo", GroupID: "g3", SubjectID: "physics", LessonType: models.LessonPractice, WeekParity: models.ParityEvery, SemesterID: "sem-1", DayOfWeek: 2, TimeSlotID: "ts-2"},
	}
}

func TestAssignmentServiceUpdateRoomAppliesToWholeStream(t *testing.T) {
	fx := newAssignmentFixture(t, streamSlots()...)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	outcome, err := fx.service.UpdateRoom(context.Background(), dto.UpdateRoomRequest{SlotID: "s2", Room: "200"})
	require.NoError(t, err)
	require.True(t, outcome.Committed())
	assert.Equal(t, "A-200", outcome.Room)
	assert.Equal(t, 2, outcome.Count)

	for _, id := range []string{"s1", "s2"} {
		require.NotNil(t, fx.store.slots[id].ClassroomID)
		assert.Equal(t, "room-a200", *fx.store.slots[id].ClassroomID)
	}
	assert.Nil(t, fx.store.slots["solo"].ClassroomID)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestAssignmentServiceUpdateRoomCapacityWarning(t *testing.T) {
	fx := newAssignmentFixture(t, streamSlots()...)

	outcome, err := fx.service.UpdateRoom(context.Background(), dto.UpdateRoomRequest{SlotID: "s1", Room: "101"})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeWarning, outcome.Kind)
	require.NotNil(t, outcome.Warning)
	assert.Equal(t, 40, outcome.Warning.Students)
	assert.Equal(t, 30, outcome.Warning.Capacity)
	assert.Equal(t, "A-101", outcome.Warning.Room)
	assert.Nil(t, fx.store.slots["s1"].ClassroomID)

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()
	outcome, err = fx.service.UpdateRoom(context.Background(), dto.UpdateRoomRequest{SlotID: "s1", Room: "101", Force: true})
	require.NoError(t, err)
	require.True(t, outcome.Committed())
	assert.Equal(t, "room-a101", *fx.store.slots["s2"].ClassroomID)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestAssignmentServiceUpdateRoomConflict(t *testing.T) {
	slots := streamSlots()
	slots[2].TimeSlotID = "ts-1"
	slots[2].ClassroomID = strPtr("room-a200")
	fx := newAssignmentFixture(t, slots...)

	outcome, err := fx.service.UpdateRoom(context.Background(), dto.UpdateRoomRequest{SlotID: "s1", Room: "200"})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeConflict, outcome.Kind)
	require.Len(t, outcome.Conflicts, 1)
	assert.Equal(t, models.ConflictRoom, outcome.Conflicts[0].Kind)
	assert.Equal(t, "solo", outcome.Conflicts[0].SlotID)
	assert.Nil(t, fx.store.slots["s1"].ClassroomID)
}

func TestAssignmentServiceRoomChecksSpanActiveSemesters(t *testing.T) {
	otherSemester := models.ScheduleSlot{ID: "other-sem", GroupID: "g5", SubjectID: "chem", LessonType: models.LessonPractice, WeekParity: models.ParityEvery, SemesterID: "sem-5", DayOfWeek: 0, TimeSlotID: "ts-2", ClassroomID: strPtr("room-a200")}
	archived := models.ScheduleSlot{ID: "archived", GroupID: "g9", SubjectID: "other", LessonType: models.LessonPractice, WeekParity: models.ParityEvery, SemesterID: "sem-day", DayOfWeek: 0, TimeSlotID: "ts-2", ClassroomID: strPtr("room-a200")}
	mine := models.ScheduleSlot{ID: "mine", GroupID: "g1", SubjectID: "physics", LessonType: models.LessonPractice, WeekParity: models.ParityEvery, SemesterID: "sem-1", DayOfWeek: 0, TimeSlotID: "ts-2"}
	fx := newAssignmentFixture(t, otherSemester, archived, mine)

	outcome, err := fx.service.UpdateRoom(context.Background(), dto.UpdateRoomRequest{SlotID: "mine", Room: "200"})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeConflict, outcome.Kind)
	require.Len(t, outcome.Conflicts, 1)
	assert.Equal(t, models.ConflictRoom, outcome.Conflicts[0].Kind)
	assert.Equal(t, "other-sem", outcome.Conflicts[0].SlotID)
	assert.Nil(t, fx.store.slots["mine"].ClassroomID)

	check := dto.AssignmentRequest{GroupID: "g1", SubjectID: "physics", DayOfWeek: 0, TimeSlotID: "ts-2", LessonType: "PRACTICE"}
	conflicts, err := fx.service.CheckConflicts(context.Background(), dto.ConflictCheckRequest{AssignmentRequest: check, Room: "200"})
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictRoom, conflicts[0].Kind)
	assert.Equal(t, "other-sem", conflicts[0].SlotID)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestAssignmentServiceUpdateRoomIgnoresOwnStream(t *testing.T) {
	slots := streamSlots()
	slots[0].ClassroomID = strPtr("room-a200")
	slots[1].ClassroomID = strPtr("room-a200")
	fx := newAssignmentFixture(t, slots...)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	outcome, err := fx.service.UpdateRoom(context.Background(), dto.UpdateRoomRequest{SlotID: "s1", Room: "200"})
	require.NoError(t, err)
	assert.True(t, outcome.Committed())
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestAssignmentServiceUpdateRoomResolution(t *testing.T) {
	fx := newAssignmentFixture(t, streamSlots()...)

	_, err := fx.service.UpdateRoom(context.Background(), dto.UpdateRoomRequest{SlotID: "solo", Room: "300"})
	requireAppError(t, err, appErrors.ErrRoomNotFound)

	_, err = fx.service.UpdateRoom(context.Background(), dto.UpdateRoomRequest{SlotID: "missing", Room: "101"})
	requireAppError(t, err, appErrors.ErrNotFound)

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()
	outcome, err := fx.service.UpdateRoom(context.Background(), dto.UpdateRoomRequest{SlotID: "solo", Room: "101"})
	require.NoError(t, err)
	assert.Equal(t, "A-101", outcome.Room)
	assert.Equal(t, "room-a101", *fx.store.slots["solo"].ClassroomID)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestAssignmentServiceDeleteStreamRemovesOnlyMembers(t *testing.T) {
	fx := newAssignmentFixture(t, streamSlots()...)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	result, err := fx.service.DeleteAssignment(context.Background(), dto.DeleteSlotRequest{SlotID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.True(t, result.IsStream)
	assert.Len(t, fx.store.slots, 1)
	assert.Contains(t, fx.store.slots, "solo")

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()
	result, err = fx.service.DeleteAssignment(context.Background(), dto.DeleteSlotRequest{SlotID: "solo"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.False(t, result.IsStream)
	assert.Empty(t, fx.store.slots)
	assert.Equal(t, []string{"sem-1:2", "sem-1:2"}, fx.invalidated.days)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestAssignmentServiceBulkAssignSpecialDay(t *testing.T) {
	existing := []models.ScheduleSlot{
		{ID: "mon", GroupID: "g1", SubjectID: "physics", LessonType: models.LessonPractice, SemesterID: "sem-1", DayOfWeek: 4, TimeSlotID: "ts-1"},
		{ID: "other-day", GroupID: "g1", SubjectID: "physics", LessonType: models.LessonPractice, SemesterID: "sem-1", DayOfWeek: 3, TimeSlotID: "ts-1"},
	}
	fx := newAssignmentFixture(t, existing...)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	outcome, err := fx.service.BulkAssignSpecialDay(context.Background(), dto.SpecialDayRequest{GroupID: "g1", DayOfWeek: 4, SemesterID: "sem-1"})
	require.NoError(t, err)
	require.True(t, outcome.Committed())
	assert.Equal(t, 3, outcome.Count)

	assert.NotContains(t, fx.store.slots, "mon")
	assert.Contains(t, fx.store.slots, "other-day")
	military := 0
	for _, slot := range fx.store.slots {
		if slot.IsMilitary {
			military++
			assert.Equal(t, "mil", slot.SubjectID)
			assert.Equal(t, 4, slot.DayOfWeek)
		}
	}
	assert.Equal(t, 3, military)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestEffectiveShift(t *testing.T) {
	cases := []struct {
		name     string
		slot     models.TimeSlot
		expected models.Shift
		wantErr  bool
	}{
		{name: "morning", slot: models.TimeSlot{Shift: models.ShiftMorning, StartTime: "12:59"}, expected: models.ShiftMorning},
		{name: "day boundary", slot: models.TimeSlot{Shift: models.ShiftMorning, StartTime: "13:00"}, expected: models.ShiftDay},
		{name: "seconds", slot: models.TimeSlot{Shift: models.ShiftDay, StartTime: "14:10:00"}, expected: models.ShiftDay},
		{name: "evening keeps tag", slot: models.TimeSlot{Shift: models.ShiftEvening, StartTime: "18:00"}, expected: models.ShiftEvening},
		{name: "malformed", slot: models.TimeSlot{Shift: models.ShiftMorning, StartTime: "8am"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			slot := tc.slot
			shift, err := EffectiveShift(&slot, 13)
			if tc.wantErr {
				requireAppError(t, err, appErrors.ErrMalformedTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, shift)
		})
	}
}
