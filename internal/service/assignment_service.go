package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/unitime-api/internal/dto"
	"github.com/noah-isme/unitime-api/internal/models"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type slotStore interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error)
	ListAtPosition(ctx context.Context, exec sqlx.ExtContext, pos models.SlotPosition) ([]models.ScheduleSlot, error)
	ListByStream(ctx context.Context, exec sqlx.ExtContext, streamID string) ([]models.ScheduleSlot, error)
	CreateBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.ScheduleSlot) error
	DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) (int, error)
	DeleteByStream(ctx context.Context, exec sqlx.ExtContext, streamID string) (int, error)
	DeleteByGroupDay(ctx context.Context, exec sqlx.ExtContext, groupID, semesterID string, day int) (int, error)
	UpdateRoom(ctx context.Context, exec sqlx.ExtContext, ids []string, classroomID, roomText string) error
	UpdateRoomByStream(ctx context.Context, exec sqlx.ExtContext, streamID, classroomID, roomText string) (int, error)
}

type groupReader interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Group, error)
}

type catalogSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	FindByCode(ctx context.Context, code string) (*models.Subject, error)
	ListGroupIDs(ctx context.Context, subjectID string) ([]string, error)
}

type semesterResolver interface {
	FindByID(ctx context.Context, id string) (*models.Semester, error)
	FindActiveForScope(ctx context.Context, facultyID string, courseLevel int) (*models.Semester, error)
}

type timeGridReader interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	ListForInstitute(ctx context.Context, instituteID string, shift models.Shift) ([]models.TimeSlot, error)
}

type classroomFinder interface {
	FindActiveByNumber(ctx context.Context, number string) ([]models.Classroom, error)
}

// roomOccupancy answers room checks and drops cached occupancy after writes.
type roomOccupancy interface {
	RoomOccupants(ctx context.Context, classroomID string, pos models.SlotPosition) ([]models.ScheduleSlot, error)
	InvalidateDay(ctx context.Context, semesterID string, day int)
}

type assignmentRecorder interface {
	RecordAssignmentOutcome(operation string, kind models.OutcomeKind)
	RecordConflicts(conflicts []models.ScheduleConflict)
}

// AssignmentConfig tunes the assignment engine.
type AssignmentConfig struct {
	MaxStreamGroups    int
	DayShiftStartHour  int
	SpecialSubjectCode string
}

// AssignmentService places sessions into the timetable, detecting conflicts before any write.
type AssignmentService struct {
	slots      slotStore
	groups     groupReader
	subjects   catalogSubjectReader
	semesters  semesterResolver
	timeSlots  timeGridReader
	classrooms classroomFinder
	occupancy  roomOccupancy
	metrics    assignmentRecorder
	tx         txProvider
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        AssignmentConfig
}

// NewAssignmentService wires the engine dependencies.
func NewAssignmentService(
	slots slotStore,
	groups groupReader,
	subjects catalogSubjectReader,
	semesters semesterResolver,
	timeSlots timeGridReader,
	classrooms classroomFinder,
	occupancy roomOccupancy,
	metrics assignmentRecorder,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AssignmentConfig,
) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxStreamGroups <= 1 {
		cfg.MaxStreamGroups = 3
	}
	if cfg.DayShiftStartHour <= 0 {
		cfg.DayShiftStartHour = 13
	}
	if cfg.SpecialSubjectCode == "" {
		cfg.SpecialSubjectCode = "MILITARY"
	}
	return &AssignmentService{
		slots:      slots,
		groups:     groups,
		subjects:   subjects,
		semesters:  semesters,
		timeSlots:  timeSlots,
		classrooms: classrooms,
		occupancy:  occupancy,
		metrics:    metrics,
		tx:         tx,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// assignmentPlan is the validated candidate together with what it would displace.
type assignmentPlan struct {
	group        *models.Group
	subject      *models.Subject
	timeSlot     *models.TimeSlot
	semester     *models.Semester
	lessonType   models.LessonType
	parity       models.WeekParity
	position     models.SlotPosition
	participants []models.Group
	existing     []models.ScheduleSlot
	replaced     []models.ScheduleSlot
	conflicts    []models.ScheduleConflict
}

// CreateAssignment validates and commits one session, fanning lectures out to every stream group.
func (s *AssignmentService) CreateAssignment(ctx context.Context, req dto.AssignmentRequest) (*models.AssignmentOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	plan, err := s.plan(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(plan.conflicts) > 0 && !req.Force {
		s.recordOutcome("create", models.OutcomeConflict, plan.conflicts)
		return &models.AssignmentOutcome{Kind: models.OutcomeConflict, Conflicts: plan.conflicts}, nil
	}

	removeIDs := make([]string, 0, len(plan.replaced)+len(plan.conflicts))
	for _, slot := range plan.replaced {
		removeIDs = append(removeIDs, slot.ID)
	}
	if req.Force {
		for _, slot := range collidingGroupSlots(plan) {
			removeIDs = append(removeIDs, slot.ID)
		}
		if len(plan.conflicts) > 0 {
			s.logger.Info("forced assignment overrides conflicts",
				zap.String("group_id", plan.group.ID),
				zap.String("semester_id", plan.semester.ID),
				zap.Int("day_of_week", plan.position.DayOfWeek),
				zap.Int("conflicts", len(plan.conflicts)),
			)
		}
	}

	newSlots := s.buildSlots(plan)

	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = s.slots.DeleteByIDs(ctx, tx, uniqueStrings(removeIDs)); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove displaced slots")
		return nil, err
	}
	if err = s.slots.CreateBatch(ctx, tx, newSlots); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule slots")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit assignment")
		return nil, err
	}

	s.invalidate(ctx, plan.position.SemesterID, plan.position.DayOfWeek)
	s.recordOutcome("create", models.OutcomeCommitted, nil)

	outcome := &models.AssignmentOutcome{
		Kind:     models.OutcomeCommitted,
		Count:    len(newSlots),
		IsStream: len(newSlots) > 1,
		Slots:    newSlots,
	}
	if outcome.IsStream {
		outcome.StreamID = newSlots[0].StreamID
		s.logger.Info("stream lecture committed",
			zap.String("stream_id", *outcome.StreamID),
			zap.String("subject_id", plan.subject.ID),
			zap.Int("groups", len(newSlots)),
		)
	}
	return outcome, nil
}

// CheckConflicts reports what CreateAssignment would reject, optionally checking a room too. Nothing is written.
func (s *AssignmentService) CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) ([]models.ScheduleConflict, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}

	plan, err := s.plan(ctx, req.AssignmentRequest)
	if err != nil {
		return nil, err
	}
	conflicts := plan.conflicts

	if room := strings.TrimSpace(req.Room); room != "" {
		classroom, err := s.resolveClassroom(ctx, room, plan.group.InstituteID)
		if err != nil {
			return nil, err
		}
		occupants, err := s.roomOccupants(ctx, classroom.ID, plan.position)
		if err != nil {
			return nil, err
		}
		replaced := slotIDSet(plan.replaced)
		for _, occupant := range occupants {
			if _, ok := replaced[occupant.ID]; ok {
				continue
			}
			if !occupant.WeekParity.Overlaps(plan.parity) {
				continue
			}
			conflicts = append(conflicts, roomConflict(occupant, classroom))
		}
	}

	if conflicts == nil {
		conflicts = []models.ScheduleConflict{}
	}
	return conflicts, nil
}

// UpdateRoom assigns a classroom to a slot and every slot of its stream.
func (s *AssignmentService) UpdateRoom(ctx context.Context, req dto.UpdateRoomRequest) (*models.AssignmentOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}

	slot, err := s.findSlot(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}
	group, err := s.findGroup(ctx, slot.GroupID)
	if err != nil {
		return nil, err
	}
	classroom, err := s.resolveClassroom(ctx, strings.TrimSpace(req.Room), group.InstituteID)
	if err != nil {
		return nil, err
	}

	members := []models.ScheduleSlot{*slot}
	if slot.InStream() {
		members, err = s.slots.ListByStream(ctx, nil, *slot.StreamID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stream slots")
		}
	}

	position := models.SlotPosition{SemesterID: slot.SemesterID, DayOfWeek: slot.DayOfWeek, TimeSlotID: slot.TimeSlotID}
	occupants, err := s.roomOccupants(ctx, classroom.ID, position)
	if err != nil {
		return nil, err
	}
	memberIDs := slotIDSet(members)
	var conflicts []models.ScheduleConflict
	for _, occupant := range occupants {
		if _, ok := memberIDs[occupant.ID]; ok || occupant.SameStream(*slot) {
			continue
		}
		if !occupant.WeekParity.Overlaps(slot.WeekParity) {
			continue
		}
		conflicts = append(conflicts, roomConflict(occupant, classroom))
	}
	if len(conflicts) > 0 && !req.Force {
		s.recordOutcome("update_room", models.OutcomeConflict, conflicts)
		return &models.AssignmentOutcome{Kind: models.OutcomeConflict, Room: classroom.DisplayName(), Conflicts: conflicts}, nil
	}

	if !req.Force {
		students, err := s.studentTotal(ctx, members)
		if err != nil {
			return nil, err
		}
		if classroom.Capacity > 0 && students > classroom.Capacity {
			warning := &models.CapacityWarning{ClassroomID: classroom.ID, Room: classroom.DisplayName(), Capacity: classroom.Capacity, Students: students}
			s.recordOutcome("update_room", models.OutcomeWarning, nil)
			return &models.AssignmentOutcome{Kind: models.OutcomeWarning, Room: warning.Room, Warning: warning}, nil
		}
	} else if len(conflicts) > 0 {
		s.logger.Info("forced room update overrides conflicts",
			zap.String("slot_id", slot.ID),
			zap.String("classroom_id", classroom.ID),
			zap.Int("conflicts", len(conflicts)),
		)
	}

	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	label := classroom.DisplayName()
	count := 1
	if slot.InStream() {
		count, err = s.slots.UpdateRoomByStream(ctx, tx, *slot.StreamID, classroom.ID, label)
	} else {
		err = s.slots.UpdateRoom(ctx, tx, []string{slot.ID}, classroom.ID, label)
	}
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update slot room")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit room update")
		return nil, err
	}

	s.invalidate(ctx, slot.SemesterID, slot.DayOfWeek)
	s.recordOutcome("update_room", models.OutcomeCommitted, nil)
	return &models.AssignmentOutcome{
		Kind:     models.OutcomeCommitted,
		Count:    count,
		IsStream: slot.InStream(),
		StreamID: slot.StreamID,
		Room:     label,
	}, nil
}

// DeleteAssignment removes a slot, or its whole stream when it belongs to one.
func (s *AssignmentService) DeleteAssignment(ctx context.Context, req dto.DeleteSlotRequest) (*models.DeleteResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete payload")
	}

	slot, err := s.findSlot(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}

	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var count int
	if slot.InStream() {
		count, err = s.slots.DeleteByStream(ctx, tx, *slot.StreamID)
	} else {
		count, err = s.slots.DeleteByIDs(ctx, tx, []string{slot.ID})
	}
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule slot")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit slot deletion")
		return nil, err
	}

	if slot.InStream() {
		s.logger.Info("stream deleted", zap.String("stream_id", *slot.StreamID), zap.Int("slots", count))
	}
	s.invalidate(ctx, slot.SemesterID, slot.DayOfWeek)
	s.recordOutcome("delete", models.OutcomeCommitted, nil)
	return &models.DeleteResult{Count: count, IsStream: slot.InStream()}, nil
}

// BulkAssignSpecialDay clears a group's day and fills every time slot of the semester shift with the special activity.
func (s *AssignmentService) BulkAssignSpecialDay(ctx context.Context, req dto.SpecialDayRequest) (*models.AssignmentOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid special day payload")
	}

	group, err := s.findGroup(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	semester, err := resolveSemester(ctx, s.semesters, req.SemesterID, group)
	if err != nil {
		return nil, err
	}

	subject, err := s.subjects.FindByCode(ctx, s.cfg.SpecialSubjectCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("special subject %s not configured", s.cfg.SpecialSubjectCode))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load special subject")
	}

	grid, err := s.timeSlots.ListForInstitute(ctx, group.InstituteID, semester.Shift)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time grid")
	}
	if len(grid) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("no %s time slots configured", semester.Shift))
	}

	slots := make([]models.ScheduleSlot, 0, len(grid))
	for _, ts := range grid {
		slots = append(slots, models.ScheduleSlot{
			GroupID:    group.ID,
			SubjectID:  subject.ID,
			TeacherID:  subject.TeacherID,
			LessonType: models.LessonPractice,
			WeekParity: models.ParityEvery,
			SemesterID: semester.ID,
			DayOfWeek:  req.DayOfWeek,
			TimeSlotID: ts.ID,
			StartTime:  ts.StartTime,
			EndTime:    ts.EndTime,
			IsActive:   true,
			IsMilitary: true,
		})
	}

	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	removed, err := s.slots.DeleteByGroupDay(ctx, tx, group.ID, semester.ID, req.DayOfWeek)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear group day")
		return nil, err
	}
	if err = s.slots.CreateBatch(ctx, tx, slots); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create special day slots")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit special day")
		return nil, err
	}

	s.logger.Info("special day assigned",
		zap.String("group_id", group.ID),
		zap.String("semester_id", semester.ID),
		zap.Int("day_of_week", req.DayOfWeek),
		zap.Int("removed", removed),
		zap.Int("created", len(slots)),
	)
	s.invalidate(ctx, semester.ID, req.DayOfWeek)
	s.recordOutcome("special_day", models.OutcomeCommitted, nil)
	return &models.AssignmentOutcome{Kind: models.OutcomeCommitted, Count: len(slots), Slots: slots}, nil
}

func (s *AssignmentService) plan(ctx context.Context, req dto.AssignmentRequest) (*assignmentPlan, error) {
	group, err := s.findGroup(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	timeSlot, err := s.timeSlots.FindByID(ctx, req.TimeSlotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
	}

	semester, err := resolveSemester(ctx, s.semesters, req.SemesterID, group)
	if err != nil {
		return nil, err
	}

	shift, err := EffectiveShift(timeSlot, s.cfg.DayShiftStartHour)
	if err != nil {
		return nil, err
	}
	if shift != semester.Shift {
		return nil, appErrors.Clone(appErrors.ErrShiftMismatch, fmt.Sprintf("time slot %d belongs to the %s shift but the semester runs in the %s shift", timeSlot.Number, shift, semester.Shift))
	}

	lessonType := models.LessonType(req.LessonType)
	participants, err := s.participants(ctx, group, subject, lessonType)
	if err != nil {
		return nil, err
	}

	parity := models.WeekParity(req.WeekParity)
	if parity == "" {
		parity = models.ParityEvery
	}

	position := models.SlotPosition{SemesterID: semester.ID, DayOfWeek: req.DayOfWeek, TimeSlotID: timeSlot.ID}
	existing, err := s.slots.ListAtPosition(ctx, nil, position)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occupied slots")
	}

	plan := &assignmentPlan{
		group:        group,
		subject:      subject,
		timeSlot:     timeSlot,
		semester:     semester,
		lessonType:   lessonType,
		parity:       parity,
		position:     position,
		participants: participants,
		existing:     existing,
	}
	plan.replaced, plan.conflicts = detectConflicts(plan)
	return plan, nil
}

// detectConflicts splits occupied slots into same-session slots to be re-created and blocking conflicts.
func detectConflicts(plan *assignmentPlan) ([]models.ScheduleSlot, []models.ScheduleConflict) {
	participantIDs := make(map[string]string, len(plan.participants))
	for _, g := range plan.participants {
		participantIDs[g.ID] = g.Name
	}

	var replaced []models.ScheduleSlot
	var conflicts []models.ScheduleConflict
	for _, slot := range plan.existing {
		if !slot.WeekParity.Overlaps(plan.parity) {
			continue
		}
		groupName, isParticipant := participantIDs[slot.GroupID]
		if isParticipant && slot.SubjectID == plan.subject.ID && slot.LessonType == plan.lessonType && sameParity(slot.WeekParity, plan.parity) {
			replaced = append(replaced, slot)
			continue
		}
		if isParticipant {
			conflicts = append(conflicts, models.ScheduleConflict{
				Kind:        models.ConflictGroup,
				SlotID:      slot.ID,
				GroupID:     slot.GroupID,
				SubjectID:   slot.SubjectID,
				TeacherID:   slot.TeacherID,
				ClassroomID: slot.ClassroomID,
				DayOfWeek:   slot.DayOfWeek,
				TimeSlotID:  slot.TimeSlotID,
				Message:     fmt.Sprintf("group %s already has a %s session at this time", displayGroup(groupName, slot.GroupID), strings.ToLower(string(slot.LessonType))),
			})
			continue
		}
		if plan.subject.TeacherID != nil && slot.TeacherID != nil && *slot.TeacherID == *plan.subject.TeacherID {
			conflicts = append(conflicts, models.ScheduleConflict{
				Kind:        models.ConflictTeacher,
				SlotID:      slot.ID,
				GroupID:     slot.GroupID,
				SubjectID:   slot.SubjectID,
				TeacherID:   slot.TeacherID,
				ClassroomID: slot.ClassroomID,
				DayOfWeek:   slot.DayOfWeek,
				TimeSlotID:  slot.TimeSlotID,
				Message:     fmt.Sprintf("teacher %s is already teaching another group at this time", *slot.TeacherID),
			})
		}
	}
	return replaced, conflicts
}

// sameParity treats an empty parity as every week.
func sameParity(a, b models.WeekParity) bool {
	if a == "" {
		a = models.ParityEvery
	}
	if b == "" {
		b = models.ParityEvery
	}
	return a == b
}

// carriedRoom returns the room of the first replaced slot that has one.
func carriedRoom(replaced []models.ScheduleSlot) (*string, *string) {
	for _, slot := range replaced {
		if slot.ClassroomID != nil || slot.RoomText != nil {
			return slot.ClassroomID, slot.RoomText
		}
	}
	return nil, nil
}

func collidingGroupSlots(plan *assignmentPlan) []models.ScheduleSlot {
	byID := make(map[string]models.ScheduleSlot, len(plan.existing))
	for _, slot := range plan.existing {
		byID[slot.ID] = slot
	}
	var result []models.ScheduleSlot
	for _, c := range plan.conflicts {
		if c.Kind != models.ConflictGroup {
			continue
		}
		if slot, ok := byID[c.SlotID]; ok {
			result = append(result, slot)
		}
	}
	return result
}

func (s *AssignmentService) buildSlots(plan *assignmentPlan) []models.ScheduleSlot {
	var streamID *string
	if len(plan.participants) > 1 {
		id := uuid.NewString()
		streamID = &id
	}
	classroomID, roomText := carriedRoom(plan.replaced)
	now := time.Now().UTC()
	slots := make([]models.ScheduleSlot, 0, len(plan.participants))
	for _, g := range plan.participants {
		slots = append(slots, models.ScheduleSlot{
			GroupID:     g.ID,
			SubjectID:   plan.subject.ID,
			TeacherID:   plan.subject.TeacherID,
			LessonType:  plan.lessonType,
			WeekParity:  plan.parity,
			SemesterID:  plan.semester.ID,
			DayOfWeek:   plan.position.DayOfWeek,
			TimeSlotID:  plan.timeSlot.ID,
			StartTime:   plan.timeSlot.StartTime,
			EndTime:     plan.timeSlot.EndTime,
			ClassroomID: classroomID,
			RoomText:    roomText,
			IsActive:    true,
			StreamID:    streamID,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return slots
}

// participants returns the groups a session is created for. Lectures of subjects shared by several groups become streams.
func (s *AssignmentService) participants(ctx context.Context, group *models.Group, subject *models.Subject, lessonType models.LessonType) ([]models.Group, error) {
	if lessonType != models.LessonLecture {
		return []models.Group{*group}, nil
	}

	ids, err := s.subjects.ListGroupIDs(ctx, subject.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject groups")
	}
	ids = uniqueStrings(append([]string{group.ID}, ids...))
	if len(ids) <= 1 {
		return []models.Group{*group}, nil
	}
	if len(ids) > s.cfg.MaxStreamGroups {
		return nil, appErrors.Clone(appErrors.ErrStreamTooLarge, fmt.Sprintf("stream lectures are limited to %d groups, subject has %d", s.cfg.MaxStreamGroups, len(ids)))
	}

	groups, err := s.groups.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stream groups")
	}

	result := []models.Group{*group}
	for _, g := range groups {
		if g.ID != group.ID {
			result = append(result, g)
		}
	}
	return result, nil
}

// resolveClassroom finds an active classroom by number, preferring buildings of the given institute.
func (s *AssignmentService) resolveClassroom(ctx context.Context, number, instituteID string) (*models.Classroom, error) {
	rooms, err := s.classrooms.FindActiveByNumber(ctx, number)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up classroom")
	}
	if len(rooms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrRoomNotFound, fmt.Sprintf("classroom %s not found", number))
	}
	for i := range rooms {
		if rooms[i].InstituteID == instituteID {
			return &rooms[i], nil
		}
	}
	return &rooms[0], nil
}

func (s *AssignmentService) studentTotal(ctx context.Context, members []models.ScheduleSlot) (int, error) {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.GroupID)
	}
	groups, err := s.groups.FindByIDs(ctx, uniqueStrings(ids))
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group rosters")
	}
	total := 0
	for _, g := range groups {
		total += g.StudentCount
	}
	return total, nil
}

func (s *AssignmentService) findSlot(ctx context.Context, id string) (*models.ScheduleSlot, error) {
	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slot")
	}
	return slot, nil
}

func (s *AssignmentService) findGroup(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	return group, nil
}

func (s *AssignmentService) roomOccupants(ctx context.Context, classroomID string, pos models.SlotPosition) ([]models.ScheduleSlot, error) {
	if s.occupancy == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "occupancy index missing")
	}
	return s.occupancy.RoomOccupants(ctx, classroomID, pos)
}

func (s *AssignmentService) invalidate(ctx context.Context, semesterID string, day int) {
	if s.occupancy != nil {
		s.occupancy.InvalidateDay(ctx, semesterID, day)
	}
}

func (s *AssignmentService) recordOutcome(operation string, kind models.OutcomeKind, conflicts []models.ScheduleConflict) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordAssignmentOutcome(operation, kind)
	if len(conflicts) > 0 {
		s.metrics.RecordConflicts(conflicts)
	}
}

// EffectiveShift derives the shift a time slot belongs to from its start hour. Evening slots keep their tag.
func EffectiveShift(slot *models.TimeSlot, dayStartHour int) (models.Shift, error) {
	if slot.Shift == models.ShiftEvening {
		return models.ShiftEvening, nil
	}
	start, err := parseClock(slot.StartTime)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrMalformedTime.Code, appErrors.ErrMalformedTime.Status, fmt.Sprintf("time slot %d has malformed start time %q", slot.Number, slot.StartTime))
	}
	if start.Hour() >= dayStartHour {
		return models.ShiftDay, nil
	}
	return models.ShiftMorning, nil
}

func parseClock(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse("15:04", value); err == nil {
		return t, nil
	}
	return time.Parse("15:04:05", value)
}

func roomConflict(occupant models.ScheduleSlot, classroom *models.Classroom) models.ScheduleConflict {
	return models.ScheduleConflict{
		Kind:        models.ConflictRoom,
		SlotID:      occupant.ID,
		GroupID:     occupant.GroupID,
		SubjectID:   occupant.SubjectID,
		TeacherID:   occupant.TeacherID,
		ClassroomID: &classroom.ID,
		DayOfWeek:   occupant.DayOfWeek,
		TimeSlotID:  occupant.TimeSlotID,
		Message:     fmt.Sprintf("room %s is occupied at this time", classroom.DisplayName()),
	}
}

func slotIDSet(slots []models.ScheduleSlot) map[string]struct{} {
	set := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		set[slot.ID] = struct{}{}
	}
	return set
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

func displayGroup(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
