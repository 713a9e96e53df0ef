package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unitime-api/internal/dto"
	"github.com/noah-isme/unitime-api/internal/models"
	"github.com/noah-isme/unitime-api/internal/service"
	"github.com/noah-isme/unitime-api/pkg/response"
)

type assignmentEngine interface {
	CreateAssignment(ctx context.Context, req dto.AssignmentRequest) (*models.AssignmentOutcome, error)
	CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) ([]models.ScheduleConflict, error)
	UpdateRoom(ctx context.Context, req dto.UpdateRoomRequest) (*models.AssignmentOutcome, error)
	DeleteAssignment(ctx context.Context, req dto.DeleteSlotRequest) (*models.DeleteResult, error)
	BulkAssignSpecialDay(ctx context.Context, req dto.SpecialDayRequest) (*models.AssignmentOutcome, error)
}

type occupancyProvider interface {
	Occupancy(ctx context.Context, semesterID string, day int, instituteID string) (*models.OccupancyIndex, error)
}

// ScheduleHandler exposes the timetable write endpoints used by the grid editor.
type ScheduleHandler struct {
	engine    assignmentEngine
	occupancy occupancyProvider
	policy    scopeAuthorizer
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(engine *service.AssignmentService, occupancy *service.OccupancyService, policy *service.ScopePolicy) *ScheduleHandler {
	return &ScheduleHandler{engine: engine, occupancy: occupancy, policy: policy}
}

// CreateSlot godoc
// @Summary Place a session into the timetable
// @Description Lectures of subjects shared by several groups are created for every group as one stream. With is_military_day the whole day is filled with the special activity.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.CreateSlotRequest true "Slot payload"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /schedule/create_slot [post]
func (h *ScheduleHandler) CreateSlot(c *gin.Context) {
	var req dto.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Failure(c, invalidPayload(err))
		return
	}
	ctx := c.Request.Context()
	if !authorize(c, h.policy, service.ActionWrite, func(ctx context.Context) (models.ResourceScope, error) {
		return h.policy.GroupScope(ctx, req.GroupID)
	}, response.Failure) {
		return
	}

	if req.IsMilitaryDay {
		outcome, err := h.engine.BulkAssignSpecialDay(ctx, dto.SpecialDayRequest{GroupID: req.GroupID, DayOfWeek: req.DayOfWeek, SemesterID: req.SemesterID})
		if err != nil {
			response.Failure(c, err)
			return
		}
		response.Success(c, http.StatusCreated, map[string]interface{}{
			"message": fmt.Sprintf("special day assigned to %d time slots", outcome.Count),
			"count":   outcome.Count,
		})
		return
	}

	outcome, err := h.engine.CreateAssignment(ctx, dto.AssignmentRequest{
		GroupID:    req.GroupID,
		SubjectID:  req.SubjectID,
		DayOfWeek:  req.DayOfWeek,
		TimeSlotID: req.TimeSlotID,
		LessonType: req.LessonType,
		WeekParity: req.WeekParity,
		SemesterID: req.SemesterID,
		Force:      req.Force,
	})
	if err != nil {
		response.Failure(c, err)
		return
	}
	if !outcome.Committed() {
		response.Rejected(c, models.JoinConflictMessages(outcome.Conflicts), map[string]interface{}{
			"is_conflict": true,
			"conflicts":   outcome.Conflicts,
		})
		return
	}

	fields := map[string]interface{}{"count": outcome.Count, "is_stream": outcome.IsStream}
	if outcome.StreamID != nil {
		fields["stream_id"] = *outcome.StreamID
	}
	response.Success(c, http.StatusCreated, fields)
}

// UpdateRoom godoc
// @Summary Assign a classroom to a slot
// @Description Stream lectures move together. Occupied or undersized rooms are rejected unless force is set.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.UpdateRoomRequest true "Room payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /schedule/update_room [post]
func (h *ScheduleHandler) UpdateRoom(c *gin.Context) {
	var req dto.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Failure(c, invalidPayload(err))
		return
	}
	if !authorize(c, h.policy, service.ActionWrite, func(ctx context.Context) (models.ResourceScope, error) {
		return h.policy.SlotScope(ctx, req.SlotID)
	}, response.Failure) {
		return
	}

	outcome, err := h.engine.UpdateRoom(c.Request.Context(), req)
	if err != nil {
		response.Failure(c, err)
		return
	}

	switch outcome.Kind {
	case models.OutcomeConflict:
		response.Rejected(c, models.JoinConflictMessages(outcome.Conflicts), map[string]interface{}{
			"is_conflict": true,
			"conflicts":   outcome.Conflicts,
		})
	case models.OutcomeWarning:
		response.Rejected(c, outcome.Warning.Message(), map[string]interface{}{
			"is_capacity_warning": true,
			"capacity":            outcome.Warning.Capacity,
			"students":            outcome.Warning.Students,
		})
	default:
		response.Success(c, http.StatusOK, map[string]interface{}{
			"room":      outcome.Room,
			"count":     outcome.Count,
			"is_stream": outcome.IsStream,
		})
	}
}

// DeleteSlot godoc
// @Summary Remove a slot
// @Description Removing a stream member removes the whole stream.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.DeleteSlotRequest true "Slot reference"
// @Success 200 {object} map[string]interface{}
// @Router /schedule/delete_slot [post]
func (h *ScheduleHandler) DeleteSlot(c *gin.Context) {
	var req dto.DeleteSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Failure(c, invalidPayload(err))
		return
	}
	if !authorize(c, h.policy, service.ActionWrite, func(ctx context.Context) (models.ResourceScope, error) {
		return h.policy.SlotScope(ctx, req.SlotID)
	}, response.Failure) {
		return
	}

	result, err := h.engine.DeleteAssignment(c.Request.Context(), req)
	if err != nil {
		response.Failure(c, err)
		return
	}

	message := "slot deleted"
	if result.IsStream {
		message = fmt.Sprintf("stream lecture deleted for %d groups", result.Count)
	}
	response.Success(c, http.StatusOK, map[string]interface{}{
		"message":   message,
		"count":     result.Count,
		"is_stream": result.IsStream,
	})
}

// CheckConflicts godoc
// @Summary Dry-run an assignment
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.ConflictCheckRequest true "Candidate"
// @Success 200 {object} map[string]interface{}
// @Router /schedule/check_conflicts [post]
func (h *ScheduleHandler) CheckConflicts(c *gin.Context) {
	var req dto.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Failure(c, invalidPayload(err))
		return
	}
	if !authorize(c, h.policy, service.ActionRead, func(ctx context.Context) (models.ResourceScope, error) {
		return h.policy.GroupScope(ctx, req.GroupID)
	}, response.Failure) {
		return
	}

	conflicts, err := h.engine.CheckConflicts(c.Request.Context(), req)
	if err != nil {
		response.Failure(c, err)
		return
	}
	response.Success(c, http.StatusOK, map[string]interface{}{
		"has_conflicts": len(conflicts) > 0,
		"conflicts":     conflicts,
	})
}

// Occupancy godoc
// @Summary Room occupancy for one day
// @Description Without semester_id every active semester is included. Without institute_id the caller's own institute is shown; superadmins see every building.
// @Tags Schedule
// @Produce json
// @Param day query int true "Day of week, 0 = Monday"
// @Param semester_id query string false "Semester"
// @Param institute_id query string false "Restrict to one institute's buildings"
// @Success 200 {object} response.Envelope
// @Router /schedule/occupancy [get]
func (h *ScheduleHandler) Occupancy(c *gin.Context) {
	day, err := queryDay(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	instituteID := c.Query("institute_id")
	if instituteID == "" {
		instituteID = actorInstitute(c)
	}
	if instituteID != "" && !authorize(c, h.policy, service.ActionRead, fixedScope(models.ResourceScope{InstituteID: instituteID}), response.Error) {
		return
	}

	index, err := h.occupancy.Occupancy(c.Request.Context(), c.Query("semester_id"), day, instituteID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, index, nil)
}
