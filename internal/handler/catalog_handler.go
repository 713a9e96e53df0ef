package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unitime-api/internal/dto"
	"github.com/noah-isme/unitime-api/internal/models"
	"github.com/noah-isme/unitime-api/internal/service"
	"github.com/noah-isme/unitime-api/pkg/response"
)

type subjectDetailer interface {
	Detail(ctx context.Context, id string) (*models.SubjectDetail, error)
}

type timeGridManager interface {
	List(ctx context.Context, filter models.TimeSlotFilter) ([]models.TimeSlot, error)
	Create(ctx context.Context, req dto.CreateTimeSlotRequest) (*models.TimeSlot, error)
}

type classroomManager interface {
	List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, error)
	Create(ctx context.Context, req dto.CreateClassroomRequest) (*models.Classroom, error)
}

// CatalogHandler serves the reference data the timetable is built from.
type CatalogHandler struct {
	subjects   subjectDetailer
	timeGrid   timeGridManager
	classrooms classroomManager
	policy     scopeAuthorizer
}

// NewCatalogHandler constructs a catalog handler.
func NewCatalogHandler(subjects *service.SubjectService, timeGrid *service.TimeGridService, classrooms *service.ClassroomService, policy *service.ScopePolicy) *CatalogHandler {
	return &CatalogHandler{subjects: subjects, timeGrid: timeGrid, classrooms: classrooms, policy: policy}
}

// Subject godoc
// @Summary Get subject with hour totals
// @Tags Catalog
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id} [get]
func (h *CatalogHandler) Subject(c *gin.Context) {
	detail, err := h.subjects.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// TimeSlots godoc
// @Summary List a time grid
// @Description Institutes without their own grid get the global one.
// @Tags Catalog
// @Produce json
// @Param institute_id query string false "Institute"
// @Param shift query string false "morning, day or evening"
// @Success 200 {object} response.Envelope
// @Router /time-slots [get]
func (h *CatalogHandler) TimeSlots(c *gin.Context) {
	filter := models.TimeSlotFilter{InstituteID: c.Query("institute_id"), Shift: models.Shift(c.Query("shift"))}
	slots, err := h.timeGrid.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// CreateTimeSlot godoc
// @Summary Add a time slot
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateTimeSlotRequest true "Time slot payload"
// @Success 201 {object} response.Envelope
// @Router /time-slots [post]
func (h *CatalogHandler) CreateTimeSlot(c *gin.Context) {
	var req dto.CreateTimeSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	if !authorize(c, h.policy, service.ActionWrite, fixedScope(models.ResourceScope{InstituteID: req.InstituteID}), response.Error) {
		return
	}

	slot, err := h.timeGrid.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// Classrooms godoc
// @Summary List classrooms
// @Tags Catalog
// @Produce json
// @Param institute_id query string false "Institute"
// @Param building_id query string false "Building"
// @Param number query string false "Room number"
// @Param active query bool false "Only active rooms"
// @Success 200 {object} response.Envelope
// @Router /classrooms [get]
func (h *CatalogHandler) Classrooms(c *gin.Context) {
	filter := models.ClassroomFilter{
		InstituteID: c.Query("institute_id"),
		BuildingID:  c.Query("building_id"),
		Number:      c.Query("number"),
	}
	if active, err := strconv.ParseBool(c.Query("active")); err == nil {
		filter.ActiveOnly = active
	}
	rooms, err := h.classrooms.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// CreateClassroom godoc
// @Summary Register a classroom
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassroomRequest true "Classroom payload"
// @Success 201 {object} response.Envelope
// @Router /classrooms [post]
func (h *CatalogHandler) CreateClassroom(c *gin.Context) {
	var req dto.CreateClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	if !authorize(c, h.policy, service.ActionWrite, func(ctx context.Context) (models.ResourceScope, error) {
		return h.policy.BuildingScope(ctx, req.BuildingID)
	}, response.Error) {
		return
	}

	room, err := h.classrooms.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}
