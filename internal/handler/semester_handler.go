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

type semesterManager interface {
	List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Semester, error)
	Create(ctx context.Context, req dto.CreateSemesterRequest) (*models.Semester, error)
	Activate(ctx context.Context, id string) (*models.Semester, error)
	Delete(ctx context.Context, id string) (int, error)
}

// SemesterHandler exposes semester endpoints.
type SemesterHandler struct {
	service semesterManager
	policy  scopeAuthorizer
}

// NewSemesterHandler constructs a semester handler.
func NewSemesterHandler(svc *service.SemesterService, policy *service.ScopePolicy) *SemesterHandler {
	return &SemesterHandler{service: svc, policy: policy}
}

// List godoc
// @Summary List semesters
// @Tags Semesters
// @Produce json
// @Param faculty_id query string false "Filter by faculty"
// @Param academic_year query string false "Filter by academic year"
// @Param course_level query int false "Filter by course level"
// @Param is_active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *SemesterHandler) List(c *gin.Context) {
	var filter models.SemesterFilter
	filter.FacultyID = c.Query("faculty_id")
	filter.AcademicYear = c.Query("academic_year")
	if level, err := strconv.Atoi(c.Query("course_level")); err == nil {
		filter.CourseLevel = level
	}
	if isActive := c.Query("is_active"); isActive != "" {
		if val, err := strconv.ParseBool(isActive); err == nil {
			filter.IsActive = &val
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	semesters, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters, pagination)
}

// Get godoc
// @Summary Get semester
// @Tags Semesters
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id} [get]
func (h *SemesterHandler) Get(c *gin.Context) {
	semester, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// Create godoc
// @Summary Create semester
// @Description New semesters start inactive.
// @Tags Semesters
// @Accept json
// @Produce json
// @Param payload body dto.CreateSemesterRequest true "Semester payload"
// @Success 201 {object} response.Envelope
// @Router /semesters [post]
func (h *SemesterHandler) Create(c *gin.Context) {
	var req dto.CreateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	if !authorize(c, h.policy, service.ActionWrite, func(ctx context.Context) (models.ResourceScope, error) {
		return h.policy.FacultyScope(ctx, req.FacultyID)
	}, response.Error) {
		return
	}

	semester, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// Activate godoc
// @Summary Make a semester current
// @Description Deactivates every other semester of the same faculty and course level.
// @Tags Semesters
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id}/activate [post]
func (h *SemesterHandler) Activate(c *gin.Context) {
	id := c.Param("id")
	if !h.canWrite(c, id) {
		return
	}
	semester, err := h.service.Activate(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// Delete godoc
// @Summary Delete semester
// @Description Removes the semester and every slot scheduled in it.
// @Tags Semesters
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id} [delete]
func (h *SemesterHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !h.canWrite(c, id) {
		return
	}
	removed, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": id, "slots_removed": removed}, nil)
}

func (h *SemesterHandler) canWrite(c *gin.Context, semesterID string) bool {
	return authorize(c, h.policy, service.ActionWrite, func(ctx context.Context) (models.ResourceScope, error) {
		return h.policy.SemesterScope(ctx, semesterID)
	}, response.Error)
}
