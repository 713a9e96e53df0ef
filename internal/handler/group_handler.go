package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unitime-api/internal/models"
	"github.com/noah-isme/unitime-api/internal/service"
	"github.com/noah-isme/unitime-api/pkg/response"
)

type groupTimetableReader interface {
	ForGroup(ctx context.Context, groupID, semesterID string) (*service.GroupTimetable, error)
}

type weeklyNeedCalculator interface {
	WeeklyNeeds(ctx context.Context, groupID, semesterID string) ([]models.WeeklyNeed, error)
}

// GroupHandler serves per-group timetable views.
type GroupHandler struct {
	timetable groupTimetableReader
	needs     weeklyNeedCalculator
	policy    scopeAuthorizer
}

// NewGroupHandler constructs handler.
func NewGroupHandler(timetable *service.TimetableService, needs *service.WeeklyNeedService, policy *service.ScopePolicy) *GroupHandler {
	return &GroupHandler{timetable: timetable, needs: needs, policy: policy}
}

// Slots godoc
// @Summary Group timetable
// @Tags Groups
// @Produce json
// @Param id path string true "Group ID"
// @Param semester_id query string false "Semester, defaults to the group's active semester"
// @Success 200 {object} response.Envelope
// @Router /groups/{id}/slots [get]
func (h *GroupHandler) Slots(c *gin.Context) {
	groupID := c.Param("id")
	if !h.canRead(c, groupID) {
		return
	}
	timetable, err := h.timetable.ForGroup(c.Request.Context(), groupID, c.Query("semester_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// WeeklyNeeds godoc
// @Summary Remaining weekly sessions per subject
// @Tags Groups
// @Produce json
// @Param id path string true "Group ID"
// @Param semester_id query string false "Semester, defaults to the group's active semester"
// @Success 200 {object} response.Envelope
// @Router /groups/{id}/weekly-needs [get]
func (h *GroupHandler) WeeklyNeeds(c *gin.Context) {
	groupID := c.Param("id")
	if !h.canRead(c, groupID) {
		return
	}
	needs, err := h.needs.WeeklyNeeds(c.Request.Context(), groupID, c.Query("semester_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, needs, nil)
}

func (h *GroupHandler) canRead(c *gin.Context, groupID string) bool {
	return authorize(c, h.policy, service.ActionRead, func(ctx context.Context) (models.ResourceScope, error) {
		return h.policy.GroupScope(ctx, groupID)
	}, response.Error)
}
