package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unitime-api/internal/dto"
	"github.com/noah-isme/unitime-api/internal/models"
	"github.com/noah-isme/unitime-api/internal/service"
	"github.com/noah-isme/unitime-api/pkg/response"
)

type exceptionRecorder interface {
	Record(ctx context.Context, slotID string, req dto.CreateExceptionRequest) (*models.ScheduleException, error)
	ListBySlot(ctx context.Context, slotID string) ([]models.ScheduleException, error)
	Get(ctx context.Context, id string) (*models.ScheduleException, error)
	Delete(ctx context.Context, id string) error
}

// ExceptionHandler exposes one-off cancellations and reschedules.
type ExceptionHandler struct {
	service exceptionRecorder
	policy  scopeAuthorizer
}

// NewExceptionHandler constructs handler.
func NewExceptionHandler(svc *service.ExceptionService, policy *service.ScopePolicy) *ExceptionHandler {
	return &ExceptionHandler{service: svc, policy: policy}
}

// Create godoc
// @Summary Record an exception for one date of a slot
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body dto.CreateExceptionRequest true "Exception payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule/slots/{id}/exceptions [post]
func (h *ExceptionHandler) Create(c *gin.Context) {
	var req dto.CreateExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	slotID := c.Param("id")
	if !h.canAccessSlot(c, service.ActionWrite, slotID) {
		return
	}

	exception, err := h.service.Record(c.Request.Context(), slotID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exception)
}

// List godoc
// @Summary List exceptions of a slot
// @Tags Schedule
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /schedule/slots/{id}/exceptions [get]
func (h *ExceptionHandler) List(c *gin.Context) {
	slotID := c.Param("id")
	if !h.canAccessSlot(c, service.ActionRead, slotID) {
		return
	}
	items, err := h.service.ListBySlot(c.Request.Context(), slotID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Delete godoc
// @Summary Remove an exception
// @Tags Schedule
// @Param id path string true "Exception ID"
// @Success 204
// @Router /schedule/exceptions/{id} [delete]
func (h *ExceptionHandler) Delete(c *gin.Context) {
	exception, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.canAccessSlot(c, service.ActionWrite, exception.ScheduleSlotID) {
		return
	}
	if err := h.service.Delete(c.Request.Context(), exception.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *ExceptionHandler) canAccessSlot(c *gin.Context, action service.Action, slotID string) bool {
	return authorize(c, h.policy, action, func(ctx context.Context) (models.ResourceScope, error) {
		return h.policy.SlotScope(ctx, slotID)
	}, response.Error)
}
