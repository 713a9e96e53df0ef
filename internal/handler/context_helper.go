package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unitime-api/internal/middleware"
	"github.com/noah-isme/unitime-api/internal/models"
	"github.com/noah-isme/unitime-api/internal/service"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
)

// scopeAuthorizer checks an actor against the institute and faculty owning a resource.
type scopeAuthorizer interface {
	Authorize(actor *models.JWTClaims, action service.Action, scope models.ResourceScope) error
	GroupScope(ctx context.Context, groupID string) (models.ResourceScope, error)
	SlotScope(ctx context.Context, slotID string) (models.ResourceScope, error)
	SemesterScope(ctx context.Context, semesterID string) (models.ResourceScope, error)
	FacultyScope(ctx context.Context, facultyID string) (models.ResourceScope, error)
	BuildingScope(ctx context.Context, buildingID string) (models.ResourceScope, error)
}

type scopeLocator func(ctx context.Context) (models.ResourceScope, error)

// authorize writes the failure response and returns false when the actor may not act on the located resource.
// A nil policy allows everything.
func authorize(c *gin.Context, policy scopeAuthorizer, action service.Action, locate scopeLocator, fail func(*gin.Context, error)) bool {
	if policy == nil {
		return true
	}
	scope, err := locate(c.Request.Context())
	if err != nil {
		fail(c, err)
		return false
	}
	if err := policy.Authorize(middleware.Actor(c), action, scope); err != nil {
		fail(c, err)
		return false
	}
	return true
}

func fixedScope(scope models.ResourceScope) scopeLocator {
	return func(context.Context) (models.ResourceScope, error) {
		return scope, nil
	}
}

// actorInstitute is the institute a request is limited to when it names none. Superadmins and actors
// without an institute are not limited.
func actorInstitute(c *gin.Context) string {
	actor := middleware.Actor(c)
	if actor == nil || actor.Role == models.RoleSuperAdmin {
		return ""
	}
	return actor.InstituteID
}

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
}

func queryDay(c *gin.Context) (int, error) {
	raw := c.Query("day")
	if raw == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "day is required")
	}
	day, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "day must be a number between 0 and 5")
	}
	return day, nil
}
