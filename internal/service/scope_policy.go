package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/unitime-api/internal/models"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
)

// Action distinguishes read from write access.
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

type scopeGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
	FacultyInstitute(ctx context.Context, facultyID string) (string, error)
}

type scopeSlotReader interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error)
}

type scopeSemesterReader interface {
	FindByID(ctx context.Context, id string) (*models.Semester, error)
}

type scopeBuildingReader interface {
	FindBuilding(ctx context.Context, id string) (*models.Building, error)
}

// ScopePolicy decides whether an actor may touch a resource of a given institute and faculty.
// It runs at the HTTP boundary so the scheduling engine stays scope agnostic.
type ScopePolicy struct {
	groups    scopeGroupReader
	slots     scopeSlotReader
	semesters scopeSemesterReader
	buildings scopeBuildingReader
}

// NewScopePolicy wires the lookups used to locate resources.
func NewScopePolicy(groups scopeGroupReader, slots scopeSlotReader, semesters scopeSemesterReader, buildings scopeBuildingReader) *ScopePolicy {
	return &ScopePolicy{groups: groups, slots: slots, semesters: semesters, buildings: buildings}
}

// Authorize returns nil when the actor may perform the action on the scope.
//
// SUPERADMIN may do everything. ADMIN and DISPATCHER may read and write inside their institute,
// and a faculty-bound actor only inside that faculty. Other roles are read-only. Resources without
// an institute are global: anyone may read them, only SUPERADMIN may write them.
func (p *ScopePolicy) Authorize(actor *models.JWTClaims, action Action, scope models.ResourceScope) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleSuperAdmin {
		return nil
	}

	writer := actor.Role == models.RoleAdmin || actor.Role == models.RoleDispatcher
	if action == ActionWrite && !writer {
		return appErrors.Clone(appErrors.ErrForbidden, "role is read-only")
	}

	if scope.InstituteID == "" {
		if action == ActionWrite {
			return appErrors.Clone(appErrors.ErrForbidden, "global resources are managed by superadmins")
		}
		return nil
	}

	if actor.InstituteID == "" {
		if action == ActionRead {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "actor is not bound to an institute")
	}
	if actor.InstituteID != scope.InstituteID {
		return appErrors.Clone(appErrors.ErrForbidden, "resource belongs to another institute")
	}
	if action == ActionWrite && actor.FacultyID != "" && scope.FacultyID != "" && actor.FacultyID != scope.FacultyID {
		return appErrors.Clone(appErrors.ErrForbidden, "resource belongs to another faculty")
	}
	return nil
}

// GroupScope locates a group.
func (p *ScopePolicy) GroupScope(ctx context.Context, groupID string) (models.ResourceScope, error) {
	group, err := p.groups.FindByID(ctx, groupID)
	if err != nil {
		return models.ResourceScope{}, scopeLookupError(err, "group not found")
	}
	return models.ResourceScope{InstituteID: group.InstituteID, FacultyID: group.FacultyID}, nil
}

// SlotScope locates a schedule slot through its group.
func (p *ScopePolicy) SlotScope(ctx context.Context, slotID string) (models.ResourceScope, error) {
	slot, err := p.slots.FindByID(ctx, slotID)
	if err != nil {
		return models.ResourceScope{}, scopeLookupError(err, "schedule slot not found")
	}
	return p.GroupScope(ctx, slot.GroupID)
}

// SemesterScope locates a semester through its faculty.
func (p *ScopePolicy) SemesterScope(ctx context.Context, semesterID string) (models.ResourceScope, error) {
	semester, err := p.semesters.FindByID(ctx, semesterID)
	if err != nil {
		return models.ResourceScope{}, scopeLookupError(err, "semester not found")
	}
	return p.FacultyScope(ctx, semester.FacultyID)
}

// FacultyScope locates a faculty.
func (p *ScopePolicy) FacultyScope(ctx context.Context, facultyID string) (models.ResourceScope, error) {
	instituteID, err := p.groups.FacultyInstitute(ctx, facultyID)
	if err != nil {
		return models.ResourceScope{}, scopeLookupError(err, "faculty not found")
	}
	return models.ResourceScope{InstituteID: instituteID, FacultyID: facultyID}, nil
}

// BuildingScope locates a building.
func (p *ScopePolicy) BuildingScope(ctx context.Context, buildingID string) (models.ResourceScope, error) {
	building, err := p.buildings.FindBuilding(ctx, buildingID)
	if err != nil {
		return models.ResourceScope{}, scopeLookupError(err, "building not found")
	}
	return models.ResourceScope{InstituteID: building.InstituteID}, nil
}

func scopeLookupError(err error, notFound string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve resource scope")
}
