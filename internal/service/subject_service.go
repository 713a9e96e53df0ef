package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/unitime-api/internal/models"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
)

type subjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ListGroupIDs(ctx context.Context, subjectID string) ([]string, error)
}

// SubjectService exposes the scheduling catalog view of subjects.
type SubjectService struct {
	repo   subjectRepository
	logger *zap.Logger
}

// NewSubjectService creates a new subject service.
func NewSubjectService(repo subjectRepository, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, logger: logger}
}

// Detail returns a subject with its derived hour totals and attached groups.
func (s *SubjectService) Detail(ctx context.Context, id string) (*models.SubjectDetail, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	groupIDs, err := s.repo.ListGroupIDs(ctx, subject.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject groups")
	}
	if groupIDs == nil {
		groupIDs = []string{}
	}

	return &models.SubjectDetail{
		Subject:            *subject,
		TotalHours:         subject.TotalHours(),
		TotalAuditoryHours: subject.TotalAuditoryHours(),
		TotalCredits:       subject.TotalCredits(),
		GroupIDs:           groupIDs,
	}, nil
}
