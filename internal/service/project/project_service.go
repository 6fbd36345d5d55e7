// internal/service/project/project_service.go
package project

import (
	"context"
	"fmt"

	"pocket-agency-service/internal/domain/project"
	"pocket-agency-service/internal/domain/subscription"
	xerrors "pocket-agency-service/internal/pkg/errors"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *project.Project) error
	FindByID(ctx context.Context, id int64) (*project.Project, error)
	List(ctx context.Context, customerID int64, filters *project.ProjectListFilters) ([]project.Project, int64, error)
	UpdateStatus(ctx context.Context, id int64, status project.ProjectStatus, notes string, assignedTo int64) error
}

// SubscriptionReader is the slice of the subscription service this service
// needs: project submission is gated on an active subscription.
type SubscriptionReader interface {
	GetCurrent(ctx context.Context, userID int64) (*subscription.Subscription, error)
}

type ProjectService struct {
	repo   ProjectRepo
	subs   SubscriptionReader
	logger *zap.Logger
}

func NewProjectService(repo ProjectRepo, subs SubscriptionReader, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		repo:   repo,
		subs:   subs,
		logger: logger,
	}
}

// CreateProject submits a new project for a customer with an active
// subscription.
func (s *ProjectService) CreateProject(ctx context.Context, customerID int64, req *project.CreateProjectRequest) (*project.Project, error) {
	sub, err := s.subs.GetCurrent(ctx, customerID)
	if err != nil || sub.Status != subscription.StatusActive {
		return nil, xerrors.ErrSubscriptionNeeded
	}

	p := &project.Project{
		Reference:  ulid.Make().String(),
		CustomerID: customerID,
		Title:      req.Title,
		Brief:      req.Brief,
		Status:     project.StatusSubmitted,
		Tags:       req.Tags,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("project submitted",
		zap.Int64("project_id", p.ID),
		zap.String("reference", p.Reference),
		zap.Int64("customer_id", customerID),
	)

	return p, nil
}

// GetProject returns one project. Customers only see their own; staff see all.
func (s *ProjectService) GetProject(ctx context.Context, requesterID int64, isStaff bool, id int64) (*project.Project, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isStaff && p.CustomerID != requesterID {
		// Not-found rather than forbidden: do not leak other tenants' ids.
		return nil, xerrors.ErrNotFound
	}

	return p, nil
}

// ListProjects returns a page of projects scoped to the requester.
func (s *ProjectService) ListProjects(ctx context.Context, requesterID int64, isStaff bool, filters *project.ProjectListFilters) (*project.ProjectListResponse, error) {
	customerID := requesterID
	if isStaff {
		customerID = 0
	}

	projects, total, err := s.repo.List(ctx, customerID, filters)
	if err != nil {
		return nil, err
	}

	return &project.ProjectListResponse{
		Projects: projects,
		Total:    total,
		Page:     filters.Page,
		PageSize: filters.PageSize,
	}, nil
}

// UpdateStatus moves a project through its workflow; staff only. The actor
// becomes the assignee if the project has none yet.
func (s *ProjectService) UpdateStatus(ctx context.Context, actorID, id int64, req *project.UpdateStatusRequest) (*project.Project, error) {
	if !project.ValidStatus(req.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", xerrors.ErrInvalidInput, req.Status)
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status, req.Notes, actorID); err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, id)
}
