package project

import (
	"context"
	"testing"
	"time"

	"pocket-agency-service/internal/domain/project"
	"pocket-agency-service/internal/domain/subscription"
	xerrors "pocket-agency-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProjectRepo struct {
	byID       map[int64]*project.Project
	lastFilter *project.ProjectListFilters
	lastScope  int64
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{byID: map[int64]*project.Project{}}
}

func (f *fakeProjectRepo) Create(_ context.Context, p *project.Project) error {
	p.ID = int64(len(f.byID) + 1)
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProjectRepo) FindByID(_ context.Context, id int64) (*project.Project, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return p, nil
}

func (f *fakeProjectRepo) List(_ context.Context, customerID int64, filters *project.ProjectListFilters) ([]project.Project, int64, error) {
	f.lastScope = customerID
	f.lastFilter = filters
	var out []project.Project
	for _, p := range f.byID {
		if customerID == 0 || p.CustomerID == customerID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeProjectRepo) UpdateStatus(_ context.Context, id int64, status project.ProjectStatus, notes string, assignedTo int64) error {
	p, ok := f.byID[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	p.Status = status
	if notes != "" {
		p.Notes.String = notes
		p.Notes.Valid = true
	}
	if !p.AssignedTo.Valid {
		p.AssignedTo.Int64 = assignedTo
		p.AssignedTo.Valid = true
	}
	return nil
}

type fakeSubs struct {
	status subscription.SubscriptionStatus
	err    error
}

func (f *fakeSubs) GetCurrent(_ context.Context, _ int64) (*subscription.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &subscription.Subscription{Status: f.status}, nil
}

func newService(repo *fakeProjectRepo, subs *fakeSubs) *ProjectService {
	return NewProjectService(repo, subs, zap.NewNop())
}

func TestCreateProjectRequiresActiveSubscription(t *testing.T) {
	repo := newFakeProjectRepo()

	for _, tc := range []struct {
		name string
		subs *fakeSubs
	}{
		{"no subscription", &fakeSubs{err: xerrors.ErrNotFound}},
		{"pending subscription", &fakeSubs{status: subscription.StatusPending}},
		{"cancelled subscription", &fakeSubs{status: subscription.StatusCancelled}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			svc := newService(repo, tc.subs)
			_, err := svc.CreateProject(context.Background(), 1, &project.CreateProjectRequest{
				Title: "Landing page", Brief: "New marketing site",
			})
			assert.ErrorIs(t, err, xerrors.ErrSubscriptionNeeded)
		})
	}
	assert.Empty(t, repo.byID)
}

func TestCreateProjectSubmitted(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newService(repo, &fakeSubs{status: subscription.StatusActive})

	p, err := svc.CreateProject(context.Background(), 7, &project.CreateProjectRequest{
		Title: "Landing page",
		Brief: "New marketing site",
		Tags:  []string{"design", "web"},
	})
	require.NoError(t, err)

	assert.Equal(t, project.StatusSubmitted, p.Status)
	assert.Equal(t, int64(7), p.CustomerID)
	assert.NotEmpty(t, p.Reference)
	assert.Equal(t, []string{"design", "web"}, p.Tags)
}

func TestGetProjectHidesOtherTenants(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newService(repo, &fakeSubs{status: subscription.StatusActive})
	repo.byID[1] = &project.Project{ID: 1, CustomerID: 7}

	// The owner sees it.
	_, err := svc.GetProject(context.Background(), 7, false, 1)
	assert.NoError(t, err)

	// Another customer gets not-found, not forbidden.
	_, err = svc.GetProject(context.Background(), 8, false, 1)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	// Staff see everything.
	_, err = svc.GetProject(context.Background(), 8, true, 1)
	assert.NoError(t, err)
}

func TestListProjectsScoping(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newService(repo, &fakeSubs{status: subscription.StatusActive})
	repo.byID[1] = &project.Project{ID: 1, CustomerID: 7}
	repo.byID[2] = &project.Project{ID: 2, CustomerID: 8}

	resp, err := svc.ListProjects(context.Background(), 7, false, &project.ProjectListFilters{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, int64(7), repo.lastScope)

	resp, err = svc.ListProjects(context.Background(), 7, true, &project.ProjectListFilters{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	assert.Zero(t, repo.lastScope)
}

func TestUpdateStatus(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newService(repo, &fakeSubs{status: subscription.StatusActive})
	repo.byID[1] = &project.Project{ID: 1, CustomerID: 7, Status: project.StatusSubmitted, CreatedAt: time.Now()}

	p, err := svc.UpdateStatus(context.Background(), 3, 1, &project.UpdateStatusRequest{
		Status: project.StatusInProgress,
		Notes:  "picked up",
	})
	require.NoError(t, err)
	assert.Equal(t, project.StatusInProgress, p.Status)
	assert.Equal(t, int64(3), p.AssignedTo.Int64)

	_, err = svc.UpdateStatus(context.Background(), 3, 1, &project.UpdateStatusRequest{Status: "bogus"})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}
