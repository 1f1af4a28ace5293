package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medagenda/clinic-api/internal/model"
	"github.com/medagenda/clinic-api/internal/repository"
)

type fakeClinicRepo struct {
	memberships []*model.UserClinic
}

func (r *fakeClinicRepo) CreateWithMembership(_ context.Context, _ *model.Clinic, _ uuid.UUID) error {
	return nil
}

func (r *fakeClinicRepo) Get(_ context.Context, _ uuid.UUID) (*model.Clinic, error) {
	return nil, repository.ErrNotFound
}

func (r *fakeClinicRepo) ListForUser(_ context.Context, _ uuid.UUID) ([]*model.Clinic, error) {
	return nil, nil
}

func (r *fakeClinicRepo) FirstMembership(_ context.Context, userID uuid.UUID) (*model.UserClinic, error) {
	var first *model.UserClinic
	for _, m := range r.memberships {
		if m.UserID != userID {
			continue
		}
		if first == nil || m.CreatedAt.Before(first.CreatedAt) {
			first = m
		}
	}
	if first == nil {
		return nil, repository.ErrNotFound
	}
	return first, nil
}

func TestResolveWithMembership(t *testing.T) {
	userID := uuid.New()
	clinicID := uuid.New()
	repo := &fakeClinicRepo{memberships: []*model.UserClinic{
		{UserID: userID, ClinicID: clinicID},
	}}

	authCtx, err := NewService(repo).Resolve(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, userID, authCtx.UserID)
	assert.Equal(t, clinicID, authCtx.ClinicID)
	assert.True(t, authCtx.HasClinic)
}

func TestResolveEarliestMembershipWins(t *testing.T) {
	userID := uuid.New()
	older := uuid.New()
	newer := uuid.New()
	repo := &fakeClinicRepo{memberships: []*model.UserClinic{
		{UserID: userID, ClinicID: newer, CreatedAt: time.Now()},
		{UserID: userID, ClinicID: older, CreatedAt: time.Now().Add(-time.Hour)},
	}}

	authCtx, err := NewService(repo).Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, older, authCtx.ClinicID)
}

func TestResolveWithoutMembership(t *testing.T) {
	userID := uuid.New()

	authCtx, err := NewService(&fakeClinicRepo{}).Resolve(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, userID, authCtx.UserID)
	assert.False(t, authCtx.HasClinic)
	assert.Equal(t, uuid.Nil, authCtx.ClinicID)
}
