package doctor

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medagenda/clinic-api/internal/model"
	"github.com/medagenda/clinic-api/internal/repository"
	apperrors "github.com/medagenda/clinic-api/pkg/errors"
	"github.com/medagenda/clinic-api/pkg/revalidate"
)

type fakeDoctorRepo struct {
	doctors map[uuid.UUID]*model.Doctor
}

func newFakeDoctorRepo() *fakeDoctorRepo {
	return &fakeDoctorRepo{doctors: make(map[uuid.UUID]*model.Doctor)}
}

func (r *fakeDoctorRepo) Upsert(_ context.Context, doctor *model.Doctor) error {
	// conflict branch only matches rows owned by the same clinic
	if existing, ok := r.doctors[doctor.ID]; ok && existing.ClinicID != doctor.ClinicID {
		return repository.ErrConflict
	}
	copied := *doctor
	r.doctors[doctor.ID] = &copied
	return nil
}

func (r *fakeDoctorRepo) Get(_ context.Context, clinicID, id uuid.UUID) (*model.Doctor, error) {
	doctor, ok := r.doctors[id]
	if !ok || doctor.ClinicID != clinicID {
		return nil, repository.ErrNotFound
	}
	return doctor, nil
}

func (r *fakeDoctorRepo) List(_ context.Context, clinicID uuid.UUID) ([]*model.Doctor, error) {
	var out []*model.Doctor
	for _, d := range r.doctors {
		if d.ClinicID == clinicID {
			out = append(out, d)
		}
	}
	return out, nil
}

func newTestService(repo repository.DoctorRepository) *Service {
	logger := zerolog.Nop()
	return NewService(repo, revalidate.New(revalidate.DefaultConfig(), nil, &logger))
}

func validRequest() *model.UpsertDoctorRequest {
	return &model.UpsertDoctorRequest{
		Name:                    "Jane Smith",
		Specialty:               "Cardiology",
		AppointmentPriceInCents: 15000,
		AvailableFromWeekDay:    1,
		AvailableToWeekDay:      5,
		AvailableFromTime:       "09:00:00",
		AvailableToTime:         "17:00:00",
	}
}

func authCtx() model.AuthContext {
	return model.AuthContext{UserID: uuid.New(), ClinicID: uuid.New(), HasClinic: true}
}

func TestUpsertDoctorInsertStampsClinic(t *testing.T) {
	repo := newFakeDoctorRepo()
	svc := newTestService(repo)
	ctx := authCtx()

	doctor, err := svc.UpsertDoctor(context.Background(), ctx, validRequest())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, doctor.ID)
	assert.Equal(t, ctx.ClinicID, doctor.ClinicID)
	assert.Equal(t, "09:00:00", doctor.AvailableFromTime)
	assert.Equal(t, "17:00:00", doctor.AvailableToTime)
}

func TestUpsertDoctorOverwritesByID(t *testing.T) {
	repo := newFakeDoctorRepo()
	svc := newTestService(repo)
	ctx := authCtx()

	created, err := svc.UpsertDoctor(context.Background(), ctx, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.ID = created.ID.String()
	req.Specialty = "Dermatology"

	updated, err := svc.UpsertDoctor(context.Background(), ctx, req)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Dermatology", repo.doctors[created.ID].Specialty)
}

func TestUpsertDoctorNormalizesShortTime(t *testing.T) {
	svc := newTestService(newFakeDoctorRepo())

	req := validRequest()
	req.AvailableFromTime = "9:00"
	req.AvailableToTime = "17:30"

	doctor, err := svc.UpsertDoctor(context.Background(), authCtx(), req)
	require.NoError(t, err)

	assert.Equal(t, "09:00:00", doctor.AvailableFromTime)
	assert.Equal(t, "17:30:00", doctor.AvailableToTime)
}

func TestUpsertDoctorInvertedWindow(t *testing.T) {
	svc := newTestService(newFakeDoctorRepo())

	req := validRequest()
	req.AvailableFromTime = "17:00:00"
	req.AvailableToTime = "09:00:00"

	_, err := svc.UpsertDoctor(context.Background(), authCtx(), req)
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Equal(t, "end time must be after start time", appErr.Fields["available_to_time"])
}

func TestUpsertDoctorValidationBeforeClinicCheck(t *testing.T) {
	svc := newTestService(newFakeDoctorRepo())

	req := validRequest()
	req.Name = ""
	noClinic := model.AuthContext{UserID: uuid.New()}

	_, err := svc.UpsertDoctor(context.Background(), noClinic, req)
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "name")
}

func TestUpsertDoctorClinicRequired(t *testing.T) {
	svc := newTestService(newFakeDoctorRepo())

	_, err := svc.UpsertDoctor(context.Background(), model.AuthContext{UserID: uuid.New()}, validRequest())
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrClinicRequired, appErr.Code)
}

func TestUpsertDoctorForeignIDConflict(t *testing.T) {
	repo := newFakeDoctorRepo()
	svc := newTestService(repo)
	owner := authCtx()

	created, err := svc.UpsertDoctor(context.Background(), owner, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.ID = created.ID.String()
	req.Specialty = "Hijacked"

	other := authCtx()
	_, err = svc.UpsertDoctor(context.Background(), other, req)
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)

	// the owner's row is untouched
	assert.Equal(t, "Cardiology", repo.doctors[created.ID].Specialty)
	assert.Equal(t, owner.ClinicID, repo.doctors[created.ID].ClinicID)
}

func TestGetDoctorCrossClinicNotFound(t *testing.T) {
	repo := newFakeDoctorRepo()
	svc := newTestService(repo)
	owner := authCtx()

	doctor, err := svc.UpsertDoctor(context.Background(), owner, validRequest())
	require.NoError(t, err)

	other := authCtx()
	_, err = svc.GetDoctor(context.Background(), other, doctor.ID)
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestNormalizeTimeOfDay(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"09:00:00", "09:00:00", true},
		{"9:00", "09:00:00", true},
		{"23:59", "23:59:00", true},
		{"17:30:15", "17:30:15", true},
		{"25:00", "", false},
		{"noon", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, err := NormalizeTimeOfDay(tt.in)
		if tt.ok {
			require.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got)
		} else {
			assert.Error(t, err, tt.in)
		}
	}
}
