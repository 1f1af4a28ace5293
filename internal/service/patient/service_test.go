package patient

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

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
}

func (r *fakePatientRepo) Upsert(_ context.Context, patient *model.Patient) error {
	// conflict branch only matches rows owned by the same clinic
	if existing, ok := r.patients[patient.ID]; ok && existing.ClinicID != patient.ClinicID {
		return repository.ErrConflict
	}
	copied := *patient
	r.patients[patient.ID] = &copied
	return nil
}

func (r *fakePatientRepo) Get(_ context.Context, clinicID, id uuid.UUID) (*model.Patient, error) {
	patient, ok := r.patients[id]
	if !ok || patient.ClinicID != clinicID {
		return nil, repository.ErrNotFound
	}
	return patient, nil
}

func (r *fakePatientRepo) List(_ context.Context, clinicID uuid.UUID) ([]*model.Patient, error) {
	var out []*model.Patient
	for _, p := range r.patients {
		if p.ClinicID == clinicID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePatientRepo) Delete(_ context.Context, clinicID, id uuid.UUID) error {
	patient, ok := r.patients[id]
	if !ok || patient.ClinicID != clinicID {
		return repository.ErrNotFound
	}
	delete(r.patients, id)
	return nil
}

func newTestService(repo repository.PatientRepository) *Service {
	logger := zerolog.Nop()
	return NewService(repo, revalidate.New(revalidate.DefaultConfig(), nil, &logger))
}

func validRequest() *model.UpsertPatientRequest {
	return &model.UpsertPatientRequest{
		Name:        "John Doe",
		Email:       "john@example.com",
		PhoneNumber: "+5511999999999",
		Sex:         "male",
	}
}

func authCtx() model.AuthContext {
	return model.AuthContext{UserID: uuid.New(), ClinicID: uuid.New(), HasClinic: true}
}

func TestUpsertPatientInsert(t *testing.T) {
	repo := newFakePatientRepo()
	svc := newTestService(repo)
	ctx := authCtx()

	patient, err := svc.UpsertPatient(context.Background(), ctx, validRequest())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, patient.ID)
	assert.Equal(t, ctx.ClinicID, patient.ClinicID)
	assert.Equal(t, model.PatientSexMale, patient.Sex)
}

func TestUpsertPatientIdempotent(t *testing.T) {
	repo := newFakePatientRepo()
	svc := newTestService(repo)
	ctx := authCtx()

	created, err := svc.UpsertPatient(context.Background(), ctx, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.ID = created.ID.String()
	req.PhoneNumber = "+5511888888888"

	updated, err := svc.UpsertPatient(context.Background(), ctx, req)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Len(t, repo.patients, 1)
	assert.Equal(t, "+5511888888888", repo.patients[created.ID].PhoneNumber)
}

func TestUpsertPatientInvalidSex(t *testing.T) {
	svc := newTestService(newFakePatientRepo())

	req := validRequest()
	req.Sex = "unknown"

	_, err := svc.UpsertPatient(context.Background(), authCtx(), req)
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "sex")
}

func TestUpsertPatientClinicRequired(t *testing.T) {
	svc := newTestService(newFakePatientRepo())

	_, err := svc.UpsertPatient(context.Background(), model.AuthContext{UserID: uuid.New()}, validRequest())
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrClinicRequired, appErr.Code)
}

func TestUpsertPatientForeignIDConflict(t *testing.T) {
	repo := newFakePatientRepo()
	svc := newTestService(repo)
	owner := authCtx()

	created, err := svc.UpsertPatient(context.Background(), owner, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.ID = created.ID.String()
	req.Name = "Hijacked"

	other := authCtx()
	_, err = svc.UpsertPatient(context.Background(), other, req)
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)

	// the owner's row is untouched
	assert.Equal(t, "John Doe", repo.patients[created.ID].Name)
	assert.Equal(t, owner.ClinicID, repo.patients[created.ID].ClinicID)
}

func TestDeletePatient(t *testing.T) {
	repo := newFakePatientRepo()
	svc := newTestService(repo)
	ctx := authCtx()

	patient, err := svc.UpsertPatient(context.Background(), ctx, validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.DeletePatient(context.Background(), ctx, patient.ID))
	assert.Empty(t, repo.patients)
}

func TestDeletePatientCrossClinicNotFound(t *testing.T) {
	repo := newFakePatientRepo()
	svc := newTestService(repo)
	owner := authCtx()

	patient, err := svc.UpsertPatient(context.Background(), owner, validRequest())
	require.NoError(t, err)

	other := authCtx()
	err = svc.DeletePatient(context.Background(), other, patient.ID)
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)

	// the row survives
	assert.Len(t, repo.patients, 1)
}

func TestDeletePatientMissing(t *testing.T) {
	svc := newTestService(newFakePatientRepo())

	err := svc.DeletePatient(context.Background(), authCtx(), uuid.New())
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}
