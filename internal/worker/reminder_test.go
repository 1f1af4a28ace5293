package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medagenda/clinic-api/internal/model"
	"github.com/medagenda/clinic-api/pkg/metrics"
)

type fakeAppointmentRepo struct {
	due    []*model.AppointmentReminder
	marked map[uuid.UUID]bool
}

func (r *fakeAppointmentRepo) Create(_ context.Context, _ *model.Appointment) error { return nil }
func (r *fakeAppointmentRepo) Update(_ context.Context, _ uuid.UUID, _ *model.Appointment) error {
	return nil
}
func (r *fakeAppointmentRepo) Get(_ context.Context, _, _ uuid.UUID) (*model.Appointment, error) {
	return nil, nil
}
func (r *fakeAppointmentRepo) List(_ context.Context, _ uuid.UUID, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}

func (r *fakeAppointmentRepo) DueReminders(_ context.Context, _ time.Time, _ int) ([]*model.AppointmentReminder, error) {
	var out []*model.AppointmentReminder
	for _, reminder := range r.due {
		if !r.marked[reminder.ID] {
			out = append(out, reminder)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) MarkReminderSent(_ context.Context, id uuid.UUID) error {
	r.marked[id] = true
	return nil
}

type fakeEmailService struct {
	sent    []string
	failFor string
}

func (s *fakeEmailService) SendWelcome(_ context.Context, _, _ string) error { return nil }

func (s *fakeEmailService) SendAppointmentReminder(_ context.Context, to, _, _ string, _ time.Time) error {
	if to == s.failFor {
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, to)
	return nil
}

var testMetrics = metrics.New("clinic_worker_test")

func newTestWorker(repo *fakeAppointmentRepo, emailSvc *fakeEmailService) *ReminderWorker {
	logger := zerolog.Nop()
	return NewReminderWorker(repo, emailSvc, testMetrics, &logger, DefaultReminderConfig())
}

func reminder(email string) *model.AppointmentReminder {
	return &model.AppointmentReminder{
		ID:           uuid.New(),
		Date:         time.Now().Add(2 * time.Hour),
		PatientName:  "John Doe",
		PatientEmail: email,
		DoctorName:   "Jane Smith",
	}
}

func TestRunOnceSendsAndMarks(t *testing.T) {
	first := reminder("john@example.com")
	second := reminder("mary@example.com")
	repo := &fakeAppointmentRepo{
		due:    []*model.AppointmentReminder{first, second},
		marked: make(map[uuid.UUID]bool),
	}
	emailSvc := &fakeEmailService{}

	newTestWorker(repo, emailSvc).runOnce(context.Background())

	assert.ElementsMatch(t, []string{"john@example.com", "mary@example.com"}, emailSvc.sent)
	assert.True(t, repo.marked[first.ID])
	assert.True(t, repo.marked[second.ID])
}

func TestRunOnceFailedSendRetriesNextTick(t *testing.T) {
	ok := reminder("john@example.com")
	failing := reminder("bounce@example.com")
	repo := &fakeAppointmentRepo{
		due:    []*model.AppointmentReminder{ok, failing},
		marked: make(map[uuid.UUID]bool),
	}
	emailSvc := &fakeEmailService{failFor: "bounce@example.com"}

	worker := newTestWorker(repo, emailSvc)
	worker.runOnce(context.Background())

	assert.True(t, repo.marked[ok.ID])
	assert.False(t, repo.marked[failing.ID])

	// next tick picks the failed one up again
	emailSvc.failFor = ""
	worker.runOnce(context.Background())

	require.True(t, repo.marked[failing.ID])
	assert.Equal(t, []string{"john@example.com", "bounce@example.com"}, emailSvc.sent)
}
