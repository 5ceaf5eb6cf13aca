package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brightdoor/realty-concierge/internal/listings"
	"github.com/brightdoor/realty-concierge/pkg/logging"
)

type fakeReminderStore struct {
	due     []*Appointment
	dueErr  error
	marked  []string
	markErr error
}

func (f *fakeReminderStore) DueForReminder(ctx context.Context, window time.Duration, limit int) ([]*Appointment, error) {
	if f.dueErr != nil {
		return nil, f.dueErr
	}
	return f.due, nil
}

func (f *fakeReminderStore) MarkReminderSent(ctx context.Context, id string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, id)
	return nil
}

type fakeReminderNotifier struct {
	notified []string
	err      error
}

func (f *fakeReminderNotifier) NotifyTourReminder(ctx context.Context, appt *Appointment, listing *listings.Listing) error {
	if f.err != nil {
		return f.err
	}
	f.notified = append(f.notified, appt.ID)
	return nil
}

type failingCatalog struct{}

func (failingCatalog) GetByID(ctx context.Context, id string) (*listings.Listing, error) {
	return nil, errors.New("catalog down")
}

func dueAppointments() []*Appointment {
	return []*Appointment{
		{ID: "A1", ListingID: "S1", VisitorPhone: "+1555", TourAt: time.Now().Add(2 * time.Hour)},
		{ID: "A2", ListingID: "S1", VisitorPhone: "+1556", TourAt: time.Now().Add(3 * time.Hour)},
	}
}

func seededWorkerCatalog() ListingCatalog {
	repo := listings.NewInMemoryRepository()
	repo.Put(&listings.Listing{ID: "S1", Title: "Sunny Craftsman"})
	return repo
}

func TestProcessDueSendsAndMarks(t *testing.T) {
	store := &fakeReminderStore{due: dueAppointments()}
	notifier := &fakeReminderNotifier{}
	w := NewReminderWorker(store, seededWorkerCatalog(), notifier, time.Minute, 24*time.Hour, logging.Default())

	sent, err := w.ProcessDue(context.Background())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if sent != 2 {
		t.Errorf("expected 2 sent, got %d", sent)
	}
	if len(notifier.notified) != 2 || len(store.marked) != 2 {
		t.Errorf("expected both notified and marked, got %v / %v", notifier.notified, store.marked)
	}
}

func TestProcessDueNotifyFailureLeavesUnmarked(t *testing.T) {
	store := &fakeReminderStore{due: dueAppointments()[:1]}
	notifier := &fakeReminderNotifier{err: errors.New("sms down")}
	w := NewReminderWorker(store, seededWorkerCatalog(), notifier, time.Minute, 24*time.Hour, logging.Default())

	sent, err := w.ProcessDue(context.Background())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if sent != 0 {
		t.Errorf("expected 0 sent, got %d", sent)
	}
	// Unmarked reminders get retried on the next pass.
	if len(store.marked) != 0 {
		t.Errorf("expected nothing marked, got %v", store.marked)
	}
}

func TestProcessDueListingLookupFailureStillNotifies(t *testing.T) {
	store := &fakeReminderStore{due: dueAppointments()[:1]}
	notifier := &fakeReminderNotifier{}
	w := NewReminderWorker(store, failingCatalog{}, notifier, time.Minute, 24*time.Hour, logging.Default())

	sent, err := w.ProcessDue(context.Background())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if sent != 1 {
		t.Errorf("expected reminder despite catalog failure, got %d", sent)
	}
}

func TestProcessDueStoreFailure(t *testing.T) {
	store := &fakeReminderStore{dueErr: errors.New("db down")}
	w := NewReminderWorker(store, seededWorkerCatalog(), &fakeReminderNotifier{}, time.Minute, 24*time.Hour, logging.Default())

	if _, err := w.ProcessDue(context.Background()); err == nil {
		t.Error("expected error when listing due appointments fails")
	}
}
