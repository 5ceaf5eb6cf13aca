package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/brightdoor/realty-concierge/internal/listings"
	"github.com/brightdoor/realty-concierge/pkg/logging"
)

// ReminderStore lists due appointments and stamps sent reminders.
type ReminderStore interface {
	DueForReminder(ctx context.Context, window time.Duration, limit int) ([]*Appointment, error)
	MarkReminderSent(ctx context.Context, id string) error
}

// ReminderNotifier delivers the tour reminder to the visitor.
type ReminderNotifier interface {
	NotifyTourReminder(ctx context.Context, appt *Appointment, listing *listings.Listing) error
}

// ListingCatalog resolves the property an appointment belongs to.
type ListingCatalog interface {
	GetByID(ctx context.Context, id string) (*listings.Listing, error)
}

// ReminderWorker sends upcoming-tour reminders on an interval.
type ReminderWorker struct {
	store    ReminderStore
	catalog  ListingCatalog
	notifier ReminderNotifier
	logger   *logging.Logger
	interval time.Duration
	window   time.Duration
}

// NewReminderWorker creates a reminder worker.
func NewReminderWorker(store ReminderStore, catalog ListingCatalog, notifier ReminderNotifier, interval, window time.Duration, logger *logging.Logger) *ReminderWorker {
	if logger == nil {
		logger = logging.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &ReminderWorker{
		store:    store,
		catalog:  catalog,
		notifier: notifier,
		logger:   logger,
		interval: interval,
		window:   window,
	}
}

// Run loops until the context is canceled.
func (w *ReminderWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("reminder worker started", "interval", w.interval, "window", w.window)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker stopped")
			return
		case <-ticker.C:
			if n, err := w.ProcessDue(ctx); err != nil {
				w.logger.Error("reminder pass failed", "error", err)
			} else if n > 0 {
				w.logger.Info("reminder pass complete", "sent", n)
			}
		}
	}
}

// ProcessDue sends reminders for tours starting within the window.
// Returns the number of reminders sent.
func (w *ReminderWorker) ProcessDue(ctx context.Context) (int, error) {
	due, err := w.store.DueForReminder(ctx, w.window, 50)
	if err != nil {
		return 0, fmt.Errorf("reminder worker: list due: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	sent := 0
	for _, appt := range due {
		if err := w.processOne(ctx, appt); err != nil {
			w.logger.Error("reminder failed", "appointment_id", appt.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (w *ReminderWorker) processOne(ctx context.Context, appt *Appointment) error {
	var listing *listings.Listing
	if w.catalog != nil {
		l, err := w.catalog.GetByID(ctx, appt.ListingID)
		if err != nil {
			w.logger.Warn("reminder listing lookup failed", "listing_id", appt.ListingID, "error", err)
		} else {
			listing = l
		}
	}

	if err := w.notifier.NotifyTourReminder(ctx, appt, listing); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if err := w.store.MarkReminderSent(ctx, appt.ID); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}

	w.logger.Info("tour reminder sent", "appointment_id", appt.ID, "tour_at", appt.TourAt)
	return nil
}
