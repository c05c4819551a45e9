// Package scheduler runs the two reminder polling loops: frequent delivery
// of due one-shot reminders and a coarser per-minute evaluation of recurring
// ones. The loops share no state between ticks; every tick re-reads the
// store.
package scheduler

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/Vozter/TakoNautBot/internal/domain"
	"github.com/Vozter/TakoNautBot/internal/store"
)

// Sender delivers a text message to a chat. telegram.Router implements it.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

var (
	remindersDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "takonaut_reminders_delivered_total",
		Help: "Reminders successfully delivered, by recurrence kind.",
	}, []string{"recurrence"})
	deliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "takonaut_reminder_delivery_failures_total",
		Help: "Reminder deliveries that failed and will be retried.",
	})
)

// Scheduler polls the store and dispatches due reminders.
type Scheduler struct {
	repo               store.Repo
	log                *zap.Logger
	sender             Sender
	deliveryInterval   time.Duration
	recurrenceInterval time.Duration
	now                func() time.Time
}

// New creates a Scheduler with the given tick intervals.
func New(repo store.Repo, log *zap.Logger, sender Sender, delivery, recurrence time.Duration) *Scheduler {
	return &Scheduler{
		repo:               repo,
		log:                log,
		sender:             sender,
		deliveryInterval:   delivery,
		recurrenceInterval: recurrence,
		now:                time.Now,
	}
}

// RunDelivery polls for due one-shot reminders until ctx is canceled.
func (s *Scheduler) RunDelivery(ctx context.Context) {
	ticker := time.NewTicker(s.deliveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("delivery loop stopping")
			return
		case <-ticker.C:
			s.deliveryTick(ctx)
		}
	}
}

// RunRecurrence evaluates recurring reminders until ctx is canceled.
func (s *Scheduler) RunRecurrence(ctx context.Context) {
	ticker := time.NewTicker(s.recurrenceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("recurrence loop stopping")
			return
		case <-ticker.C:
			s.recurrenceTick(ctx)
		}
	}
}

// deliveryTick sends every due one-shot reminder and deletes it after a
// successful send. A failed send leaves the row for the next tick; a failed
// reminder never aborts the rest of the batch.
func (s *Scheduler) deliveryTick(ctx context.Context) {
	now := s.now().UTC()

	due, err := s.repo.DueOnceReminders(ctx, now)
	if err != nil {
		s.log.Error("due reminder query failed", zap.Error(err))
		return
	}

	for _, rem := range due {
		if err := s.sender.SendMessage(rem.ChatID, rem.Text); err != nil {
			deliveryFailures.Inc()
			s.log.Error("reminder delivery failed",
				zap.Error(err),
				zap.Int64("reminder_id", rem.ID),
				zap.Int64("chat_id", rem.ChatID),
			)
			continue
		}
		remindersDelivered.WithLabelValues(rem.Recurrence.String()).Inc()

		// A concurrent user delete makes this a no-op, which is fine.
		if _, err := s.repo.DeleteReminder(ctx, rem.ID, rem.ChatID); err != nil {
			s.log.Error("delete after delivery failed",
				zap.Error(err),
				zap.Int64("reminder_id", rem.ID),
			)
		}
	}
}

// recurrenceTick sends every recurring reminder whose fire condition matches
// the current minute in its owner's timezone. Recurring reminders are never
// deleted here.
func (s *Scheduler) recurrenceTick(ctx context.Context) {
	now := s.now().UTC()

	reminders, err := s.repo.RecurringReminders(ctx)
	if err != nil {
		s.log.Error("recurring reminder query failed", zap.Error(err))
		return
	}

	for _, rem := range reminders {
		zone, err := s.repo.UserTimezone(ctx, rem.UserID)
		if err != nil {
			s.log.Error("timezone lookup failed",
				zap.Error(err),
				zap.Int64("user_id", rem.UserID),
			)
			continue
		}
		loc, err := time.LoadLocation(zone)
		if err != nil {
			s.log.Warn("stored timezone invalid, using UTC",
				zap.String("zone", zone),
				zap.Int64("user_id", rem.UserID),
			)
			loc = time.UTC
		}

		if !domain.FiresAt(rem.Recurrence, rem.RunAt, now, loc) {
			continue
		}

		if err := s.sender.SendMessage(rem.ChatID, rem.Text); err != nil {
			deliveryFailures.Inc()
			s.log.Error("recurring reminder delivery failed",
				zap.Error(err),
				zap.Int64("reminder_id", rem.ID),
				zap.Int64("chat_id", rem.ChatID),
			)
			continue
		}
		remindersDelivered.WithLabelValues(rem.Recurrence.String()).Inc()
	}
}
