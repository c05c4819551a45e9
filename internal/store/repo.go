package store

import (
	"context"
	"time"

	"github.com/Vozter/TakoNautBot/internal/domain"
)

// Repo defines storage operations for reminders and per-user settings.
type Repo interface {
	// AddReminder persists a new reminder and returns its assigned id.
	AddReminder(ctx context.Context, r *domain.Reminder) (int64, error)
	// DueOnceReminders returns one-shot reminders whose fire time is at or
	// before now.
	DueOnceReminders(ctx context.Context, now time.Time) ([]domain.Reminder, error)
	// RecurringReminders returns every non-once reminder.
	RecurringReminders(ctx context.Context) ([]domain.Reminder, error)
	// UpcomingByChat returns a chat's future reminders ordered by fire time.
	UpcomingByChat(ctx context.Context, chatID int64, now time.Time) ([]domain.Reminder, error)
	// DeleteReminder removes the reminder only when it belongs to chatID.
	// It reports whether a row existed; a miss is not an error.
	DeleteReminder(ctx context.Context, id, chatID int64) (bool, error)

	// SetTimezone upserts a user's timezone preference.
	SetTimezone(ctx context.Context, userID int64, zone string) error
	// UserTimezone returns the stored zone, or the configured default when
	// the user has none.
	UserTimezone(ctx context.Context, userID int64) (string, error)

	Close() error
}
