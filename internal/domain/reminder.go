package domain

import (
	"errors"
	"fmt"
	"time"
)

// Recurrence identifies how often a reminder fires.
type Recurrence int

const (
	Once Recurrence = iota
	Daily
	Weekly
	Monthly
	Yearly
)

var ErrUnknownRecurrence = errors.New("unknown recurrence")

// String returns the code used in storage and chat replies.
func (r Recurrence) String() string {
	switch r {
	case Once:
		return "once"
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Yearly:
		return "yearly"
	default:
		return fmt.Sprintf("recurrence(%d)", int(r))
	}
}

// ParseRecurrence converts a storage code back into a Recurrence.
func ParseRecurrence(s string) (Recurrence, error) {
	switch s {
	case "once":
		return Once, nil
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	case "yearly":
		return Yearly, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRecurrence, s)
	}
}

// Reminder is a message scheduled for a chat. RunAt is the single fire time
// for one-shot reminders; for recurring ones it is the anchor whose calendar
// fields define the recurrence phase.
type Reminder struct {
	ID         int64
	ChatID     int64
	UserID     int64
	Text       string
	RunAt      time.Time // UTC
	Recurrence Recurrence
	CreatedAt  time.Time // UTC
}
