package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/Vozter/TakoNautBot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct {
	db        *sql.DB
	defaultTZ string
}

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a
// repository. defaultTZ is returned by UserTimezone for users without a
// stored preference.
func OpenSQLite(ctx context.Context, path, defaultTZ string) (*SQLiteRepo, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single-writer engine; keep one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db, defaultTZ: defaultTZ}, nil
}

// applyPragmas configures the SQLite connection for durability and
// concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

const reminderColumns = "id, chat_id, user_id, remind_text, run_at, recurrence, created_at"

// AddReminder inserts a reminder row. RunAt is stored as UTC unix seconds.
func (r *SQLiteRepo) AddReminder(ctx context.Context, rem *domain.Reminder) (int64, error) {
	if rem == nil {
		return 0, errors.New("nil reminder")
	}
	created := rem.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders (chat_id, user_id, remind_text, run_at, recurrence, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rem.ChatID, rem.UserID, rem.Text,
		rem.RunAt.UTC().Unix(), rem.Recurrence.String(), created.UTC().Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DueOnceReminders returns one-shot reminders with run_at <= now.
func (r *SQLiteRepo) DueOnceReminders(ctx context.Context, now time.Time) ([]domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE recurrence = 'once' AND run_at <= ?`,
		now.UTC().Unix(),
	)
	if err != nil {
		return nil, err
	}
	return collectReminders(rows)
}

// RecurringReminders returns every reminder with a non-once recurrence.
func (r *SQLiteRepo) RecurringReminders(ctx context.Context) ([]domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE recurrence != 'once'`,
	)
	if err != nil {
		return nil, err
	}
	return collectReminders(rows)
}

// UpcomingByChat returns the chat's reminders with run_at strictly after
// now, ordered by run_at ascending.
func (r *SQLiteRepo) UpcomingByChat(ctx context.Context, chatID int64, now time.Time) ([]domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE chat_id = ? AND run_at > ?
		ORDER BY run_at ASC`,
		chatID, now.UTC().Unix(),
	)
	if err != nil {
		return nil, err
	}
	return collectReminders(rows)
}

// DeleteReminder deletes the reminder scoped to chatID. Deleting a row that
// does not exist, or that belongs to another chat, reports false.
func (r *SQLiteRepo) DeleteReminder(ctx context.Context, id, chatID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM reminders
		WHERE id = ? AND chat_id = ?`,
		id, chatID,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// SetTimezone upserts the user's timezone preference.
func (r *SQLiteRepo) SetTimezone(ctx context.Context, userID int64, zone string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, timezone)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET timezone = excluded.timezone`,
		userID, zone,
	)
	return err
}

// UserTimezone returns the stored zone name or the configured default.
func (r *SQLiteRepo) UserTimezone(ctx context.Context, userID int64) (string, error) {
	var zone string
	err := r.db.QueryRowContext(ctx, `
		SELECT timezone FROM user_settings WHERE user_id = ?`,
		userID,
	).Scan(&zone)
	if errors.Is(err, sql.ErrNoRows) {
		return r.defaultTZ, nil
	}
	if err != nil {
		return "", err
	}
	return zone, nil
}

func collectReminders(rows *sql.Rows) ([]domain.Reminder, error) {
	defer rows.Close()

	var res []domain.Reminder
	for rows.Next() {
		var (
			rem        domain.Reminder
			runAt      int64
			recurrence string
			createdAt  int64
		)
		if err := rows.Scan(&rem.ID, &rem.ChatID, &rem.UserID, &rem.Text, &runAt, &recurrence, &createdAt); err != nil {
			return nil, err
		}
		rec, err := domain.ParseRecurrence(recurrence)
		if err != nil {
			return nil, fmt.Errorf("reminder %d: %w", rem.ID, err)
		}
		rem.Recurrence = rec
		rem.RunAt = time.Unix(runAt, 0).UTC()
		rem.CreatedAt = time.Unix(createdAt, 0).UTC()
		res = append(res, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
