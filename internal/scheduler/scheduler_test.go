package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vozter/TakoNautBot/internal/domain"
)

// mockRepo is an in-memory store.Repo for loop tests.
type mockRepo struct {
	reminders map[int64]domain.Reminder
	zones     map[int64]string
	nextID    int64
	queryErr  error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		reminders: make(map[int64]domain.Reminder),
		zones:     make(map[int64]string),
		nextID:    1,
	}
}

func (m *mockRepo) AddReminder(_ context.Context, r *domain.Reminder) (int64, error) {
	id := m.nextID
	m.nextID++
	rem := *r
	rem.ID = id
	m.reminders[id] = rem
	return id, nil
}

func (m *mockRepo) DueOnceReminders(_ context.Context, now time.Time) ([]domain.Reminder, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var res []domain.Reminder
	for _, rem := range m.reminders {
		if rem.Recurrence == domain.Once && !rem.RunAt.After(now) {
			res = append(res, rem)
		}
	}
	return res, nil
}

func (m *mockRepo) RecurringReminders(context.Context) ([]domain.Reminder, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var res []domain.Reminder
	for _, rem := range m.reminders {
		if rem.Recurrence != domain.Once {
			res = append(res, rem)
		}
	}
	return res, nil
}

func (m *mockRepo) UpcomingByChat(context.Context, int64, time.Time) ([]domain.Reminder, error) {
	return nil, nil
}

func (m *mockRepo) DeleteReminder(_ context.Context, id, chatID int64) (bool, error) {
	rem, ok := m.reminders[id]
	if !ok || rem.ChatID != chatID {
		return false, nil
	}
	delete(m.reminders, id)
	return true, nil
}

func (m *mockRepo) SetTimezone(_ context.Context, userID int64, zone string) error {
	m.zones[userID] = zone
	return nil
}

func (m *mockRepo) UserTimezone(_ context.Context, userID int64) (string, error) {
	if z, ok := m.zones[userID]; ok {
		return z, nil
	}
	return "Asia/Jakarta", nil
}

func (m *mockRepo) Close() error { return nil }

// mockSender records sends and can fail for selected chats.
type mockSender struct {
	sent    []int64
	failFor map[int64]bool
}

func (s *mockSender) SendMessage(chatID int64, _ string) error {
	if s.failFor[chatID] {
		return errors.New("chat unreachable")
	}
	s.sent = append(s.sent, chatID)
	return nil
}

func newTestScheduler(repo *mockRepo, sender *mockSender, now time.Time) *Scheduler {
	s := New(repo, zap.NewNop(), sender, 30*time.Second, time.Minute)
	s.now = func() time.Time { return now }
	return s
}

func TestDeliveryTick_SendsAndDeletesDue(t *testing.T) {
	repo := newMockRepo()
	sender := &mockSender{}
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	dueID, _ := repo.AddReminder(context.Background(), &domain.Reminder{
		ChatID: 1, UserID: 7, Text: "due", RunAt: now.Add(-time.Minute), Recurrence: domain.Once,
	})
	futureID, _ := repo.AddReminder(context.Background(), &domain.Reminder{
		ChatID: 1, UserID: 7, Text: "future", RunAt: now.Add(time.Hour), Recurrence: domain.Once,
	})

	s := newTestScheduler(repo, sender, now)
	s.deliveryTick(context.Background())

	assert.Equal(t, []int64{1}, sender.sent)
	_, stillThere := repo.reminders[dueID]
	assert.False(t, stillThere, "delivered one-shot reminder must be deleted")
	_, stillThere = repo.reminders[futureID]
	assert.True(t, stillThere)
}

func TestDeliveryTick_FailureLeavesReminderForRetry(t *testing.T) {
	repo := newMockRepo()
	sender := &mockSender{failFor: map[int64]bool{1: true}}
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	badID, _ := repo.AddReminder(context.Background(), &domain.Reminder{
		ChatID: 1, UserID: 7, Text: "unreachable", RunAt: now.Add(-time.Minute), Recurrence: domain.Once,
	})
	goodID, _ := repo.AddReminder(context.Background(), &domain.Reminder{
		ChatID: 2, UserID: 7, Text: "fine", RunAt: now.Add(-time.Minute), Recurrence: domain.Once,
	})

	s := newTestScheduler(repo, sender, now)
	s.deliveryTick(context.Background())

	// The failing chat does not block the healthy one.
	assert.Equal(t, []int64{2}, sender.sent)
	_, stillThere := repo.reminders[badID]
	assert.True(t, stillThere, "failed delivery must stay queued")
	_, stillThere = repo.reminders[goodID]
	assert.False(t, stillThere)

	// Next tick retries and succeeds.
	sender.failFor = nil
	s.deliveryTick(context.Background())
	assert.Equal(t, []int64{2, 1}, sender.sent)
}

func TestDeliveryTick_StoreErrorSkipsTick(t *testing.T) {
	repo := newMockRepo()
	repo.queryErr = errors.New("connection refused")
	sender := &mockSender{}

	s := newTestScheduler(repo, sender, time.Now())
	s.deliveryTick(context.Background()) // must not panic
	assert.Empty(t, sender.sent)
}

func TestRecurrenceTick_FiresAtLocalMidnight(t *testing.T) {
	repo := newMockRepo()
	sender := &mockSender{}
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	anchor := time.Date(2025, time.March, 11, 0, 0, 0, 0, loc).UTC()
	id, _ := repo.AddReminder(context.Background(), &domain.Reminder{
		ChatID: 1, UserID: 7, Text: "drink water", RunAt: anchor, Recurrence: domain.Daily,
	})

	midnight := time.Date(2025, time.April, 2, 0, 0, 0, 0, loc).UTC()
	s := newTestScheduler(repo, sender, midnight)
	s.recurrenceTick(context.Background())

	assert.Equal(t, []int64{1}, sender.sent)
	_, stillThere := repo.reminders[id]
	assert.True(t, stillThere, "recurring reminders are never deleted by the loop")

	// A minute later nothing fires.
	s.now = func() time.Time { return midnight.Add(time.Minute) }
	s.recurrenceTick(context.Background())
	assert.Equal(t, []int64{1}, sender.sent)
}

func TestRecurrenceTick_MonthlyMatchesAnchorDay(t *testing.T) {
	repo := newMockRepo()
	sender := &mockSender{}
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	anchor := time.Date(2025, time.April, 15, 0, 0, 0, 0, loc).UTC()
	repo.AddReminder(context.Background(), &domain.Reminder{
		ChatID: 1, UserID: 7, Text: "pay rent", RunAt: anchor, Recurrence: domain.Monthly,
	})

	s := newTestScheduler(repo, sender, time.Date(2025, time.May, 15, 0, 0, 0, 0, loc).UTC())
	s.recurrenceTick(context.Background())
	require.Len(t, sender.sent, 1)

	s.now = func() time.Time { return time.Date(2025, time.May, 16, 0, 0, 0, 0, loc).UTC() }
	s.recurrenceTick(context.Background())
	assert.Len(t, sender.sent, 1, "wrong day of month must not fire")
}

func TestRecurrenceTick_UsesStoredTimezone(t *testing.T) {
	repo := newMockRepo()
	sender := &mockSender{}
	require.NoError(t, repo.SetTimezone(context.Background(), 7, "Asia/Tokyo"))

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	anchor := time.Date(2025, time.March, 11, 0, 0, 0, 0, tokyo).UTC()
	repo.AddReminder(context.Background(), &domain.Reminder{
		ChatID: 1, UserID: 7, Text: "stretch", RunAt: anchor, Recurrence: domain.Daily,
	})

	// Midnight in Tokyo, 15:00 UTC.
	s := newTestScheduler(repo, sender, time.Date(2025, time.April, 1, 15, 0, 0, 0, time.UTC))
	s.recurrenceTick(context.Background())
	assert.Len(t, sender.sent, 1)

	// Midnight in Jakarta would be 17:00 UTC; the Tokyo user must not fire.
	s.now = func() time.Time { return time.Date(2025, time.April, 1, 17, 0, 0, 0, time.UTC) }
	s.recurrenceTick(context.Background())
	assert.Len(t, sender.sent, 1)
}

func TestRunLoopsStopOnCancel(t *testing.T) {
	repo := newMockRepo()
	sender := &mockSender{}
	s := New(repo, zap.NewNop(), sender, 10*time.Millisecond, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunDelivery(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunDelivery did not stop on cancel")
	}
}
