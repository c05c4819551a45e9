package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Vozter/TakoNautBot/internal/domain"
)

const remindersPerPage = 5

// handleRemind schedules a reminder. The first argument is either a keyword
// recurrence directive (daily/weekly/monthly/yearly) anchored in the
// organizational timezone, or a free-form due-time expression interpreted in
// the invoking user's timezone.
func (r *Router) handleRemind(ctx context.Context, msg *tgbotapi.Message) {
	if !r.isAdmin(msg) {
		r.reply(msg, adminsOnlyText)
		return
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		r.reply(msg, remindUsage)
		return
	}

	now := r.now().In(r.orgLoc)

	var (
		runAt time.Time
		rec   domain.Recurrence
		text  string
	)

	switch strings.ToLower(args[0]) {
	case "daily":
		rec = domain.Daily
		runAt = domain.NextDaily(now)
		text = strings.Join(args[1:], " ")

	case "weekly":
		if len(args) < 3 {
			r.reply(msg, "Usage: /remind weekly <weekday> <message>")
			return
		}
		wd, err := domain.ParseWeekday(args[1])
		if err != nil {
			r.reply(msg, "❌ Invalid weekday. Use Monday-Sunday.")
			return
		}
		rec = domain.Weekly
		runAt = domain.NextWeekly(now, wd)
		text = strings.Join(args[2:], " ")

	case "monthly":
		day, convErr := strconv.Atoi(args[1])
		if len(args) < 3 || convErr != nil {
			r.reply(msg, "Usage: /remind monthly <day> <message>")
			return
		}
		anchor, err := domain.NextMonthly(now, day)
		if err != nil {
			r.reply(msg, "❌ Invalid day of month.")
			return
		}
		rec = domain.Monthly
		runAt = anchor
		text = strings.Join(args[2:], " ")

	case "yearly":
		if len(args) < 4 {
			r.reply(msg, "Usage: /remind yearly <day> <month> <message>")
			return
		}
		day, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			r.reply(msg, "Usage: /remind yearly <day> <month> <message>")
			return
		}
		month, ok := domain.ParseMonth(args[2])
		if !ok {
			r.reply(msg, "❌ Invalid month.")
			return
		}
		anchor, err := domain.NextYearly(now, day, month)
		if err != nil {
			r.reply(msg, "❌ Invalid day of month.")
			return
		}
		rec = domain.Yearly
		runAt = anchor
		text = strings.Join(args[3:], " ")

	default:
		zone, err := r.repo.UserTimezone(ctx, msg.From.ID)
		if err != nil {
			r.log.Error("timezone lookup failed", zap.Error(err), zap.Int64("user_id", msg.From.ID))
			r.reply(msg, "Could not read your settings. Please try again later.")
			return
		}
		loc, err := time.LoadLocation(zone)
		if err != nil {
			loc = r.orgLoc
		}

		userNow := r.now().In(loc)
		parsed, rest, err := splitExpression(args, userNow, loc)
		if err != nil {
			r.reply(msg, invalidExprText)
			return
		}
		rec = domain.Once
		runAt = parsed
		text = rest
	}

	rem := &domain.Reminder{
		ChatID:     msg.Chat.ID,
		UserID:     msg.From.ID,
		Text:       text,
		RunAt:      runAt.UTC(),
		Recurrence: rec,
	}
	if _, err := r.repo.AddReminder(ctx, rem); err != nil {
		r.log.Error("add reminder failed", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		r.reply(msg, "Could not save reminder. Please try again later.")
		return
	}

	r.reply(msg, fmt.Sprintf("✅ Reminder set for %s (%s)\nRecurrence: %s",
		runAt.Format("2006-01-02 15:04"), runAt.Location(), rec))
}

// splitExpression finds the longest leading run of args (up to three tokens)
// that parses as a due-time expression; the remainder is the message body.
// At least one token must remain for the message.
func splitExpression(args []string, now time.Time, loc *time.Location) (time.Time, string, error) {
	maxExpr := len(args) - 1
	if maxExpr > 3 {
		maxExpr = 3
	}
	var lastErr error
	for n := maxExpr; n >= 1; n-- {
		t, err := domain.ParseFlexibleTime(strings.Join(args[:n], " "), now, loc)
		if err == nil {
			return t, strings.Join(args[n:], " "), nil
		}
		lastErr = err
	}
	return time.Time{}, "", lastErr
}

// handleList shows the first page of the chat's upcoming reminders.
func (r *Router) handleList(ctx context.Context, msg *tgbotapi.Message) {
	text, kb, empty, err := r.renderList(ctx, msg.Chat.ID, msg.From.ID, 1)
	if err != nil {
		r.log.Error("render reminder list failed", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		r.reply(msg, "Could not read reminders. Please try again later.")
		return
	}
	if empty {
		r.reply(msg, noRemindersText)
		return
	}

	m := tgbotapi.NewMessage(msg.Chat.ID, text)
	m.ReplyMarkup = kb
	m.ReplyToMessageID = msg.MessageID
	if _, err := r.bot.Send(m); err != nil {
		r.log.Warn("send reminder list failed", zap.Error(err))
	}
}

// renderList loads the chat's upcoming reminders and renders the requested
// page in the user's timezone. empty reports an empty list.
func (r *Router) renderList(ctx context.Context, chatID, userID int64, page int) (string, tgbotapi.InlineKeyboardMarkup, bool, error) {
	reminders, err := r.repo.UpcomingByChat(ctx, chatID, r.now().UTC())
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, false, err
	}
	if len(reminders) == 0 {
		return "", tgbotapi.InlineKeyboardMarkup{}, true, nil
	}

	zone, err := r.repo.UserTimezone(ctx, userID)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, false, err
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = r.orgLoc
	}

	page, pages := paginate(len(reminders), page)
	start := (page - 1) * remindersPerPage
	end := start + remindersPerPage
	if end > len(reminders) {
		end = len(reminders)
	}

	_, offset := r.now().In(loc).Zone()
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Reminders (page %d/%d)\nTimezone: GMT%+d (%s)\n\n", page, pages, offset/3600, zone)
	for _, rem := range reminders[start:end] {
		fmt.Fprintf(&b, "🆔 %d | 🕒 %s | 🔁 %s\n📌 %s\n\n",
			rem.ID, rem.RunAt.In(loc).Format("2006-01-02 15:04"), rem.Recurrence, rem.Text)
	}

	return strings.TrimRight(b.String(), "\n"), listKeyboard(page, pages), false, nil
}

// paginate clamps a 1-indexed page request to the valid range for total
// reminders and returns the clamped page with the page count.
func paginate(total, page int) (int, int) {
	pages := (total + remindersPerPage - 1) / remindersPerPage
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	return page, pages
}

// handleDelete removes a reminder by id, scoped to the invoking chat.
func (r *Router) handleDelete(ctx context.Context, msg *tgbotapi.Message) {
	if !r.isAdmin(msg) {
		r.reply(msg, adminsOnlyText)
		return
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		r.reply(msg, "Usage: /reminder_delete <reminder_id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		r.reply(msg, "Usage: /reminder_delete <reminder_id>")
		return
	}

	ok, err := r.repo.DeleteReminder(ctx, id, msg.Chat.ID)
	if err != nil {
		r.log.Error("delete reminder failed", zap.Error(err), zap.Int64("reminder_id", id))
		r.reply(msg, "Could not delete reminder. Please try again later.")
		return
	}
	if !ok {
		r.reply(msg, "❌ Reminder not found or doesn't belong to this chat.")
		return
	}
	r.reply(msg, fmt.Sprintf("✅ Reminder %d deleted.", id))
}

// handleTimezone stores the invoking user's timezone preference.
func (r *Router) handleTimezone(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		r.reply(msg, "Usage: /timezone <Timezone>\nExample: /timezone Asia/Tokyo")
		return
	}

	zone, err := domain.NormalizeZone(args[0])
	if err != nil {
		r.reply(msg, invalidTZText)
		return
	}

	if err := r.repo.SetTimezone(ctx, msg.From.ID, zone); err != nil {
		r.log.Error("set timezone failed", zap.Error(err), zap.Int64("user_id", msg.From.ID))
		r.reply(msg, "Could not save timezone. Please try again later.")
		return
	}
	r.reply(msg, "✅ Timezone set to "+zone)
}
