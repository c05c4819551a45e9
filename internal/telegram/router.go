package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Vozter/TakoNautBot/internal/config"
	"github.com/Vozter/TakoNautBot/internal/convert"
	"github.com/Vozter/TakoNautBot/internal/rates"
	"github.com/Vozter/TakoNautBot/internal/store"
)

// Router wires Telegram updates to command handlers and the free-text
// conversion dispatcher.
type Router struct {
	bot    *tgbotapi.BotAPI
	log    *zap.Logger
	repo   store.Repo
	rates  *rates.Cache
	admins []int64
	orgLoc *time.Location // anchors for keyword recurrences are computed here
	now    func() time.Time
}

// NewRouter creates a Router. The organizational timezone for keyword
// recurrence anchors comes from the configured default zone.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, repo store.Repo, rc *rates.Cache, cfg config.Config) (*Router, error) {
	orgLoc, err := time.LoadLocation(cfg.DefaultTZ)
	if err != nil {
		return nil, fmt.Errorf("default timezone %q: %w", cfg.DefaultTZ, err)
	}
	return &Router{
		bot:    bot,
		log:    log,
		repo:   repo,
		rates:  rc,
		admins: cfg.GlobalAdmins,
		orgLoc: orgLoc,
		now:    time.Now,
	}, nil
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil && upd.Message.Text != "" {
		msg := upd.Message
		if msg.IsCommand() {
			switch msg.Command() {
			case "start", "help":
				r.reply(msg, startText)
			case "remind":
				r.handleRemind(ctx, msg)
			case "reminder_list":
				r.handleList(ctx, msg)
			case "reminder_delete":
				r.handleDelete(ctx, msg)
			case "timezone":
				r.handleTimezone(ctx, msg)
			}
			return
		}
		r.handleFreeText(msg)
		return
	}

	if upd.CallbackQuery != nil {
		r.handleCallback(ctx, upd.CallbackQuery)
	}
}

// SendMessage sends a plain text message to the given chat. This makes
// Router satisfy scheduler.Sender.
func (r *Router) SendMessage(chatID int64, text string) error {
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// reply sends text as a reply to the invoking message.
func (r *Router) reply(msg *tgbotapi.Message, text string) {
	m := tgbotapi.NewMessage(msg.Chat.ID, text)
	m.ReplyToMessageID = msg.MessageID
	if _, err := r.bot.Send(m); err != nil {
		r.log.Warn("reply failed", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
	}
}

// isAdmin gates group commands: global admins always pass, private chats
// are unrestricted, otherwise the user must be a chat creator or
// administrator.
func (r *Router) isAdmin(msg *tgbotapi.Message) bool {
	for _, id := range r.admins {
		if msg.From != nil && msg.From.ID == id {
			return true
		}
	}
	if msg.Chat.IsPrivate() {
		return true
	}
	member, err := r.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: msg.Chat.ID,
			UserID: msg.From.ID,
		},
	})
	if err != nil {
		r.log.Warn("chat member lookup failed", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		return false
	}
	return member.Status == "creator" || member.Status == "administrator"
}

// handleFreeText tries the stateless converters on plain messages. Text
// matching neither query shape is ignored.
func (r *Router) handleFreeText(msg *tgbotapi.Message) {
	if amount, from, to, ok := convert.ParseCurrencyQuery(msg.Text); ok {
		result, rate, at, err := r.rates.Convert(amount, from, to)
		switch {
		case err == nil:
			r.reply(msg, fmt.Sprintf("%s %s = %s %s\n1 %s = %s %s\n(Rates last updated: %s UTC)",
				convert.FormatAmount(amount), from,
				convert.FormatAmount(result), to,
				from, convert.FormatAmount(rate), to,
				at.Format("2006-01-02 15:04"),
			))
			return
		case errors.Is(err, rates.ErrUnknownCurrency):
			// Three-letter units like "mph" parse as currency codes;
			// fall through and try the unit converter.
		default:
			r.reply(msg, conversionErrText)
			return
		}
	}

	if amount, from, to, ok := convert.ParseUnitQuery(msg.Text); ok {
		result, rate, err := convert.ConvertUnit(amount, from, to)
		if err != nil {
			r.reply(msg, unsupportedText)
			return
		}
		if convert.IsTemperature(from) || convert.IsTemperature(to) {
			r.reply(msg, fmt.Sprintf("%s° %s = %s° %s",
				convert.FormatAmount(amount), strings.ToUpper(from),
				convert.FormatAmount(result), strings.ToUpper(to),
			))
			return
		}
		r.reply(msg, fmt.Sprintf("%s %s = %s %s\n1 %s = %s %s",
			convert.FormatAmount(amount), from,
			convert.FormatAmount(result), to,
			from, convert.FormatAmount(rate), to,
		))
	}
}

// handleCallback drives reminder list pagination.
func (r *Router) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	if _, err := r.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		r.log.Warn("callback answer failed", zap.Error(err))
	}

	if !strings.HasPrefix(cb.Data, listCallbackPrefix) {
		return
	}
	page, err := strconv.Atoi(strings.TrimPrefix(cb.Data, listCallbackPrefix))
	if err != nil {
		return
	}

	text, kb, empty, err := r.renderList(ctx, cb.Message.Chat.ID, cb.From.ID, page)
	if err != nil {
		r.log.Error("render reminder list failed", zap.Error(err))
		return
	}
	if empty {
		return
	}
	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text)
	edit.ReplyMarkup = &kb
	if _, err := r.bot.Send(edit); err != nil {
		r.log.Warn("edit reminder list failed", zap.Error(err))
	}
}
