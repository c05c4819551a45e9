package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const startText = "👋 Welcome to TakoNautBot!\n\n" +
	"💱 Currency conversion:\n" +
	"  100 USD to IDR\n" +
	"  2500 JPY to EUR\n\n" +
	"📏 Unit conversion:\n" +
	"  170 cm to ft\n" +
	"  25 c to f\n\n" +
	"⏰ Reminders:\n" +
	"  /remind 10m drink water\n" +
	"  /remind daily standup\n" +
	"  /reminder_list\n" +
	"  /reminder_delete <id>\n\n" +
	"🌍 Timezone:\n" +
	"  /timezone Asia/Tokyo\n"

const remindUsage = "Usage:\n" +
	"/remind 10m <message>\n" +
	"/remind 3 october <message>\n" +
	"/remind 2025-01-02 15:04 <message>\n" +
	"/remind daily <message>\n" +
	"/remind weekly monday <message>\n" +
	"/remind monthly 11 <message>\n" +
	"/remind yearly 12 october <message>"

const (
	adminsOnlyText    = "❌ Only admins can use this command in groups."
	invalidExprText   = "❌ Invalid format. Try: 10m, 2h30m, 3 october, 2025-01-02 15:04"
	invalidTZText     = "❌ Invalid timezone. Use values like Asia/Tokyo, Asia/Jakarta."
	noRemindersText   = "No reminders set."
	conversionErrText = "Conversion failed. Check currency codes or try again later."
	unsupportedText   = "Unsupported unit. Try using 'kg', 'cm', 'mile', etc."
)

const listCallbackPrefix = "remindlist:"

// listKeyboard builds the first/prev/page/next/last pagination row for the
// reminder list.
func listKeyboard(page, pages int) tgbotapi.InlineKeyboardMarkup {
	prev := page - 1
	if prev < 1 {
		prev = 1
	}
	next := page + 1
	if next > pages {
		next = pages
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏪", fmt.Sprintf("%s%d", listCallbackPrefix, 1)),
			tgbotapi.NewInlineKeyboardButtonData("⬅️", fmt.Sprintf("%s%d", listCallbackPrefix, prev)),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", page, pages), "noop"),
			tgbotapi.NewInlineKeyboardButtonData("➡️", fmt.Sprintf("%s%d", listCallbackPrefix, next)),
			tgbotapi.NewInlineKeyboardButtonData("⏩", fmt.Sprintf("%s%d", listCallbackPrefix, pages)),
		),
	)
}
