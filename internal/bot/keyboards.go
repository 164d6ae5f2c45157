package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	packdomain "stickers_bot/internal/pkg/pack/domain"
)

const (
	packTypeCallbackPrefix = "packtype:"
	goBackButton           = "GO BACK"
)

var hideKeyboard = tgbotapi.NewRemoveKeyboard(true)

func packTypeKeyboard(selected packdomain.PackType) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(packdomain.PackTypes()))
	for _, t := range packdomain.PackTypes() {
		mark := "☑️"
		if t == selected {
			mark = "✅"
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			mark+" "+t.String(),
			fmt.Sprintf("%s%d", packTypeCallbackPrefix, t),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// fromList builds a reply keyboard with one button per row.
func fromList(items []string, goBack bool) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(items)+1)
	if goBack {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(goBackButton)))
	}
	for _, item := range items {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(item)))
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}

func emptyInlineKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
}
