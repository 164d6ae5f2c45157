package bot

import (
	"bytes"
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stickers_bot/internal/pkg/media"
	"stickers_bot/internal/pkg/session/domain"
	"stickers_bot/internal/pkg/sticker"
)

func (b *Bot) onToEmojiCommand(_ context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	s.Reset()
	flags := ev.flags()
	s.Options.Crop = flags[flagCrop]
	s.Options.IgnoreAspectRatio = flags[flagIgnoreAspectRatio]

	text := textToEmojiWaiting
	if enabled := enabledFlags(flags, flagCrop, flagIgnoreAspectRatio); enabled != "" {
		text += "\n" + fmt.Sprintf(textToFileFlags, enabled)
	}
	b.send(ev.ChatID, text, withMarkup(hideKeyboard))
	return domain.StateToEmojiWaitingSticker, nil
}

func (b *Bot) onToEmojiSticker(ctx context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	f, err := sticker.NewFile(ev.Media, nil)
	if err != nil {
		return s.State, err
	}
	defer f.Close()

	b.chatAction(ev.ChatID, tgbotapi.ChatUploadDocument)
	if err := f.Download(ctx, b.platform); err != nil {
		return s.State, err
	}

	data, err := f.Content()
	if err != nil {
		return s.State, err
	}

	png, err := media.Process(bytes.NewReader(data), media.Options{
		Format:               media.FormatPNG,
		MaxSize:              customEmojiSide,
		Square:               true,
		KeepAspectRatio:      !s.Options.IgnoreAspectRatio,
		CropTransparentAreas: s.Options.Crop,
	})
	if err != nil {
		return s.State, err
	}

	return s.State, b.sendDocument(ev, fileName(ev.Media, "png"), png, f.EmojisString())
}

func (b *Bot) onToEmojiUnexpected(_ context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	b.send(ev.ChatID, textToEmojiUnexpected)
	return s.State, nil
}
