package bot

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stickers_bot/internal/pkg/media"
	packdomain "stickers_bot/internal/pkg/pack/domain"
	"stickers_bot/internal/pkg/session/domain"
	"stickers_bot/internal/pkg/sticker"
)

const (
	flagWebP              = "-w"
	flagCrop              = "-c"
	flagIgnoreAspectRatio = "-i"

	customEmojiSide = 100
)

func (b *Bot) onToFileCommand(_ context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	s.Reset()
	flags := ev.flags()
	s.Options.WebP = flags[flagWebP]

	text := textToFileWaiting
	if enabled := enabledFlags(flags, flagWebP); enabled != "" {
		text += "\n" + fmt.Sprintf(textToFileFlags, enabled)
	}
	b.send(ev.ChatID, text, withMarkup(hideKeyboard))
	return domain.StateToFileWaitingSticker, nil
}

func (b *Bot) onToFileSticker(ctx context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	return s.State, b.sendStickerFile(ctx, s, ev, ev.Media)
}

func (b *Bot) onToFileCustomEmoji(ctx context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	if len(ev.CustomEmojiIDs) > 1 {
		b.send(ev.ChatID, textToFileTooManyEmoji)
		return s.State, nil
	}

	stickers, err := b.platform.GetCustomEmojiStickers(ctx, ev.CustomEmojiIDs)
	if err != nil {
		return s.State, err
	}
	if len(stickers) == 0 {
		b.send(ev.ChatID, textToFileNoEmoji)
		return s.State, nil
	}

	emoji := stickers[0]
	item := &sticker.MediaItem{
		Origin:       sticker.OriginSticker,
		FileID:       emoji.FileID,
		FileUniqueID: emoji.FileUniqueID,
		IsAnimated:   emoji.IsAnimated,
		IsVideo:      emoji.IsVideo,
		Emoji:        emoji.Emoji,
	}
	return s.State, b.sendStickerFile(ctx, s, ev, item)
}

func (b *Bot) onToFileUnexpected(_ context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	b.send(ev.ChatID, textToFileUnexpected)
	return s.State, nil
}

// sendStickerFile sends the content of a sticker back as a document.
func (b *Bot) sendStickerFile(ctx context.Context, s *domain.UserSession, ev *Event, item *sticker.MediaItem) error {
	f, err := sticker.NewFile(item, nil)
	if err != nil {
		return err
	}
	defer f.Close()

	b.chatAction(ev.ChatID, tgbotapi.ChatUploadDocument)
	if err := f.Download(ctx, b.platform); err != nil {
		return err
	}

	data, err := f.Content()
	if err != nil {
		return err
	}

	ext := sticker.Extension(item)
	if f.Type == packdomain.PackTypeStatic && !s.Options.WebP {
		data, err = media.Process(bytes.NewReader(data), media.Options{Format: media.FormatPNG, MaxSize: 512})
		if err != nil {
			return err
		}
		ext = "png"
	}

	return b.sendDocument(ev, fileName(item, ext), data, f.EmojisString())
}

func (b *Bot) sendDocument(ev *Event, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(ev.ChatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	doc.ReplyToMessageID = ev.MessageID

	sent, err := b.platform.Send(doc)
	if err != nil {
		return err
	}

	switch {
	case sent.Document != nil:
		edit := tgbotapi.NewEditMessageCaption(ev.ChatID, sent.MessageID,
			caption+"\n"+fmt.Sprintf(textToFileMimeType, sent.Document.MimeType))
		if _, err := b.platform.Send(edit); err != nil {
			b.logger.Warn("failed to edit document caption", "chat_id", ev.ChatID, "error", err)
		}
	case sent.Sticker != nil:
		b.send(ev.ChatID, textToFileSentAsSticker)
	}
	return nil
}

func fileName(item *sticker.MediaItem, ext string) string {
	id := item.FileUniqueID
	if id == "" {
		id = item.FileID
	}
	return id + "." + ext
}

// enabledFlags lists the known flags that are set, in a stable order.
func enabledFlags(flags map[string]bool, known ...string) string {
	var enabled []string
	for _, flag := range known {
		if flags[flag] {
			enabled = append(enabled, flag)
		}
	}
	sort.Strings(enabled)
	return strings.Join(enabled, ", ")
}
