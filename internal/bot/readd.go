package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"image"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stickers_bot/internal/pkg/media"
	packdomain "stickers_bot/internal/pkg/pack/domain"
	"stickers_bot/internal/pkg/pack/repository"
	"stickers_bot/internal/pkg/session/domain"
	"stickers_bot/internal/pkg/sticker/apierror"
	"stickers_bot/internal/pkg/telegram"
)

// placeholderEmoji marks the sticker added to prove ownership of a pack.
// Nobody is expected to use it on a real sticker.
const placeholderEmoji = "🧱"

const placeholderSide = 512

func (b *Bot) onReaddCommand(ctx context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	s.Reset()
	if ev.Args != "" {
		return b.processPack(ctx, s, ev, ev.Args)
	}

	b.send(ev.ChatID, textReaddWaiting, withMarkup(hideKeyboard))
	return domain.StateWaitingStickerOrPackName, nil
}

func (b *Bot) onReaddSticker(ctx context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	if ev.Media.SetName == "" {
		b.send(ev.ChatID, textReaddNoPack)
		return domain.StateWaitingStickerOrPackName, nil
	}
	return b.processPack(ctx, s, ev, ev.Media.SetName)
}

func (b *Bot) onReaddNonStatic(_ context.Context, _ *domain.UserSession, ev *Event) (domain.State, error) {
	b.send(ev.ChatID, textReaddAnimated)
	return domain.StateWaitingStickerOrPackName, nil
}

func (b *Bot) onReaddName(ctx context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	return b.processPack(ctx, s, ev, ev.Text)
}

func (b *Bot) onReaddUnexpected(_ context.Context, _ *domain.UserSession, ev *Event) (domain.State, error) {
	b.send(ev.ChatID, textReaddUnexpected)
	return domain.StateWaitingStickerOrPackName, nil
}

// processPack registers a pack created by this bot through another instance.
// Ownership is proven by adding a placeholder sticker to the set, which only
// the owner can do, and removing it right after.
func (b *Bot) processPack(ctx context.Context, s *domain.UserSession, ev *Event, raw string) (domain.State, error) {
	const waiting = domain.StateWaitingStickerOrPackName

	name := strings.ToLower(trimPackLink(raw))
	link := packLink(name)

	if !fullPackNamePattern.MatchString(name) {
		b.send(ev.ChatID, textReaddPattern)
		return waiting, nil
	}
	if !strings.HasSuffix(name, strings.ToLower(b.suffix)) {
		b.send(ev.ChatID, fmt.Sprintf(textReaddWrongSuffix, b.suffix, html.EscapeString(name)))
		return waiting, nil
	}

	exists, err := b.packs.NameExists(ctx, ev.UserID, name)
	if err != nil {
		return waiting, err
	}
	if exists {
		b.send(ev.ChatID, fmt.Sprintf(textReaddExists, link))
		return waiting, nil
	}

	fileID, err := b.placeholder(ctx, s)
	if err != nil {
		return waiting, err
	}

	err = b.platform.AddStickerToSet(ctx, telegram.StickerRequest{
		UserID: ev.UserID,
		Name:   name,
		Emojis: placeholderEmoji,
		Field:  "png_sticker",
		File:   tgbotapi.FileID(fileID),
	})
	if err != nil {
		if apierror.KindOf(err) == apierror.KindPackInvalid {
			b.send(ev.ChatID, fmt.Sprintf(textReaddPackInvalid, link))
			return waiting, nil
		}
		classified := apierror.Classify(err)
		b.logger.Error("failed to add placeholder sticker", "user_id", ev.UserID, "name", name, "error", classified.Message)
		b.send(ev.ChatID, fmt.Sprintf(textReaddAPIError, link, html.EscapeString(classified.Message)))
		return waiting, nil
	}

	set, err := b.platform.GetStickerSet(ctx, name)
	if err != nil {
		return waiting, err
	}

	pack := &packdomain.Pack{UserID: ev.UserID, Title: strings.TrimSpace(set.Title), Name: set.Name}
	pack.SetType(stickerSetType(set))
	if err := b.packs.SavePack(ctx, pack); err != nil && !errors.Is(err, repository.ErrDuplicatePack) {
		return waiting, err
	}
	b.send(ev.ChatID, fmt.Sprintf(textReaddSaved, packLink(set.Name)), withMarkup(hideKeyboard))

	// the set might not reflect the append yet, only remove what is surely ours
	last := set.Last()
	if last == nil || last.Emoji != placeholderEmoji {
		b.logger.Warn("placeholder is not the last sticker of the set", "name", name)
		b.send(ev.ChatID, textReaddNotRemoved)
		return domain.StateIdle, nil
	}

	if err := b.platform.DeleteStickerFromSet(ctx, last.FileID); err != nil {
		classified := apierror.Classify(err)
		b.logger.Warn("failed to remove placeholder sticker", "name", name, "kind", classified.Kind, "error", classified.Message)
		if classified.Kind == apierror.KindStickerInvalid {
			b.send(ev.ChatID, textReaddNotRemoved)
		} else {
			b.send(ev.ChatID, fmt.Sprintf(textReaddNotRemovedError, html.EscapeString(classified.Message)))
		}
	}
	return domain.StateIdle, nil
}

func stickerSetType(set *telegram.StickerSet) packdomain.PackType {
	switch {
	case set.IsVideo:
		return packdomain.PackTypeVideo
	case set.IsAnimated:
		return packdomain.PackTypeAnimated
	default:
		return packdomain.PackTypeStatic
	}
}

// placeholder returns the file id of the placeholder sticker, uploading it
// again when the cached one is missing or old.
func (b *Bot) placeholder(ctx context.Context, s *domain.UserSession) (string, error) {
	now := b.now()
	if !s.Placeholder.Expired(now) {
		return s.Placeholder.FileID, nil
	}

	b.logger.Debug("refreshing placeholder file", "user_id", s.UserID)
	data, err := b.placeholderPNG()
	if err != nil {
		return "", err
	}

	fileID, err := b.platform.UploadStickerFile(ctx, s.UserID, "placeholder.png", data)
	if err != nil {
		return "", err
	}

	s.Placeholder = &domain.PlaceholderFile{FileID: fileID, GeneratedOn: now}
	return fileID, nil
}

// placeholderPNG reads the configured placeholder image, or draws a
// transparent square when there is none.
func (b *Bot) placeholderPNG() ([]byte, error) {
	opts := media.Options{Format: media.FormatPNG, MaxSize: placeholderSide}

	if path := b.settings.PlaceholderPath; path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			return media.Process(bytes.NewReader(data), opts)
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read placeholder: %w", err)
		}
	}

	var buf bytes.Buffer
	blank := imaging.New(placeholderSide, placeholderSide, image.Transparent)
	if err := media.Encode(&buf, blank, media.FormatPNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
