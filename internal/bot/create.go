package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	packdomain "stickers_bot/internal/pkg/pack/domain"
	"stickers_bot/internal/pkg/pack/repository"
	"stickers_bot/internal/pkg/session/domain"
	"stickers_bot/internal/pkg/sticker"
	"stickers_bot/internal/pkg/sticker/apierror"
	"stickers_bot/internal/pkg/telegram"
)

func (b *Bot) onCreateCommand(_ context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	s.Reset()
	s.Pack = &domain.PackDraft{Type: packdomain.PackTypeStatic}

	b.send(ev.ChatID, textCreateWaitingTitle, withMarkup(packTypeKeyboard(s.Pack.Type)))
	return domain.StateCreateWaitingTitle, nil
}

func (b *Bot) onCreateTitle(_ context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	if s.Pack == nil {
		b.send(ev.ChatID, textPackDataMissing, withMarkup(hideKeyboard))
		return domain.StateIdle, nil
	}

	title := strings.TrimSpace(ev.Text)
	switch err := validateTitle(title); {
	case errors.Is(err, errTitleTooLong):
		b.send(ev.ChatID, textTitleTooLong)
		return s.State, nil
	case errors.Is(err, errTitleNewline):
		b.send(ev.ChatID, textTitleNewline)
		return s.State, nil
	}

	s.Pack.Title = title
	b.send(ev.ChatID, fmt.Sprintf(textCreateWaitingName, html.EscapeString(title), b.maxNameLength()))
	return domain.StateCreateWaitingName, nil
}

func (b *Bot) onCreateName(ctx context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	if s.Pack == nil {
		b.send(ev.ChatID, textPackDataMissing, withMarkup(hideKeyboard))
		return domain.StateIdle, nil
	}

	name := strings.TrimSpace(ev.Text)
	switch err := validateName(name, b.maxNameLength()); {
	case errors.Is(err, errNameTooLong):
		b.send(ev.ChatID, fmt.Sprintf(textNameTooLong, len(name), b.maxNameLength()))
		return s.State, nil
	case errors.Is(err, errNameInvalid):
		b.send(ev.ChatID, textNameInvalid)
		return s.State, nil
	}

	fullName := name + b.suffix
	exists, err := b.packs.NameExists(ctx, ev.UserID, fullName)
	if err != nil {
		return s.State, err
	}
	if exists {
		b.send(ev.ChatID, textNameDuplicate)
		return s.State, nil
	}

	s.Pack.Name = fullName
	b.send(ev.ChatID, fmt.Sprintf(textCreateWaitingFirstSticker, s.Pack.Type))
	return domain.StateCreateWaitingFirstSticker, nil
}

// onStickerEmojis stores the emojis to use for the next sticker.
func (b *Bot) onStickerEmojis(_ context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	if s.Pack == nil {
		b.send(ev.ChatID, textPackDataMissing, withMarkup(hideKeyboard))
		return domain.StateIdle, nil
	}

	emojis := sticker.FindEmojis(ev.Text)
	switch {
	case len(emojis) == 0:
		b.send(ev.ChatID, textAddNoEmoji)
		return s.State, nil
	case len(emojis) > sticker.MaxEmojis:
		b.send(ev.ChatID, textAddTooManyEmojis)
		return s.State, nil
	}

	s.Pack.Emojis = emojis
	b.send(ev.ChatID, fmt.Sprintf(textAddEmojisSaved, len(emojis), strings.Join(emojis, "")))
	return s.State, nil
}

func (b *Bot) onFirstSticker(ctx context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	if s.Pack == nil || s.Pack.Name == "" {
		b.send(ev.ChatID, textPackDataMissing, withMarkup(hideKeyboard))
		return domain.StateIdle, nil
	}

	f, req, ok, err := b.prepareSticker(ctx, s, ev)
	if err != nil || !ok {
		return s.State, err
	}
	defer f.Close()

	req.Title = s.Pack.Title
	if err := b.platform.CreateNewStickerSet(ctx, req); err != nil {
		return b.onCreateError(s, ev, err), nil
	}

	pack := &packdomain.Pack{UserID: ev.UserID, Title: s.Pack.Title, Name: s.Pack.Name}
	pack.SetType(f.Type)
	if err := b.packs.SavePack(ctx, pack); err != nil {
		if !errors.Is(err, repository.ErrDuplicatePack) {
			return s.State, err
		}
		// the set exists on the platform either way, keep going with it
		b.logger.Warn("pack already registered", "user_id", ev.UserID, "name", pack.Name)
	}

	s.Pack.Emojis = nil
	b.send(ev.ChatID, fmt.Sprintf(textCreateSuccess, packLink(s.Pack.Name)))
	return domain.StateWaitingSticker, nil
}

func (b *Bot) onCreateError(s *domain.UserSession, ev *Event, err error) domain.State {
	classified := apierror.Classify(err)
	b.logger.Info("createNewStickerSet failed", "user_id", ev.UserID, "name", s.Pack.Name, "kind", classified.Kind, "error", classified.Message)

	switch classified.Kind {
	case apierror.KindNameAlreadyOccupied:
		b.send(ev.ChatID, fmt.Sprintf(textCreateNameOccupied, packLink(s.Pack.Name)))
		return domain.StateCreateWaitingName
	case apierror.KindPackInvalid, apierror.KindNameInvalid:
		b.send(ev.ChatID, textCreateNameRejected)
		return domain.StateCreateWaitingName
	case apierror.KindInvalidAnimatedMedia:
		b.send(ev.ChatID, textAddInvalidAnimated)
		return s.State
	case apierror.KindFileDimensionInvalid:
		b.send(ev.ChatID, textAddSizeError)
		return s.State
	case apierror.KindInvalidEmojis:
		b.send(ev.ChatID, textAddInvalidEmojis)
		return s.State
	case apierror.KindFloodControlExceeded:
		b.send(ev.ChatID, fmt.Sprintf(textAddFlood, apierror.PrettyDuration(classified.RetryAfter)), withMarkup(hideKeyboard))
		return domain.StateIdle
	default:
		b.send(ev.ChatID, fmt.Sprintf(textCreateGenericError, html.EscapeString(classified.Message)), withMarkup(hideKeyboard))
		return domain.StateIdle
	}
}

// prepareSticker classifies, type checks and downloads the media of ev. When
// ok is false the user was already told what is wrong. The returned file must
// be closed by the caller when ok is true.
func (b *Bot) prepareSticker(ctx context.Context, s *domain.UserSession, ev *Event) (*sticker.File, telegram.StickerRequest, bool, error) {
	f, err := sticker.NewFile(ev.Media, s.Pack.Emojis)
	if err != nil {
		b.send(ev.ChatID, textAddInvalidMessage)
		return nil, telegram.StickerRequest{}, false, nil
	}

	if f.Type != s.Pack.Type {
		b.send(ev.ChatID, fmt.Sprintf(textAddWrongType, s.Pack.Type, f.Type))
		return nil, telegram.StickerRequest{}, false, nil
	}

	b.chatAction(ev.ChatID, tgbotapi.ChatUploadDocument)
	if err := f.Download(ctx, b.platform); err != nil {
		f.Close()
		return nil, telegram.StickerRequest{}, false, err
	}

	field, fileName, data, err := f.UploadPayload()
	if err != nil {
		f.Close()
		return nil, telegram.StickerRequest{}, false, err
	}

	return f, telegram.StickerRequest{
		UserID: ev.UserID,
		Name:   s.Pack.Name,
		Emojis: f.EmojisString(),
		Field:  field,
		File:   tgbotapi.FileBytes{Name: fileName, Bytes: data},
	}, true, nil
}

func (b *Bot) onPackTypeCallback(_ context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	cb := ev.Callback

	t, err := strconv.Atoi(strings.TrimPrefix(cb.Data, packTypeCallbackPrefix))
	packType := packdomain.PackType(t)
	if err != nil || !packType.Valid() || !canChangePackType(s) {
		b.answerCallback(cb.ID, textPackTypeExpired)
		b.editInlineKeyboard(ev.ChatID, cb.MessageID, emptyInlineKeyboard())
		return s.State, nil
	}

	if s.Pack.Type != packType {
		s.Pack.Type = packType
		b.editInlineKeyboard(ev.ChatID, cb.MessageID, packTypeKeyboard(packType))
	}
	b.answerCallback(cb.ID, fmt.Sprintf(textPackTypeChanged, packType))
	return s.State, nil
}

// the pack type can change until the pack is created
func canChangePackType(s *domain.UserSession) bool {
	if s.Pack == nil || s.Conversation != conversationCreateOrAdd {
		return false
	}
	switch s.State {
	case domain.StateCreateWaitingTitle, domain.StateCreateWaitingName, domain.StateCreateWaitingFirstSticker:
		return true
	}
	return false
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.platform.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.logger.Warn("failed to answer callback", "error", err)
	}
}

func (b *Bot) editInlineKeyboard(chatID int64, messageID int, markup tgbotapi.InlineKeyboardMarkup) {
	if messageID == 0 {
		return
	}
	if _, err := b.platform.Request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, markup)); err != nil {
		b.logger.Warn("failed to edit inline keyboard", "chat_id", chatID, "error", err)
	}
}
