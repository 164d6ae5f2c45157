package bot

import (
	"context"
	"fmt"
	"html"
	"strings"

	packdomain "stickers_bot/internal/pkg/pack/domain"
	"stickers_bot/internal/pkg/session/domain"
	"stickers_bot/internal/pkg/sticker/apierror"
)

func (b *Bot) onAddCommand(ctx context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	s.Reset()
	s.Pack = &domain.PackDraft{}

	if ev.Args != "" {
		name := b.withSuffix(trimPackLink(ev.Args))
		pack, err := b.packs.GetPack(ctx, ev.UserID, name)
		if err != nil {
			return s.State, err
		}
		if pack != nil {
			return b.selectPack(s, ev, pack), nil
		}
		b.send(ev.ChatID, fmt.Sprintf(textAddPackNotFound, html.EscapeString(name)))
	}

	return b.askPackTitle(ctx, ev, textAddSelectPack)
}

// askPackTitle shows the titles of the user's packs, or ends the
// conversation when there are none.
func (b *Bot) askPackTitle(ctx context.Context, ev *Event, text string) (domain.State, error) {
	titles, err := b.packs.ListTitles(ctx, ev.UserID)
	if err != nil {
		return domain.StateIdle, err
	}
	if len(titles) == 0 {
		b.send(ev.ChatID, textAddNoPacks, withMarkup(hideKeyboard))
		return domain.StateIdle, nil
	}

	b.send(ev.ChatID, text, withMarkup(fromList(titles, false)))
	return domain.StateAddWaitingTitle, nil
}

func (b *Bot) selectPack(s *domain.UserSession, ev *Event, pack *packdomain.Pack) domain.State {
	s.Pack = &domain.PackDraft{
		Title: pack.Title,
		Name:  pack.Name,
		Type:  pack.EffectiveType(),
	}

	b.send(ev.ChatID, fmt.Sprintf(textAddPackSelected, packLink(pack.Name), s.Pack.Type), withMarkup(hideKeyboard))
	return domain.StateWaitingSticker
}

func (b *Bot) onPackTitle(ctx context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	title := strings.TrimSpace(ev.Text)

	packs, err := b.packs.GetPacksByTitle(ctx, ev.UserID, title)
	if err != nil {
		return s.State, err
	}

	switch len(packs) {
	case 0:
		b.send(ev.ChatID, fmt.Sprintf(textAddTitleNotFound, html.EscapeString(title)))
		return s.State, nil
	case 1:
		return b.selectPack(s, ev, packs[0]), nil
	}

	names := make([]string, 0, len(packs))
	for _, p := range packs {
		names = append(names, b.withoutSuffix(p.Name))
	}

	if s.Pack == nil {
		s.Pack = &domain.PackDraft{}
	}
	s.Pack.Title = title

	b.send(ev.ChatID,
		fmt.Sprintf(textAddTitleMultiple, html.EscapeString(title), strings.Join(names, "\n• ")),
		withMarkup(fromList(names, true)),
	)
	return domain.StateAddWaitingName, nil
}

func (b *Bot) onPackName(ctx context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	text := strings.TrimSpace(ev.Text)
	if strings.EqualFold(text, goBackButton) {
		return b.askPackTitle(ctx, ev, textAddSelectPack)
	}

	pack, err := b.packs.GetPack(ctx, ev.UserID, b.withSuffix(text))
	if err != nil {
		return s.State, err
	}
	if pack == nil {
		b.send(ev.ChatID, textAddNameNotFound)
		return s.State, nil
	}

	return b.selectPack(s, ev, pack), nil
}

func (b *Bot) onSticker(ctx context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	if s.Pack == nil || s.Pack.Name == "" {
		b.send(ev.ChatID, textPackDataMissing, withMarkup(hideKeyboard))
		return domain.StateIdle, nil
	}

	f, req, ok, err := b.prepareSticker(ctx, s, ev)
	if err != nil || !ok {
		return s.State, err
	}
	defer f.Close()

	if err := b.platform.AddStickerToSet(ctx, req); err != nil {
		return b.onAddError(ctx, s, ev, err)
	}

	s.Pack.Emojis = nil
	b.send(ev.ChatID, fmt.Sprintf(textAddSuccess, packLink(s.Pack.Name), req.Emojis))
	return domain.StateWaitingSticker, nil
}

func (b *Bot) onAddError(ctx context.Context, s *domain.UserSession, ev *Event, err error) (domain.State, error) {
	classified := apierror.Classify(err)
	b.logger.Info("addStickerToSet failed", "user_id", ev.UserID, "name", s.Pack.Name, "kind", classified.Kind, "error", classified.Message)

	link := packLink(s.Pack.Name)
	switch classified.Kind {
	case apierror.KindPackFull:
		b.send(ev.ChatID, fmt.Sprintf(textAddPackFull, link, s.Pack.Type.MaxSize()), withMarkup(hideKeyboard))
		return domain.StateIdle, nil
	case apierror.KindPackInvalid:
		if _, err := b.packs.DeletePack(ctx, ev.UserID, s.Pack.Name); err != nil {
			return s.State, err
		}
		titles, err := b.packs.ListTitles(ctx, ev.UserID)
		if err != nil {
			return domain.StateIdle, err
		}
		if len(titles) == 0 {
			b.send(ev.ChatID, fmt.Sprintf(textAddPackInvalidEnded, link), withMarkup(hideKeyboard))
			return domain.StateIdle, nil
		}
		b.send(ev.ChatID, fmt.Sprintf(textAddPackInvalid, link), withMarkup(fromList(titles, false)))
		return domain.StateAddWaitingTitle, nil
	case apierror.KindFloodControlExceeded:
		b.send(ev.ChatID, fmt.Sprintf(textAddFlood, apierror.PrettyDuration(classified.RetryAfter)))
	case apierror.KindFileDimensionInvalid:
		b.send(ev.ChatID, textAddSizeError)
	case apierror.KindInvalidAnimatedMedia:
		b.send(ev.ChatID, textAddInvalidAnimated)
	case apierror.KindInvalidEmojis:
		b.send(ev.ChatID, textAddInvalidEmojis)
	case apierror.KindFileTooBig:
		b.send(ev.ChatID, textAddFileTooBig)
	default:
		b.send(ev.ChatID, fmt.Sprintf(textAddGenericError, link, html.EscapeString(classified.Message)), withMarkup(hideKeyboard))
		return domain.StateIdle, nil
	}
	return s.State, nil
}

func (b *Bot) onWaitingTitleInvalid(_ context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	b.send(ev.ChatID, textWaitingTitleText)
	return s.State, nil
}

func (b *Bot) onWaitingNameInvalid(_ context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	b.send(ev.ChatID, textWaitingNameText)
	return s.State, nil
}

func (b *Bot) onWaitingStickerInvalid(_ context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	b.send(ev.ChatID, textAddInvalidMessage)
	return s.State, nil
}
