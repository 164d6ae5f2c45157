package bot

import (
	"context"

	"stickers_bot/internal/pkg/session/domain"
)

func (b *Bot) onCancel(_ context.Context, _ *domain.UserSession, ev *Event) (domain.State, error) {
	b.send(ev.ChatID, textCancel, withMarkup(hideKeyboard))
	return domain.StateIdle, nil
}

func (b *Bot) onNothingToCancel(_ context.Context, _ *domain.UserSession, ev *Event) (domain.State, error) {
	b.send(ev.ChatID, textCancelNothing, withMarkup(hideKeyboard))
	return domain.StateIdle, nil
}

func (b *Bot) onStart(_ context.Context, _ *domain.UserSession, ev *Event) (domain.State, error) {
	b.send(ev.ChatID, textStart)
	return domain.StateIdle, nil
}

func (b *Bot) onUnknownCommand(_ context.Context, _ *domain.UserSession, ev *Event) (domain.State, error) {
	b.send(ev.ChatID, textUnknownCommand)
	return domain.StateIdle, nil
}

// onInvalidMessage answers events the current state has no route for.
func (b *Bot) onInvalidMessage(_ context.Context, s *domain.UserSession, ev *Event) (domain.State, error) {
	b.send(ev.ChatID, textInvalidMessage)
	return s.State, nil
}
