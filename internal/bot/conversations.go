package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"stickers_bot/internal/pkg/session/domain"
)

// handlerFunc handles one event and returns the state the conversation moves
// to. StateIdle ends the conversation.
type handlerFunc func(ctx context.Context, s *domain.UserSession, ev *Event) (domain.State, error)

type route struct {
	match  matcher
	handle handlerFunc
}

// conversation is a flow family: the commands that start it and, for every
// state, the routes tried in order until one matches.
type conversation struct {
	name    string
	entries map[string]handlerFunc
	states  map[domain.State][]route
}

const (
	conversationCreateOrAdd = "create_or_add"
	conversationReadd       = "readd"
	conversationToFile      = "tofile"
	conversationToEmoji     = "toemoji"
)

func (b *Bot) buildConversations() map[string]*conversation {
	conversations := []*conversation{
		{
			name: conversationCreateOrAdd,
			entries: map[string]handlerFunc{
				"create": b.onCreateCommand,
				"new":    b.onCreateCommand,
				"add":    b.onAddCommand,
				"a":      b.onAddCommand,
			},
			states: map[domain.State][]route{
				domain.StateCreateWaitingTitle: {
					{isText, b.onCreateTitle},
					{anyMessage, b.onWaitingTitleInvalid},
				},
				domain.StateCreateWaitingName: {
					{isText, b.onCreateName},
					{anyMessage, b.onWaitingNameInvalid},
				},
				domain.StateCreateWaitingFirstSticker: {
					{isText, b.onStickerEmojis},
					{isSupportedMedia, b.onFirstSticker},
					{anyMessage, b.onWaitingStickerInvalid},
				},
				domain.StateAddWaitingTitle: {
					{isText, b.onPackTitle},
					{anyMessage, b.onWaitingTitleInvalid},
				},
				domain.StateAddWaitingName: {
					{isText, b.onPackName},
					{anyMessage, b.onWaitingNameInvalid},
				},
				domain.StateWaitingSticker: {
					{isText, b.onStickerEmojis},
					{isSupportedMedia, b.onSticker},
					{anyMessage, b.onWaitingStickerInvalid},
				},
			},
		},
		{
			name: conversationReadd,
			entries: map[string]handlerFunc{
				"readd": b.onReaddCommand,
				"rea":   b.onReaddCommand,
				"ra":    b.onReaddCommand,
			},
			states: map[domain.State][]route{
				domain.StateWaitingStickerOrPackName: {
					{isStaticSticker, b.onReaddSticker},
					{isSticker, b.onReaddNonStatic},
					{isText, b.onReaddName},
					{anyMessage, b.onReaddUnexpected},
				},
			},
		},
		{
			name: conversationToFile,
			entries: map[string]handlerFunc{
				"tofile": b.onToFileCommand,
				"tf":     b.onToFileCommand,
			},
			states: map[domain.State][]route{
				domain.StateToFileWaitingSticker: {
					{isCommand("tofile", "tf"), b.onToFileCommand},
					{isSticker, b.onToFileSticker},
					{hasCustomEmoji, b.onToFileCustomEmoji},
					{anyMessage, b.onToFileUnexpected},
				},
			},
		},
		{
			name: conversationToEmoji,
			entries: map[string]handlerFunc{
				"toemoji":       b.onToEmojiCommand,
				"tocustomemoji": b.onToEmojiCommand,
				"te":            b.onToEmojiCommand,
			},
			states: map[domain.State][]route{
				domain.StateToEmojiWaitingSticker: {
					{isCommand("toemoji", "tocustomemoji", "te"), b.onToEmojiCommand},
					{isStaticSticker, b.onToEmojiSticker},
					{anyMessage, b.onToEmojiUnexpected},
				},
			},
		},
	}

	byName := make(map[string]*conversation, len(conversations))
	for _, c := range conversations {
		byName[c.name] = c
	}
	return byName
}

// route picks the handler for ev and the conversation it belongs to.
func (b *Bot) route(s *domain.UserSession, ev *Event) (handlerFunc, string) {
	if ev.Kind == EventCallback {
		if strings.HasPrefix(ev.Callback.Data, packTypeCallbackPrefix) {
			return b.onPackTypeCallback, s.Conversation
		}
		return nil, ""
	}

	if s.Active() {
		if isCancelCommand(ev) {
			return b.onCancel, s.Conversation
		}

		c, ok := b.conversations[s.Conversation]
		if !ok {
			// a session left behind by an older version of the bot
			return b.onCancel, s.Conversation
		}
		for _, r := range c.states[s.State] {
			if r.match(ev) {
				return r.handle, c.name
			}
		}
		return b.onInvalidMessage, c.name
	}

	if ev.Command == "" {
		return nil, ""
	}
	for _, c := range b.conversations {
		if h, ok := c.entries[ev.Command]; ok {
			return h, c.name
		}
	}

	switch {
	case isCancelCommand(ev):
		return b.onNothingToCancel, ""
	case ev.Command == "start" || ev.Command == "help":
		return b.onStart, ""
	default:
		return b.onUnknownCommand, ""
	}
}

// HandleEvent runs ev through the conversation of its user. Events of the
// same user must not be handled concurrently.
func (b *Bot) HandleEvent(ctx context.Context, ev *Event) {
	logger := b.logger.With("user_id", ev.UserID, "update_id", ev.UpdateID, "trace_id", ev.TraceID)

	s, err := b.sessions.GetSession(ctx, ev.UserID)
	if err != nil {
		logger.Error("failed to load session", "error", err)
		if ev.Kind != EventTimeout {
			b.send(ev.ChatID, textGenericError)
		}
		return
	}
	if s == nil {
		s = domain.NewUserSession(ev.UserID, ev.ChatID)
	}
	if ev.ChatID != 0 {
		s.ChatID = ev.ChatID
	}

	if s.Expired(b.now(), b.settings.ConversationTimeout) {
		b.expire(ctx, s)
	}
	if ev.Kind == EventTimeout {
		return
	}

	handle, conversationName := b.route(s, ev)
	if handle == nil {
		logger.Debug("no handler for event", "state", s.State)
		return
	}

	from := s.State
	next, err := b.invoke(ctx, handle, s, ev)
	if err != nil {
		logger.Error("handler failed", "conversation", s.Conversation, "state", s.State, "error", err)
		b.send(ev.ChatID, textGenericError)
		return
	}

	if next == domain.StateIdle {
		s.Reset()
	} else {
		s.Conversation = conversationName
		s.State = next
	}
	s.UpdatedAt = b.now()

	if err := b.sessions.SaveSession(ctx, s); err != nil {
		logger.Error("failed to save session", "error", err)
		return
	}
	if from != next {
		logger.Debug("conversation transition", "conversation", conversationName, "from", from, "to", next)
	}
}

func (b *Bot) invoke(ctx context.Context, handle handlerFunc, s *domain.UserSession, ev *Event) (next domain.State, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return handle(ctx, s, ev)
}

// expire ends a conversation nobody touched for too long.
func (b *Bot) expire(ctx context.Context, s *domain.UserSession) {
	b.logger.Debug("conversation timed out", "user_id", s.UserID, "conversation", s.Conversation, "state", s.State)

	s.Reset()
	s.UpdatedAt = b.now()
	if err := b.sessions.SaveSession(ctx, s); err != nil {
		b.logger.Error("failed to save expired session", "user_id", s.UserID, "error", err)
		return
	}
	b.send(s.ChatID, textTimeout, withMarkup(hideKeyboard), silently())
}
