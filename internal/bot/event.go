package bot

import (
	"strings"

	"stickers_bot/internal/pkg/sticker"
	"stickers_bot/internal/pkg/telegram"
)

type EventKind int

const (
	EventMessage EventKind = iota + 1
	EventCallback
	// EventTimeout is produced by the sweeper for an inactive conversation.
	EventTimeout
)

type Callback struct {
	ID        string
	Data      string
	MessageID int
}

// Event is one inbound update reduced to what the handlers look at.
type Event struct {
	Kind     EventKind
	UpdateID int
	TraceID  string

	UserID    int64
	ChatID    int64
	MessageID int

	Text string
	// Command is lowercased and stripped of the leading slash and bot mention.
	Command string
	Args    string

	Media          *sticker.MediaItem
	CustomEmojiIDs []string
	Callback       *Callback
}

func eventFromUpdate(u telegram.Update) (*Event, bool) {
	switch {
	case u.Message != nil:
		msg := u.Message
		if msg.From == nil || msg.Chat == nil {
			return nil, false
		}

		ev := &Event{
			Kind:           EventMessage,
			UpdateID:       u.UpdateID,
			UserID:         msg.From.ID,
			ChatID:         msg.Chat.ID,
			MessageID:      msg.MessageID,
			Text:           msg.Text,
			CustomEmojiIDs: u.CustomEmojiIDs,
		}
		if msg.IsCommand() {
			ev.Command = strings.ToLower(msg.Command())
			ev.Args = strings.TrimSpace(msg.CommandArguments())
		}

		switch {
		case msg.Sticker != nil:
			ev.Media = &sticker.MediaItem{
				Origin:       sticker.OriginSticker,
				FileID:       msg.Sticker.FileID,
				FileUniqueID: msg.Sticker.FileUniqueID,
				IsAnimated:   msg.Sticker.IsAnimated,
				IsVideo:      u.StickerIsVideo,
				Emoji:        msg.Sticker.Emoji,
				SetName:      msg.Sticker.SetName,
			}
		case msg.Document != nil:
			ev.Media = &sticker.MediaItem{
				Origin:       sticker.OriginDocument,
				FileID:       msg.Document.FileID,
				FileUniqueID: msg.Document.FileUniqueID,
				MimeType:     msg.Document.MimeType,
				FileName:     msg.Document.FileName,
				Caption:      msg.Caption,
			}
		}
		return ev, true

	case u.CallbackQuery != nil:
		query := u.CallbackQuery
		if query.From == nil {
			return nil, false
		}

		ev := &Event{
			Kind:     EventCallback,
			UpdateID: u.UpdateID,
			UserID:   query.From.ID,
			ChatID:   query.From.ID,
			Callback: &Callback{ID: query.ID, Data: query.Data},
		}
		if query.Message != nil && query.Message.Chat != nil {
			ev.ChatID = query.Message.Chat.ID
			ev.MessageID = query.Message.MessageID
			ev.Callback.MessageID = query.Message.MessageID
		}
		return ev, true
	}
	return nil, false
}

// matcher selects the handler of a state.
type matcher func(ev *Event) bool

func anyMessage(ev *Event) bool {
	return ev.Kind == EventMessage
}

func isText(ev *Event) bool {
	return ev.Kind == EventMessage && ev.Media == nil && ev.Command == "" && strings.TrimSpace(ev.Text) != ""
}

func isSupportedMedia(ev *Event) bool {
	return ev.Kind == EventMessage && sticker.IsSupported(ev.Media)
}

func isSticker(ev *Event) bool {
	return ev.Kind == EventMessage && ev.Media.IsSticker()
}

func isStaticSticker(ev *Event) bool {
	return isSticker(ev) && !ev.Media.IsAnimated && !ev.Media.IsVideo
}

func hasCustomEmoji(ev *Event) bool {
	return ev.Kind == EventMessage && ev.Media == nil && len(ev.CustomEmojiIDs) > 0
}

func isCommand(names ...string) matcher {
	return func(ev *Event) bool {
		if ev.Kind != EventMessage || ev.Command == "" {
			return false
		}
		for _, name := range names {
			if ev.Command == name {
				return true
			}
		}
		return false
	}
}

var isCancelCommand = isCommand("cancel", "c", "done", "d")

// flags returns the dash-prefixed arguments of a command, lowercased.
func (ev *Event) flags() map[string]bool {
	set := make(map[string]bool)
	for _, arg := range strings.Fields(ev.Args) {
		if strings.HasPrefix(arg, "-") {
			set[strings.ToLower(arg)] = true
		}
	}
	return set
}
