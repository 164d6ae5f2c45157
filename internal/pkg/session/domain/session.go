package domain

import (
	"time"

	packdomain "stickers_bot/internal/pkg/pack/domain"
)

type State string

const (
	StateIdle State = ""

	StateCreateWaitingTitle        State = "create_waiting_title"
	StateCreateWaitingName         State = "create_waiting_name"
	StateCreateWaitingFirstSticker State = "create_waiting_first_sticker"
	StateAddWaitingTitle           State = "add_waiting_title"
	StateAddWaitingName            State = "add_waiting_name"
	StateWaitingSticker            State = "waiting_sticker"
	StateWaitingStickerOrPackName  State = "waiting_sticker_or_pack_name"
	StateToFileWaitingSticker      State = "tofile_waiting_sticker"
	StateToEmojiWaitingSticker     State = "toemoji_waiting_sticker"
)

// PlaceholderRefresh is how long an uploaded placeholder file is reused.
const PlaceholderRefresh = 14 * 24 * time.Hour

// PackDraft is the pack the user is working on.
type PackDraft struct {
	Title  string              `json:"title,omitempty"`
	Name   string              `json:"name,omitempty"`
	Type   packdomain.PackType `json:"type"`
	Emojis []string            `json:"emojis,omitempty"`
}

// Options are the flags of the conversion commands.
type Options struct {
	Crop              bool `json:"crop,omitempty"`
	IgnoreAspectRatio bool `json:"ignore_aspect_ratio,omitempty"`
	WebP              bool `json:"webp,omitempty"`
}

// PlaceholderFile is a sticker file uploaded once and reused by /readd.
type PlaceholderFile struct {
	FileID      string    `json:"file_id"`
	GeneratedOn time.Time `json:"generated_on"`
}

func (p *PlaceholderFile) Expired(now time.Time) bool {
	return p == nil || p.FileID == "" || now.After(p.GeneratedOn.Add(PlaceholderRefresh))
}

type UserSession struct {
	UserID       int64            `json:"user_id"`
	ChatID       int64            `json:"chat_id"`
	Conversation string           `json:"conversation,omitempty"`
	State        State            `json:"state,omitempty"`
	Pack         *PackDraft       `json:"pack,omitempty"`
	Options      Options          `json:"options"`
	Placeholder  *PlaceholderFile `json:"placeholder,omitempty"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func NewUserSession(userID, chatID int64) *UserSession {
	return &UserSession{UserID: userID, ChatID: chatID}
}

func (s *UserSession) Active() bool {
	return s.Conversation != "" && s.State != StateIdle
}

// Expired reports whether an active conversation saw no activity for timeout.
func (s *UserSession) Expired(now time.Time, timeout time.Duration) bool {
	return s.Active() && timeout > 0 && now.Sub(s.UpdatedAt) > timeout
}

// Reset ends the conversation. The placeholder file is user data and survives.
func (s *UserSession) Reset() {
	s.Conversation = ""
	s.State = StateIdle
	s.Pack = nil
	s.Options = Options{}
}

func (s *UserSession) Clone() *UserSession {
	if s == nil {
		return nil
	}
	c := *s
	if s.Pack != nil {
		pack := *s.Pack
		pack.Emojis = append([]string(nil), s.Pack.Emojis...)
		c.Pack = &pack
	}
	if s.Placeholder != nil {
		placeholder := *s.Placeholder
		c.Placeholder = &placeholder
	}
	return &c
}
