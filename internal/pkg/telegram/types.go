package telegram

import (
	"encoding/json"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sticker and StickerSet are decoded by hand, the library types predate
// video stickers.
type Sticker struct {
	FileID        string `json:"file_id"`
	FileUniqueID  string `json:"file_unique_id"`
	Emoji         string `json:"emoji"`
	SetName       string `json:"set_name"`
	IsAnimated    bool   `json:"is_animated"`
	IsVideo       bool   `json:"is_video"`
	CustomEmojiID string `json:"custom_emoji_id"`
}

type StickerSet struct {
	Name       string    `json:"name"`
	Title      string    `json:"title"`
	IsAnimated bool      `json:"is_animated"`
	IsVideo    bool      `json:"is_video"`
	Stickers   []Sticker `json:"stickers"`
}

// Last returns the most recently added sticker.
func (s *StickerSet) Last() *Sticker {
	if len(s.Stickers) == 0 {
		return nil
	}
	return &s.Stickers[len(s.Stickers)-1]
}

// StickerRequest is the payload of createNewStickerSet and addStickerToSet.
type StickerRequest struct {
	UserID int64
	Name   string
	Title  string
	Emojis string
	Field  string
	File   tgbotapi.RequestFileData
}

// Update extends the library update with the fields it does not decode.
type Update struct {
	tgbotapi.Update
	StickerIsVideo bool
	CustomEmojiIDs []string
}

func (u *Update) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &u.Update); err != nil {
		return err
	}

	var extra struct {
		Message *struct {
			Sticker *struct {
				IsVideo bool `json:"is_video"`
			} `json:"sticker"`
			Entities []struct {
				Type          string `json:"type"`
				CustomEmojiID string `json:"custom_emoji_id"`
			} `json:"entities"`
		} `json:"message"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	if extra.Message == nil {
		return nil
	}

	if extra.Message.Sticker != nil {
		u.StickerIsVideo = extra.Message.Sticker.IsVideo
	}
	for _, e := range extra.Message.Entities {
		if e.Type == "custom_emoji" && e.CustomEmojiID != "" {
			u.CustomEmojiIDs = append(u.CustomEmojiIDs, e.CustomEmojiID)
		}
	}
	return nil
}
