package sticker

import (
	"errors"
	"strings"

	"stickers_bot/internal/pkg/pack/domain"
)

type Origin int

const (
	OriginSticker Origin = iota + 1
	OriginDocument
)

const (
	DefaultEmoji = "🎭"

	MimeTypePNG  = "image/png"
	MimeTypeWebM = "video/webm"
)

var ErrUnrecognizedMediaKind = errors.New("unrecognized media kind")

// MediaItem is an inbound sticker or document, reduced to what the bot needs.
type MediaItem struct {
	Origin       Origin
	FileID       string
	FileUniqueID string

	// sticker only
	IsAnimated bool
	IsVideo    bool
	Emoji      string
	SetName    string

	// document only
	MimeType string
	FileName string
	Caption  string
}

func (m *MediaItem) IsSticker() bool {
	return m != nil && m.Origin == OriginSticker
}

// Classify detects the pack type an item belongs to.
func Classify(item *MediaItem) (domain.PackType, error) {
	if item == nil {
		return domain.PackTypeUnknown, ErrUnrecognizedMediaKind
	}

	switch item.Origin {
	case OriginSticker:
		switch {
		case item.IsAnimated:
			return domain.PackTypeAnimated, nil
		case item.IsVideo:
			return domain.PackTypeVideo, nil
		default:
			return domain.PackTypeStatic, nil
		}
	case OriginDocument:
		switch {
		case strings.HasPrefix(item.MimeType, MimeTypePNG):
			return domain.PackTypeStatic, nil
		case strings.HasPrefix(item.MimeType, MimeTypeWebM):
			return domain.PackTypeVideo, nil
		}
	}
	return domain.PackTypeUnknown, ErrUnrecognizedMediaKind
}

// IsSupported reports whether Classify would accept the item.
func IsSupported(item *MediaItem) bool {
	_, err := Classify(item)
	return err == nil
}

// ResolveEmojis picks the emojis to attach to a sticker: the ones the user sent
// before the file, then the sticker's own emoji, then the document caption,
// then the default one.
func ResolveEmojis(item *MediaItem, userEmojis []string) []string {
	if len(userEmojis) > 0 {
		return userEmojis
	}
	if item == nil {
		return []string{DefaultEmoji}
	}

	switch item.Origin {
	case OriginSticker:
		if item.Emoji != "" {
			return []string{item.Emoji}
		}
	case OriginDocument:
		if emojis := FindEmojis(item.Caption); len(emojis) > 0 {
			return emojis
		}
	}
	return []string{DefaultEmoji}
}

// InputField returns the request field and file extension used to submit a
// sticker of the given type.
func InputField(t domain.PackType) (field, ext string) {
	switch t {
	case domain.PackTypeAnimated:
		return "tgs_sticker", "tgs"
	case domain.PackTypeVideo:
		return "webm_sticker", "webm"
	default:
		return "png_sticker", "png"
	}
}

// Extension is the extension of the file as stored by the platform.
func Extension(item *MediaItem) string {
	switch {
	case item.IsAnimated:
		return "tgs"
	case item.IsVideo:
		return "webm"
	default:
		return "webp"
	}
}
