// Package apierror turns the failures reported by the sticker set API into a
// closed set of kinds the conversation handlers can branch on.
package apierror

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindFloodControlExceeded
	KindNameAlreadyOccupied
	KindNameInvalid
	KindPackInvalid
	KindPackFull
	KindFileDimensionInvalid
	KindInvalidAnimatedMedia
	KindInvalidEmojis
	KindFileTooBig
	KindStickerInvalid
)

var kindNames = map[Kind]string{
	KindUnknown:              "unknown",
	KindFloodControlExceeded: "flood_control_exceeded",
	KindNameAlreadyOccupied:  "name_already_occupied",
	KindNameInvalid:          "name_invalid",
	KindPackInvalid:          "pack_invalid",
	KindPackFull:             "pack_full",
	KindFileDimensionInvalid: "file_dimension_invalid",
	KindInvalidAnimatedMedia: "invalid_animated_media",
	KindInvalidEmojis:        "invalid_emojis",
	KindFileTooBig:           "file_too_big",
	KindStickerInvalid:       "sticker_invalid",
}

func (k Kind) String() string {
	return kindNames[k]
}

type rule struct {
	pattern *regexp.Regexp
	kind    Kind
}

// rules are evaluated in order, the first match wins
var rules = []rule{
	{regexp.MustCompile(`(?i)retry in \d+|too many requests|flood`), KindFloodControlExceeded},
	{regexp.MustCompile(`(?i)sticker set name is already occupied|shortname_occupy_failed`), KindNameAlreadyOccupied},
	{regexp.MustCompile(`(?i)sticker set name invalid|shortname_invalid`), KindNameInvalid},
	{regexp.MustCompile(`(?i)stickerset_invalid|sticker set not found`), KindPackInvalid},
	{regexp.MustCompile(`(?i)stickers_too_much|stickerpack_stickers_too_much|too much stickers`), KindPackFull},
	{regexp.MustCompile(`(?i)sticker_png_dimensions|sticker_dimensions`), KindFileDimensionInvalid},
	{regexp.MustCompile(`(?i)sticker_tgs_notgs|invalid animated sticker|sticker_video_nowebm|wrong file type`), KindInvalidAnimatedMedia},
	{regexp.MustCompile(`(?i)invalid sticker emojis|sticker_emoji_invalid`), KindInvalidEmojis},
	{regexp.MustCompile(`(?i)file is too big|sticker_file_invalid`), KindFileTooBig},
	{regexp.MustCompile(`(?i)sticker_invalid`), KindStickerInvalid},
}

var (
	retryInPattern    = regexp.MustCompile(`(?i)retry in (\d+)(?:\.\d*)? seconds`)
	retryAfterPattern = regexp.MustCompile(`(?i)retry after (\d+)`)
)

// Error is a classified platform failure.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration
	err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Classify maps err to a Kind using the rule table. It returns nil for a nil
// error and KindUnknown, carrying the raw message, when no rule matches.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	cause := errors.Cause(err)
	result := &Error{Kind: KindUnknown, Message: cause.Error(), err: err}

	var apiErr *tgbotapi.Error
	if errors.As(cause, &apiErr) {
		result.Message = apiErr.Message
	}

	for _, r := range rules {
		if r.pattern.MatchString(result.Message) {
			result.Kind = r.kind
			break
		}
	}

	if result.Kind == KindFloodControlExceeded {
		result.RetryAfter = parseRetryAfter(result.Message)
		if result.RetryAfter == 0 && apiErr != nil && apiErr.RetryAfter > 0 {
			result.RetryAfter = time.Duration(apiErr.RetryAfter) * time.Second
		}
	}
	return result
}

// KindOf is a shortcut for Classify(err).Kind.
func KindOf(err error) Kind {
	if c := Classify(err); c != nil {
		return c.Kind
	}
	return KindUnknown
}

func parseRetryAfter(message string) time.Duration {
	for _, p := range []*regexp.Regexp{retryInPattern, retryAfterPattern} {
		m := p.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		seconds, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return time.Duration(seconds) * time.Second
	}
	return 0
}

// PrettyDuration formats d as H:MM:SS, e.g. 0:00:08.
func PrettyDuration(d time.Duration) string {
	total := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, total%3600/60, total%60)
}
