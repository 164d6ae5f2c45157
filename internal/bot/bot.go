package bot

import (
	"context"
	"io"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stickers_bot/internal/pkg/pack/repository"
	"stickers_bot/internal/pkg/session/usecase"
	"stickers_bot/internal/pkg/telegram"
)

// Platform is the subset of the Bot API the handlers use.
type Platform interface {
	Username() string
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	DownloadFile(ctx context.Context, fileID string, w io.Writer) error
	CreateNewStickerSet(ctx context.Context, req telegram.StickerRequest) error
	AddStickerToSet(ctx context.Context, req telegram.StickerRequest) error
	UploadStickerFile(ctx context.Context, userID int64, fileName string, data []byte) (string, error)
	GetStickerSet(ctx context.Context, name string) (*telegram.StickerSet, error)
	DeleteStickerFromSet(ctx context.Context, fileID string) error
	GetCustomEmojiStickers(ctx context.Context, ids []string) ([]telegram.Sticker, error)
}

type Poller interface {
	GetUpdates(ctx context.Context, offset, timeout int) ([]telegram.Update, error)
}

type Settings struct {
	ConversationTimeout time.Duration
	Workers             int
	// PollTimeout is the long polling timeout in seconds.
	PollTimeout         int
	SweepInterval       time.Duration
	PlaceholderPath     string
}

func (s Settings) withDefaults() Settings {
	if s.ConversationTimeout <= 0 {
		s.ConversationTimeout = 15 * time.Minute
	}
	if s.Workers <= 0 {
		s.Workers = 1
	}
	if s.PollTimeout <= 0 {
		s.PollTimeout = 60
	}
	if s.SweepInterval <= 0 {
		s.SweepInterval = time.Minute
	}
	return s
}

type Bot struct {
	platform Platform
	packs    repository.PackRepository
	sessions usecase.Storage
	settings Settings
	logger   *slog.Logger

	username string
	// suffix every pack name created by this bot ends with
	suffix string

	conversations map[string]*conversation
	now           func() time.Time
}

func New(platform Platform, packs repository.PackRepository, sessions usecase.Storage, settings Settings) *Bot {
	username := platform.Username()
	b := &Bot{
		platform: platform,
		packs:    packs,
		sessions: sessions,
		settings: settings.withDefaults(),
		logger:   slog.Default().With("component", "bot"),
		username: username,
		suffix:   "_by_" + username,
		now:      time.Now,
	}
	b.conversations = b.buildConversations()
	return b
}

type messageOption func(*tgbotapi.MessageConfig)

func withMarkup(markup interface{}) messageOption {
	return func(msg *tgbotapi.MessageConfig) {
		msg.ReplyMarkup = markup
	}
}

func silently() messageOption {
	return func(msg *tgbotapi.MessageConfig) {
		msg.DisableNotification = true
	}
}

// send delivers an HTML message. Delivery failures are logged, a reply that
// can't be sent must not roll back the work already done.
func (b *Bot) send(chatID int64, text string, opts ...messageOption) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	for _, opt := range opts {
		opt(&msg)
	}

	if _, err := b.platform.Send(msg); err != nil {
		b.logger.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) chatAction(chatID int64, action string) {
	if _, err := b.platform.Request(tgbotapi.NewChatAction(chatID, action)); err != nil {
		b.logger.Debug("failed to send chat action", "chat_id", chatID, "error", err)
	}
}
