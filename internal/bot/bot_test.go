package bot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	packdomain "stickers_bot/internal/pkg/pack/domain"
	"stickers_bot/internal/pkg/pack/repository"
	"stickers_bot/internal/pkg/session/domain"
	"stickers_bot/internal/pkg/session/usecase"
	"stickers_bot/internal/pkg/sticker"
	"stickers_bot/internal/pkg/telegram"
)

const (
	testUserID  = int64(42)
	testBotName = "testbot"
)

type fakePlatform struct {
	mu sync.Mutex

	username string
	messages []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	files    map[string][]byte

	createErr error
	created   []telegram.StickerRequest
	addErr    error
	added     []telegram.StickerRequest
	// when set, added stickers don't show up in the sets
	skipAppend bool

	uploads   int
	sets      map[string]*telegram.StickerSet
	deleted   []string
	deleteErr error

	customEmoji  []telegram.Sticker
	documentMime string
	nextID       int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		username:     testBotName,
		files:        make(map[string][]byte),
		sets:         make(map[string]*telegram.StickerSet),
		documentMime: "image/png",
	}
}

func (f *fakePlatform) Username() string {
	return f.username
}

func (f *fakePlatform) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = append(f.messages, c)
	f.nextID++
	msg := tgbotapi.Message{MessageID: f.nextID}
	if _, ok := c.(tgbotapi.DocumentConfig); ok {
		msg.Document = &tgbotapi.Document{MimeType: f.documentMime}
	}
	return msg, nil
}

func (f *fakePlatform) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakePlatform) DownloadFile(_ context.Context, fileID string, w io.Writer) error {
	f.mu.Lock()
	data, ok := f.files[fileID]
	f.mu.Unlock()

	if !ok {
		return fmt.Errorf("file %s not found", fileID)
	}
	_, err := w.Write(data)
	return err
}

func (f *fakePlatform) CreateNewStickerSet(_ context.Context, req telegram.StickerRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.created = append(f.created, req)
	return f.createErr
}

func (f *fakePlatform) AddStickerToSet(_ context.Context, req telegram.StickerRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.added = append(f.added, req)
	if f.addErr != nil {
		return f.addErr
	}
	if set, ok := f.sets[req.Name]; ok && !f.skipAppend {
		set.Stickers = append(set.Stickers, telegram.Sticker{
			FileID:  fmt.Sprintf("added-%d", len(f.added)),
			Emoji:   req.Emojis,
			SetName: req.Name,
		})
	}
	return nil
}

func (f *fakePlatform) UploadStickerFile(_ context.Context, _ int64, _ string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		return "", err
	}
	f.uploads++
	return fmt.Sprintf("placeholder-%d", f.uploads), nil
}

func (f *fakePlatform) GetStickerSet(_ context.Context, name string) (*telegram.StickerSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	set, ok := f.sets[name]
	if !ok {
		return nil, &tgbotapi.Error{Code: 400, Message: "Bad Request: STICKERSET_INVALID"}
	}
	c := *set
	c.Stickers = append([]telegram.Sticker(nil), set.Stickers...)
	return &c, nil
}

func (f *fakePlatform) DeleteStickerFromSet(_ context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, fileID)
	return nil
}

func (f *fakePlatform) GetCustomEmojiStickers(_ context.Context, ids []string) ([]telegram.Sticker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var found []telegram.Sticker
	for _, s := range f.customEmoji {
		for _, id := range ids {
			if s.CustomEmojiID == id {
				found = append(found, s)
			}
		}
	}
	return found, nil
}

// texts returns the text of every plain message sent so far.
func (f *fakePlatform) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var texts []string
	for _, c := range f.messages {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

func (f *fakePlatform) lastText() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (f *fakePlatform) lastMessage() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.messages) - 1; i >= 0; i-- {
		if msg, ok := f.messages[i].(tgbotapi.MessageConfig); ok {
			return msg
		}
	}
	return tgbotapi.MessageConfig{}
}

func (f *fakePlatform) documents() []tgbotapi.DocumentConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	var docs []tgbotapi.DocumentConfig
	for _, c := range f.messages {
		if doc, ok := c.(tgbotapi.DocumentConfig); ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testBot struct {
	*Bot
	t        *testing.T
	platform *fakePlatform
	packs    *repository.PackStorage
	sessions *usecase.MemoryStorage
	clock    *fakeClock
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()
	ctx := context.Background()

	db, err := repository.Open(ctx, repository.DriverSQLite, filepath.Join(t.TempDir(), "packs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.Migrate(ctx, db, repository.DriverSQLite))

	platform := newFakePlatform()
	packs := repository.NewPackStorage(db)
	sessions := usecase.NewMemoryStorage()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	b := New(platform, packs, sessions, Settings{
		ConversationTimeout: 15 * time.Minute,
		PlaceholderPath:     filepath.Join(t.TempDir(), "missing.png"),
	})
	b.now = clock.Now

	return &testBot{Bot: b, t: t, platform: platform, packs: packs, sessions: sessions, clock: clock}
}

func (tb *testBot) handle(ev *Event) {
	tb.t.Helper()
	tb.HandleEvent(context.Background(), ev)
}

func (tb *testBot) session() *domain.UserSession {
	tb.t.Helper()
	s, err := tb.sessions.GetSession(context.Background(), testUserID)
	require.NoError(tb.t, err)
	require.NotNil(tb.t, s)
	return s
}

func (tb *testBot) state() domain.State {
	tb.t.Helper()
	return tb.session().State
}

func (tb *testBot) savePack(title, name string, t packdomain.PackType) {
	tb.t.Helper()
	p := &packdomain.Pack{UserID: testUserID, Title: title, Name: name}
	p.SetType(t)
	require.NoError(tb.t, tb.packs.SavePack(context.Background(), p))
}

// addFile registers downloadable content and returns its id.
func (tb *testBot) addFile(id string, data []byte) string {
	tb.platform.mu.Lock()
	defer tb.platform.mu.Unlock()
	tb.platform.files[id] = data
	return id
}

func commandEvent(text string) *Event {
	fields := strings.SplitN(strings.TrimSpace(text), " ", 2)
	ev := &Event{
		Kind:      EventMessage,
		UserID:    testUserID,
		ChatID:    testUserID,
		MessageID: 1,
		Text:      text,
		Command:   strings.ToLower(strings.TrimPrefix(fields[0], "/")),
	}
	if len(fields) == 2 {
		ev.Args = strings.TrimSpace(fields[1])
	}
	return ev
}

func textEvent(text string) *Event {
	return &Event{Kind: EventMessage, UserID: testUserID, ChatID: testUserID, MessageID: 1, Text: text}
}

func stickerEvent(fileID string, t packdomain.PackType, emoji, setName string) *Event {
	return &Event{
		Kind:      EventMessage,
		UserID:    testUserID,
		ChatID:    testUserID,
		MessageID: 1,
		Media: &sticker.MediaItem{
			Origin:       sticker.OriginSticker,
			FileID:       fileID,
			FileUniqueID: "uniq-" + fileID,
			IsAnimated:   t == packdomain.PackTypeAnimated,
			IsVideo:      t == packdomain.PackTypeVideo,
			Emoji:        emoji,
			SetName:      setName,
		},
	}
}

func callbackEvent(data string) *Event {
	return &Event{
		Kind:      EventCallback,
		UserID:    testUserID,
		ChatID:    testUserID,
		MessageID: 7,
		Callback:  &Callback{ID: "cb-1", Data: data, MessageID: 7},
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func apiError(message string) error {
	return &tgbotapi.Error{Code: 400, Message: message}
}
