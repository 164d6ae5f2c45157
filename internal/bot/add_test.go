package bot

import (
	"context"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	packdomain "stickers_bot/internal/pkg/pack/domain"
	"stickers_bot/internal/pkg/session/domain"
	"stickers_bot/internal/pkg/sticker"
)

func TestAddWithoutPacks(t *testing.T) {
	tb := newTestBot(t)

	tb.handle(commandEvent("/add"))

	assert.False(t, tb.session().Active())
	assert.Equal(t, textAddNoPacks, tb.platform.lastText())
}

func TestAddByTitle(t *testing.T) {
	tb := newTestBot(t)
	tb.savePack("Cats", "cats_by_testbot", packdomain.PackTypeStatic)
	tb.savePack("Dogs", "dogs_by_testbot", packdomain.PackTypeStatic)
	fileID := tb.addFile("static-1", pngBytes(t, 512, 512))

	tb.handle(commandEvent("/add"))
	assert.Equal(t, domain.StateAddWaitingTitle, tb.state())

	keyboard, ok := tb.platform.lastMessage().ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, keyboard.Keyboard, 2)
	assert.Equal(t, "Cats", keyboard.Keyboard[0][0].Text)
	assert.Equal(t, "Dogs", keyboard.Keyboard[1][0].Text)

	tb.handle(textEvent("Birds"))
	assert.Equal(t, domain.StateAddWaitingTitle, tb.state())

	tb.handle(textEvent("Cats"))
	assert.Equal(t, domain.StateWaitingSticker, tb.state())
	assert.Equal(t, "cats_by_testbot", tb.session().Pack.Name)

	tb.handle(textEvent("😺😸"))
	tb.handle(stickerEvent(fileID, packdomain.PackTypeStatic, "😀", ""))

	require.Len(t, tb.platform.added, 1)
	req := tb.platform.added[0]
	assert.Equal(t, "cats_by_testbot", req.Name)
	assert.Equal(t, "😺😸", req.Emojis)
	assert.Equal(t, "png_sticker", req.Field)
	assert.Equal(t, domain.StateWaitingSticker, tb.state())
	assert.Empty(t, tb.session().Pack.Emojis)
	assert.Equal(t, fmt.Sprintf(textAddSuccess, "https://t.me/addstickers/cats_by_testbot", "😺😸"), tb.platform.lastText())
}

func TestAddAmbiguousTitle(t *testing.T) {
	tb := newTestBot(t)
	tb.savePack("Cats", "cats_by_testbot", packdomain.PackTypeStatic)
	tb.savePack("Cats", "cats2_by_testbot", packdomain.PackTypeVideo)

	tb.handle(commandEvent("/a"))
	tb.handle(textEvent("Cats"))
	assert.Equal(t, domain.StateAddWaitingName, tb.state())

	keyboard, ok := tb.platform.lastMessage().ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, keyboard.Keyboard, 3)
	assert.Equal(t, goBackButton, keyboard.Keyboard[0][0].Text)
	assert.Equal(t, "cats2", keyboard.Keyboard[1][0].Text)
	assert.Equal(t, "cats", keyboard.Keyboard[2][0].Text)

	tb.handle(textEvent(goBackButton))
	assert.Equal(t, domain.StateAddWaitingTitle, tb.state())

	tb.handle(textEvent("Cats"))
	tb.handle(textEvent("  go back "))
	assert.Equal(t, domain.StateAddWaitingTitle, tb.state())

	tb.handle(textEvent("Cats"))
	tb.handle(textEvent("cats3"))
	assert.Equal(t, domain.StateAddWaitingName, tb.state())
	assert.Equal(t, textAddNameNotFound, tb.platform.lastText())

	tb.handle(textEvent("cats2"))
	s := tb.session()
	assert.Equal(t, domain.StateWaitingSticker, s.State)
	assert.Equal(t, "cats2_by_testbot", s.Pack.Name)
	assert.Equal(t, packdomain.PackTypeVideo, s.Pack.Type)
}

func TestAddWithPackLink(t *testing.T) {
	tb := newTestBot(t)
	tb.savePack("Cats", "cats_by_testbot", packdomain.PackTypeAnimated)

	tb.handle(commandEvent("/add https://t.me/addstickers/cats_by_testbot"))

	s := tb.session()
	assert.Equal(t, domain.StateWaitingSticker, s.State)
	assert.Equal(t, packdomain.PackTypeAnimated, s.Pack.Type)

	tb.handle(commandEvent("/done"))
	tb.handle(commandEvent("/add cats"))
	assert.Equal(t, domain.StateWaitingSticker, tb.state())

	tb.handle(commandEvent("/done"))
	tb.handle(commandEvent("/add unknown"))
	assert.Equal(t, domain.StateAddWaitingTitle, tb.state())
}

func TestAddLegacyAnimatedPack(t *testing.T) {
	ctx := context.Background()
	tb := newTestBot(t)

	legacy := &packdomain.Pack{UserID: testUserID, Title: "Old", Name: "old_by_testbot", IsAnimated: true}
	require.NoError(t, tb.packs.SavePack(ctx, legacy))

	tb.handle(commandEvent("/add old"))
	assert.Equal(t, packdomain.PackTypeAnimated, tb.session().Pack.Type)
}

func TestAddWrongType(t *testing.T) {
	tb := newTestBot(t)
	tb.savePack("Cats", "cats_by_testbot", packdomain.PackTypeStatic)
	fileID := tb.addFile("video-1", []byte("webm"))

	tb.handle(commandEvent("/add cats"))
	tb.handle(stickerEvent(fileID, packdomain.PackTypeVideo, "😀", ""))

	assert.Equal(t, domain.StateWaitingSticker, tb.state())
	assert.Equal(t, fmt.Sprintf(textAddWrongType, "static", "video"), tb.platform.lastText())
	assert.Empty(t, tb.platform.added)
}

func TestAddPackFull(t *testing.T) {
	tests := []struct {
		packType packdomain.PackType
		fileID   string
		content  func(t *testing.T) []byte
		capacity int
	}{
		{packdomain.PackTypeStatic, "static-1", func(t *testing.T) []byte { return pngBytes(t, 512, 512) }, 120},
		{packdomain.PackTypeAnimated, "animated-1", func(*testing.T) []byte { return []byte("tgs") }, 50},
		{packdomain.PackTypeVideo, "video-1", func(*testing.T) []byte { return []byte("webm") }, 120},
	}

	for _, tt := range tests {
		t.Run(tt.packType.String(), func(t *testing.T) {
			tb := newTestBot(t)
			tb.savePack("Full", "full_by_testbot", tt.packType)
			fileID := tb.addFile(tt.fileID, tt.content(t))
			tb.platform.addErr = apiError("Bad Request: STICKERS_TOO_MUCH")

			tb.handle(commandEvent("/add full"))
			tb.handle(stickerEvent(fileID, tt.packType, "😀", ""))

			assert.False(t, tb.session().Active())
			assert.Equal(t, fmt.Sprintf(textAddPackFull, "https://t.me/addstickers/full_by_testbot", tt.capacity), tb.platform.lastText())
		})
	}
}

func TestAddPackInvalid(t *testing.T) {
	ctx := context.Background()
	tb := newTestBot(t)
	tb.savePack("Gone", "gone_by_testbot", packdomain.PackTypeStatic)
	tb.savePack("Kept", "kept_by_testbot", packdomain.PackTypeStatic)
	fileID := tb.addFile("static-1", pngBytes(t, 512, 512))
	tb.platform.addErr = apiError("Bad Request: STICKERSET_INVALID")

	tb.handle(commandEvent("/add gone"))
	tb.handle(stickerEvent(fileID, packdomain.PackTypeStatic, "😀", ""))

	assert.Equal(t, domain.StateAddWaitingTitle, tb.state())
	exists, err := tb.packs.NameExists(ctx, testUserID, "gone_by_testbot")
	require.NoError(t, err)
	assert.False(t, exists)

	tb.handle(textEvent("Kept"))
	tb.handle(stickerEvent(fileID, packdomain.PackTypeStatic, "😀", ""))

	assert.False(t, tb.session().Active())
	assert.Equal(t, fmt.Sprintf(textAddPackInvalidEnded, "https://t.me/addstickers/kept_by_testbot"), tb.platform.lastText())
	count, err := tb.packs.CountPacks(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAddRecoverableErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"flood", apiError("Too Many Requests: retry after 3725"), fmt.Sprintf(textAddFlood, "1:02:05")},
		{"dimensions", apiError("Bad Request: STICKER_PNG_DIMENSIONS"), textAddSizeError},
		{"emojis", apiError("Bad Request: invalid sticker emojis"), textAddInvalidEmojis},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := newTestBot(t)
			tb.savePack("Cats", "cats_by_testbot", packdomain.PackTypeStatic)
			fileID := tb.addFile("static-1", pngBytes(t, 512, 512))
			tb.platform.addErr = tt.err

			tb.handle(commandEvent("/add cats"))
			tb.handle(stickerEvent(fileID, packdomain.PackTypeStatic, "😀", ""))

			assert.Equal(t, domain.StateWaitingSticker, tb.state())
			assert.Equal(t, tt.want, tb.platform.lastText())
		})
	}
}

func TestAddUnknownErrorEndsConversation(t *testing.T) {
	tb := newTestBot(t)
	tb.savePack("Cats", "cats_by_testbot", packdomain.PackTypeStatic)
	fileID := tb.addFile("static-1", pngBytes(t, 512, 512))
	tb.platform.addErr = apiError("Bad Request: something nobody classified")

	tb.handle(commandEvent("/add cats"))
	tb.handle(stickerEvent(fileID, packdomain.PackTypeStatic, "😀", ""))

	assert.Equal(t, domain.StateIdle, tb.state())
	msg := tb.platform.lastMessage()
	assert.Equal(t, fmt.Sprintf(textAddGenericError, "https://t.me/addstickers/cats_by_testbot", "Bad Request: something nobody classified"), msg.Text)
	assert.Equal(t, hideKeyboard, msg.ReplyMarkup)
}

func TestAddDocument(t *testing.T) {
	tb := newTestBot(t)
	tb.savePack("Cats", "cats_by_testbot", packdomain.PackTypeStatic)
	tb.addFile("doc-1", pngBytes(t, 100, 50))

	tb.handle(commandEvent("/add cats"))
	ev := stickerEvent("doc-1", packdomain.PackTypeStatic, "", "")
	ev.Media.Origin = sticker.OriginDocument
	ev.Media.MimeType = "image/png"
	ev.Media.Caption = "🔥"
	tb.handle(ev)

	require.Len(t, tb.platform.added, 1)
	assert.Equal(t, "🔥", tb.platform.added[0].Emojis)

	file, ok := tb.platform.added[0].File.(tgbotapi.FileBytes)
	require.True(t, ok)
	img := decodePNG(t, file.Bytes)
	assert.Equal(t, 512, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}
