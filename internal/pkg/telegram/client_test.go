package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stickers_bot/internal/pkg/http_client"
	"stickers_bot/internal/pkg/sticker/apierror"
)

const testToken = "123:abc"

type fakeAPI struct {
	t        *testing.T
	requests map[string]int
	form     map[string]string
	// hold, when set, keeps getUpdates pending until it is closed
	hold chan struct{}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/file/") {
		w.Write([]byte("sticker-bytes"))
		return
	}

	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	f.requests[method]++

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		require.NoError(f.t, r.ParseMultipartForm(1<<20))
	} else {
		require.NoError(f.t, r.ParseForm())
	}
	for k := range r.Form {
		f.form[k] = r.Form.Get(k)
	}

	if method == "getUpdates" && f.hold != nil {
		<-f.hold
	}

	switch method {
	case "getMe":
		reply(w, map[string]any{"id": 123, "is_bot": true, "username": "stickerbot"})
	case "getUpdates":
		w.Write([]byte(`{"ok":true,"result":[
			{"update_id":7,"message":{"message_id":1,"date":0,"chat":{"id":5,"type":"private"},
			 "from":{"id":5,"is_bot":false,"first_name":"u"},
			 "sticker":{"file_id":"s1","file_unique_id":"u1","width":512,"height":512,"is_animated":false,"is_video":true}}},
			{"update_id":8,"message":{"message_id":2,"date":0,"chat":{"id":5,"type":"private"},
			 "text":"x","entities":[{"type":"custom_emoji","offset":0,"length":2,"custom_emoji_id":"ce1"}]}}
		]}`))
	case "getStickerSet":
		reply(w, map[string]any{
			"name": "pack_by_stickerbot", "title": "Pack", "is_animated": false, "is_video": true,
			"stickers": []map[string]any{{"file_id": "a", "emoji": "🧱", "is_video": true}},
		})
	case "addStickerToSet":
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: STICKERSET_INVALID"}`))
	case "getFile":
		reply(w, map[string]any{"file_id": "s1", "file_path": "stickers/s1.webm"})
	case "uploadStickerFile":
		reply(w, map[string]any{"file_id": "uploaded", "file_unique_id": "uq"})
	case "deleteStickerFromSet", "createNewStickerSet":
		reply(w, true)
	case "getCustomEmojiStickers":
		reply(w, []map[string]any{{"file_id": "ce", "is_animated": true, "custom_emoji_id": "ce1"}})
	default:
		http.NotFound(w, r)
	}
}

func reply(w http.ResponseWriter, result any) {
	json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{t: t, requests: map[string]int{}, form: map[string]string{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := newClient(testToken, srv.URL+"/bot%s/%s", srv.URL+"/file/bot%s/%s",
		http_client.NewLoggedClient(5*time.Second, testToken), 100)
	require.NoError(t, err)
	return c, api
}

func TestClientUsername(t *testing.T) {
	c, api := newTestClient(t)
	assert.Equal(t, "stickerbot", c.Username())
	assert.Equal(t, 1, api.requests["getMe"])
}

func TestGetUpdatesDecodesExtraFields(t *testing.T) {
	c, _ := newTestClient(t)

	updates, err := c.GetUpdates(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, updates, 2)

	assert.Equal(t, 7, updates[0].UpdateID)
	require.NotNil(t, updates[0].Message.Sticker)
	assert.True(t, updates[0].StickerIsVideo)
	assert.Equal(t, []string{"ce1"}, updates[1].CustomEmojiIDs)
	assert.False(t, updates[1].StickerIsVideo)
}

func TestGetUpdatesCancelled(t *testing.T) {
	c, api := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetUpdates(ctx, 0, 60)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, api.requests["getUpdates"])
}

func TestGetUpdatesReturnsOnCancel(t *testing.T) {
	c, api := newTestClient(t)
	api.hold = make(chan struct{})
	t.Cleanup(func() { close(api.hold) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.GetUpdates(ctx, 0, 60)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGetStickerSet(t *testing.T) {
	c, api := newTestClient(t)

	set, err := c.GetStickerSet(context.Background(), "pack_by_stickerbot")
	require.NoError(t, err)
	assert.Equal(t, "pack_by_stickerbot", api.form["name"])
	assert.True(t, set.IsVideo)
	require.NotNil(t, set.Last())
	assert.Equal(t, "🧱", set.Last().Emoji)
	assert.Nil(t, (&StickerSet{}).Last())
}

func TestAddStickerToSetErrorIsClassified(t *testing.T) {
	c, api := newTestClient(t)

	err := c.AddStickerToSet(context.Background(), StickerRequest{
		UserID: 5,
		Name:   "pack_by_stickerbot",
		Emojis: "😀",
		Field:  "png_sticker",
		File:   tgbotapi.FileBytes{Name: "a.png", Bytes: []byte("png")},
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindPackInvalid, apierror.KindOf(err))
	assert.Equal(t, "5", api.form["user_id"])
	assert.Equal(t, "😀", api.form["emojis"])
}

func TestStickerFileRoundTrip(t *testing.T) {
	c, api := newTestClient(t)
	ctx := context.Background()

	id, err := c.UploadStickerFile(ctx, 5, "dummy.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "uploaded", id)

	require.NoError(t, c.CreateNewStickerSet(ctx, StickerRequest{
		UserID: 5, Name: "n_by_stickerbot", Title: "t", Emojis: "🧱",
		Field: "png_sticker", File: tgbotapi.FileID(id),
	}))
	assert.Equal(t, "uploaded", api.form["png_sticker"])
	assert.Equal(t, "t", api.form["title"])

	require.NoError(t, c.DeleteStickerFromSet(ctx, "a"))
	assert.Equal(t, "a", api.form["sticker"])
}

func TestDownloadFile(t *testing.T) {
	c, _ := newTestClient(t)

	var buf bytes.Buffer
	require.NoError(t, c.DownloadFile(context.Background(), "s1", &buf))
	assert.Equal(t, "sticker-bytes", buf.String())
}

func TestGetCustomEmojiStickers(t *testing.T) {
	c, api := newTestClient(t)

	stickers, err := c.GetCustomEmojiStickers(context.Background(), []string{"ce1"})
	require.NoError(t, err)
	require.Len(t, stickers, 1)
	assert.True(t, stickers[0].IsAnimated)
	assert.Equal(t, fmt.Sprintf("[%q]", "ce1"), api.form["custom_emoji_ids"])
}
