package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"stickers_bot/internal/pkg/http_client"
)

const fileEndpoint = "https://api.telegram.org/file/bot%s/%s"

// Client talks to the Bot API. Every outbound call goes through a shared rate limiter.
type Client struct {
	api          *tgbotapi.BotAPI
	http         *http_client.LoggedClient
	limiter      *rate.Limiter
	fileEndpoint string
}

func New(token string, httpClient *http_client.LoggedClient, perSecond float64) (*Client, error) {
	return newClient(token, tgbotapi.APIEndpoint, fileEndpoint, httpClient, perSecond)
}

func newClient(token, apiEndpoint, fileEndpoint string, httpClient *http_client.LoggedClient, perSecond float64) (*Client, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, httpClient)
	if err != nil {
		return nil, errors.Wrap(err, "create bot api")
	}

	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		api:          api,
		http:         httpClient,
		limiter:      rate.NewLimiter(rate.Limit(perSecond), burst),
		fileEndpoint: fileEndpoint,
	}, nil
}

func (c *Client) Username() string {
	return c.api.Self.UserName
}

func (c *Client) wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

func (c *Client) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := c.wait(context.Background()); err != nil {
		return tgbotapi.Message{}, err
	}
	return c.api.Send(msg)
}

func (c *Client) Request(msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := c.wait(context.Background()); err != nil {
		return nil, err
	}
	return c.api.Request(msg)
}

// GetUpdates long-polls for updates newer than offset.
func (c *Client) GetUpdates(ctx context.Context, offset, timeout int) ([]Update, error) {
	params := tgbotapi.Params{}
	params.AddNonZero("offset", offset)
	params.AddNonZero("timeout", timeout)
	if err := params.AddInterface("allowed_updates", []string{"message", "callback_query"}); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// MakeRequest takes no context, so a pending long poll is abandoned on
	// cancellation. Its updates are not confirmed and come back on the next poll.
	type result struct {
		resp *tgbotapi.APIResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := c.api.MakeRequest("getUpdates", params)
		done <- result{resp: resp, err: err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r = <-done:
	}
	if r.err != nil {
		return nil, errors.Wrap(r.err, "getUpdates")
	}

	var updates []Update
	if err := json.Unmarshal(r.resp.Result, &updates); err != nil {
		return nil, errors.Wrap(err, "decode updates")
	}
	return updates, nil
}

func (c *Client) DownloadFile(ctx context.Context, fileID string, w io.Writer) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	file, err := c.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return errors.Wrap(err, "getFile")
	}

	fileURL := fmt.Sprintf(c.fileEndpoint, c.api.Token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "download file")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}

	_, err = io.Copy(w, resp.Body)
	return err
}

func (c *Client) CreateNewStickerSet(ctx context.Context, req StickerRequest) error {
	params := tgbotapi.Params{}
	params.AddNonZero64("user_id", req.UserID)
	params["name"] = req.Name
	params["title"] = req.Title
	params["emojis"] = req.Emojis

	return c.upload(ctx, "createNewStickerSet", params, req)
}

func (c *Client) AddStickerToSet(ctx context.Context, req StickerRequest) error {
	params := tgbotapi.Params{}
	params.AddNonZero64("user_id", req.UserID)
	params["name"] = req.Name
	params["emojis"] = req.Emojis

	return c.upload(ctx, "addStickerToSet", params, req)
}

func (c *Client) upload(ctx context.Context, endpoint string, params tgbotapi.Params, req StickerRequest) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	files := []tgbotapi.RequestFile{{Name: req.Field, Data: req.File}}
	if _, err := c.api.UploadFiles(endpoint, params, files); err != nil {
		return errors.Wrap(err, endpoint)
	}
	return nil
}

// UploadStickerFile uploads a PNG and returns its file id.
func (c *Client) UploadStickerFile(ctx context.Context, userID int64, fileName string, data []byte) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	params := tgbotapi.Params{}
	params.AddNonZero64("user_id", userID)
	files := []tgbotapi.RequestFile{{
		Name: "png_sticker",
		Data: tgbotapi.FileBytes{Name: fileName, Bytes: data},
	}}

	resp, err := c.api.UploadFiles("uploadStickerFile", params, files)
	if err != nil {
		return "", errors.Wrap(err, "uploadStickerFile")
	}

	var file tgbotapi.File
	if err := json.Unmarshal(resp.Result, &file); err != nil {
		return "", errors.Wrap(err, "decode uploaded file")
	}
	return file.FileID, nil
}

func (c *Client) GetStickerSet(ctx context.Context, name string) (*StickerSet, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.api.MakeRequest("getStickerSet", tgbotapi.Params{"name": name})
	if err != nil {
		return nil, errors.Wrap(err, "getStickerSet")
	}

	var set StickerSet
	if err := json.Unmarshal(resp.Result, &set); err != nil {
		return nil, errors.Wrap(err, "decode sticker set")
	}
	return &set, nil
}

func (c *Client) DeleteStickerFromSet(ctx context.Context, fileID string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	if _, err := c.api.MakeRequest("deleteStickerFromSet", tgbotapi.Params{"sticker": fileID}); err != nil {
		return errors.Wrap(err, "deleteStickerFromSet")
	}
	return nil
}

func (c *Client) GetCustomEmojiStickers(ctx context.Context, ids []string) ([]Sticker, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	params := tgbotapi.Params{}
	if err := params.AddInterface("custom_emoji_ids", ids); err != nil {
		return nil, err
	}

	resp, err := c.api.MakeRequest("getCustomEmojiStickers", params)
	if err != nil {
		return nil, errors.Wrap(err, "getCustomEmojiStickers")
	}

	var stickers []Sticker
	if err := json.Unmarshal(resp.Result, &stickers); err != nil {
		return nil, errors.Wrap(err, "decode custom emoji stickers")
	}
	return stickers, nil
}
