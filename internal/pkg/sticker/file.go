package sticker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"stickers_bot/internal/pkg/media"
	"stickers_bot/internal/pkg/pack/domain"
)

// static stickers must have their longest side equal to this
const staticSide = 512

type Downloader interface {
	DownloadFile(ctx context.Context, fileID string, w io.Writer) error
}

// File wraps one inbound media item together with a scratch copy of its
// content on disk. Close must be called on every path once the file was created.
type File struct {
	Item   *MediaItem
	Type   domain.PackType
	Emojis []string

	scratch *os.File
}

func NewFile(item *MediaItem, userEmojis []string) (*File, error) {
	t, err := Classify(item)
	if err != nil {
		return nil, err
	}

	return &File{
		Item:   item,
		Type:   t,
		Emojis: ResolveEmojis(item, userEmojis),
	}, nil
}

func (f *File) EmojisString() string {
	return strings.Join(f.Emojis, "")
}

// Download copies the item's content into the scratch file.
func (f *File) Download(ctx context.Context, d Downloader) error {
	if f.scratch == nil {
		path := filepath.Join(os.TempDir(), "sticker-"+uuid.NewString())
		scratch, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
		if err != nil {
			return fmt.Errorf("create scratch file: %w", err)
		}
		f.scratch = scratch
	}

	if err := f.scratch.Truncate(0); err != nil {
		return err
	}
	if _, err := f.scratch.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := d.DownloadFile(ctx, f.Item.FileID, f.scratch); err != nil {
		return fmt.Errorf("download %s: %w", f.Item.FileID, err)
	}
	return nil
}

// Content returns the downloaded bytes.
func (f *File) Content() ([]byte, error) {
	if f.scratch == nil {
		return nil, fmt.Errorf("file %s was not downloaded", f.Item.FileID)
	}
	if _, err := f.scratch.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(f.scratch)
}

// UploadPayload returns the request field, the file name and the content to
// submit to the sticker set API. Static images are normalized to a PNG whose
// longest side is 512.
func (f *File) UploadPayload() (field, fileName string, data []byte, err error) {
	field, ext := InputField(f.Type)

	data, err = f.Content()
	if err != nil {
		return "", "", nil, err
	}

	if f.Type == domain.PackTypeStatic {
		data, err = media.Process(bytes.NewReader(data), media.Options{
			Format:  media.FormatPNG,
			MaxSize: staticSide,
		})
		if err != nil {
			return "", "", nil, fmt.Errorf("convert static sticker: %w", err)
		}
	}

	return field, f.name(ext), data, nil
}

func (f *File) name(ext string) string {
	id := f.Item.FileUniqueID
	if id == "" {
		id = f.Item.FileID
	}
	return id + "." + ext
}

// Close removes the scratch file. Failures are logged and otherwise ignored.
func (f *File) Close() {
	if f == nil || f.scratch == nil {
		return
	}

	path := f.scratch.Name()
	if err := f.scratch.Close(); err != nil {
		slog.Warn("failed to close scratch file", "path", path, "error", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove scratch file", "path", path, "error", err)
	}
	f.scratch = nil
}
