package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/JaimeStill/pdf-reader/internal/storage"
	"github.com/google/uuid"
)

// Spill copies an uploaded file into scratch storage so that its run can
// outlive the request that carried it. The returned handle reads from storage
// and deletes the scratch entry on Release.
func Spill(ctx context.Context, store storage.System, file multipart.File, header *multipart.FileHeader, maxSize int64, logger *slog.Logger) (FileHandle, error) {
	var src io.Reader = file
	if maxSize > 0 {
		src = io.LimitReader(file, maxSize+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return FileHandle{}, fmt.Errorf("%w: %v", ErrRead, err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return FileHandle{}, fmt.Errorf("%w: %w", ErrRead, ErrTooLarge)
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	contentType := DetectContentType(header.Header.Get("Content-Type"), header.Filename, head)

	key := fmt.Sprintf("selections/%s/%s", uuid.New(), sanitizeFilename(header.Filename))
	if err := store.Store(ctx, key, data); err != nil {
		return FileHandle{}, fmt.Errorf("store selection: %w", err)
	}

	return FromStorage(store, key, header.Filename, contentType, int64(len(data)), logger), nil
}

// FromStorage wraps a scratch storage entry as a FileHandle. A failed delete
// on Release is logged and otherwise ignored.
func FromStorage(store storage.System, key, name, contentType string, size int64, logger *slog.Logger) FileHandle {
	return FileHandle{
		Name:        name,
		ContentType: contentType,
		Size:        size,
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			data, err := store.Retrieve(ctx, key)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(bytes.NewReader(data)), nil
		},
		Release: func() {
			if err := store.Delete(context.Background(), key); err != nil {
				logger.Warn("failed to remove spilled selection", "key", key, "error", err)
			}
		},
	}
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == 0:
			return '_'
		default:
			return r
		}
	}, name)
	if name == "" || name == "." || name == ".." {
		return "selection"
	}
	return name
}
