package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// PDFContentType is the only media type the pipeline accepts.
const PDFContentType = "application/pdf"

// Opener yields the byte stream of a selected file.
type Opener func(ctx context.Context) (io.ReadCloser, error)

// FileHandle references a user-selected input.
// It is read-only; the stream behind Open is consumed once per run.
type FileHandle struct {
	Name        string
	ContentType string
	Size        int64

	Open Opener

	// Release, when set, discards resources backing the handle
	// once its run completes or is superseded.
	Release func()
}

// IsPDF reports whether the declared media type is the PDF media type.
func (f FileHandle) IsPDF() bool {
	mediaType, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil {
		return strings.EqualFold(strings.TrimSpace(f.ContentType), PDFContentType)
	}
	return mediaType == PDFContentType
}

// FromBytes wraps an in-memory buffer as a FileHandle.
func FromBytes(name, contentType string, data []byte) FileHandle {
	return FileHandle{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FromPath wraps a local file. The declared media type comes from the
// file extension, falling back to content sniffing.
func FromPath(path string) (FileHandle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileHandle{}, fmt.Errorf("%w: %v", ErrRead, err)
	}
	if info.IsDir() {
		return FileHandle{}, fmt.Errorf("%w: %s is a directory", ErrRead, path)
	}

	return FileHandle{
		Name:        filepath.Base(path),
		ContentType: DetectContentType("", path, sniff(path)),
		Size:        info.Size(),
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// DetectContentType resolves the declared media type of a selection.
// An explicit declaration wins unless it is the generic octet-stream type.
func DetectContentType(declared, name string, head []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	if ext := filepath.Ext(name); ext != "" {
		if byExt := mime.TypeByExtension(strings.ToLower(ext)); byExt != "" {
			return byExt
		}
	}

	if len(head) > 0 {
		return http.DetectContentType(head)
	}
	return declared
}

func sniff(path string) []byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	return head[:n]
}
