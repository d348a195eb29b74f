package source_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JaimeStill/pdf-reader/internal/config"
	"github.com/JaimeStill/pdf-reader/internal/lifecycle"
	"github.com/JaimeStill/pdf-reader/internal/source"
	"github.com/JaimeStill/pdf-reader/internal/storage"
)

func newStore(t *testing.T) (storage.System, string) {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.New(&config.StorageConfig{BasePath: dir}, testLogger())
	if err != nil {
		t.Fatalf("storage.New() failed: %v", err)
	}
	if err := store.Start(lifecycle.New()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	return store, dir
}

func upload(t *testing.T, filename, contentType string, data []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, _ := w.CreatePart(header)
	part.Write(data)
	w.Close()

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("ReadForm() failed: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })

	fh := form.File["file"][0]
	f, err := fh.Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f, fh
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}

func TestSpill(t *testing.T) {
	store, dir := newStore(t)
	f, fh := upload(t, "report.pdf", "application/pdf", []byte("%PDF-1.7 body"))

	h, err := source.Spill(context.Background(), store, f, fh, 1<<20, testLogger())
	if err != nil {
		t.Fatalf("Spill() failed: %v", err)
	}

	if h.Name != "report.pdf" || h.Size != 13 || !h.IsPDF() {
		t.Errorf("handle = %+v", h)
	}
	if countFiles(t, dir) != 1 {
		t.Fatalf("scratch files = %d, want 1", countFiles(t, dir))
	}

	data, err := source.NewReader(0, testLogger()).Read(context.Background(), h)
	if err != nil || string(data) != "%PDF-1.7 body" {
		t.Errorf("Read() = %q, %v", data, err)
	}

	h.Release()
	if n := countFiles(t, dir); n != 0 {
		t.Errorf("scratch files after Release = %d, want 0", n)
	}
}

func TestSpill_DetectsMissingContentType(t *testing.T) {
	store, _ := newStore(t)
	f, fh := upload(t, "scan.pdf", "application/octet-stream", []byte("%PDF-1.4"))

	h, err := source.Spill(context.Background(), store, f, fh, 0, testLogger())
	if err != nil {
		t.Fatalf("Spill() failed: %v", err)
	}
	defer h.Release()

	if !h.IsPDF() {
		t.Errorf("ContentType = %q, want application/pdf", h.ContentType)
	}
}

func TestSpill_TooLarge(t *testing.T) {
	store, dir := newStore(t)
	f, fh := upload(t, "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 64))

	_, err := source.Spill(context.Background(), store, f, fh, 16, testLogger())
	if !errors.Is(err, source.ErrTooLarge) {
		t.Fatalf("error = %v, want ErrTooLarge", err)
	}
	if n := countFiles(t, dir); n != 0 {
		t.Errorf("scratch files = %d, want 0", n)
	}
}

func TestSpill_UnsafeFilename(t *testing.T) {
	store, dir := newStore(t)
	f, fh := upload(t, "..", "application/pdf", []byte("%PDF"))

	h, err := source.Spill(context.Background(), store, f, fh, 0, testLogger())
	if err != nil {
		t.Fatalf("Spill() failed: %v", err)
	}
	defer h.Release()

	matches, _ := filepath.Glob(filepath.Join(dir, "selections", "*", "selection"))
	if len(matches) != 1 {
		t.Errorf("stored entries = %v, want one named selection", matches)
	}
}

func TestFromStorage_ReleaseLogsDeleteFailure(t *testing.T) {
	store, _ := newStore(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := source.FromStorage(store, "../outside.pdf", "outside.pdf", source.PDFContentType, 4, logger)
	h.Release()

	out := buf.String()
	if !strings.Contains(out, "failed to remove spilled selection") {
		t.Fatalf("log = %q, want delete failure warning", out)
	}
	if !strings.Contains(out, storage.ErrInvalidKey.Error()) {
		t.Errorf("log = %q, want %q", out, storage.ErrInvalidKey)
	}
}
