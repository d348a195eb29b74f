package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/docker/go-units"
)

// Reader is the byte source stage of a run.
type Reader struct {
	maxSize int64
	logger  *slog.Logger
}

// NewReader creates a Reader that rejects files larger than maxSize bytes.
// A non-positive maxSize disables the limit.
func NewReader(maxSize int64, logger *slog.Logger) *Reader {
	return &Reader{
		maxSize: maxSize,
		logger:  logger.With("stage", "read"),
	}
}

// Read consumes the file's stream and returns its bytes.
// The returned buffer is owned by the caller and never mutated by the Reader.
func (r *Reader) Read(ctx context.Context, file FileHandle) ([]byte, error) {
	if file.Open == nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, ErrNoOpener)
	}
	if r.maxSize > 0 && file.Size > r.maxSize {
		return nil, fmt.Errorf("%w: %w: %s > %s", ErrRead, ErrTooLarge, units.HumanSize(float64(file.Size)), units.HumanSize(float64(r.maxSize)))
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}

	rc, err := file.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	defer rc.Close()

	var src io.Reader = &ctxReader{ctx: ctx, r: rc}
	if r.maxSize > 0 {
		src = io.LimitReader(src, r.maxSize+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}

	if r.maxSize > 0 && int64(len(data)) > r.maxSize {
		return nil, fmt.Errorf("%w: %w: exceeds %s", ErrRead, ErrTooLarge, units.HumanSize(float64(r.maxSize)))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrRead, ErrEmpty)
	}

	r.logger.Debug("file read", "name", file.Name, "size", units.HumanSize(float64(len(data))))
	return data, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
