package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Loader is the decode stage of a run.
type Loader struct {
	decoder Decoder
	timeout time.Duration
	logger  *slog.Logger
}

// NewLoader binds a Decoder to a per-decode deadline.
// The decoder is required; a missing one is a configuration error.
func NewLoader(decoder Decoder, timeout time.Duration, logger *slog.Logger) (*Loader, error) {
	if decoder == nil {
		return nil, ErrConfig
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: decode timeout must be positive", ErrConfig)
	}

	return &Loader{
		decoder: decoder,
		timeout: timeout,
		logger:  logger.With("stage", "decode"),
	}, nil
}

type decodeResult struct {
	doc *Document
	err error
}

// Decode parses data into a Document. A zero-page document is a success.
// When ctx ends or the deadline passes the call returns immediately; the
// abandoned decode finishes in the background and its result is dropped.
func (l *Loader) Decode(ctx context.Context, data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrDecode, ErrEmptyBuffer)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	results := make(chan decodeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				results <- decodeResult{err: fmt.Errorf("decoder panic: %v", r)}
			}
		}()
		doc, err := l.decoder.Decode(ctx, data)
		results <- decodeResult{doc: doc, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrDecode, ctx.Err())
	case res := <-results:
		if res.err != nil {
			if errors.Is(res.err, ErrDecode) {
				return nil, res.err
			}
			return nil, fmt.Errorf("%w: %w", ErrDecode, res.err)
		}
		if res.doc == nil {
			return nil, fmt.Errorf("%w: decoder returned no document", ErrDecode)
		}

		l.logger.Debug("document decoded", "pages", res.doc.PageCount())
		return res.doc, nil
	}
}
