package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// FRAME_INTERVAL is the duration of one voice frame
const FRAME_INTERVAL = 20 * time.Millisecond

// Source produces voice frames at the frame rate
type Source interface {
	ReadFrame(ctx context.Context) (Frame, error)
}

// Sink consumes decoded voice frames
type Sink interface {
	WriteFrame(f Frame) error
}

// ReaderSource reads raw frames from r, one every interval. Once r is
// exhausted it keeps producing silent frames.
type ReaderSource struct {
	r        io.Reader
	ticker   *time.Ticker
	interval time.Duration
	eof      bool
}

// NewReaderSource creates a paced frame source
func NewReaderSource(r io.Reader, interval time.Duration) *ReaderSource {
	return &ReaderSource{r: r, interval: interval}
}

// ReadFrame waits for the next frame slot and returns a frame
func (s *ReaderSource) ReadFrame(ctx context.Context) (Frame, error) {
	var f Frame

	if s.ticker == nil {
		s.ticker = time.NewTicker(s.interval)
	}
	select {
	case <-ctx.Done():
		return f, ctx.Err()
	case <-s.ticker.C:
	}

	if s.eof {
		return f, nil
	}
	if _, err := io.ReadFull(s.r, f[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			s.eof = true
			return Frame{}, nil
		}
		return f, fmt.Errorf("read audio frame: %w", err)
	}
	return f, nil
}

// Stop releases the pacing ticker
func (s *ReaderSource) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

// WriterSink writes raw frames to w
type WriterSink struct {
	w io.Writer
}

// NewWriterSink creates a sink writing to w
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// WriteFrame writes one frame
func (s *WriterSink) WriteFrame(f Frame) error {
	_, err := s.w.Write(f[:])
	return err
}

// Discard is a sink that drops every frame
var Discard Sink = NewWriterSink(io.Discard)
