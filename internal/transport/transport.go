// Package transport owns the serial connection to the embedded task
// supervisor. One writer goroutine and one drain goroutine share the port;
// frames are submitted to the writer over a channel, drained device bytes
// are forwarded to a sink as they arrive, and a mutex serializes every
// single-byte operation on the wire so neither direction ever sees a torn
// byte.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"taskctl/internal/observability"
)

var (
	ErrClosed        = errors.New("transport: closed")
	ErrWriteGaveUp   = errors.New("transport: byte write retries exhausted")
	ErrNotStarted    = errors.New("transport: not started")
	ErrAlreadyActive = errors.New("transport: already started")
)

type writeReq struct {
	frame []byte
	done  chan error
}

// Transport is the duplex serial channel. Writes go through WriteFrame;
// the drain runs continuously from Start until the context is cancelled
// or Close is called.
type Transport struct {
	port Port
	sink io.Writer
	cfg  Config
	rng  *rand.Rand

	wire   sync.Mutex // serializes single-byte port operations
	writes chan writeReq
	errs   chan error

	mu      sync.Mutex
	started bool
	runCtx  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a transport over an open port. Drained bytes are written to
// sink one at a time, as soon as they arrive.
func New(port Port, sink io.Writer, cfg Config) *Transport {
	if cfg.WriteAttempts <= 0 {
		cfg.WriteAttempts = 1
	}
	if cfg.ErrorBuffer <= 0 {
		cfg.ErrorBuffer = 1
	}
	return &Transport{
		port:   port,
		sink:   sink,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		writes: make(chan writeReq),
		errs:   make(chan error, cfg.ErrorBuffer),
	}
}

// Errors exposes transient I/O failures. The channel is bounded; reports
// that would block are dropped.
func (t *Transport) Errors() <-chan error {
	return t.errs
}

// Start launches the writer and drain goroutines. The drain runs until ctx
// is cancelled or Close is called.
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return ErrAlreadyActive
	}
	t.started = true

	ctx, cancel := context.WithCancel(ctx)
	t.runCtx = ctx
	t.cancel = cancel

	if err := t.port.SetReadTimeout(t.cfg.ReadTimeout); err != nil {
		return fmt.Errorf("transport: set read timeout: %w", err)
	}

	t.wg.Add(2)
	go t.writeLoop(ctx)
	go t.drainLoop(ctx)
	return nil
}

// WriteFrame hands one complete frame to the writer goroutine and waits for
// it to be fully written, the context to be cancelled, or the transport to
// shut down. A frame is either fully written or reported failed; there is
// no partial-success state.
func (t *Transport) WriteFrame(ctx context.Context, frame []byte) error {
	t.mu.Lock()
	started := t.started
	runCtx := t.runCtx
	t.mu.Unlock()
	if !started {
		return ErrNotStarted
	}

	req := writeReq{frame: frame, done: make(chan error, 1)}
	select {
	case t.writes <- req:
	case <-runCtx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-runCtx.Done():
		// The writer may have finished this frame right as shutdown began.
		select {
		case err := <-req.done:
			return err
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops both goroutines and closes the port.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.mu.Unlock()
	t.wg.Wait()
	return t.port.Close()
}

// writeLoop is the single owner of the write direction. It sleeps through
// the warm-up window once, then services frame requests until cancelled.
func (t *Transport) writeLoop(ctx context.Context) {
	defer t.wg.Done()

	if t.cfg.WarmupDelay > 0 {
		select {
		case <-time.After(t.cfg.WarmupDelay):
		case <-ctx.Done():
			return
		}
	}

	for {
		select {
		case req := <-t.writes:
			req.done <- t.writeBytes(ctx, req.frame)
		case <-ctx.Done():
			return
		}
	}
}

// writeBytes sends the frame one byte at a time, flushing after every byte.
// Each byte is retried with backoff; exhausting retries abandons the rest
// of the frame.
func (t *Transport) writeBytes(ctx context.Context, frame []byte) error {
	for i := range frame {
		if err := t.writeByte(ctx, frame[i]); err != nil {
			return fmt.Errorf("transport: byte %d/%d: %w", i, len(frame), err)
		}
		observability.RecordBytesWritten(1)
	}
	return nil
}

func (t *Transport) writeByte(ctx context.Context, b byte) error {
	var lastErr error
	for attempt := 1; attempt <= t.cfg.WriteAttempts; attempt++ {
		if attempt > 1 {
			observability.RecordWriteRetry()
			select {
			case <-time.After(NextBackoffDelay(t.cfg.Backoff, attempt, t.rng)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		lastErr = t.putByte(b)
		if lastErr == nil {
			return nil
		}
		observability.RecordTransientError("write")
		t.report(fmt.Errorf("transport: write attempt %d: %w", attempt, lastErr))
	}
	return fmt.Errorf("%w: %v", ErrWriteGaveUp, lastErr)
}

// putByte performs one locked write-and-flush of a single byte.
func (t *Transport) putByte(b byte) error {
	t.wire.Lock()
	defer t.wire.Unlock()
	if _, err := t.port.Write([]byte{b}); err != nil {
		return err
	}
	return t.port.Drain()
}

// drainLoop is the single owner of the read direction. It reads one byte at
// a time and forwards it to the sink immediately. Read errors on the open
// connection are transient: they are reported and the loop moves on.
func (t *Transport) drainLoop(ctx context.Context) {
	defer t.wg.Done()

	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := t.getByte(buf)
		if err != nil {
			observability.RecordTransientError("read")
			t.report(fmt.Errorf("transport: drain read: %w", err))
			continue
		}
		if n == 0 {
			// Read timeout expired with nothing pending.
			continue
		}
		observability.RecordBytesRead(1)
		if _, err := t.sink.Write(buf[:1]); err != nil {
			t.report(fmt.Errorf("transport: drain sink: %w", err))
		}
	}
}

// getByte performs one locked bounded read of a single byte.
func (t *Transport) getByte(buf []byte) (int, error) {
	t.wire.Lock()
	defer t.wire.Unlock()
	return t.port.Read(buf)
}

func (t *Transport) report(err error) {
	select {
	case t.errs <- err:
	default:
		log.Debug().Err(err).Msg("transport error report dropped")
	}
}

// WriteAll streams data to an open port one byte at a time with a flush
// after every byte. It is the one-shot flash path; no drain runs beside it.
func WriteAll(port Port, data []byte) error {
	for i := range data {
		if _, err := port.Write(data[i : i+1]); err != nil {
			return fmt.Errorf("transport: flash byte %d/%d: %w", i, len(data), err)
		}
		if err := port.Drain(); err != nil {
			return fmt.Errorf("transport: flash flush %d/%d: %w", i, len(data), err)
		}
		observability.RecordBytesWritten(1)
	}
	return nil
}
