// Package dispatch maps validated commands onto the resolver, the frame
// encoder and the transport.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"taskctl/internal/command"
	"taskctl/internal/dump"
	"taskctl/internal/elfsym"
	"taskctl/internal/observability"
	"taskctl/internal/protocol/frame"
)

var ErrImageUnreadable = errors.New("dispatch: image unreadable")

// FrameWriter is the transport surface the dispatcher needs.
type FrameWriter interface {
	WriteFrame(ctx context.Context, frame []byte) error
}

// Dispatcher turns one command into at most one wire frame, keeps a
// diagnostic copy, and hands the frame to the transport.
type Dispatcher struct {
	writer   FrameWriter
	dumpPath string
	limits   frame.Limits
}

func New(writer FrameWriter, dumpPath string) *Dispatcher {
	if dumpPath == "" {
		dumpPath = dump.DefaultFramePath
	}
	return &Dispatcher{writer: writer, dumpPath: dumpPath, limits: frame.DefaultLimits()}
}

// Dispatch encodes and sends cmd. A command either fully encodes and is
// fully handed to the transport, or nothing is sent: all encode-stage
// failures return before any device I/O. LogAttach sends nothing; the
// caller keeps the process alive so the drain stays attached.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd command.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if cmd.Kind == command.KindLogAttach {
		log.Info().Msg("log attach: no frame, drain only")
		return nil
	}

	frameBytes, err := d.encode(cmd)
	if err != nil {
		return err
	}

	// Diagnostic copy is fire-and-forget: a failed dump never blocks
	// delivery.
	if err := dump.WriteFrame(d.dumpPath, frameBytes); err != nil {
		log.Warn().Err(err).Str("path", d.dumpPath).Msg("frame dump failed")
	}

	observability.RecordFrameSent(cmd.Kind.String())
	log.Info().
		Str("command", cmd.Kind.String()).
		Str("task_id", cmd.TaskID.String()).
		Int("frame_bytes", len(frameBytes)).
		Msg("sending frame")
	return d.writer.WriteFrame(ctx, frameBytes)
}

func (d *Dispatcher) encode(cmd command.Command) ([]byte, error) {
	switch cmd.Kind {
	case command.KindLoad:
		image, err := os.ReadFile(cmd.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImageUnreadable, err)
		}
		addr, err := elfsym.Resolve(image, cmd.SymbolName)
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("symbol", cmd.SymbolName).
			Str("addr", fmt.Sprintf("0x%X", addr)).
			Int("image_bytes", len(image)).
			Msg("symbol resolved")
		return frame.EncodeLoad(cmd.TaskID, addr, image, d.limits)
	case command.KindKill:
		return frame.EncodeKill(cmd.TaskID), nil
	case command.KindRelaunch:
		return frame.EncodeRelaunch(cmd.TaskID), nil
	case command.KindList:
		return frame.EncodeList(), nil
	default:
		return nil, fmt.Errorf("dispatch: no frame for kind %s", cmd.Kind)
	}
}
