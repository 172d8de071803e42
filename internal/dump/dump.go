// Package dump persists diagnostic copies of wire traffic: the last frame
// handed to the transport, and the one-shot elf.dump flash payload.
package dump

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// DefaultFramePath is where the dispatcher keeps a copy of the most
// recently sent frame. Overwritten on every send, never appended.
const DefaultFramePath = "frame.dump"

// DefaultFlashPath is the one-shot flash payload written by the batch
// variant, kept byte-compatible with the original tool.
const DefaultFlashPath = "elf.dump"

var ErrEmptyPayload = errors.New("dump: empty payload")

// WriteFrame overwrites path with the exact bytes of frame.
func WriteFrame(path string, frame []byte) error {
	if len(frame) == 0 {
		return ErrEmptyPayload
	}
	if err := os.WriteFile(path, frame, 0o644); err != nil {
		return fmt.Errorf("dump write failed (%s): %w", path, err)
	}
	return nil
}

// FlashPayload builds the batch flash artifact:
// LOADPROG ‖ size:LE64 ‖ symbol_addr:LE64 ‖ image bytes. Unlike the
// interactive Load frame it carries no task id; the one-shot tool never had
// one and the receiver's flash path does not expect it.
func FlashPayload(image []byte, symbolAddr uint64) []byte {
	buf := make([]byte, 8+8+8+len(image))
	copy(buf[0:8], "LOADPROG")
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(image)))
	binary.LittleEndian.PutUint64(buf[16:24], symbolAddr)
	copy(buf[24:], image)
	return buf
}

// ReadPayload loads a previously written artifact for the flash step.
func ReadPayload(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dump read failed (%s): %w", path, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	return data, nil
}
