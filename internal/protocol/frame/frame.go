package frame

import (
	"encoding/binary"
	"errors"

	"taskctl/internal/command"
)

// MagicLen is the fixed width of every frame's leading magic tag.
const MagicLen = 8

// Frame magics, exactly 8 ASCII bytes each. The first bytes of every frame
// are one of these tags; the embedded receiver switches on them with a flat
// byte compare.
const (
	MagicLoad     = "LOADPROG"
	MagicKill     = "KILLTASK"
	MagicRelaunch = "RELAUNCH"
	// MagicList is the canonical list tag. Earlier firmware builds drifted
	// between "LISTPROG" and "LISTTASK"; "LISTTASK" is canonical and the
	// stale spelling is rejected on decode.
	MagicList = "LISTTASK"

	legacyMagicList = "LISTPROG"
)

const (
	u64Len        = 8
	taskFrameLen  = MagicLen + command.TaskIDLen
	loadHeaderLen = MagicLen + u64Len + u64Len + command.TaskIDLen
)

var (
	ErrShortFrame    = errors.New("frame: short frame")
	ErrUnknownMagic  = errors.New("frame: unknown magic")
	ErrLegacyMagic   = errors.New("frame: stale list magic")
	ErrImageTooLarge = errors.New("frame: image too large")
	ErrSizeMismatch  = errors.New("frame: image size field mismatch")
	ErrTrailingBytes = errors.New("frame: trailing bytes after payload")
)

// Limits constrains decode/encode memory use.
type Limits struct {
	MaxImageBytes uint64
}

func DefaultLimits() Limits {
	return Limits{MaxImageBytes: 64 * 1024 * 1024}
}

// EncodeLoad builds a Load frame:
// LOADPROG ‖ size:LE64 ‖ symbol_addr:LE64 ‖ task_id[8] ‖ image bytes.
func EncodeLoad(id command.TaskID, symbolAddr uint64, image []byte, limits Limits) ([]byte, error) {
	if uint64(len(image)) > limits.MaxImageBytes {
		return nil, ErrImageTooLarge
	}
	buf := make([]byte, loadHeaderLen+len(image))
	copy(buf[0:MagicLen], MagicLoad)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(image)))
	binary.LittleEndian.PutUint64(buf[16:24], symbolAddr)
	copy(buf[24:32], id[:])
	copy(buf[32:], image)
	return buf, nil
}

// EncodeKill builds a Kill frame: KILLTASK ‖ task_id[8].
func EncodeKill(id command.TaskID) []byte {
	return encodeTaskFrame(MagicKill, id)
}

// EncodeRelaunch builds a Relaunch frame: RELAUNCH ‖ task_id[8].
func EncodeRelaunch(id command.TaskID) []byte {
	return encodeTaskFrame(MagicRelaunch, id)
}

// EncodeList builds a List frame: the 8-byte magic alone.
func EncodeList() []byte {
	buf := make([]byte, MagicLen)
	copy(buf, MagicList)
	return buf
}

func encodeTaskFrame(magic string, id command.TaskID) []byte {
	buf := make([]byte, taskFrameLen)
	copy(buf[0:MagicLen], magic)
	copy(buf[MagicLen:], id[:])
	return buf
}

// Frame is one decoded wire frame. ImageSize, SymbolAddr and Image are set
// only for Load; TaskID only for Load, Kill and Relaunch.
type Frame struct {
	Magic      string
	TaskID     command.TaskID
	ImageSize  uint64
	SymbolAddr uint64
	Image      []byte
}

// Decode parses one complete frame from b. It exists for the diagnostic dump
// path and tests; the embedded receiver is the production parser.
func Decode(b []byte, limits Limits) (Frame, error) {
	if len(b) < MagicLen {
		return Frame{}, ErrShortFrame
	}
	magic := string(b[0:MagicLen])
	switch magic {
	case MagicList:
		if len(b) != MagicLen {
			return Frame{}, ErrTrailingBytes
		}
		return Frame{Magic: magic}, nil
	case MagicKill, MagicRelaunch:
		if len(b) < taskFrameLen {
			return Frame{}, ErrShortFrame
		}
		if len(b) != taskFrameLen {
			return Frame{}, ErrTrailingBytes
		}
		var id command.TaskID
		copy(id[:], b[MagicLen:taskFrameLen])
		return Frame{Magic: magic, TaskID: id}, nil
	case MagicLoad:
		if len(b) < loadHeaderLen {
			return Frame{}, ErrShortFrame
		}
		size := binary.LittleEndian.Uint64(b[8:16])
		if size > limits.MaxImageBytes {
			return Frame{}, ErrImageTooLarge
		}
		if uint64(len(b)-loadHeaderLen) != size {
			return Frame{}, ErrSizeMismatch
		}
		var id command.TaskID
		copy(id[:], b[24:32])
		image := make([]byte, size)
		copy(image, b[loadHeaderLen:])
		return Frame{
			Magic:      magic,
			TaskID:     id,
			ImageSize:  size,
			SymbolAddr: binary.LittleEndian.Uint64(b[16:24]),
			Image:      image,
		}, nil
	case legacyMagicList:
		return Frame{}, ErrLegacyMagic
	default:
		return Frame{}, ErrUnknownMagic
	}
}
