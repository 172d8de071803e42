package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"taskctl/internal/command"
	"taskctl/internal/testutil/testlog"
)

func mustID(t *testing.T, raw string) command.TaskID {
	t.Helper()
	id, err := command.NewTaskID(raw)
	if err != nil {
		t.Fatalf("task id %q: %v", raw, err)
	}
	return id
}

func TestEncodeLoadLayout(t *testing.T) {
	testlog.Start(t)
	image := bytes.Repeat([]byte{0xA5}, 1024)
	buf, err := EncodeLoad(mustID(t, "abc"), 0x20001000, image, DefaultLimits())
	if err != nil {
		t.Fatalf("encode load: %v", err)
	}
	if got := string(buf[0:8]); got != "LOADPROG" {
		t.Fatalf("magic mismatch: %q", got)
	}
	if got := binary.LittleEndian.Uint64(buf[8:16]); got != 1024 {
		t.Fatalf("size mismatch: %d", got)
	}
	if got := binary.LittleEndian.Uint64(buf[16:24]); got != 0x20001000 {
		t.Fatalf("addr mismatch: %#x", got)
	}
	if got := string(buf[24:32]); got != "abc     " {
		t.Fatalf("task id mismatch: %q", got)
	}
	if !bytes.Equal(buf[32:], image) {
		t.Fatalf("image bytes mismatch")
	}
	if len(buf) != 32+1024 {
		t.Fatalf("unexpected frame length %d", len(buf))
	}
}

func TestEncodeKillTruncatesLongID(t *testing.T) {
	testlog.Start(t)
	buf := EncodeKill(mustID(t, "toolongid"))
	want := append([]byte("KILLTASK"), []byte("toolongi")...)
	if !bytes.Equal(buf, want) {
		t.Fatalf("kill frame mismatch: %q", buf)
	}
}

func TestEncodeListIsMagicOnly(t *testing.T) {
	testlog.Start(t)
	buf := EncodeList()
	if len(buf) != MagicLen {
		t.Fatalf("list frame length %d", len(buf))
	}
	if string(buf) != "LISTTASK" {
		t.Fatalf("list magic mismatch: %q", buf)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	testlog.Start(t)
	image := []byte{1, 2, 3, 4}
	a, err := EncodeLoad(mustID(t, "t1"), 0xBEEF, image, DefaultLimits())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, err := EncodeLoad(mustID(t, "t1"), 0xBEEF, image, DefaultLimits())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("same command encoded to different bytes")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	testlog.Start(t)
	image := bytes.Repeat([]byte{0x42}, 512)
	buf, err := EncodeLoad(mustID(t, "worker"), 0x8000_0400, image, DefaultLimits())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	f, err := Decode(buf, DefaultLimits())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Magic != MagicLoad {
		t.Fatalf("magic mismatch: %q", f.Magic)
	}
	if f.ImageSize != 512 || f.SymbolAddr != 0x8000_0400 {
		t.Fatalf("header mismatch: size=%d addr=%#x", f.ImageSize, f.SymbolAddr)
	}
	if f.TaskID.String() != "worker" {
		t.Fatalf("task id mismatch: %q", f.TaskID.String())
	}
	if !bytes.Equal(f.Image, image) {
		t.Fatalf("image mismatch")
	}
}

func TestDecodeTaskFrames(t *testing.T) {
	testlog.Start(t)
	f, err := Decode(EncodeRelaunch(mustID(t, "svc")), DefaultLimits())
	if err != nil {
		t.Fatalf("decode relaunch: %v", err)
	}
	if f.Magic != MagicRelaunch || f.TaskID.String() != "svc" {
		t.Fatalf("relaunch mismatch: %+v", f)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	testlog.Start(t)
	if _, err := Decode([]byte("LOAD"), DefaultLimits()); !errors.Is(err, ErrShortFrame) {
		t.Fatalf("expected ErrShortFrame, got %v", err)
	}
	if _, err := Decode([]byte("NOTMAGIC"), DefaultLimits()); !errors.Is(err, ErrUnknownMagic) {
		t.Fatalf("expected ErrUnknownMagic, got %v", err)
	}
	if _, err := Decode([]byte("LISTPROG"), DefaultLimits()); !errors.Is(err, ErrLegacyMagic) {
		t.Fatalf("expected ErrLegacyMagic, got %v", err)
	}
	if _, err := Decode(append(EncodeList(), 0x00), DefaultLimits()); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("expected ErrTrailingBytes, got %v", err)
	}
}

func TestDecodeRejectsSizeMismatch(t *testing.T) {
	testlog.Start(t)
	buf, err := EncodeLoad(mustID(t, "t"), 1, []byte{1, 2, 3}, DefaultLimits())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(buf[:len(buf)-1], DefaultLimits()); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch, got %v", err)
	}
}

func TestEncodeLoadEnforcesLimit(t *testing.T) {
	testlog.Start(t)
	limits := Limits{MaxImageBytes: 8}
	if _, err := EncodeLoad(mustID(t, "t"), 0, make([]byte, 9), limits); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}
