package dispatch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"taskctl/internal/command"
	"taskctl/internal/elfsym"
	"taskctl/internal/protocol/frame"
	"taskctl/internal/testutil/testlog"
)

type captureWriter struct {
	frames [][]byte
	err    error
}

func (w *captureWriter) WriteFrame(_ context.Context, f []byte) error {
	if w.err != nil {
		return w.err
	}
	cp := make([]byte, len(f))
	copy(cp, f)
	w.frames = append(w.frames, cp)
	return nil
}

func TestDispatchKillWritesFrameAndDump(t *testing.T) {
	testlog.Start(t)
	w := &captureWriter{}
	dumpPath := filepath.Join(t.TempDir(), "frame.dump")
	d := New(w, dumpPath)

	cmd, err := command.NewKill("abc")
	if err != nil {
		t.Fatalf("new kill: %v", err)
	}
	if err := d.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(w.frames) != 1 {
		t.Fatalf("expected one frame, got %d", len(w.frames))
	}
	want := []byte("KILLTASKabc     ")
	if !bytes.Equal(w.frames[0], want) {
		t.Fatalf("frame mismatch: %q", w.frames[0])
	}
	dumped, err := os.ReadFile(dumpPath)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if !bytes.Equal(dumped, want) {
		t.Fatalf("dump mismatch: %q", dumped)
	}
}

func TestDispatchLoadResolvesAndEncodes(t *testing.T) {
	testlog.Start(t)
	img := elfsym.BuildTestImage(0x8000_0000, []elfsym.TestSym{
		{Name: "task_entry", Value: 0x2000_1000},
	})
	imgPath := filepath.Join(t.TempDir(), "app.elf")
	if err := os.WriteFile(imgPath, img, 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	w := &captureWriter{}
	d := New(w, filepath.Join(t.TempDir(), "frame.dump"))

	cmd, err := command.NewLoad(imgPath, "task_entry", "abc")
	if err != nil {
		t.Fatalf("new load: %v", err)
	}
	if err := d.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(w.frames) != 1 {
		t.Fatalf("expected one frame, got %d", len(w.frames))
	}
	f, err := frame.Decode(w.frames[0], frame.DefaultLimits())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Magic != frame.MagicLoad || f.SymbolAddr != 0x2000_1000 {
		t.Fatalf("unexpected frame: magic=%q addr=%#x", f.Magic, f.SymbolAddr)
	}
	if f.TaskID.String() != "abc" {
		t.Fatalf("task id mismatch: %q", f.TaskID.String())
	}
	if f.ImageSize != uint64(len(img)) || !bytes.Equal(f.Image, img) {
		t.Fatalf("image round trip mismatch")
	}
}

func TestDispatchLoadMissingImageIsFatalBeforeIO(t *testing.T) {
	testlog.Start(t)
	w := &captureWriter{}
	d := New(w, filepath.Join(t.TempDir(), "frame.dump"))

	cmd, err := command.NewLoad(filepath.Join(t.TempDir(), "absent.elf"), "main", "t1")
	if err != nil {
		t.Fatalf("new load: %v", err)
	}
	if err := d.Dispatch(context.Background(), cmd); !errors.Is(err, ErrImageUnreadable) {
		t.Fatalf("expected ErrImageUnreadable, got %v", err)
	}
	if len(w.frames) != 0 {
		t.Fatalf("no frame should reach the transport on a fatal encode error")
	}
}

func TestDispatchLoadUnknownSymbolIsFatalBeforeIO(t *testing.T) {
	testlog.Start(t)
	img := elfsym.BuildTestImage(0, []elfsym.TestSym{{Name: "main", Value: 1}})
	imgPath := filepath.Join(t.TempDir(), "app.elf")
	if err := os.WriteFile(imgPath, img, 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	w := &captureWriter{}
	d := New(w, filepath.Join(t.TempDir(), "frame.dump"))
	cmd, err := command.NewLoad(imgPath, "absent", "t1")
	if err != nil {
		t.Fatalf("new load: %v", err)
	}
	if err := d.Dispatch(context.Background(), cmd); !errors.Is(err, elfsym.ErrSymbolNotFound) {
		t.Fatalf("expected ErrSymbolNotFound, got %v", err)
	}
	if len(w.frames) != 0 {
		t.Fatalf("no frame should reach the transport on a fatal encode error")
	}
}

func TestDispatchLogAttachSendsNothing(t *testing.T) {
	testlog.Start(t)
	w := &captureWriter{}
	dumpPath := filepath.Join(t.TempDir(), "frame.dump")
	d := New(w, dumpPath)

	if err := d.Dispatch(context.Background(), command.NewLogAttach()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(w.frames) != 0 {
		t.Fatalf("log attach must not write a frame")
	}
	if _, err := os.Stat(dumpPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("log attach must not write a dump")
	}
}

func TestDispatchFailedDumpDoesNotBlockDelivery(t *testing.T) {
	testlog.Start(t)
	w := &captureWriter{}
	d := New(w, filepath.Join(t.TempDir(), "no", "such", "dir", "frame.dump"))

	if err := d.Dispatch(context.Background(), command.NewList()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(w.frames) != 1 || !bytes.Equal(w.frames[0], []byte("LISTTASK")) {
		t.Fatalf("list frame not delivered: %v", w.frames)
	}
}
