// Package elfsym resolves named symbols in linked ELF executables to their
// virtual load addresses.
package elfsym

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
)

var (
	ErrMalformedImage = errors.New("elfsym: malformed image")
	ErrNoSymbolTable  = errors.New("elfsym: image has no symbol table")
	ErrSymbolNotFound = errors.New("elfsym: symbol not found")
)

// ImageInfo is the header summary printed alongside a resolution.
type ImageInfo struct {
	Type    elf.Type
	Machine elf.Machine
	Entry   uint64
}

// Inspect parses the ELF header of image and returns its summary.
func Inspect(image []byte) (ImageInfo, error) {
	f, err := open(image)
	if err != nil {
		return ImageInfo{}, err
	}
	defer f.Close()
	return ImageInfo{Type: f.Type, Machine: f.Machine, Entry: f.Entry}, nil
}

// Resolve returns the load address of the named symbol in image. Matching is
// exact byte equality, no demangling, no prefix matching. When several
// entries share the name, the first in symbol-table order wins. The full
// symbol table (.symtab) is consulted first, .dynsym only when the image
// carries no .symtab.
func Resolve(image []byte, name string) (uint64, error) {
	f, err := open(image)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	syms, err := f.Symbols()
	if errors.Is(err, elf.ErrNoSymbols) {
		syms, err = f.DynamicSymbols()
		if errors.Is(err, elf.ErrNoSymbols) {
			return 0, ErrNoSymbolTable
		}
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedImage, err)
	}

	for _, sym := range syms {
		if sym.Name == name {
			return sym.Value, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrSymbolNotFound, name)
}

func open(image []byte) (*elf.File, error) {
	f, err := elf.NewFile(bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImage, err)
	}
	return f, nil
}
