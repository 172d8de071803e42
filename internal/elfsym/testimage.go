package elfsym

import (
	"debug/elf"
	"encoding/binary"
)

// TestSym is one symbol-table entry for synthetic test images.
type TestSym struct {
	Name  string
	Value uint64
}

// BuildTestImage assembles a minimal ELF64 little-endian executable carrying
// a .symtab with the given entries, in the given table order. Test helper;
// the images are valid enough for debug/elf but carry no loadable segments.
func BuildTestImage(entry uint64, syms []TestSym) []byte {
	const (
		ehdrLen = 64
		symLen  = 24
		shdrLen = 64
	)

	strtab := []byte{0}
	nameOff := make([]uint32, len(syms))
	for i, s := range syms {
		nameOff[i] = uint32(len(strtab))
		strtab = append(strtab, []byte(s.Name)...)
		strtab = append(strtab, 0)
	}

	symtab := make([]byte, symLen*(len(syms)+1)) // entry 0 stays null
	for i, s := range syms {
		off := symLen * (i + 1)
		binary.LittleEndian.PutUint32(symtab[off:], nameOff[i])
		symtab[off+4] = elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC)
		binary.LittleEndian.PutUint16(symtab[off+6:], 1)
		binary.LittleEndian.PutUint64(symtab[off+8:], s.Value)
	}

	shstrtab := []byte("\x00.symtab\x00.strtab\x00.shstrtab\x00")

	symtabOff := uint64(ehdrLen)
	strtabOff := symtabOff + uint64(len(symtab))
	shstrtabOff := strtabOff + uint64(len(strtab))
	shOff := (shstrtabOff + uint64(len(shstrtab)) + 7) &^ 7

	shdr := func(name uint32, typ elf.SectionType, off, size uint64, link, info uint32, align, entsize uint64) []byte {
		b := make([]byte, shdrLen)
		binary.LittleEndian.PutUint32(b[0:], name)
		binary.LittleEndian.PutUint32(b[4:], uint32(typ))
		binary.LittleEndian.PutUint64(b[24:], off)
		binary.LittleEndian.PutUint64(b[32:], size)
		binary.LittleEndian.PutUint32(b[40:], link)
		binary.LittleEndian.PutUint32(b[44:], info)
		binary.LittleEndian.PutUint64(b[48:], align)
		binary.LittleEndian.PutUint64(b[56:], entsize)
		return b
	}

	ehdr := make([]byte, ehdrLen)
	copy(ehdr, elf.ELFMAG)
	ehdr[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	ehdr[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	ehdr[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	binary.LittleEndian.PutUint16(ehdr[16:], uint16(elf.ET_EXEC))
	binary.LittleEndian.PutUint16(ehdr[18:], uint16(elf.EM_RISCV))
	binary.LittleEndian.PutUint32(ehdr[20:], 1)
	binary.LittleEndian.PutUint64(ehdr[24:], entry)
	binary.LittleEndian.PutUint64(ehdr[40:], shOff)
	binary.LittleEndian.PutUint16(ehdr[52:], ehdrLen)
	binary.LittleEndian.PutUint16(ehdr[58:], shdrLen)
	binary.LittleEndian.PutUint16(ehdr[60:], 4)
	binary.LittleEndian.PutUint16(ehdr[62:], 3)

	img := append([]byte{}, ehdr...)
	img = append(img, symtab...)
	img = append(img, strtab...)
	img = append(img, shstrtab...)
	for uint64(len(img)) < shOff {
		img = append(img, 0)
	}
	img = append(img, make([]byte, shdrLen)...) // null section
	img = append(img, shdr(1, elf.SHT_SYMTAB, symtabOff, uint64(len(symtab)), 2, 1, 8, symLen)...)
	img = append(img, shdr(9, elf.SHT_STRTAB, strtabOff, uint64(len(strtab)), 0, 0, 1, 0)...)
	img = append(img, shdr(17, elf.SHT_STRTAB, shstrtabOff, uint64(len(shstrtab)), 0, 0, 1, 0)...)
	return img
}
