// Package petest builds minimal PE32+ images for tests.
package petest

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
)

const (
	peOffset      = 0x40
	sectionOffset = 0x200
	sectionRVA    = 0x1000
	exportDirSize = 40
)

// Image describes the image to synthesize.
type Image struct {
	// DLL sets IMAGE_FILE_DLL in the file header.
	DLL bool
	// Exports are written to an export directory in name table order.
	// When nil and NoExportDir is false an empty export directory is written.
	Exports []string
	// NoExportDir leaves the export data directory empty.
	NoExportDir bool
	// BadNameRVA points the first name pointer outside every section.
	BadNameRVA bool
	// NumberOfNames, when nonzero, replaces the name count in the directory.
	NumberOfNames uint32
}

// Build returns the bytes of a PE32+ image.
func (img Image) Build() []byte {
	edata := img.exportSection()

	var buf bytes.Buffer
	dos := make([]byte, peOffset)
	dos[0], dos[1] = 'M', 'Z'
	binary.LittleEndian.PutUint32(dos[0x3c:], peOffset)
	buf.Write(dos)
	buf.WriteString("PE\x00\x00")

	characteristics := uint16(pe.IMAGE_FILE_EXECUTABLE_IMAGE | pe.IMAGE_FILE_LARGE_ADDRESS_AWARE)
	if img.DLL {
		characteristics |= pe.IMAGE_FILE_DLL
	}

	var oh pe.OptionalHeader64
	fh := pe.FileHeader{
		Machine:              pe.IMAGE_FILE_MACHINE_AMD64,
		NumberOfSections:     1,
		SizeOfOptionalHeader: uint16(binary.Size(oh)),
		Characteristics:      characteristics,
	}
	write(&buf, fh)

	oh.Magic = 0x20b
	oh.AddressOfEntryPoint = sectionRVA
	oh.ImageBase = 0x180000000
	oh.SectionAlignment = 0x1000
	oh.FileAlignment = 0x200
	oh.MajorSubsystemVersion = 6
	oh.SizeOfImage = sectionRVA + 0x1000
	oh.SizeOfHeaders = sectionOffset
	oh.Subsystem = pe.IMAGE_SUBSYSTEM_WINDOWS_GUI
	oh.NumberOfRvaAndSizes = 16
	if !img.NoExportDir {
		oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_EXPORT] = pe.DataDirectory{
			VirtualAddress: sectionRVA,
			Size:           uint32(len(edata)),
		}
	}
	write(&buf, oh)

	var sh pe.SectionHeader32
	copy(sh.Name[:], ".edata")
	sh.VirtualSize = uint32(len(edata))
	sh.VirtualAddress = sectionRVA
	sh.SizeOfRawData = uint32(len(edata))
	sh.PointerToRawData = sectionOffset
	sh.Characteristics = pe.IMAGE_SCN_CNT_INITIALIZED_DATA | pe.IMAGE_SCN_MEM_READ
	write(&buf, sh)

	buf.Write(make([]byte, sectionOffset-buf.Len()))
	buf.Write(edata)
	return buf.Bytes()
}

// exportSection lays out the directory, the name pointer table and the names.
func (img Image) exportSection() []byte {
	n := uint32(len(img.Exports))
	namesRVA := uint32(sectionRVA + exportDirSize)
	ordinalsRVA := namesRVA + 4*n
	stringsRVA := ordinalsRVA + 2*n

	dir := struct {
		Characteristics       uint32
		TimeDateStamp         uint32
		MajorVersion          uint16
		MinorVersion          uint16
		Name                  uint32
		Base                  uint32
		NumberOfFunctions     uint32
		NumberOfNames         uint32
		AddressOfFunctions    uint32
		AddressOfNames        uint32
		AddressOfNameOrdinals uint32
	}{
		Base:                  1,
		NumberOfNames:         n,
		AddressOfNames:        namesRVA,
		AddressOfNameOrdinals: ordinalsRVA,
	}

	var pointers []uint32
	var ordinals []uint16
	var names bytes.Buffer
	for i, name := range img.Exports {
		pointers = append(pointers, stringsRVA+uint32(names.Len()))
		ordinals = append(ordinals, uint16(i))
		names.WriteString(name)
		names.WriteByte(0)
	}
	if img.NumberOfNames != 0 {
		dir.NumberOfNames = img.NumberOfNames
	}
	if img.BadNameRVA && n > 0 {
		pointers[0] = 0xFFFF0000
	}

	var buf bytes.Buffer
	write(&buf, dir)
	if n > 0 {
		write(&buf, pointers)
		write(&buf, ordinals)
	}
	buf.Write(names.Bytes())
	return buf.Bytes()
}

func write(buf *bytes.Buffer, v any) {
	// bytes.Buffer writes never fail.
	_ = binary.Write(buf, binary.LittleEndian, v)
}
