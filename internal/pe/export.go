package pe

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// maxNameLen bounds a single export name read.
const maxNameLen = 512

// ErrNotASCII is returned when an export name contains a non-ASCII byte.
var ErrNotASCII = errors.New("导出名称不是ASCII")

// ExportDirectory represents the PE export directory table.
type ExportDirectory struct {
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
}

// exportDataDirectory returns the export entry of the optional header's data directories.
func exportDataDirectory(f *pe.File) pe.DataDirectory {
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		if oh.NumberOfRvaAndSizes > pe.IMAGE_DIRECTORY_ENTRY_EXPORT {
			return oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_EXPORT]
		}
	case *pe.OptionalHeader64:
		if oh.NumberOfRvaAndSizes > pe.IMAGE_DIRECTORY_ENTRY_EXPORT {
			return oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_EXPORT]
		}
	}
	return pe.DataDirectory{}
}

// parseExports extracts exported function names from a PE file, in name table order.
// fileSize bounds every table read from the image.
func parseExports(f *pe.File, r io.ReaderAt, fileSize int64) ([]string, error) {
	dd := exportDataDirectory(f)

	// No exports
	if dd.VirtualAddress == 0 || dd.Size == 0 {
		return nil, nil
	}

	exportDirOffset, err := rvaToOffset(f, dd.VirtualAddress)
	if err != nil {
		return nil, fmt.Errorf("无法定位导出表: %w", err)
	}

	var exportDir ExportDirectory
	sr := io.NewSectionReader(r, int64(exportDirOffset), int64(dd.Size))
	if err := binary.Read(sr, binary.LittleEndian, &exportDir); err != nil {
		return nil, fmt.Errorf("读取导出目录失败: %w", err)
	}

	// No named exports
	if exportDir.NumberOfNames == 0 {
		return nil, nil
	}

	namePointersOffset, err := rvaToOffset(f, exportDir.AddressOfNames)
	if err != nil {
		return nil, fmt.Errorf("无法定位导出名称表: %w", err)
	}

	// The name pointer table must fit in the file before it is allocated.
	tableEnd := int64(namePointersOffset) + int64(exportDir.NumberOfNames)*4
	if tableEnd > fileSize {
		return nil, fmt.Errorf("导出名称数量 %d 超出文件大小 (%d 字节)", exportDir.NumberOfNames, fileSize)
	}

	namePointers := make([]uint32, exportDir.NumberOfNames)
	sr = io.NewSectionReader(r, int64(namePointersOffset), int64(exportDir.NumberOfNames)*4)
	if err := binary.Read(sr, binary.LittleEndian, &namePointers); err != nil {
		return nil, fmt.Errorf("读取导出名称指针失败: %w", err)
	}

	exports := make([]string, 0, len(namePointers))
	for i, nameRVA := range namePointers {
		nameOffset, err := rvaToOffset(f, nameRVA)
		if err != nil {
			return nil, fmt.Errorf("导出名称 #%d: %w", i, err)
		}

		name, err := readCString(r, int64(nameOffset))
		if err != nil {
			return nil, fmt.Errorf("读取导出名称 #%d 失败: %w", i, err)
		}
		if !isASCII(name) {
			return nil, fmt.Errorf("导出名称 #%d %q: %w", i, name, ErrNotASCII)
		}

		exports = append(exports, name)
	}

	return exports, nil
}

// rvaToOffset converts RVA to file offset.
func rvaToOffset(f *pe.File, rva uint32) (uint32, error) {
	for _, section := range f.Sections {
		size := section.VirtualSize
		if size == 0 {
			size = section.Size
		}
		if rva >= section.VirtualAddress && uint64(rva) < uint64(section.VirtualAddress)+uint64(size) {
			return rva - section.VirtualAddress + section.Offset, nil
		}
	}
	return 0, fmt.Errorf("RVA 0x%X 不在任何节区内", rva)
}

// readCString reads a null-terminated string from the reader.
// Strings longer than maxNameLen are truncated.
func readCString(r io.ReaderAt, offset int64) (string, error) {
	var result []byte
	buf := make([]byte, 64)

	for len(result) < maxNameLen {
		n, err := r.ReadAt(buf, offset+int64(len(result)))
		if i := bytes.IndexByte(buf[:n], 0); i >= 0 {
			return string(append(result, buf[:i]...)), nil
		}
		result = append(result, buf[:n]...)
		if err != nil {
			return "", err
		}
	}

	return string(result[:maxNameLen]), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
