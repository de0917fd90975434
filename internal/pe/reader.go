// Package pe provides PE file reading and export table extraction.
package pe

import (
	"debug/pe"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// Reader wraps debug/pe.File with additional metadata.
//
// Only the headers and section table are loaded on Open; data directories
// are parsed on demand.
type Reader struct {
	file     *pe.File
	raw      afero.File
	filepath string
	filesize int64
}

// Open opens a PE file for reading from fs.
func Open(fs afero.Fs, filepath string) (*Reader, error) {
	raw, err := fs.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("打开PE文件失败: %w", err)
	}

	stat, err := raw.Stat()
	if err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("获取文件信息失败: %w", err)
	}

	f, err := pe.NewFile(raw)
	if err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("解析PE头失败: %w", err)
	}

	return &Reader{
		file:     f,
		raw:      raw,
		filepath: filepath,
		filesize: stat.Size(),
	}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	_ = r.file.Close()
	return r.raw.Close()
}

// File returns the underlying debug/pe.File.
func (r *Reader) File() *pe.File {
	return r.file
}

// RawFile returns the image bytes for direct offset reads.
func (r *Reader) RawFile() io.ReaderAt {
	return r.raw
}

// FilePath returns the file path.
func (r *Reader) FilePath() string {
	return r.filepath
}

// FileSize returns the file size in bytes.
func (r *Reader) FileSize() int64 {
	return r.filesize
}

// IsDLL reports whether the IMAGE_FILE_DLL characteristic is set.
func (r *Reader) IsDLL() bool {
	return r.file.Characteristics&pe.IMAGE_FILE_DLL != 0
}
