// Package capi collects the C API symbols a source file resolves dynamically
// and checks them against a DLL's export list.
package capi

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/grafana/regexp"
	"github.com/spf13/afero"
)

// CompanionFile is the source file scanned for GetProcAddress lookups.
const CompanionFile = "pyinterpret.cpp"

// procAddressPattern captures the text between the last two double quotes
// on a line containing a GetProcAddress( call.
var procAddressPattern = regexp.MustCompile(`^.*GetProcAddress\(.*"(.*)".*$`)

// Scanner extracts symbol names passed to GetProcAddress.
type Scanner struct {
	fs afero.Fs
}

// NewScanner creates a scanner reading from fs.
func NewScanner(fs afero.Fs) *Scanner {
	return &Scanner{fs: fs}
}

// ScanFile returns the referenced symbols of the file at path, one per
// matching line, in file order. A missing file yields no symbols.
func (s *Scanner) ScanFile(path string) ([]string, error) {
	f, err := s.fs.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("打开源文件失败: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("获取文件信息失败: %w", err)
	}
	if !stat.Mode().IsRegular() {
		return nil, nil
	}

	symbols, err := Scan(f)
	if err != nil {
		return nil, fmt.Errorf("读取源文件 %s 失败: %w", path, err)
	}
	return symbols, nil
}

// Scan returns the referenced symbols read from r.
// Lines end at "\n", "\r\n" or a lone "\r" and have no length limit.
func Scan(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var symbols []string
	for _, line := range splitLines(string(data)) {
		if name, ok := matchLine(line); ok {
			symbols = append(symbols, name)
		}
	}

	return symbols, nil
}

// splitLines splits text on any newline convention.
func splitLines(text string) []string {
	var lines []string
	for text != "" {
		i := strings.IndexAny(text, "\r\n")
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i])
		if text[i] == '\r' && i+1 < len(text) && text[i+1] == '\n' {
			i++
		}
		text = text[i+1:]
	}
	return lines
}

func matchLine(line string) (string, bool) {
	m := procAddressPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	return m[1], true
}
