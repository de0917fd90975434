package pe

import (
	"debug/pe"
	"fmt"
)

// Info contains analyzed PE file information.
type Info struct {
	FilePath     string
	FileSize     int64
	Architecture string
	DLL          bool
	Exports      []string
}

// Analyzer extracts information from PE files.
type Analyzer struct {
	reader *Reader
}

// NewAnalyzer creates a new analyzer for the given reader.
func NewAnalyzer(r *Reader) *Analyzer {
	return &Analyzer{reader: r}
}

// Analyze extracts the export table of a DLL.
// Images without the DLL characteristic are returned with DLL unset and
// their data directories left unparsed.
func (a *Analyzer) Analyze() (*Info, error) {
	f := a.reader.File()

	info := &Info{
		FilePath:     a.reader.FilePath(),
		FileSize:     a.reader.FileSize(),
		Architecture: getArchitecture(f.Machine),
		DLL:          a.reader.IsDLL(),
	}

	if !info.DLL {
		return info, nil
	}

	exports, err := parseExports(f, a.reader.RawFile(), a.reader.FileSize())
	if err != nil {
		return nil, fmt.Errorf("解析导出表失败: %w", err)
	}
	info.Exports = exports

	return info, nil
}

func getArchitecture(machine uint16) string {
	switch machine {
	case pe.IMAGE_FILE_MACHINE_I386:
		return "x86"
	case pe.IMAGE_FILE_MACHINE_AMD64:
		return "x64"
	case pe.IMAGE_FILE_MACHINE_ARM:
		return "ARM"
	case pe.IMAGE_FILE_MACHINE_ARM64:
		return "ARM64"
	default:
		return fmt.Sprintf("未知 (0x%X)", machine)
	}
}
