package pe

import (
	"debug/pe"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZacharyZcR/capicheck/internal/pe/petest"
)

func TestGetArchitecture(t *testing.T) {
	tests := []struct {
		name    string
		machine uint16
		want    string
	}{
		{
			name:    "x86",
			machine: pe.IMAGE_FILE_MACHINE_I386,
			want:    "x86",
		},
		{
			name:    "x64",
			machine: pe.IMAGE_FILE_MACHINE_AMD64,
			want:    "x64",
		},
		{
			name:    "ARM64",
			machine: pe.IMAGE_FILE_MACHINE_ARM64,
			want:    "ARM64",
		},
		{
			name:    "Unknown machine",
			machine: 0xFF,
			want:    "未知 (0xFF)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := getArchitecture(tt.machine)
			if got != tt.want {
				t.Errorf("getArchitecture() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnalyzeDLL(t *testing.T) {
	img := petest.Image{DLL: true, Exports: []string{"A", "B"}}
	r := openImage(t, img)

	info, err := NewAnalyzer(r).Analyze()
	require.NoError(t, err)

	assert.True(t, info.DLL)
	assert.Equal(t, "/test.dll", info.FilePath)
	assert.Equal(t, int64(len(img.Build())), info.FileSize)
	assert.Equal(t, "x64", info.Architecture)
	assert.Equal(t, []string{"A", "B"}, info.Exports)
}

func TestAnalyzeNotDLL(t *testing.T) {
	// Exports are present but must not be parsed for a non-DLL image.
	r := openImage(t, petest.Image{Exports: []string{"A"}, BadNameRVA: true})

	info, err := NewAnalyzer(r).Analyze()
	require.NoError(t, err)

	assert.False(t, info.DLL)
	assert.Empty(t, info.Exports)
}

func TestAnalyzeMalformedExports(t *testing.T) {
	r := openImage(t, petest.Image{DLL: true, Exports: []string{"A"}, BadNameRVA: true})

	_, err := NewAnalyzer(r).Analyze()
	require.Error(t, err)
}

func TestOpenErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/notes.txt", []byte("not a portable executable"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/mz.bin", append([]byte("MZ"), make([]byte, 200)...), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{name: "Missing file", path: "/missing.dll"},
		{name: "Short text file", path: "/notes.txt"},
		{name: "MZ without PE signature", path: "/mz.bin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Open(fs, tt.path)
			assert.Error(t, err)
			assert.Nil(t, r)
		})
	}
}
