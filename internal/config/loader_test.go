package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verdict/internal/fsys"
)

func TestDecode(t *testing.T) {
	content := `
general:
  execCmd: ./analyzer --quiet
  timeout: 1500ms
  excludedTests: ["legacy/**"]
warn:
  exactWarningsMatch: false
  batchSize: 3
`
	f, err := Decode("/suite/verdict.yaml", []byte(content))
	require.NoError(t, err)

	require.NotNil(t, f.General)
	assert.Equal(t, "./analyzer --quiet", *f.General.ExecCmd)
	assert.Equal(t, 1500*time.Millisecond, *f.General.Timeout)
	assert.Equal(t, []string{"legacy/**"}, f.General.ExcludedTests)
	require.NotNil(t, f.Warn)
	assert.False(t, *f.Warn.ExactWarningsMatch)
	assert.Equal(t, 3, *f.Warn.BatchSize)
	assert.Nil(t, f.Fix)
}

func TestDecode_Empty(t *testing.T) {
	f, err := Decode("/suite/verdict.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, File{}, f)
}

func TestDecode_UnknownFieldIsParseError(t *testing.T) {
	_, err := Decode("/suite/verdict.yaml", []byte("general:\n  execCommand: x\n"))
	require.Error(t, err)

	var ce ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrorTypeParse, ce.ErrorType)
	assert.Equal(t, 2, ce.LineNumber)
	assert.Equal(t, "verdict.yaml", ce.FileName)
	assert.Contains(t, ce.DetailedError(), "Suggestions:")
}

func TestLoad_MissingFileIsIOError(t *testing.T) {
	_, err := Load(fsys.NewMemFS(), "/nowhere/verdict.yaml")
	require.Error(t, err)

	var ce ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrorTypeIO, ce.ErrorType)
}
