package tidy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/clang-tidy-reviewer/internal/domain"
	"github.com/bkyoung/clang-tidy-reviewer/internal/tidy"
)

const nestedFixes = `---
MainSourceFile: '/repo/src/a.cc'
Diagnostics:
  - DiagnosticName: modernize-use-nullptr
    DiagnosticMessage:
      Message: use nullptr
      FilePath: '/repo/src/a.cc'
      FileOffset: 120
      Replacements:
        - FilePath: '/repo/src/a.cc'
          Offset: 120
          Length: 4
          ReplacementText: nullptr
    Level: Warning
`

const flatFixes = `---
MainSourceFile: '/repo/src/a.cc'
Diagnostics:
  - DiagnosticName: readability-magic-numbers
    Message: magic number
    FilePath: '/repo/src/a.cc'
    FileOffset: 42
    Replacements: []
    Level: Error
`

func TestParse_NestedSchema(t *testing.T) {
	report, err := tidy.Parse([]byte(nestedFixes))
	require.NoError(t, err)
	require.Len(t, report.Diagnostics, 1)

	d := report.Diagnostics[0]
	assert.Equal(t, "modernize-use-nullptr", d.Name)
	assert.Equal(t, domain.LevelWarning, d.Level)
	assert.Equal(t, "use nullptr", d.Message)
	assert.Equal(t, "/repo/src/a.cc", d.FilePath)
	assert.Equal(t, 120, d.FileOffset)
	require.Len(t, d.Replacements, 1)
	assert.Equal(t, domain.Replacement{
		FilePath: "/repo/src/a.cc",
		Offset:   120,
		Length:   4,
		Text:     "nullptr",
	}, d.Replacements[0])
}

func TestParse_LegacyFlatSchemaIsLifted(t *testing.T) {
	report, err := tidy.Parse([]byte(flatFixes))
	require.NoError(t, err)
	require.Len(t, report.Diagnostics, 1)

	d := report.Diagnostics[0]
	assert.Equal(t, "readability-magic-numbers", d.Name)
	assert.Equal(t, domain.LevelError, d.Level)
	assert.Equal(t, "magic number", d.Message)
	assert.Equal(t, 42, d.FileOffset)
	assert.Empty(t, d.Replacements)
}

func TestParse_UnknownLevelIsCarriedThrough(t *testing.T) {
	report, err := tidy.Parse([]byte(`
Diagnostics:
  - DiagnosticName: some-check
    Message: msg
    FilePath: a.cc
    FileOffset: 0
    Level: Fixit
`))
	require.NoError(t, err)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, domain.Level("Fixit"), report.Diagnostics[0].Level)
	assert.False(t, report.Diagnostics[0].Level.Known())
}

func TestParse_Malformed(t *testing.T) {
	_, err := tidy.Parse([]byte(":\n  - not yaml"))
	assert.Error(t, err)
}

func TestLoad_MissingFileMeansNoFindings(t *testing.T) {
	report, err := tidy.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.True(t, report.Empty())
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(nestedFixes), 0o644))

	report, err := tidy.Load(path)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.False(t, report.Empty())
	assert.Equal(t, "/repo/src/a.cc", report.MainSourceFile)
}
