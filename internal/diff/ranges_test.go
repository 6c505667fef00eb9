package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/clang-tidy-reviewer/internal/diff"
	"github.com/bkyoung/clang-tidy-reviewer/internal/domain"
)

func TestBuildIndex_SingleHunk(t *testing.T) {
	patch := `@@ -101,8 +102,11 @@ void f() {
 context
+added
 context
`

	index := diff.BuildIndex([]domain.ChangedFile{
		{Path: "src/a.cc", Patch: patch, HasPatch: true},
	})

	require.Contains(t, index, "src/a.cc")
	assert.Equal(t, []diff.LineRange{{Start: 102, End: 113}}, index["src/a.cc"])
}

func TestBuildIndex_MultipleHunksKeepHeaderOrder(t *testing.T) {
	patch := "@@ -101,8 +102,11 @@\n context\n@@ -123,9 +127,7 @@\n context\n"

	index := diff.BuildIndex([]domain.ChangedFile{
		{Path: "src/a.cc", Patch: patch, HasPatch: true},
	})

	assert.Equal(t, []diff.LineRange{
		{Start: 102, End: 113},
		{Start: 127, End: 134},
	}, index["src/a.cc"])
}

func TestBuildIndex_OmittedLengthDefaultsToOne(t *testing.T) {
	index := diff.BuildIndex([]domain.ChangedFile{
		{Path: "one.cc", Patch: "@@ -5 +7 @@\n-x\n+y\n", HasPatch: true},
	})

	assert.Equal(t, []diff.LineRange{{Start: 7, End: 8}}, index["one.cc"])
}

func TestBuildIndex_FileWithoutPatchIsExcluded(t *testing.T) {
	index := diff.BuildIndex([]domain.ChangedFile{
		{Path: "image.png", HasPatch: false},
		{Path: "src/a.cc", Patch: "@@ -1,2 +1,3 @@\n", HasPatch: true},
	})

	assert.NotContains(t, index, "image.png")
	assert.Contains(t, index, "src/a.cc")
}

func TestBuildIndex_FileWithPatchButNoHunksGetsEmptyRanges(t *testing.T) {
	index := diff.BuildIndex([]domain.ChangedFile{
		{Path: "mode-change", Patch: "old mode 100644\nnew mode 100755\n", HasPatch: true},
	})

	require.Contains(t, index, "mode-change")
	assert.Empty(t, index["mode-change"])
}

func TestLineRangeContains(t *testing.T) {
	r := diff.LineRange{Start: 10, End: 20}

	assert.True(t, r.Contains(10, 19))
	assert.False(t, r.Contains(5, 19))
	assert.False(t, r.Contains(10, 20))
	assert.True(t, r.Contains(15, 15))
}
