package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verdict/internal/config"
	"verdict/internal/fsys"
)

func TestBatch(t *testing.T) {
	files := []string{"a", "b", "c", "d", "e"}

	assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}}, Batch(files, 1))
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, Batch(files, 2))
	assert.Equal(t, [][]string{files}, Batch(files, 10))
	assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}}, Batch(files, 0))
	assert.Nil(t, Batch(nil, 3))
}

func TestBatch_ChunksDoNotAlias(t *testing.T) {
	files := []string{"a", "b", "c"}
	batches := Batch(files, 2)
	batches[0] = append(batches[0], "x")
	assert.Equal(t, "c", files[2])
}

func TestResourceDirs(t *testing.T) {
	fs := fsys.NewMemFS().
		Add("/s/verdict.yaml", "warn: {}\n").
		Add("/s/plain/ATest.java", "").
		Add("/s/plain/inner/BTest.java", "").
		Add("/s/owned/verdict.yaml", "").
		Add("/s/owned/CTest.java", "")

	dirs, err := ResourceDirs(fs, entryNode(t, fs, "/s"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/s", "/s/plain", "/s/plain/inner"}, dirs)
}

func TestNew(t *testing.T) {
	env := Env{FS: fsys.NewMemFS(), Exec: &fakeExecutor{}}

	p, err := New(config.KindWarn, env)
	require.NoError(t, err)
	assert.Equal(t, config.KindWarn, p.Kind())

	p, err = New(config.KindFix, env)
	require.NoError(t, err)
	assert.Equal(t, config.KindFix, p.Kind())

	_, err = New("lint", env)
	assert.Error(t, err)
}

func TestMatchExcluded(t *testing.T) {
	patterns := []string{"legacy/**", "*Slow*"}

	assert.Equal(t, "legacy/**", MatchExcluded(patterns, "/s", "/s/legacy/deep/ATest.java"))
	assert.Equal(t, "*Slow*", MatchExcluded(patterns, "/s", "/s/x/VerySlowTest.java"))
	assert.Empty(t, MatchExcluded(patterns, "/s", "/s/x/ATest.java"))
	assert.Empty(t, MatchExcluded(nil, "/s", "/s/legacy/ATest.java"))
}
