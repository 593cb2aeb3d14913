package fsys

import (
	"errors"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemFS_AddAndRead(t *testing.T) {
	m := NewMemFS().Add("/project/src/A.java", "class A {}")

	data, err := m.ReadFile("/project/src/A.java")
	require.NoError(t, err)
	assert.Equal(t, "class A {}", string(data))

	assert.True(t, IsDir(m, "/project/src"))
	assert.True(t, IsRegular(m, "/project/src/A.java"))
	assert.False(t, IsDir(m, "/project/src/A.java"))
	assert.True(t, IsDir(m, "/"))
}

func TestMemFS_ReadDirSorted(t *testing.T) {
	m := NewMemFS().
		Add("/p/b.txt", "").
		Add("/p/a.txt", "").
		Add("/p/sub/c.txt", "")

	entries, err := m.ReadDir("/p")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "sub"}, names)
}

func TestMemFS_WriteRequiresParent(t *testing.T) {
	m := NewMemFS()
	err := m.WriteFile("/missing/file.txt", []byte("x"), 0o644)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemFS_MkdirFailsWhenExists(t *testing.T) {
	m := NewMemFS()
	require.NoError(t, m.Mkdir("/tmp/run-1", 0o700))

	err := m.Mkdir("/tmp/run-1", 0o700)
	assert.True(t, errors.Is(err, fs.ErrExist))
}

func TestMemFS_RemoveAll(t *testing.T) {
	m := NewMemFS().
		Add("/tmp/run/stdout.txt", "out").
		Add("/tmp/run/stderr.txt", "err").
		Add("/tmp/runner.txt", "keep")

	require.NoError(t, m.RemoveAll("/tmp/run"))

	_, err := m.Stat("/tmp/run")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.True(t, IsRegular(m, "/tmp/runner.txt"))
}

func TestMemFS_CreateAppendsConcurrently(t *testing.T) {
	m := NewMemFS()
	w, err := m.Create("/tmp/out.txt")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = w.Write([]byte("x"))
		}()
	}
	wg.Wait()
	require.NoError(t, w.Close())

	data, err := m.ReadFile("/tmp/out.txt")
	require.NoError(t, err)
	assert.Len(t, data, 50)

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, fs.ErrClosed)
}

func TestMemFS_SetModTime(t *testing.T) {
	m := NewMemFS()
	require.NoError(t, m.MkdirAll("/tmp/old", 0o755))
	past := time.Now().Add(-2 * time.Hour)
	m.SetModTime("/tmp/old", past)

	fi, err := m.Stat("/tmp/old")
	require.NoError(t, err)
	assert.True(t, fi.ModTime().Equal(past))
}
