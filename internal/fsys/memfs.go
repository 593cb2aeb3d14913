package fsys

import (
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing/fstest"
	"time"
)

// MemFS is an in-memory FS rooted at "/". It is safe for concurrent use.
type MemFS struct {
	mu    sync.RWMutex
	files fstest.MapFS
	now   func() time.Time
}

var _ FS = (*MemFS)(nil)

// NewMemFS returns an empty MemFS containing only the temp directory "/tmp".
func NewMemFS() *MemFS {
	m := &MemFS{files: fstest.MapFS{}, now: time.Now}
	m.files["tmp"] = &fstest.MapFile{Mode: fs.ModeDir | 0o755, ModTime: m.now()}
	return m
}

// key converts a host path to the unrooted slash form fstest.MapFS expects.
func key(name string) string {
	p := path.Clean("/" + filepath.ToSlash(name))
	if p == "/" {
		return "."
	}
	return strings.TrimPrefix(p, "/")
}

// Add writes a file and creates its parent directories. It is a test helper
// and panics on failure.
func (m *MemFS) Add(name, content string) *MemFS {
	if err := m.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		panic(err)
	}
	if err := m.WriteFile(name, []byte(content), 0o644); err != nil {
		panic(err)
	}
	return m
}

// SetModTime overrides the modification time of an existing entry.
func (m *MemFS) SetModTime(name string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[key(name)]; ok {
		f.ModTime = t
	}
}

// Paths lists every explicit entry, sorted, as rooted slash paths.
func (m *MemFS) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for k := range m.files {
		out = append(out, "/"+k)
	}
	sort.Strings(out)
	return out
}

func (m *MemFS) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.files.Stat(key(name))
}

func (m *MemFS) ReadDir(name string) ([]fs.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.files.ReadDir(key(name))
}

func (m *MemFS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.files.ReadFile(key(name))
}

func (m *MemFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(name)
	if err := m.checkParentLocked("write", k); err != nil {
		return err
	}
	if f, ok := m.files[k]; ok && f.Mode.IsDir() {
		return &fs.PathError{Op: "write", Path: name, Err: fs.ErrInvalid}
	}
	m.files[k] = &fstest.MapFile{Data: append([]byte(nil), data...), Mode: perm, ModTime: m.now()}
	return nil
}

func (m *MemFS) Create(name string) (io.WriteCloser, error) {
	if err := m.WriteFile(name, nil, 0o644); err != nil {
		return nil, err
	}
	return &memFile{fs: m, key: key(name)}, nil
}

func (m *MemFS) Mkdir(name string, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(name)
	if _, err := m.files.Stat(k); err == nil {
		return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
	}
	if err := m.checkParentLocked("mkdir", k); err != nil {
		return err
	}
	m.files[k] = &fstest.MapFile{Mode: fs.ModeDir | perm, ModTime: m.now()}
	return nil
}

func (m *MemFS) MkdirAll(name string, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(name)
	if k == "." {
		return nil
	}
	parts := strings.Split(k, "/")
	for i := range parts {
		p := strings.Join(parts[:i+1], "/")
		if fi, err := m.files.Stat(p); err == nil {
			if !fi.IsDir() {
				return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
			}
			if _, explicit := m.files[p]; explicit {
				continue
			}
		}
		m.files[p] = &fstest.MapFile{Mode: fs.ModeDir | perm, ModTime: m.now()}
	}
	return nil
}

func (m *MemFS) RemoveAll(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(name)
	if k == "." {
		m.files = fstest.MapFS{}
		return nil
	}
	for p := range m.files {
		if p == k || strings.HasPrefix(p, k+"/") {
			delete(m.files, p)
		}
	}
	return nil
}

func (m *MemFS) TempDir() string {
	return string(filepath.Separator) + "tmp"
}

func (m *MemFS) checkParentLocked(op, k string) error {
	parent := path.Dir(k)
	if parent == "." {
		return nil
	}
	fi, err := m.files.Stat(parent)
	if err != nil {
		return &fs.PathError{Op: op, Path: "/" + k, Err: fs.ErrNotExist}
	}
	if !fi.IsDir() {
		return &fs.PathError{Op: op, Path: "/" + k, Err: fs.ErrInvalid}
	}
	return nil
}

type memFile struct {
	fs     *MemFS
	key    string
	closed bool
}

func (f *memFile) Write(p []byte) (int, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if f.closed {
		return 0, fs.ErrClosed
	}
	mf, ok := f.fs.files[f.key]
	if !ok {
		// removed while open; writes are discarded like on an unlinked file
		return len(p), nil
	}
	mf.Data = append(mf.Data, p...)
	return len(p), nil
}

func (f *memFile) Close() error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	f.closed = true
	return nil
}
