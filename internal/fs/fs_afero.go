package fs

import (
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// aferoFS adapts any afero file system to the resolver's capability
// interface. It is primarily how tests get an in-memory fixture tree, but
// any afero backend works. Path helpers use the pure-slash "path" package so
// fixture trees behave the same on every host platform.
type aferoFS struct {
	inner afero.Fs
}

// FromAfero wraps an afero file system.
func FromAfero(inner afero.Fs) FS {
	return &aferoFS{inner: inner}
}

// MockFS builds an in-memory file system from a map of file paths to file
// contents. Parent directories are created implicitly.
func MockFS(files map[string]string) FS {
	inner := afero.NewMemMapFs()
	for name, contents := range files {
		afero.WriteFile(inner, name, []byte(contents), 0o644)
	}
	return &aferoFS{inner: inner}
}

func (f *aferoFS) ReadFile(p string) (string, error) {
	contents, err := afero.ReadFile(f.inner, p)
	if err != nil {
		return "", err
	}
	return string(contents), nil
}

func (f *aferoFS) ReadLink(p string) (string, error) {
	if reader, ok := f.inner.(afero.LinkReader); ok {
		return reader.ReadlinkIfPossible(p)
	}
	return "", ErrUnsupported
}

func (f *aferoFS) Stat(p string) (Metadata, error) {
	hadTrailingSlash := len(p) > 1 && strings.HasSuffix(p, "/")
	stat, err := f.inner.Stat(p)
	if err != nil {
		if os.IsNotExist(err) || isNotDirError(err) {
			return Metadata{Kind: NonExistentEntry}, nil
		}
		return Metadata{}, err
	}
	kind := UnknownEntry
	if stat.Mode().IsRegular() {
		kind = FileEntry
	} else if stat.IsDir() {
		kind = DirEntry
	}

	// Backends that normalize away trailing slashes would otherwise let a
	// path like "a.js/" stat as a regular file.
	if hadTrailingSlash && kind == FileEntry {
		return Metadata{Kind: NonExistentEntry}, nil
	}
	return Metadata{Kind: kind, ModTime: stat.ModTime()}, nil
}

func (f *aferoFS) EvalSymlinks(p string) (string, bool) {
	return "", false
}

func (f *aferoFS) ModKey(p string) (ModKey, error) {
	info, err := f.inner.Stat(p)
	if err != nil {
		return ModKey{}, err
	}
	mtime := info.ModTime()
	return ModKey{
		size:      info.Size(),
		mtimeSec:  mtime.Unix(),
		mtimeNsec: int64(mtime.Nanosecond()),
		mode:      uint32(info.Mode()),
	}, nil
}

func (*aferoFS) IsAbs(p string) bool {
	return path.IsAbs(p)
}

func (*aferoFS) Dir(p string) string {
	return path.Dir(stripTrailingSlash(p))
}

func (*aferoFS) Base(p string) string {
	return path.Base(stripTrailingSlash(p))
}

func (*aferoFS) Join(parts ...string) string {
	return path.Clean(path.Join(parts...))
}
