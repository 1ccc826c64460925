package fs

import (
	"os"
	"path/filepath"
	"strings"
)

type realFS struct{}

// RealFS returns the operating system implementation of FS.
func RealFS() FS {
	return &realFS{}
}

func (*realFS) ReadFile(path string) (string, error) {
	contents, err := os.ReadFile(stripTrailingSlash(path))
	if err != nil {
		return "", err
	}
	return string(contents), nil
}

func (*realFS) ReadLink(path string) (string, error) {
	return os.Readlink(stripTrailingSlash(path))
}

func (*realFS) Stat(path string) (Metadata, error) {
	stat, err := os.Stat(path)
	if err != nil {
		// A missing path (including a path that descends through a regular
		// file) is a normal outcome, not an I/O failure.
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
	return Metadata{Kind: kind, ModTime: stat.ModTime()}, nil
}

func (*realFS) EvalSymlinks(path string) (string, bool) {
	real, err := filepath.EvalSymlinks(stripTrailingSlash(path))
	if err != nil {
		return "", false
	}
	return real, true
}

func (*realFS) ModKey(path string) (ModKey, error) {
	return modKey(stripTrailingSlash(path))
}

func (*realFS) IsAbs(path string) bool {
	return filepath.IsAbs(path)
}

func (*realFS) Dir(path string) string {
	return filepath.Dir(stripTrailingSlash(path))
}

func (*realFS) Base(path string) string {
	return filepath.Base(stripTrailingSlash(path))
}

func (*realFS) Join(parts ...string) string {
	return filepath.Join(parts...)
}

func isNotDirError(err error) bool {
	// "syscall.ENOTDIR" is what descending through a file looks like, but
	// the exact error shape is platform-dependent, so match the text too.
	return strings.Contains(err.Error(), "not a directory")
}

func stripTrailingSlash(path string) string {
	if len(path) > 1 && (strings.HasSuffix(path, "/") || strings.HasSuffix(path, "\\")) {
		return path[:len(path)-1]
	}
	return path
}
