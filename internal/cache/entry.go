package cache

import (
	"strings"
	"sync"

	"github.com/evergreen-js/resolver/internal/fs"
	"github.com/evergreen-js/resolver/internal/manifest"
)

// Entry is the cached fact sheet for one file system path: its parent link,
// the nearest enclosing manifest, a lazily populated stat, and a lazily
// resolved symlink target. Entries are shared between concurrent resolve
// calls; once a lazy field is populated it is never changed again except by
// Cache.Clear dropping the whole entry.
type Entry struct {
	path          string
	clean         string
	trailingSlash bool
	parent        *Entry
	pkgInfo       *manifest.DescriptionData

	mutex       sync.RWMutex
	stat        *fs.Metadata
	linkChecked bool
	linkIsLink  bool
	linkReal    string
}

// Path returns the path the entry was loaded under, trailing slash included.
func (e *Entry) Path() string {
	return e.path
}

// CleanPath returns the path without any trailing slash.
func (e *Entry) CleanPath() string {
	return e.clean
}

func (e *Entry) Parent() *Entry {
	return e.parent
}

// PkgInfo returns the manifest governing this path: the one loaded at this
// path if it is a description file location, otherwise the nearest
// ancestor's.
func (e *Entry) PkgInfo() *manifest.DescriptionData {
	return e.pkgInfo
}

func (e *Entry) cachedStat() (fs.Metadata, bool) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	if e.stat != nil {
		return *e.stat, true
	}
	return fs.Metadata{}, false
}

// Stat populates the stat on first use. Stat failures are treated as
// non-existence; real I/O errors were already surfaced when the entry was
// loaded.
func (e *Entry) Stat(fx fs.FS) fs.Metadata {
	if stat, ok := e.cachedStat(); ok {
		return stat
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.stat == nil {
		stat, err := fx.Stat(e.path)
		if err != nil {
			stat = fs.Metadata{Kind: fs.NonExistentEntry}
		}
		if e.trailingSlash && stat.Kind.IsFile() {
			// "a.js/" names a directory that doesn't exist, not the file.
			stat = fs.Metadata{Kind: fs.NonExistentEntry}
		}
		e.stat = &stat
	}
	return *e.stat
}

func (e *Entry) IsFile(fx fs.FS) bool {
	return e.Stat(fx).Kind.IsFile()
}

func (e *Entry) IsDir(fx fs.FS) bool {
	return e.Stat(fx).Kind.IsDir()
}

func (e *Entry) Exists(fx fs.FS) bool {
	return e.Stat(fx).Kind.Exists()
}

// Symlink reports whether this path itself is a symbolic link, and if so
// the fully canonicalized real path. The answer is computed once.
func (e *Entry) Symlink(fx fs.FS) (string, bool) {
	e.mutex.RLock()
	if e.linkChecked {
		real, isLink := e.linkReal, e.linkIsLink
		e.mutex.RUnlock()
		return real, isLink
	}
	e.mutex.RUnlock()

	e.mutex.Lock()
	defer e.mutex.Unlock()
	if !e.linkChecked {
		e.linkChecked = true
		if _, err := fx.ReadLink(e.clean); err == nil {
			if real, ok := fx.EvalSymlinks(e.clean); ok {
				e.linkIsLink = true
				e.linkReal = real
			}
		}
	}
	return e.linkReal, e.linkIsLink
}

func hasTrailingSlash(path string) bool {
	return len(path) > 1 && (strings.HasSuffix(path, "/") || strings.HasSuffix(path, "\\"))
}
