package fs

// The resolver core accesses the file system through this capability
// interface instead of using native APIs directly. This lets tests run
// against an in-memory file system and lets embedders swap in their own
// implementation (a virtual overlay, a remote file system, and so on).

import (
	"errors"
	"time"
)

type EntryKind uint8

const (
	// NonExistentEntry means the path could not be found at all.
	NonExistentEntry EntryKind = iota
	FileEntry
	DirEntry

	// UnknownEntry is something that exists but is neither a regular file
	// nor a directory (a device node, a socket, ...).
	UnknownEntry
)

func (kind EntryKind) IsFile() bool {
	return kind == FileEntry
}

func (kind EntryKind) IsDir() bool {
	return kind == DirEntry
}

// Exists reports whether the path is present at all. Note that an entry of
// unknown kind still exists.
func (kind EntryKind) Exists() bool {
	return kind != NonExistentEntry
}

type Metadata struct {
	ModTime time.Time
	Kind    EntryKind
}

// ErrUnsupported is returned by capability methods an implementation cannot
// provide (for example reading links on an in-memory file system).
var ErrUnsupported = errors.New("operation not supported by this file system")

type FS interface {
	// ReadFile reads the entire file as text.
	ReadFile(path string) (string, error)

	// ReadLink returns the target of a symbolic link. Implementations
	// return an error for paths that are not symbolic links.
	ReadLink(path string) (string, error)

	// Stat classifies the path. A missing path is not an error: it is
	// reported as NonExistentEntry. Errors are reserved for real I/O
	// failures such as permission problems.
	Stat(path string) (Metadata, error)

	// EvalSymlinks returns the fully canonicalized real path, or false if
	// canonicalization is unavailable or failed.
	EvalSymlinks(path string) (string, bool)

	// ModKey is a key made from the information returned by "stat". It is
	// intended to be different if the file has been edited, and to
	// otherwise be equal if the file has not been edited.
	ModKey(path string) (ModKey, error)

	// Path helpers are part of the interface so that the in-memory
	// implementation can stay platform-independent (always "/") while the
	// real implementation matches the host OS.
	IsAbs(path string) bool
	Dir(path string) string
	Base(path string) string
	Join(parts ...string) string
}

type ModKey struct {
	inode     uint64
	size      int64
	mtimeSec  int64
	mtimeNsec int64
	mode      uint32
	uid       uint32
}

// Some file systems have a time resolution of only a few seconds. If a
// mtime value is too new, we won't be able to tell if it has been recently
// modified or not, so modification keys that fresh are rejected.
const modKeySafetyGap = 3 // In seconds

var errModKeyUnusable = errors.New("the modification key is unusable")
