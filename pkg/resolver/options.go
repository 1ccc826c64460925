package resolver

import "github.com/evergreen-js/resolver/internal/fs"

// FS is the file system capability interface the resolver runs against.
type FS = fs.FS

// OSFS returns the real operating system file system.
func OSFS() FS {
	return fs.RealFS()
}

// MockFS builds an in-memory file system from a map of file paths to file
// contents, for tests and fixtures.
func MockFS(files map[string]string) FS {
	return fs.MockFS(files)
}

// EnforceExtension controls whether bare file names are acceptable or an
// extension from Extensions must be appended.
type EnforceExtension uint8

const (
	// EnforceExtensionAuto enables enforcement exactly when Extensions
	// contains the empty string.
	EnforceExtensionAuto EnforceExtension = iota
	EnforceExtensionEnabled
	EnforceExtensionDisabled
)

// AliasEntry is one user alias. A key ending in '$' matches exactly (the
// '$' is stripped before comparison); otherwise the key matches the whole
// target or a "key/" prefix of it. Ignore makes matching requests resolve
// to the Ignored sentinel.
type AliasEntry struct {
	Key    string
	Target string
	Ignore bool
}

// ExtensionAlias maps a source extension to the candidate extensions tried
// in its place.
type ExtensionAlias struct {
	Ext     string
	Aliases []string
}

type Options struct {
	// Extensions is the ordered list appended to bare file names.
	Extensions []string

	EnforceExtension EnforceExtension

	// Alias entries are tried in declaration order.
	Alias []AliasEntry

	// PreferRelative also tries "./request" for normal-kind requests.
	PreferRelative bool

	// Symlinks follows symlinks when finalizing a resolved path. When
	// disabled the path is only normalized syntactically.
	Symlinks bool

	// DescriptionFile is the manifest file name. Empty disables manifest
	// handling entirely.
	DescriptionFile string

	// MainFiles are the default entry base names inside a directory.
	MainFiles []string

	// MainFields are the manifest fields consulted as entry-point
	// sub-requests for a directory.
	MainFields []string

	// AliasFields are the manifest fields that contribute aliases, e.g.
	// "browser".
	AliasFields []string

	// ExportsField locates the exports map inside a manifest.
	ExportsField []string

	// ImportsField locates the imports map inside a manifest.
	ImportsField []string

	// ConditionNames select branches of conditional exports/imports maps.
	ConditionNames []string

	// Modules are the module lookup directory names.
	Modules []string

	ExtensionAlias []ExtensionAlias

	// EnableUnsafeCache reuses cached manifest content without re-checking
	// the file's modification key.
	EnableUnsafeCache bool

	// FS overrides the file system; nil means the real one.
	FS FS
}

// DefaultOptions mirrors the defaults of the Node.js ecosystem: "main" as
// the entry field, "index" as the directory entry, "node_modules" as the
// module directory, and the "node" condition.
func DefaultOptions() Options {
	return Options{
		Extensions:        []string{"js", "json", "node"},
		EnforceExtension:  EnforceExtensionAuto,
		Symlinks:          true,
		DescriptionFile:   "package.json",
		MainFiles:         []string{"index"},
		MainFields:        []string{"main"},
		ExportsField:      []string{"exports"},
		ImportsField:      []string{"imports"},
		ConditionNames:    []string{"node"},
		Modules:           []string{"node_modules"},
		EnableUnsafeCache: true,
	}
}
