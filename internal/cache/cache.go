package cache

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/singleflight"

	"github.com/evergreen-js/resolver/internal/fs"
	"github.com/evergreen-js/resolver/internal/manifest"
)

// Cache holds every piece of shared state in the resolver: the entry map
// and the content-addressed manifest map. It is safe for concurrent use and
// may be shared among several resolvers with differing options, because
// entries are keyed by path only and options are consulted per resolve.
//
// The cache never evicts. Long-running processes are expected to call Clear
// at coarse checkpoints, typically once per build.
type Cache struct {
	entries   *xsync.MapOf[entryKey, *Entry]
	manifests *xsync.MapOf[uint64, *manifest.PkgJSON]
	files     *xsync.MapOf[string, *fileEntry]

	parseGroup singleflight.Group
}

// Two paths differing only in a trailing slash are distinct entries.
type entryKey struct {
	path          string
	trailingSlash bool
}

type fileEntry struct {
	contents  string
	modKey    fs.ModKey
	keyUsable bool
}

// JSONError tags a JSON parse failure with the manifest it came from.
type JSONError struct {
	Path string
	Err  error
}

func (e *JSONError) Error() string {
	return fmt.Sprintf("unexpected JSON in %q: %s", e.Path, e.Err)
}

func (e *JSONError) Unwrap() error {
	return e.Err
}

func New() *Cache {
	return &Cache{
		entries:   xsync.NewMapOf[entryKey, *Entry](),
		manifests: xsync.NewMapOf[uint64, *manifest.PkgJSON](),
		files:     xsync.NewMapOf[string, *fileEntry](),
	}
}

func keyFor(path string) entryKey {
	if hasTrailingSlash(path) {
		return entryKey{path: path[:len(path)-1], trailingSlash: true}
	}
	return entryKey{path: path}
}

// LoadEntry returns the shared entry for the given path, creating it (and
// transitively its parent chain) on first use. The race between concurrent
// loaders is settled by the map's get-or-insert: exactly one inserted entry
// wins and everyone gets it. descriptionFile may be empty to disable
// manifest loading; validateFiles re-checks cached manifest content against
// the file's current modification key before reuse.
func (c *Cache) LoadEntry(fx fs.FS, descriptionFile string, validateFiles bool, path string) (*Entry, error) {
	key := keyFor(path)
	if entry, ok := c.entries.Load(key); ok {
		return entry, nil
	}
	entry, err := c.loadEntryUncached(fx, descriptionFile, validateFiles, path, key)
	if err != nil {
		return nil, err
	}
	actual, _ := c.entries.LoadOrStore(key, entry)
	return actual, nil
}

func (c *Cache) loadEntryUncached(fx fs.FS, descriptionFile string, validateFiles bool, path string, key entryKey) (*Entry, error) {
	var parent *Entry
	if dir := fx.Dir(key.path); dir != key.path {
		loaded, err := c.LoadEntry(fx, descriptionFile, validateFiles, dir)
		if err != nil {
			return nil, err
		}
		parent = loaded
	}

	entry := &Entry{
		path:          path,
		clean:         key.path,
		trailingSlash: key.trailingSlash,
		parent:        parent,
	}

	if descriptionFile == "" {
		if parent != nil {
			entry.pkgInfo = parent.pkgInfo
		}
		return entry, nil
	}

	isManifestPath := fx.Base(key.path) == descriptionFile
	manifestPath := key.path
	if !isManifestPath {
		manifestPath = fx.Join(key.path, descriptionFile)
	}

	stat, err := fx.Stat(manifestPath)
	if err != nil {
		return nil, err
	}
	if stat.Kind.IsFile() {
		contents, err := c.readFile(fx, manifestPath, validateFiles)
		if err != nil {
			return nil, err
		}
		json, err := c.parseManifest(contents)
		if err != nil {
			return nil, &JSONError{Path: manifestPath, Err: err}
		}
		entry.pkgInfo = &manifest.DescriptionData{JSON: json, Dir: fx.Dir(manifestPath)}
	} else if parent != nil {
		entry.pkgInfo = parent.pkgInfo
	}

	// When the entry itself is the description file location, the stat that
	// was just taken is the entry's stat.
	if entry.pkgInfo != nil && isManifestPath {
		entry.stat = &stat
	}
	return entry, nil
}

// readFile returns manifest content, reusing the cached copy. With
// validation on, reuse requires the file's modification key to still match.
func (c *Cache) readFile(fx fs.FS, path string, validate bool) (string, error) {
	if entry, ok := c.files.Load(path); ok {
		if !validate {
			return entry.contents, nil
		}
		if key, err := fx.ModKey(path); err == nil && entry.keyUsable && key == entry.modKey {
			return entry.contents, nil
		}
	}

	contents, err := fx.ReadFile(path)
	if err != nil {
		return "", err
	}
	key, keyErr := fx.ModKey(path)
	c.files.Store(path, &fileEntry{contents: contents, modKey: key, keyUsable: keyErr == nil})
	return contents, nil
}

// parseManifest parses manifest content at most once process-wide per
// distinct content. Concurrent first parses of the same content are
// collapsed into one.
func (c *Cache) parseManifest(contents string) (*manifest.PkgJSON, error) {
	hasher := fnv.New64a()
	hasher.Write([]byte(contents))
	hash := hasher.Sum64()

	if parsed, ok := c.manifests.Load(hash); ok {
		return parsed, nil
	}
	parsed, err, _ := c.parseGroup.Do(strconv.FormatUint(hash, 36), func() (interface{}, error) {
		if parsed, ok := c.manifests.Load(hash); ok {
			return parsed, nil
		}
		fresh, err := manifest.Parse(contents)
		if err != nil {
			return nil, err
		}
		actual, _ := c.manifests.LoadOrStore(hash, fresh)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return parsed.(*manifest.PkgJSON), nil
}

// Clear drops all entries. Parsed manifests are content-addressed and stay;
// unchanged files re-associate with them on the next load.
func (c *Cache) Clear() {
	c.entries.Clear()
	c.files.Clear()
}

// Dependencies classifies every cached entry with a known stat so that
// downstream build systems can register watchers: paths that resolved to a
// file or directory, and paths that were probed but missing.
func (c *Cache) Dependencies() (files []string, missing []string) {
	c.entries.Range(func(key entryKey, entry *Entry) bool {
		if stat, ok := entry.cachedStat(); ok {
			if stat.Kind.IsFile() || stat.Kind.IsDir() {
				files = append(files, entry.CleanPath())
			} else {
				missing = append(missing, entry.CleanPath())
			}
		}
		return true
	})
	sort.Strings(files)
	sort.Strings(missing)
	return files, missing
}
