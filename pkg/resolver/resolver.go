// Package resolver implements Node.js-compatible module resolution: given
// a base directory and a request ("./foo", "lodash/x", "#internal",
// "@scope/pkg"), it returns the absolute path of the file Node.js or a
// bundler would load, a sentinel indicating the module is to be ignored,
// or an error.
//
// A Resolver is synchronous at the call boundary but safe for concurrent
// use; all shared state lives in an injectable Cache.
package resolver

import (
	"github.com/evergreen-js/resolver/internal/cache"
	"github.com/evergreen-js/resolver/internal/fs"
	"github.com/evergreen-js/resolver/internal/logger"
	"github.com/evergreen-js/resolver/internal/manifest"
)

// Cache is the process-wide shared state: file system entries and parsed
// manifests. It may be shared among several resolvers with differing
// options.
type Cache = cache.Cache

// NewCache builds an empty cache for explicit sharing across resolvers.
func NewCache() *Cache {
	return cache.New()
}

// DescriptionData couples a manifest with the directory containing it.
type DescriptionData = manifest.DescriptionData

// Resource is the externally-facing projection of a successful resolve.
type Resource struct {
	Path     string
	Query    string
	Fragment string

	// Description is the manifest governing the resolved path, if any.
	Description *DescriptionData
}

// Join reassembles the path with its query and fragment.
func (r Resource) Join() string {
	return r.Path + r.Query + r.Fragment
}

// Result is either a resolved resource or the Ignored sentinel, which
// tells the caller to treat the module as a no-op.
type Result struct {
	Resource Resource
	Ignored  bool
}

type Resolver struct {
	options          Options
	conditions       map[string]bool
	enforceExtension bool
	fx               fs.FS
	cache            *Cache
	log              *logger.Log
}

// NewResolver builds a resolver with its own private cache.
func NewResolver(options Options) *Resolver {
	return NewResolverWithCache(options, cache.New())
}

// NewResolverWithCache builds a resolver on an externally shared cache.
func NewResolverWithCache(options Options, shared *Cache) *Resolver {
	fx := options.FS
	if fx == nil {
		fx = fs.RealFS()
	}

	enforce := false
	switch options.EnforceExtension {
	case EnforceExtensionEnabled:
		enforce = true
	case EnforceExtensionAuto:
		for _, ext := range options.Extensions {
			if ext == "" {
				enforce = true
				break
			}
		}
	}

	conditions := make(map[string]bool, len(options.ConditionNames))
	for _, name := range options.ConditionNames {
		conditions[name] = true
	}

	return &Resolver{
		options:          options,
		conditions:       conditions,
		enforceExtension: enforce,
		fx:               fx,
		cache:            shared,
		log:              logger.NewFromEnv(),
	}
}

// Resolve resolves a request relative to an absolute base directory.
func (r *Resolver) Resolve(baseDir string, request string) (Result, error) {
	ctx := &context{}
	if r.log.HasLevel(logger.LevelDebug) {
		ctx.notes = logger.NewNotes("resolve '" + request + "' in '" + baseDir + "'")
		defer r.log.Flush(ctx.notes)
	}

	if request == "" {
		return Result{}, &resolveFailedError{request: request, baseDir: baseDir}
	}

	s := r.doResolve(makeInfo(baseDir, parseRequest(request)), ctx)
	switch s.kind {
	case stateSuccess:
		if s.ignored {
			return Result{Ignored: true}, nil
		}
		path, err := r.finalizePath(s.info)
		if err != nil {
			return Result{}, err
		}
		resource := Resource{
			Path:     path,
			Query:    s.info.request.Query,
			Fragment: s.info.request.Fragment,
		}
		if entry, err := r.loadEntry(path); err == nil {
			resource.Description = entry.PkgInfo()
		}
		return Result{Resource: resource}, nil

	case stateError:
		return Result{}, s.err

	default:
		return Result{}, &resolveFailedError{request: request, baseDir: baseDir}
	}
}

// ClearEntries drops all cached file system entries. Long-running callers
// are expected to do this at coarse checkpoints, e.g. once per build.
func (r *Resolver) ClearEntries() {
	r.cache.Clear()
}

// Dependencies lists every path the resolver has stated so far, split into
// paths that exist (file-or-dir dependencies) and paths that were probed
// but missing, so a downstream build system can register watchers.
func (r *Resolver) Dependencies() (files []string, missing []string) {
	return r.cache.Dependencies()
}

// doResolve is the trampoline driver: stages run in order, each either
// finishing the resolve, failing the branch, or handing an updated Info to
// the next stage.
func (r *Resolver) doResolve(info Info, ctx *context) state {
	if ctx.depth >= maxResolveDepth {
		return hardError(&OverflowError{})
	}
	ctx.depth++
	defer func() {
		ctx.logf("leaving '%s' in '%s' (depth %d)", info.request.join(), info.path, ctx.depth)
		ctx.depth--
	}()
	ctx.logf("resolving '%s' in '%s' (depth %d)", info.request.join(), info.path, ctx.depth)

	if s := r.applyParseFold(info, ctx); s.isFinished() {
		return s
	}
	if s := r.applyAlias(info, ctx); s.isFinished() {
		return s
	}
	if s := r.applyPreferRelative(info, ctx); s.isFinished() {
		return s
	}

	switch info.request.Kind {
	case PathKindAbsolutePosix, PathKindAbsoluteWin:
		// An absolute target is its own anchor.
		return r.resolveFileOrDir(info.withPath(""), ctx)

	case PathKindRelative:
		return r.resolveFileOrDir(info, ctx)

	case PathKindInternal:
		entry, err := r.loadEntry(info.path)
		if err != nil {
			return hardError(err)
		}
		pkg := entry.PkgInfo()
		if pkg == nil {
			return failed(info)
		}
		return r.applyImportsField(info, pkg, ctx)

	default:
		if s := r.resolveSelfReference(info, ctx); s.isFinished() {
			return s
		}
		entry, err := r.loadEntry(info.path)
		if err != nil {
			return hardError(err)
		}
		if s := r.applyAliasFields(info, entry.PkgInfo(), false, ctx); s.isFinished() {
			return s
		}
		return r.resolveAsModules(info, ctx)
	}
}

// resolveFileOrDir is the classical branch: the enclosing package's alias
// fields first, then the path as a file, then as a directory.
func (r *Resolver) resolveFileOrDir(info Info, ctx *context) state {
	entry, err := r.loadEntry(info.resolvedPath(r.fx))
	if err != nil {
		return hardError(err)
	}
	if s := r.applyAliasFields(info, entry.PkgInfo(), false, ctx); s.isFinished() {
		return s
	}
	if s := r.resolveAsFile(info, ctx); s.isFinished() {
		return s
	}
	if s := r.resolveAsDir(info, ctx); s.isFinished() {
		return s
	}
	return failed(info)
}

// finalizePath turns an accepted candidate path into the final one. With
// symlink following enabled, the entry chain is walked upward until a
// symlink entry is found and the real path is reassembled from its target;
// otherwise the path is normalized syntactically.
func (r *Resolver) finalizePath(info Info) (string, error) {
	if !r.options.Symlinks {
		return normalizePath(info.path), nil
	}
	entry, err := r.loadEntry(info.path)
	if err != nil {
		return "", err
	}

	var tail []string
	for e := entry; e != nil; e = e.Parent() {
		if real, ok := e.Symlink(r.fx); ok {
			return r.fx.Join(append([]string{real}, tail...)...), nil
		}
		tail = append([]string{r.fx.Base(e.CleanPath())}, tail...)
	}
	return normalizePath(info.path), nil
}

func (r *Resolver) loadEntry(path string) (*cache.Entry, error) {
	return r.cache.LoadEntry(r.fx, r.options.DescriptionFile, !r.options.EnableUnsafeCache, path)
}
