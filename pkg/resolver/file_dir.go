package resolver

import (
	"strings"

	"github.com/evergreen-js/resolver/internal/manifest"
)

// resolveAsFile tries the resolved path as a concrete file: the path
// itself when extensions are not enforced, then each configured extension
// appended in order. Fully specified sub-requests skip extension probing.
func (r *Resolver) resolveAsFile(info Info, ctx *context) state {
	if s := r.applyExtensionAlias(info, ctx); s.kind != stateResolving {
		return s
	}

	path := info.resolvedPath(r.fx)

	if !r.enforceExtension {
		isFile, err := r.entryIsFile(path)
		if err != nil {
			return hardError(err)
		}
		if isFile {
			return success(info.withPath(path).withTarget(""))
		}
	}
	if ctx.fullySpecified {
		return failed(info)
	}

	for _, ext := range r.options.Extensions {
		withExt := appendExtension(path, ext)
		isFile, err := r.entryIsFile(withExt)
		if err != nil {
			return hardError(err)
		}
		if isFile {
			ctx.logf("extension '%s' matched '%s' (depth %d)", ext, withExt, ctx.depth)
			return success(info.withPath(withExt).withTarget(""))
		}
	}
	return failed(info)
}

// applyExtensionAlias substitutes candidate extensions for a matching
// source extension. When a mapping matches, the candidates are the only
// thing tried: each is a strictly-file-specified sub-request, and
// exhausting them fails the branch.
func (r *Resolver) applyExtensionAlias(info Info, ctx *context) state {
	target := info.request.Target
	if len(r.options.ExtensionAlias) == 0 || info.request.Kind == PathKindNormal || target == "" {
		return resolving(info)
	}

	for _, alias := range r.options.ExtensionAlias {
		if !strings.HasSuffix(target, alias.Ext) || len(alias.Aliases) == 0 {
			continue
		}
		for _, candidate := range alias.Aliases {
			substituted := target[:len(target)-len(alias.Ext)] + candidate
			ctx.logf("extension alias tries '%s' for '%s' (depth %d)", substituted, target, ctx.depth)
			path := info.withTarget(substituted).resolvedPath(r.fx)

			fullySpecified := ctx.fullySpecified
			ctx.fullySpecified = true
			next := r.doResolve(info.withPath(path).withTarget(""), ctx)
			ctx.fullySpecified = fullySpecified
			if next.isFinished() {
				return next
			}
		}
		return failed(info)
	}
	return resolving(info)
}

// resolveAsDir treats the resolved path as a directory: the directory's
// own manifest entry fields first, then the default entry file names.
func (r *Resolver) resolveAsDir(info Info, ctx *context) state {
	dir := info.resolvedPath(r.fx)
	entry, err := r.loadEntry(dir)
	if err != nil {
		return hardError(err)
	}
	if !entry.IsDir(r.fx) {
		return failed(info)
	}

	dirInfo := info.withPath(dir).withTarget("")

	// Main fields apply only when the manifest lives in this directory,
	// not when it is inherited from an ancestor.
	if pkg := entry.PkgInfo(); pkg != nil && pkg.Dir == entry.CleanPath() {
		if s := r.applyMainFields(dirInfo, pkg, ctx); s.isFinished() {
			return s
		}
	}

	for _, mainFile := range r.options.MainFiles {
		ctx.logf("main file './%s' tried in '%s' (depth %d)", mainFile, dir, ctx.depth)
		next := r.doResolve(dirInfo.withTarget("./"+mainFile), ctx)
		if next.isFinished() {
			return next
		}
	}
	return failed(info)
}

func (r *Resolver) applyMainFields(dirInfo Info, pkg *manifest.DescriptionData, ctx *context) state {
	for _, fieldName := range r.options.MainFields {
		value, ok := pkg.JSON.GetField([]string{fieldName})
		if !ok || value.Kind != manifest.String {
			continue
		}
		main := value.Str
		if main == "." || main == "./" {
			// The field points at the directory itself.
			break
		}
		if !strings.HasPrefix(main, "./") {
			main = "./" + main
		}
		ctx.logf("main field '%s' points to '%s' (depth %d)", fieldName, main, ctx.depth)
		next := r.doResolve(dirInfo.withTarget(main), ctx)
		if next.isFinished() {
			return next
		}
	}
	return resolving(dirInfo)
}

func (r *Resolver) entryIsFile(path string) (bool, error) {
	entry, err := r.loadEntry(path)
	if err != nil {
		return false, err
	}
	return entry.IsFile(r.fx), nil
}
