package resolver

import (
	"strings"

	"github.com/evergreen-js/resolver/internal/manifest"
)

// applyAliasFields runs the per-package alias fields ("browser") of the
// enclosing manifest. A remapping applies when a bare request equals the
// selector, or when the request resolves to the selector's path inside the
// package directory, with or without one of the configured extensions.
func (r *Resolver) applyAliasFields(info Info, pkg *manifest.DescriptionData, mayRequestSelf bool, ctx *context) state {
	if pkg == nil || len(r.options.AliasFields) == 0 {
		return resolving(info)
	}

	for _, fieldName := range r.options.AliasFields {
		for _, alias := range pkg.JSON.AliasFields(fieldName) {
			if !r.aliasFieldApplies(info, pkg, alias.Key, mayRequestSelf) {
				continue
			}

			if alias.Ignored {
				ctx.logf("field '%s' in %s ignores '%s' (depth %d)",
					fieldName, pkg.Dir, alias.Key, ctx.depth)
				return successIgnored()
			}

			// A selector pointed at itself would loop; leave it alone.
			if alias.Key == alias.Target {
				return resolving(info)
			}

			ctx.logf("field '%s' in %s rewrites '%s' to '%s' (depth %d)",
				fieldName, pkg.Dir, alias.Key, alias.Target, ctx.depth)
			next := r.doResolve(makeInfo(pkg.Dir, info.request.withTarget(alias.Target)), ctx)
			if next.isFinished() {
				return next
			}
		}
	}
	return resolving(info)
}

func (r *Resolver) aliasFieldApplies(info Info, pkg *manifest.DescriptionData, key string, mayRequestSelf bool) bool {
	if info.request.Kind == PathKindNormal && !mayRequestSelf {
		return info.request.Target == key
	}

	requestPath := info.resolvedPath(r.fx)
	aliasPath := r.fx.Join(pkg.Dir, key)
	if aliasPath == requestPath {
		return true
	}
	for _, ext := range r.options.Extensions {
		if aliasPath == appendExtension(requestPath, ext) {
			return true
		}
	}
	return false
}

// appendExtension joins a path and an extension; both the bare ("js") and
// dotted (".js") forms are accepted, and an empty extension leaves the
// path alone.
func appendExtension(path string, ext string) string {
	if ext == "" {
		return path
	}
	if strings.HasPrefix(ext, ".") {
		return path + ext
	}
	return path + "." + ext
}
