package resolver

import (
	"strings"

	"github.com/evergreen-js/resolver/internal/manifest"
)

// splitPackageName splits a bare specifier into the package name and the
// package-relative subpath ("." when none), honoring "@scope/name"
// specifiers.
func splitPackageName(target string) (name string, subpath string) {
	slash := strings.IndexByte(target, '/')
	if strings.HasPrefix(target, "@") && slash != -1 {
		if second := strings.IndexByte(target[slash+1:], '/'); second != -1 {
			slash += 1 + second
		} else {
			slash = -1
		}
	}
	if slash == -1 {
		return target, "."
	}
	return target[:slash], "." + target[slash:]
}

// applyExportsField maps a package-relative subpath through the package's
// exports field. A missing field falls through to classical file and
// directory resolution; a present field is authoritative for the package.
func (r *Resolver) applyExportsField(info Info, pkg *manifest.DescriptionData, subpath string, ctx *context) state {
	root, ok := r.exportsRoot(pkg)
	if !ok {
		return resolving(info)
	}

	request := info.request
	if strings.HasSuffix(request.Target, "/") {
		return hardError(unexpectedValuef("Only requesting file allowed"))
	}

	remaining := subpath
	if request.Query != "" || request.Fragment != "" {
		if remaining == "." {
			remaining = "./"
		}
		remaining += request.Query + request.Fragment
	}

	targets, err := fieldProcess(exportsMapField, root, remaining, r.conditions)
	if err != nil {
		return hardError(err)
	}
	if len(targets) == 0 {
		return hardError(unexpectedValuef("Package path %s is not exported", request.Target))
	}

	for _, target := range targets {
		ctx.logf("exports field in %s maps '%s' to '%s' (depth %d)", pkg.Dir, request.Target, target, ctx.depth)
		if !strings.HasPrefix(target, "./") {
			return hardError(unexpectedValuef(
				"Invalid \"%s\" defined in %s, target must start with \"./\"", target, r.manifestPathFor(pkg)))
		}
		mapped := parseRequest(target)
		if err := checkTarget(mapped.Target); err != nil {
			return hardError(err)
		}
		next := r.doResolve(makeInfo(pkg.Dir, mapped), ctx)
		if next.isFinished() {
			return next
		}
	}
	return failed(info)
}

// applyImportsField routes a "#"-prefixed request through the enclosing
// package's imports field. The first mapping result is reparsed and
// restart-resolved: relative and absolute targets from the package
// directory, bare targets through module resolution from the package
// directory, and "#" targets through the imports field again.
func (r *Resolver) applyImportsField(info Info, pkg *manifest.DescriptionData, ctx *context) state {
	root, ok := pkg.JSON.GetField(r.options.ImportsField)
	if !ok {
		return resolving(info)
	}

	target := info.request.Target
	targets, err := fieldProcess(importsMapField, root, target, r.conditions)
	if err != nil {
		return hardError(err)
	}
	if len(targets) == 0 {
		return hardError(unexpectedValuef("Package path %s is not exported", target))
	}

	mapped := parseRequest(targets[0])
	ctx.logf("imports field in %s maps '%s' to '%s' (depth %d)", pkg.Dir, target, targets[0], ctx.depth)

	switch mapped.Kind {
	case PathKindInternal:
		// Re-enter the pipeline so self-referential mappings are bounded
		// by the depth ceiling.
		next := r.doResolve(makeInfo(pkg.Dir, mapped), ctx)
		if next.isFinished() {
			return next
		}
		return failed(info)

	case PathKindNormal:
		next := r.doResolve(makeInfo(pkg.Dir, mapped), ctx)
		if next.isFinished() {
			return next
		}
		return failed(info)

	default:
		// The mapping names a concrete path; it must be a file that stays
		// inside the package scope.
		mappedInfo := makeInfo(pkg.Dir, mapped)
		isFile, err := r.entryIsFile(mappedInfo.resolvedPath(r.fx))
		if err != nil {
			return hardError(err)
		}
		if !isFile || checkTarget(mapped.Target) != nil {
			return hardError(unexpectedValuef("Package path %s is not exported", target))
		}
		if s := r.resolveAsFile(mappedInfo, ctx); s.isFinished() {
			return s
		}
		return failed(info)
	}
}

// resolveSelfReference honors package self-resolution: inside a package
// whose manifest names the requested package and carries an exports field,
// the request is answered by that field without consulting node_modules.
func (r *Resolver) resolveSelfReference(info Info, ctx *context) state {
	entry, err := r.loadEntry(info.path)
	if err != nil {
		return hardError(err)
	}
	pkg := entry.PkgInfo()
	if pkg == nil {
		return resolving(info)
	}
	name, subpath := splitPackageName(info.request.Target)
	if pkg.JSON.Name() != name || name == "" {
		return resolving(info)
	}
	if _, ok := r.exportsRoot(pkg); !ok {
		return resolving(info)
	}

	ctx.logf("self-reference of package '%s' at %s (depth %d)", name, pkg.Dir, ctx.depth)
	s := r.applyExportsField(makeInfo(pkg.Dir, info.request), pkg, subpath, ctx)
	if s.isFinished() {
		return s
	}
	return resolving(info)
}

// resolveAsModules performs the node_modules walk: starting at the anchor
// directory and moving toward the root, each configured module directory is
// tried in order. The first finished branch wins; hard errors inside a
// candidate package stop the whole walk.
func (r *Resolver) resolveAsModules(info Info, ctx *context) state {
	for dir := info.path; ; {
		for _, moduleDirName := range r.options.Modules {
			s := r.resolveInModuleDir(r.fx.Join(dir, moduleDirName), info, ctx)
			if s.isFinished() {
				return s
			}
		}
		parent := r.fx.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return failed(info)
}

func (r *Resolver) resolveInModuleDir(moduleRoot string, info Info, ctx *context) state {
	rootEntry, err := r.loadEntry(moduleRoot)
	if err != nil {
		return hardError(err)
	}
	if !rootEntry.IsDir(r.fx) {
		return failed(info)
	}

	target := info.request.Target
	name, subpath := splitPackageName(target)
	moduleInfo := makeInfo(moduleRoot, info.request)

	// The manifest is looked up at the package directory rather than at the
	// requested path, so a subpath climbing out with ".." is still checked
	// against the package's exports.
	packageDirEntry, err := r.loadEntry(r.fx.Join(moduleRoot, name))
	if err != nil {
		return hardError(err)
	}
	pkg := packageDirEntry.PkgInfo()
	resolvesSelf := pkg != nil && pkg.JSON.Name() == name

	// A candidate without its own manifest inherits the nearest one above,
	// which may belong to the requesting project; that manifest must not
	// govern the candidate package (self-resolution aside).
	if pkg != nil && !pathWithin(pkg.Dir, moduleRoot) {
		pkg = nil
	}

	if !packageDirEntry.IsDir(r.fx) && pkg == nil {
		if resolvesSelf {
			return resolving(info)
		}
		// Bare files directly inside the module directory ("m.js", lone
		// "m" with extensions) are still resolvable.
		if s := r.resolveAsFile(moduleInfo, ctx); s.kind == stateSuccess {
			return s
		}
		return failed(info)
	}

	ctx.logf("module candidate '%s' in %s (depth %d)", name, moduleRoot, ctx.depth)

	if pkg != nil {
		if s := r.applyExportsField(moduleInfo, pkg, subpath, ctx); s.kind != stateResolving {
			return s
		}
		mayRequestSelf := pkg.JSON.Name() == name
		if s := r.applyAliasFields(moduleInfo, pkg, mayRequestSelf, ctx); s.isFinished() {
			return s
		}
	}

	if s := r.resolveAsFile(moduleInfo, ctx); s.isFinished() {
		return r.recheckAliasFields(s, pkg, ctx)
	}
	if s := r.resolveAsDir(moduleInfo, ctx); s.isFinished() {
		return r.recheckAliasFields(s, pkg, ctx)
	}
	return failed(info)
}

// recheckAliasFields consults the package's alias fields a second time,
// after resolution, so that a mapping keyed by a concrete file path
// ("./a.js") catches requests that reached that file through extension
// probing or directory defaults.
func (r *Resolver) recheckAliasFields(s state, pkg *manifest.DescriptionData, ctx *context) state {
	if s.kind != stateSuccess || s.ignored || pkg == nil {
		return s
	}
	if redirected := r.applyAliasFields(s.info, pkg, false, ctx); redirected.isFinished() {
		return redirected
	}
	return s
}

// pathWithin reports whether child is parent or lives underneath it.
func pathWithin(child string, parent string) bool {
	if !strings.HasPrefix(child, parent) {
		return false
	}
	if len(child) == len(parent) {
		return true
	}
	return child[len(parent)] == '/' || child[len(parent)] == '\\'
}

func (r *Resolver) exportsRoot(pkg *manifest.DescriptionData) (manifest.Value, bool) {
	if pkg == nil {
		return manifest.Value{}, false
	}
	root, ok := pkg.JSON.GetField(r.options.ExportsField)
	if !ok || root.Kind == manifest.Null {
		return manifest.Value{}, false
	}
	return root, true
}

func (r *Resolver) manifestPathFor(pkg *manifest.DescriptionData) string {
	return r.fx.Join(pkg.Dir, r.options.DescriptionFile)
}
