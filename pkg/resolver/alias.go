package resolver

import "strings"

// applyAlias runs the user alias list in declaration order. A key ending in
// '$' must match the whole target; any other key matches the target itself
// or a "key/" prefix of it. A matched entry either resolves to the Ignored
// sentinel or rewrites the matched prefix and re-enters the pipeline; on
// failure the next entry is tried.
func (r *Resolver) applyAlias(info Info, ctx *context) state {
	target := info.request.Target

	for _, entry := range r.options.Alias {
		key := entry.Key
		hit := false
		if strings.HasSuffix(key, "$") {
			key = key[:len(key)-1]
			hit = target == key
		} else if rest, ok := strings.CutPrefix(target, key); ok {
			hit = rest == "" || strings.HasPrefix(rest, "/")
		}
		if !hit {
			continue
		}

		if entry.Ignore {
			ctx.logf("alias '%s' ignores the request (depth %d)", entry.Key, ctx.depth)
			return successIgnored()
		}

		// A target that already begins with the replacement is skipped, so
		// the entry does not keep rewriting its own output.
		if strings.HasPrefix(target, entry.Target) {
			continue
		}
		rewritten := strings.Replace(target, key, entry.Target, 1)
		ctx.logf("alias '%s' rewrites '%s' to '%s' (depth %d)", entry.Key, target, rewritten, ctx.depth)

		// The rewritten target may carry its own query and fragment, which
		// win; otherwise the original request's are kept.
		request := parseRequest(rewritten)
		if request.Query == "" {
			request.Query = info.request.Query
		}
		if request.Fragment == "" {
			request.Fragment = info.request.Fragment
		}

		fullySpecified := ctx.fullySpecified
		ctx.fullySpecified = false
		next := r.doResolve(info.withRequest(request), ctx)
		ctx.fullySpecified = fullySpecified
		if next.isFinished() {
			return next
		}
	}

	return resolving(info)
}

// applyPreferRelative also tries a normal-kind request as "./request"
// before falling back to module resolution.
func (r *Resolver) applyPreferRelative(info Info, ctx *context) state {
	if !r.options.PreferRelative || info.request.Kind != PathKindNormal {
		return resolving(info)
	}
	ctx.logf("prefer-relative retries '%s' as './%s' (depth %d)", info.request.Target, info.request.Target, ctx.depth)
	next := r.doResolve(info.withTarget("./"+info.request.Target), ctx)
	if next.isFinished() {
		return next
	}
	return resolving(info)
}

// applyParseFold handles requests whose fragment may actually be part of
// the file name: "./foo#bar" with no query is also tried with the fragment
// glued back onto the target.
func (r *Resolver) applyParseFold(info Info, ctx *context) state {
	request := info.request
	if request.Fragment == "" || request.Query != "" || request.Target == "" {
		return resolving(info)
	}

	glued := request.Target + request.Fragment
	ctx.logf("retrying with fragment as file name: '%s' (depth %d)", glued, ctx.depth)

	// Built directly rather than reparsed: reparsing would split the
	// fragment right back off.
	next := r.doResolve(info.withRequest(Request{Target: glued, Kind: targetKind(glued)}), ctx)
	if next.isFinished() {
		return next
	}
	return resolving(info)
}
