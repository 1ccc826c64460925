package resolver

// The exports/imports field engine. This follows the algorithm shared by
// Node's "exports"/"imports" resolution as refined by the bundler
// community (enhanced-resolve's entrypoints handling): exact keys, single
// '*' pattern keys, trailing-slash subpath keys, conditional objects
// scanned in insertion order, and arrays of ordered alternatives whose
// individual failures are swallowed.

import (
	"strings"

	"github.com/evergreen-js/resolver/internal/manifest"
)

const conditionDefault = "default"

// mapField selects the validation rules that differ between the two maps.
type mapField uint8

const (
	exportsMapField mapField = iota
	importsMapField
)

type matchResult struct {
	value     manifest.Value
	remaining string
	isSubpath bool
	isPattern bool
}

// fieldProcess maps one request against a field root and returns the
// ordered list of mapped targets. An empty list is legal and means "not
// mapped under these conditions".
func fieldProcess(field mapField, root manifest.Value, request string, conditions map[string]bool) ([]string, error) {
	if err := field.assertRequest(request); err != nil {
		return nil, err
	}
	match, found, err := field.findMatch(root, request)
	if err != nil || !found {
		return nil, err
	}
	return fieldMapping(field, match, match.value, conditions)
}

func fieldMapping(field mapField, match matchResult, value manifest.Value, conditions map[string]bool) ([]string, error) {
	switch value.Kind {
	case manifest.String:
		target, err := targetMapping(field, match, value.Str)
		if err != nil {
			return nil, err
		}
		return []string{target}, nil

	case manifest.Array:
		// Ordered alternatives: every successful element contributes, and
		// errors in individual alternatives are swallowed.
		var targets []string
		for _, item := range value.Items {
			mapped, err := fieldMapping(field, match, item, conditions)
			if err != nil {
				continue
			}
			targets = append(targets, mapped...)
		}
		return targets, nil

	case manifest.Object:
		selected, found, err := conditionalMapping(value, conditions)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		return fieldMapping(field, match, selected, conditions)
	}
	return nil, nil
}

// conditionalMapping picks the first branch whose key is "default" or a
// member of the condition set, descending into nested conditional objects.
// A nested object that selects nothing falls through to the next matching
// key of its parent.
// The descent is iterative with an explicit (members, cursor) stack so a
// deeply nested adversarial manifest cannot overflow the goroutine stack.
func conditionalMapping(mapping manifest.Value, conditions map[string]bool) (manifest.Value, bool, error) {
	type frame struct {
		members []manifest.Member
		cursor  int
	}
	stack := []frame{{members: mapping.Members}}

outer:
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		for i := top.cursor; i < len(top.members); i++ {
			member := top.members[i]
			if member.Key == conditionDefault {
				if i != len(top.members)-1 {
					return manifest.Value{}, false, unexpectedValuef("Default condition should be last one")
				}
			} else if !conditions[member.Key] {
				continue
			}
			if member.Value.IsObject() {
				top.cursor = i + 1
				stack = append(stack, frame{members: member.Value.Members})
				continue outer
			}
			return member.Value, true, nil
		}
		stack = stack[:len(stack)-1]
	}
	return manifest.Value{}, false, nil
}

func targetMapping(field mapField, match matchResult, target string) (string, error) {
	if match.remaining == "" {
		if err := field.assertTarget(target, false); err != nil {
			return "", err
		}
		return target, nil
	}
	if match.isSubpath {
		if err := field.assertTarget(target, true); err != nil {
			return "", err
		}
		return target + match.remaining, nil
	}
	if err := field.assertTarget(target, false); err != nil {
		return "", err
	}
	if match.isPattern {
		// Literal '$' in the captured middle must not act as a replacement
		// reference, so it is doubled before substitution.
		return strings.ReplaceAll(target, "*", strings.ReplaceAll(match.remaining, "$", "$$")), nil
	}
	return target, nil
}

func (field mapField) assertRequest(request string) error {
	if field == exportsMapField {
		if !strings.HasPrefix(request, ".") || (len(request) > 1 && !strings.HasPrefix(request, "./")) {
			return unexpectedValuef("Request should be relative path and start with '.', but got %s", request)
		}
		return nil
	}
	switch {
	case !strings.HasPrefix(request, "#"):
		return unexpectedValuef("Request should start with #, but got %s", request)
	case len(request) == 1:
		return unexpectedValuef("Request should have at least 2 characters")
	case strings.HasPrefix(request, "#/"):
		return unexpectedValuef("Import field key should not start with #/, but got %s", request)
	case strings.HasSuffix(request, "/"):
		return unexpectedValuef("Only requesting file allowed")
	}
	return nil
}

func (field mapField) assertTarget(target string, expectFolder bool) error {
	if field == exportsMapField {
		if len(target) < 2 || strings.HasPrefix(target, "/") ||
			(strings.HasPrefix(target, ".") && !strings.HasPrefix(target, "./")) {
			return unexpectedValuef("Export should be relative path and start with \"./\", but got %s", target)
		}
	}
	if strings.HasSuffix(target, "/") != expectFolder {
		if expectFolder {
			return unexpectedValuef("Expected %s is folder mapping", target)
		}
		return unexpectedValuef("Expected %s is file mapping", target)
	}
	return nil
}

func (field mapField) findMatch(root manifest.Value, request string) (matchResult, bool, error) {
	if field == exportsMapField {
		switch root.Kind {
		case manifest.Object:
			for i, member := range root.Members {
				key := member.Key
				if !strings.HasPrefix(key, ".") {
					if i != 0 {
						return matchResult{}, false, unexpectedValuef("Export field key should be relative path and start with \".\", but got %s", key)
					}
					// The root is a pure conditional object. Mixing
					// relative keys in is an error, and it only matches
					// the "." request.
					for _, other := range root.Members {
						if strings.HasPrefix(other.Key, ".") || strings.HasPrefix(other.Key, "/") {
							return matchResult{}, false, unexpectedValuef("Export field key should be relative path and start with \"./\", but got %s", other.Key)
						}
					}
					if request != "." {
						return matchResult{}, false, nil
					}
					return matchResult{value: root, remaining: "."}, true, nil
				}
				if len(key) > 1 && key[1] != '/' {
					return matchResult{}, false, unexpectedValuef("Export field key should be relative path and start with \"./\", but got %s", key)
				}
			}
			return findMatchInObject(root, request)

		case manifest.Array, manifest.String:
			if request != "." {
				return matchResult{}, false, nil
			}
			return matchResult{value: root, remaining: "."}, true, nil
		}
		return matchResult{}, false, nil
	}

	if root.Kind != manifest.Object {
		return matchResult{}, false, nil
	}
	for _, member := range root.Members {
		switch {
		case !strings.HasPrefix(member.Key, "#"):
			return matchResult{}, false, unexpectedValuef("Imports field key should start with #, but got %s", member.Key)
		case len(member.Key) == 1:
			return matchResult{}, false, unexpectedValuef("Imports field key should have at least 2 characters, but got %s", member.Key)
		case strings.HasPrefix(member.Key, "#/"):
			return matchResult{}, false, unexpectedValuef("Import field key should not start with #/, but got %s", member.Key)
		}
	}
	return findMatchInObject(root, request)
}

// findMatchInObject picks the best key for a request: an exact key when the
// request can be exact, otherwise the most specific matching pattern or
// subpath key under the pattern-key ordering.
func findMatchInObject(field manifest.Value, request string) (matchResult, bool, error) {
	if !strings.Contains(request, "*") && !strings.HasSuffix(request, "/") {
		if value, ok := field.Get(request); ok {
			return matchResult{value: value}, true, nil
		}
	}

	bestKey := ""
	bestRemaining := ""
	found := false

	for _, member := range field.Members {
		key := member.Key
		if starIndex := strings.IndexByte(key, '*'); starIndex != -1 {
			prefix := key[:starIndex]
			if !strings.HasPrefix(request, prefix) {
				continue
			}
			trailer := key[starIndex+1:]
			if len(request) >= len(key) && strings.HasSuffix(request, trailer) &&
				patternKeyCompare(bestKey, key) > 0 && strings.LastIndexByte(key, '*') == starIndex {
				bestKey = key
				bestRemaining = request[starIndex : len(request)-len(trailer)]
				found = true
			}
		} else if strings.HasSuffix(key, "/") && strings.HasPrefix(request, key) &&
			patternKeyCompare(bestKey, key) > 0 {
			bestKey = key
			bestRemaining = request[len(key):]
			found = true
		}
	}

	if !found {
		return matchResult{}, false, nil
	}
	value, _ := field.Get(bestKey)
	return matchResult{
		value:     value,
		remaining: bestRemaining,
		isSubpath: strings.HasSuffix(bestKey, "/"),
		isPattern: strings.Contains(bestKey, "*"),
	}, true, nil
}

// patternKeyCompare is a total order over candidate keys; the most specific
// key wins. It compares by base length (characters up to and including the
// '*', or the full length without one); a longer base wins, a tie prefers
// the key with a '*' over one without, and a remaining tie prefers the
// longer full key.
// Returns a negative number when a is more specific, positive when b is.
func patternKeyCompare(a string, b string) int {
	aStar := strings.IndexByte(a, '*')
	bStar := strings.IndexByte(b, '*')
	aBase := len(a)
	if aStar != -1 {
		aBase = aStar + 1
	}
	bBase := len(b)
	if bStar != -1 {
		bBase = bStar + 1
	}
	switch {
	case aBase > bBase:
		return -1
	case bBase > aBase, aStar == -1:
		return 1
	case bStar == -1, len(a) > len(b):
		return -1
	case len(b) > len(a):
		return 1
	}
	return 0
}

// checkTarget rejects any relative target whose component-wise walk
// escapes above the package root.
func checkTarget(relativePath string) error {
	depth := 0
	rest := relativePath
	for {
		slash := strings.IndexByte(rest, '/')
		if slash == -1 {
			return nil
		}
		segment := rest[:slash]
		if strings.HasPrefix(segment, "..") {
			depth--
			if depth < 0 {
				return unexpectedValuef("Trying to access out of package scope. Requesting %s", relativePath)
			}
		} else if !strings.HasPrefix(segment, ".") {
			depth++
		}
		rest = rest[slash+1:]
	}
}
