package resolver

// PathKind classifies a request target and controls which dispatch branch
// of the pipeline runs. Classification is derived purely from the target
// text.
type PathKind uint8

const (
	PathKindRelative PathKind = iota
	PathKindAbsoluteWin
	PathKindAbsolutePosix
	PathKindInternal
	PathKindNormal
)

func (kind PathKind) String() string {
	switch kind {
	case PathKindRelative:
		return "relative"
	case PathKindAbsoluteWin:
		return "absolute-win"
	case PathKindAbsolutePosix:
		return "absolute-posix"
	case PathKindInternal:
		return "internal"
	}
	return "normal"
}

// winPrefixMatcher answers whether a target begins with a Windows drive
// prefix. It is built once from the literal pattern set (every drive letter
// in both cases crossed with "\" and "/", plus the bare two-byte "X:"
// form) and matches with leftmost-longest semantics anchored at offset
// zero. Classification runs on every request, so matching is a table probe
// with no allocation.
type winPrefixMatcher struct {
	// drive[b] is true when byte b is a drive letter that appeared as the
	// first byte of at least one pattern.
	drive [256]bool
	// tail[b] is true when byte b appeared as the third byte of a
	// three-byte pattern.
	tail [256]bool
}

func newWinPrefixMatcher(twoBytePatterns []string, threeBytePatterns []string) *winPrefixMatcher {
	m := &winPrefixMatcher{}
	for _, pattern := range twoBytePatterns {
		m.drive[pattern[0]] = true
	}
	for _, pattern := range threeBytePatterns {
		m.drive[pattern[0]] = true
		m.tail[pattern[2]] = true
	}
	return m
}

// matches reports a hit only when the match starts at offset 0 and spans a
// whole pattern: either the target is exactly a two-byte pattern, or its
// first three bytes are a three-byte pattern.
func (m *winPrefixMatcher) matches(target string) bool {
	if len(target) < 2 || !m.drive[target[0]] || target[1] != ':' {
		return false
	}
	if len(target) == 2 {
		return true
	}
	return m.tail[target[2]]
}

var absoluteWinMatcher = newWinPrefixMatcher(winPatterns(""), append(winPatterns(`\`), winPatterns("/")...))

// winPatterns expands the drive-letter pattern family for one suffix.
func winPatterns(suffix string) []string {
	patterns := make([]string, 0, 52)
	for _, letters := range []struct{ from, to byte }{{'a', 'z'}, {'A', 'Z'}} {
		for letter := letters.from; letter <= letters.to; letter++ {
			patterns = append(patterns, string(letter)+":"+suffix)
		}
	}
	return patterns
}

// targetKind classifies a target string. The rules run in order: the empty
// target first, then "#" internals, then rooted posix paths, then
// dot-relative forms, then the Windows drive prefix probe, with everything
// else a normal (module-style) request.
func targetKind(target string) PathKind {
	if target == "" {
		return PathKindRelative
	}
	switch target[0] {
	case '#':
		return PathKindInternal
	case '/':
		return PathKindAbsolutePosix
	}
	if target == "." || target == ".." ||
		len(target) >= 2 && target[0] == '.' && target[1] == '/' ||
		len(target) >= 3 && target[0] == '.' && target[1] == '.' && target[2] == '/' {
		return PathKindRelative
	}
	if absoluteWinMatcher.matches(target) {
		return PathKindAbsoluteWin
	}
	return PathKindNormal
}
