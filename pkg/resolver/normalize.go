package resolver

import "strings"

// normalizePath collapses "." and ".." components syntactically: normal
// names push, ".." pops, "." disappears, and the root (or a Windows drive
// prefix) is kept verbatim. Used when symlink following is disabled and as
// the fallback when no symlink appears in an entry chain.
func normalizePath(path string) string {
	if path == "" {
		return path
	}

	prefix := ""
	rest := path
	if len(path) >= 2 && path[1] == ':' && isDriveLetter(path[0]) {
		prefix = path[:2]
		rest = path[2:]
	} else if path[0] == '/' {
		prefix = "/"
		rest = path[1:]
	}

	components := strings.FieldsFunc(rest, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	stack := make([]string, 0, len(components))
	for _, component := range components {
		switch component {
		case ".":
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, component)
		}
	}

	switch {
	case prefix == "/":
		return "/" + strings.Join(stack, "/")
	case prefix != "":
		return prefix + "\\" + strings.Join(stack, "\\")
	}
	return strings.Join(stack, "/")
}

func isDriveLetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
