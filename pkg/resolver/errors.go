package resolver

import (
	"errors"
	"fmt"

	"github.com/evergreen-js/resolver/internal/cache"
)

// ErrResolveFailed is the sentinel behind every "not found" failure. Hard
// errors (I/O failures, malformed manifests, exports/imports spec
// violations, recursion overflow) are distinct types and never match it.
var ErrResolveFailed = errors.New("resolve failed")

// UnexpectedValueError reports a specification violation: an invalid
// exports/imports shape, an invalid mapping target, a mis-ordered
// "default" condition, and so on. The message carries the offending
// fragment.
type UnexpectedValueError struct {
	Message string
}

func (e *UnexpectedValueError) Error() string {
	return e.Message
}

func unexpectedValuef(format string, args ...interface{}) error {
	return &UnexpectedValueError{Message: fmt.Sprintf(format, args...)}
}

// UnexpectedJSONError reports a description file that failed to parse,
// tagged with its path.
type UnexpectedJSONError = cache.JSONError

// OverflowError reports that the recursion depth ceiling was crossed,
// which is what a pathological alias cycle looks like when the
// self-reference guards have been defeated.
type OverflowError struct{}

func (*OverflowError) Error() string {
	return "resolve depth limit exceeded"
}

// CantFindTsConfigError is reserved for optional tsconfig integration.
// Nothing in the core produces it.
type CantFindTsConfigError struct {
	Path string
}

func (e *CantFindTsConfigError) Error() string {
	return fmt.Sprintf("cannot find tsconfig file %q", e.Path)
}

type resolveFailedError struct {
	request string
	baseDir string
}

func (e *resolveFailedError) Error() string {
	return fmt.Sprintf("Resolve '%s' failed in '%s'", e.request, e.baseDir)
}

func (e *resolveFailedError) Is(target error) bool {
	return target == ErrResolveFailed
}
