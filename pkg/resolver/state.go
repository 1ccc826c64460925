package resolver

import "github.com/evergreen-js/resolver/internal/logger"

// The pipeline is a trampolining state machine: every stage takes an Info
// and returns one of these states. "Failed" means this branch is exhausted
// and the nearest enclosing branch point should try its next alternative;
// "Error" is a hard failure that short-circuits the whole resolve.
type stateKind uint8

const (
	stateResolving stateKind = iota
	stateSuccess
	stateFailed
	stateError
)

type state struct {
	kind    stateKind
	info    Info
	ignored bool
	err     error
}

func resolving(info Info) state {
	return state{kind: stateResolving, info: info}
}

func success(info Info) state {
	return state{kind: stateSuccess, info: info}
}

func successIgnored() state {
	return state{kind: stateSuccess, ignored: true}
}

func failed(info Info) state {
	return state{kind: stateFailed, info: info}
}

func hardError(err error) state {
	return state{kind: stateError, err: err}
}

// isFinished reports a terminal state: the branch point contract says only
// success and hard errors stop the search.
func (s state) isFinished() bool {
	return s.kind == stateSuccess || s.kind == stateError
}

// A recursion ceiling bounds pathological alias cycles that defeat the
// self-reference guards.
const maxResolveDepth = 256

// context carries per-resolve bookkeeping across pipeline stages. It is
// never shared between concurrent resolve calls.
type context struct {
	depth int

	// fullySpecified suppresses extension probing for sub-requests that
	// must name a concrete file, such as extension-alias candidates.
	fullySpecified bool

	notes *logger.Notes
}

func (c *context) logf(format string, args ...interface{}) {
	c.notes.Addf(format, args...)
}
