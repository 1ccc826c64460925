package resolver

// Request is the parsed form of the textual specifier a caller passes in.
// If non-empty, Query begins with '?' and Fragment begins with '#';
// concatenating Target+Query+Fragment reproduces the original input.
type Request struct {
	Target   string
	Query    string
	Fragment string
	Kind     PathKind
}

type parsePhase uint8

const (
	phaseStart parsePhase = iota
	phaseTarget
	phaseQuery
	phaseFragment
)

// parseRequest splits "target?query#fragment". A '?' or '#' is literal
// until the first separator that actually starts the query or fragment: a
// leading '#' begins the target (an internal request), a '#' after the
// query starts the fragment, and everything after the fragment starts is
// fragment. The three pieces are contiguous, so the split is two indexes
// over the input and allocates nothing.
func parseRequest(identifier string) Request {
	phase := phaseStart
	queryStart := len(identifier)
	fragmentStart := len(identifier)

scan:
	for i := 0; i < len(identifier); i++ {
		switch identifier[i] {
		case '#':
			switch phase {
			case phaseStart:
				phase = phaseTarget
			case phaseTarget, phaseQuery:
				fragmentStart = i
				if phase == phaseTarget {
					queryStart = i
				}
				break scan
			}
		case '?':
			switch phase {
			case phaseStart, phaseTarget:
				phase = phaseQuery
				queryStart = i
			}
		default:
			if phase == phaseStart {
				phase = phaseTarget
			}
		}
	}

	target := identifier[:queryStart]
	return Request{
		Target:   target,
		Query:    identifier[queryStart:fragmentStart],
		Fragment: identifier[fragmentStart:],
		Kind:     targetKind(target),
	}
}

// withTarget returns a copy with a new target, reclassified.
func (r Request) withTarget(target string) Request {
	r.Target = target
	r.Kind = targetKind(target)
	return r
}

// join reassembles the original specifier text.
func (r Request) join() string {
	return r.Target + r.Query + r.Fragment
}
