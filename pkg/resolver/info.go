package resolver

import (
	"strings"

	"github.com/evergreen-js/resolver/internal/fs"
)

// Info anchors one pipeline step: resolve this request relative to this
// path. Values are immutable; every rewrite makes a copy.
type Info struct {
	path    string
	request Request
}

func makeInfo(path string, request Request) Info {
	return Info{path: path, request: request}
}

func (i Info) Path() string {
	return i.path
}

func (i Info) Request() Request {
	return i.request
}

func (i Info) withPath(path string) Info {
	i.path = path
	return i
}

func (i Info) withRequest(request Request) Info {
	i.request = request
	return i
}

func (i Info) withTarget(target string) Info {
	i.request = i.request.withTarget(target)
	return i
}

// resolvedPath joins the anchor path and the target. An absolute target is
// its own anchor. The target's trailing slash is significant (it
// distinguishes "a.js" from "a.js/"), so it survives the join.
func (i Info) resolvedPath(fx fs.FS) string {
	target := i.request.Target
	if target == "" || target == "." {
		return i.path
	}
	if i.request.Kind == PathKindAbsoluteWin {
		return target
	}
	joined := fx.Join(i.path, target)
	if i.request.Kind == PathKindAbsolutePosix {
		joined = fx.Join(target)
	}
	if strings.HasSuffix(target, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return joined
}
