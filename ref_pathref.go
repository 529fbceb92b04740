package contractkit

import (
	"fmt"
	"strings"
)

// PathRef builds JSON Pointer paths in a chain-safe way and creates Issues.
type PathRef struct {
	parts []string
}

// Root is the document root ("/").
func Root() PathRef { return PathRef{} }

// Field returns the path of a child key. '~' and '/' are escaped per RFC 6901.
func (p PathRef) Field(name string) PathRef {
	if name == "" {
		return p
	}
	esc := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
	return PathRef{parts: append(append([]string{}, p.parts...), esc)}
}

// Pointer renders the path; the root renders as "/".
func (p PathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

// Issue creates an Issue at this path. kv are alternating param keys and
// values.
func (p PathRef) Issue(code, msg string, kv ...any) Issue {
	var m map[string]any
	if len(kv) > 1 {
		m = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			m[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	return Issue{Path: p.Pointer(), Code: code, Message: msg, Params: m}
}
