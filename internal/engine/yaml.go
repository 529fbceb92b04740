package engine

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DuplicateKeyError reports a duplicate key found in a YAML mapping with both
// the first occurrence position and the duplicate occurrence position.
type DuplicateKeyError struct {
	Path      string
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// ErrMultipleDocuments reports a YAML stream with more than one document.
var ErrMultipleDocuments = errors.New("expected a single YAML document")

// Aliases may expand the decoded value to at most aliasFactor times the
// number of nodes written in the document, plus aliasSlack.
const (
	aliasFactor = 10
	aliasSlack  = 10000
)

// DecodeYAML decodes a single YAML document into JSON-compatible Go values
// (map[string]any, []any, primitives). Duplicate keys follow opt like the
// JSON path: ignored, reported to opt.IssueSink, or returned as IssueError.
func DecodeYAML(r io.Reader, opt EnforceOptions) (any, error) {
	dec := yaml.NewDecoder(r)
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, err
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, ErrMultipleDocuments
	}
	d := &yamlDecoder{opt: opt, budget: aliasFactor*countNodes(&root) + aliasSlack}
	v, err := d.node(&root, "", 0)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrEmpty
	}
	return v, nil
}

type yamlDecoder struct {
	opt    EnforceOptions
	budget int // nodes left to produce
}

// countNodes counts the nodes as written, without following aliases.
func countNodes(n *yaml.Node) int {
	c := 1
	for _, ch := range n.Content {
		c += countNodes(ch)
	}
	return c
}

func (d *yamlDecoder) node(n *yaml.Node, path string, depth int) (any, error) {
	d.budget--
	if d.budget < 0 {
		return nil, IssueError{SimpleIssue{Code: "parse_error", Path: normalizeIssuePath(path), Message: "alias expansion limit exceeded"}}
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return d.node(n.Content[0], path, depth)
	case yaml.AliasNode:
		return d.node(n.Alias, path, depth)
	case yaml.MappingNode:
		if d.opt.MaxDepth > 0 && depth+1 > d.opt.MaxDepth {
			return nil, IssueError{SimpleIssue{Code: "parse_error", Path: normalizeIssuePath(path), Message: "max depth exceeded"}}
		}
		m := make(map[string]any, len(n.Content)/2)
		first := make(map[string][2]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			key := k.Value
			kpath := joinJSONPointer(path, key)
			if pos, dup := first[key]; dup {
				if err := d.duplicate(&DuplicateKeyError{Path: kpath, Key: key, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}); err != nil {
					return nil, err
				}
			} else {
				first[key] = [2]int{k.Line, k.Column}
			}
			val, err := d.node(v, kpath, depth+1)
			if err != nil {
				return nil, err
			}
			m[key] = val
		}
		return m, nil
	case yaml.SequenceNode:
		if d.opt.MaxDepth > 0 && depth+1 > d.opt.MaxDepth {
			return nil, IssueError{SimpleIssue{Code: "parse_error", Path: normalizeIssuePath(path), Message: "max depth exceeded"}}
		}
		arr := make([]any, 0, len(n.Content))
		for i, c := range n.Content {
			v, err := d.node(c, joinJSONPointer(path, strconv.Itoa(i)), depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		return scalar(n), nil
	default:
		return nil, nil
	}
}

func (d *yamlDecoder) duplicate(de *DuplicateKeyError) error {
	if d.opt.OnDuplicate == DupIgnore {
		return nil
	}
	si := SimpleIssue{Code: "duplicate_key", Path: de.Path, Message: de.Error()}
	if d.opt.OnDuplicate == DupError || d.opt.FailFast {
		return IssueError{si}
	}
	if d.opt.IssueSink != nil {
		d.opt.IssueSink(si)
	}
	return nil
}

func scalar(n *yaml.Node) any {
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return b
		}
		return n.Value
	case "!!int":
		// Use int64 to avoid overflow surprises; callers can coerce later
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return i
		}
		return n.Value
	case "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return f
		}
		return n.Value
	default:
		return n.Value
	}
}
