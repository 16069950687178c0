// Package configlet handles loading and rendering parameterised NETCONF
// configuration fragments.
//
// A fragment is a well-formed XML document carrying {{name}} placeholders.
// Rendering substitutes every placeholder with an XML-escaped binding and
// fails if any placeholder has no binding.
package configlet

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/newtron-network/ifconf/pkg/xmltree"
)

// Operation is the edit-config operation a fragment requests from the device.
type Operation string

const (
	OpMerge   Operation = "merge"
	OpReplace Operation = "replace"
	OpCreate  Operation = "create"
	OpDelete  Operation = "delete"
	OpRemove  Operation = "remove"
)

var validOperations = map[Operation]bool{
	OpMerge: true, OpReplace: true, OpCreate: true, OpDelete: true, OpRemove: true,
}

var placeholderRe = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_-]*)\}\}`)

// Fragment is a named configuration template with a validated placeholder set.
type Fragment struct {
	Name        string
	Description string
	Operation   Operation
	Root        string // document element, e.g. "config" or "filter"
	Body        string
	Variables   []string // sorted, unique
}

// New parses body into a Fragment. The body must be well-formed once its
// placeholders are filled, and must not contain malformed placeholders.
func New(name, description, body string) (*Fragment, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("fragment name is required")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("fragment %s: body is empty", name)
	}

	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(body, -1) {
		seen[m[1]] = true
	}
	vars := make([]string, 0, len(seen))
	for v := range seen {
		vars = append(vars, v)
	}
	sort.Strings(vars)

	sample := placeholderRe.ReplaceAllString(body, "x")
	if strings.Contains(sample, "{{") || strings.Contains(sample, "}}") {
		return nil, fmt.Errorf("fragment %s: malformed placeholder", name)
	}
	tree, err := xmltree.Parse([]byte(sample))
	if err != nil {
		return nil, fmt.Errorf("fragment %s: %w", name, err)
	}
	op, err := operationOf(tree)
	if err != nil {
		return nil, fmt.Errorf("fragment %s: %w", name, err)
	}

	return &Fragment{
		Name:        name,
		Description: description,
		Operation:   op,
		Root:        tree.Name,
		Body:        body,
		Variables:   vars,
	}, nil
}

// operationOf returns the first operation attribute in document order, or
// merge when none is present.
func operationOf(n *xmltree.Node) (Operation, error) {
	if v, ok := n.Attr("operation"); ok {
		op := Operation(v)
		if !validOperations[op] {
			return "", fmt.Errorf("unknown operation %q", v)
		}
		return op, nil
	}
	for _, c := range n.Children {
		op, err := operationOf(c)
		if err != nil {
			return "", err
		}
		if op != OpMerge {
			return op, nil
		}
	}
	return OpMerge, nil
}

// Payload is a rendered fragment ready to send.
type Payload struct {
	Fragment  string
	Operation Operation
	XML       string
}

func (p *Payload) String() string {
	return p.XML
}
