package configlet

import (
	"encoding/xml"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMissingBinding is the sentinel wrapped by MissingBindingError.
var ErrMissingBinding = errors.New("missing template binding")

// MissingBindingError lists the placeholders that had no binding.
type MissingBindingError struct {
	Fragment string
	Missing  []string
}

func (e *MissingBindingError) Error() string {
	return fmt.Sprintf("fragment %s: missing binding for %s", e.Fragment, strings.Join(e.Missing, ", "))
}

func (e *MissingBindingError) Unwrap() error {
	return ErrMissingBinding
}

// Render substitutes every placeholder in f with its binding. Extra bindings
// are ignored. Rendering is pure: the same inputs always give the same payload.
func Render(f *Fragment, bindings map[string]string) (*Payload, error) {
	return f.Render(bindings)
}

// Render substitutes every placeholder with its XML-escaped binding.
func (f *Fragment) Render(bindings map[string]string) (*Payload, error) {
	var missing []string
	for _, v := range f.Variables {
		if _, ok := bindings[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingBindingError{Fragment: f.Name, Missing: missing}
	}

	out := placeholderRe.ReplaceAllStringFunc(f.Body, func(m string) string {
		return escape(bindings[m[2:len(m)-2]])
	})
	return &Payload{Fragment: f.Name, Operation: f.Operation, XML: out}, nil
}

func escape(s string) string {
	var sb strings.Builder
	// EscapeText only fails on writer errors; strings.Builder never returns one.
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
