package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Table collects rows and prints them column-aligned under a header and a
// dash rule. A table with no rows prints nothing.
type Table struct {
	out     io.Writer
	headers []string
	rows    [][]string
	prefix  string
}

// NewTable creates a table printing to stdout.
func NewTable(headers ...string) *Table {
	return NewTableTo(os.Stdout, headers...)
}

// NewTableTo creates a table printing to out.
func NewTableTo(out io.Writer, headers ...string) *Table {
	return &Table{out: out, headers: headers}
}

// WithPrefix indents every line, header included.
func (t *Table) WithPrefix(prefix string) *Table {
	t.prefix = prefix
	return t
}

// Row appends a row; cells beyond the header count are kept.
func (t *Table) Row(values ...string) {
	t.rows = append(t.rows, values)
}

// Flush prints the header, the rule and all rows, then resets the rows.
func (t *Table) Flush() {
	if len(t.rows) == 0 {
		return
	}
	w := tabwriter.NewWriter(t.out, 0, 0, 2, ' ', 0)
	rule := make([]string, len(t.headers))
	for i, h := range t.headers {
		rule[i] = strings.Repeat("-", len(h))
	}
	for _, line := range append([][]string{t.headers, rule}, t.rows...) {
		fmt.Fprintln(w, t.prefix+strings.Join(line, "\t"))
	}
	w.Flush()
	t.rows = nil
}
