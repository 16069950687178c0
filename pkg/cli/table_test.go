package cli

import (
	"bytes"
	"testing"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTableTo(&buf, "NAME", "DIALECT")
	tbl.Row("csr", "csr")
	tbl.Row("lab-router-1", "default")
	tbl.Flush()

	want := "NAME          DIALECT\n" +
		"----          -------\n" +
		"csr           csr\n" +
		"lab-router-1  default\n"
	if buf.String() != want {
		t.Errorf("table output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTableTo(&buf, "NAME")
	tbl.Flush()
	if buf.Len() != 0 {
		t.Errorf("empty table wrote %q", buf.String())
	}
}

func TestTable_Prefix(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTableTo(&buf, "A", "B").WithPrefix("  ")
	tbl.Row("1", "2")
	tbl.Flush()

	want := "  A  B\n  -  -\n  1  2\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestTable_FlushResets(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTableTo(&buf, "K")
	tbl.Row("a")
	tbl.Flush()
	buf.Reset()
	tbl.Flush()
	if buf.Len() != 0 {
		t.Errorf("second flush wrote %q", buf.String())
	}
}
