package xmltree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// Pretty re-indents an XML document. Prefixes and namespace declarations
// are written back exactly as they appeared; whitespace-only text is dropped.
func Pretty(data []byte, indent string) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", indent)

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("formatting document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			t.Name = flatten(t.Name)
			attrs := make([]xml.Attr, len(t.Attr))
			for i, a := range t.Attr {
				attrs[i] = xml.Attr{Name: flatten(a.Name), Value: a.Value}
			}
			t.Attr = attrs
			tok = t
		case xml.EndElement:
			t.Name = flatten(t.Name)
			tok = t
		case xml.CharData:
			if len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			tok = xml.CharData(bytes.TrimSpace(t))
		case xml.Comment:
			tok = t.Copy()
		case xml.ProcInst:
			tok = t.Copy()
		case xml.Directive:
			continue
		}

		if err := enc.EncodeToken(tok); err != nil {
			return nil, fmt.Errorf("formatting document: %w", err)
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// flatten folds a raw prefix into the local name so the encoder writes it
// verbatim instead of inventing its own namespace declarations.
func flatten(n xml.Name) xml.Name {
	if n.Space == "" {
		return n
	}
	return xml.Name{Local: n.Space + ":" + n.Local}
}
