package xmlclause

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// Decoder extracts clause text from processed clause XML: the text of every
// <cn> element in document order, one element per line. Files without <cn>
// elements fall back to all character data.
type Decoder struct{}

func (Decoder) Decode(filename string, raw []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = false
	dec.CharsetReader = charsetReader

	var (
		clauses []string
		all     []string
		depth   int
		current strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse clause xml %s: %w", filename, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "cn" {
				if depth == 0 {
					current.Reset()
				}
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == "cn" && depth > 0 {
				depth--
				if depth == 0 {
					clauses = append(clauses, strings.TrimSpace(current.String()))
				}
			}
		case xml.CharData:
			if depth > 0 {
				current.Write(t)
			}
			if text := strings.TrimSpace(string(t)); text != "" {
				all = append(all, text)
			}
		}
	}

	if len(clauses) > 0 {
		return strings.Join(clauses, "\n"), nil
	}
	return strings.Join(all, "\n"), nil
}

// charsetReader decodes legacy encodings such as EUC-KR declared in the prolog.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported xml charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
