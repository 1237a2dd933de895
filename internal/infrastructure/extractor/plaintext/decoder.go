package plaintext

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Decoder reads UTF-8 text files as-is.
type Decoder struct{}

func (Decoder) Decode(filename string, raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("not valid utf-8 text: %s", filename)
	}
	return strings.TrimSpace(strings.TrimPrefix(string(raw), "\ufeff")), nil
}
