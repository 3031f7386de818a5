// Package frontmatter splits page sources into a YAML header and a body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the source started with a header
// delimiter but never closed it.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a parsed page source.
type Document struct {
	// Fields holds the decoded header; never nil.
	Fields map[string]any
	// Raw is the header text between the delimiters, without them.
	Raw []byte
	// Body is everything after the closing delimiter.
	Body []byte
	// HasHeader is false when the source has no `---` header at all.
	HasHeader bool
}

// Parse splits content into header and body and decodes the header.
// CRLF sources are handled; the body is returned unmodified.
func Parse(content []byte) (*Document, error) {
	raw, body, had, err := split(content)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("parse frontmatter: %w", err)
		}
		if fields == nil {
			fields = map[string]any{}
		}
	}
	return &Document{Fields: fields, Raw: raw, Body: body, HasHeader: had}, nil
}

func split(content []byte) (header, body []byte, had bool, err error) {
	nl := newline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---")
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	headerEnd := start + idx + len(nl)
	rest := content[start+idx+len(closeSeq):]
	switch {
	case len(rest) == 0:
	case bytes.HasPrefix(rest, []byte(nl)):
		rest = rest[len(nl):]
	default:
		// "---" followed by more text on the same line is body, not a delimiter.
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return content[start:headerEnd], rest, true, nil
}

func newline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
