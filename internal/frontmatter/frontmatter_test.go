package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_NoHeader_ReturnsBodyOnly(t *testing.T) {
	input := []byte("<h1>Title</h1>\n")

	doc, err := Parse(input)
	require.NoError(t, err)
	require.False(t, doc.HasHeader)
	require.Empty(t, doc.Fields)
	require.Equal(t, input, doc.Body)
}

func TestParse_YAMLHeader(t *testing.T) {
	doc, err := Parse([]byte("---\ntitle: Hello\nposts_per_page: 2\n---\n# Body\n"))
	require.NoError(t, err)
	require.True(t, doc.HasHeader)
	require.Equal(t, "Hello", doc.Fields["title"])
	require.Equal(t, 2, doc.Fields["posts_per_page"])
	require.Equal(t, []byte("title: Hello\nposts_per_page: 2\n"), doc.Raw)
	require.Equal(t, []byte("# Body\n"), doc.Body)
}

func TestParse_CRLF(t *testing.T) {
	doc, err := Parse([]byte("---\r\ntitle: X\r\n---\r\nbody\r\n"))
	require.NoError(t, err)
	require.Equal(t, "X", doc.Fields["title"])
	require.Equal(t, []byte("body\r\n"), doc.Body)
}

func TestParse_EmptyHeaderAndHeaderAtEOF(t *testing.T) {
	doc, err := Parse([]byte("---\n---\nbody"))
	require.NoError(t, err)
	require.True(t, doc.HasHeader)
	require.Empty(t, doc.Fields)
	require.Equal(t, []byte("body"), doc.Body)

	doc, err = Parse([]byte("---\ntitle: only\n---"))
	require.NoError(t, err)
	require.Equal(t, "only", doc.Fields["title"])
	require.Empty(t, doc.Body)
}

func TestParse_MissingClosingDelimiter(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: value\n# Title\n"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: [\n---\nbody\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse frontmatter")
}
