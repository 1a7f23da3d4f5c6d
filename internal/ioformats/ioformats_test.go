
package ioformats

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Title string `json:"title"`
	Link  string `json:"title_link"`
}

func TestMarshalIndentKeepsTextLiteral(t *testing.T) {
	data, err := MarshalIndent(map[string]string{"q": "don’t <b>stop</b> & go"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"q\": \"don’t <b>stop</b> & go\"\n}", string(data))
}

func TestWriteFormats(t *testing.T) {
	items := []item{{Title: "a", Link: "https://x/a"}, {Title: "b", Link: "https://x/b"}}

	var nd bytes.Buffer
	require.NoError(t, Write(&nd, FormatNDJSON, items))
	assert.Equal(t, `{"title":"a","title_link":"https://x/a"}`+"\n"+`{"title":"b","title_link":"https://x/b"}`+"\n", nd.String())

	var js bytes.Buffer
	require.NoError(t, Write(&js, "", items))
	assert.True(t, strings.HasPrefix(js.String(), "[\n  {\n    \"title\": \"a\""))

	assert.Error(t, Write(&js, "xml", items))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestReadURLsCSV(t *testing.T) {
	p := writeFile(t, "urls.csv", "title,title_link\nA,https://x/a\nB, https://x/b \nC,\n")
	urls, err := ReadURLs(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/a", "https://x/b"}, urls)

	p = writeFile(t, "bad.csv", "name\nfoo\n")
	_, err = ReadURLs(p)
	assert.Error(t, err)
}

func TestReadURLsNDJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNDJSON(&buf, []item{{Title: "a", Link: "https://x/a"}}))
	buf.WriteString("\nhttps://x/raw\n{\"url\":\"https://x/u\"}\n{\"title\":\"no link\"}\n")

	urls, err := ReadURLs(writeFile(t, "list.ndjson", buf.String()))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/a", "https://x/raw", "https://x/u"}, urls)
}

func TestReadURLsUnknownExtension(t *testing.T) {
	urls, err := ReadURLs(writeFile(t, "urls.txt", "https://x/a\nhttps://x/b\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/a", "https://x/b"}, urls)

	_, err = ReadURLs(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
