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

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadURLsCSV(t *testing.T) {
	path := write(t, "in.csv", "id,URL\n1,https://a.example\n2, \n3,https://b.example\n")
	urls, err := ReadURLs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, urls)
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("id,link\n1,x\n"), "url")
	require.EqualError(t, err, `csv must contain a "url" header column`)
}

func TestReadHeadlinesNDJSON(t *testing.T) {
	path := write(t, "in.ndjson", `{"headline":"First headline"}
Second headline

{"url":"https://ignored.example"}
`)
	got, err := ReadHeadlines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"First headline", "Second headline"}, got)
}

func TestReadColumnGuessesFormat(t *testing.T) {
	path := write(t, "in.txt", "https://a.example\nhttps://b.example\n")
	urls, err := ReadURLs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, urls)
}

func TestReadNDJSONEmpty(t *testing.T) {
	_, err := ReadNDJSON(strings.NewReader("\n\n"), "url")
	require.ErrorIs(t, err, ErrNoValues)
}

func TestWriteNDJSON(t *testing.T) {
	type rec struct {
		URL string `json:"url"`
	}
	var buf bytes.Buffer
	require.NoError(t, WriteNDJSON(&buf, []rec{{"a"}, {"b"}}))
	assert.Equal(t, "{\"url\":\"a\"}\n{\"url\":\"b\"}\n", buf.String())
}
