package source

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeDOCX builds a minimal docx archive containing the given document.xml
// body.
func writeDOCX(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.docx")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return path
}

const docxBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph with </w:t></w:r><w:r><w:t>two runs.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
    <w:p></w:p>
    <w:p><w:r><w:t>col a</w:t><w:tab/><w:t>col b</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestExtractDOCX(t *testing.T) {
	path := writeDOCX(t, docxBody)

	text, paragraphs, err := ExtractDOCX(path)
	require.NoError(t, err)

	// The empty paragraph does not count.
	assert.Equal(t, 3, paragraphs)

	blocks := strings.Split(text, "\n\n")
	require.Len(t, blocks, 3)
	assert.Equal(t, "First paragraph with two runs.", blocks[0])
	assert.Equal(t, "Second paragraph.", blocks[1])
	assert.Equal(t, "col a\tcol b", blocks[2])
}

func TestExtractDOCX_MissingDocumentXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, _, err = ExtractDOCX(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "word/document.xml")
}

func TestExtractDOCX_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.docx")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not a zip"), 0o644))

	_, _, err := ExtractDOCX(path)
	require.Error(t, err)
}
