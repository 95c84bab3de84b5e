package convert

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDOCX(t *testing.T, path, documentXML string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	w := zip.NewWriter(f)
	entry, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = entry.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

const salaryTable = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Basic Salary:</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>3000</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Housing </w:t></w:r><w:r><w:t>Allowance</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>1500</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t></w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>ignored</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

func TestParseSalaryDOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salary.docx")
	writeDOCX(t, path, salaryTable)

	data, err := ParseSalaryDOCX(path)
	require.NoError(t, err)

	assert.Equal(t, "3000", data["Basic Salary"])
	// Split runs within one cell concatenate.
	assert.Equal(t, "1500", data["Housing Allowance"])
	assert.Len(t, data, 2)
}

func TestParseSalaryDOCXMissingBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	_, err = ParseSalaryDOCX(path)
	assert.Error(t, err)
}

func TestParseSalaryDOCXNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.docx")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	_, err := ParseSalaryDOCX(path)
	assert.Error(t, err)
}
