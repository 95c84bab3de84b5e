package mail

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intakehq/docintake/internal/testutil"
)

func TestCleanFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Visa Renewal - Yogesh", "Visa Renewal  Yogesh"},
		{"scan_001.pdf", "scan_001.pdf"},
		{"../../etc/passwd", "....etcpasswd"},
		{"résumé.docx", "rsum.docx"},
		{"trailing spaces   ", "trailing spaces"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanFilename(tt.in), "input %q", tt.in)
	}
}

func TestServiceNeeded(t *testing.T) {
	assert.Equal(t, "Employment Visa Renewal",
		ServiceNeeded("Hello,\nService Needed: Employment Visa Renewal\nThanks"))
	assert.Equal(t, "Work Permit", ServiceNeeded("service needed- Work Permit"))
	assert.Equal(t, "N/A", ServiceNeeded("no service line here"))
}

func TestSenderNameFromAddress(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"amit.sharma@example.com", "Amit Sharma"},
		{"amit_sharma@example.com", "Amit Sharma"},
		{"hr@example.com", "Hr"},
		{"user123@example.com", ""},
		{"not-an-address", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SenderNameFromAddress(tt.addr), "addr %q", tt.addr)
	}
}

func TestParseBodyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "email_body.txt")
	testutil.WriteFile(t, path, "Sender: amit.sharma@example.com\nPlease renew the visa.\n")

	sender, body, err := ParseBodyFile(path)
	require.NoError(t, err)
	assert.Equal(t, "amit.sharma@example.com", sender)
	assert.Equal(t, "Please renew the visa.\n", body)
}

func TestParseBodyFileWithoutSenderLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "email_body.txt")
	testutil.WriteFile(t, path, "Just a body.\n")

	sender, body, err := ParseBodyFile(path)
	require.NoError(t, err)
	assert.Empty(t, sender)
	assert.Equal(t, "Just a body.\n", body)
}

func TestCleanupStale(t *testing.T) {
	dir := t.TempDir()
	oldDir := filepath.Join(dir, "old-bundle")
	newDir := filepath.Join(dir, "new-bundle")
	require.NoError(t, os.Mkdir(oldDir, 0o750))
	require.NoError(t, os.Mkdir(newDir, 0o750))

	past := time.Now().Add(-90 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(oldDir, past, past))

	require.NoError(t, CleanupStale(dir, 60*24*time.Hour))

	assert.NoDirExists(t, oldDir)
	assert.DirExists(t, newDir)
}

func TestCleanupStaleMissingDir(t *testing.T) {
	require.NoError(t, CleanupStale(filepath.Join(t.TempDir(), "absent"), time.Hour))
}
