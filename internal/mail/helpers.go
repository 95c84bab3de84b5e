package mail

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// serviceNeededRe pulls the explicitly requested service out of a body line
// like "Service needed: Employment Visa Renewal".
var serviceNeededRe = regexp.MustCompile(`(?i)service needed[:\-]\s*(.+)`)

// plainAddressRe matches sender addresses whose local part looks like a
// person's name, so a display name can be derived from it.
var plainAddressRe = regexp.MustCompile(`^[A-Za-z._]+@[A-Za-z0-9.-]+$`)

var localPartSep = regexp.MustCompile(`[._]`)

// CleanFilename keeps only characters safe for a cross-platform filename:
// letters, digits, spaces, dots and underscores.
func CleanFilename(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if r == ' ' || r == '.' || r == '_' ||
			('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return strings.TrimRight(sb.String(), " ")
}

// ServiceNeeded extracts the explicitly stated service from an email body.
// Returns "N/A" when the body does not state one.
func ServiceNeeded(body string) string {
	if m := serviceNeededRe.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}
	return "N/A"
}

// SenderNameFromAddress guesses a human name from an address like
// "amit.sharma@example.com" -> "Amit Sharma". Addresses whose local part is
// not alphabetic yield "".
func SenderNameFromAddress(addr string) string {
	if !plainAddressRe.MatchString(addr) {
		return ""
	}
	local := strings.SplitN(addr, "@", 2)[0]
	parts := localPartSep.Split(local, -1)
	for _, p := range parts {
		if p == "" || !isAlpha(p) {
			return ""
		}
	}
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	}
	return strings.Join(parts, " ")
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') {
			return false
		}
	}
	return true
}

// ParseBodyFile splits a saved email body into the sender address from its
// leading "Sender:" line and the remaining text.
func ParseBodyFile(path string) (senderEmail, body string, err error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from our own bundle layout
	if err != nil {
		return "", "", fmt.Errorf("read email body: %w", err)
	}

	text := string(data)
	if line, rest, found := strings.Cut(text, "\n"); found || line != "" {
		if strings.HasPrefix(strings.ToLower(line), "sender:") {
			return strings.TrimSpace(line[len("sender:"):]), rest, nil
		}
	}
	return "", text, nil
}

// CleanupStale removes bundle directories under dir whose modification time
// is older than maxAge. Processed mail piles up otherwise.
func CleanupStale(dir string, maxAge time.Duration) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cleanup %s: %w", dir, err)
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(dir, entry.Name())
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("cleanup %s: %w", path, err)
			}
			slog.Info("removed stale bundle directory", "path", path)
		}
	}
	return nil
}
