package mail

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/intakehq/docintake/internal/document"
)

// bodyFileName is the saved email body inside each bundle directory.
const bodyFileName = "email_body.txt"

// LoadBundle reads one downloaded bundle directory back into a Bundle. The
// body file is optional; a hand-dropped directory of scans still processes.
func LoadBundle(dir string) (*document.Bundle, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("load bundle %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("load bundle %s: not a directory", dir)
	}

	bundle := &document.Bundle{
		Name:     filepath.Base(dir),
		Dir:      dir,
		Received: info.ModTime(),
	}

	bodyPath := filepath.Join(dir, bodyFileName)
	if _, err := os.Stat(bodyPath); err == nil {
		sender, body, err := ParseBodyFile(bodyPath)
		if err != nil {
			return nil, fmt.Errorf("load bundle %s: %w", dir, err)
		}
		bundle.SenderEmail = sender
		bundle.SenderName = SenderNameFromAddress(sender)
		bundle.EmailText = body
		bundle.ServiceNeeded = ServiceNeeded(body)
	} else {
		bundle.ServiceNeeded = "N/A"
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load bundle %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == bodyFileName {
			continue
		}
		bundle.Files = append(bundle.Files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(bundle.Files)
	return bundle, nil
}

// LoadBundles loads every bundle directory under root, sorted by name. A
// missing root yields no bundles rather than an error.
func LoadBundles(root string) ([]*document.Bundle, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load bundles: %w", err)
	}

	var bundles []*document.Bundle
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		b, err := LoadBundle(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	sort.Slice(bundles, func(i, j int) bool { return bundles[i].Name < bundles[j].Name })
	return bundles, nil
}
