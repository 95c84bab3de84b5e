// Package mail fetches document bundles from an IMAP mailbox. Each message
// becomes one bundle directory named after its subject, holding the saved
// body and every attachment.
package mail

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	gomail "github.com/emersion/go-message/mail"
	"golang.org/x/sync/errgroup"
)

// Config identifies the mailbox to poll.
type Config struct {
	Server   string
	Address  string
	Password string
	// UnseenOnly restricts fetching to messages not yet marked seen.
	UnseenOnly bool
}

// Source downloads messages into bundle directories.
type Source struct {
	cfg Config
}

// NewSource returns a Source for cfg.
func NewSource(cfg Config) *Source {
	return &Source{cfg: cfg}
}

// Fetch connects to the mailbox, downloads matching messages into
// per-subject directories under downloadDir, marks them seen, and returns
// the directories written. Messages are saved concurrently; the IMAP fetch
// itself streams sequentially.
func (s *Source) Fetch(ctx context.Context, downloadDir string) ([]string, error) {
	c, err := client.DialTLS(s.cfg.Server, nil)
	if err != nil {
		return nil, fmt.Errorf("mail: dial %s: %w", s.cfg.Server, err)
	}
	defer func() { _ = c.Logout() }()

	if err := c.Login(s.cfg.Address, s.cfg.Password); err != nil {
		return nil, fmt.Errorf("mail: login: %w", err)
	}
	if _, err := c.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("mail: select inbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	if s.cfg.UnseenOnly {
		criteria.WithoutFlags = []string{imap.SeenFlag}
	}
	ids, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("mail: search: %w", err)
	}
	if len(ids) == 0 {
		slog.Info("no new messages")
		return nil, nil
	}
	slog.Info("fetching messages", "count", len(ids))

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{}
	messages := make(chan *imap.Message, len(ids))
	fetchDone := make(chan error, 1)
	go func() {
		fetchDone <- c.Fetch(seqset, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	var mu sync.Mutex
	var dirs []string
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dir, err := s.saveMessage(body, downloadDir)
			if err != nil {
				return err
			}
			if dir != "" {
				mu.Lock()
				dirs = append(dirs, dir)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dirs, fmt.Errorf("mail: %w", err)
	}
	if err := <-fetchDone; err != nil {
		return dirs, fmt.Errorf("mail: fetch: %w", err)
	}

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.Store(seqset, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		slog.Warn("could not mark messages seen", "error", err)
	}
	return dirs, nil
}

// saveMessage writes one message's body and attachments into its subject
// directory and returns the directory path.
func (s *Source) saveMessage(body io.Reader, downloadDir string) (string, error) {
	mr, err := gomail.CreateReader(body)
	if err != nil {
		return "", fmt.Errorf("parse message: %w", err)
	}

	subject, _ := mr.Header.Subject()
	dirName := CleanFilename(subject)
	if dirName == "" {
		dirName = "NoSubject"
	}
	dir := filepath.Join(downloadDir, dirName)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create bundle dir: %w", err)
	}

	senderEmail := ""
	if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		senderEmail = addrs[0].Address
	}

	var bodyText strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read message part: %w", err)
		}

		switch h := part.Header.(type) {
		case *gomail.InlineHeader:
			if ct, _, _ := h.ContentType(); ct == "text/plain" {
				data, err := io.ReadAll(part.Body)
				if err != nil {
					return "", fmt.Errorf("read body part: %w", err)
				}
				bodyText.Write(data)
			}
		case *gomail.AttachmentHeader:
			filename, _ := h.Filename()
			if filename == "" {
				continue
			}
			if err := saveAttachment(dir, CleanFilename(filename), part.Body); err != nil {
				return "", err
			}
		}
	}

	var sb strings.Builder
	if senderEmail != "" {
		fmt.Fprintf(&sb, "Sender: %s\n", senderEmail)
	}
	sb.WriteString(bodyText.String())
	if err := os.WriteFile(filepath.Join(dir, "email_body.txt"), []byte(sb.String()), 0o600); err != nil {
		return "", fmt.Errorf("save email body: %w", err)
	}

	slog.Info("saved message", "subject", subject, "dir", dir)
	return dir, nil
}

func saveAttachment(dir, filename string, r io.Reader) error {
	if filename == "" {
		return nil
	}
	path := filepath.Join(dir, filename)
	f, err := os.Create(path) //nolint:gosec // filename sanitized by CleanFilename
	if err != nil {
		return fmt.Errorf("create attachment %s: %w", filename, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("save attachment %s: %w", filename, err)
	}
	slog.Debug("saved attachment", "path", path)
	return nil
}
