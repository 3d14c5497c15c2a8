// Package ingest reads RFC 5322 message files into pipeline messages.
package ingest

import (
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/jobtrail/jobtrail/internal/model"
)

var (
	tagPattern        = regexp.MustCompile(`(?s)<[^>]*>`)
	scriptPattern     = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	whitespacePattern = regexp.MustCompile(`[ \t]+`)
	blankLinePattern  = regexp.MustCompile(`\n{3,}`)
)

// ParseReader reads one message. The text/plain part is preferred as the
// body; an HTML-only message falls back to tag-stripped text.
func ParseReader(r io.Reader) (model.Message, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return model.Message{}, fmt.Errorf("failed to read message: %w", err)
	}

	var msg model.Message

	if subject, err := mr.Header.Subject(); err == nil {
		msg.Subject = subject
	}
	if date, err := mr.Header.Date(); err == nil {
		msg.ReceivedAt = date.UTC()
	}
	if id, err := mr.Header.MessageID(); err == nil {
		msg.ID = id
	}
	msg.ThreadID = threadID(mr.Header)

	if msg.ID == "" {
		return model.Message{}, fmt.Errorf("message has no Message-ID header")
	}

	var plain, htmlBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Message{}, fmt.Errorf("failed to read message part: %w", err)
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, err := header.ContentType()
		if err != nil {
			continue
		}

		body, err := io.ReadAll(part.Body)
		if err != nil {
			return model.Message{}, fmt.Errorf("failed to read part body: %w", err)
		}

		switch contentType {
		case "text/plain":
			if plain == "" {
				plain = string(body)
			}
		case "text/html":
			if htmlBody == "" {
				htmlBody = string(body)
			}
		}
	}

	if plain != "" {
		msg.Body = normalizeBody(plain)
	} else if htmlBody != "" {
		msg.Body = normalizeBody(stripHTML(htmlBody))
	}

	return msg, nil
}

// ParseFile reads one .eml file.
func ParseFile(path string) (model.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Message{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	msg, err := ParseReader(f)
	if err != nil {
		return model.Message{}, fmt.Errorf("%s: %w", path, err)
	}
	return msg, nil
}

// ParseDir reads every .eml file under dir, skipping and reporting files
// that fail to parse rather than aborting the batch.
func ParseDir(dir string) ([]model.Message, []error) {
	var (
		messages []model.Message
		errs     []error
	)

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".eml") {
			return nil
		}

		msg, parseErr := ParseFile(path)
		if parseErr != nil {
			errs = append(errs, parseErr)
			return nil
		}
		messages = append(messages, msg)
		return nil
	})
	if err != nil {
		errs = append(errs, err)
	}

	return messages, errs
}

// threadID keys the conversation: the first referenced message id when
// the mail is a reply, else its own id.
func threadID(header mail.Header) string {
	if refs, err := header.MsgIDList("References"); err == nil && len(refs) > 0 {
		return refs[0]
	}
	if replies, err := header.MsgIDList("In-Reply-To"); err == nil && len(replies) > 0 {
		return replies[0]
	}
	id, _ := header.MessageID()
	return id
}

func stripHTML(body string) string {
	body = scriptPattern.ReplaceAllString(body, " ")
	body = tagPattern.ReplaceAllString(body, " ")
	return html.UnescapeString(body)
}

func normalizeBody(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = whitespacePattern.ReplaceAllString(body, " ")
	body = blankLinePattern.ReplaceAllString(body, "\n\n")
	return strings.TrimSpace(body)
}
