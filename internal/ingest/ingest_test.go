package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainMessage = "From: careers@initech.example\r\n" +
	"To: me@example.com\r\n" +
	"Subject: Your application to Initech\r\n" +
	"Date: Fri, 01 Mar 2024 09:00:00 +0000\r\n" +
	"Message-ID: <msg-1@initech.example>\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Thank you for applying to the Software Engineer role.\r\n"

const htmlMessage = "From: careers@hooli.example\r\n" +
	"To: me@example.com\r\n" +
	"Subject: Interview invitation\r\n" +
	"Date: Fri, 08 Mar 2024 09:00:00 +0000\r\n" +
	"Message-ID: <msg-2@hooli.example>\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body><p>Please <b>schedule your interview</b> &amp; confirm.</p></body></html>\r\n"

const replyMessage = "From: careers@initech.example\r\n" +
	"To: me@example.com\r\n" +
	"Subject: Re: Your application to Initech\r\n" +
	"Date: Fri, 15 Mar 2024 09:00:00 +0000\r\n" +
	"Message-ID: <msg-3@initech.example>\r\n" +
	"In-Reply-To: <msg-1@initech.example>\r\n" +
	"References: <msg-1@initech.example>\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"We would like to move forward.\r\n"

func TestParseReaderPlainText(t *testing.T) {
	msg, err := ParseReader(strings.NewReader(plainMessage))
	require.NoError(t, err)

	assert.Equal(t, "msg-1@initech.example", msg.ID)
	assert.Equal(t, "Your application to Initech", msg.Subject)
	assert.Equal(t, "Thank you for applying to the Software Engineer role.", msg.Body)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), msg.ReceivedAt)
	// A fresh message threads on its own id.
	assert.Equal(t, "msg-1@initech.example", msg.ThreadID)
}

func TestParseReaderHTMLFallback(t *testing.T) {
	msg, err := ParseReader(strings.NewReader(htmlMessage))
	require.NoError(t, err)

	assert.Contains(t, msg.Body, "schedule your interview")
	assert.Contains(t, msg.Body, "& confirm")
	assert.NotContains(t, msg.Body, "<")
}

func TestParseReaderReplyThreading(t *testing.T) {
	msg, err := ParseReader(strings.NewReader(replyMessage))
	require.NoError(t, err)

	assert.Equal(t, "msg-3@initech.example", msg.ID)
	assert.Equal(t, "msg-1@initech.example", msg.ThreadID)
}

func TestParseReaderMissingMessageID(t *testing.T) {
	raw := "Subject: no id\r\nContent-Type: text/plain\r\n\r\nbody\r\n"
	_, err := ParseReader(strings.NewReader(raw))
	assert.Error(t, err)
}

func TestParseDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.eml"), []byte(plainMessage), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.eml"), []byte(replyMessage), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.eml"), []byte("not a message"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600))

	messages, errs := ParseDir(dir)
	assert.Len(t, messages, 2)
	assert.Len(t, errs, 1)
}
