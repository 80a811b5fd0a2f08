package eml

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddao/permmatch/internal/extract"
)

const multipartMessage = "From: hr@example.com\r\n" +
	"To: it@example.com\r\n" +
	"Subject: =?UTF-8?B?5p2D6ZmQ55Sz6K+3?=\r\n" +
	"Date: Mon, 04 Mar 2024 10:00:00 +0800\r\n" +
	"Message-ID: <req-1@example.com>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"b1\"\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"Content-Transfer-Encoding: 8bit\r\n" +
	"\r\n" +
	"请为张三新增权限\r\n" +
	"--b1\r\n" +
	"Content-Type: text/csv; name=\"list.csv\"\r\n" +
	"Content-Disposition: attachment; filename=\"list.csv\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"bmFtZSxpZArmnY7lm5ssRTIwMDIK\r\n" +
	"--b1\r\n" +
	"Content-Type: image/png\r\n" +
	"Content-Disposition: attachment; filename=\"logo.png\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"iVBORw0KGgo=\r\n" +
	"--b1--\r\n"

func newParser() *Parser {
	return NewParser(extract.New(extract.DefaultConfig()), nil)
}

func TestParse_Multipart(t *testing.T) {
	msg, err := newParser().Parse(strings.NewReader(multipartMessage), "a.msg.eml", 3)
	require.NoError(t, err)

	assert.Equal(t, "req-1@example.com", msg.ID)
	assert.Equal(t, "a.msg.eml", msg.Ref())
	assert.Equal(t, 3, msg.Index)
	assert.Equal(t, "权限申请", msg.Subject)
	assert.True(t, msg.Date.Equal(time.Date(2024, time.March, 4, 2, 0, 0, 0, time.UTC)))
	assert.Contains(t, msg.Body, "请为张三新增权限")

	require.Len(t, msg.Attachments, 2)
	csv := msg.Attachments[0]
	assert.Equal(t, "list.csv", csv.Filename)
	assert.True(t, csv.Extracted)
	assert.Contains(t, csv.Text, "李四,E2002")

	png := msg.Attachments[1]
	assert.False(t, png.Extracted)
	assert.Empty(t, png.Text)
	assert.Empty(t, png.Err)

	assert.Contains(t, msg.CombinedText(), "李四,E2002")
}

func TestParse_HTMLOnly(t *testing.T) {
	raw := "Subject: access\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<html><body><p>删除</p><p>E1001</p></body></html>\r\n"

	msg, err := newParser().ParseBytes([]byte(raw), "b.eml", 0)
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "删除")
	assert.Contains(t, msg.Body, "E1001")
	assert.NotContains(t, msg.Body, "<p>")
}

func TestParse_MissingDate(t *testing.T) {
	raw := "Subject: hello\r\n\r\nbody text\r\n"

	msg, err := newParser().ParseBytes([]byte(raw), "c.eml", 1)
	require.NoError(t, err)
	assert.True(t, msg.Date.IsZero())
	assert.Equal(t, "c.eml", msg.Ref())
	assert.Contains(t, msg.Body, "body text")
}

func TestParseDate(t *testing.T) {
	assert.True(t, parseDate("").IsZero())
	assert.True(t, parseDate("not a date").IsZero())
	assert.Equal(t, time.UTC, parseDate("Tue, 5 Mar 2024 08:30:00 -0500").Location())
}
