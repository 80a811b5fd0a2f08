package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText decodes data as UTF-8, then GBK, then Latin-1. The first
// decoding that yields valid text wins.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	if out, err := simplifiedchinese.GBK.NewDecoder().Bytes(data); err == nil && !bytes.ContainsRune(out, utf8.RuneError) {
		return string(out)
	}
	// Latin-1 maps every byte, so this cannot fail.
	out, _ := charmap.ISO8859_1.NewDecoder().Bytes(data)
	return string(out)
}

// HTMLToText returns the visible text of an HTML document, one text node per
// line. Script and style contents are dropped.
func HTMLToText(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var (
		lines []string
		skip  int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(lines, "\n")
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawTag(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawTag(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			if text := strings.TrimSpace(string(z.Text())); text != "" {
				lines = append(lines, text)
			}
		}
	}
}

func isRawTag(name []byte) bool {
	switch string(name) {
	case "script", "style", "head", "title":
		return true
	}
	return false
}
