package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html"
)

const docxDocument = "word/document.xml"

var xmlTag = regexp.MustCompile(`<[^>]+>`)

// docxExpansion bounds how far word/document.xml may inflate relative to
// the attachment size limit.
const docxExpansion = 4

// docxText returns the text runs of word/document.xml, one paragraph per line.
// Documents that inflate beyond limit bytes are rejected.
func docxText(data []byte, limit int64) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != docxDocument {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", docxDocument, err)
		}
		defer rc.Close()
		raw, err := io.ReadAll(io.LimitReader(rc, limit+1))
		if err != nil {
			return "", fmt.Errorf("read %s: %w", docxDocument, err)
		}
		if int64(len(raw)) > limit {
			return "", fmt.Errorf("%s exceeds %d bytes", docxDocument, limit)
		}
		text := strings.ReplaceAll(string(raw), "</w:p>", "\n")
		text = xmlTag.ReplaceAllString(text, "")
		return html.UnescapeString(text), nil
	}
	return "", fmt.Errorf("docx: missing %s", docxDocument)
}

// xlsxText joins the non-empty cells of every sheet with spaces.
func xlsxText(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var cells []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			for _, c := range row {
				if c = strings.TrimSpace(c); c != "" {
					cells = append(cells, c)
				}
			}
		}
	}
	return strings.Join(cells, " "), nil
}

// pdfText returns the plain text of every page.
func pdfText(data []byte) (text string, err error) {
	// The PDF reader panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf: %v", r)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("new pdf reader: %w", err)
	}
	var b strings.Builder
	for page := 1; page <= doc.NumPage(); page++ {
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", page, err)
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}
