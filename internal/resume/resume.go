// Package resume turns uploaded resume files into plain text.
package resume

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MIMEText = "text/plain"
	MIMEPDF  = "application/pdf"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// MaxSize is the largest upload accepted for extraction.
	MaxSize = 5 << 20
)

var (
	ErrTooLarge    = errors.New("resume file is larger than 5 MiB")
	ErrUnsupported = errors.New("unsupported resume file type")
	ErrEmpty       = errors.New("resume file contains no text")

	paragraphEndRe = regexp.MustCompile(`</w:p>|<w:br/>|<w:tab/>`)
	xmlTagRe       = regexp.MustCompile(`<[^>]+>`)
	blankLinesRe   = regexp.MustCompile(`\n{3,}`)
)

// DetectMIME picks the extraction type from the file name, falling back to
// content sniffing of head.
func DetectMIME(filename string, head []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".text":
		return MIMEText
	case ".pdf":
		return MIMEPDF
	case ".docx":
		return MIMEDocx
	}

	sniffed := http.DetectContentType(head)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	return strings.TrimSpace(sniffed)
}

// ExtractText returns the text content of a resume of the given MIME type.
func ExtractText(mime string, data []byte) (string, error) {
	if len(data) > MaxSize {
		return "", ErrTooLarge
	}

	var (
		text string
		err  error
	)

	switch mime {
	case MIMEText:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: text file is not valid UTF-8", ErrUnsupported)
		}
		text = string(data)
	case MIMEPDF:
		text, err = extractPDF(data)
	case MIMEDocx:
		text, err = extractDocx(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, mime)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return "", ErrEmpty
	}

	return text, nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	return b.String(), nil
}

func extractDocx(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	return stripDocumentXML(doc.Editable().GetContent()), nil
}

// stripDocumentXML reduces WordprocessingML to its text runs, one line per
// paragraph.
func stripDocumentXML(content string) string {
	content = paragraphEndRe.ReplaceAllString(content, "\n")
	content = xmlTagRe.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	return blankLinesRe.ReplaceAllString(content, "\n\n")
}
