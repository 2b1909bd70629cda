// Package resume turns uploaded resume documents into plain text.
package resume

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MIMEText     = "text/plain"
	MIMEMarkdown = "text/markdown"
	MIMEPDF      = "application/pdf"
	MIMEDocx     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var ErrUnsupportedFormat = errors.New("unsupported resume format")

// ExtractError reports a document that was recognised but could not be read.
type ExtractError struct {
	MIME string
	Err  error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("failed to extract %s text: %v", e.MIME, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// Extract returns the text of a resume document. PDF pages are read in order;
// text fragments of one page are joined with a space and every page ends with
// a newline. Plain text is returned verbatim.
func Extract(mime string, data []byte) (string, error) {
	switch {
	case mime == MIMEPDF:
		pages, err := pdfPages(data)
		if err != nil {
			return "", &ExtractError{MIME: mime, Err: err}
		}
		return joinPages(pages), nil

	case mime == MIMEDocx:
		text, err := docxText(data)
		if err != nil {
			return "", &ExtractError{MIME: mime, Err: err}
		}
		return text, nil

	case strings.HasPrefix(mime, "text/"):
		return string(data), nil

	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
	}
}

// DetectMIME picks the document type from the declared content type, the file
// extension and finally the content itself.
func DetectMIME(filename, declared string, data []byte) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.Index(declared, ";"); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	switch declared {
	case MIMEPDF, MIMEDocx, MIMEText, MIMEMarkdown:
		return declared
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return MIMEPDF
	case ".docx":
		return MIMEDocx
	case ".txt":
		return MIMEText
	case ".md", ".markdown":
		return MIMEMarkdown
	}

	detected := mimetype.Detect(data)
	switch {
	case detected.Is(MIMEPDF):
		return MIMEPDF
	case detected.Is(MIMEDocx):
		return MIMEDocx
	case strings.HasPrefix(detected.String(), "text/"), utf8.Valid(data):
		return MIMEText
	}
	return detected.String()
}

func pdfPages(data []byte) (pages [][]string, err error) {
	// ledongthuc/pdf panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	numPages := reader.NumPage()
	pages = make([][]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, nil)
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", i, err)
		}
		var fragments []string
		for _, row := range rows {
			for _, word := range row.Content {
				fragments = append(fragments, word.S)
			}
		}
		pages = append(pages, fragments)
	}
	return pages, nil
}

func joinPages(pages [][]string) string {
	var sb strings.Builder
	for _, fragments := range pages {
		sb.WriteString(strings.Join(fragments, " "))
		sb.WriteString("\n")
	}
	return sb.String()
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxTab          = regexp.MustCompile(`<w:tab/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return stripDocxMarkup(doc.Editable().GetContent()), nil
}

// stripDocxMarkup reduces WordprocessingML to text, one line per paragraph.
func stripDocxMarkup(content string) string {
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, "\t")
	content = xmlTag.ReplaceAllString(content, "")
	replacer := strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")
	return strings.TrimSpace(replacer.Replace(content))
}

// ReadAll reads an upload fully; it exists so callers holding a multipart
// file do not each repeat the error wrapping.
func ReadAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume upload: %w", err)
	}
	return data, nil
}
