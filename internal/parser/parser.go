package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"pdf-rag/internal/models"
)

// Page holds the extracted text of one page. Number is 1-based; 0 means the
// source format has no pages.
type Page struct {
	Number int
	Text   string
}

// Extract reads a document and returns its per-page text. PDF is the primary
// format; plain text is accepted as a single unpaged unit for the staging
// path. Corrupt, encrypted or textless PDFs come back as ErrUnreadablePDF.
func Extract(filePath string) ([]Page, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return extractPDF(filePath)
	case ".txt":
		return extractText(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func extractPDF(filePath string) ([]Page, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrUnreadablePDF, filepath.Base(filePath), err)
	}

	var pages []Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// a single bad page does not sink the document
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: pageText})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %s: no extractable text", models.ErrUnreadablePDF, filepath.Base(filePath))
	}
	return pages, nil
}

func extractText(filePath string) ([]Page, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("%w: %s: empty file", models.ErrUnreadablePDF, filepath.Base(filePath))
	}
	return []Page{{Number: 0, Text: string(data)}}, nil
}
