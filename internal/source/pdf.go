package source

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Page is one unit of a paginated document. Err is set when extraction of
// that page failed; callers log and skip such pages rather than aborting
// the document.
type Page struct {
	Number int // 1-based
	Text   string
	Err    error
}

// ExtractPDFPages extracts text page by page from a PDF file. A page that
// fails to extract is reported with its error in place; only failure to
// open the document itself is fatal.
func ExtractPDFPages(path string) (pages []Page, totalPages int, err error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	totalPages = doc.NumPage()
	for i := 0; i < totalPages; i++ {
		text, err := doc.Text(i)
		if err != nil {
			pages = append(pages, Page{Number: i + 1, Err: err})
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{Number: i + 1, Text: text})
	}

	return pages, totalPages, nil
}
