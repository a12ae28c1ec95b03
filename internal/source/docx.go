package source

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// ExtractDOCX pulls paragraph text out of a .docx file. The format is a zip
// archive whose word/document.xml holds runs of text inside w:t elements;
// paragraphs become blank-line separated blocks. Returns the joined text
// and the paragraph count.
func ExtractDOCX(path string) (string, int, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", 0, fmt.Errorf("open docx: %w", err)
	}
	defer archive.Close()

	var docXML io.ReadCloser
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return "", 0, fmt.Errorf("open document.xml: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", 0, fmt.Errorf("docx has no word/document.xml")
	}
	defer docXML.Close()

	return parseDocumentXML(docXML)
}

func parseDocumentXML(r io.Reader) (string, int, error) {
	decoder := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", 0, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	if text := strings.TrimSpace(current.String()); text != "" {
		paragraphs = append(paragraphs, text)
	}

	return strings.Join(paragraphs, "\n\n"), len(paragraphs), nil
}
