package convert

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseSalaryDOCX reads the first table of a salary DOCX and returns its
// two-column rows as key/value pairs. Rows with an empty key or value are
// skipped. DOCX is a zip archive whose body lives in word/document.xml.
func ParseSalaryDOCX(path string) (map[string]string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("salary docx %s: %w", path, err)
	}
	defer func() { _ = archive.Close() }()

	var body io.ReadCloser
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			body, err = f.Open()
			if err != nil {
				return nil, fmt.Errorf("salary docx %s: %w", path, err)
			}
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("salary docx %s: no document body", path)
	}
	defer func() { _ = body.Close() }()

	rows, err := tableRows(body)
	if err != nil {
		return nil, fmt.Errorf("salary docx %s: %w", path, err)
	}

	data := make(map[string]string)
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		key := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(row[0]), ":"))
		value := strings.TrimSpace(row[1])
		if key == "" || value == "" {
			continue
		}
		data[key] = value
	}
	slog.Debug("parsed salary document", "file", path, "entries", len(data))
	return data, nil
}

// tableRows streams through WordprocessingML and collects the cell texts of
// every table row. Only local element names matter; namespace prefixes vary
// between producers.
func tableRows(r io.Reader) ([][]string, error) {
	decoder := xml.NewDecoder(r)

	var rows [][]string
	var row []string
	var cell strings.Builder
	inRow, inCell := false, false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tr":
				inRow, row = true, nil
			case "tc":
				if inRow {
					inCell = true
					cell.Reset()
				}
			}
		case xml.CharData:
			if inCell {
				cell.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tc":
				if inCell {
					row = append(row, cell.String())
					inCell = false
				}
			case "tr":
				if inRow && len(row) > 0 {
					rows = append(rows, row)
				}
				inRow = false
			}
		}
	}
	return rows, nil
}
