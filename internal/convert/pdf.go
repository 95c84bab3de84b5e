// Package convert turns incoming attachments into pipeline inputs: PDFs
// into per-page JPEGs and salary DOCX tables into key/value data.
package convert

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/intakehq/docintake/internal/utils"
)

// PDFToJPEGs extracts every embedded page image from the PDF at pdfPath and
// writes them as JPEGs into outDir, named <stem>_page<N>.jpg in page order.
// Scanned documents arrive as one full-page image per page, so image
// extraction recovers the original scans without rasterization.
func PDFToJPEGs(pdfPath, outDir string) ([]string, error) {
	tempDir, err := os.MkdirTemp("", "docintake-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", pdfPath, err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	if err := api.ExtractImagesFile(pdfPath, tempDir, nil, nil); err != nil {
		return nil, fmt.Errorf("convert %s: extract images: %w", pdfPath, err)
	}

	byPage, err := collectPageImages(tempDir)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", pdfPath, err)
	}
	if len(byPage) == 0 {
		return nil, fmt.Errorf("convert %s: no page images found", pdfPath)
	}

	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	var outPaths []string
	for _, pageNum := range pages {
		for i, img := range byPage[pageNum] {
			name := fmt.Sprintf("%s_page%d.jpg", stem, pageNum)
			if i > 0 {
				name = fmt.Sprintf("%s_page%d_%d.jpg", stem, pageNum, i+1)
			}
			outPath := filepath.Join(outDir, name)
			if err := utils.SaveJPEG(img, outPath, 95); err != nil {
				return nil, fmt.Errorf("convert %s: %w", pdfPath, err)
			}
			outPaths = append(outPaths, outPath)
		}
	}
	slog.Debug("converted pdf", "pdf", pdfPath, "pages", len(outPaths))
	return outPaths, nil
}

// collectPageImages loads pdfcpu's extracted files grouped by page number.
// pdfcpu names them page_<num>_<obj>.<ext>.
func collectPageImages(dir string) (map[int][]image.Image, error) {
	result := make(map[int][]image.Image)
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		pageNum, err := pageFromFilename(info.Name())
		if err != nil {
			return nil
		}
		img, _, err := utils.LoadImage(path)
		if err != nil {
			slog.Debug("skipping unreadable extracted image", "file", path, "error", err)
			return nil
		}
		result[pageNum] = append(result[pageNum], img)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func pageFromFilename(filename string) (int, error) {
	if !strings.HasPrefix(filename, "page_") {
		return 0, errors.New("not a page file")
	}
	parts := strings.Split(filename, "_")
	if len(parts) < 2 {
		return 0, errors.New("invalid extracted filename")
	}
	return strconv.Atoi(parts[1])
}
