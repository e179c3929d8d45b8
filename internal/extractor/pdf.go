// Package extractor turns statement files into pages of text lines.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadable means no method produced text that looks like a statement.
var ErrUnreadable = errors.New("no readable text could be extracted; the file may be image-based or use custom font encodings")

// ExtractPages reads a statement file and returns its lines, page by page.
// Plain-text files are split on form feeds; anything else is read as PDF.
func ExtractPages(filePath string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(filePath), ".txt") {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", filePath, err)
		}
		return SplitText(string(data)), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", filePath, err)
	}

	pages, libErr := ExtractPagesFromBytes(data)
	if libErr == nil {
		return pages, nil
	}

	// Go methods failed; try pdftotext (poppler-utils) as last resort
	popplerPages, popplerErr := extractWithPdftotext(context.Background(), filePath)
	if popplerErr == nil && isReadableText(popplerPages) {
		return popplerPages, nil
	}

	return nil, libErr
}

// ExtractPagesFromBytes reads an in-memory PDF.
func ExtractPagesFromBytes(data []byte) (pages [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	r, openErr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if openErr != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", openErr)
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	// Method 1: GetTextByRow (best layout preservation)
	pages = extractByRow(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	// Method 2: coordinate-based row reconstruction
	pages = extractByContent(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	// Method 3: whole-document plain text
	pages = [][]string{splitLines(extractByReaderPlainText(r))}
	if isReadableText(pages) {
		return pages, nil
	}

	return nil, ErrUnreadable
}

// SplitText splits pdftotext-style output into pages on form feeds.
func SplitText(text string) [][]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var pages [][]string
	for _, p := range strings.Split(text, "\f") {
		lines := splitLines(p)
		if len(lines) > 0 {
			pages = append(pages, lines)
		}
	}
	return pages
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// textQuality returns the ratio of basic ASCII readable characters to all
// characters. unicode.IsLetter is too broad: garbage from identity-encoded
// fonts decodes to accented letters.
func textQuality(pages [][]string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, line := range page {
			for _, r := range line {
				total++
				if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
					(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
					strings.ContainsRune(".,-/:;()'\"$%&@#!?+=*", r) {
					readable++
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// commonWords appear in virtually every statement, in English or Malay.
var commonWords = []string{
	"bank", "account", "balance", "date", "payment", "statement",
	"total", "amount", "credit", "debit", "transaction", "transfer",
	"opening", "closing", "page", "akaun", "baki", "tarikh", "jumlah",
}

func containsCommonWords(pages [][]string) bool {
	for _, page := range pages {
		combined := strings.ToLower(strings.Join(page, " "))
		for _, word := range commonWords {
			if strings.Contains(combined, word) {
				return true
			}
		}
	}
	return false
}

// isReadableText requires >50 characters, >60% readable ASCII and at least
// one recognizable word.
func isReadableText(pages [][]string) bool {
	if totalTextLen(pages) <= 50 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsCommonWords(pages)
}

// IsReadableText is the exported version for use by other packages.
func IsReadableText(pages [][]string) bool {
	return isReadableText(pages)
}

// extractWithPdftotext runs the external pdftotext command, which separates
// pages with form feeds.
func extractWithPdftotext(ctx context.Context, filePath string) ([][]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	out, err := exec.CommandContext(ctx, "pdftotext", "-layout", filePath, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}
	pages := SplitText(string(out))
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return pages, nil
}

func extractByRow(r *pdf.Reader, numPages int) [][]string {
	var pages [][]string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, lines)
	}
	return pages
}

// extractByContent groups text pieces by Y coordinate into rows, then
// orders each row by X.
func extractByContent(r *pdf.Reader, numPages int) [][]string {
	type textItem struct {
		x float64
		s string
	}

	var pages [][]string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		rowMap := make(map[int][]textItem)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], textItem{x: t.X, s: t.S})
		}

		// PDF Y grows upwards
		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var lines []string
		for _, y := range yKeys {
			items := rowMap[y]
			sort.Slice(items, func(a, b int) bool {
				return items[a].x < items[b].x
			})

			var parts []string
			var prevX float64
			for j, item := range items {
				if j > 0 && item.x-prevX > 15 {
					parts = append(parts, " ")
				}
				parts = append(parts, item.s)
				prevX = item.x
			}
			if line := strings.TrimSpace(strings.Join(parts, "")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, lines)
	}
	return pages
}

func extractByReaderPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return string(data)
}

func totalTextLen(pages [][]string) int {
	n := 0
	for _, p := range pages {
		for _, l := range p {
			n += len(strings.TrimSpace(l))
		}
	}
	return n
}
