// Package pdfdoc extracts embedded page images from PDF documents so the
// scan pipeline can process them like any other scanned image. It wraps
// pdfcpu and maps its failures onto a small set of typed errors.
package pdfdoc

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var (
	// ErrPasswordProtected reports an encrypted document that cannot be
	// opened without credentials.
	ErrPasswordProtected = errors.New("pdf is password protected")

	// ErrCorruptDocument reports a document pdfcpu could not parse.
	ErrCorruptDocument = errors.New("pdf is corrupt or not a pdf")

	// ErrDocumentNotFound reports a missing input path.
	ErrDocumentNotFound = errors.New("pdf document not found")
)

// RasterizeError wraps any page-image extraction failure that is not one
// of the sentinel conditions above.
type RasterizeError struct {
	Path string
	Err  error
}

func (e *RasterizeError) Error() string {
	return fmt.Sprintf("extracting page images from %s: %v", e.Path, e.Err)
}

func (e *RasterizeError) Unwrap() error { return e.Err }

// Page is one extracted page image in document order. Pages that embed
// multiple images yield multiple Page values with the same Number.
type Page struct {
	Number int
	Image  image.Image
}

// PageCount returns the number of pages in the document.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, classify(path, err)
	}
	return n, nil
}

// ExtractPages extracts the embedded images of the requested pages, in
// page order. An empty pageRange selects every page. The extraction goes
// through a temp directory because pdfcpu's image extraction is
// file-based.
func ExtractPages(path, pageRange string) ([]Page, error) {
	pages, err := ParsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	tempDir, err := os.MkdirTemp("", "scanforge-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var selected []string
	for _, p := range pages {
		selected = append(selected, strconv.Itoa(p))
	}

	if err := api.ExtractImagesFile(path, tempDir, selected, nil); err != nil {
		return nil, classify(path, err)
	}

	out, err := collectPages(tempDir)
	if err != nil {
		return nil, &RasterizeError{Path: path, Err: err}
	}
	return out, nil
}

// classify maps a pdfcpu error onto the package's typed errors. pdfcpu
// does not expose sentinel errors for these conditions, so the mapping
// goes by message.
func classify(path string, err error) error {
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "encrypt") || strings.Contains(msg, "password") || strings.Contains(msg, "decrypt"):
		return fmt.Errorf("%w: %s", ErrPasswordProtected, path)
	case strings.Contains(msg, "corrupt") || strings.Contains(msg, "no pdf") || strings.Contains(msg, "xref") || strings.Contains(msg, "header"):
		return fmt.Errorf("%w: %s: %v", ErrCorruptDocument, path, err)
	default:
		return &RasterizeError{Path: path, Err: err}
	}
}

// collectPages loads the images pdfcpu wrote into dir and orders them by
// page number. Filenames follow pdfcpu's <base>_<page>_Im<n>.<ext> /
// page_<n>_image_<n>.<ext> schemes; anything unparseable is skipped.
func collectPages(dir string) ([]Page, error) {
	var out []Page
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		pageNum, ok := pageNumberFromFilename(info.Name())
		if !ok {
			return nil
		}
		img, err := loadImage(path)
		if err != nil {
			return nil
		}
		out = append(out, Page{Number: pageNum, Image: img})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// pageNumberFromFilename pulls the page number out of a pdfcpu output
// filename: the first underscore-separated field that parses as an int.
func pageNumberFromFilename(name string) (int, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, part := range strings.Split(base, "_") {
		if n, err := strconv.Atoi(part); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // extraction writes these paths itself
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	img, _, err := image.Decode(f)
	return img, err
}

// ParsePageRange parses a selection like "1-5", "3" or "1,3,5-7" into an
// ordered page list. Empty input selects all pages (nil result).
func ParsePageRange(pageRange string) ([]int, error) {
	if pageRange == "" {
		return nil, nil
	}
	var pages []int
	for _, part := range strings.Split(pageRange, ",") {
		part = strings.TrimSpace(part)
		token, err := parseRangeToken(part)
		if err != nil {
			return nil, err
		}
		pages = append(pages, token...)
	}
	return pages, nil
}

func parseRangeToken(part string) ([]int, error) {
	if strings.Contains(part, "-") {
		bounds := strings.Split(part, "-")
		if len(bounds) != 2 {
			return nil, fmt.Errorf("invalid range format: %s", part)
		}
		start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", bounds[0])
		}
		end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", bounds[1])
		}
		if start < 1 {
			return nil, fmt.Errorf("page numbers start at 1, got %d", start)
		}
		if start > end {
			return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out, nil
	}
	page, err := strconv.Atoi(part)
	if err != nil {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	if page < 1 {
		return nil, fmt.Errorf("page numbers start at 1, got %d", page)
	}
	return []int{page}, nil
}
