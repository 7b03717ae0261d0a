// Package pdf rasterizes exam-paper PDFs into per-page images by wrapping
// the poppler pdftoppm CLI.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// Rasterizer wraps pdftoppm CLI invocation.
type Rasterizer struct {
	Binary  string
	Timeout time.Duration
	DPI     int
}

// NewRasterizer returns a Rasterizer with sane defaults.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{
		Binary:  "pdftoppm",
		Timeout: 2 * time.Minute,
		DPI:     200,
	}
}

// Rasterize renders every page of pdfPath as a PNG under outputDir and
// returns the page image paths in page order.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath, outputDir string) ([]string, error) {
	if pdfPath == "" {
		return nil, fmt.Errorf("pdf path is required")
	}
	binary := r.Binary
	if binary == "" {
		binary = "pdftoppm"
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	dpi := r.DPI
	if dpi <= 0 {
		dpi = 200
	}

	header := make([]byte, 4)
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	n, _ := f.Read(header)
	f.Close()
	if n < 4 || string(header) != "%PDF" {
		return nil, fmt.Errorf("invalid PDF document: missing PDF header in %s", pdfPath)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	prefix := filepath.Join(outputDir, "page")

	args := []string{
		"-png",
		"-r", strconv.Itoa(dpi),
		pdfPath,
		prefix,
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w - %s", err, stderr.String())
	}

	pages, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("collect page images: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no page images for %s", pdfPath)
	}
	sortPageFiles(pages)
	return pages, nil
}

var rePageIndex = regexp.MustCompile(`-(\d+)\.png$`)

// sortPageFiles orders page images numerically; pdftoppm does not always
// zero-pad page indices so a plain lexical sort misorders page 10 before 2.
func sortPageFiles(files []string) {
	sort.Slice(files, func(i, j int) bool {
		return pageIndex(files[i]) < pageIndex(files[j])
	})
}

func pageIndex(file string) int {
	m := rePageIndex.FindStringSubmatch(file)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// EnsureBinary checks whether the rasterizer binary is available on PATH.
func EnsureBinary(binary string) error {
	if binary == "" {
		binary = "pdftoppm"
	}
	_, err := exec.LookPath(binary)
	if err != nil {
		return fmt.Errorf("pdftoppm binary not found (%s): %w", binary, err)
	}
	return nil
}
