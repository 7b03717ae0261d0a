package pdf

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSortPageFiles(t *testing.T) {
	files := []string{
		"out/page-10.png",
		"out/page-2.png",
		"out/page-1.png",
	}
	sortPageFiles(files)

	want := []string{"out/page-1.png", "out/page-2.png", "out/page-10.png"}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("unexpected order: %v", files)
		}
	}
}

func TestRasterize_RejectsNonPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-a-pdf.pdf")
	if err := os.WriteFile(path, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRasterizer()
	_, err := r.Rasterize(context.Background(), path, dir)
	if err == nil || !strings.Contains(err.Error(), "missing PDF header") {
		t.Fatalf("expected header validation error, got %v", err)
	}
}

func TestRasterize_RequiresPath(t *testing.T) {
	r := NewRasterizer()
	if _, err := r.Rasterize(context.Background(), "", t.TempDir()); err == nil {
		t.Fatal("expected error for empty pdf path")
	}
}
