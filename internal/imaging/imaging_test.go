package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestClassifyAsMap(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"museum floor plan", "Label the plan of the museum below", true},
		{"compass directions", "The cafe is on the NORTH side of the building", true},
		{"diagram keyword", "Complete the diagram with the correct letters", true},
		{"parking", "visitors should use the car park opposite", true},
		{"plain listening text", "Write NO MORE THAN TWO WORDS for each answer", false},
		{"empty text", "", false},
		{"case insensitive", "A MAP of the harbour", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyAsMap(tt.text); got != tt.want {
				t.Errorf("ClassifyAsMap(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func writeTestPNG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.White)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestCropMapRegion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page-1.png")
	writeTestPNG(t, path, 1000, 500)

	croppedPath := CropMapRegion(path)
	if croppedPath == path {
		t.Fatal("expected a new cropped file path")
	}

	f, err := os.Open(croppedPath)
	if err != nil {
		t.Fatalf("cropped file missing: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("cropped file not a PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 800 || bounds.Dy() != 300 {
		t.Errorf("expected 800x300 crop, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestCropMapRegion_FailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()

	// Missing file.
	missing := filepath.Join(dir, "missing.png")
	if got := CropMapRegion(missing); got != missing {
		t.Errorf("expected original path for missing file, got %q", got)
	}

	// Not an image.
	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := CropMapRegion(garbage); got != garbage {
		t.Errorf("expected original path for undecodable file, got %q", got)
	}
}
