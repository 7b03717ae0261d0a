// Package imaging classifies page images as map/diagram candidates from
// their OCR text and crops the likely map region.
package imaging

import "strings"

// mapKeywords flags a page as a map or diagram candidate when any of them
// appears in its OCR text. The list is a replaceable heuristic; keep it flat
// so it can be swapped for a real classifier without touching callers.
var mapKeywords = []string{
	"map",
	"plan",
	"diagram",
	"floor plan",
	"layout",
	"museum",
	"gallery",
	"entrance",
	"exit",
	"reception",
	"corridor",
	"stairs",
	"staircase",
	"lift",
	"elevator",
	"car park",
	"parking",
	"north",
	"south",
	"east",
	"west",
	"label the",
}

// ClassifyAsMap reports whether the page's OCR text suggests a map or
// diagram. Matching is a case-insensitive substring test.
func ClassifyAsMap(ocrText string) bool {
	if ocrText == "" {
		return false
	}
	lower := strings.ToLower(ocrText)
	for _, keyword := range mapKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
