// Package textutil repairs the two kinds of noisy text this system lives on:
// raw OCR output and almost-JSON produced by language models.
//
// CleanOCRText is pure and idempotent; running it twice yields the same
// result as running it once. ParseJSONSafely walks a fixed chain of repair
// stages and only fails once every stage has been exhausted.
package textutil

import (
	"regexp"
	"strings"
)

// blankPlaceholder temporarily protects fill-in-the-blank markers while
// stray underscores are collapsed. The rune never occurs in OCR output.
const blankPlaceholder = "\x00"

var (
	// Running headers, test-series boilerplate and bare page numbers that
	// OCR picks up from page margins.
	reHeaderLine = regexp.MustCompile(`(?mi)^[^\n]*(?:cambridge ielts|ielts \d+|official practice (?:materials|tests)|test series|all rights reserved|photocopiable)[^\n]*$`)
	rePageLabel  = regexp.MustCompile(`(?mi)^\s*[-– ]*page\s+\d+[-– ]*\s*$`)
	rePageNumber = regexp.MustCompile(`(?m)^\s*\d{1,3}\s*$`)

	// Noise glyphs: pipe runs from table rules, long dash rules, and
	// underscore runs. Underscore runs are answer blanks and are preserved
	// in a canonical four-underscore form.
	rePipes       = regexp.MustCompile(`\|+`)
	reDashRule    = regexp.MustCompile(`-{3,}`)
	reBlankRun    = regexp.MustCompile(`_{2,}`)
	reLoneUnder   = regexp.MustCompile(`_`)
	reBlankMarker = regexp.MustCompile(regexp.QuoteMeta(blankPlaceholder))

	// OCR confuses leading list digits with look-alike letters.
	reListLetterOne  = regexp.MustCompile(`(?m)^(\s*)[lI]([.)]\s)`)
	reListDigitZero  = regexp.MustCompile(`(\d)[O]([.)\s])`)
	reHyphenLineWrap = regexp.MustCompile(`(\pL)-\s*\n\s*(\pL)`)

	reLineBreaks = regexp.MustCompile(`\s*\n+\s*`)

	reLowerUpper  = regexp.MustCompile(`(\p{Ll})(\p{Lu})`)
	reLetterDigit = regexp.MustCompile(`(\pL)(\d)`)
	reDigitLetter = regexp.MustCompile(`(\d)(\pL)`)

	reUnicodeDash = regexp.MustCompile(`\s*[\x{2010}\x{2012}\x{2013}\x{2014}\x{2015}\x{2212}]+\s*`)
	reSpacedDash  = regexp.MustCompile(`\s+-+\s+|\s+-+|-+\s+|--+`)

	reWhitespace = regexp.MustCompile(`\s+`)
)

// CleanOCRText normalizes raw OCR output into a single line of clean text.
// The transformations are ordered: line-based repairs run first while the
// original line structure is still intact, then line breaks are collapsed
// and the flattened text is normalized.
func CleanOCRText(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")

	// Line-based stripping of margins and boilerplate.
	text = reHeaderLine.ReplaceAllString(text, "")
	text = rePageLabel.ReplaceAllString(text, "")
	text = rePageNumber.ReplaceAllString(text, "")

	// Noise glyphs. Blank runs become a canonical marker so they survive
	// the collapse of stray underscores.
	text = rePipes.ReplaceAllString(text, " ")
	text = reDashRule.ReplaceAllString(text, " ")
	text = reBlankRun.ReplaceAllString(text, blankPlaceholder)
	text = reLoneUnder.ReplaceAllString(text, " ")
	text = reBlankMarker.ReplaceAllString(text, " ____ ")

	// Broken list numbering.
	text = reListLetterOne.ReplaceAllString(text, "${1}1${2}")
	text = reListDigitZero.ReplaceAllString(text, "${1}0${2}")

	// Words hyphenated across line breaks.
	text = reHyphenLineWrap.ReplaceAllString(text, "${1}${2}")

	// OCR inserts spurious paragraph breaks; downstream extraction wants a
	// single flow of text.
	text = reLineBreaks.ReplaceAllString(text, " ")

	// Missing spaces at case and digit boundaries.
	text = reLowerUpper.ReplaceAllString(text, "${1} ${2}")
	text = reLetterDigit.ReplaceAllString(text, "${1} ${2}")
	text = reDigitLetter.ReplaceAllString(text, "${1} ${2}")

	// Every dash variant becomes a uniformly spaced hyphen.
	text = reUnicodeDash.ReplaceAllString(text, " - ")
	text = reSpacedDash.ReplaceAllString(text, " - ")

	text = reWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
