package chyron

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

var (
	billPattern   = regexp.MustCompile(`\b([HS]B\s*\d{1,4})\b`)
	whitespace    = regexp.MustCompile(`\s+`)
	nameStrip     = regexp.MustCompile(`[^A-Za-z0-9 .'-]`)
	leadingTitle  = regexp.MustCompile(`(?i)^(delegate|del\.?|senator|sen\.?|chair|rep\.?)\s+`)
	letterRun     = regexp.MustCompile(`[A-Za-z]{3}`)
	digitOCRFixes = strings.NewReplacer("0", "O", "1", "I")
)

// BillNumbers extracts bill identifiers such as "HB1234" from OCR text,
// in order of first appearance.
func BillNumbers(text string) []string {
	matches := billPattern.FindAllStringSubmatch(strings.ToUpper(text), -1)
	bills := lo.Map(matches, func(m []string, _ int) string {
		return whitespace.ReplaceAllString(m[1], "")
	})
	return lo.Uniq(bills)
}

// SpeakerName cleans a legislator chyron down to a name, or returns "" when
// too little of a name survives.
func SpeakerName(text string) string {
	value := strings.ReplaceAll(text, "—", "-")
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, value)
	value = nameStrip.ReplaceAllString(value, " ")
	value = collapse(value)
	if value == "" {
		return ""
	}

	// names never contain digits, so these are misread letters
	value = digitOCRFixes.Replace(value)

	for leadingTitle.MatchString(value) {
		value = leadingTitle.ReplaceAllString(value, "")
	}
	value = collapse(value)

	letters := lo.CountBy([]rune(value), func(r rune) bool {
		return r < unicode.MaxASCII && unicode.IsLetter(r)
	})
	if letters < 3 {
		return ""
	}
	return value
}

// Plausible reports whether raw OCR text looks like a real chyron of the
// given type rather than noise.
func Plausible(t Type, text string) bool {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) == 0 {
		return false
	}

	nonASCII := lo.CountBy(runes, func(r rune) bool { return r > unicode.MaxASCII })
	if float64(nonASCII)/float64(len(runes)) > 0.33 {
		return false
	}

	switch t {
	case Bill:
		return len(runes) >= 3 && strings.ContainsAny(text, "0123456789")
	case Legislator:
		return len(runes) >= 10 && letterRun.MatchString(text)
	}
	return false
}

// Normalize returns the cleaned form stored next to the raw text: a
// comma-separated bill list or a speaker name. Implausible text gives "".
func Normalize(t Type, text string) string {
	if !Plausible(t, text) {
		return ""
	}
	switch t {
	case Bill:
		return strings.Join(BillNumbers(text), ",")
	case Legislator:
		return SpeakerName(text)
	}
	return ""
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
