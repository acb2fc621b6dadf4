package extract

import (
	"regexp"
	"strings"
)

// numberCapture matches a signed decimal value. Negative telemetry readings
// (e.g. positional deviation) are legitimate, so the sign is captured.
const numberCapture = `(-?\d+(?:\.\d+)?)`

// valueSep separates a label from its value: optional whitespace around an
// optional ASCII or full-width colon.
const valueSep = `\s*[:：]?\s*`

// disambiguators are the suffix tokens that distinguish two rows sharing a
// base label. Stripping them from a pattern would let the "max" and "min"
// rows collide, so the bare-base pattern is never emitted for these.
var disambiguators = []string{"max", "min", "最大", "最小"}

// labelSuffixRe captures a trailing parenthesized token, accepting ASCII and
// full-width brackets: "位置波动 (max)" -> "位置波动", "max".
var labelSuffixRe = regexp.MustCompile(`^(.*?)\s*[（(]\s*([^（()）]+?)\s*[）)]\s*$`)

// SplitLabel splits a label into its base and its trailing parenthesized
// suffix token, if any. The suffix is lowercased; the base keeps its original
// form. Labels without a bracketed suffix return the label unchanged and an
// empty suffix.
func SplitLabel(label string) (base, suffix string) {
	m := labelSuffixRe.FindStringSubmatch(label)
	if m == nil {
		return label, ""
	}
	return m[1], strings.ToLower(m[2])
}

// disambiguator reports the max/min-style token carried by label, along with
// the base label preceding it. Labels whose only suffix is a unit like
// "(rpm)" carry no disambiguator.
func disambiguator(label string) (base, token string) {
	base, suffix := SplitLabel(label)
	for _, tok := range disambiguators {
		if suffix == tok {
			return base, tok
		}
	}
	lower := strings.ToLower(label)
	for _, tok := range disambiguators {
		if idx := strings.Index(lower, tok); idx >= 0 {
			return strings.TrimSpace(label[:idx]), tok
		}
	}
	return label, ""
}

// Patterns generates the ordered match patterns for a field label.
//
// Patterns are tried in precedence order:
//
//  1. The exact label, an optional colon, and a signed decimal capture.
//  2. A bracket-normalized variant where ASCII and full-width brackets (and
//     the surrounding spacing) are interchangeable, covering OCR output like
//     "位置波动（max）：123" for the label "位置波动 (max)".
//  3. The bare base label with any "(rpm)"-style suffix stripped. This
//     variant is never generated when the label carries a max/min-style
//     disambiguator: it would match the sibling row's value.
//  4. For labels carrying a disambiguator, a wide pattern tolerating
//     arbitrary filler between base label, suffix token, and value.
//
// Generation is deterministic and depends only on the label text.
func Patterns(label string) []*regexp.Regexp {
	base, _ := SplitLabel(label)
	disBase, disToken := disambiguator(label)

	pats := []*regexp.Regexp{
		regexp.MustCompile(regexp.QuoteMeta(label) + valueSep + numberCapture),
		regexp.MustCompile(bracketNormalized(label) + valueSep + numberCapture),
	}
	if base != label && disToken == "" {
		pats = append(pats, regexp.MustCompile(regexp.QuoteMeta(base)+valueSep+numberCapture))
	}
	if disToken != "" {
		pats = append(pats, regexp.MustCompile(
			`(?i)`+regexp.QuoteMeta(disBase)+`.*?`+regexp.QuoteMeta(disToken)+`.*?`+numberCapture))
	}
	return pats
}

// bracketNormalized renders label as a pattern in which ASCII and full-width
// brackets match each other, with flexible spacing around them.
func bracketNormalized(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch r {
		case '(', '（':
			b.WriteString(`\s*[（(]\s*`)
		case ')', '）':
			b.WriteString(`\s*[）)]\s*`)
		case ' ', '\t':
			b.WriteString(`\s*`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}
