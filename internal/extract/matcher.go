package extract

import (
	"regexp"
	"strings"

	"github.com/ironsheep/telemetry-ocr/internal/ocr"
)

// numberRe finds a signed decimal substring anywhere in a fragment.
var numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// matchPatterns applies the generated patterns to text in precedence order
// and returns the first captured value.
func matchPatterns(pats []*regexp.Regexp, text string) (string, bool) {
	for _, p := range pats {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// matchSingle applies the patterns to each fragment's text independently.
// Fragments are visited in emission order, so the earliest match wins.
func matchSingle(pats []*regexp.Regexp, frags []ocr.Fragment) (string, bool) {
	for _, f := range frags {
		if v, ok := matchPatterns(pats, f.Text); ok {
			return v, true
		}
	}
	return "", false
}

// matchWholeText joins all fragments with a space and re-applies the
// patterns. This recovers a label and value that share one fragment with
// intervening tokens the per-fragment pass missed, and label/value pairs
// adjacent across a fragment boundary.
func matchWholeText(pats []*regexp.Regexp, frags []ocr.Fragment) (string, bool) {
	if len(frags) == 0 {
		return "", false
	}
	texts := make([]string, len(frags))
	for i, f := range frags {
		texts[i] = f.Text
	}
	return matchPatterns(pats, strings.Join(texts, " "))
}

// scanValue returns the first signed decimal substring found in the fragment
// at start or in up to extra following fragments.
func scanValue(frags []ocr.Fragment, start, extra int) (string, bool) {
	for j := start; j <= start+extra && j < len(frags); j++ {
		if m := numberRe.FindString(frags[j].Text); m != "" {
			return m, true
		}
	}
	return "", false
}
