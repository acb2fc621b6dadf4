package extract

import (
	"strings"

	"github.com/ironsheep/telemetry-ocr/internal/ocr"
)

// suffixWindow bounds how far from a base-label fragment the suffix token may
// sit, and how far past the suffix carrier the value may sit. OCR engines
// split a display row into at most a handful of fragments in practice.
const suffixWindow = 2

// reassemble recovers a label and value the OCR engine emitted as separate
// fragments, e.g. "位置波动", "(min):", "89".
//
// Every fragment containing the base label is considered in emission order:
// when the label carries a suffix token, the window around the occurrence is
// scanned for the fragment carrying the suffix, then the value is taken as
// the first signed decimal at or after the suffix carrier. Unsuffixed labels
// skip the suffix hop and scan forward from the base occurrence directly.
// The first complete (suffix, value) pair wins.
func reassemble(frags []ocr.Fragment, label string) (string, bool) {
	base, suffix := SplitLabel(label)

	for i, f := range frags {
		if !strings.Contains(f.Text, base) {
			continue
		}
		if suffix == "" {
			if v, ok := scanValue(frags, i, suffixWindow); ok {
				return v, true
			}
			continue
		}
		si, ok := findSuffix(frags, i, suffix)
		if !ok {
			continue
		}
		if v, ok := scanValue(frags, si, suffixWindow); ok {
			return v, true
		}
	}
	return "", false
}

// findSuffix scans the window around a base-label occurrence for a fragment
// carrying the suffix token. Bracketed carriers like "(min):" or "（min）："
// are covered by the substring check.
//
// Forward positions are tried first: on these displays the suffix follows
// its base label, and when several rows share a unit suffix the carrier at
// i-1/i-2 belongs to the previous row, not this one.
func findSuffix(frags []ocr.Fragment, i int, suffix string) (int, bool) {
	for _, off := range []int{0, 1, 2, -1, -2} {
		j := i + off
		if j < 0 || j >= len(frags) {
			continue
		}
		if strings.Contains(strings.ToLower(frags[j].Text), suffix) {
			return j, true
		}
	}
	return 0, false
}
