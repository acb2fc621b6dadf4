package extract

import (
	"strings"

	"github.com/ironsheep/telemetry-ocr/internal/ocr"
)

// PositionalOrder selects which row a max/min pair's first base-label
// occurrence belongs to when no suffix token survived recognition.
type PositionalOrder string

const (
	// MaxFirst treats the first occurrence as the "(max)" row and the second
	// as "(min)". This matches the display layout of the devices this corpus
	// was collected from, but it is a convention, not a guarantee; it is
	// configurable for displays laid out the other way around.
	MaxFirst PositionalOrder = "max_first"

	// MinFirst treats the first occurrence as the "(min)" row.
	MinFirst PositionalOrder = "min_first"
)

// confusions lists the substrings the OCR engines are known to produce in
// place of a suffix token. Collected from field logs; extend only with
// observed misreads.
var confusions = map[string][]string{
	"max": {"max", "nax", "mux", "mac"},
	"min": {"min", "mix", "nin", "mir", "mic"},
}

// englishHints are the tokens that, next to a literal '?' glyph, identify a
// fragment as a suffix carrier the engine could not fully render.
var englishHints = []string{"max", "min", "mi", "rpm"}

// fuzzy is the last-resort matcher, invoked only after the pattern,
// reassembly, and whole-text strategies all failed.
//
// Sub-strategies in order: '?'-glyph repair, exact base+suffix co-occurrence,
// confusion-table lookup, positional inference for max/min pairs, and a
// nearest-neighbor scan for unsuffixed labels.
func fuzzy(frags []ocr.Fragment, label string, order PositionalOrder) (string, bool) {
	base, suffix := SplitLabel(label)

	// A '?' glyph means the engine could not render the target glyph. An
	// English hint token consistent with the label's suffix marks the
	// fragment as the suffix carrier anyway.
	if hints := hintsFor(suffix); len(hints) > 0 {
		for i, f := range frags {
			if !strings.ContainsAny(f.Text, "?？") {
				continue
			}
			t := strings.ToLower(f.Text)
			for _, h := range hints {
				if strings.Contains(t, h) {
					if v, ok := scanValue(frags, i, suffixWindow); ok {
						return v, true
					}
					break
				}
			}
		}
	}

	// Base and suffix landed in the same fragment but defeated the patterns
	// (stray glyphs between them, mangled brackets).
	if suffix != "" {
		for i, f := range frags {
			if strings.Contains(f.Text, base) && strings.Contains(strings.ToLower(f.Text), suffix) {
				if v, ok := scanValue(frags, i, suffixWindow); ok {
					return v, true
				}
			}
		}
	}

	// Character-confusion repair: accept known misreads of the suffix token
	// in fragments that carry the base label.
	if variants, ok := confusions[suffix]; ok {
		for i, f := range frags {
			if !strings.Contains(f.Text, base) {
				continue
			}
			t := strings.ToLower(f.Text)
			for _, variant := range variants {
				if strings.Contains(t, variant) {
					if v, ok := scanValue(frags, i, suffixWindow); ok {
						return v, true
					}
					break
				}
			}
		}
	}

	// Positional inference: exactly two base-label occurrences and a max/min
	// label means the suffix tokens were lost entirely; fall back to the
	// configured row order.
	if suffix == "max" || suffix == "min" {
		if v, ok := positional(frags, base, suffix, order); ok {
			return v, true
		}
	}

	// Unsuffixed labels: nearest-neighbor scan from the base occurrence.
	if suffix == "" {
		for i, f := range frags {
			if strings.Contains(f.Text, base) {
				if v, ok := scanValue(frags, i, suffixWindow); ok {
					return v, true
				}
			}
		}
	}

	return "", false
}

// hintsFor returns the '?'-repair hint tokens consistent with the label's
// suffix: "min" accepts the truncated "mi", the rest match exactly.
func hintsFor(suffix string) []string {
	if suffix == "" {
		return nil
	}
	var hints []string
	for _, h := range englishHints {
		if strings.HasPrefix(suffix, h) {
			hints = append(hints, h)
		}
	}
	return hints
}

// positional resolves a max/min pair by emission order when exactly two
// fragments carry the base label and no suffix evidence exists.
func positional(frags []ocr.Fragment, base, suffix string, order PositionalOrder) (string, bool) {
	var occ []int
	for i, f := range frags {
		if strings.Contains(f.Text, base) {
			occ = append(occ, i)
		}
	}
	if len(occ) != 2 {
		return "", false
	}

	first := suffix == "max"
	if order == MinFirst {
		first = !first
	}
	pick := occ[1]
	if first {
		pick = occ[0]
	}

	if m := numberRe.FindString(frags[pick].Text); m != "" {
		return m, true
	}
	// The value may trail in its own fragment; scan forward but never into
	// the sibling row's fragments.
	for j := pick + 1; j <= pick+suffixWindow && j < len(frags); j++ {
		if strings.Contains(frags[j].Text, base) {
			break
		}
		if m := numberRe.FindString(frags[j].Text); m != "" {
			return m, true
		}
	}
	return "", false
}
