package extract

import (
	"log/slog"
	"strconv"
	"strings"
)

// Normalizer canonicalizes extracted digit strings before they are published.
//
// With Absolute set, a leading minus sign is dropped and the magnitude is
// reported; the textual form is otherwise preserved exactly, so integer
// inputs stay integers ("-178" -> "178", never "178.0") and decimals keep
// their precision. Without it, the captured string passes through unchanged,
// sign included.
type Normalizer struct {
	// Absolute drops the sign from negative values.
	Absolute bool

	// Log receives a warning when a non-numeric string reaches the
	// normalizer. May be nil.
	Log *slog.Logger
}

// Normalize applies the configured policy to a captured value.
//
// A string that does not parse as a number passes through unchanged with a
// warning: a mangled field value is a soft failure of that one field, not a
// pipeline error.
func (n Normalizer) Normalize(value string) string {
	if !n.Absolute {
		return value
	}
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		if n.Log != nil {
			n.Log.Warn("normalizer: value is not numeric, passing through", "value", value)
		}
		return value
	}
	return strings.TrimPrefix(value, "-")
}
