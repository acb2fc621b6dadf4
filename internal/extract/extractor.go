package extract

import (
	"io"
	"log/slog"

	"github.com/ironsheep/telemetry-ocr/internal/ocr"
)

// Extractor runs the strategy pipeline for each configured field label.
//
// An Extractor is stateless apart from its configuration and may be shared
// across goroutines.
type Extractor struct {
	order PositionalOrder
	norm  Normalizer
	log   *slog.Logger
}

// NewExtractor creates an extractor with the given positional-inference order
// and normalization policy. logger may be nil.
func NewExtractor(order PositionalOrder, norm Normalizer, logger *slog.Logger) *Extractor {
	if order != MinFirst {
		order = MaxFirst
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{order: order, norm: norm, log: logger}
}

// Extract recovers the raw value bound to label, trying each strategy in
// full before falling to the next:
//
//  1. generated patterns against each fragment independently
//  2. cross-fragment reassembly
//  3. generated patterns against the joined whole text
//  4. fuzzy fallback (confusion repair, positional inference)
//
// The returned value is unnormalized. ok is false only when every strategy
// failed; that is a soft no-match, not an error.
func (e *Extractor) Extract(frags []ocr.Fragment, label string) (value string, ok bool) {
	if len(frags) == 0 {
		return "", false
	}
	pats := Patterns(label)

	if v, ok := matchSingle(pats, frags); ok {
		e.log.Debug("field matched in single fragment", "label", label, "value", v)
		return v, true
	}
	if v, ok := reassemble(frags, label); ok {
		e.log.Debug("field reassembled across fragments", "label", label, "value", v)
		return v, true
	}
	if v, ok := matchWholeText(pats, frags); ok {
		e.log.Debug("field matched in whole text", "label", label, "value", v)
		return v, true
	}
	if v, ok := fuzzy(frags, label, e.order); ok {
		e.log.Debug("field matched by fuzzy fallback", "label", label, "value", v)
		return v, true
	}
	return "", false
}

// ExtractAll extracts every field in the mapping and returns the flat output
// map. Every configured output key appears in the result: keys of a field
// with no recoverable value map to nil. Fields fail independently; one
// unmatched label never affects its siblings.
func (e *Extractor) ExtractAll(frags []ocr.Fragment, mapping Mapping) map[string]*string {
	out := make(map[string]*string, len(mapping.Fields))
	for _, field := range mapping.Fields {
		raw, ok := e.Extract(frags, field.Label)
		if !ok {
			for _, k := range field.Keys {
				out[k] = nil
			}
			e.log.Debug("field not found", "label", field.Label)
			continue
		}
		normalized := e.norm.Normalize(raw)
		for _, k := range field.Keys {
			v := normalized
			out[k] = &v
		}
	}
	return out
}
