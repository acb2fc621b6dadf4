// Package extract recovers numeric field values from noisy OCR fragments.
//
// The input is an ordered list of recognized text fragments and a table of
// field labels (e.g. "平均速度 (rpm)", "位置波动 (max)"). The output binds each
// label's configured output keys to the numeric string found for it, or to
// nil when no value could be recovered.
//
// Extraction is resilient against the failure modes real OCR engines exhibit
// on instrument displays:
//
//   - Mis-segmentation: a label and its value split across several fragments
//     ("位置波动", "(min):", "89") are reassembled by scanning a bounded
//     window of neighboring fragments.
//   - Character confusion: "min" read as "mix"/"nin"/"mir" is repaired via a
//     fixed confusion table.
//   - Duplicate base labels: rows sharing a base label ("位置波动 (max)" and
//     "位置波动 (min)") are disambiguated by their suffix token, and as a last
//     resort by fragment emission order.
//
// # Strategy order
//
// For each label, four strategies run in a fixed order and the first success
// wins: per-fragment pattern match, cross-fragment reassembly, whole-text
// pattern match, fuzzy fallback. A label that defeats all four yields nil for
// every one of its output keys; the keys are never omitted from the result.
//
// Extraction holds no mutable state: extracting twice from the same fragments
// always produces the same values, and independent extractions may run
// concurrently.
package extract
