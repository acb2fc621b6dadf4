// Package ocr defines the fragment source abstraction for text recognition.
//
// A Recognizer turns an image into an ordered list of text fragments, each
// carrying the recognizer's confidence score and its position in the engine's
// emission order. The emission order is significant: downstream field
// extraction relies on it to disambiguate rows that share a base label.
//
// Engines are selected explicitly at construction time via New; there is no
// runtime probing of installed libraries. The default engine is Tesseract
// (via gosseract/v2).
//
// # Contract
//
// Recognize returns an empty fragment slice when the engine finds no text in
// the image. That is a valid result, not an error. Errors are reserved for
// genuine engine failures (initialization, I/O, recognition crashes).
//
// # Prerequisites
//
// The Tesseract engine requires the tesseract library and language data to be
// installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng tesseract-ocr-chi-sim
//   - macOS: brew install tesseract
//
// Use Probe to check availability before constructing a pipeline.
package ocr
